// Package selftests contains a test suite, run with the ldtest framework, that checks the
// coordination layer against its documented behavior: the registry, the run context, the stack
// tracer, mocks, ignore propagation and the web client.
//
// Tests in this package use other packages as follows:
//
// testenv: the Environment under test, which also provides the run context for mocks
//
// ldtest: the basic test scope framework
//
// webclient: HTTP requests through the configured proxy
package selftests
