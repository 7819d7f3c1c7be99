// Package stacktrace recovers the point in test code where a failing assertion was made.
//
// Assertions are often wrapped by several layers of helper functions, both the harness's own and
// the test author's. Tracer scans a call stack from the outermost frame inward and reports the
// first call to a function whose name looks like an assertion, ignoring calls made from the
// harness's own source folder. The result is the highest-level call site that a test author
// would recognize as "the assertion that failed".
package stacktrace
