// Package framework contains the low-level building blocks shared by every part of the unit test
// harness. The base package contains shared types such as Logger and Capabilities; other
// components are in subpackages.
//
// The general model is:
//
// 1. A single Environment (package testenv) is constructed at process start. It owns the
// Registry (package registry) of process-wide settings: the ignore list of test case names, the
// preferred-object pool, proxy settings, and the HTML parser preference list.
//
// 2. Each test run has a run context (package runcontext) that knows the active test scope and
// the active reporter, and caches helper objects that must be shared by everything that runs
// within one test, such as the call log used by mock objects (package mock).
//
// 3. Tests run inside ldtest scopes, which are similar to Go's testing.T. When a test fails, the
// stack tracer (package stacktrace) finds the line in the test code where the failing
// assertion helper was called.
package framework
