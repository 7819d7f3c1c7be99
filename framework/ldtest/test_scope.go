package ldtest

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/launchdarkly/unit-test-harness/framework"
	"github.com/launchdarkly/unit-test-harness/framework/runcontext"
	"github.com/launchdarkly/unit-test-harness/framework/stacktrace"
)

const ignoredTestCaseReason = "ignored test case"

type environment struct {
	config  TestConfiguration
	tracer  *stacktrace.Tracer
	results Results
}

// T represents a test scope. It is very similar to Go's testing.T type.
type T struct {
	env         *environment
	id          TestID
	debugLogger framework.CapturingLogger
	nonCritical string
	skipped     bool
	skipReason  string
	cleanups    []func()

	// these can be used by other goroutines, such as mock HTTP handlers
	helperFns   []string
	failed      bool
	errors      []error
	failureLock sync.Mutex
}

// IgnoreList decides whether a test case must not be run, usually because it is an abstract
// base case that only exists to be specialized.
type IgnoreList interface {
	IsIgnored(testCaseName string) bool
}

// TestConfiguration contains options for the entire test run.
type TestConfiguration struct {
	// Filter is an optional function for determining which tests to run based on their names.
	Filter Filter

	// TestLogger receives status information about each test.
	TestLogger TestLogger

	// IgnoreList is optional. Any subtest whose name it reports as ignored is skipped.
	IgnoreList IgnoreList

	// RunContext is optional. If set, it is told about the reporter at the start of the run and
	// about each test scope as it starts and finishes.
	RunContext *runcontext.Context

	// TracePrefixes are the function name prefixes used to find the failure point of an error.
	// If nil, stacktrace.DefaultPrefixes is used.
	TracePrefixes []string

	// Context is an optional value of any type defined by the application which can be accessed from tests.
	Context interface{}

	// Capabilities is a list of strings which are used by T.HasCapability and T.RequireCapability.
	Capabilities []string
}

func (t TestConfiguration) WithContext(context interface{}) TestConfiguration {
	t.Context = context
	return t
}

// Run starts a top-level test scope.
func Run(
	config TestConfiguration,
	action func(*T),
) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	prefixes := config.TracePrefixes
	if prefixes == nil {
		prefixes = stacktrace.DefaultPrefixes
	}
	env := &environment{
		config: config,
		tracer: stacktrace.NewTracer(prefixes), // excludes calls made from this package's folder
	}
	if config.RunContext != nil {
		config.RunContext.SetReporter(config.TestLogger)
	}
	t := &T{env: env}
	t.run(action)
	if config.RunContext != nil {
		config.RunContext.SetTest(nil)
	}
	return env.results
}

func (t *T) run(action func(*T)) (result TestResult) {
	result.TestID = t.id
	if rc := t.env.config.RunContext; rc != nil {
		rc.SetTest(t)
	}
	defer func() {
		if r := recover(); r != nil {
			if t.skipped {
				t.runCleanups()
				return
			}
			var addError error
			if _, ok := r.(*T); ok {
				if len(t.getErrors()) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			t.recordFailure(addError)
		}
		result.Errors = t.getErrors()
		if t.Failed() {
			if t.nonCritical == "" {
				t.env.results.Failures = append(t.env.results.Failures, result)
			} else {
				result.Explanation = t.nonCritical
				result.NonCritical = true
				t.env.results.NonCriticalFailures = append(t.env.results.NonCriticalFailures, result)
			}
		}
		t.env.results.Tests = append(t.env.results.Tests, result)
		t.runCleanups()
	}()

	action(t)
	return result
}

// recordFailure marks the test as failed and, if err is not nil, adds it to the test's errors.
func (t *T) recordFailure(err error) {
	t.failureLock.Lock()
	defer t.failureLock.Unlock()
	t.failed = true
	if err != nil {
		t.errors = append(t.errors, err)
		t.env.config.TestLogger.TestError(t.id, err)
	}
}

func (t *T) getErrors() []error {
	t.failureLock.Lock()
	defer t.failureLock.Unlock()
	return append([]error(nil), t.errors...)
}

func (t *T) runCleanups() {
	for i := len(t.cleanups) - 1; i >= 0; i-- {
		t.cleanups[i]()
	}
}

// ID returns the full name of the current test.
func (t *T) ID() TestID {
	return t.id
}

// Run runs a subtest in its own scope.
//
// This is equivalent to Go's testing.T.Run, except that a subtest whose name is in the ignore
// list, or that does not pass the filter, is reported as skipped without being run.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)

	t.env.config.TestLogger.TestStarted(id)
	if t.env.config.IgnoreList != nil && t.env.config.IgnoreList.IsIgnored(name) {
		t.markSkipped(id, ignoredTestCaseReason)
		return
	}
	if t.env.config.Filter != nil && !t.env.config.Filter.Match(id) {
		t.markSkipped(id, "excluded by filter parameters")
		return
	}
	c1 := &T{
		id:  id,
		env: t.env,
	}
	t.debugLogger.AddChildLogger(&c1.debugLogger) // see comments on t.DebugLogger()
	result := c1.run(action)
	t.debugLogger.RemoveChildLogger(&c1.debugLogger)
	if rc := t.env.config.RunContext; rc != nil {
		rc.SetTest(t)
	}
	if c1.skipped {
		t.markSkipped(id, c1.skipReason)
	} else {
		t.env.config.TestLogger.TestFinished(id, result, c1.debugLogger.Output())
	}
}

func (t *T) markSkipped(id TestID, reason string) {
	t.env.results.Skipped = append(t.env.results.Skipped, id)
	t.env.config.TestLogger.TestSkipped(id, reason)
}

// NonCritical indicates that if this test fails, we would like to know about it but we're willing to
// live with it. It will be shown in the output as a non-critical failure, accompanied by the
// explanation that is specified here. Non-critical failures do not make Results.OK return false.
func (t *T) NonCritical(explanation string) {
	t.nonCritical = explanation
}

// Errorf reports a test failure. It is equivalent to Go's testing.T.Errorf. It does not cause the test
// to terminate, but adds the failure message to the output and marks the test as failed.
//
// The error that is recorded carries a stacktrace and, if one can be found, the failure point: the
// outermost call to an assertion-like function that was made from test code.
//
// You will rarely use this method directly; it is part of this type's implementation of the base
// interfaces testing.T and assert.TestingT, allowing it to be called from assertion helpers.
//
// Errorf can be called from any goroutine.
func (t *T) Errorf(format string, args ...interface{}) {
	err := fmt.Errorf(format, args...)

	t.failureLock.Lock()
	helperFns := t.helperFns
	t.failureLock.Unlock()
	callers := getStacktrace(false, helperFns)
	failurePoint := t.env.tracer.TraceMethod(stacktrace.Capture())
	t.recordFailure(transformError(err, callers, failurePoint))
}

// FailNow causes the test to immediately terminate and be marked as failed.
//
// You will rarely use this method directly; it is part of this type's implementation of the base
// interfaces testing.T and assert.TestingT, allowing it to be called from assertion helpers.
func (t *T) FailNow() {
	panic(t)
}

// Failed returns true if the test has failed so far.
func (t *T) Failed() bool {
	t.failureLock.Lock()
	defer t.failureLock.Unlock()
	return t.failed
}

// Skip causes the test to immediately terminate and be marked as skipped.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is equivalent to Skip but provides a message.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Debug writes a message to the output for this test scope.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger instance for writing output for this test scope.
//
// The output that is captured for a test will be passed to TestLogger.TestFinished at the end of
// the test. The test runner can choose whether to display this or not based on command-line options.
//
// When a test has subtests (created with t.Run), the logger for a subtest starts out with a copy of
// any output that was already logged for the parent test. During the lifetime of the subtest, any
// further output that is sent to the parent test's logger will go to the child test's logger
// instead. This is useful when the parent test scope manages an object such as a mock that is
// reused by many subtests.
func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

// Defer schedules a cleanup function which is guaranteed to be called when this test scope
// exits for any reason. Unlike a Go defer statement, Defer can be used from within helper
// functions.
func (t *T) Defer(cleanupFn func()) {
	t.cleanups = append(t.cleanups, cleanupFn)
}

// Context returns the application-defined context value, if any, that was specified in the
// TestConfiguration.
func (t *T) Context() interface{} {
	return t.env.config.Context
}

// RunContext returns the run context from the TestConfiguration, or nil.
func (t *T) RunContext() *runcontext.Context {
	return t.env.config.RunContext
}

func (t *T) WithContext(context interface{}) *T {
	copied := *t
	copiedEnv := *t.env
	copiedEnv.config = copiedEnv.config.WithContext(context)
	copied.env = &copiedEnv
	return &copied
}

// Capabilities returns the capabilities specified in the TestConfiguration.
func (t *T) Capabilities() framework.Capabilities {
	return append(framework.Capabilities(nil), t.env.config.Capabilities...)
}

// RequireCapability causes the test to be skipped if the capability was not specified.
func (t *T) RequireCapability(name string) {
	if !t.Capabilities().Has(name) {
		t.SkipWithReason(fmt.Sprintf("test configuration does not have capability %q", name))
	}
}

// Helper marks the function that calls it as a test helper that shouldn't appear in stacktraces.
// Equivalent to Go's testing.T.Helper().
func (t *T) Helper() {
	pc, _, _, ok := runtime.Caller(1) // 0 is Helper() itself, 1 is who called it
	if !ok {
		return
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return
	}
	t.failureLock.Lock()
	t.helperFns = append(t.helperFns, f.Name())
	t.failureLock.Unlock()
}
