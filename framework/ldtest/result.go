package ldtest

import (
	"fmt"
	"strings"
)

// Results is the outcome of a test run.
type Results struct {
	Tests               []TestResult
	Failures            []TestResult
	NonCriticalFailures []TestResult
	Skipped             []TestID
}

// TestResult is the outcome of one test scope.
type TestResult struct {
	TestID      TestID
	Errors      []error
	NonCritical bool
	Explanation string
}

// OK returns true if there were no failures, not counting non-critical ones.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// TestID is the full name of a test: the names of all of its parent scopes, then its own name.
type TestID []string

func (t TestID) String() string {
	return strings.Join(t, "/")
}

// Plus returns a new TestID for a subtest. The original is not modified.
func (t TestID) Plus(name string) TestID {
	return append(append(TestID(nil), t...), name)
}

// Name returns the last component of the ID, or "" for the root scope.
func (t TestID) Name() string {
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}
