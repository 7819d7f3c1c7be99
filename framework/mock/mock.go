package mock

import (
	"fmt"
	"sort"
	"sync"

	"github.com/launchdarkly/unit-test-harness/framework/helpers"
	"github.com/launchdarkly/unit-test-harness/framework/runcontext"
)

// Mock is a named mock object. Calls to it are recorded in the run's CallLog, and expectation
// failures are reported to the run context's active test.
type Mock struct {
	ctx      *runcontext.Context
	name     string
	expected map[string]int
	returns  map[string][]interface{}
	lock     sync.Mutex
}

// New creates a Mock bound to a run context. The run context must have the CallLog factory
// registered (see Register).
func New(ctx *runcontext.Context, name string) *Mock {
	return &Mock{
		ctx:      ctx,
		name:     name,
		expected: make(map[string]int),
		returns:  make(map[string][]interface{}),
	}
}

func (m *Mock) Name() string { return m.name }

// ExpectCallCount sets the number of times a method must be called before Verify. A call beyond
// that number fails the test immediately.
func (m *Mock) ExpectCallCount(method string, n int) *Mock {
	m.lock.Lock()
	m.expected[method] = n
	m.lock.Unlock()
	return m
}

// Returns sets the values that Call returns for a method.
func (m *Mock) Returns(method string, values ...interface{}) *Mock {
	m.lock.Lock()
	m.returns[method] = helpers.CopyOf(values)
	m.lock.Unlock()
	return m
}

// Call records a call to a method and returns the values configured with Returns.
func (m *Mock) Call(method string, args ...interface{}) []interface{} {
	n := m.callLog().Record(m.name, method, args...)

	m.lock.Lock()
	expected, hasExpectation := m.expected[method]
	values := m.returns[method]
	m.lock.Unlock()

	if hasExpectation && n > expected {
		m.fail("mock %s: %s was called %d times, expected %d", m.name, method, n, expected)
	}
	return values
}

// Calls returns how many times a method has been called in the current test.
func (m *Mock) Calls(method string) int {
	return m.callLog().Count(m.name, method)
}

// Verify reports a failure for every method whose call count does not match its expectation.
// It returns true if all expectations were met.
func (m *Mock) Verify() bool {
	m.lock.Lock()
	expected := make(map[string]int, len(m.expected))
	methods := make([]string, 0, len(m.expected))
	for method, n := range m.expected {
		expected[method] = n
		methods = append(methods, method)
	}
	m.lock.Unlock()
	sort.Strings(methods)

	ok := true
	log := m.callLog()
	for _, method := range methods {
		if n := log.Count(m.name, method); n != expected[method] {
			m.fail("mock %s: %s was called %d times, expected %d", m.name, method, n, expected[method])
			ok = false
		}
	}
	return ok
}

func (m *Mock) callLog() *CallLog {
	log, err := runcontext.Resource[*CallLog](m.ctx, CallLogKind)
	if err != nil {
		panic(fmt.Errorf("mock %s: %w", m.name, err))
	}
	return log
}

func (m *Mock) fail(format string, args ...interface{}) {
	if t := m.ctx.Test(); t != nil {
		t.Errorf(format, args...)
	}
}
