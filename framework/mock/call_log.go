// Package mock contains mock objects that coordinate through the run context.
//
// All mocks in a run share one CallLog, obtained from the run context, so the call counts seen by
// a mock are reset whenever the active test changes.
package mock

import (
	"sync"

	"github.com/launchdarkly/unit-test-harness/framework/helpers"
	"github.com/launchdarkly/unit-test-harness/framework/runcontext"
)

// CallLogKind is the run context resource kind for the shared *CallLog.
const CallLogKind runcontext.ResourceKind = "mock.CallLog"

// Call is one recorded call.
type Call struct {
	Mock   string
	Method string
	Args   []interface{}
}

// CallLog records calls made to mocks during a run. It is safe for concurrent use.
type CallLog struct {
	calls []Call
	lock  sync.Mutex
}

// NewCallLog creates an empty CallLog. It has the signature of a runcontext.Factory.
func NewCallLog() interface{} {
	return &CallLog{}
}

// Register installs the CallLog factory in a run context.
func Register(ctx *runcontext.Context) {
	ctx.Register(CallLogKind, NewCallLog)
}

// Record adds a call to the log and returns how many calls have now been made to that method
// of that mock.
func (l *CallLog) Record(mockName, method string, args ...interface{}) int {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.calls = append(l.calls, Call{Mock: mockName, Method: method, Args: args})
	return l.count(mockName, method)
}

// Count returns how many calls have been made to a method of a mock.
func (l *CallLog) Count(mockName, method string) int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.count(mockName, method)
}

func (l *CallLog) count(mockName, method string) int {
	n := 0
	for _, c := range l.calls {
		if c.Mock == mockName && c.Method == method {
			n++
		}
	}
	return n
}

// Calls returns the calls made to a mock, in order.
func (l *CallLog) Calls(mockName string) []Call {
	l.lock.Lock()
	defer l.lock.Unlock()
	var ret []Call
	for _, c := range l.calls {
		if c.Mock == mockName {
			ret = append(ret, c)
		}
	}
	return ret
}

// Mocks returns the names of all mocks that have been called, sorted.
func (l *CallLog) Mocks() []string {
	l.lock.Lock()
	seen := make(map[string]bool)
	var ret []string
	for _, c := range l.calls {
		if !seen[c.Mock] {
			seen[c.Mock] = true
			ret = append(ret, c.Mock)
		}
	}
	l.lock.Unlock()
	return helpers.Sorted(ret)
}
