// Package runcontext holds the state of the current test run: the active test scope, the active
// reporter, and run-scoped helper objects.
//
// Helper objects are created on demand by Get, from factories registered with Register, and a
// single instance of each kind is shared by everything in the run until the active test or
// reporter changes. This lets collaborating objects such as mocks find each other's state
// without being wired together explicitly.
package runcontext

import (
	"errors"
	"fmt"
	"sync"

	"github.com/launchdarkly/unit-test-harness/framework/helpers"
)

// ErrUnknownResourceKind is returned by Get for a kind that has no registered factory.
var ErrUnknownResourceKind = errors.New("unknown resource kind")

// ResourceKind identifies a kind of run-scoped helper object.
type ResourceKind string

// Factory constructs a new default instance of a resource.
type Factory func() interface{}

// Context is the run context. Its methods are safe for concurrent use, but a Context represents
// one sequential test run; concurrent runs should each have their own.
type Context struct {
	factories map[ResourceKind]Factory
	test      helpers.TestContext
	reporter  interface{}
	resources map[ResourceKind]interface{}
	lock      sync.Mutex
}

// New creates a Context with no active test or reporter and no registered factories.
func New() *Context {
	return &Context{
		factories: make(map[ResourceKind]Factory),
		resources: make(map[ResourceKind]interface{}),
	}
}

// Register installs the factory for a resource kind, replacing any previous one. It does not
// affect an instance that has already been cached.
func (c *Context) Register(kind ResourceKind, factory Factory) {
	c.lock.Lock()
	c.factories[kind] = factory
	c.lock.Unlock()
}

// Clear discards all cached resources. The active test and reporter are unchanged.
func (c *Context) Clear() {
	c.lock.Lock()
	c.clear()
	c.lock.Unlock()
}

func (c *Context) clear() {
	c.resources = make(map[ResourceKind]interface{})
}

// SetTest discards all cached resources and makes test the active test. Mocks use the active
// test to report failures.
func (c *Context) SetTest(test helpers.TestContext) {
	c.lock.Lock()
	c.clear()
	c.test = test
	c.lock.Unlock()
}

// Test returns the active test, or nil if there is none.
func (c *Context) Test() helpers.TestContext {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.test
}

// SetReporter discards all cached resources and makes reporter the active reporter.
func (c *Context) SetReporter(reporter interface{}) {
	c.lock.Lock()
	c.clear()
	c.reporter = reporter
	c.lock.Unlock()
}

// Reporter returns the active reporter, or nil if there is none.
func (c *Context) Reporter() interface{} {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.reporter
}

// Get returns the cached instance of a resource kind, creating it first if necessary.
func (c *Context) Get(kind ResourceKind) (interface{}, error) {
	c.lock.Lock()
	if r, ok := c.resources[kind]; ok {
		c.lock.Unlock()
		return r, nil
	}
	factory := c.factories[kind]
	c.lock.Unlock()

	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResourceKind, kind)
	}
	// The factory runs without the lock held so that it may use the Context itself.
	created := factory()

	c.lock.Lock()
	defer c.lock.Unlock()
	if r, ok := c.resources[kind]; ok {
		return r, nil
	}
	c.resources[kind] = created
	return created, nil
}

// Resource is a typed version of Get.
func Resource[V any](c *Context, kind ResourceKind) (V, error) {
	var empty V
	r, err := c.Get(kind)
	if err != nil {
		return empty, err
	}
	v, ok := r.(V)
	if !ok {
		return empty, fmt.Errorf("resource %q is a %T, not a %T", kind, r, empty)
	}
	return v, nil
}
