// Package testenv is the entry point that the rest of a test run uses to reach shared state. An
// Environment owns a registry.Registry and a lazily created runcontext.Context, and implements the
// rule that ignoring a specialized test case can also ignore its parent.
package testenv

import (
	"sync"

	"github.com/launchdarkly/unit-test-harness/framework"
	"github.com/launchdarkly/unit-test-harness/framework/helpers"
	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	"github.com/launchdarkly/unit-test-harness/framework/mock"
	o "github.com/launchdarkly/unit-test-harness/framework/opt"
	"github.com/launchdarkly/unit-test-harness/framework/registry"
	"github.com/launchdarkly/unit-test-harness/framework/runcontext"
)

// Environment is created once per process by New and passed to whatever needs it.
type Environment struct {
	registry       *registry.Registry
	configs        []registry.Config
	resolver       registry.ParentResolver
	configParents  registry.ParentMap
	factories      map[runcontext.ResourceKind]runcontext.Factory
	debugLogger    framework.Logger
	tracePrefixes  []string
	runContext     *runcontext.Context
	runContextOnce sync.Once
}

// Option is a configuration option for New.
type Option = helpers.ConfigOption[Environment]

// WithRegistry makes the Environment use an existing Registry instead of creating one.
func WithRegistry(r *registry.Registry) Option {
	return helpers.ConfigOptionFunc[Environment](func(e *Environment) error {
		e.registry = r
		return nil
	})
}

// WithConfig applies a configuration to the registry when the Environment is created. Parent
// mappings in the config are consulted after any resolver given with WithParents.
func WithConfig(c registry.Config) Option {
	return helpers.ConfigOptionFunc[Environment](func(e *Environment) error {
		e.configs = append(e.configs, c)
		return nil
	})
}

// WithParents sets the resolver used by IgnoreParentsIfIgnored.
func WithParents(resolver registry.ParentResolver) Option {
	return helpers.ConfigOptionFunc[Environment](func(e *Environment) error {
		e.resolver = resolver
		return nil
	})
}

// WithResource registers a run context resource factory.
func WithResource(kind runcontext.ResourceKind, factory runcontext.Factory) Option {
	return helpers.ConfigOptionFunc[Environment](func(e *Environment) error {
		e.factories[kind] = factory
		return nil
	})
}

// WithDebugLogger sets the logger for diagnostic messages about configuration decisions.
func WithDebugLogger(logger framework.Logger) Option {
	return helpers.ConfigOptionFunc[Environment](func(e *Environment) error {
		e.debugLogger = logger
		return nil
	})
}

// WithTracePrefixes sets the function name prefixes used to find failure points.
func WithTracePrefixes(prefixes ...string) Option {
	return helpers.ConfigOptionFunc[Environment](func(e *Environment) error {
		e.tracePrefixes = helpers.CopyOf(prefixes)
		return nil
	})
}

// New creates an Environment. Unless WithRegistry is used, it has a new registry with default
// settings.
func New(options ...Option) (*Environment, error) {
	e := &Environment{
		configParents: make(registry.ParentMap),
		factories:     make(map[runcontext.ResourceKind]runcontext.Factory),
	}
	if err := helpers.ApplyOptions(e, options...); err != nil {
		return nil, err
	}
	if e.registry == nil {
		e.registry = registry.New()
	}
	if e.debugLogger == nil {
		e.debugLogger = framework.NullLogger()
	}
	for _, c := range e.configs {
		e.registry.Apply(c)
		for child, parent := range c.Parents {
			e.configParents[child] = parent
		}
	}
	return e, nil
}

func (e *Environment) Registry() *registry.Registry { return e.registry }

// RunContext returns the run context, creating it on first use. The CallLog used by mocks and
// any factories given with WithResource are registered in it.
func (e *Environment) RunContext() *runcontext.Context {
	e.runContextOnce.Do(func() {
		rc := runcontext.New()
		mock.Register(rc)
		for kind, factory := range e.factories {
			rc.Register(kind, factory)
		}
		e.runContext = rc
	})
	return e.runContext
}

// Parent returns the parent of a test case, asking the resolver from WithParents first and then
// the parent mappings from the configuration.
func (e *Environment) Parent(name string) (string, bool) {
	if e.resolver != nil {
		if parent, ok := e.resolver.Parent(name); ok {
			return parent, true
		}
	}
	return e.configParents.Parent(name)
}

// IgnoreParentsIfIgnored ignores the parent of every name in the list that is currently ignored.
// It only goes up one generation per name: to ignore grandparents, call it again with the
// parents, or pass a list in which children come before their parents.
func (e *Environment) IgnoreParentsIfIgnored(names []string) {
	for _, name := range names {
		if !e.registry.IsIgnored(name) {
			continue
		}
		parent, ok := e.Parent(name)
		if !ok {
			continue
		}
		if !e.registry.IsIgnored(parent) {
			e.debugLogger.Printf("ignoring %q because its child %q is ignored", parent, name)
		}
		e.registry.Ignore(parent)
	}
}

// TestConfiguration returns an ldtest.TestConfiguration that uses this Environment's ignore list,
// run context and trace prefixes.
func (e *Environment) TestConfiguration(filter ldtest.Filter, logger ldtest.TestLogger) ldtest.TestConfiguration {
	return ldtest.TestConfiguration{
		Filter:        filter,
		TestLogger:    logger,
		IgnoreList:    e.registry,
		RunContext:    e.RunContext(),
		TracePrefixes: e.tracePrefixes,
	}
}

// NewMock creates a mock bound to the run context. If name is empty, the mock base class name
// from the registry is used.
func (e *Environment) NewMock(name string) *mock.Mock {
	if name == "" {
		name = e.registry.MockBaseClass()
	}
	return mock.New(e.RunContext(), name)
}

// NewHTTPService creates a mock HTTP service bound to the run context.
func (e *Environment) NewHTTPService(name string, logger framework.Logger) *mock.HTTPService {
	return mock.NewHTTPService(e.RunContext(), name, logger)
}

// Snapshot returns the effective configuration, including parent mappings from the configuration.
func (e *Environment) Snapshot() registry.Config {
	c := e.registry.Snapshot()
	if len(e.configParents) != 0 {
		c.Parents = make(map[string]string, len(e.configParents))
		for child, parent := range e.configParents {
			c.Parents[child] = parent
		}
	}
	return c
}

func (e *Environment) Ignore(name string)           { e.registry.Ignore(name) }
func (e *Environment) IsIgnored(name string) bool   { return e.registry.IsIgnored(name) }
func (e *Environment) Prefer(obj framework.Capable) { e.registry.Prefer(obj) }

func (e *Environment) Preferred(capabilities ...string) (framework.Capable, bool) {
	return e.registry.Preferred(capabilities...)
}

func (e *Environment) UseProxy(url string, username, password o.Maybe[string]) {
	e.registry.UseProxy(url, username, password)
}

func (e *Environment) DefaultProxy() o.Maybe[string]         { return e.registry.DefaultProxy() }
func (e *Environment) DefaultProxyUsername() o.Maybe[string] { return e.registry.DefaultProxyUsername() }
func (e *Environment) DefaultProxyPassword() o.Maybe[string] { return e.registry.DefaultProxyPassword() }
func (e *Environment) Parsers() o.Maybe[[]string]             { return e.registry.Parsers() }
func (e *Environment) SetParsers(parsers []string)            { e.registry.SetParsers(parsers) }

// MockBaseClass forwards to the registry.
//
// Deprecated: name mocks explicitly.
func (e *Environment) MockBaseClass() string { return e.registry.MockBaseClass() }

// SetMockBaseClass forwards to the registry.
//
// Deprecated: name mocks explicitly.
func (e *Environment) SetMockBaseClass(name string) { e.registry.SetMockBaseClass(name) }
