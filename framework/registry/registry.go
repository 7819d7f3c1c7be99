// Package registry holds the configuration that is shared by every test run in the process: the
// ignore list of test case names, the preferred-object pool, proxy settings, and parser
// preferences.
//
// A Registry is created once by the composition root (see testenv.New) and passed to whatever
// needs it. There is no package-level instance.
package registry

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/launchdarkly/unit-test-harness/framework"
	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	o "github.com/launchdarkly/unit-test-harness/framework/opt"

	"golang.org/x/exp/slices"
)

// DefaultMockBaseClass is the initial value of MockBaseClass.
const DefaultMockBaseClass = "SimpleMock"

// ProxySettings is a snapshot of the proxy configuration. An undefined URL means no proxy.
type ProxySettings struct {
	URL      o.Maybe[string]
	Username o.Maybe[string]
	Password o.Maybe[string]
}

// Registry is the process-wide configuration store. All methods are safe for concurrent use.
type Registry struct {
	ignoreList    map[string]struct{}
	preferredPool []framework.Capable
	proxy         ProxySettings
	parsers       o.Maybe[[]string]
	mockBaseClass string
	lock          sync.Mutex
}

// New returns a Registry on which InitDefaults has already been called.
func New() *Registry {
	r := &Registry{}
	r.InitDefaults()
	return r
}

// InitDefaults resets every field to its initial value. The preferred pool is seeded with one
// instance each of the HTML, text and XML reporters, in that order, all writing to standard
// output.
func (r *Registry) InitDefaults() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.ignoreList = make(map[string]struct{})
	r.preferredPool = []framework.Capable{
		ldtest.NewHTMLTestLogger("", ""),
		ldtest.ConsoleTestLogger{},
		ldtest.NewJUnitTestLogger("", ldtest.RegexFilters{}, nil),
	}
	r.proxy = ProxySettings{}
	r.parsers = o.None[[]string]()
	r.mockBaseClass = DefaultMockBaseClass
}

// Ignore adds a test case name to the ignore list. Names are compared case-insensitively.
func (r *Registry) Ignore(name string) {
	r.lock.Lock()
	r.ignoreList[strings.ToLower(name)] = struct{}{}
	r.lock.Unlock()
}

// IsIgnored returns true if the name, in any letter case, is in the ignore list.
func (r *Registry) IsIgnored(name string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	_, ok := r.ignoreList[strings.ToLower(name)]
	return ok
}

// IgnoredNames returns the lower-cased ignored names in sorted order.
func (r *Registry) IgnoredNames() []string {
	r.lock.Lock()
	ret := make([]string, 0, len(r.ignoreList))
	for name := range r.ignoreList {
		ret = append(ret, name)
	}
	r.lock.Unlock()
	sort.Strings(ret)
	return ret
}

// Prefer adds an object to the preferred pool. Later additions take precedence over earlier ones.
// A nil value, including a typed nil pointer, is not added.
func (r *Registry) Prefer(obj framework.Capable) {
	if isNil(obj) {
		return
	}
	r.lock.Lock()
	r.preferredPool = append(r.preferredPool, obj)
	r.lock.Unlock()
}

// Preferred returns the most recently added pool object that declares any of the capabilities.
// The second return value is false if there is none.
func (r *Registry) Preferred(capabilities ...string) (framework.Capable, bool) {
	r.lock.Lock()
	pool := slices.Clone(r.preferredPool)
	r.lock.Unlock()
	// Capabilities() is called without the lock, since it is implemented by arbitrary objects.
	for i := len(pool) - 1; i >= 0; i-- {
		if pool[i].Capabilities().HasAny(capabilities...) {
			return pool[i], true
		}
	}
	return nil, false
}

// PreferredAs is like Preferred, but only considers objects that are of type V, or that
// implement V if it is an interface.
func PreferredAs[V any](r *Registry, capabilities ...string) (V, bool) {
	r.lock.Lock()
	pool := slices.Clone(r.preferredPool)
	r.lock.Unlock()
	for i := len(pool) - 1; i >= 0; i-- {
		if v, ok := pool[i].(V); ok && pool[i].Capabilities().HasAny(capabilities...) {
			return v, true
		}
	}
	var empty V
	return empty, false
}

// UseProxy sets the proxy configuration. An empty URL is stored as undefined, which means no
// proxy; the username and password are stored as given either way. The values are not validated.
func (r *Registry) UseProxy(url string, username, password o.Maybe[string]) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.proxy = ProxySettings{URL: o.NonEmpty(url), Username: username, Password: password}
}

// Proxy returns a snapshot of the proxy configuration.
func (r *Registry) Proxy() ProxySettings {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.proxy
}

func (r *Registry) DefaultProxy() o.Maybe[string]         { return r.Proxy().URL }
func (r *Registry) DefaultProxyUsername() o.Maybe[string] { return r.Proxy().Username }
func (r *Registry) DefaultProxyPassword() o.Maybe[string] { return r.Proxy().Password }

// Parsers returns a copy of the parser preference list, or None if the framework default should
// be used.
func (r *Registry) Parsers() o.Maybe[[]string] {
	r.lock.Lock()
	defer r.lock.Unlock()
	if p, ok := r.parsers.Get(); ok {
		return o.Some(slices.Clone(p))
	}
	return o.None[[]string]()
}

// SetParsers sets the parser preference list. A nil list restores the framework default.
func (r *Registry) SetParsers(parsers []string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if parsers == nil {
		r.parsers = o.None[[]string]()
		return
	}
	r.parsers = o.Some(slices.Clone(parsers))
}

// MockBaseClass returns the name that mocks are created with when no name is given.
//
// Deprecated: name mocks explicitly.
func (r *Registry) MockBaseClass() string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.mockBaseClass
}

// SetMockBaseClass changes the value returned by MockBaseClass.
//
// Deprecated: name mocks explicitly.
func (r *Registry) SetMockBaseClass(name string) {
	r.lock.Lock()
	r.mockBaseClass = name
	r.lock.Unlock()
}

// ParentResolver finds the parent of a test case, for propagating ignores from a specialized
// case to its abstract base.
type ParentResolver interface {
	Parent(name string) (string, bool)
}

// ParentMap is a ParentResolver backed by a map from child name to parent name. Child names are
// matched case-insensitively, like the ignore list; an exact match is preferred.
type ParentMap map[string]string

func (p ParentMap) Parent(name string) (string, bool) {
	parent, ok := p[name]
	if !ok {
		var keys []string
		for child := range p {
			if strings.EqualFold(child, name) {
				keys = append(keys, child)
			}
		}
		if len(keys) == 0 {
			return "", false
		}
		sort.Strings(keys)
		parent = p[keys[0]]
	}
	if parent == "" {
		return "", false
	}
	return parent, true
}

func isNil(obj interface{}) bool {
	if obj == nil {
		return true
	}
	switch v := reflect.ValueOf(obj); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
