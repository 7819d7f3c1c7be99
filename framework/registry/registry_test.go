package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/launchdarkly/unit-test-harness/framework"
	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	o "github.com/launchdarkly/unit-test-harness/framework/opt"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capableThing struct {
	name string
	caps framework.Capabilities
}

func (c *capableThing) Capabilities() framework.Capabilities { return c.caps }

func TestDefaults(t *testing.T) {
	r := New()

	assert.Equal(t, o.None[string](), r.DefaultProxy())
	assert.Equal(t, o.None[string](), r.DefaultProxyUsername())
	assert.Equal(t, o.None[string](), r.DefaultProxyPassword())
	assert.Equal(t, o.None[[]string](), r.Parsers())
	assert.Equal(t, "SimpleMock", r.MockBaseClass())
	assert.False(t, r.IsIgnored("anything"))
	assert.Len(t, r.IgnoredNames(), 0)
}

func TestDefaultPoolHasReportersInOrder(t *testing.T) {
	r := New()
	require.Len(t, r.preferredPool, 3)
	assert.IsType(t, &ldtest.HTMLTestLogger{}, r.preferredPool[0])
	assert.IsType(t, ldtest.ConsoleTestLogger{}, r.preferredPool[1])
	assert.IsType(t, &ldtest.JUnitTestLogger{}, r.preferredPool[2])

	text, ok := r.Preferred(ldtest.CapabilityTextReporter)
	require.True(t, ok)
	assert.IsType(t, ldtest.ConsoleTestLogger{}, text)

	// any reporter matches; the XML one was added last
	anyLogger, ok := r.Preferred(ldtest.CapabilityTestLogger)
	require.True(t, ok)
	assert.IsType(t, &ldtest.JUnitTestLogger{}, anyLogger)
}

func TestInitDefaultsResetsEverything(t *testing.T) {
	r := New()
	r.Ignore("Foo")
	r.UseProxy("http://proxy", o.Some("u"), o.Some("p"))
	r.SetParsers([]string{"html5"})
	r.SetMockBaseClass("OtherMock")
	r.Prefer(&capableThing{caps: framework.Capabilities{"X"}})

	r.InitDefaults()

	assert.False(t, r.IsIgnored("foo"))
	assert.Equal(t, ProxySettings{}, r.Proxy())
	assert.Equal(t, o.None[[]string](), r.Parsers())
	assert.Equal(t, DefaultMockBaseClass, r.MockBaseClass())
	_, ok := r.Preferred("X")
	assert.False(t, ok)
	assert.Len(t, r.preferredPool, 3)
}

func TestIgnoreIsCaseInsensitiveAndIdempotent(t *testing.T) {
	r := New()
	r.Ignore("Foo")
	once := r.IgnoredNames()
	r.Ignore("Foo")
	r.Ignore("FOO")

	assert.Equal(t, once, r.IgnoredNames())
	assert.Equal(t, []string{"foo"}, r.IgnoredNames())
	assert.True(t, r.IsIgnored("FOO"))
	assert.Equal(t, r.IsIgnored("FOO"), r.IsIgnored("foo"))
	assert.False(t, r.IsIgnored("Bar"))
}

func TestIgnoredNamesAreSorted(t *testing.T) {
	r := New()
	for _, name := range []string{"Zeta", "alpha", "Mid"} {
		r.Ignore(name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.IgnoredNames())
}

func TestPreferredReturnsMostRecent(t *testing.T) {
	r := New()
	a := &capableThing{name: "a", caps: framework.Capabilities{"C"}}
	b := &capableThing{name: "b", caps: framework.Capabilities{"C"}}
	r.Prefer(a)
	r.Prefer(b)

	found, ok := r.Preferred("C")
	require.True(t, ok)
	assert.Same(t, b, found)
}

func TestPreferredMatchesAnyCapability(t *testing.T) {
	r := New()
	a := &capableThing{name: "a", caps: framework.Capabilities{"A"}}
	b := &capableThing{name: "b", caps: framework.Capabilities{"B"}}
	r.Prefer(a)
	r.Prefer(b)

	found, ok := r.Preferred("A", "Nope")
	require.True(t, ok)
	assert.Same(t, a, found)

	found, ok = r.Preferred("A", "B")
	require.True(t, ok)
	assert.Same(t, b, found)
}

func TestPreferredMiss(t *testing.T) {
	r := New()
	found, ok := r.Preferred("NoSuchClass")
	assert.False(t, ok)
	assert.Nil(t, found)

	found, ok = r.Preferred()
	assert.False(t, ok)
	assert.Nil(t, found)
}

func TestPreferNilIsIgnored(t *testing.T) {
	r := New()
	r.Prefer(nil)
	r.Prefer((*ldtest.JUnitTestLogger)(nil))
	r.Prefer((*capableThing)(nil))
	assert.Len(t, r.preferredPool, 3)

	found, ok := r.Preferred(ldtest.CapabilityXMLReporter)
	require.True(t, ok)
	assert.NotNil(t, found)
}

func TestPreferredAs(t *testing.T) {
	r := New()
	thing := &capableThing{name: "a", caps: framework.Capabilities{ldtest.CapabilityTestLogger}}
	r.Prefer(thing)

	console, ok := PreferredAs[ldtest.ConsoleTestLogger](r, ldtest.CapabilityTestLogger)
	assert.True(t, ok)
	assert.Equal(t, ldtest.ConsoleTestLogger{}, console)

	found, ok := PreferredAs[*capableThing](r, ldtest.CapabilityTestLogger)
	require.True(t, ok)
	assert.Same(t, thing, found)

	_, ok = PreferredAs[*capableThing](r, ldtest.CapabilityXMLReporter)
	assert.False(t, ok)

	logger, ok := PreferredAs[ldtest.TestLogger](r, ldtest.CapabilityXMLReporter)
	require.True(t, ok)
	assert.IsType(t, &ldtest.JUnitTestLogger{}, logger)
}

func TestUseProxy(t *testing.T) {
	r := New()
	r.UseProxy("http://proxy:8080", o.Some("user"), o.None[string]())

	m.In(t).Assert(r.DefaultProxy(), m.Equal(o.Some("http://proxy:8080")))
	m.In(t).Assert(r.DefaultProxyUsername(), m.Equal(o.Some("user")))
	m.In(t).Assert(r.DefaultProxyPassword(), m.Equal(o.None[string]()))

	r.UseProxy("", o.Some("user"), o.Some("pass"))
	m.In(t).Assert(r.DefaultProxy(), m.Equal(o.None[string]()))
	m.In(t).Assert(r.DefaultProxyUsername(), m.Equal(o.Some("user")))
	m.In(t).Assert(r.DefaultProxyPassword(), m.Equal(o.Some("pass")))

	r.UseProxy("", o.None[string](), o.None[string]())
	assert.Equal(t, ProxySettings{}, r.Proxy())
}

func TestParsersAreCopied(t *testing.T) {
	r := New()
	in := []string{"html5", "dom"}
	r.SetParsers(in)
	in[0] = "changed"

	out := r.Parsers()
	require.True(t, out.IsDefined())
	assert.Equal(t, []string{"html5", "dom"}, out.Value())
	out.Value()[1] = "changed"
	assert.Equal(t, []string{"html5", "dom"}, r.Parsers().Value())

	r.SetParsers([]string{})
	assert.Equal(t, o.Some([]string{}), r.Parsers())

	r.SetParsers(nil)
	assert.False(t, r.Parsers().IsDefined())
}

func TestMockBaseClass(t *testing.T) {
	r := New()
	r.SetMockBaseClass("LegacyMock")
	assert.Equal(t, "LegacyMock", r.MockBaseClass())
}

func TestParentMap(t *testing.T) {
	p := ParentMap{"Child": "Base", "Orphan": ""}

	parent, ok := p.Parent("Child")
	assert.True(t, ok)
	assert.Equal(t, "Base", parent)

	_, ok = p.Parent("Orphan")
	assert.False(t, ok)
	_, ok = p.Parent("Base")
	assert.False(t, ok)
}

func TestParentMapIgnoresLetterCase(t *testing.T) {
	p := ParentMap{"Child": "Base", "ORPHAN": ""}

	parent, ok := p.Parent("child")
	assert.True(t, ok)
	assert.Equal(t, "Base", parent)

	_, ok = p.Parent("orphan")
	assert.False(t, ok)

	exact := ParentMap{"child": "Lower", "Child": "Upper"}
	parent, _ = exact.Parent("Child")
	assert.Equal(t, "Upper", parent)
	parent, _ = exact.Parent("CHILD")
	assert.Equal(t, "Upper", parent)
}

func TestConcurrentUpdates(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Ignore(fmt.Sprintf("case%d", i))
			r.Prefer(&capableThing{caps: framework.Capabilities{"C"}})
			_, _ = r.Preferred("C")
		}(i)
	}
	wg.Wait()
	assert.Len(t, r.IgnoredNames(), 20)
	assert.Len(t, r.preferredPool, 23)
}
