package selftests

import (
	"github.com/launchdarkly/unit-test-harness/framework"
	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	o "github.com/launchdarkly/unit-test-harness/framework/opt"
	"github.com/launchdarkly/unit-test-harness/framework/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolEntry struct {
	name string
	caps framework.Capabilities
}

func (p *poolEntry) Capabilities() framework.Capabilities { return p.caps }

func doRegistryTests(t *ldtest.T) {
	t.Run("defaults", func(t *ldtest.T) {
		r := registry.New()
		assert.False(t, r.DefaultProxy().IsDefined())
		assert.False(t, r.DefaultProxyUsername().IsDefined())
		assert.False(t, r.DefaultProxyPassword().IsDefined())
		assert.False(t, r.Parsers().IsDefined())
		assert.False(t, r.IsIgnored("anything"))
		assert.Equal(t, registry.DefaultMockBaseClass, r.MockBaseClass())
	})

	t.Run("default reporters", func(t *ldtest.T) {
		r := requireContext(t).env.Registry()
		for _, capability := range []string{
			ldtest.CapabilityHTMLReporter,
			ldtest.CapabilityTextReporter,
			ldtest.CapabilityXMLReporter,
		} {
			found, ok := r.Preferred(capability)
			if assert.True(t, ok, capability) {
				assert.True(t, found.Capabilities().Has(capability))
				_, isLogger := found.(ldtest.TestLogger)
				assert.True(t, isLogger)
			}
		}
	})

	t.Run("ignore is case-insensitive and idempotent", func(t *ldtest.T) {
		r := registry.New()
		r.Ignore("Foo")
		r.Ignore("Foo")
		assert.Equal(t, []string{"foo"}, r.IgnoredNames())
		assert.True(t, r.IsIgnored("FOO"))
		assert.True(t, r.IsIgnored("foo"))
	})

	t.Run("preferred pool", func(t *ldtest.T) {
		r := registry.New()
		a := &poolEntry{name: "a", caps: framework.Capabilities{"C"}}
		b := &poolEntry{name: "b", caps: framework.Capabilities{"C"}}
		r.Prefer(a)
		r.Prefer(b)

		t.Run("most recent wins", func(t *ldtest.T) {
			found, ok := r.Preferred("C")
			require.True(t, ok)
			assert.Same(t, b, found)
		})

		t.Run("miss", func(t *ldtest.T) {
			found, ok := r.Preferred("NoSuchClass")
			assert.False(t, ok)
			assert.Nil(t, found)
		})
	})

	t.Run("proxy and parsers", func(t *ldtest.T) {
		r := registry.New()
		r.UseProxy("http://proxy:3128", o.Some("user"), o.None[string]())
		r.SetParsers([]string{"html5"})
		assert.Equal(t, o.Some("http://proxy:3128"), r.DefaultProxy())
		assert.Equal(t, o.Some("user"), r.DefaultProxyUsername())
		assert.Equal(t, o.Some([]string{"html5"}), r.Parsers())
	})
}
