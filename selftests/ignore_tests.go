package selftests

import (
	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	"github.com/launchdarkly/unit-test-harness/framework/registry"
	"github.com/launchdarkly/unit-test-harness/framework/testenv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleParents = registry.ParentMap{"Child": "Base", "Base": "Root"} //nolint:gochecknoglobals

func newIgnoreEnv(t *ldtest.T) *testenv.Environment {
	env, err := testenv.New(testenv.WithParents(sampleParents), testenv.WithDebugLogger(t.DebugLogger()))
	require.NoError(t, err)
	return env
}

func doIgnorePropagationTests(t *ldtest.T) {
	t.Run("ignored child ignores parent", func(t *ldtest.T) {
		env := newIgnoreEnv(t)
		env.Ignore("Child")
		env.IgnoreParentsIfIgnored([]string{"Child"})
		assert.True(t, env.IsIgnored("Base"))
	})

	t.Run("runnable child leaves parent", func(t *ldtest.T) {
		env := newIgnoreEnv(t)
		env.IgnoreParentsIfIgnored([]string{"Child"})
		assert.False(t, env.IsIgnored("Base"))
	})

	t.Run("one generation per call", func(t *ldtest.T) {
		env := newIgnoreEnv(t)
		env.Ignore("Child")
		env.IgnoreParentsIfIgnored([]string{"Child"})
		assert.False(t, env.IsIgnored("Root"))
		env.IgnoreParentsIfIgnored([]string{"Base"})
		assert.True(t, env.IsIgnored("Root"))
	})

	t.Run("ignored cases are not run", func(t *ldtest.T) {
		env := requireContext(t).env
		env.Ignore("Abstract Base Case")
		ran := false
		t.Run("abstract base case", func(*ldtest.T) { ran = true })
		assert.False(t, ran)
	})
}
