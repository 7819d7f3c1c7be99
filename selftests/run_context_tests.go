package selftests

import (
	"github.com/launchdarkly/unit-test-harness/framework/helpers"
	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	"github.com/launchdarkly/unit-test-harness/framework/runcontext"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct{ serial int }

const widgetKind runcontext.ResourceKind = "selftests.widget"

func newWidgetContext() *runcontext.Context {
	serial := 0
	rc := runcontext.New()
	rc.Register(widgetKind, func() interface{} {
		serial++
		return &widget{serial: serial}
	})
	return rc
}

func doRunContextTests(t *ldtest.T) {
	t.Run("stable between switches", func(t *ldtest.T) {
		rc := newWidgetContext()
		w1, err := runcontext.Resource[*widget](rc, widgetKind)
		require.NoError(t, err)
		w2, err := runcontext.Resource[*widget](rc, widgetKind)
		require.NoError(t, err)
		assert.Same(t, w1, w2)
	})

	t.Run("new test gets new resources", func(t *ldtest.T) {
		rc := newWidgetContext()
		w1, _ := runcontext.Resource[*widget](rc, widgetKind)
		rc.SetTest(&helpers.TestRecorder{})
		w2, _ := runcontext.Resource[*widget](rc, widgetKind)
		assert.NotSame(t, w1, w2)
		assert.Equal(t, 2, w2.serial)
	})

	t.Run("new reporter gets new resources", func(t *ldtest.T) {
		rc := newWidgetContext()
		w1, _ := runcontext.Resource[*widget](rc, widgetKind)
		rc.SetReporter("reporter")
		w2, _ := runcontext.Resource[*widget](rc, widgetKind)
		assert.NotSame(t, w1, w2)
		assert.Equal(t, "reporter", rc.Reporter())
	})

	t.Run("clear keeps test and reporter", func(t *ldtest.T) {
		rc := newWidgetContext()
		recorder := &helpers.TestRecorder{}
		rc.SetTest(recorder)
		rc.SetReporter("reporter")
		rc.Clear()
		assert.Same(t, recorder, rc.Test())
		assert.Equal(t, "reporter", rc.Reporter())
	})

	t.Run("unknown kind", func(t *ldtest.T) {
		_, err := newWidgetContext().Get("selftests.nothing")
		assert.ErrorIs(t, err, runcontext.ErrUnknownResourceKind)
	})

	t.Run("active test is the running scope", func(t *ldtest.T) {
		assert.Same(t, t, t.RunContext().Test())
		t.Run("subtest", func(t1 *ldtest.T) {
			assert.Same(t1, t1, t1.RunContext().Test())
		})
		assert.Same(t, t, t.RunContext().Test())
	})
}
