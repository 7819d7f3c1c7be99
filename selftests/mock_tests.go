package selftests

import (
	"github.com/launchdarkly/unit-test-harness/framework/helpers"
	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	"github.com/launchdarkly/unit-test-harness/framework/mock"
	"github.com/launchdarkly/unit-test-harness/framework/runcontext"

	"github.com/stretchr/testify/assert"
)

func doMockTests(t *ldtest.T) {
	t.Run("expectations met", func(t *ldtest.T) {
		m := requireContext(t).env.NewMock("Store").
			ExpectCallCount("Get", 2).
			Returns("Get", "value")
		assert.Equal(t, []interface{}{"value"}, m.Call("Get", "a"))
		m.Call("Get", "b")
		assert.True(t, m.Verify())
	})

	t.Run("counts start over in each test", func(t *ldtest.T) {
		m := requireContext(t).env.NewMock("Store")
		assert.Equal(t, 0, m.Calls("Get"))
	})

	t.Run("default name", func(t *ldtest.T) {
		env := requireContext(t).env
		assert.Equal(t, env.MockBaseClass(), env.NewMock("").Name())
	})

	t.Run("failures go to the active test", func(t *ldtest.T) {
		rc := runcontext.New()
		mock.Register(rc)
		recorder := &helpers.TestRecorder{}
		rc.SetTest(recorder)

		m := mock.New(rc, "Store").ExpectCallCount("Put", 1)
		assert.False(t, m.Verify())
		assert.Equal(t, []string{"mock Store: Put was called 0 times, expected 1"}, recorder.Errors)
	})
}
