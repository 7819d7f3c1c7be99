package helpers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTestRecorder(t *testing.T) {
	t.Run("Errorf", func(t *testing.T) {
		var tr TestRecorder
		tr.Errorf("hello %s", "there")
		tr.Errorf("bye")
		assert.Equal(t, []string{"hello there", "bye"}, tr.Errors)
		assert.False(t, tr.Terminated)
	})

	t.Run("FailNow", func(t *testing.T) {
		var tr1 TestRecorder
		tr1.FailNow()
		assert.True(t, tr1.Terminated)

		tr2 := TestRecorder{PanicOnTerminate: true}
		assert.Panics(t, func() { tr2.FailNow() })
		assert.True(t, tr2.Terminated)
	})

	t.Run("Err", func(t *testing.T) {
		var tr TestRecorder
		assert.Nil(t, tr.Err())

		tr.Errorf("hello %s", "there")
		tr.Errorf("bye")
		assert.Equal(t, errors.New("hello there, bye"), tr.Err())
	})

	t.Run("reports assertion failures", func(t *testing.T) {
		var tr TestRecorder
		var tc TestContext = &tr
		assert.False(t, AssertEventually(tc, func() bool { return false }, time.Millisecond*20, time.Millisecond,
			"still waiting for %s", "value"))
		assert.Equal(t, []string{"still waiting for value"}, tr.Errors)
		assert.False(t, tr.Terminated)

		RequireEventually(tc, func() bool { return false }, time.Millisecond*20, time.Millisecond, "gave up")
		assert.True(t, tr.Terminated)
		assert.EqualError(t, tr.Err(), "still waiting for value, gave up")
	})
}
