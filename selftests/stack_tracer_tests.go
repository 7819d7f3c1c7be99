package selftests

import (
	"runtime"
	"strings"

	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	"github.com/launchdarkly/unit-test-harness/framework/stacktrace"

	"github.com/stretchr/testify/assert"
)

const syntheticFrameworkDir = "/opt/framework/src"

func syntheticStack() []stacktrace.Frame {
	return []stacktrace.Frame{
		{File: syntheticFrameworkDir + "/Runner.php", Line: 10, Function: "runTests"},
		{File: syntheticFrameworkDir + "/TestCase.php", Line: 20, Function: "assertTrue"},
		{File: "/home/dev/tests/UserTest.php", Line: 42, Function: "assertHelper"},
		{File: syntheticFrameworkDir + "/Assert.php", Line: 30, Function: "assertEquals"},
		{File: "/home/dev/tests/UserTest.php", Line: 50, Function: "assertInner"},
	}
}

func checkOuter(tracer *stacktrace.Tracer) string { return checkInner(tracer) }

func checkInner(tracer *stacktrace.Tracer) string { return tracer.TraceMethod(nil) }

func doStackTracerTests(t *ldtest.T) {
	t.Run("skips framework frames", func(t *ldtest.T) {
		tracer := stacktrace.NewTracer([]string{"assert"}, syntheticFrameworkDir)
		assert.Equal(t, " at [/home/dev/tests/UserTest.php line 42]", tracer.TraceMethod(syntheticStack()))
	})

	t.Run("no match", func(t *ldtest.T) {
		tracer := stacktrace.NewTracer([]string{"expect"}, syntheticFrameworkDir)
		assert.Equal(t, "", tracer.TraceMethod(syntheticStack()))
	})

	t.Run("subdirectory of framework is not excluded", func(t *ldtest.T) {
		tracer := stacktrace.NewTracer([]string{"assert"}, syntheticFrameworkDir)
		stack := []stacktrace.Frame{
			{File: syntheticFrameworkDir + "/Extensions/Helper.php", Line: 7, Function: "assertExtension"},
		}
		assert.Equal(t, " at [/opt/framework/src/Extensions/Helper.php line 7]", tracer.TraceMethod(stack))
	})

	t.Run("live stack", func(t *ldtest.T) {
		tracer := stacktrace.NewTracer([]string{"check"}, "/no/such/dir")
		_, file, line, _ := runtime.Caller(0)
		location := checkOuter(tracer)
		assert.Equal(t, stacktrace.FormatLocation(stacktrace.Frame{File: file, Line: line + 1}), location)
	})

	t.Run("own folder is excluded by default", func(t *ldtest.T) {
		tracer := stacktrace.NewTracer([]string{"check"})
		location := checkOuter(tracer)
		assert.False(t, strings.Contains(location, "stack_tracer_tests.go"), location)
	})
}
