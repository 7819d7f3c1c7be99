package stacktrace

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

const fakeFrameworkDir = "/opt/harness/framework"

func TestTraceMethodFindsUserAssertion(t *testing.T) {
	stack := []Frame{
		{File: "/opt/harness/framework/runner.go", Line: 10, Function: "assertRunner"},
		{File: "UserTest.go", Line: 42, Function: "assertHelper"},
		{File: "/opt/harness/framework/checks.go", Line: 99, Function: "assertEqual"},
	}
	tr := NewTracer([]string{"assert"}, fakeFrameworkDir)
	assert.Equal(t, " at [UserTest.go line 42]", tr.TraceMethod(stack))
}

func TestTraceMethodReturnsEmptyStringWithoutMatch(t *testing.T) {
	stack := []Frame{
		{File: "UserTest.go", Line: 42, Function: "helper"},
		{File: "UserTest.go", Line: 50, Function: "TestSomething"},
	}
	tr := NewTracer([]string{"assert"}, fakeFrameworkDir)
	assert.Equal(t, "", tr.TraceMethod(stack))
}

func TestTraceMethodPrefersOutermostMatch(t *testing.T) {
	stack := []Frame{
		{File: "outer_test.go", Line: 5, Function: "assertValid"},
		{File: "helpers_test.go", Line: 17, Function: "assertField"},
	}
	tr := NewTracer([]string{"assert"}, fakeFrameworkDir)
	assert.Equal(t, " at [outer_test.go line 5]", tr.TraceMethod(stack))
}

func TestTraceMethodMatchesAnyPrefix(t *testing.T) {
	stack := []Frame{
		{File: "a_test.go", Line: 1, Function: "TestA"},
		{File: "a_test.go", Line: 2, Function: "ExpectNoError"},
	}
	tr := NewTracer([]string{"Assert", "Expect"}, fakeFrameworkDir)
	assert.Equal(t, " at [a_test.go line 2]", tr.TraceMethod(stack))
}

func TestTraceMethodPrefixIsCaseSensitive(t *testing.T) {
	stack := []Frame{{File: "a_test.go", Line: 1, Function: "AssertThing"}}
	tr := NewTracer([]string{"assert"}, fakeFrameworkDir)
	assert.Equal(t, "", tr.TraceMethod(stack))
}

func TestTraceMethodDoesNotExcludeFrameworkSubdirectories(t *testing.T) {
	stack := []Frame{
		{File: "/opt/harness/framework/runner.go", Line: 10, Function: "assertRunner"},
		{File: "/opt/harness/framework/examples/example.go", Line: 7, Function: "assertExample"},
	}
	tr := NewTracer([]string{"assert"}, fakeFrameworkDir)
	assert.Equal(t, " at [/opt/harness/framework/examples/example.go line 7]", tr.TraceMethod(stack))
}

func TestTraceMethodDoesNotExcludeSiblingWithSamePrefix(t *testing.T) {
	stack := []Frame{{File: "/opt/harness/framework-extras/extra.go", Line: 3, Function: "assertExtra"}}
	tr := NewTracer([]string{"assert"}, fakeFrameworkDir)
	assert.Equal(t, " at [/opt/harness/framework-extras/extra.go line 3]", tr.TraceMethod(stack))
}

func TestTraceMethodAcceptsFrameworkDirWithTrailingSlash(t *testing.T) {
	stack := []Frame{{File: "/opt/harness/framework/runner.go", Line: 10, Function: "assertRunner"}}
	tr := NewTracer([]string{"assert"}, fakeFrameworkDir+"/")
	assert.Equal(t, "", tr.TraceMethod(stack))
}

func assertOuter(tr *Tracer) string {
	return assertInner(tr)
}

func assertInner(tr *Tracer) string {
	return tr.TraceMethod(nil)
}

func TestTraceMethodCapturesLiveStack(t *testing.T) {
	tr := NewTracer([]string{"assert"}, "/no/such/dir")
	_, file, line, _ := runtime.Caller(0)
	result := assertInner(tr)
	assert.Equal(t, FormatLocation(Frame{File: file, Line: line + 1}), result)
}

func TestTraceMethodReportsOutermostLiveCall(t *testing.T) {
	tr := NewTracer([]string{"assert"}, "/no/such/dir")
	_, file, line, _ := runtime.Caller(0)
	result := assertOuter(tr)
	assert.Equal(t, FormatLocation(Frame{File: file, Line: line + 1}), result)
}

func recurse(depth int, fn func() string) string {
	if depth == 0 {
		return fn()
	}
	return recurse(depth-1, fn)
}

func assertDeep(tr *Tracer) string {
	return recurse(150, func() string { return assertInner(tr) })
}

func TestTraceMethodFindsOutermostCallInDeepStack(t *testing.T) {
	tr := NewTracer([]string{"assert"}, "/no/such/dir")
	_, file, line, _ := runtime.Caller(0)
	result := assertDeep(tr)
	assert.Equal(t, FormatLocation(Frame{File: file, Line: line + 1}), result)
}

func TestCaptureKeepsOutermostFramesOfDeepStack(t *testing.T) {
	var stack []Frame
	recurse(300, func() string {
		stack = Capture()
		return ""
	})
	assert.Greater(t, len(stack), 300)
	found := false
	for _, f := range stack {
		if f.Function == "TestCaptureKeepsOutermostFramesOfDeepStack" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTracerDefaultsToCallersDirectory(t *testing.T) {
	tr := NewTracer([]string{"assert"})
	assert.Equal(t, []string{CallerDir(0)}, tr.FrameworkDirs())

	// every call below is made from this directory, so nothing qualifies
	assert.Equal(t, "", assertOuter(tr))
}

func TestCaptureIsOutermostFirst(t *testing.T) {
	stack := Capture()
	if assert.NotEmpty(t, stack) {
		innermost := stack[len(stack)-1]
		assert.Equal(t, "TestCaptureIsOutermostFirst", innermost.Function)
		assert.Contains(t, innermost.File, "testing.go")
	}
}

func TestBareFunctionName(t *testing.T) {
	assert.Equal(t, "AssertThing", BareFunctionName("example.com/a/pkg.(*Suite).AssertThing"))
	assert.Equal(t, "Helper", BareFunctionName("example.com/a/pkg.Helper"))
	assert.Equal(t, "func1", BareFunctionName("example.com/a/pkg.TestX.func1"))
	assert.Equal(t, "main", BareFunctionName("main.main"))
	assert.Equal(t, "plain", BareFunctionName("plain"))
}
