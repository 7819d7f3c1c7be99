package stacktrace

import (
	"fmt"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

const initialCaptureDepth = 64

// Frame describes one call in a stack. Function is the bare name of the function that was
// called, without its package path or receiver type, and File and Line give the call site.
type Frame struct {
	File     string
	Line     int
	Function string
}

func (f Frame) String() string {
	return fmt.Sprintf("%s (%s:%d)", f.Function, f.File, f.Line)
}

// Capture returns the current goroutine's call stack, ordered from the outermost call to the
// innermost. The innermost frame is the call to the function that called Capture.
func Capture() []Frame {
	return captureFrom(3) // skip runtime.Callers, captureFrom, and Capture
}

func captureFrom(skip int) []Frame {
	// runtime.Callers fills the buffer from the innermost frame, so a short buffer would lose the
	// outermost calls
	pcs := make([]uintptr, initialCaptureDepth)
	n := runtime.Callers(skip, pcs)
	for n == len(pcs) {
		pcs = make([]uintptr, len(pcs)*2)
		n = runtime.Callers(skip, pcs)
	}
	if n == 0 {
		return nil
	}
	var raw []runtime.Frame
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		raw = append(raw, f)
		if !more {
			break
		}
	}

	// raw[i] is executing inside raw[i].Function at raw[i].File:Line; that position is where
	// raw[i-1].Function was called from
	ret := make([]Frame, 0, len(raw))
	for i := len(raw) - 1; i > 0; i-- {
		ret = append(ret, Frame{
			File:     raw[i].File,
			Line:     raw[i].Line,
			Function: BareFunctionName(raw[i-1].Function),
		})
	}
	return ret
}

// BareFunctionName strips the package path and any receiver from a fully qualified Go function
// name, so "example.com/pkg.(*Suite).AssertThing" becomes "AssertThing". Closures keep their
// generated suffix ("TestX.func1" becomes "func1").
func BareFunctionName(fullName string) string {
	name := fullName
	if lastSlash := strings.LastIndex(name, "/"); lastSlash >= 0 {
		name = name[lastSlash+1:]
	}
	if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
		name = name[lastDot+1:]
	}
	return name
}

// CallerDir returns the directory of the source file of a function on the call stack: 0 means
// the function that called CallerDir. It returns "" if the stack is not that deep.
func CallerDir(skip int) string {
	_, file, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	return normalizeDir(path.Dir(filepath.ToSlash(file)))
}

func normalizeDir(dir string) string {
	return strings.TrimSuffix(filepath.ToSlash(dir), "/")
}
