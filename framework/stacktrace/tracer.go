package stacktrace

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// DefaultPrefixes are the function name prefixes that identify assertion-like calls.
var DefaultPrefixes = []string{"Assert", "Require", "Expect", "assert", "require", "expect"} //nolint:gochecknoglobals

// Tracer finds the failure point of an assertion in a call stack.
type Tracer struct {
	prefixes      []string
	frameworkDirs []string
}

// NewTracer creates a Tracer that looks for calls to functions whose names start with any of
// the prefixes. Calls made from files directly inside any of frameworkDirs are ignored; if none
// are given, the directory of the file that called NewTracer is used.
func NewTracer(prefixes []string, frameworkDirs ...string) *Tracer {
	t := &Tracer{prefixes: append([]string(nil), prefixes...)}
	if len(frameworkDirs) == 0 {
		frameworkDirs = []string{CallerDir(1)}
	}
	for _, d := range frameworkDirs {
		if d != "" {
			t.frameworkDirs = append(t.frameworkDirs, normalizeDir(d))
		}
	}
	return t
}

// Prefixes returns the function name prefixes this Tracer matches.
func (t *Tracer) Prefixes() []string {
	return append([]string(nil), t.prefixes...)
}

// FrameworkDirs returns the directories whose call sites are ignored.
func (t *Tracer) FrameworkDirs() []string {
	return append([]string(nil), t.frameworkDirs...)
}

// TraceMethod returns a fragment like " at [file line 42]" for the outermost call in the stack
// that was made from outside the framework directories to a function matching one of the
// prefixes, or "" if there is no such call. The stack must be ordered outermost first; if it is
// empty, the current call stack is captured.
func (t *Tracer) TraceMethod(stack []Frame) string {
	if len(stack) == 0 {
		stack = captureFrom(3) // skip runtime.Callers, captureFrom, and TraceMethod
	}
	for _, frame := range stack {
		if t.liesWithinFramework(frame) {
			continue
		}
		if t.matchesPrefix(frame) {
			return FormatLocation(frame)
		}
	}
	return ""
}

// FormatLocation renders the location of a call as it appears in failure messages.
func FormatLocation(frame Frame) string {
	return fmt.Sprintf(" at [%s line %d]", frame.File, frame.Line)
}

// A file in a subdirectory of a framework directory is not considered to be within it.
func (t *Tracer) liesWithinFramework(frame Frame) bool {
	if frame.File == "" {
		return false
	}
	dir := normalizeDir(path.Dir(filepath.ToSlash(frame.File)))
	for _, d := range t.frameworkDirs {
		if dir == d {
			return true
		}
	}
	return false
}

func (t *Tracer) matchesPrefix(frame Frame) bool {
	for _, p := range t.prefixes {
		if strings.HasPrefix(frame.Function, p) {
			return true
		}
	}
	return false
}
