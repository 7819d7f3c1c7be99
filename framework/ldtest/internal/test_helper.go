// Package internal contains test helpers for ldtest. They have to be in a separate package, and
// therefore a separate folder, so that calls made from them are not treated as calls from ldtest.
package internal

// RunAction is used only in unit tests, but exported because it has to be in a separate package for test purposes
func RunAction(action func()) {
	action()
}

// RunAction2 is used only in unit tests, but exported because it has to be in a separate package for test purposes
func RunAction2(action func()) {
	action()
}

// Failer is the part of ldtest.T that the assertion helpers here use.
type Failer interface {
	Errorf(format string, args ...interface{})
}

// AssertNotEmpty is an assertion-like helper used to test failure point detection.
func AssertNotEmpty(t Failer, s string) {
	if s == "" {
		t.Errorf("string was empty")
	}
}

// CheckValue calls AssertNotEmpty from this folder, so the failure point is in this file.
func CheckValue(t Failer, s string) {
	AssertNotEmpty(t, s) // the failure point reported for CheckValue is this line
}
