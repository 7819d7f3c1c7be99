package ldtest

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

// ErrorWithStacktrace is the error recorded by T.Errorf when there is location information.
type ErrorWithStacktrace struct {
	Message    string
	Stacktrace []StacktraceInfo

	// FailurePoint is a fragment like " at [file line 42]" identifying the assertion call that
	// failed, or "" if none could be identified.
	FailurePoint string
}

type StacktraceInfo struct {
	FileName string
	Package  string
	Function string
	Line     int
}

func (e ErrorWithStacktrace) Error() string { return e.Message }

// Describe returns the message followed by the failure point and the stacktrace, one frame per
// line, for reporters that show full detail.
func (e ErrorWithStacktrace) Describe() string {
	ret := e.Message + e.FailurePoint
	if len(e.Stacktrace) > 0 {
		ret += "\n  Stacktrace:"
		for _, s := range e.Stacktrace {
			ret += "\n    " + s.String()
		}
	}
	return ret
}

// describeError is ErrorWithStacktrace.Describe for errors that have it, or Error otherwise.
func describeError(err error) string {
	var es ErrorWithStacktrace
	if errors.As(err, &es) {
		return es.Describe()
	}
	return err.Error()
}
func (s StacktraceInfo) String() string {
	packageName := strings.TrimPrefix(s.Package, rootPackageName()+"/")
	return fmt.Sprintf("%s.%s (%s:%d)", packageName, s.Function, s.FileName, s.Line)
}

var errorTraceInMessageRegex = regexp.MustCompile(`^(?s:\s*Error Trace:.*\sError:\s*)`)

// transformError attaches a stacktrace and failure point to an error, and also strips out any
// stacktrace information that may have been added to the error message by the testify/assert or
// testify/require functions.
func transformError(err error, stacktrace []StacktraceInfo, failurePoint string) error {
	message := err.Error()
	if strings.Contains(message, "Error Trace:") {
		message = strings.TrimSpace(errorTraceInMessageRegex.ReplaceAllLiteralString(message, ""))
	}
	if len(stacktrace) == 0 && failurePoint == "" {
		return errors.New(message)
	}
	return ErrorWithStacktrace{Message: message, Stacktrace: stacktrace, FailurePoint: failurePoint}
}

func currentPackageName() string {
	pc, _, _, ok := runtime.Caller(0)
	if !ok {
		return "?"
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "?"
	}
	packageName, _ := parsePackageAndFunctionName(f.Name())
	return packageName
}

func rootPackageName() string {
	p := currentPackageName()
	return strings.Join(strings.Split(p, "/")[0:3], "/")
}

func getStacktrace(includeLDTestCode bool, helperFns []string) []StacktraceInfo {
	callers := []StacktraceInfo{}
	currentPackage := currentPackageName()
StackLoop:
	for i := 1; ; i++ { // start at 1 because 0 would just be getStacktrace itself
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		f := runtime.FuncForPC(pc)
		if f == nil {
			break
		}
		parts := strings.Split(file, "/")
		file = parts[len(parts)-1]

		fullFunctionName := f.Name()
		packageName, functionName := parsePackageAndFunctionName(f.Name())

		if packageName == currentPackage && functionName == "Run" {
			break // ldtest.Run is always the root of the test run, no need to go further
		}
		if !includeLDTestCode && packageName == currentPackage {
			continue StackLoop
		}
		for _, helperFn := range helperFns {
			if helperFn == fullFunctionName {
				continue StackLoop // exclude this function from the stacktrace
			}
		}

		callers = append(callers, StacktraceInfo{FileName: file, Package: packageName, Function: functionName, Line: line})
	}
	return callers
}

func parsePackageAndFunctionName(fullName string) (string, string) {
	lastSlash := strings.LastIndex(fullName, "/")
	firstDotAfterSlash := strings.Index(fullName[lastSlash+1:], ".")
	packageName := fullName[0 : lastSlash+firstDotAfterSlash+1]
	functionName := fullName[len(packageName)+1:]
	return packageName, functionName
}
