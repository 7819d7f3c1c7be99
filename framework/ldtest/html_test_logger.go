package ldtest

import (
	"bytes"
	"html/template"
	"sync"
	"time"

	"github.com/launchdarkly/unit-test-harness/framework"
)

// HTMLTestLogger is the HTML reporter. It accumulates results and writes a single page when
// EndLog is called.
type HTMLTestLogger struct {
	filePath string
	title    string
	testIDs  []TestID
	entries  map[string]*htmlReportEntry
	lock     sync.Mutex
}

type htmlReportEntry struct {
	Name        string
	Failures    []string
	Skipped     bool
	SkipReason  string
	NonCritical bool
	Output      string
}

type htmlReportPage struct {
	Title       string
	GeneratedAt string
	Passed      int
	Failed      int
	Skipped     int
	Entries     []*htmlReportEntry
}

var htmlReportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
.fail { color: #b00; } .skip { color: #66a; } .pass { color: #070; }
pre { background: #f4f4f4; padding: 4px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Generated {{.GeneratedAt}}: {{.Passed}} passed, {{.Failed}} failed, {{.Skipped}} skipped</p>
<ul>
{{- range .Entries}}
<li>
{{- if .Skipped}}<span class="skip">SKIPPED</span> {{.Name}}{{if .SkipReason}} ({{.SkipReason}}){{end}}
{{- else if .Failures}}<span class="fail">FAILED{{if .NonCritical}} (non-critical){{end}}</span> {{.Name}}
{{- range .Failures}}<pre>{{.}}</pre>{{end}}
{{- if .Output}}<pre>{{.Output}}</pre>{{end}}
{{- else}}<span class="pass">PASSED</span> {{.Name}}
{{- end}}
</li>
{{- end}}
</ul>
</body>
</html>
`))

// NewHTMLTestLogger creates an HTMLTestLogger that writes to filePath, or to standard output if
// filePath is "".
func NewHTMLTestLogger(filePath string, title string) *HTMLTestLogger {
	if title == "" {
		title = "Test results"
	}
	return &HTMLTestLogger{
		filePath: filePath,
		title:    title,
		entries:  make(map[string]*htmlReportEntry),
	}
}

func (h *HTMLTestLogger) Capabilities() framework.Capabilities {
	return framework.Capabilities{CapabilityTestLogger, CapabilityHTMLReporter}
}

// FilePath returns the path that EndLog writes to, or "" for standard output.
func (h *HTMLTestLogger) FilePath() string {
	return h.filePath
}

// entry must be called with the lock held.
func (h *HTMLTestLogger) entry(id TestID) *htmlReportEntry {
	e, ok := h.entries[id.String()]
	if !ok {
		e = &htmlReportEntry{Name: id.String()}
		h.entries[id.String()] = e
		h.testIDs = append(h.testIDs, id)
	}
	return e
}

func (h *HTMLTestLogger) TestStarted(id TestID) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.entry(id)
}

func (h *HTMLTestLogger) TestError(id TestID, err error) {
	h.lock.Lock()
	defer h.lock.Unlock()
	e := h.entry(id)
	e.Failures = append(e.Failures, describeError(err))
}

func (h *HTMLTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	h.lock.Lock()
	defer h.lock.Unlock()
	e := h.entry(id)
	e.NonCritical = result.NonCritical
	e.Output = debugOutput.ToString("")
}

func (h *HTMLTestLogger) TestSkipped(id TestID, reason string) {
	h.lock.Lock()
	defer h.lock.Unlock()
	e := h.entry(id)
	e.Skipped = true
	e.SkipReason = reason
}

func (h *HTMLTestLogger) EndLog(results Results) error {
	h.lock.Lock()
	page := htmlReportPage{
		Title:       h.title,
		GeneratedAt: time.Now().Format(time.RFC1123),
	}
	for _, id := range h.testIDs {
		e := h.entries[id.String()]
		switch {
		case e.Skipped:
			page.Skipped++
		case len(e.Failures) != 0:
			page.Failed++
		default:
			page.Passed++
		}
		page.Entries = append(page.Entries, e)
	}
	h.lock.Unlock()

	var buf bytes.Buffer
	if err := htmlReportTemplate.Execute(&buf, page); err != nil {
		return err
	}
	return writeReport(h.filePath, buf.Bytes())
}
