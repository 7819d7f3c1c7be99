package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/launchdarkly/unit-test-harness/framework/ldtest"

	"github.com/alessio/shellescape"
)

type commandParams struct {
	filters        ldtest.RegexFilters
	skipFile       string
	configFile     string
	jUnitFile      string
	htmlFile       string
	debug          bool
	debugAll       bool
	recordFailures string
	dumpConfig     bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.StringVar(&c.skipFile, "skip-file", "", "file with test names to skip, one per line")
	fs.StringVar(&c.configFile, "config", "", "JSON or YAML file with registry settings")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.StringVar(&c.htmlFile, "html", "", "write an HTML report to the specified path")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.recordFailures, "record-failures", "", "write the names of failed tests to the specified path")
	fs.BoolVar(&c.dumpConfig, "dump-config", false, "print the effective configuration as YAML and exit")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	return true
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// rerunCommand builds a command line that runs only the failed tests.
func rerunCommand(program string, failures []ldtest.TestResult) string {
	var b commandBuilder
	b.add(program)
	for _, f := range failures {
		parts := make([]string, 0, len(f.TestID))
		for _, name := range f.TestID {
			parts = append(parts, "^"+regexp.QuoteMeta(name)+"$")
		}
		b.add("-run", strings.Join(parts, "/"))
	}
	return b.String()
}
