package main

import (
	"bufio"
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/launchdarkly/unit-test-harness/framework"
	"github.com/launchdarkly/unit-test-harness/framework/helpers"
	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	"github.com/launchdarkly/unit-test-harness/framework/registry"
	"github.com/launchdarkly/unit-test-harness/framework/testenv"
	"github.com/launchdarkly/unit-test-harness/selftests"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	fmt.Printf("unit-test-harness v%s\n", strings.TrimSpace(versionString))

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if results != nil && !results.OK() {
		fmt.Printf("To run only the failed tests:\n  %s\n", rerunCommand(os.Args[0], results.Failures))
		os.Exit(1)
	}
}

func run(params commandParams) (*ldtest.Results, error) {
	if params.skipFile != "" {
		if err := loadSuppressions(&params); err != nil {
			return nil, err
		}
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		loggers := ldlog.NewDefaultLoggers()
		loggers.SetBaseLogger(log.New(os.Stdout, "", log.LstdFlags))
		loggers.SetMinLevel(ldlog.Debug)
		mainDebugLogger = loggers.ForLevel(ldlog.Debug)
	}

	options := []testenv.Option{testenv.WithDebugLogger(mainDebugLogger)}
	if params.configFile != "" {
		config, err := registry.LoadConfigFile(params.configFile)
		if err != nil {
			return nil, err
		}
		options = append(options, testenv.WithConfig(config))
	}
	env, err := testenv.New(options...)
	if err != nil {
		return nil, err
	}
	propagateIgnores(env)

	if params.dumpConfig {
		data, err := registry.MarshalConfigYAML(env.Snapshot())
		if err != nil {
			return nil, err
		}
		fmt.Print(string(data))
		return nil, nil
	}

	testLogger, err := chooseTestLoggers(env, params)
	if err != nil {
		return nil, err
	}

	ldtest.PrintFilterDescription(params.filters, env.Registry().IgnoredNames())

	results := selftests.RunSelfTestSuite(env, params.filters, testLogger)

	fmt.Println()
	if err := testLogger.EndLog(results); err != nil {
		return nil, fmt.Errorf("error writing log: %v", err)
	}

	if params.recordFailures != "" {
		f, err := os.Create(params.recordFailures)
		if err != nil {
			return nil, fmt.Errorf("cannot create suppression file: %v", err)
		}
		for _, test := range results.Failures {
			fmt.Fprintln(f, test.TestID)
		}
		_ = f.Close()
	}

	return &results, nil
}

// propagateIgnores applies IgnoreParentsIfIgnored to the configured parent mappings until no more
// names are added, so that every ancestor of an ignored case is ignored.
func propagateIgnores(env *testenv.Environment) {
	var children []string
	for child := range env.Snapshot().Parents {
		children = append(children, child)
	}
	children = helpers.Sorted(children)
	for {
		before := len(env.Registry().IgnoredNames())
		env.IgnoreParentsIfIgnored(children)
		if len(env.Registry().IgnoredNames()) == before {
			return
		}
	}
}

// chooseTestLoggers gets the reporters from the preferred pool. The instances configured by the
// command line are added to the pool first, so they take precedence over the defaults.
func chooseTestLoggers(env *testenv.Environment, params commandParams) (ldtest.TestLogger, error) {
	env.Prefer(ldtest.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	})
	capabilities := []string{ldtest.CapabilityTextReporter}
	if params.jUnitFile != "" {
		env.Prefer(ldtest.NewJUnitTestLogger(params.jUnitFile, params.filters, map[string]string{
			"harness.version": strings.TrimSpace(versionString),
		}))
		capabilities = append(capabilities, ldtest.CapabilityXMLReporter)
	}
	if params.htmlFile != "" {
		env.Prefer(ldtest.NewHTMLTestLogger(params.htmlFile, "Unit test harness results"))
		capabilities = append(capabilities, ldtest.CapabilityHTMLReporter)
	}

	var loggers []ldtest.TestLogger
	for _, capability := range capabilities {
		found, ok := registry.PreferredAs[ldtest.TestLogger](env.Registry(), capability)
		if !ok {
			return nil, fmt.Errorf("no reporter is available for %s", capability)
		}
		loggers = append(loggers, found)
	}
	if len(loggers) == 1 {
		return loggers[0], nil
	}
	return &ldtest.MultiTestLogger{Loggers: loggers}, nil
}

func loadSuppressions(params *commandParams) error {
	file, err := os.Open(params.skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %v", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		// Ignore blank lines
		if strings.TrimSpace(line) == "" {
			continue
		}
		escaped := regexp.QuoteMeta(line)
		if err := params.filters.MustNotMatch.Set(escaped); err != nil {
			return fmt.Errorf("cannot parse suppression: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %v", err)
	}
	return nil
}
