package selftests

import (
	"fmt"

	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	"github.com/launchdarkly/unit-test-harness/framework/testenv"
)

// RunSelfTestSuite runs the whole suite against an Environment.
func RunSelfTestSuite(
	env *testenv.Environment,
	filter ldtest.Filter,
	testLogger ldtest.TestLogger,
) ldtest.Results {
	fmt.Println("Running coordination layer self-test suite")

	config := env.TestConfiguration(filter, testLogger).WithContext(SelfTestContext{env: env})

	return ldtest.Run(config, func(t *ldtest.T) {
		t.Run("registry", doRegistryTests)
		t.Run("run context", doRunContextTests)
		t.Run("stack tracer", doStackTracerTests)
		t.Run("mocks", doMockTests)
		t.Run("ignore propagation", doIgnorePropagationTests)
		t.Run("web client", doWebClientTests)
	})
}
