package selftests

import (
	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	"github.com/launchdarkly/unit-test-harness/framework/testenv"
)

type SelfTestContext struct {
	env *testenv.Environment
}

func requireContext(t *ldtest.T) SelfTestContext {
	if c, ok := t.Context().(SelfTestContext); ok {
		return c
	}
	panic("SelfTestContext was not included in the global test configuration!" +
		" This is a basic mistake in the initialization logic.")
}
