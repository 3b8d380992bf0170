package pushtests

import (
	"github.com/pushstream/contract-tests/framework"
)

// RunTestSuite runs every contract test against the server described by env.
func RunTestSuite(
	env Environment,
	filter framework.Filter,
	testLogger framework.TestLogger,
) (framework.Results, error) {
	e, err := newEnvironment(env)
	if err != nil {
		return framework.Results{}, err
	}
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, e, nil, true)
		t.Run("publish", doPublishTests)
		t.Run("subscribe", doSubscribeTests)
		t.Run("channel statistics", doStatsTests)
		t.Run("configuration", doConfigurationTests)
	}), nil
}
