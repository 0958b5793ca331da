package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

func TestFeatures(t *testing.T) {
	if os.Getenv("SIGNET_E2E_BASE_URL") == "" && os.Getenv("SIGNET_E2E_TOKEN") == "" {
		t.Skip("set SIGNET_E2E_BASE_URL and SIGNET_E2E_TOKEN to run the e2e suite")
	}

	tc := NewTestContext()
	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			ctx.Before(func(c context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return c, nil
			})
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("e2e feature suite failed")
	}
}
