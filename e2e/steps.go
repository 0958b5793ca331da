package e2e

import (
	"github.com/cucumber/godog"

	"signet/e2e/steps/common"
	"signet/e2e/steps/envelope"
)

// RegisterSteps registers all step definitions from the modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	envelope.RegisterSteps(ctx, tc)
}
