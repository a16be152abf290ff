package e2e

import (
	"context"

	"github.com/cucumber/godog"

	"fieldsync/e2e/steps/canvass"
	"fieldsync/e2e/steps/common"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, tc.Reset()
	})

	// generic requests and response assertions
	common.RegisterSteps(ctx, tc)

	// roster import, visits, rollup and export
	canvass.RegisterSteps(ctx, tc)
}
