package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context the generic steps need.
type TestContext interface {
	GET(path string) error
	LastStatus() int
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers generic request and assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^the response status should be (\d+)$`, steps.assertStatus)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.assertField)
	ctx.Step(`^the response field "([^"]*)" should exist$`, steps.assertFieldExists)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) assertStatus(ctx context.Context, expected int) error {
	if s.tc.LastStatus() != expected {
		return fmt.Errorf("expected status %d, got %d", expected, s.tc.LastStatus())
	}
	return nil
}

func (s *commonSteps) assertField(ctx context.Context, field, expected string) error {
	val, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	got := fmt.Sprintf("%v", val)
	if got != expected {
		return fmt.Errorf("expected field %q to be %q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) assertFieldExists(ctx context.Context, field string) error {
	_, err := s.tc.GetResponseField(field)
	return err
}
