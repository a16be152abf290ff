package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	POST(path, body string) error
	Status() int
	Header(name string) string
	Body() string
	Field(path string) (any, error)
}

// RegisterSteps registers request and assertion steps shared by all features
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I POST to "([^"]*)" with JSON:$`, steps.postJSON)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should have (\d+) items?$`, steps.fieldShouldHaveItems)
	ctx.Step(`^the response header "([^"]*)" should contain "([^"]*)"$`, steps.headerShouldContain)
	ctx.Step(`^the response body should contain "([^"]*)"$`, steps.bodyShouldContain)
	ctx.Step(`^the response body should not contain "([^"]*)"$`, steps.bodyShouldNotContain)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) postJSON(ctx context.Context, path string, body *godog.DocString) error {
	return s.tc.POST(path, body.Content)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.Status(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.Body())
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, path, want string) error {
	v, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	if got := render(v); got != want {
		return fmt.Errorf("expected %s to be %q, got %q", path, want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldHaveItems(ctx context.Context, path string, want int) error {
	v, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("%s is not a list", path)
	}
	if len(items) != want {
		return fmt.Errorf("expected %s to have %d items, got %d", path, want, len(items))
	}
	return nil
}

func (s *commonSteps) headerShouldContain(ctx context.Context, name, want string) error {
	if got := s.tc.Header(name); !strings.Contains(got, want) {
		return fmt.Errorf("expected header %s to contain %q, got %q", name, want, got)
	}
	return nil
}

func (s *commonSteps) bodyShouldContain(ctx context.Context, want string) error {
	if !strings.Contains(s.tc.Body(), want) {
		return fmt.Errorf("expected body to contain %q, got %s", want, s.tc.Body())
	}
	return nil
}

func (s *commonSteps) bodyShouldNotContain(ctx context.Context, unwanted string) error {
	if strings.Contains(s.tc.Body(), unwanted) {
		return fmt.Errorf("expected body not to contain %q", unwanted)
	}
	return nil
}

// render prints JSON scalars the way a feature file writes them.
func render(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%f", x), "0"), ".")
	default:
		return fmt.Sprint(x)
	}
}
