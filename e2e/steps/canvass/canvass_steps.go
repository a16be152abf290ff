package canvass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	POST(path, body string) error
	Upload(path, filename, content string) error
	Status() int
	Body() string
	Field(path string) (any, error)
}

// RegisterSteps registers roster, visit and rollup steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &canvassSteps{tc: tc}

	ctx.Step(`^I upload the roster "([^"]*)":$`, steps.uploadRoster)
	ctx.Step(`^the roster "([^"]*)" has been imported:$`, steps.rosterImported)
	ctx.Step(`^device "([^"]*)" reports "([^"]*)" for "([^"]*)" in "([^"]*)" at "([^"]*)" from (-?[\d.]+), (-?[\d.]+)$`, steps.reportVisit)

	ctx.Step(`^the households in "([^"]*)" should be "([^"]*)"$`, steps.householdsShouldBe)
	ctx.Step(`^paging through "([^"]*)" (\d+) at a time should return "([^"]*)" in (\d+) pages$`, steps.pagingShouldReturn)
}

type canvassSteps struct {
	tc TestContext
}

func (s *canvassSteps) uploadRoster(ctx context.Context, filename string, content *godog.DocString) error {
	return s.tc.Upload("/api/admin/upload-csv", filename, content.Content)
}

func (s *canvassSteps) rosterImported(ctx context.Context, filename string, content *godog.DocString) error {
	if err := s.uploadRoster(ctx, filename, content); err != nil {
		return err
	}
	if s.tc.Status() != 200 {
		return fmt.Errorf("roster import failed with %d: %s", s.tc.Status(), s.tc.Body())
	}
	return nil
}

func (s *canvassSteps) reportVisit(ctx context.Context, deviceID, status, memberID, householdID, timestamp string, lat, lng float64) error {
	body, err := json.Marshal(map[string]any{
		"memberId":      memberID,
		"householdId":   householdID,
		"status":        status,
		"surveyAnswers": map[string]any{"support": 4},
		"timestamp":     timestamp,
		"deviceId":      deviceID,
		"geo":           map[string]float64{"lat": lat, "lng": lng},
	})
	if err != nil {
		return err
	}
	return s.tc.POST("/api/events", string(body))
}

func (s *canvassSteps) householdsShouldBe(ctx context.Context, path, want string) error {
	if err := s.tc.GET(path); err != nil {
		return err
	}
	got, _, err := s.page()
	if err != nil {
		return err
	}
	if strings.Join(got, ",") != want {
		return fmt.Errorf("expected households %s, got %s", want, strings.Join(got, ","))
	}
	return nil
}

func (s *canvassSteps) pagingShouldReturn(ctx context.Context, path string, limit int, want string, wantPages int) error {
	u, err := url.Parse(path)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))

	var all []string
	seen := make(map[string]bool)
	pages := 0
	for {
		u.RawQuery = q.Encode()
		if err := s.tc.GET(u.String()); err != nil {
			return err
		}
		rows, cursor, err := s.page()
		if err != nil {
			return err
		}
		pages++
		for _, id := range rows {
			if seen[id] {
				return fmt.Errorf("household %s returned twice", id)
			}
			seen[id] = true
		}
		all = append(all, rows...)
		if cursor == "" {
			break
		}
		if pages > 100 {
			return fmt.Errorf("pagination did not terminate")
		}
		q.Set("cursor", cursor)
	}

	if strings.Join(all, ",") != want {
		return fmt.Errorf("expected households %s, got %s", want, strings.Join(all, ","))
	}
	if pages != wantPages {
		return fmt.Errorf("expected %d pages, got %d", wantPages, pages)
	}
	return nil
}

func (s *canvassSteps) page() ([]string, string, error) {
	if s.tc.Status() != 200 {
		return nil, "", fmt.Errorf("voters query failed with %d: %s", s.tc.Status(), s.tc.Body())
	}
	var resp struct {
		Rows []struct {
			HouseholdID string `json:"householdId"`
		} `json:"rows"`
		Cursor *string `json:"cursor"`
	}
	if err := json.Unmarshal([]byte(s.tc.Body()), &resp); err != nil {
		return nil, "", err
	}
	ids := make([]string, len(resp.Rows))
	for i, r := range resp.Rows {
		ids[i] = r.HouseholdID
	}
	cursor := ""
	if resp.Cursor != nil {
		cursor = *resp.Cursor
	}
	return ids, cursor, nil
}
