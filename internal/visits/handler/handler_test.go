package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fieldsync/internal/canvass/models"
	"fieldsync/internal/visits"
	"fieldsync/internal/visits/handler/mocks"
	dErrors "fieldsync/pkg/domain-errors"
	"fieldsync/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type VisitHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestVisitHandlerSuite(t *testing.T) {
	suite.Run(t, new(VisitHandlerSuite))
}

func (s *VisitHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)

	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func validBody() map[string]any {
	return map[string]any{
		"vuid":          "m-1",
		"householdId":   "hh-1",
		"status":        "NotHome",
		"surveyAnswers": map[string]any{"q1": "yes"},
		"timestamp":     "2024-05-01T10:00:00.250Z",
		"deviceId":      "tablet-1",
		"geo":           map[string]any{"lat": 30.2672, "lng": -97.7431},
	}
}

func (s *VisitHandlerSuite) TestAcceptedVisit() {
	s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, sub visits.Submission) (*visits.Outcome, error) {
			s.Equal("m-1", sub.MemberID)
			s.Equal(models.StatusNotHome, sub.Status)
			s.True(sub.ClientTime.Equal(time.Date(2024, 5, 1, 10, 0, 0, 250e6, time.UTC)))
			s.InDelta(-97.7431, sub.Geo.Lng, 1e-9)
			return &visits.Outcome{Applied: true, Suspect: true, DistanceMeters: 120}, nil
		})

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/events", validBody()))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "ok", true)
	testutil.AssertJSONContains(s.T(), rr, "upserted", true)
	testutil.AssertJSONContains(s.T(), rr, "suspect", true)
	testutil.AssertJSONContains(s.T(), rr, "distanceMeters", float64(120))
}

func (s *VisitHandlerSuite) TestStaleVisit() {
	s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(&visits.Outcome{Applied: false}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/events", validBody()))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "ignored", true)
	testutil.AssertJSONContains(s.T(), rr, "message", "Older event ignored")
}

func (s *VisitHandlerSuite) TestInvalidBodies() {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{name: "missing member", mutate: func(b map[string]any) { delete(b, "vuid") }},
		{name: "unknown status", mutate: func(b map[string]any) { b["status"] = "Maybe" }},
		{name: "unvisited is not an outcome", mutate: func(b map[string]any) { b["status"] = "Unvisited" }},
		{name: "bad timestamp", mutate: func(b map[string]any) { b["timestamp"] = "yesterday" }},
		{name: "missing geo", mutate: func(b map[string]any) { delete(b, "geo") }},
		{name: "latitude out of range", mutate: func(b map[string]any) { b["geo"] = map[string]any{"lat": 91, "lng": 0} }},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			body := validBody()
			tt.mutate(body)
			rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/events", body))
			testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
		})
	}
}

func (s *VisitHandlerSuite) TestMalformedJSON() {
	rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/events", "{not json"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

func (s *VisitHandlerSuite) TestServiceErrors() {
	s.Run("unknown member", func() {
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeNotFound, "member not found"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/events", validBody()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("storage failure hides detail", func() {
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeInternal, "storage failure"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/events", validBody()))
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		s.Empty(testutil.UnmarshalErrorResponse(s.T(), rr).Description)
	})
}

func (s *VisitHandlerSuite) TestCurrentVisit() {
	s.service.EXPECT().Current(gomock.Any(), "m-1").Return(&models.VisitEvent{MemberID: "m-1", Status: models.StatusRefused}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/events/m-1"))

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[CurrentVisitResponse](s.T(), rr)
	s.True(resp.OK)
	s.Equal(models.StatusRefused, resp.Event.Status)
}

func (s *VisitHandlerSuite) TestCurrentVisitMissing() {
	s.service.EXPECT().Current(gomock.Any(), "m-2").Return(nil, dErrors.New(dErrors.CodeNotFound, "no visit recorded for member"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/events/m-2"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
}
