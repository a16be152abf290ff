package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fieldsync/internal/export"
	"fieldsync/internal/export/handler/mocks"
	dErrors "fieldsync/pkg/domain-errors"
	"fieldsync/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type ExportHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestExportHandlerSuite(t *testing.T) {
	suite.Run(t, new(ExportHandlerSuite))
}

func (s *ExportHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)

	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *ExportHandlerSuite) TestCSVAttachment() {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)
	s.service.EXPECT().Export(gomock.Any(), export.Query{From: &from, To: &to, Format: export.FormatCSV}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ export.Query, w io.Writer) (int, error) {
			_, err := io.WriteString(w, "vuid,householdId\nm-1,hh-1\n")
			return 1, err
		})

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet,
		"/admin/export?from=2024-05-01&to=2024-05-02T10:30:00%2B02:00"))

	testutil.AssertStatusOK(s.T(), rr)
	s.Equal("text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	s.Equal(`attachment; filename="events_export.csv"`, rr.Header().Get("Content-Disposition"))
	s.Equal("vuid,householdId\nm-1,hh-1\n", rr.Body.String())
}

func (s *ExportHandlerSuite) TestXLSXFormat() {
	s.service.EXPECT().Export(gomock.Any(), export.Query{Format: export.FormatXLSX}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ export.Query, w io.Writer) (int, error) {
			_, err := w.Write([]byte("PK"))
			return 0, err
		})

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/export?format=xlsx"))

	testutil.AssertStatusOK(s.T(), rr)
	s.Equal(export.FormatXLSX.ContentType(), rr.Header().Get("Content-Type"))
	s.Contains(rr.Header().Get("Content-Disposition"), "events_export.xlsx")
}

func (s *ExportHandlerSuite) TestInvalidQuery() {
	for _, query := range []string{"format=pdf", "from=yesterday", "to=2024-13-01"} {
		s.Run(query, func() {
			rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/export?"+query))
			testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
		})
	}
}

func (s *ExportHandlerSuite) TestFailureBeforeOutputIsJSON() {
	s.service.EXPECT().Export(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(0, dErrors.Wrap(errors.New("db down"), dErrors.CodeInternal, "storage failure"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/export"))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	s.Empty(rr.Header().Get("Content-Disposition"))
}

func (s *ExportHandlerSuite) TestFailureMidStreamKeepsStatus() {
	s.service.EXPECT().Export(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ export.Query, w io.Writer) (int, error) {
			_, _ = io.WriteString(w, "vuid\n")
			return 0, errors.New("connection reset")
		})

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/export"))

	testutil.AssertStatusOK(s.T(), rr)
	s.Equal("vuid\n", rr.Body.String())
}

func (s *ExportHandlerSuite) TestEmptyExportStillSendsHeaders() {
	s.service.EXPECT().Export(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/export"))

	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Header().Get("Content-Disposition"), "events_export.csv")
}
