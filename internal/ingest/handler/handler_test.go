package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fieldsync/internal/ingest"
	"fieldsync/internal/ingest/handler/mocks"
	dErrors "fieldsync/pkg/domain-errors"
	"fieldsync/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type UploadHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestUploadHandlerSuite(t *testing.T) {
	suite.Run(t, new(UploadHandlerSuite))
}

func (s *UploadHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger, 1024).Register(s.router)
}

func (s *UploadHandlerSuite) TestMultipartUpload() {
	content := []byte("vuid,firstname\nv1,Ann\n")
	s.service.EXPECT().Import(gomock.Any(), "roster.csv", content).
		Return(&ingest.Result{BatchID: "b-1", Total: 1, Inserted: 1, Errors: []ingest.RowError{}}, nil)

	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/admin/upload-csv", "file", "roster.csv", content)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal(true, (*body)["ok"])
	s.Equal("b-1", (*body)["batchId"])
	s.EqualValues(1, (*body)["inserted"])
}

func (s *UploadHandlerSuite) TestRawBodyUpload() {
	s.service.EXPECT().Import(gomock.Any(), "roster.tsv", []byte("vuid\tcity\n")).
		Return(&ingest.Result{Errors: []ingest.RowError{}}, nil)

	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/admin/upload-csv?filename=roster.tsv", "vuid\tcity\n")
	req.Header.Set("Content-Type", "text/tab-separated-values")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
}

func (s *UploadHandlerSuite) TestMissingFile() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/admin/upload-csv", "a,b\n")
	req.Header.Set("Content-Type", "text/csv")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

func (s *UploadHandlerSuite) TestTooLarge() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/admin/upload-csv?filename=big.csv", string(make([]byte, 2048)))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	errResp := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Equal("file too large", errResp.Description)
}

func (s *UploadHandlerSuite) TestParseFailureIsBadRequest() {
	s.service.EXPECT().Import(gomock.Any(), "roster.pdf", gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeBadRequest, "unreadable roster: unsupported file type"))

	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/admin/upload-csv", "file", "roster.pdf", []byte("%PDF"))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *UploadHandlerSuite) TestStorageFailureIsOpaque() {
	s.service.EXPECT().Import(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "storage failure"))

	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/admin/upload-csv", "file", "roster.csv", []byte("a\n1\n"))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
	errResp := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Empty(errResp.Description)
}
