package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"

	"fieldsync/internal/canvass/models"
	"fieldsync/internal/canvass/store/memory"
	"fieldsync/internal/export/mocks"
	dErrors "fieldsync/pkg/domain-errors"
)

//go:generate mockgen -source=export.go -destination=mocks/mocks.go -package=mocks Store
type ExportServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.InMemory
	service *Service
	base    time.Time
}

func TestExportServiceSuite(t *testing.T) {
	suite.Run(t, new(ExportServiceSuite))
}

func (s *ExportServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewInMemory()
	s.service = New(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)), 2)
	s.base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"m-c", "m-a", "m-b", "m-d"} {
		_, err := s.store.UpsertMember(s.ctx, &models.Member{
			ID:          id,
			HouseholdID: "hh-" + id,
			FirstName:   "First " + id,
			LastName:    "Last",
			Address:     models.Address{Line1: "1 Main St", City: "Austin", State: "TX", Zip: "78701"},
			Precinct:    "101",
			County:      "Travis",
		})
		s.Require().NoError(err)

		received := s.base.Add(time.Duration(i) * time.Minute)
		if id == "m-d" {
			received = s.base.Add(time.Minute) // ties with m-a
		}
		_, err = s.store.ApplyVisit(s.ctx, &models.VisitEvent{
			MemberID:       id,
			HouseholdID:    "hh-" + id,
			Status:         models.StatusSurveyed,
			SurveyAnswers:  models.EmptyAnswers,
			Notes:          "line one, \"quoted\"",
			ClientTime:     received.Add(-time.Second),
			ReceivedAt:     received,
			DeviceID:       "dev-1",
			Geo:            models.Geo{Lat: 30.25, Lng: -97.75},
			DistanceMeters: 12,
			Suspect:        id == "m-b",
		})
		s.Require().NoError(err)
	}
}

func (s *ExportServiceSuite) readCSV(buf *bytes.Buffer) [][]string {
	records, err := csv.NewReader(buf).ReadAll()
	s.Require().NoError(err)
	return records
}

func (s *ExportServiceSuite) TestCSVOrderedByReceivedAt() {
	var buf bytes.Buffer
	rows, err := s.service.Export(s.ctx, Query{Format: FormatCSV}, &buf)
	s.Require().NoError(err)
	s.Equal(4, rows)

	records := s.readCSV(&buf)
	s.Require().Len(records, 5)
	s.Equal(Columns, records[0])

	var order []string
	for _, r := range records[1:] {
		order = append(order, r[0])
	}
	s.Equal([]string{"m-c", "m-a", "m-d", "m-b"}, order)

	first := records[1]
	s.Equal("line one, \"quoted\"", first[3])
	s.Equal("2024-05-01T11:59:59.000Z", first[4])
	s.Equal("2024-05-01T12:00:00.000Z", first[5])
	s.Equal("30.25", first[7])
	s.Equal("-97.75", first[8])
	s.Equal("12", first[9])
	s.Equal("0", first[10])
	s.Equal("First m-c", first[11])
	s.Equal("Travis", first[18])
	s.Equal("1", records[4][10])
}

func (s *ExportServiceSuite) TestRangeIsInclusive() {
	from := s.base.Add(time.Minute)
	to := s.base.Add(2 * time.Minute)
	var buf bytes.Buffer

	rows, err := s.service.Export(s.ctx, Query{From: &from, To: &to}, &buf)
	s.Require().NoError(err)
	s.Equal(3, rows)
}

func (s *ExportServiceSuite) TestEmptyRangeWritesHeaderOnly() {
	from := s.base.Add(time.Hour)
	var buf bytes.Buffer

	rows, err := s.service.Export(s.ctx, Query{From: &from}, &buf)
	s.Require().NoError(err)
	s.Zero(rows)
	s.Len(s.readCSV(&buf), 1)
}

func (s *ExportServiceSuite) TestInvertedRange() {
	from, to := s.base, s.base.Add(-time.Hour)
	var buf bytes.Buffer

	_, err := s.service.Export(s.ctx, Query{From: &from, To: &to}, &buf)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Zero(buf.Len())
}

func (s *ExportServiceSuite) TestXLSX() {
	var buf bytes.Buffer
	rows, err := s.service.Export(s.ctx, Query{Format: FormatXLSX}, &buf)
	s.Require().NoError(err)
	s.Equal(4, rows)

	f, err := excelize.OpenReader(&buf)
	s.Require().NoError(err)
	defer f.Close()

	s.Equal([]string{"Visits"}, f.GetSheetList())
	sheet, err := f.GetRows("Visits")
	s.Require().NoError(err)
	s.Require().Len(sheet, 5)
	s.Equal(Columns, sheet[0])
	s.Equal("m-c", sheet[1][0])
	s.Equal("30.25", sheet[1][7])
}

func (s *ExportServiceSuite) TestMissingMemberLeavesSnapshotBlank() {
	row := Row(models.VisitEvent{MemberID: "gone", Status: models.StatusMoved}, nil)
	s.Len(row, len(Columns))
	s.Equal("", row[4])
	s.Equal("", row[11])
}

func (s *ExportServiceSuite) TestStorageFailureBeforeOutput() {
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().ListEvents(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

	var buf bytes.Buffer
	_, err := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)), 10).Export(s.ctx, Query{}, &buf)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Zero(buf.Len())
}

func (s *ExportServiceSuite) TestParseFormat() {
	f, err := ParseFormat("")
	s.Require().NoError(err)
	s.Equal(FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	s.Require().NoError(err)
	s.Equal(FormatXLSX, f)

	_, err = ParseFormat("pdf")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
