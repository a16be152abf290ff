// Package export streams visit events joined with member snapshots as CSV
// or XLSX for offline analysis.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fieldsync/internal/canvass/models"
	dErrors "fieldsync/pkg/domain-errors"
	"fieldsync/pkg/requestcontext"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv or xlsx; blank means csv.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "format must be csv or xlsx")
}

// ContentType is the HTTP media type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Columns is the export header, in order.
var Columns = []string{
	"vuid", "householdId", "status", "notes", "timestamp_client", "timestamp_server",
	"deviceId", "lat", "lng", "distanceMeters", "suspect",
	"firstName", "lastName", "address1", "city", "state", "zip", "precinct", "county",
}

// Query selects events with From <= receivedAt <= To. Nil bounds are open.
type Query struct {
	From   *time.Time
	To     *time.Time
	Format Format
}

// Store is the read side of the canvass store used by exports.
type Store interface {
	ListEvents(ctx context.Context, q models.EventQuery) ([]models.VisitEvent, error)
	FindMembers(ctx context.Context, ids []string) (map[string]models.Member, error)
}

// Service writes exports.
type Service struct {
	store    Store
	logger   *slog.Logger
	tracer   trace.Tracer
	pageSize int
}

// New constructs an export service. Events are read pageSize at a time.
func New(store Store, logger *slog.Logger, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &Service{
		store:    store,
		logger:   logger,
		tracer:   otel.Tracer("fieldsync/export"),
		pageSize: pageSize,
	}
}

// Export writes every matching event to w in (receivedAt, memberId) order and
// returns the number of data rows. Nothing is written to w when the first
// page cannot be read.
func (s *Service) Export(ctx context.Context, q Query, w io.Writer) (int, error) {
	ctx, span := s.tracer.Start(ctx, "export.Export", trace.WithAttributes(
		attribute.String("export.format", string(q.Format)),
	))
	defer span.End()

	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return 0, dErrors.New(dErrors.CodeValidation, "from must not be after to")
	}

	page, members, err := s.page(ctx, q, nil)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	out, err := newRowWriter(q.Format, w)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "export failure")
	}
	if err := out.WriteHeader(Columns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rows := 0
	for len(page) > 0 {
		for _, ev := range page {
			m, ok := members[ev.MemberID]
			var snapshot *models.Member
			if ok {
				snapshot = &m
			}
			if err := out.WriteRow(Row(ev, snapshot)); err != nil {
				return rows, fmt.Errorf("write row %d: %w", rows+1, err)
			}
			rows++
		}
		if len(page) < s.pageSize {
			break
		}
		last := page[len(page)-1]
		page, members, err = s.page(ctx, q, &models.EventCursor{ReceivedAt: last.ReceivedAt, MemberID: last.MemberID})
		if err != nil {
			return rows, err
		}
	}

	if err := out.Close(); err != nil {
		return rows, fmt.Errorf("finish %s export: %w", q.Format, err)
	}
	span.SetAttributes(attribute.Int("export.rows", rows))
	s.logger.InfoContext(ctx, "events exported",
		"request_id", requestcontext.RequestID(ctx),
		"format", q.Format,
		"rows", rows,
	)
	return rows, nil
}

func (s *Service) page(ctx context.Context, q Query, after *models.EventCursor) ([]models.VisitEvent, map[string]models.Member, error) {
	events, err := s.store.ListEvents(ctx, models.EventQuery{From: q.From, To: q.To, After: after, Limit: s.pageSize})
	if err != nil {
		return nil, nil, dErrors.Wrap(fmt.Errorf("list events: %w", err), dErrors.CodeInternal, "storage failure")
	}
	if len(events) == 0 {
		return nil, nil, nil
	}
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.MemberID
	}
	members, err := s.store.FindMembers(ctx, ids)
	if err != nil {
		return nil, nil, dErrors.Wrap(fmt.Errorf("find members: %w", err), dErrors.CodeInternal, "storage failure")
	}
	return events, members, nil
}

// Row renders one event and its member snapshot (nil when the member is
// gone) in Columns order. Numbers stay numeric so XLSX cells are typed.
func Row(ev models.VisitEvent, m *models.Member) []any {
	suspect := 0
	if ev.Suspect {
		suspect = 1
	}
	row := []any{
		ev.MemberID, ev.HouseholdID, string(ev.Status), ev.Notes,
		isoTime(ev.ClientTime), isoTime(ev.ReceivedAt), ev.DeviceID,
		ev.Geo.Lat, ev.Geo.Lng, ev.DistanceMeters, suspect,
	}
	if m == nil {
		m = &models.Member{}
	}
	return append(row,
		m.FirstName, m.LastName, m.Address.Line1, m.Address.City, m.Address.State, m.Address.Zip,
		m.Precinct, m.County,
	)
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
