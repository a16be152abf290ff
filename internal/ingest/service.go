// Package ingest imports roster files into the member store.
//
// Rows are upserted by member id. New members start Unvisited; existing
// members get every roster field overwritten (blank cells clear the field)
// while their visit status is left alone, so re-importing a roster never
// erases field progress.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fieldsync/internal/canvass/models"
	"fieldsync/internal/identity"
	"fieldsync/internal/ingest/metrics"
	"fieldsync/internal/ingest/tabular"
	dErrors "fieldsync/pkg/domain-errors"
	"fieldsync/pkg/platform/sentinel"
	"fieldsync/pkg/requestcontext"
)

// MemberStore is the slice of the canvass store an import needs.
type MemberStore interface {
	UpsertMember(ctx context.Context, m *models.Member) (inserted bool, err error)
	FindMember(ctx context.Context, id string) (*models.Member, error)
}

// HouseholdCache drops cached household member lists.
type HouseholdCache interface {
	Invalidate(ctx context.Context, householdID string) error
}

// RowError reports one skipped row. Row is 1-based over data rows.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// Result summarizes one import. Total = Inserted + Updated + Skipped.
type Result struct {
	BatchID  string     `json:"batchId"`
	Total    int        `json:"total"`
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

// Service runs imports.
type Service struct {
	store        MemberStore
	aliases      AliasTable
	logger       *slog.Logger
	metrics      *metrics.Metrics
	cache        HouseholdCache
	tracer       trace.Tracer
	maxRowErrors int
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records import outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithMaxRowErrors caps how many row errors a Result carries.
func WithMaxRowErrors(n int) Option {
	return func(s *Service) { s.maxRowErrors = n }
}

// WithHouseholdCache invalidates the cached member list of every household
// an import writes to, including the household a moved member left.
func WithHouseholdCache(c HouseholdCache) Option {
	return func(s *Service) { s.cache = c }
}

// New constructs an import service.
func New(store MemberStore, aliases AliasTable, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:        store,
		aliases:      aliases,
		logger:       logger,
		tracer:       otel.Tracer("fieldsync/ingest"),
		maxRowErrors: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import reads payload as the file type implied by filename and merges every
// row into the store. Unreadable payloads fail with CodeBadRequest and store
// failures with CodeInternal; in both cases no counts are returned.
func (s *Service) Import(ctx context.Context, filename string, payload []byte) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.Import", trace.WithAttributes(
		attribute.String("ingest.filename", filename),
		attribute.Int("ingest.bytes", len(payload)),
	))
	defer span.End()
	start := time.Now()

	reader, err := tabular.Open(filename, payload)
	if err != nil {
		s.metrics.IncrementImport(metrics.OutcomeRejected)
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable roster: "+err.Error())
	}
	defer reader.Close()

	cols := s.aliases.Columns(reader.Header())
	if !cols.Recognized() {
		s.metrics.IncrementImport(metrics.OutcomeRejected)
		return nil, dErrors.New(dErrors.CodeBadRequest, "unreadable roster: no recognized columns in header")
	}

	now := requestcontext.Now(ctx).UTC()
	result := &Result{BatchID: uuid.NewString(), Errors: []RowError{}}
	touched := make(map[string]struct{})
	defer s.invalidate(context.WithoutCancel(ctx), touched)

	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			s.metrics.IncrementImport(metrics.OutcomeFailed)
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "import cancelled")
		}

		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr *tabular.RowError
		if errors.As(err, &rowErr) {
			s.skip(result, rowErr.Row, rowErr.Err.Error())
			continue
		}
		if err != nil {
			s.metrics.IncrementImport(metrics.OutcomeRejected)
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable roster: "+err.Error())
		}

		if blankRow(record) {
			s.skip(result, row, "row is blank")
			continue
		}

		member := BuildMember(cols, record, now)
		if err := s.trackHouseholds(ctx, member, touched); err != nil {
			s.metrics.IncrementImport(metrics.OutcomeFailed)
			span.RecordError(err)
			return nil, dErrors.Wrap(fmt.Errorf("row %d: %w", row, err), dErrors.CodeInternal, "storage failure")
		}
		inserted, err := s.store.UpsertMember(ctx, member)
		if err != nil {
			s.metrics.IncrementImport(metrics.OutcomeFailed)
			span.RecordError(err)
			return nil, dErrors.Wrap(fmt.Errorf("upsert row %d: %w", row, err), dErrors.CodeInternal, "storage failure")
		}
		result.Total++
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	s.metrics.IncrementImport(metrics.OutcomeCompleted)
	s.metrics.AddRows(result.Inserted, result.Updated, result.Skipped)
	s.metrics.ObserveDuration(time.Since(start))
	span.SetAttributes(
		attribute.Int("ingest.total", result.Total),
		attribute.Int("ingest.inserted", result.Inserted),
		attribute.Int("ingest.skipped", result.Skipped),
	)

	s.logger.InfoContext(ctx, "roster imported",
		"request_id", requestcontext.RequestID(ctx),
		"batch_id", result.BatchID,
		"filename", filename,
		"total", result.Total,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// trackHouseholds records the households a row writes to: its own and,
// for a member moving between households, the one it leaves.
func (s *Service) trackHouseholds(ctx context.Context, member *models.Member, touched map[string]struct{}) error {
	if s.cache == nil {
		return nil
	}
	touched[member.HouseholdID] = struct{}{}
	prior, err := s.store.FindMember(ctx, member.ID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find member %s: %w", member.ID, err)
	}
	touched[prior.HouseholdID] = struct{}{}
	return nil
}

func (s *Service) invalidate(ctx context.Context, touched map[string]struct{}) {
	if s.cache == nil {
		return
	}
	for _, householdID := range slices.Sorted(maps.Keys(touched)) {
		if err := s.cache.Invalidate(ctx, householdID); err != nil {
			s.metrics.IncrementCacheEvictFailure()
			s.logger.WarnContext(ctx, "household cache invalidation failed",
				"request_id", requestcontext.RequestID(ctx),
				"household_id", householdID,
				"error", err,
			)
		}
	}
}

func (s *Service) skip(result *Result, row int, reason string) {
	result.Total++
	result.Skipped++
	if len(result.Errors) < s.maxRowErrors {
		result.Errors = append(result.Errors, RowError{Row: row, Error: reason})
	}
}

// BuildMember assembles a member from one row, deriving ids the row lacks.
func BuildMember(cols ColumnMap, row []string, now time.Time) *models.Member {
	pick := func(f Field) string { return cols.Pick(row, f) }

	first, last := pick(FieldFirstName), pick(FieldLastName)
	addr := models.Address{
		Line1: pick(FieldLine1),
		Line2: pick(FieldLine2),
		City:  pick(FieldCity),
		State: pick(FieldState),
		Zip:   pick(FieldZip),
	}

	return &models.Member{
		ID:          identity.ResolveMemberID(pick(FieldID), first, last, addr.Line1, addr.City, addr.State, addr.Zip),
		HouseholdID: identity.ResolveHouseholdID(pick(FieldHouseholdID), addr.Line1, addr.City, addr.State, addr.Zip),
		FirstName:   first,
		MiddleName:  pick(FieldMiddleName),
		LastName:    last,
		Address:     addr,
		Latitude:    ParseFloat(pick(FieldLatitude)),
		Longitude:   ParseFloat(pick(FieldLongitude)),
		Precinct:    pick(FieldPrecinct),
		County:      pick(FieldCounty),
		Party:       pick(FieldParty),
		Age:         ParseInt(pick(FieldAge)),
		Sex:         pick(FieldSex),
		LastStatus:  models.StatusUnvisited,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ParseFloat is lenient: blank, non-numeric and non-finite values are absent.
func ParseFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParseInt accepts whole numbers, including "42.0"; anything else is absent.
func ParseInt(raw string) *int {
	f := ParseFloat(raw)
	if f == nil || *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt32 {
		return nil
	}
	v := int(*f)
	return &v
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
