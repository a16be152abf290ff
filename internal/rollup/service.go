// Package rollup turns member records into household summaries for the
// dispatch dashboard.
//
// A query scans every matching member in seq order, groups by household,
// applies the bucket and color policies, filters, sorts and finally pages
// with a keyset cursor over the sorted households. Reads are not isolated:
// writes landing between two page requests may move a household across the
// page boundary.
package rollup

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fieldsync/internal/canvass/models"
	"fieldsync/internal/rollup/metrics"
	dErrors "fieldsync/pkg/domain-errors"
	"fieldsync/pkg/requestcontext"
)

// Sort selects the household ordering.
type Sort string

const (
	SortStatus Sort = "status"
	SortStreet Sort = "street"
	SortName   Sort = "name"
)

// ParseSort accepts status, street or name; blank means status.
func ParseSort(raw string) (Sort, error) {
	switch s := Sort(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return SortStatus, nil
	case SortStatus, SortStreet, SortName:
		return s, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "sort must be one of status, street, name")
}

// Filter restricts results to one bucket.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterPending Filter = "pending"
	FilterDone    Filter = "done"
)

// ParseFilter accepts pending, done or all; blank means all.
func ParseFilter(raw string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPending, FilterDone:
		return f, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be one of pending, done, all")
}

func (f Filter) keeps(b Bucket) bool {
	switch f {
	case FilterPending:
		return b == BucketPending
	case FilterDone:
		return b == BucketDone
	}
	return true
}

// Query is one rollup request. Limit <= 0 selects the default page size.
type Query struct {
	Search string
	Filter Filter
	Sort   Sort
	Limit  int
	Cursor string
}

// Household is the computed summary of the members sharing a household id.
// Address and Coords come from the member with the lowest seq.
type Household struct {
	HouseholdID  string          `json:"householdId"`
	Address      models.Address  `json:"address"`
	Coords       *models.Geo     `json:"coords"`
	MembersCount int             `json:"membersCount"`
	Statuses     []models.Status `json:"statuses"`
	StatusLabel  Bucket          `json:"statusLabel"`
	StatusColor  Color           `json:"statusColor"`
	StreetName   string          `json:"streetName"`
	Seq          int64           `json:"seq"`
	Cursor       string          `json:"cursor"`
}

// Page is one slice of the sorted households. Cursor is nil when no
// household follows.
type Page struct {
	Rows   []Household
	Cursor *string
}

// Store is the read side of the canvass store used by rollups.
type Store interface {
	ListMembers(ctx context.Context, q models.MemberQuery) ([]models.Member, error)
	ListHousehold(ctx context.Context, householdID string) ([]models.Member, error)
}

// MemberCache holds household member lists. Implementations report a miss
// with ok=false.
type MemberCache interface {
	Get(ctx context.Context, householdID string) (members []models.Member, ok bool, err error)
	Set(ctx context.Context, householdID string, members []models.Member) error
}

// Service answers rollup queries.
type Service struct {
	store        Store
	cache        MemberCache
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	defaultLimit int
	maxLimit     int
	scanSize     int
}

// Option configures a Service.
type Option func(*Service)

// WithLimits sets the default and maximum page sizes.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if defaultLimit > 0 && maxLimit >= defaultLimit {
			s.defaultLimit, s.maxLimit = defaultLimit, maxLimit
		}
	}
}

// WithScanSize sets how many members are read from the store per batch.
func WithScanSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.scanSize = n
		}
	}
}

// WithMemberCache serves household member lists through c.
func WithMemberCache(c MemberCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics records query sizes and cache results.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a rollup service.
func New(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:        store,
		logger:       logger,
		tracer:       otel.Tracer("fieldsync/rollup"),
		defaultLimit: 200,
		maxLimit:     500,
		scanSize:     1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns one page of households.
func (s *Service) Query(ctx context.Context, q Query) (*Page, error) {
	ctx, span := s.tracer.Start(ctx, "rollup.Query", trace.WithAttributes(
		attribute.String("rollup.sort", string(q.Sort)),
		attribute.String("rollup.filter", string(q.Filter)),
	))
	defer span.End()
	start := time.Now()

	if q.Sort == "" {
		q.Sort = SortStatus
	}
	if q.Filter == "" {
		q.Filter = FilterAll
	}
	after, err := DecodeCursor(q.Cursor, q.Sort)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	limit = min(limit, s.maxLimit)

	members, err := s.scan(ctx, strings.TrimSpace(q.Search))
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}

	households := Aggregate(members)
	type ranked struct {
		h   Household
		pos Cursor
	}
	candidates := make([]ranked, 0, len(households))
	for _, h := range households {
		if !q.Filter.keeps(h.StatusLabel) {
			continue
		}
		candidates = append(candidates, ranked{h: h, pos: Position(h, q.Sort)})
	}
	slices.SortFunc(candidates, func(a, b ranked) int { return a.pos.compare(b.pos) })

	startAt := 0
	if after != nil {
		startAt, _ = slices.BinarySearchFunc(candidates, *after, func(r ranked, c Cursor) int {
			if r.pos.compare(c) <= 0 {
				return -1
			}
			return 1
		})
	}
	end := min(startAt+limit, len(candidates))

	page := &Page{Rows: make([]Household, 0, end-startAt)}
	for _, r := range candidates[startAt:end] {
		r.h.Cursor = r.pos.Encode()
		page.Rows = append(page.Rows, r.h)
	}
	if end < len(candidates) && len(page.Rows) > 0 {
		next := page.Rows[len(page.Rows)-1].Cursor
		page.Cursor = &next
	}

	s.metrics.ObserveQuery(string(q.Sort), len(members), len(page.Rows), time.Since(start))
	span.SetAttributes(
		attribute.Int("rollup.members_scanned", len(members)),
		attribute.Int("rollup.rows", len(page.Rows)),
	)
	return page, nil
}

func (s *Service) scan(ctx context.Context, search string) ([]models.Member, error) {
	var (
		out      []models.Member
		afterSeq int64
	)
	for {
		batch, err := s.store.ListMembers(ctx, models.MemberQuery{Search: search, AfterSeq: afterSeq, Limit: s.scanSize})
		if err != nil {
			return nil, fmt.Errorf("list members after seq %d: %w", afterSeq, err)
		}
		out = append(out, batch...)
		if len(batch) < s.scanSize {
			return out, nil
		}
		afterSeq = batch[len(batch)-1].Seq
	}
}

// Aggregate groups members (in seq order) into households, in order of first
// appearance.
func Aggregate(members []models.Member) []Household {
	index := make(map[string]int)
	var out []Household
	for _, m := range members {
		i, ok := index[m.HouseholdID]
		if !ok {
			h := Household{
				HouseholdID: m.HouseholdID,
				Address:     m.Address,
				StreetName:  StreetName(m.Address.Line1),
			}
			if geo, ok := m.Coordinates(); ok {
				h.Coords = &geo
			}
			index[m.HouseholdID] = len(out)
			out = append(out, h)
			i = len(out) - 1
		}
		h := &out[i]
		h.MembersCount++
		h.Seq = max(h.Seq, m.Seq)
		if status := m.LastStatus.OrUnvisited(); !slices.Contains(h.Statuses, status) {
			h.Statuses = append(h.Statuses, status)
		}
	}
	for i := range out {
		slices.Sort(out[i].Statuses)
		out[i].StatusLabel = BucketFor(out[i].Statuses)
		out[i].StatusColor = ColorFor(out[i].Statuses)
	}
	return out
}

// Position is the sort key of h under mode.
func Position(h Household, mode Sort) Cursor {
	c := Cursor{Mode: mode, HouseholdID: h.HouseholdID}
	switch mode {
	case SortStreet:
		c.Key = h.StreetName
	case SortName:
		c.Key = h.Address.Line1
	default:
		c.Key = h.StreetName
		if h.StatusLabel != BucketPending {
			c.Rank = 1
		}
	}
	return c
}

// Members returns a household's members in the store's household order
// (last name, first name). Unknown or empty households are not found.
func (s *Service) Members(ctx context.Context, householdID string) ([]models.Member, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "householdId is required")
	}

	if s.cache != nil {
		members, ok, err := s.cache.Get(ctx, householdID)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "household cache read failed",
				"request_id", requestcontext.RequestID(ctx),
				"household_id", householdID,
				"error", err,
			)
		case ok:
			s.metrics.IncrementCache(metrics.CacheHit)
			return members, nil
		default:
			s.metrics.IncrementCache(metrics.CacheMiss)
		}
	}

	members, err := s.store.ListHousehold(ctx, householdID)
	if err != nil {
		return nil, dErrors.Wrap(fmt.Errorf("list household %s: %w", householdID, err), dErrors.CodeInternal, "storage failure")
	}
	if len(members) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "household not found")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, householdID, members); err != nil {
			s.logger.WarnContext(ctx, "household cache write failed",
				"request_id", requestcontext.RequestID(ctx),
				"household_id", householdID,
				"error", err,
			)
		}
	}
	return members, nil
}
