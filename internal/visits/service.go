// Package visits reconciles field visit reports from disconnected devices.
//
// Each member has at most one current event. A submission replaces it only
// when its client timestamp is not older than the stored one; the check and
// the write happen in one store operation so concurrent submissions for the
// same member always leave the newest report in place.
package visits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mssola/useragent"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fieldsync/internal/canvass/models"
	"fieldsync/internal/canvass/store"
	"fieldsync/internal/visits/metrics"
	dErrors "fieldsync/pkg/domain-errors"
	"fieldsync/pkg/platform/sentinel"
	"fieldsync/pkg/requestcontext"
)

// DefaultSuspectThresholdMeters applies when no threshold is configured.
const DefaultSuspectThresholdMeters = 75.0

// Store is the slice of the canvass store visit reconciliation needs.
type Store interface {
	FindMember(ctx context.Context, id string) (*models.Member, error)
	FindEvent(ctx context.Context, memberID string) (*models.VisitEvent, error)
	ApplyVisit(ctx context.Context, ev *models.VisitEvent) (applied bool, err error)
}

// HouseholdCache drops cached household member lists.
type HouseholdCache interface {
	Invalidate(ctx context.Context, householdID string) error
}

// Stream receives accepted events.
type Stream interface {
	Emit(ctx context.Context, ev models.VisitEvent) error
}

// Submission is one validated visit report.
type Submission struct {
	MemberID      string
	HouseholdID   string
	Status        models.Status
	SurveyAnswers json.RawMessage
	Notes         string
	ClientTime    time.Time
	DeviceID      string
	Geo           models.Geo
}

// Outcome describes what happened to a submission. Applied is false for
// stale submissions, which write nothing.
type Outcome struct {
	Applied        bool
	Suspect        bool
	DistanceMeters int64
}

// Service applies visit submissions.
type Service struct {
	store     Store
	cache     HouseholdCache
	stream    Stream
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	threshold float64
}

// Option configures a Service.
type Option func(*Service)

// WithHouseholdCache invalidates cached households after accepted visits.
func WithHouseholdCache(c HouseholdCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithStream publishes accepted visits.
func WithStream(st Stream) Option {
	return func(s *Service) { s.stream = st }
}

// WithMetrics records submission outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSuspectThreshold sets the distance in meters beyond which a visit is
// flagged as suspect.
func WithSuspectThreshold(meters float64) Option {
	return func(s *Service) {
		if meters > 0 {
			s.threshold = meters
		}
	}
}

// New constructs a visit service.
func New(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		logger:    logger,
		tracer:    otel.Tracer("fieldsync/visits"),
		threshold: DefaultSuspectThresholdMeters,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit reconciles sub against the member's current event.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "visits.Submit", trace.WithAttributes(
		attribute.String("visit.member_id", sub.MemberID),
		attribute.String("visit.status", string(sub.Status)),
	))
	defer span.End()

	member, err := s.store.FindMember(ctx, sub.MemberID)
	if err != nil {
		s.metrics.IncrementSubmission(metrics.OutcomeRejected, string(sub.Status))
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(fmt.Errorf("find member %s: %w", sub.MemberID, err), dErrors.CodeInternal, "storage failure")
	}
	home, ok := member.Coordinates()
	if !ok {
		s.metrics.IncrementSubmission(metrics.OutcomeRejected, string(sub.Status))
		return nil, dErrors.New(dErrors.CodeValidation, "member has no coordinates")
	}

	distance := Distance(sub.Geo, home)
	suspect := distance > s.threshold

	answers := sub.SurveyAnswers
	if len(answers) == 0 || string(answers) == "null" {
		answers = models.EmptyAnswers
	}
	ev := &models.VisitEvent{
		MemberID:       member.ID,
		HouseholdID:    sub.HouseholdID,
		Status:         sub.Status,
		SurveyAnswers:  answers,
		Notes:          sub.Notes,
		ClientTime:     store.Millis(sub.ClientTime),
		ReceivedAt:     store.Millis(requestcontext.Now(ctx)),
		DeviceID:       sub.DeviceID,
		ClientAgent:    SummarizeAgent(requestcontext.UserAgent(ctx)),
		Geo:            sub.Geo,
		DistanceMeters: int64(math.Round(distance)),
		Suspect:        suspect,
	}

	applied, err := s.store.ApplyVisit(ctx, ev)
	if err != nil {
		s.metrics.IncrementSubmission(metrics.OutcomeRejected, string(sub.Status))
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(fmt.Errorf("apply visit %s: %w", sub.MemberID, err), dErrors.CodeInternal, "storage failure")
	}
	if !applied {
		s.metrics.IncrementSubmission(metrics.OutcomeStale, string(sub.Status))
		span.SetAttributes(attribute.Bool("visit.stale", true))
		s.logger.InfoContext(ctx, "stale visit ignored",
			"request_id", requestcontext.RequestID(ctx),
			"member_id", ev.MemberID,
			"device_id", ev.DeviceID,
			"client_ts", ev.ClientTime,
		)
		return &Outcome{Applied: false}, nil
	}

	s.metrics.IncrementSubmission(metrics.OutcomeAccepted, string(sub.Status))
	s.metrics.ObserveAccepted(distance, suspect)
	span.SetAttributes(
		attribute.Bool("visit.suspect", suspect),
		attribute.Int64("visit.distance_meters", ev.DistanceMeters),
	)
	if suspect {
		s.logger.WarnContext(ctx, "suspect visit location",
			"request_id", requestcontext.RequestID(ctx),
			"member_id", ev.MemberID,
			"device_id", ev.DeviceID,
			"distance_meters", ev.DistanceMeters,
		)
	}

	s.afterAccept(ctx, member, ev)
	return &Outcome{Applied: true, Suspect: suspect, DistanceMeters: ev.DistanceMeters}, nil
}

// afterAccept runs the side effects of an accepted visit. Failures are
// logged and never reach the caller.
func (s *Service) afterAccept(ctx context.Context, member *models.Member, ev *models.VisitEvent) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, member.HouseholdID); err != nil {
			s.metrics.IncrementCacheEvictFailure()
			s.logger.WarnContext(ctx, "household cache invalidation failed",
				"request_id", requestcontext.RequestID(ctx),
				"household_id", member.HouseholdID,
				"error", err,
			)
		}
	}
	if s.stream != nil {
		if err := s.stream.Emit(context.WithoutCancel(ctx), *ev); err != nil {
			s.logger.WarnContext(ctx, "visit stream publish failed",
				"request_id", requestcontext.RequestID(ctx),
				"member_id", ev.MemberID,
				"error", err,
			)
		}
	}
}

// Current returns the member's current event.
func (s *Service) Current(ctx context.Context, memberID string) (*models.VisitEvent, error) {
	ev, err := s.store.FindEvent(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no visit recorded for member")
		}
		return nil, dErrors.Wrap(fmt.Errorf("find event %s: %w", memberID, err), dErrors.CodeInternal, "storage failure")
	}
	return ev, nil
}

// SummarizeAgent reduces a User-Agent header to "browser version / os",
// with " (mobile)" appended for mobile devices. Blank input yields "".
func SummarizeAgent(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	ua := useragent.New(header)
	name, version := ua.Browser()
	if ua.Bot() {
		return strings.TrimSpace("bot " + name)
	}

	parts := make([]string, 0, 2)
	if browser := strings.TrimSpace(name + " " + version); browser != "" {
		parts = append(parts, browser)
	}
	if os := ua.OS(); os != "" {
		parts = append(parts, os)
	}
	if len(parts) == 0 {
		return ""
	}
	summary := strings.Join(parts, " / ")
	if ua.Mobile() {
		summary += " (mobile)"
	}
	return summary
}
