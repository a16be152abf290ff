package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fieldsync/internal/canvass/models"
	"fieldsync/internal/visits"
	"fieldsync/pkg/platform/httputil"
	"fieldsync/pkg/requestcontext"
)

// Service defines the interface for visit reconciliation.
type Service interface {
	Submit(ctx context.Context, sub visits.Submission) (*visits.Outcome, error)
	Current(ctx context.Context, memberID string) (*models.VisitEvent, error)
}

// Handler serves the visit endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a visit handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the visit routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events", h.HandleSubmit)
	r.Get("/events/{memberId}", h.HandleCurrent)
}

// HandleSubmit handles POST /events.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitVisitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.service.Submit(ctx, req.Submission())
	if err != nil {
		h.logger.WarnContext(ctx, "visit rejected",
			"request_id", requestID,
			"member_id", req.MemberID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if !outcome.Applied {
		httputil.WriteJSON(w, http.StatusOK, IgnoredVisitResponse{
			OK:      true,
			Ignored: true,
			Message: "Older event ignored",
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SubmitVisitResponse{
		OK:             true,
		Upserted:       true,
		Suspect:        outcome.Suspect,
		DistanceMeters: outcome.DistanceMeters,
	})
}

// HandleCurrent handles GET /events/{memberId}.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := chi.URLParam(r, "memberId")

	ev, err := h.service.Current(ctx, memberID)
	if err != nil {
		h.logger.DebugContext(ctx, "current visit lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"member_id", memberID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CurrentVisitResponse{OK: true, Event: ev})
}
