package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"fieldsync/internal/export"
	dErrors "fieldsync/pkg/domain-errors"
	"fieldsync/pkg/platform/httputil"
	"fieldsync/pkg/requestcontext"
)

// Service defines the interface for event exports.
type Service interface {
	Export(ctx context.Context, q export.Query, w io.Writer) (int, error)
}

// Handler serves the admin export endpoint.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates an export handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the export route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/export", h.HandleExport)
}

// HandleExport handles GET /admin/export?from=&to=&format=csv|xlsx.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	q, err := parseQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	body := &lazyHeaderWriter{w: w, format: q.Format}
	rows, err := h.service.Export(ctx, q, body)
	if err != nil {
		h.logger.ErrorContext(ctx, "export failed",
			"request_id", requestID,
			"rows_written", rows,
			"error", err,
		)
		if !body.started {
			httputil.WriteError(w, err)
		}
		return
	}
	if !body.started {
		body.writeHeader()
	}
}

func parseQuery(r *http.Request) (export.Query, error) {
	values := r.URL.Query()
	format, err := export.ParseFormat(values.Get("format"))
	if err != nil {
		return export.Query{}, err
	}
	from, err := parseBound("from", values.Get("from"))
	if err != nil {
		return export.Query{}, err
	}
	to, err := parseBound("to", values.Get("to"))
	if err != nil {
		return export.Query{}, err
	}
	return export.Query{From: from, To: to, Format: format}, nil
}

// parseBound accepts RFC3339 timestamps or plain dates (midnight UTC).
func parseBound(name, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeValidation, name+" must be an RFC3339 timestamp or a date")
}

// lazyHeaderWriter sends the attachment headers on the first write so a
// failure before any output can still be reported as a JSON error.
type lazyHeaderWriter struct {
	w       http.ResponseWriter
	format  export.Format
	started bool
}

func (l *lazyHeaderWriter) writeHeader() {
	l.started = true
	l.w.Header().Set("Content-Type", l.format.ContentType())
	l.w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="events_export.%s"`, l.format))
	l.w.WriteHeader(http.StatusOK)
}

func (l *lazyHeaderWriter) Write(p []byte) (int, error) {
	if !l.started {
		l.writeHeader()
	}
	return l.w.Write(p)
}
