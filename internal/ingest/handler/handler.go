package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fieldsync/internal/ingest"
	dErrors "fieldsync/pkg/domain-errors"
	"fieldsync/pkg/platform/httputil"
	"fieldsync/pkg/requestcontext"
)

// Service defines the interface for roster imports.
type Service interface {
	Import(ctx context.Context, filename string, payload []byte) (*ingest.Result, error)
}

// Handler wires the upload endpoint to the import service.
type Handler struct {
	service  Service
	logger   *slog.Logger
	maxBytes int64
}

// New constructs an import handler. maxBytes caps the accepted upload size.
func New(service Service, logger *slog.Logger, maxBytes int64) *Handler {
	return &Handler{service: service, logger: logger, maxBytes: maxBytes}
}

// Register mounts import endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/upload-csv", h.HandleUpload)
}

// ImportResponse is the body of a successful import.
type ImportResponse struct {
	OK bool `json:"ok"`
	*ingest.Result
}

// HandleUpload handles POST /admin/upload-csv. The roster arrives either as
// the multipart form file "file" or as the raw body with ?filename=.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	filename, payload, err := h.readUpload(r)
	if err != nil {
		h.logger.WarnContext(ctx, "upload rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Import(ctx, filename, payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "roster import failed",
			"request_id", requestID,
			"filename", filename,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ImportResponse{OK: true, Result: result})
}

func (h *Handler) readUpload(r *http.Request) (string, []byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return "", nil, dErrors.New(dErrors.CodeBadRequest, "file required")
			}
			return "", nil, uploadError(err)
		}
		defer file.Close()
		payload, err := io.ReadAll(file)
		if err != nil {
			return "", nil, uploadError(err)
		}
		return header.Filename, payload, nil
	}

	filename := strings.TrimSpace(r.URL.Query().Get("filename"))
	if filename == "" {
		return "", nil, dErrors.New(dErrors.CodeBadRequest, "file required: send multipart field \"file\" or a raw body with ?filename=")
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, uploadError(err)
	}
	return filename, payload, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return dErrors.New(dErrors.CodeBadRequest, "file too large")
	}
	return dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read upload")
}
