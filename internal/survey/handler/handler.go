package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fieldsync/pkg/platform/httputil"
)

// Handler serves the survey document and the liveness probe.
type Handler struct {
	survey  json.RawMessage
	version string
}

// New creates a handler for a loaded survey document.
func New(survey json.RawMessage, version string) *Handler {
	return &Handler{survey: survey, version: version}
}

// Register mounts the routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/survey-config", h.HandleSurveyConfig)
	r.Get("/healthz", h.HandleHealth)
}

// HandleSurveyConfig handles GET /survey-config.
func (h *Handler) HandleSurveyConfig(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.survey)
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{OK: true, Version: h.version})
}
