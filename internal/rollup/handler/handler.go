package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fieldsync/internal/canvass/models"
	"fieldsync/internal/rollup"
	dErrors "fieldsync/pkg/domain-errors"
	"fieldsync/pkg/platform/httputil"
	"fieldsync/pkg/requestcontext"
)

// Service defines the interface for household rollups.
type Service interface {
	Query(ctx context.Context, q rollup.Query) (*rollup.Page, error)
	Members(ctx context.Context, householdID string) ([]models.Member, error)
}

// Handler serves the dashboard read endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a rollup handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the rollup routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/voters", h.HandleVoters)
	r.Get("/households/{householdId}", h.HandleHousehold)
}

// VotersResponse is one page of household rollups.
type VotersResponse struct {
	OK     bool               `json:"ok"`
	Rows   []rollup.Household `json:"rows"`
	Cursor *string            `json:"cursor"`
}

// HouseholdMember is the projection of a member shown in the household
// drawer. vuid carries the member id for older field app builds.
type HouseholdMember struct {
	VUID       string        `json:"vuid"`
	FirstName  string        `json:"firstName"`
	MiddleName string        `json:"middleName,omitempty"`
	LastName   string        `json:"lastName"`
	Age        *int          `json:"age,omitempty"`
	Party      string        `json:"party,omitempty"`
	Sex        string        `json:"sex,omitempty"`
	LastStatus models.Status `json:"lastStatus"`
}

// HouseholdResponse lists one household's members.
type HouseholdResponse struct {
	OK      bool              `json:"ok"`
	Members []HouseholdMember `json:"members"`
}

// HandleVoters handles GET /voters?search=&status=&sort=&limit=&cursor=.
func (h *Handler) HandleVoters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	q, err := parseQuery(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid rollup query",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	page, err := h.service.Query(ctx, q)
	if err != nil {
		h.logger.WarnContext(ctx, "rollup query failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VotersResponse{OK: true, Rows: page.Rows, Cursor: page.Cursor})
}

func parseQuery(r *http.Request) (rollup.Query, error) {
	values := r.URL.Query()

	filter, err := rollup.ParseFilter(values.Get("status"))
	if err != nil {
		return rollup.Query{}, err
	}
	sort, err := rollup.ParseSort(values.Get("sort"))
	if err != nil {
		return rollup.Query{}, err
	}
	limit := 0
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return rollup.Query{}, dErrors.New(dErrors.CodeValidation, "limit must be an integer")
		}
	}
	return rollup.Query{
		Search: strings.TrimSpace(values.Get("search")),
		Filter: filter,
		Sort:   sort,
		Limit:  limit,
		Cursor: values.Get("cursor"),
	}, nil
}

// HandleHousehold handles GET /households/{householdId}.
func (h *Handler) HandleHousehold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	householdID := chi.URLParam(r, "householdId")

	members, err := h.service.Members(ctx, householdID)
	if err != nil {
		h.logger.DebugContext(ctx, "household lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"household_id", householdID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := HouseholdResponse{OK: true, Members: make([]HouseholdMember, len(members))}
	for i, m := range members {
		resp.Members[i] = HouseholdMember{
			VUID:       m.ID,
			FirstName:  m.FirstName,
			MiddleName: m.MiddleName,
			LastName:   m.LastName,
			Age:        m.Age,
			Party:      m.Party,
			Sex:        m.Sex,
			LastStatus: m.LastStatus.OrUnvisited(),
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
