package httptransport

import (
	"context"
	"net/http"
	"slices"
	"time"

	"fieldsync/pkg/platform/httputil"
	"fieldsync/pkg/platform/middleware/request"
)

// ReadinessResponse lists each dependency as "ok" or "unavailable".
type ReadinessResponse struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

func readiness(cfg Config) http.HandlerFunc {
	names := make([]string, 0, len(cfg.Checks))
	for name := range cfg.Checks {
		names = append(names, name)
	}
	slices.Sort(names)
	timeout := cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		resp := ReadinessResponse{OK: true, Checks: make(map[string]string, len(names))}
		for _, name := range names {
			if err := cfg.Checks[name](ctx); err != nil {
				cfg.Logger.WarnContext(ctx, "readiness check failed",
					"request_id", request.GetRequestID(ctx),
					"check", name,
					"error", err,
				)
				resp.OK = false
				resp.Checks[name] = "unavailable"
				continue
			}
			resp.Checks[name] = "ok"
		}

		status := http.StatusOK
		if !resp.OK {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
