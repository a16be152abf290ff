// Package e2e drives the HTTP API end to end with godog scenarios against an
// in-process server backed by the memory store.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"fieldsync/internal/canvass/store/memory"
	"fieldsync/internal/export"
	exportHandler "fieldsync/internal/export/handler"
	"fieldsync/internal/ingest"
	ingestHandler "fieldsync/internal/ingest/handler"
	"fieldsync/internal/platform/metrics"
	"fieldsync/internal/rollup"
	rollupHandler "fieldsync/internal/rollup/handler"
	"fieldsync/internal/survey"
	surveyHandler "fieldsync/internal/survey/handler"
	httptransport "fieldsync/internal/transport/http"
	"fieldsync/internal/visits"
	visitsHandler "fieldsync/internal/visits/handler"
)

// TestContext holds one scenario's server and the last response.
type TestContext struct {
	handler http.Handler

	lastStatus int
	lastHeader http.Header
	lastBody   []byte
}

// Reset starts a fresh server with an empty store.
func (tc *TestContext) Reset() error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memory.NewInMemory()
	surveyCfg, err := survey.Load("")
	if err != nil {
		return err
	}
	reg := metrics.NewRegistry()

	tc.handler = httptransport.NewRouter(httptransport.Config{
		Logger:   logger,
		Registry: reg,
		Metrics:  metrics.New(reg),
		Checks:   map[string]httptransport.Check{"store": st.Ping},
		API: []httptransport.Registrar{
			surveyHandler.New(surveyCfg.JSON(), "e2e"),
			ingestHandler.New(ingest.New(st, ingest.DefaultAliases(), logger), logger, 1<<20),
			visitsHandler.New(visits.New(st, logger), logger),
			rollupHandler.New(rollup.New(st, logger), logger),
			exportHandler.New(export.New(st, logger, 2), logger),
		},
	})
	tc.lastStatus, tc.lastHeader, tc.lastBody = 0, nil, nil
	return nil
}

func (tc *TestContext) do(req *http.Request) error {
	if tc.handler == nil {
		return fmt.Errorf("server not started")
	}
	rr := httptest.NewRecorder()
	tc.handler.ServeHTTP(rr, req)
	tc.lastStatus = rr.Code
	tc.lastHeader = rr.Header()
	tc.lastBody = rr.Body.Bytes()
	return nil
}

// GET issues a GET request.
func (tc *TestContext) GET(path string) error {
	return tc.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// POST issues a JSON POST request; body is sent verbatim.
func (tc *TestContext) POST(path, body string) error {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

// Upload posts content as the multipart form file "file".
func (tc *TestContext) Upload(path, filename, content string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(fw, content); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return tc.do(req)
}

// Status returns the last response status.
func (tc *TestContext) Status() int { return tc.lastStatus }

// Header returns a header of the last response.
func (tc *TestContext) Header(name string) string { return tc.lastHeader.Get(name) }

// Body returns the last response body.
func (tc *TestContext) Body() string { return string(tc.lastBody) }

// Field resolves a dotted path such as "rows.0.householdId" in the last JSON
// response.
func (tc *TestContext) Field(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	cur := doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", part, path)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %s", part, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q in %s", part, path)
		}
	}
	return cur, nil
}
