package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"fieldsync/pkg/testutil"
)

func newRouter() chi.Router {
	r := chi.NewRouter()
	New(json.RawMessage(`{"version":3,"questions":[]}`), "1.4.0").Register(r)
	return r
}

func TestSurveyConfig(t *testing.T) {
	rr := testutil.DoRequest(newRouter(), testutil.NewRequest(t, http.MethodGet, "/survey-config"))

	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"version":3,"questions":[]}`, rr.Body.String())
}

func TestHealth(t *testing.T) {
	rr := testutil.DoRequest(newRouter(), testutil.NewRequest(t, http.MethodGet, "/healthz"))

	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[HealthResponse](t, rr)
	assert.True(t, resp.OK)
	assert.Equal(t, "1.4.0", resp.Version)
}
