package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aristath/tailrisk/internal/modules/distributions"
	"github.com/aristath/tailrisk/internal/modules/risk"
)

func setupRouter(t *testing.T) chi.Router {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A pooled second connection would see a fresh empty memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, risk.InitSchema(db))

	repo := risk.NewRepository(db, zerolog.Nop())
	svc := risk.NewService(repo, nil, zerolog.Nop())
	handler := NewHandler(svc, zerolog.Nop())

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		handler.RegisterRoutes(api)
	})
	return r
}

func postJSON(t *testing.T, router chi.Router, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleEstimateVaR(t *testing.T) {
	router := setupRouter(t)

	rec := postJSON(t, router, "/api/risk/var", risk.Request{
		Distribution: distributions.Spec{Kind: distributions.Gaussian, Mu: 0.15, Sigma: 0.20},
		Alpha:        0.95,
		Oracle:       risk.OracleExact,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data risk.VaRResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.InDelta(t, -0.179, response.Data.VaR, 0.005)
	assert.True(t, response.Data.Converged)
}

func TestHandleEstimateVaRBadRequests(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/risk/var", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/api/risk/var", risk.Request{
		Distribution: distributions.Spec{Kind: distributions.Gaussian, Mu: 0, Sigma: 1},
		Alpha:        2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEstimateCVaR(t *testing.T) {
	router := setupRouter(t)

	rec := postJSON(t, router, "/api/risk/cvar", risk.CVaRRequest{
		Request: risk.Request{
			Distribution: distributions.Spec{Kind: distributions.Gaussian, Mu: 0.15, Sigma: 0.20},
			Alpha:        0.95,
			Oracle:       risk.OracleExact,
		},
		Method:  risk.CVaRConditionalMC,
		Samples: 50_000,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data risk.CVaRResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Less(t, response.Data.CVaR, response.Data.VaR.VaR)
}

func TestHandleGetEstimates(t *testing.T) {
	router := setupRouter(t)

	rec := postJSON(t, router, "/api/risk/var", risk.Request{
		Distribution: distributions.Spec{Kind: distributions.Gaussian, Mu: 0.15, Sigma: 0.20},
		Alpha:        0.95,
		Oracle:       risk.OracleExact,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/risk/estimates?limit=10", nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)
	require.Equal(t, http.StatusOK, getRec.Code)

	var response struct {
		Data struct {
			Estimates []risk.Estimate `json:"estimates"`
			Count     int             `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(getRec.Body).Decode(&response))
	assert.Equal(t, 1, response.Data.Count)
	require.Len(t, response.Data.Estimates, 1)
	assert.Equal(t, "var", response.Data.Estimates[0].Measure)
}
