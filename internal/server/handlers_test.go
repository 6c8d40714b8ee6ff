package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clearwatch/clearwatch/internal/cache"
	"github.com/clearwatch/clearwatch/internal/config"
	"github.com/clearwatch/clearwatch/internal/screening"
	"github.com/clearwatch/clearwatch/internal/watchlist"
)

func newTestServer(t *testing.T) (*Server, watchlist.Store) {
	t.Helper()
	store := watchlist.NewMemoryStore(zap.NewNop())
	matcher := screening.NewMatcher(store, screening.DefaultMatcherConfig(), zap.NewNop())
	engine := screening.NewEngine(
		screening.NewSanctionsScreener(matcher, []watchlist.Source{watchlist.SourceOFACSDN}, zap.NewNop()),
		screening.NewEnforcementChecker(screening.NewKeywordEvidenceProvider(), nil, nil, cache.New(cache.NewMemoryBackend()), 0, 0, zap.NewNop()),
		screening.NewJurisdictionAnalyzer(),
		screening.NewEntityResolver(nil),
		screening.NewAggregator(nil),
		nil,
		zap.NewNop(),
	)
	srv := New(config.ServerConfig{Addr: ":0"}, engine, store, zap.NewNop())
	return srv, store
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func seedTornado(t *testing.T, store watchlist.Store) {
	t.Helper()
	require.NoError(t, store.ReplaceSource(context.Background(), watchlist.SourceOFACSDN, []watchlist.Entity{
		{ID: "SDN-1001", Name: "Tornado Cash", EntityType: watchlist.EntityTypeCryptoAddress},
	}))
}

func TestScreeningEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedTornado(t, store)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/screenings", map[string]interface{}{
		"action": "sanctions_screening",
		"target": "Tornado Cash",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result screening.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.Sanctions)
	assert.Equal(t, screening.RiskCritical, result.Sanctions.RiskLevel)
	assert.Len(t, result.Sanctions.Matches, 1)
}

func TestScreeningEndpointFullCheck(t *testing.T) {
	srv, store := newTestServer(t)
	seedTornado(t, store)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/screenings", map[string]interface{}{
		"action": "full_compliance_check",
		"target": "Protocol X",
		"parameters": map[string]interface{}{
			"affiliated_entities": []string{"Tornado Cash"},
			"operating_countries": []string{"DE"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result screening.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.Report)
	assert.Equal(t, screening.RiskCritical, result.Report.OverallRiskLevel)
}

func TestScreeningEndpointRejectsUnknownAction(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/screenings", map[string]interface{}{
		"action": "continuous_monitoring",
		"target": "Tornado Cash",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScreeningEndpointRejectsBlankTarget(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/screenings", map[string]interface{}{
		"action": "sanctions_screening",
		"target": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplaceSourceEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	w := doJSON(t, srv, http.MethodPut, "/api/v1/watchlist/sources/OFAC_SDN", map[string]interface{}{
		"entities": []map[string]interface{}{
			{"id": "SDN-1", "name": "Tornado Cash", "entity_type": "crypto_address"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	entities, err := store.Entities(context.Background(), watchlist.SourceOFACSDN)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Tornado Cash", entities[0].Name)
}

func TestStatisticsEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedTornado(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/watchlist/statistics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stats watchlist.Statistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalEntities)
}

func TestSearchEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedTornado(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/watchlist/search?q=tornado", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tornado Cash")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/watchlist/search", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
