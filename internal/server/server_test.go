package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athena-graph/athena/internal/cache"
	"github.com/athena-graph/athena/internal/config"
	"github.com/athena-graph/athena/internal/graph"
	"github.com/athena-graph/athena/internal/molecule"
	"github.com/athena-graph/athena/internal/pathway"
	"github.com/athena-graph/athena/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Traversal: config.TraversalConfig{
			DefaultMaxHops: 4,
			HardMaxHops:    8,
			DefaultLimit:   20,
			Timeout:        5 * time.Second,
			RetryBackoff:   time.Millisecond,
		},
	}
}

func w(v float64) *float64 { return &v }

func demoAccessor() *graph.MemoryAccessor {
	return graph.NewMemoryAccessor().
		AddNode("2244", []string{"Molecule"}, map[string]any{"name": "aspirin"}).
		AddNode("ptgs2", []string{"Protein"}, map[string]any{"name": "PTGS2"}).
		AddNode("inflammation", []string{"Disorder"}, map[string]any{"name": "inflammation"}).
		AddEdge("2244", "ptgs2", "TARGETS", w(0.9)).
		AddEdge("ptgs2", "inflammation", "ASSOCIATED_WITH", w(0.8))
}

func newTestServer(t *testing.T, cfg *config.Config, client *graph.MemoryClient, accessor graph.Accessor) *Server {
	t.Helper()

	log := logger.New("error", false)
	engine := pathway.NewEngine(accessor, pathway.Config{
		DefaultMaxHops: cfg.Traversal.DefaultMaxHops,
		HardMaxHops:    cfg.Traversal.HardMaxHops,
		DefaultLimit:   cfg.Traversal.DefaultLimit,
		Timeout:        cfg.Traversal.Timeout,
		RetryBackoff:   cfg.Traversal.RetryBackoff,
	}, log)

	responseCache, err := cache.NewMemoryCache(64, time.Minute)
	require.NoError(t, err)

	return New(cfg, log, client, molecule.NewRepository(client), engine, responseCache, nil)
}

func doRequest(srv *Server, method, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	srv.Router().ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), graph.NewMemoryClient(), demoAccessor())

	rec := doRequest(srv, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "athena-api", body["service"])
}

func TestReadyEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), graph.NewMemoryClient(), demoAccessor())
	rec := doRequest(srv, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	down := graph.NewMemoryClient().WithConnectivityError(errors.New("unreachable"))
	srv = newTestServer(t, testConfig(), down, demoAccessor())
	rec = doRequest(srv, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatsEndpointCachesResult(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{Records: []graph.Record{{
		"total_count": int64(1500),
		"avg_weight":  287.456,
	}}})

	srv := newTestServer(t, testConfig(), client, demoAccessor())

	rec := doRequest(srv, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1500), body["molecules"])
	assert.Equal(t, 287.46, body["avg_molecular_weight"])
	assert.Equal(t, "operational", body["status"])

	// Second request is served from cache without touching the graph.
	rec = doRequest(srv, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, client.ReadCalls(), 1)
}

func TestCacheStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), graph.NewMemoryClient(), demoAccessor())

	rec := doRequest(srv, http.MethodGet, "/stats/cache")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Contains(t, body, "hits")
	assert.Contains(t, body, "hit_rate")
}

func TestGetMolecule(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{Records: []graph.Record{{
		"props": map[string]any{"cid": int64(2244), "name": "aspirin"},
	}}})

	srv := newTestServer(t, testConfig(), client, demoAccessor())

	rec := doRequest(srv, http.MethodGet, "/molecule/2244")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "aspirin", decodeBody(t, rec)["name"])
}

func TestGetMoleculeInvalidCID(t *testing.T) {
	srv := newTestServer(t, testConfig(), graph.NewMemoryClient(), demoAccessor())

	rec := doRequest(srv, http.MethodGet, "/molecule/abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid CID", decodeBody(t, rec)["error"])
}

func TestGetMoleculeNotFound(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{})

	srv := newTestServer(t, testConfig(), client, demoAccessor())

	rec := doRequest(srv, http.MethodGet, "/molecule/99999")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "molecule not found", decodeBody(t, rec)["error"])
}

func TestSearchMolecules(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{Records: []graph.Record{
		{"cid": int64(2244), "name": "aspirin"},
	}})

	srv := newTestServer(t, testConfig(), client, demoAccessor())

	rec := doRequest(srv, http.MethodGet, "/molecule/search?name=aspirin")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])

	rec = doRequest(srv, http.MethodGet, "/molecule/search")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name parameter required", decodeBody(t, rec)["error"])
}

func TestGetPathways(t *testing.T) {
	srv := newTestServer(t, testConfig(), graph.NewMemoryClient(), demoAccessor())

	rec := doRequest(srv, http.MethodGet, "/pathways?source=2244&targetLabel=Disorder&maxHops=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var paths []pathway.PathSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paths))
	require.Len(t, paths, 1)

	assert.InDelta(t, 0.72, paths[0].Score, 1e-9)
	assert.Equal(t, 2, paths[0].Length)
	require.Len(t, paths[0].Nodes, 3)
	assert.Equal(t, "2244", paths[0].Nodes[0].ID)
	assert.Equal(t, "aspirin", paths[0].Nodes[0].Name)
	assert.Equal(t, []string{"TARGETS", "ASSOCIATED_WITH"}, paths[0].Relationships)
}

func TestGetPathwaysValidation(t *testing.T) {
	srv := newTestServer(t, testConfig(), graph.NewMemoryClient(), demoAccessor())

	cases := map[string]string{
		"missing source":       "/pathways?targetLabel=Disorder",
		"missing target label": "/pathways?source=2244",
		"bad maxHops":          "/pathways?source=2244&targetLabel=Disorder&maxHops=lots",
		"bad mode":             "/pathways?source=2244&targetLabel=Disorder&mode=pagerank",
		"bad limit":            "/pathways?source=2244&targetLabel=Disorder&limit=none",
	}

	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodGet, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetPathwaysUnknownSource(t *testing.T) {
	srv := newTestServer(t, testConfig(), graph.NewMemoryClient(), demoAccessor())

	rec := doRequest(srv, http.MethodGet, "/pathways?source=ghost&targetLabel=Disorder")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "ghost")
}

func TestGetPathwaysAccessorFailure(t *testing.T) {
	broken := graph.NewMemoryAccessor().WithError(errors.New("bolt handshake failed"))
	srv := newTestServer(t, testConfig(), graph.NewMemoryClient(), broken)

	rec := doRequest(srv, http.MethodGet, "/pathways?source=2244&targetLabel=Disorder")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "graph database unavailable", decodeBody(t, rec)["error"])
}

func TestSuggestTreatments(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{Records: []graph.Record{
		{"id": "inflammation", "name": "inflammation"},
	}})
	client.PushReadResult(graph.Result{Records: []graph.Record{
		{"cid": int64(2244), "name": "aspirin", "confidence": 0.95},
	}})
	client.PushReadResult(graph.Result{})

	srv := newTestServer(t, testConfig(), client, demoAccessor())

	rec := doRequest(srv, http.MethodGet, "/suggest?disorder=inflammation")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, treatmentDisclaimer, body["disclaimer"])
}

func TestSuggestTreatmentsUnknownDisorder(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{})

	srv := newTestServer(t, testConfig(), client, demoAccessor())

	rec := doRequest(srv, http.MethodGet, "/suggest?disorder=dragon+pox")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "unknown disorder", body["status"])
	assert.Equal(t, treatmentDisclaimer, body["disclaimer"])

	rec = doRequest(srv, http.MethodGet, "/suggest")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}

	srv := newTestServer(t, cfg, graph.NewMemoryClient(), demoAccessor())
	router := srv.Router()

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	srv := newTestServer(t, testConfig(), graph.NewMemoryClient(), demoAccessor())

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	srv.Router().ServeHTTP(recorder, req)

	assert.Equal(t, "req-123", recorder.Header().Get("X-Request-ID"))

	recorder = httptest.NewRecorder()
	srv.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))
}

func TestSplitParams(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitParams([]string{"a,b", "c"}))
	assert.Equal(t, []string{"a"}, splitParams([]string{" a , ", ""}))
	assert.Nil(t, splitParams(nil))
}
