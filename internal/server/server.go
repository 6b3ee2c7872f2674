// Package server implements the Athena REST API over the knowledge graph.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/athena-graph/athena/internal/cache"
	"github.com/athena-graph/athena/internal/config"
	"github.com/athena-graph/athena/internal/graph"
	"github.com/athena-graph/athena/internal/molecule"
	"github.com/athena-graph/athena/internal/pathway"
	"github.com/athena-graph/athena/pkg/logger"
)

const serviceName = "athena-api"

// Server wires the HTTP boundary to the graph repositories and the pathway
// engine.
type Server struct {
	cfg       *config.Config
	logger    *logger.Logger
	client    graph.Client
	molecules *molecule.Repository
	engine    *pathway.Engine
	cache     cache.Cache
	metrics   *Metrics

	started time.Time
}

// Metrics holds the Prometheus collectors for the API.
type Metrics struct {
	RequestTotal    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TraversalTotal  *prometheus.CounterVec
	CacheHitTotal   *prometheus.CounterVec
}

// NewMetrics registers the API collectors with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "athena_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"path", "method", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "athena_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		TraversalTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "athena_traversals_total",
				Help: "Total number of pathway traversals",
			},
			[]string{"status"},
		),
		CacheHitTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "athena_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"endpoint"},
		),
	}
}

// New creates a Server. Metrics may be nil when monitoring is disabled.
func New(cfg *config.Config, log *logger.Logger, client graph.Client, molecules *molecule.Repository,
	engine *pathway.Engine, responseCache cache.Cache, metrics *Metrics) *Server {
	return &Server{
		cfg:       cfg,
		logger:    log,
		client:    client,
		molecules: molecules,
		engine:    engine,
		cache:     responseCache,
		metrics:   metrics,
		started:   time.Now(),
	}
}

// HealthCheck reports liveness.
func (s *Server) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"uptime":  time.Since(s.started).String(),
	})
}

// ReadinessCheck verifies graph connectivity.
func (s *Server) ReadinessCheck(c *gin.Context) {
	if err := s.client.VerifyConnectivity(c.Request.Context()); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ready": false,
			"error": "graph database unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
