package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Router builds the gin engine with all middleware and routes.
func (s *Server) Router() *gin.Engine {
	if s.cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(cors.Default()) // browser clients query the API directly
	router.Use(RequestID())
	router.Use(MetricsMiddleware(s.metrics))
	if s.cfg.RateLimit.Enabled {
		router.Use(PerClientRateLimit(s.cfg.RateLimit.RPS, s.cfg.RateLimit.Burst, s.logger))
	}

	router.GET("/health", s.HealthCheck)
	router.GET("/ready", s.ReadinessCheck)
	router.GET("/stats", s.GetStats)
	router.GET("/stats/cache", s.GetCacheStats)

	router.GET("/molecule/search", s.SearchMolecules)
	router.GET("/molecule/:cid", s.GetMolecule)

	router.GET("/pathways", s.GetPathways)
	router.GET("/suggest", s.SuggestTreatments)

	return router
}
