package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/athena-graph/athena/internal/cache"
	"github.com/athena-graph/athena/internal/molecule"
	"github.com/athena-graph/athena/internal/pathway"
)

const treatmentDisclaimer = "Research tool only, not medical advice"

// GetStats returns molecule count and average molecular weight. The result
// is cached for the configured TTL to keep the aggregate query off the hot
// path.
func (s *Server) GetStats(c *gin.Context) {
	key := cache.Key("stats")
	if body, ok := s.cacheGet(c, "stats", key); ok {
		c.Data(http.StatusOK, "application/json", body)
		return
	}

	stats, err := s.molecules.GetStats(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to compute stats", "error", err)
		writeError(c, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	payload := gin.H{
		"molecules":            stats.Molecules,
		"avg_molecular_weight": stats.AvgMolecularWeight,
		"status":               "operational",
	}
	s.respondAndCache(c, key, payload)
}

// GetCacheStats reports cache hit/miss counters.
func (s *Server) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.cache.Stats())
}

// GetMolecule returns the full property set of a molecule by CID.
func (s *Server) GetMolecule(c *gin.Context) {
	cid, err := strconv.ParseInt(c.Param("cid"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid CID")
		return
	}

	key := cache.Key("molecule", strconv.FormatInt(cid, 10))
	if body, ok := s.cacheGet(c, "molecule", key); ok {
		c.Data(http.StatusOK, "application/json", body)
		return
	}

	props, err := s.molecules.GetByCID(c.Request.Context(), cid)
	if err != nil {
		if errors.Is(err, molecule.ErrNotFound) {
			writeError(c, http.StatusNotFound, "molecule not found")
			return
		}
		s.logger.Error("failed to fetch molecule", "cid", cid, "error", err)
		writeError(c, http.StatusInternalServerError, "failed to fetch molecule")
		return
	}

	s.respondAndCache(c, key, props)
}

// SearchMolecules returns molecules whose name contains the given substring.
func (s *Server) SearchMolecules(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeError(c, http.StatusBadRequest, "name parameter required")
		return
	}

	key := cache.Key("search", strings.ToLower(name))
	if body, ok := s.cacheGet(c, "search", key); ok {
		c.Data(http.StatusOK, "application/json", body)
		return
	}

	results, err := s.molecules.SearchByName(c.Request.Context(), name)
	if err != nil {
		s.logger.Error("molecule search failed", "name", name, "error", err)
		writeError(c, http.StatusInternalServerError, "search failed")
		return
	}

	s.respondAndCache(c, key, gin.H{
		"results": results,
		"count":   len(results),
	})
}

// GetPathways runs a pathway traversal and returns the ranked paths.
func (s *Server) GetPathways(c *gin.Context) {
	req, err := parseTraversalRequest(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	key := pathwayCacheKey(req)
	if body, ok := s.cacheGet(c, "pathways", key); ok {
		c.Data(http.StatusOK, "application/json", body)
		return
	}

	result, err := s.engine.Traverse(c.Request.Context(), req)
	if err != nil {
		s.countTraversal("error")
		status, msg := traversalErrorStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("traversal failed", "error", err, "sources", req.Sources)
		}
		writeError(c, status, msg)
		return
	}

	s.countTraversal("success")
	s.respondAndCache(c, key, pathway.Summarize(result))
}

// SuggestTreatments returns treatment candidates for a disorder. Unknown
// disorders get the informational payload rather than an error, matching the
// public contract.
func (s *Server) SuggestTreatments(c *gin.Context) {
	disorder := c.Query("disorder")
	if disorder == "" {
		writeError(c, http.StatusBadRequest, "disorder parameter required")
		return
	}

	suggestions, found, err := s.molecules.SuggestTreatments(c.Request.Context(), disorder)
	if err != nil {
		s.logger.Error("treatment suggestion failed", "disorder", disorder, "error", err)
		writeError(c, http.StatusInternalServerError, "failed to suggest treatments")
		return
	}

	if !found {
		c.JSON(http.StatusOK, gin.H{
			"disorder":   disorder,
			"status":     "unknown disorder",
			"message":    "disorder is not present in the knowledge graph",
			"disclaimer": treatmentDisclaimer,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"disorder":    disorder,
		"suggestions": suggestions,
		"count":       len(suggestions),
		"disclaimer":  treatmentDisclaimer,
	})
}

// --- helpers ---

func parseTraversalRequest(c *gin.Context) (pathway.Request, error) {
	var req pathway.Request

	req.Sources = splitParams(c.QueryArray("source"))
	if len(req.Sources) == 0 {
		return req, errors.New("source parameter required")
	}

	req.TargetLabel = c.Query("targetLabel")
	if req.TargetLabel == "" {
		return req, errors.New("targetLabel parameter required")
	}

	if v := c.Query("maxHops"); v != "" {
		hops, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("invalid maxHops")
		}
		req.MaxHops = hops
	}

	req.RelTypes = splitParams(c.QueryArray("relationshipTypes"))

	mode, err := pathway.ParseScoreMode(c.Query("mode"))
	if err != nil {
		return req, errors.New("invalid mode")
	}
	req.Mode = mode

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("invalid limit")
		}
		req.Limit = limit
	}

	if v := c.Query("includeZeroHop"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return req, errors.New("invalid includeZeroHop")
		}
		req.IncludeZeroHop = include
	}

	return req, nil
}

// splitParams accepts both repeated query parameters and comma-separated
// values.
func splitParams(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func pathwayCacheKey(req pathway.Request) string {
	return cache.Key("pathways",
		strings.Join(req.Sources, ","),
		req.TargetLabel,
		strconv.Itoa(req.MaxHops),
		strings.Join(req.RelTypes, ","),
		string(req.Mode),
		strconv.Itoa(req.Limit),
		strconv.FormatBool(req.IncludeZeroHop),
	)
}

func traversalErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, pathway.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, pathway.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, pathway.ErrTimeout):
		return http.StatusGatewayTimeout, err.Error()
	case errors.Is(err, pathway.ErrAccessorFailure):
		return http.StatusBadGateway, "graph database unavailable"
	default:
		return http.StatusInternalServerError, "traversal failed"
	}
}

func (s *Server) cacheGet(c *gin.Context, endpoint, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	body, ok := s.cache.Get(c.Request.Context(), key)
	if ok && s.metrics != nil {
		s.metrics.CacheHitTotal.WithLabelValues(endpoint).Inc()
	}
	return body, ok
}

func (s *Server) respondAndCache(c *gin.Context, key string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if s.cache != nil {
		if err := s.cache.Set(c.Request.Context(), key, body, 0); err != nil {
			s.logger.Warn("failed to cache response", "error", err)
		}
	}
	c.Data(http.StatusOK, "application/json", body)
}

func (s *Server) countTraversal(status string) {
	if s.metrics != nil {
		s.metrics.TraversalTotal.WithLabelValues(status).Inc()
	}
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}
