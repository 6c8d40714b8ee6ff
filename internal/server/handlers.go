package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/clearwatch/clearwatch/internal/screening"
	"github.com/clearwatch/clearwatch/internal/watchlist"
)

// screeningRequest is the wire form of a screening call. Parameters not
// meaningful for the requested action are ignored.
type screeningRequest struct {
	Action     string `json:"action" binding:"required"`
	Target     string `json:"target" binding:"required"`
	Parameters struct {
		AffiliatedEntities []string `json:"affiliated_entities"`
		SourceLists        []string `json:"source_lists"`
		OperatingCountries []string `json:"operating_countries"`
	} `json:"parameters"`
}

func (s *Server) handleScreening(c *gin.Context) {
	var body screeningRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := screening.ParseAction(body.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sources := make([]watchlist.Source, 0, len(body.Parameters.SourceLists))
	for _, s := range body.Parameters.SourceLists {
		sources = append(sources, watchlist.Source(s))
	}

	var req screening.Request
	switch action {
	case screening.ActionSanctionsScreening:
		req = screening.SanctionsScreeningRequest{Target: body.Target, Sources: sources}
	case screening.ActionEnforcementCheck:
		req = screening.EnforcementCheckRequest{Target: body.Target}
	case screening.ActionJurisdictionAnalysis:
		req = screening.JurisdictionAnalysisRequest{
			Target:             body.Target,
			OperatingCountries: body.Parameters.OperatingCountries,
		}
	case screening.ActionEntityResolution:
		req = screening.EntityResolutionRequest{Target: body.Target}
	case screening.ActionFullComplianceCheck:
		req = screening.FullComplianceCheckRequest{
			Target:             body.Target,
			AffiliatedEntities: body.Parameters.AffiliatedEntities,
			OperatingCountries: body.Parameters.OperatingCountries,
			Sources:            sources,
		}
	case screening.ActionRiskAssessment:
		req = screening.RiskAssessmentRequest{
			Target:             body.Target,
			AffiliatedEntities: body.Parameters.AffiliatedEntities,
			OperatingCountries: body.Parameters.OperatingCountries,
			Sources:            sources,
		}
	}

	result, err := s.engine.Check(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, screening.ErrInvalidTarget) || errors.Is(err, screening.ErrUnsupportedAction) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// replaceSourceRequest carries pre-normalized entities produced by an
// external list parser.
type replaceSourceRequest struct {
	Entities []watchlist.Entity `json:"entities"`
}

func (s *Server) handleReplaceSource(c *gin.Context) {
	source := watchlist.Source(c.Param("source"))

	var body replaceSourceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.ReplaceSource(c.Request.Context(), source, body.Entities); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source":   source,
		"entities": len(body.Entities),
	})
}

func (s *Server) handleStatistics(c *gin.Context) {
	stats, err := s.store.Statistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleSearch(c *gin.Context) {
	searcher, ok := s.store.(watchlist.Searcher)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "store does not support search"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	var sources []watchlist.Source
	for _, src := range c.QueryArray("source") {
		sources = append(sources, watchlist.Source(src))
	}

	entities, err := searcher.Search(c.Request.Context(), query, sources...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":    query,
		"count":    len(entities),
		"entities": entities,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
