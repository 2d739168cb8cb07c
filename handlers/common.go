package handlers

import (
	"errors"
	"net/http"
	"vinylcat/covers"
	"vinylcat/ingest"
	"vinylcat/providers"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Error string `json:"error"`
}

var (
	OKResponse       = Response{}
	DBError1Response = Response{"DB Error 1"}
	DBError2Response = Response{"DB Error 2"}
)

// Shared collaborators, wired once at startup.
var (
	gateway    providers.Gateway
	pipeline   *ingest.Pipeline
	coverFiles *covers.Fetcher
	scanCache  *providers.SearchCache
)

func Init(g providers.Gateway, p *ingest.Pipeline, cf *covers.Fetcher, sc *providers.SearchCache) {
	gateway = g
	pipeline = p
	coverFiles = cf
	scanCache = sc
}

type IDRequest struct {
	ID uint64 `form:"id" json:"id" binding:"required"`
}

type refID struct {
	ID uint64 `json:"id" binding:"required"`
}

// renderPipelineError maps the ingestion failure taxonomy onto HTTP. The
// recoverable failures (validation, conflict) carry enough structure for
// the caller to correct the input; the rest get a retry recommendation.
func renderPipelineError(c *gin.Context, err error) {
	var verr *ingest.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
		return
	}
	var cerr *ingest.ConflictError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "already in your collection",
			"existing": gin.H{
				"id":    cerr.Existing.ID,
				"title": cerr.Existing.Title,
				"slug":  cerr.Existing.Slug,
			},
		})
		return
	}
	if errors.Is(err, ingest.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if errors.Is(err, ingest.ErrUpstreamUnavailable) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "metadata provider unavailable", "retry": true})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error", "retry": true})
}
