package handlers

import (
	"errors"
	"net/http"
	"vinylcat/models"
	"vinylcat/providers"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// How many barcode hits get hydrated into full candidates per scan. A
// barcode rarely maps to more than a couple of pressings.
const maxScanCandidates = 5

type ScanRequest struct {
	Barcode string `json:"barcode" binding:"required,numeric"`
}

type SearchRequest struct {
	By     string `form:"by" json:"by"`
	Search string `form:"search" json:"search" binding:"required"`
	Limit  int    `form:"limit" json:"limit"`
	Page   int    `form:"page" json:"page"`
}

type ScanAddRequest struct {
	ReleaseID string  `json:"release_id" binding:"required"`
	Barcode   string  `json:"barcode" binding:"omitempty,numeric"`
	Shelf     *uint64 `json:"shelf"`
}

// CandidateInfo is the wire shape of one external release candidate.
type CandidateInfo struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Year    *int     `json:"year"`
	Artists []string `json:"artists"`
	Genres  []string `json:"genres"`
	Format  string   `json:"format"`
	Image   string   `json:"image"`
	URL     string   `json:"url"`
}

func candidateFrom(meta providers.ReleaseMetadata) CandidateInfo {
	return CandidateInfo{
		ID:      meta.ExternalID,
		Title:   meta.Title,
		Year:    meta.Year,
		Artists: meta.Artists,
		Genres:  meta.Genres,
		Format:  meta.Format,
		Image:   meta.ImageURL,
		URL:     meta.ExternalURL,
	}
}

// Scan resolves a barcode into hydrated release candidates. The search only
// returns shallow hits, so each id is fetched in full before it is shown -
// that is also what scan/add will ingest, so the user confirms exactly what
// gets stored.
func Scan(c *gin.Context, user *models.User) {
	r := ScanRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cacheKey := "barcode:" + r.Barcode
	results, page, ok := scanCache.Get(cacheKey)
	if !ok {
		var err error
		results, page, err = gateway.SearchReleases(c.Request.Context(), providers.SearchByBarcode, r.Barcode, 1, maxScanCandidates)
		if err != nil {
			log.Warn("barcode search failed", "barcode", r.Barcode, "err", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "metadata provider unavailable", "retry": true})
			return
		}
		scanCache.Put(cacheKey, results, page)
	}

	candidates := []CandidateInfo{}
	for i, raw := range results {
		if i >= maxScanCandidates {
			break
		}
		full, err := gateway.FetchRelease(c.Request.Context(), raw.Metadata().ExternalID)
		if errors.Is(err, providers.ErrNotFound) {
			continue
		}
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "metadata provider unavailable", "retry": true})
			return
		}
		candidates = append(candidates, candidateFrom(full.Metadata()))
	}
	c.JSON(http.StatusOK, gin.H{
		"results":  candidates,
		"page":     page.Page,
		"pages":    page.Pages,
		"per_page": page.PerPage,
		"items":    page.Items,
	})
}

// Search runs a free-text provider search along one dimension. Results stay
// shallow - hydration happens on scan/add. Pagination is the provider's
// own, passed through unchanged so clients can re-page.
func Search(c *gin.Context, user *models.User) {
	r := SearchRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, page, err := gateway.SearchReleases(c.Request.Context(), providers.SearchBy(r.By), r.Search, r.Page, r.Limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "metadata provider unavailable", "retry": true})
		return
	}
	candidates := make([]CandidateInfo, 0, len(results))
	for _, raw := range results {
		candidates = append(candidates, candidateFrom(raw.Metadata()))
	}
	c.JSON(http.StatusOK, gin.H{
		"results":  candidates,
		"page":     page.Page,
		"pages":    page.Pages,
		"per_page": page.PerPage,
		"items":    page.Items,
	})
}

// ScanAdd ingests the chosen candidate into the user's collection.
func ScanAdd(c *gin.Context, user *models.User) {
	r := ScanAddRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	release, err := pipeline.IngestExternal(c.Request.Context(), user, r.ReleaseID, r.Barcode, r.Shelf, nil)
	if err != nil {
		renderPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, releaseInfoFrom(release))
}
