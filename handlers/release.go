package handlers

import (
	"net/http"
	"strings"
	"vinylcat/db"
	"vinylcat/ingest"
	"vinylcat/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"
)

type ReleaseSaveRequest struct {
	ID          uint64  `json:"id"` // 0 on create
	Title       string  `json:"title" binding:"required"`
	Slug        string  `json:"slug"`
	ReleaseDate *int    `json:"release_date"`
	Barcode     *string `json:"barcode"`
	Cover       string  `json:"cover"`
	Artists     []refID `json:"artists" binding:"required,min=1"`
	Genres      []refID `json:"genres"`
	Format      *refID  `json:"format"`
	Shelf       *refID  `json:"shelf"`
	Featured    bool    `json:"featured"`
	Note        string  `json:"note"`
}

type ReleaseListRequest struct {
	Page     int    `form:"page"`
	PerPage  int    `form:"per_page"`
	Sort     string `form:"sort"` // created, title or year
	Featured bool   `form:"featured"`
}

type ReleaseCoverRequest struct {
	ID  uint64 `json:"id" binding:"required"`
	URL string `json:"url" binding:"required,url"`
}

type NamedRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ReleaseInfo struct {
	ID       uint64     `json:"id"`
	Title    string     `json:"title"`
	Slug     string     `json:"slug"`
	Year     *int       `json:"year"`
	Barcode  *string    `json:"barcode"`
	Cover    string     `json:"cover"`
	Note     string     `json:"note"`
	Featured bool       `json:"featured"`
	Artists  []NamedRef `json:"artists"`
	Genres   []NamedRef `json:"genres"`
	Format   *NamedRef  `json:"format"`
	Shelf    *NamedRef  `json:"shelf"`
}

func releaseInfoFrom(r *models.Release) ReleaseInfo {
	info := ReleaseInfo{
		ID:       r.ID,
		Title:    r.Title,
		Slug:     r.Slug,
		Year:     r.Year,
		Barcode:  r.Barcode,
		Cover:    r.Cover,
		Note:     r.Note,
		Featured: r.Featured,
		Artists:  []NamedRef{},
		Genres:   []NamedRef{},
	}
	for _, a := range r.Artists {
		info.Artists = append(info.Artists, NamedRef{ID: a.ID, Name: a.Name, Slug: a.Slug})
	}
	for _, g := range r.Genres {
		info.Genres = append(info.Genres, NamedRef{ID: g.ID, Name: g.Name, Slug: g.Slug})
	}
	if r.Format != nil {
		info.Format = &NamedRef{ID: r.Format.ID, Name: r.Format.Name, Slug: r.Format.Slug}
	}
	if r.Shelf != nil {
		info.Shelf = &NamedRef{ID: r.Shelf.ID, Name: r.Shelf.Location, Slug: r.Shelf.Slug}
	}
	return info
}

// ReleaseList returns the user's collection, paginated. Sorting is a fixed
// whitelist - sort keys come straight from the query string.
func ReleaseList(c *gin.Context, user *models.User) {
	r := ReleaseListRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PerPage < 1 || r.PerPage > 100 {
		r.PerPage = 50
	}
	order := "releases.created_at DESC"
	switch r.Sort {
	case "title":
		order = "releases.title ASC"
	case "year":
		order = "releases.year ASC"
	}

	tx := db.Instance.Model(&models.Release{}).
		Joins("join user_releases on user_releases.release_id = releases.id").
		Where("user_releases.user_id = ?", user.ID)
	if r.Featured {
		tx = tx.Where("releases.featured = ?", true)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	var releases []models.Release
	err := tx.Preload("Artists").Preload("Genres").Preload("Format").Preload("Shelf").
		Order(order).
		Limit(r.PerPage).Offset((r.Page - 1) * r.PerPage).
		Find(&releases).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	result := make([]ReleaseInfo, 0, len(releases))
	for i := range releases {
		result = append(result, releaseInfoFrom(&releases[i]))
	}
	pages := (total + int64(r.PerPage) - 1) / int64(r.PerPage)
	c.JSON(http.StatusOK, gin.H{
		"results":  result,
		"page":     r.Page,
		"pages":    pages,
		"per_page": r.PerPage,
		"items":    total,
	})
}

// ReleaseGet loads one release by slug.
func ReleaseGet(c *gin.Context, user *models.User) {
	release, err := models.ReleaseFindBySlug(db.Instance, c.Param("slug"))
	if err == gorm.ErrRecordNotFound || (err == nil && !release.OwnedBy(user.ID)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, releaseInfoFrom(&release))
}

func manualInputFrom(r *ReleaseSaveRequest) ingest.ManualInput {
	in := ingest.ManualInput{
		Title:    r.Title,
		Slug:     r.Slug,
		Year:     r.ReleaseDate,
		Barcode:  r.Barcode,
		Cover:    r.Cover,
		Note:     r.Note,
		Featured: r.Featured,
	}
	for _, a := range r.Artists {
		in.ArtistIDs = append(in.ArtistIDs, a.ID)
	}
	for _, g := range r.Genres {
		in.GenreIDs = append(in.GenreIDs, g.ID)
	}
	if r.Format != nil {
		in.FormatID = &r.Format.ID
	}
	if r.Shelf != nil {
		in.ShelfID = &r.Shelf.ID
	}
	return in
}

// ReleaseSave creates or edits a release through the manual branch of the
// ingestion pipeline - same reconcile/validate/conflict/persist steps as a
// scan, minus the provider round-trip.
func ReleaseSave(c *gin.Context, user *models.User) {
	r := ReleaseSaveRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		release *models.Release
		err     error
	)
	if r.ID == 0 {
		release, err = pipeline.CreateManual(c.Request.Context(), user, manualInputFrom(&r), nil)
	} else {
		release, err = pipeline.UpdateManual(c.Request.Context(), user, r.ID, manualInputFrom(&r))
	}
	if err != nil {
		renderPipelineError(c, err)
		return
	}
	full, loadErr := models.ReleaseFindByID(db.Instance, release.ID)
	if loadErr != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, releaseInfoFrom(&full))
}

func ReleaseDelete(c *gin.Context, user *models.User) {
	r := IDRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := pipeline.Delete(user, r.ID); err != nil {
		renderPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

// ReleaseSetCover downloads the given URL as the release's cover (manual
// counterpart of the pipeline's best-effort cover step - here a failure IS
// reported, the user asked for this exact image).
func ReleaseSetCover(c *gin.Context, user *models.User) {
	r := ReleaseCoverRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	release, err := models.ReleaseFindByID(db.Instance, r.ID)
	if err != nil || !release.OwnedBy(user.ID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := pipeline.SetCover(c.Request.Context(), &release, r.URL); err != nil {
		renderPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, releaseInfoFrom(&release))
}

// CoverFetch serves a stored cover image. Covers are immutable by name, so
// clients may cache them aggressively (see the route's CacheRouter).
func CoverFetch(c *gin.Context) {
	file := c.Param("file")
	if file == "" || strings.ContainsAny(file, "/\\") || strings.Contains(file, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad file name"})
		return
	}
	coverFiles.Serve(file, c.Request, c.Writer)
}
