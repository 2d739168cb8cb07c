package handlers

import (
	"net/http"
	"vinylcat/catalog"
	"vinylcat/db"
	"vinylcat/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"
)

type ArtistSaveRequest struct {
	ID   uint64 `json:"id"`
	Name string `json:"name" binding:"required,max=200"`
}

type ArtistInfo struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Thumb    string `json:"thumb"`
	Releases int64  `json:"releases"`
}

func ArtistList(c *gin.Context, user *models.User) {
	rows, err := db.Instance.Table("artists").
		Select("artists.id, artists.name, artists.slug, artists.thumb, count(release_artists.release_id)").
		Joins("left join release_artists on release_artists.artist_id = artists.id").
		Group("artists.id, artists.name, artists.slug, artists.thumb").
		Order("artists.name ASC").
		Rows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	defer rows.Close()
	result := []ArtistInfo{}
	for rows.Next() {
		info := ArtistInfo{}
		if err = rows.Scan(&info.ID, &info.Name, &info.Slug, &info.Thumb, &info.Releases); err != nil {
			c.JSON(http.StatusInternalServerError, DBError2Response)
			return
		}
		result = append(result, info)
	}
	c.JSON(http.StatusOK, result)
}

func ArtistGet(c *gin.Context, user *models.User) {
	artist, err := models.ArtistFindBySlug(db.Instance, c.Param("slug"))
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	releases := make([]ReleaseInfo, 0, len(artist.Releases))
	for i := range artist.Releases {
		releases = append(releases, releaseInfoFrom(&artist.Releases[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       artist.ID,
		"name":     artist.Name,
		"slug":     artist.Slug,
		"thumb":    artist.Thumb,
		"releases": releases,
	})
}

// ArtistSave creates by name (through the reconciler, so a rename never
// collides with an artist that already exists under that name) or renames.
// The slug is kept stable on rename - links keep working.
func ArtistSave(c *gin.Context, user *models.User) {
	r := ArtistSaveRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if r.ID == 0 {
		artist, err := catalog.NewReconciler(db.Instance).ResolveArtist(r.Name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, DBError1Response)
			return
		}
		c.JSON(http.StatusOK, ArtistInfo{ID: artist.ID, Name: artist.Name, Slug: artist.Slug})
		return
	}
	var artist models.Artist
	if err := db.Instance.First(&artist, r.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	artist.Name = r.Name
	if err := db.Instance.Save(&artist).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "an artist with that name already exists"})
		return
	}
	c.JSON(http.StatusOK, ArtistInfo{ID: artist.ID, Name: artist.Name, Slug: artist.Slug})
}

// ArtistDelete refuses to delete an artist that still has releases.
func ArtistDelete(c *gin.Context, user *models.User) {
	r := IDRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var artist models.Artist
	if err := db.Instance.First(&artist, r.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if artist.ReleaseCount(db.Instance) > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "artist still has releases"})
		return
	}
	if err := db.Instance.Delete(&artist).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}
