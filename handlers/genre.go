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

type GenreSaveRequest struct {
	ID   uint64 `json:"id"`
	Name string `json:"name" binding:"required,max=100"`
}

func GenreList(c *gin.Context, user *models.User) {
	var genres []models.Genre
	if err := db.Instance.Order("name ASC").Find(&genres).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	result := make([]NamedRef, 0, len(genres))
	for _, g := range genres {
		result = append(result, NamedRef{ID: g.ID, Name: g.Name, Slug: g.Slug})
	}
	c.JSON(http.StatusOK, result)
}

func GenreSave(c *gin.Context, user *models.User) {
	r := GenreSaveRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if r.ID == 0 {
		genre, err := catalog.NewReconciler(db.Instance).ResolveGenre(r.Name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, DBError1Response)
			return
		}
		c.JSON(http.StatusOK, NamedRef{ID: genre.ID, Name: genre.Name, Slug: genre.Slug})
		return
	}
	var genre models.Genre
	if err := db.Instance.First(&genre, r.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	genre.Name = r.Name
	if err := db.Instance.Save(&genre).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "a genre with that name already exists"})
		return
	}
	c.JSON(http.StatusOK, NamedRef{ID: genre.ID, Name: genre.Name, Slug: genre.Slug})
}

// GenreDelete removes the genre; association rows cascade away, releases
// themselves are untouched. No has-releases guard, unlike artists.
func GenreDelete(c *gin.Context, user *models.User) {
	r := IDRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var genre models.Genre
	if err := db.Instance.First(&genre, r.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	err := db.Instance.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&genre).Association("Releases").Clear(); err != nil {
			return err
		}
		return tx.Delete(&genre).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}
