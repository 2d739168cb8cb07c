package handlers

import (
	"net/http"
	"vinylcat/catalog"
	"vinylcat/db"
	"vinylcat/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type ShelfSaveRequest struct {
	ID          uint64 `json:"id"`
	Location    string `json:"location" binding:"required,max=100"`
	Description string `json:"description"`
}

type ShelfInfo struct {
	ID          uint64 `json:"id"`
	Location    string `json:"location"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func ShelfList(c *gin.Context, user *models.User) {
	var shelves []models.Shelf
	if err := db.Instance.Order("location ASC").Find(&shelves).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	result := make([]ShelfInfo, 0, len(shelves))
	for _, s := range shelves {
		result = append(result, ShelfInfo{ID: s.ID, Location: s.Location, Slug: s.Slug, Description: s.Description})
	}
	c.JSON(http.StatusOK, result)
}

func ShelfSave(c *gin.Context, user *models.User) {
	r := ShelfSaveRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var shelf models.Shelf
	if r.ID != 0 {
		if err := db.Instance.First(&shelf, r.ID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
	} else {
		slug, err := catalog.EnsureUniqueSlug(r.Location, func(s string) (bool, error) {
			var count int64
			if err := db.Instance.Model(&models.Shelf{}).Where("slug = ?", s).Count(&count).Error; err != nil {
				return false, err
			}
			return count > 0, nil
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, DBError1Response)
			return
		}
		shelf.Slug = slug
	}
	shelf.Location = r.Location
	shelf.Description = r.Description
	if err := db.Instance.Save(&shelf).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	c.JSON(http.StatusOK, ShelfInfo{ID: shelf.ID, Location: shelf.Location, Slug: shelf.Slug, Description: shelf.Description})
}

func ShelfDelete(c *gin.Context, user *models.User) {
	r := IDRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Releases keep existing without a shelf (FK is SET NULL)
	if err := db.Instance.Delete(&models.Shelf{}, r.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}
