package handlers

import (
	"net/http"
	"vinylcat/db"
	"vinylcat/models"

	"github.com/gin-gonic/gin"
)

// Formats are a fixed, seeded table - list only. The reconciler maps
// provider format names onto these records.
func FormatList(c *gin.Context, user *models.User) {
	var formats []models.Format
	if err := db.Instance.Order("id ASC").Find(&formats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	result := make([]NamedRef, 0, len(formats))
	for _, f := range formats {
		result = append(result, NamedRef{ID: f.ID, Name: f.Name, Slug: f.Slug})
	}
	c.JSON(http.StatusOK, result)
}
