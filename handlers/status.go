package handlers

import (
	"net/http"
	"vinylcat/db"
	"vinylcat/models"
	"vinylcat/storage"

	"github.com/gin-gonic/gin"
)

type BucketStatus struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Type       uint8  `json:"type"`
	TotalSpace uint64 `json:"total_space"`
	FreeSpace  uint64 `json:"free_space"`
}

// AdminStatus reports catalog totals, cover bucket space and live scanner
// connections.
func AdminStatus(c *gin.Context, user *models.User) {
	var releases, artists, users int64
	db.Instance.Model(&models.Release{}).Count(&releases)
	db.Instance.Model(&models.Artist{}).Count(&artists)
	db.Instance.Model(&models.User{}).Count(&users)

	buckets := []BucketStatus{}
	for _, s := range storage.All() {
		bucket := s.GetBucket()
		buckets = append(buckets, BucketStatus{
			ID:         bucket.ID,
			Name:       bucket.Name,
			Type:       uint8(bucket.StorageType),
			TotalSpace: s.GetTotalSpace(),
			FreeSpace:  s.GetFreeSpace(),
		})
	}

	scanners := 0
	for _, count := range ConnectedScanners.Items() {
		scanners += count
	}

	c.JSON(http.StatusOK, gin.H{
		"releases": releases,
		"artists":  artists,
		"users":    users,
		"buckets":  buckets,
		"scanners": scanners,
	})
}
