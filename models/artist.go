package models

import (
	"strings"

	"gorm.io/gorm"
)

type Artist struct {
	ID        uint64 `gorm:"primaryKey"`
	CreatedAt int64
	UpdatedAt int64
	Name      string `gorm:"type:varchar(200);index:uniq_artist_name,unique;not null"`
	Slug      string `gorm:"type:varchar(220);index:uniq_artist_slug,unique;not null"`
	Thumb     string `gorm:"type:varchar(200)"`

	Releases []Release `gorm:"many2many:release_artists;"`
}

// ArtistFindByName looks an artist up by case- and whitespace-insensitive
// name. The lookup must match exactly what the reconciler would create, so
// both sides are lowered and trimmed.
func ArtistFindByName(tx *gorm.DB, name string) (a Artist, err error) {
	err = tx.Where("lower(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&a).Error
	return
}

func ArtistFindBySlug(tx *gorm.DB, slug string) (a Artist, err error) {
	err = tx.Preload("Releases").First(&a, "slug = ?", slug).Error
	return
}

// ReleaseCount returns how many releases reference this artist. An artist
// with at least one release cannot be deleted.
func (a *Artist) ReleaseCount(tx *gorm.DB) int64 {
	var count int64
	tx.Table("release_artists").Where("artist_id = ?", a.ID).Count(&count)
	return count
}
