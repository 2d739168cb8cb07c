package models

import (
	"vinylcat/db"

	"gorm.io/gorm"
)

type Release struct {
	ID        uint64 `gorm:"primaryKey"`
	CreatedAt int64
	UpdatedAt int64
	Title     string  `gorm:"type:varchar(150);not null"`
	Slug      string  `gorm:"type:varchar(180);index:uniq_release_slug,unique;not null"`
	Year      *int    // release year; nil when unknown (provider said 0 or <= 1000)
	Barcode   *string `gorm:"type:varchar(32);index"`
	Cover     string  `gorm:"type:varchar(200)"` // filename inside the cover bucket, empty if none
	Note      string  `gorm:"type:text"`
	Featured  bool    `gorm:"not null;default:0"`
	// Provider bookkeeping so a catalog entry can be traced back to its source
	ExternalID  string `gorm:"type:varchar(64);index"`
	ExternalURL string `gorm:"type:varchar(300)"`

	FormatID *uint64
	Format   *Format `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	ShelfID  *uint64
	Shelf    *Shelf `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`

	Artists []Artist `gorm:"many2many:release_artists;"`
	Genres  []Genre  `gorm:"many2many:release_genres;"`
	Users   []User   `gorm:"many2many:user_releases;"`
}

// ReleaseFindBySlug loads a release with all its references preloaded.
func ReleaseFindBySlug(tx *gorm.DB, slug string) (r Release, err error) {
	err = tx.Preload("Artists").Preload("Genres").Preload("Format").Preload("Shelf").
		First(&r, "slug = ?", slug).Error
	return
}

// ReleaseFindByBarcodeAndUser returns the release with the given barcode in
// the given user's collection, or gorm.ErrRecordNotFound. Barcodes are only
// unique per user - other users may own a release with the same barcode.
func ReleaseFindByBarcodeAndUser(tx *gorm.DB, barcode string, userID uint64) (r Release, err error) {
	err = tx.Joins("join user_releases on user_releases.release_id = releases.id").
		Where("user_releases.user_id = ? AND releases.barcode = ?", userID, barcode).
		First(&r).Error
	return
}

func ReleaseFindByID(tx *gorm.DB, id uint64) (r Release, err error) {
	err = tx.Preload("Artists").Preload("Genres").Preload("Format").Preload("Shelf").
		First(&r, id).Error
	return
}

// OwnedBy reports whether the release is part of the given user's collection.
func (r *Release) OwnedBy(userID uint64) bool {
	var count int64
	db.Instance.Model(&UserRelease{}).
		Where("release_id = ? AND user_id = ?", r.ID, userID).
		Count(&count)
	return count > 0
}
