package models

import (
	"strings"

	"gorm.io/gorm"
)

type Genre struct {
	ID   uint64 `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(100);index:uniq_genre_name,unique;not null"`
	Slug string `gorm:"type:varchar(120);index:uniq_genre_slug,unique;not null"`

	Releases []Release `gorm:"many2many:release_genres;"`
}

func GenreFindByName(tx *gorm.DB, name string) (g Genre, err error) {
	err = tx.Where("lower(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&g).Error
	return
}
