package models

import (
	"vinylcat/db"

	"gorm.io/gorm"
)

func Init() {
	// The custom join table carries the denormalized barcode column that
	// backs the per-user uniqueness constraint.
	if err := db.Instance.SetupJoinTable(&Release{}, "Users", &UserRelease{}); err != nil {
		panic(err)
	}
	db.Instance.AutoMigrate(&User{})
	db.Instance.AutoMigrate(&Grant{})
	db.Instance.AutoMigrate(&Artist{})
	db.Instance.AutoMigrate(&Genre{})
	db.Instance.AutoMigrate(&Format{})
	db.Instance.AutoMigrate(&Shelf{})
	db.Instance.AutoMigrate(&Release{})
	db.Instance.AutoMigrate(&UserRelease{})

	seedFormats(db.Instance)
}

// seedFormats creates the fixed physical format table. The IDs are stable on
// purpose - provider format names are mapped onto them by the reconciler.
func seedFormats(tx *gorm.DB) {
	for _, f := range []Format{
		{ID: 1, Name: "CD", Slug: "cd"},
		{ID: 2, Name: "Vinyl", Slug: "vinyl"},
		{ID: 3, Name: "Cassette", Slug: "cassette"},
	} {
		tx.Where(Format{ID: f.ID}).FirstOrCreate(&f)
	}
}
