package models

type Shelf struct {
	ID          uint64 `gorm:"primaryKey"`
	CreatedAt   int64
	UpdatedAt   int64
	Location    string `gorm:"type:varchar(100);not null"`
	Slug        string `gorm:"type:varchar(120);index:uniq_shelf_slug,unique;not null"`
	Description string `gorm:"type:text"`
}
