package models

type Format struct {
	ID   uint64 `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(50);index:uniq_format_name,unique;not null"`
	Slug string `gorm:"type:varchar(60);index:uniq_format_slug,unique;not null"`
}
