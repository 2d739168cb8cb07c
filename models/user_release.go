package models

// UserRelease links a release to an owning user. The barcode is denormalized
// from the release so the database can enforce per-user barcode uniqueness:
// two concurrent scans of the same barcode may both pass the pipeline's
// conflict check, and this index is what makes the loser fail on insert.
// NULL barcodes never collide, so barcode-less releases are unlimited.
type UserRelease struct {
	UserID    uint64  `gorm:"primaryKey;index:uniq_user_barcode,unique,priority:1"`
	User      User    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ReleaseID uint64  `gorm:"primaryKey"`
	Release   Release `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Barcode   *string `gorm:"type:varchar(32);index:uniq_user_barcode,unique,priority:2"`
	CreatedAt int64
}

func (UserRelease) TableName() string { return "user_releases" }
