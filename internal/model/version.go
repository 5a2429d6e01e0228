package model

import "time"

// Version is one entry of the app release history. At most one row has
// IsCurrent set.
type Version struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Version      string    `gorm:"size:50;not null" json:"version"`
	ReleaseNotes *string   `gorm:"type:text" json:"releaseNotes"`
	ReleasedAt   time.Time `gorm:"not null" json:"releasedAt"`
	IsCurrent    bool      `gorm:"not null;index" json:"isCurrent"`
}
