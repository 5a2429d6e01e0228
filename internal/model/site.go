package model

import "time"

// Site is a bookmarked web app shown in the shell.
type Site struct {
	ID      int64     `gorm:"primaryKey" json:"id"`
	URL     string    `gorm:"type:text;not null" json:"url"`
	Title   string    `gorm:"size:255;not null" json:"title"`
	Favicon *string   `gorm:"type:text" json:"favicon"`
	AddedAt time.Time `gorm:"not null" json:"addedAt"`
}
