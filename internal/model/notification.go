package model

import "time"

// Notification is the history record of one broadcast. DeliveredCount is a
// snapshot taken when the broadcast finished and is never updated.
type Notification struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	SentAt         time.Time `gorm:"not null;index" json:"sentAt"`
	DeliveredCount int       `gorm:"not null" json:"deliveredCount"`
}
