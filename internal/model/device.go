package model

import "time"

// Device is one installed client instance. The ID is generated by the client
// and stays stable across registrations.
type Device struct {
	ID                   string    `gorm:"primaryKey;size:255" json:"deviceId"`
	NotificationsEnabled bool      `gorm:"not null" json:"notificationsEnabled"`
	Subscription         *string   `gorm:"type:text" json:"subscription,omitempty"`
	UserAgent            string    `gorm:"type:text" json:"userAgent,omitempty"`
	LastSeen             time.Time `gorm:"not null" json:"lastSeen"`
	CreatedAt            time.Time `gorm:"not null" json:"createdAt"`
}

// HasSubscription reports whether a push subscription payload is stored.
func (d Device) HasSubscription() bool {
	return d.Subscription != nil && *d.Subscription != ""
}
