package model

import "time"

// AppSetting is a single key/value entry of shell-wide metadata.
type AppSetting struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// SettingIconURL holds the app icon shown by clients.
const SettingIconURL = "icon_url"
