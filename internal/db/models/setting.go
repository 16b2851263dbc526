package models

import "time"

// Setting is a single durable key/value pair (generator state lives here)
type Setting struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
