package model

import (
	"time"
)

// Video represents an uploaded gameplay video. The ObjectID doubles as the
// object storage key and as an unguessable capability token for file
// retrieval, so it is generated from two random UUIDs plus the original
// file extension.
type Video struct {
	ObjectID     string  `gorm:"primaryKey;size:100"`
	OrigFilename string  `gorm:"size:500;not null"`
	Owner        string  `gorm:"size:100;index;not null"`
	ExternalID   *string `gorm:"size:100"`
	Thumbnail    *string `gorm:"type:mediumtext"`
	Analysis     []byte  `gorm:"type:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Indexed reports whether the external video-AI service has finished
// indexing this video.
func (v *Video) Indexed() bool {
	return v.ExternalID != nil && *v.ExternalID != ""
}

// TableName returns the table name for Video
func (Video) TableName() string {
	return "videos"
}
