package models

import (
	"time"

	"github.com/google/uuid"
)

// Item represents one stored 3D asset: a GLB primary file plus a thumbnail
// image, both living under the item's warehouse prefix in object storage.
type Item struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Name         string    `gorm:"not null" json:"name"`
	Memo         string    `json:"memo"`
	TotalSize    int64     `json:"totalsize"`
	Thumbnail    string    `json:"thumbnail"`
	Filename     string    `json:"filename"`
	FileURL      string    `json:"file_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
