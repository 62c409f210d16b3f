package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultThumbnail marks a profile whose avatar has never been customized.
const DefaultThumbnail = "default"

// Profile holds the display fields attached 1:1 to a user account.
type Profile struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	DisplayName  string    `json:"display_name"`
	Bio          string    `json:"bio"`
	BirthDate    string    `json:"birth_date"`
	Gender       string    `json:"gender"`
	Thumbnail    string    `json:"thumbnail"`
	ThumbnailURL string    `json:"thumbnail_url"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
