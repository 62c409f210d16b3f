package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Room is a user's personal scene container. Creation is idempotent per
// user: the create path returns the existing room when one is present.
type Room struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Name         string    `gorm:"not null" json:"name"`
	Thumbnail    string    `json:"thumbnail"`
	ThumbnailURL string    `json:"thumbnail_url"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Placements []Placement   `json:"placements,omitempty" gorm:"foreignKey:RoomID"`
	Comments   []RoomComment `json:"comments,omitempty" gorm:"foreignKey:RoomID"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
