package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoomComment is a visitor comment on a room. Only its author may delete it.
type RoomComment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID    uuid.UUID `gorm:"type:uuid;not null;index" json:"room_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Body      string    `gorm:"not null" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *RoomComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
