package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoomLike records that a user likes a room. At most one row per
// (room, user); liking twice is a no-op, disliking removes the row.
type RoomLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID    uuid.UUID `gorm:"type:uuid;not null;index" json:"room_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (l *RoomLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
