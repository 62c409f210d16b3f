package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NoParent is the ParentIndex sentinel for a placement with no scene-graph
// parent. 0 is a valid index, so the sentinel is -1.
const NoParent = -1

// Placement binds one Item into one Room with a rigid-body transform.
// Reconciliation keeps at most one row per (room, item) pair.
//
// No column carries a SQL default. Zero is a valid value for every
// transform component and for ParentIndex, so defaults would silently
// replace legitimate zeros on insert.
type Placement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID    uuid.UUID `gorm:"type:uuid;not null;index" json:"room_id"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Position Vector3    `json:"position" gorm:"embedded;embeddedPrefix:pos_"`
	Rotation Quaternion `json:"rotation" gorm:"embedded;embeddedPrefix:rot_"`
	Scale    Vector3    `json:"scaling" gorm:"embedded;embeddedPrefix:scale_"`

	ParentIndex int `json:"parent_index"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

// TableName keeps the historical join-table name.
func (Placement) TableName() string {
	return "item_room"
}

func (p *Placement) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Vector3 struct {
	X float64 `json:"x" gorm:"type:decimal(12,6)"`
	Y float64 `json:"y" gorm:"type:decimal(12,6)"`
	Z float64 `json:"z" gorm:"type:decimal(12,6)"`
}

// Quaternion components are stored as submitted; unit length is not
// enforced, callers own the physical validity of transforms.
type Quaternion struct {
	X float64 `json:"x" gorm:"type:decimal(12,6)"`
	Y float64 `json:"y" gorm:"type:decimal(12,6)"`
	Z float64 `json:"z" gorm:"type:decimal(12,6)"`
	W float64 `json:"w" gorm:"type:decimal(12,6)"`
}
