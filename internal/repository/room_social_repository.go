package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"warehouse-service/internal/models"
)

// RoomSocialRepository defines persistence operations for comments and likes.
type RoomSocialRepository interface {
	CreateComment(c *models.RoomComment) error
	GetComment(id uuid.UUID) (*models.RoomComment, error)
	DeleteComment(id uuid.UUID) error
	GetLike(roomID uuid.UUID, userID uint) (*models.RoomLike, error)
	CreateLike(l *models.RoomLike) error
	DeleteLike(roomID uuid.UUID, userID uint) error
	CountLikes(roomID uuid.UUID) (int64, error)
}

// RoomSocialRepositoryImpl provides methods for room comments and likes.
type RoomSocialRepositoryImpl struct {
	db *gorm.DB
}

// NewRoomSocialRepository creates a new RoomSocialRepositoryImpl with the provided GORM database connection.
func NewRoomSocialRepository(db *gorm.DB) *RoomSocialRepositoryImpl {
	return &RoomSocialRepositoryImpl{db: db}
}

// CreateComment creates a new RoomComment in the database.
func (r *RoomSocialRepositoryImpl) CreateComment(c *models.RoomComment) error {
	return r.db.Create(c).Error
}

// GetComment retrieves a RoomComment by its ID.
func (r *RoomSocialRepositoryImpl) GetComment(id uuid.UUID) (*models.RoomComment, error) {
	var c models.RoomComment
	err := r.db.First(&c, "id = ?", id).Error
	return &c, err
}

// DeleteComment deletes a RoomComment by its ID.
func (r *RoomSocialRepositoryImpl) DeleteComment(id uuid.UUID) error {
	return r.db.Delete(&models.RoomComment{}, "id = ?", id).Error
}

// GetLike retrieves the like row for one (room, user) pair.
func (r *RoomSocialRepositoryImpl) GetLike(roomID uuid.UUID, userID uint) (*models.RoomLike, error) {
	var l models.RoomLike
	err := r.db.First(&l, "room_id = ? AND user_id = ?", roomID, userID).Error
	return &l, err
}

// CreateLike inserts a new like row.
func (r *RoomSocialRepositoryImpl) CreateLike(l *models.RoomLike) error {
	return r.db.Create(l).Error
}

// DeleteLike removes the like row for one (room, user) pair.
func (r *RoomSocialRepositoryImpl) DeleteLike(roomID uuid.UUID, userID uint) error {
	return r.db.Delete(&models.RoomLike{}, "room_id = ? AND user_id = ?", roomID, userID).Error
}

// CountLikes counts likes for a room.
func (r *RoomSocialRepositoryImpl) CountLikes(roomID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.Model(&models.RoomLike{}).Where("room_id = ?", roomID).Count(&n).Error
	return n, err
}
