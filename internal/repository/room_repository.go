package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"warehouse-service/internal/models"
)

// RoomRepository defines persistence operations for rooms.
type RoomRepository interface {
	CreateRoom(room *models.Room) error
	GetRoom(id uuid.UUID) (*models.Room, error)
	FirstRoomByUser(userID uint) (*models.Room, error)
	ListRoomsByUser(userID uint) ([]models.Room, error)
	UpdateRoom(room *models.Room) error
	LoadRoomWithRelations(id uuid.UUID) (*models.Room, error)
}

// RoomRepositoryImpl provides methods to interact with the Room model in the database.
type RoomRepositoryImpl struct {
	db *gorm.DB
}

// NewRoomRepository creates a new RoomRepositoryImpl with the provided GORM database connection.
func NewRoomRepository(db *gorm.DB) *RoomRepositoryImpl {
	return &RoomRepositoryImpl{db: db}
}

// CreateRoom creates a new Room in the database.
func (r *RoomRepositoryImpl) CreateRoom(room *models.Room) error {
	return r.db.Create(room).Error
}

// GetRoom retrieves a Room by its ID from the database.
func (r *RoomRepositoryImpl) GetRoom(id uuid.UUID) (*models.Room, error) {
	var room models.Room
	err := r.db.First(&room, "id = ?", id).Error
	return &room, err
}

// FirstRoomByUser returns the user's room, or gorm.ErrRecordNotFound.
func (r *RoomRepositoryImpl) FirstRoomByUser(userID uint) (*models.Room, error) {
	var room models.Room
	err := r.db.First(&room, "user_id = ?", userID).Error
	return &room, err
}

// ListRoomsByUser retrieves all Rooms owned by the given user.
func (r *RoomRepositoryImpl) ListRoomsByUser(userID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.Where("user_id = ?", userID).Find(&rooms).Error
	return rooms, err
}

// UpdateRoom updates an existing Room in the database.
func (r *RoomRepositoryImpl) UpdateRoom(room *models.Room) error {
	return r.db.Save(room).Error
}

// LoadRoomWithRelations reads one room with its placements (and their
// items) and comments in explicit preloads. This is the single composed
// read path used by studio and mainstage views.
func (r *RoomRepositoryImpl) LoadRoomWithRelations(id uuid.UUID) (*models.Room, error) {
	var room models.Room
	err := r.db.
		Preload("Placements").
		Preload("Placements.Item").
		Preload("Comments").
		First(&room, "id = ?", id).Error
	return &room, err
}
