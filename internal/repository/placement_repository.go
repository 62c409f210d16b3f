package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"warehouse-service/internal/models"
)

// PlacementRepository defines persistence operations for item placements.
type PlacementRepository interface {
	ListByRoom(roomID uuid.UUID) ([]models.Placement, error)
	GetByRoomAndItem(roomID, itemID uuid.UUID) (*models.Placement, error)
	Create(p *models.Placement) error
	Update(p *models.Placement) error
	DeleteByRoomExcept(roomID uuid.UUID, keepItemIDs []uuid.UUID) error
	DeleteByItem(itemID uuid.UUID) error
}

// PlacementRepositoryImpl provides methods to interact with the item_room table.
type PlacementRepositoryImpl struct {
	db *gorm.DB
}

// NewPlacementRepository creates a new PlacementRepositoryImpl with the provided GORM database connection.
func NewPlacementRepository(db *gorm.DB) *PlacementRepositoryImpl {
	return &PlacementRepositoryImpl{db: db}
}

// ListByRoom retrieves all placements of a room.
func (r *PlacementRepositoryImpl) ListByRoom(roomID uuid.UUID) ([]models.Placement, error) {
	var placements []models.Placement
	err := r.db.Where("room_id = ?", roomID).Order("created_at").Find(&placements).Error
	return placements, err
}

// GetByRoomAndItem retrieves the placement row for one (room, item) pair.
func (r *PlacementRepositoryImpl) GetByRoomAndItem(roomID, itemID uuid.UUID) (*models.Placement, error) {
	var p models.Placement
	err := r.db.First(&p, "room_id = ? AND item_id = ?", roomID, itemID).Error
	return &p, err
}

// Create inserts a new placement row.
func (r *PlacementRepositoryImpl) Create(p *models.Placement) error {
	return r.db.Create(p).Error
}

// Update saves an existing placement row.
func (r *PlacementRepositoryImpl) Update(p *models.Placement) error {
	return r.db.Save(p).Error
}

// DeleteByRoomExcept removes every placement of the room whose item id is
// not in keepItemIDs. An empty keep list clears the room.
func (r *PlacementRepositoryImpl) DeleteByRoomExcept(roomID uuid.UUID, keepItemIDs []uuid.UUID) error {
	q := r.db.Where("room_id = ?", roomID)
	if len(keepItemIDs) > 0 {
		q = q.Where("item_id NOT IN ?", keepItemIDs)
	}
	return q.Delete(&models.Placement{}).Error
}

// DeleteByItem removes every placement referencing the item, across rooms.
func (r *PlacementRepositoryImpl) DeleteByItem(itemID uuid.UUID) error {
	return r.db.Delete(&models.Placement{}, "item_id = ?", itemID).Error
}
