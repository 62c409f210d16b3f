package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"warehouse-service/internal/models"
)

// ItemRepository defines persistence operations for items.
type ItemRepository interface {
	CreateItem(item *models.Item) error
	GetItem(id uuid.UUID) (*models.Item, error)
	ListItemsByUser(userID uint) ([]models.Item, error)
	UpdateItem(item *models.Item) error
	DeleteItem(id uuid.UUID) error
}

// ItemRepositoryImpl provides methods to interact with the Item model in the database.
type ItemRepositoryImpl struct {
	db *gorm.DB
}

// NewItemRepository creates a new ItemRepositoryImpl with the provided GORM database connection.
func NewItemRepository(db *gorm.DB) *ItemRepositoryImpl {
	return &ItemRepositoryImpl{db: db}
}

// CreateItem creates a new Item in the database.
func (r *ItemRepositoryImpl) CreateItem(item *models.Item) error {
	return r.db.Create(item).Error
}

// GetItem retrieves an Item by its ID from the database.
func (r *ItemRepositoryImpl) GetItem(id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.First(&item, "id = ?", id).Error
	return &item, err
}

// ListItemsByUser retrieves all Items owned by the given user.
func (r *ItemRepositoryImpl) ListItemsByUser(userID uint) ([]models.Item, error) {
	var items []models.Item
	err := r.db.Where("user_id = ?", userID).Order("created_at").Find(&items).Error
	return items, err
}

// UpdateItem updates an existing Item in the database.
func (r *ItemRepositoryImpl) UpdateItem(item *models.Item) error {
	return r.db.Save(item).Error
}

// DeleteItem deletes an Item by its ID from the database.
func (r *ItemRepositoryImpl) DeleteItem(id uuid.UUID) error {
	return r.db.Delete(&models.Item{}, "id = ?", id).Error
}
