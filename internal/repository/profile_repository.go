package repository

import (
	"gorm.io/gorm"

	"warehouse-service/internal/models"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	GetByUser(userID uint) (*models.Profile, error)
	Save(p *models.Profile) error
	SearchByDisplayName(query string) ([]models.Profile, error)
}

// ProfileRepositoryImpl provides methods to interact with the Profile model in the database.
type ProfileRepositoryImpl struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepositoryImpl with the provided GORM database connection.
func NewProfileRepository(db *gorm.DB) *ProfileRepositoryImpl {
	return &ProfileRepositoryImpl{db: db}
}

// GetByUser retrieves the Profile for the given user id.
func (r *ProfileRepositoryImpl) GetByUser(userID uint) (*models.Profile, error) {
	var p models.Profile
	err := r.db.First(&p, "user_id = ?", userID).Error
	return &p, err
}

// Save creates or updates a Profile row.
func (r *ProfileRepositoryImpl) Save(p *models.Profile) error {
	return r.db.Save(p).Error
}

// SearchByDisplayName finds profiles whose display name contains query.
func (r *ProfileRepositoryImpl) SearchByDisplayName(query string) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.Where("display_name LIKE ?", "%"+query+"%").Find(&profiles).Error
	return profiles, err
}
