package repositories

import (
	"fmt"

	"aralis/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCustomizationRepository is a GORM implementation of CustomizationRepository.
type GORMCustomizationRepository struct {
	db *gorm.DB
}

// NewGORMCustomizationRepository creates a new instance of GORMCustomizationRepository.
func NewGORMCustomizationRepository(db *gorm.DB) *GORMCustomizationRepository {
	return &GORMCustomizationRepository{db: db}
}

func (r *GORMCustomizationRepository) Create(request *models.CustomizationRequest) error {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if err := r.db.Create(request).Error; err != nil {
		return fmt.Errorf("failed to create customization request: %w", err)
	}
	return nil
}

func (r *GORMCustomizationRepository) GetAll(status models.CustomizationStatus) ([]models.CustomizationRequest, error) {
	var requests []models.CustomizationRequest
	query := r.db.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to get customization requests: %w", err)
	}
	return requests, nil
}

func (r *GORMCustomizationRepository) GetByID(id string) (*models.CustomizationRequest, error) {
	var request models.CustomizationRequest
	if err := r.db.First(&request, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("customization request %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get customization request %s: %w", id, err)
	}
	return &request, nil
}

func (r *GORMCustomizationRepository) UpdateStatus(id string, status models.CustomizationStatus) error {
	res := r.db.Model(&models.CustomizationRequest{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update customization request %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("customization request %s not found for status update: %w", id, ErrNotFound)
	}
	return nil
}
