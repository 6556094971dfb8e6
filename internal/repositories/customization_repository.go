package repositories

import "aralis/internal/models"

// CustomizationRepository defines the interface for garment customization leads.
type CustomizationRepository interface {
	Create(request *models.CustomizationRequest) error
	// GetAll returns requests newest first; an empty status matches every request.
	GetAll(status models.CustomizationStatus) ([]models.CustomizationRequest, error)
	GetByID(id string) (*models.CustomizationRequest, error)
	UpdateStatus(id string, status models.CustomizationStatus) error
}
