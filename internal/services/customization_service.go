package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aralis/internal/metrics"
	"aralis/internal/models"
	"aralis/internal/repositories"
	"aralis/pkg/errorbank"
)

// CustomizationInput is the "customize a garment" form.
type CustomizationInput struct {
	Name         string   `json:"name" validate:"required,min=2,max=100"`
	Email        string   `json:"email" validate:"required,email"`
	Phone        string   `json:"phone" validate:"omitempty,max=30"`
	GarmentType  string   `json:"garment_type" validate:"required,max=50"`
	Description  string   `json:"description" validate:"required,min=10,max=2000"`
	Size         string   `json:"size" validate:"omitempty,max=20"`
	Colors       []string `json:"colors" validate:"max=10,dive,required,max=30"`
	ReferenceURL string   `json:"reference_url" validate:"omitempty,url,max=500"`
	Budget       string   `json:"budget" validate:"omitempty,max=50"`
}

// CustomizationService stores customization leads and lets admins follow them up.
type CustomizationService struct {
	repo     repositories.CustomizationRepository
	notifier CustomizationNotifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewCustomizationService creates a new CustomizationService.
func NewCustomizationService(repo repositories.CustomizationRepository, notifier CustomizationNotifier, met *metrics.Metrics, logger *zap.Logger) *CustomizationService {
	return &CustomizationService{repo: repo, notifier: notifier, metrics: met, logger: logger}
}

// Submit stores a new lead and emails the customer and the shop.
func (s *CustomizationService) Submit(in CustomizationInput) (*models.CustomizationRequest, error) {
	req := &models.CustomizationRequest{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		GarmentType:  strings.TrimSpace(in.GarmentType),
		Description:  strings.TrimSpace(in.Description),
		Size:         strings.TrimSpace(in.Size),
		Colors:       in.Colors,
		ReferenceURL: strings.TrimSpace(in.ReferenceURL),
		Budget:       strings.TrimSpace(in.Budget),
		Status:       models.CustomizationStatusNew,
	}
	if err := s.repo.Create(req); err != nil {
		return nil, storeError(err, "", "")
	}
	s.metrics.CustomizationsReceived.Inc()
	s.logger.Info("customization request received", zap.String("id", req.ID), zap.String("garment_type", req.GarmentType))

	if err := s.notifier.CustomizationAck(req); err != nil {
		s.logger.Warn("customization acknowledgement not sent", zap.String("id", req.ID), zap.Error(err))
	}
	if err := s.notifier.CustomizationAlert(req); err != nil {
		s.logger.Warn("shop customization alert not sent", zap.String("id", req.ID), zap.Error(err))
	}
	return req, nil
}

// List returns leads with status, or every lead when status is empty.
func (s *CustomizationService) List(status models.CustomizationStatus) ([]models.CustomizationRequest, error) {
	if status != "" && !status.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("invalid customization status: %s", status))
	}
	list, err := s.repo.GetAll(status)
	if err != nil {
		return nil, storeError(err, "", "")
	}
	if list == nil {
		list = []models.CustomizationRequest{}
	}
	return list, nil
}

// UpdateStatus records how far the shop has followed up a lead.
func (s *CustomizationService) UpdateStatus(id string, status models.CustomizationStatus) (*models.CustomizationRequest, error) {
	if !status.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("invalid customization status: %s", status))
	}
	if err := s.repo.UpdateStatus(id, status); err != nil {
		return nil, storeError(err, "customization request not found", "")
	}
	req, err := s.repo.GetByID(id)
	if err != nil {
		return nil, storeError(err, "customization request not found", "")
	}
	return req, nil
}
