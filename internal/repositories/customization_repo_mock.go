package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"aralis/internal/models"

	"github.com/google/uuid"
)

// MockCustomizationRepository is an in-memory implementation of CustomizationRepository.
type MockCustomizationRepository struct {
	requests map[string]models.CustomizationRequest
	mu       sync.RWMutex
}

// NewMockCustomizationRepository creates a new instance of MockCustomizationRepository.
func NewMockCustomizationRepository() *MockCustomizationRepository {
	return &MockCustomizationRepository{
		requests: make(map[string]models.CustomizationRequest),
	}
}

func (r *MockCustomizationRepository) Create(request *models.CustomizationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	now := time.Now()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	r.requests[request.ID] = *request
	return nil
}

func (r *MockCustomizationRepository) GetAll(status models.CustomizationStatus) ([]models.CustomizationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.CustomizationRequest, 0, len(r.requests))
	for _, req := range r.requests {
		if status == "" || req.Status == status {
			list = append(list, req)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (r *MockCustomizationRepository) GetByID(id string) (*models.CustomizationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, fmt.Errorf("customization request %s not found: %w", id, ErrNotFound)
	}
	return &req, nil
}

func (r *MockCustomizationRepository) UpdateStatus(id string, status models.CustomizationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return fmt.Errorf("customization request %s not found for status update: %w", id, ErrNotFound)
	}
	req.Status = status
	req.UpdatedAt = time.Now()
	r.requests[id] = req
	return nil
}
