package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"aralis/internal/models"

	"github.com/google/uuid"
)

// MockPasswordResetRepository is an in-memory implementation of PasswordResetRepository.
// It shares the user store so Consume can update both sides under one lock.
type MockPasswordResetRepository struct {
	tokens map[string]models.PasswordResetToken
	users  *MockUserRepository
	mu     sync.RWMutex
}

// NewMockPasswordResetRepository creates a new instance backed by users.
func NewMockPasswordResetRepository(users *MockUserRepository) *MockPasswordResetRepository {
	return &MockPasswordResetRepository{
		tokens: make(map[string]models.PasswordResetToken),
		users:  users,
	}
}

// Create persists a new reset token.
func (r *MockPasswordResetRepository) Create(token *models.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(token)
}

// Replace deletes every token previously issued for token.Email and stores token
// under one lock.
func (r *MockPasswordResetRepository) Replace(token *models.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.tokens {
		if t.Email == token.Email {
			delete(r.tokens, id)
		}
	}
	return r.insert(token)
}

// insert requires r.mu to be held.
func (r *MockPasswordResetRepository) insert(token *models.PasswordResetToken) error {
	for _, t := range r.tokens {
		if t.Token == token.Token {
			return fmt.Errorf("failed to create reset token: %w", ErrDuplicate)
		}
	}
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	r.tokens[token.ID] = *token
	return nil
}

// ListByEmail returns the tokens issued for email, newest first.
func (r *MockPasswordResetRepository) ListByEmail(email string) ([]models.PasswordResetToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tokens []models.PasswordResetToken
	for _, t := range r.tokens {
		if t.Email == email {
			tokens = append(tokens, t)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].CreatedAt.After(tokens[j].CreatedAt)
	})
	return tokens, nil
}

// FindUsable returns the token only if it is unused and not expired at now.
func (r *MockPasswordResetRepository) FindUsable(token string, now time.Time) (*models.PasswordResetToken, error) {
	record, err := r.FindByToken(token)
	if err != nil || !record.Usable(now) {
		return nil, fmt.Errorf("usable reset token not found: %w", ErrNotFound)
	}
	return record, nil
}

// FindByToken returns the token regardless of its state.
func (r *MockPasswordResetRepository) FindByToken(token string) (*models.PasswordResetToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tokens {
		if t.Token == token {
			record := t
			return &record, nil
		}
	}
	return nil, fmt.Errorf("reset token not found: %w", ErrNotFound)
}

// Consume updates the password and flags the token used; neither change is applied if either fails.
func (r *MockPasswordResetRepository) Consume(tokenID string, userID string, passwordHash string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.tokens[tokenID]
	if !ok || record.Used {
		return fmt.Errorf("reset token %s already consumed: %w", tokenID, ErrNotFound)
	}

	r.users.mu.Lock()
	err := r.users.setPassword(userID, passwordHash)
	r.users.mu.Unlock()
	if err != nil {
		return err
	}

	record.Used = true
	record.UsedAt = &usedAt
	r.tokens[tokenID] = record
	return nil
}
