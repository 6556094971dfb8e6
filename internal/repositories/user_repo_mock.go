package repositories

import (
	"fmt"
	"sync"
	"time"

	"aralis/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user, rejecting an email that is already registered.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(user.Email, "") {
		return fmt.Errorf("failed to create user: %w", ErrDuplicate)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MockUserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user with email %s not found: %w", email, ErrNotFound)
}

// GetByID returns a user by ID.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s not found: %w", id, ErrNotFound)
	}
	return &user, nil
}

// UpdateProfile stores the name, email and phone of user.
func (r *MockUserRepository) UpdateProfile(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, ErrNotFound)
	}
	if r.emailTaken(user.Email, user.ID) {
		return fmt.Errorf("failed to update user %s: %w", user.ID, ErrDuplicate)
	}
	existing.Name = user.Name
	existing.Email = user.Email
	existing.Phone = user.Phone
	existing.UpdatedAt = time.Now()
	r.users[user.ID] = existing
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *MockUserRepository) UpdatePassword(id string, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.setPassword(id, passwordHash)
}

// setPassword expects r.mu to be held.
func (r *MockUserRepository) setPassword(id string, passwordHash string) error {
	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user with ID %s not found for password update: %w", id, ErrNotFound)
	}
	user.Password = passwordHash
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

// UpdateRole sets the role of an existing user.
func (r *MockUserRepository) UpdateRole(id string, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user with ID %s not found for role update: %w", id, ErrNotFound)
	}
	user.Role = role
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}
