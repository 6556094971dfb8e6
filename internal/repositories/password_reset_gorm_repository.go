package repositories

import (
	"fmt"
	"time"

	"aralis/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMPasswordResetRepository is a GORM implementation of PasswordResetRepository.
type GORMPasswordResetRepository struct {
	db *gorm.DB
}

// NewGORMPasswordResetRepository creates a new instance of GORMPasswordResetRepository.
func NewGORMPasswordResetRepository(db *gorm.DB) *GORMPasswordResetRepository {
	return &GORMPasswordResetRepository{
		db: db,
	}
}

// Create persists a new reset token.
func (r *GORMPasswordResetRepository) Create(token *models.PasswordResetToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if err := r.db.Create(token).Error; err != nil {
		return fmt.Errorf("failed to create reset token: %w", translate(err))
	}
	return nil
}

// Replace deletes the tokens previously issued for token.Email and inserts token
// in one transaction. The owner's user row is locked first so concurrent issues
// for the same email run one after the other.
func (r *GORMPasswordResetRepository) Replace(token *models.PasswordResetToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var owners []models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("email = ?", token.Email).Find(&owners).Error; err != nil {
			return fmt.Errorf("failed to lock account %s: %w", token.Email, err)
		}
		if err := tx.Where("email = ?", token.Email).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete reset tokens for %s: %w", token.Email, err)
		}
		if err := tx.Create(token).Error; err != nil {
			return fmt.Errorf("failed to create reset token: %w", translate(err))
		}
		return nil
	})
}

// ListByEmail returns the tokens issued for email, newest first.
func (r *GORMPasswordResetRepository) ListByEmail(email string) ([]models.PasswordResetToken, error) {
	var tokens []models.PasswordResetToken
	if err := r.db.Where("email = ?", email).Order("created_at DESC").Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list reset tokens for %s: %w", email, err)
	}
	return tokens, nil
}

// FindUsable returns the token only if it is unused and not expired at now.
func (r *GORMPasswordResetRepository) FindUsable(token string, now time.Time) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	err := r.db.Where("token = ? AND used = ? AND expires_at > ?", token, false, now).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("usable reset token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find reset token: %w", err)
	}
	return &record, nil
}

// FindByToken returns the token regardless of its state.
func (r *GORMPasswordResetRepository) FindByToken(token string) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	if err := r.db.Where("token = ?", token).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("reset token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find reset token: %w", err)
	}
	return &record, nil
}

// Consume updates the password and flags the token used in one transaction.
// The token update is conditional on used = false so two concurrent resets cannot both succeed.
func (r *GORMPasswordResetRepository) Consume(tokenID string, userID string, passwordHash string, usedAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND used = ?", tokenID, false).
			Updates(map[string]interface{}{"used": true, "used_at": usedAt})
		if res.Error != nil {
			return fmt.Errorf("failed to mark reset token used: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("reset token %s already consumed: %w", tokenID, ErrNotFound)
		}

		res = tx.Model(&models.User{}).Where("id = ?", userID).Update("password", passwordHash)
		if res.Error != nil {
			return fmt.Errorf("failed to update password for user %s: %w", userID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user with ID %s not found for password update: %w", userID, ErrNotFound)
		}
		return nil
	})
}
