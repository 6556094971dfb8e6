package models

import "time"

// PasswordResetToken lets the owner of Email set a new password once, before ExpiresAt.
// Used tokens are kept for auditing.
type PasswordResetToken struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string     `json:"email" gorm:"index;type:varchar(255);not null"`
	Token     string     `json:"-" gorm:"uniqueIndex;type:varchar(64);not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	Used      bool       `json:"used" gorm:"not null;default:false"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether the token is past its expiry at now.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Usable reports whether the token can still be consumed at now.
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return !t.Used && !t.Expired(now)
}
