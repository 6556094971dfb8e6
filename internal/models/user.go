package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a customer or administrator account.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100)"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Phone     string    `json:"phone" gorm:"type:varchar(30)"`
	Password  string    `json:"-" gorm:"type:varchar(255)"` // bcrypt hash
	Role      string    `json:"role" gorm:"type:varchar(10);default:user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the account may use the admin panel.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
