package models

import "time"

// CustomizationStatus tracks how far the shop has followed up on a lead.
type CustomizationStatus string

const (
	CustomizationStatusNew       CustomizationStatus = "new"
	CustomizationStatusContacted CustomizationStatus = "contacted"
	CustomizationStatusClosed    CustomizationStatus = "closed"
)

// Valid reports whether s is a known status.
func (s CustomizationStatus) Valid() bool {
	switch s {
	case CustomizationStatusNew, CustomizationStatusContacted, CustomizationStatusClosed:
		return true
	}
	return false
}

// CustomizationRequest is a lead from the "customize a garment" form.
type CustomizationRequest struct {
	ID           string              `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string              `json:"name" gorm:"type:varchar(100)"`
	Email        string              `json:"email" gorm:"index;type:varchar(255)"`
	Phone        string              `json:"phone" gorm:"type:varchar(30)"`
	GarmentType  string              `json:"garment_type" gorm:"type:varchar(50)"`
	Description  string              `json:"description" gorm:"type:text"`
	Size         string              `json:"size" gorm:"type:varchar(20)"`
	Colors       []string            `json:"colors" gorm:"serializer:json"`
	ReferenceURL string              `json:"reference_url" gorm:"type:varchar(500)"`
	Budget       string              `json:"budget" gorm:"type:varchar(50)"`
	Status       CustomizationStatus `json:"status" gorm:"index;type:varchar(20)"`
	CreatedAt    time.Time           `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time           `json:"updated_at"`
}
