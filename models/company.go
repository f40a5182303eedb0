package models

import (
	"time"
)

// Company repräsentiert ein Pharma-/Biotech-Unternehmen.
type Company struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `json:"name" gorm:"uniqueIndex;not null"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty" gorm:"type:text"`

	Drugs []Drug `json:"drugs,omitempty" gorm:"foreignKey:CompanyID"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Company) TableName() string {
	return "companies"
}
