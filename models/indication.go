package models

import (
	"time"
)

// Indication repräsentiert eine Krankheitsindikation.
type Indication struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name           string `json:"name" gorm:"uniqueIndex;not null"`
	IndicationType string `json:"indication_type,omitempty"` // z.B. "oncology"
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Indication) TableName() string {
	return "indications"
}
