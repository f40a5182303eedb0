package models

import (
	"time"
)

// Target repräsentiert ein molekulares Ziel (Gen, Protein, Enzym).
type Target struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name       string `json:"name" gorm:"uniqueIndex;not null"`
	TargetType string `json:"target_type,omitempty"` // z.B. "Gene/Protein", "Enzyme"
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Target) TableName() string {
	return "targets"
}
