package models

import (
	"time"
)

// ClinicalTrial repräsentiert eine registrierte klinische Studie.
// Identität ist die NCT-ID (NCT + 8 Ziffern), unabhängig davon, in wie
// vielen Dokumenten sie erwähnt wird.
type ClinicalTrial struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	NCTID  string `json:"nct_id" gorm:"column:nct_id;uniqueIndex;size:16;not null"`
	Title  string `json:"title,omitempty" gorm:"type:text"`
	Status string `json:"status,omitempty" gorm:"index"`
	Phase  string `json:"phase,omitempty"`

	SponsorID *uint `json:"sponsor_id,omitempty" gorm:"index"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (ClinicalTrial) TableName() string {
	return "clinical_trials"
}
