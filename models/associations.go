package models

import (
	"time"
)

// DrugTarget ist die m:n-Kante zwischen Drug und Target.
// Eindeutigkeit über das Paar (drug_id, target_id).
type DrugTarget struct {
	DrugID    uint      `json:"drug_id" gorm:"primaryKey;index:idx_drug_targets_unique_edge,unique"`
	TargetID  uint      `json:"target_id" gorm:"primaryKey;index:idx_drug_targets_unique_edge,unique"`
	CreatedAt time.Time `json:"created_at"`

	RelationshipType string  `json:"relationship_type,omitempty"` // z.B. "inhibits", "binds"
	Confidence       float64 `json:"confidence"`
}

func (DrugTarget) TableName() string { return "drug_targets" }

// DrugIndication ist die m:n-Kante zwischen Drug und Indication.
type DrugIndication struct {
	DrugID       uint      `json:"drug_id" gorm:"primaryKey;index:idx_drug_indications_unique_edge,unique"`
	IndicationID uint      `json:"indication_id" gorm:"primaryKey;index:idx_drug_indications_unique_edge,unique"`
	CreatedAt    time.Time `json:"created_at"`

	ApprovalStatus string  `json:"approval_status,omitempty"` // z.B. "approved", "investigational"
	Confidence     float64 `json:"confidence"`
}

func (DrugIndication) TableName() string { return "drug_indications" }

// DrugTrial verknüpft ein Medikament mit einer klinischen Studie.
// Entsteht im zweiten Pass über die im Text gefundenen NCT-Codes.
type DrugTrial struct {
	DrugID          uint      `json:"drug_id" gorm:"primaryKey;index:idx_drug_trials_unique_edge,unique"`
	ClinicalTrialID uint      `json:"clinical_trial_id" gorm:"primaryKey;index:idx_drug_trials_unique_edge,unique"`
	CreatedAt       time.Time `json:"created_at"`
}

func (DrugTrial) TableName() string { return "drug_trials" }
