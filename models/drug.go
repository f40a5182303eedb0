package models

import (
	"encoding/json"
	"time"
)

// Drug repräsentiert einen Wirkstoff aus der Pipeline eines Unternehmens.
// Identität ist der normalisierte (getrimmte, kleingeschriebene) Generic Name.
type Drug struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GenericName       string     `json:"generic_name" gorm:"index;not null"`
	BrandName         string     `json:"brand_name,omitempty"`
	DrugClass         string     `json:"drug_class,omitempty"`
	MechanismOfAction string     `json:"mechanism_of_action,omitempty" gorm:"type:text"`
	FDAApprovalStatus bool       `json:"fda_approval_status"`
	FDAApprovalDate   *time.Time `json:"fda_approval_date,omitempty"`

	CompanyID uint `json:"company_id" gorm:"index"`

	// NCT-Codes wie im Quelltext gefunden; die Verknüpfung zu clinical_trials
	// erfolgt erst im zweiten Pass.
	NCTCodesRaw []byte `json:"-" gorm:"column:nct_codes;type:jsonb"`

	OverallConfidence float64 `json:"overall_confidence"`

	Targets     []Target        `json:"targets,omitempty" gorm:"many2many:drug_targets;"`
	Indications []Indication    `json:"indications,omitempty" gorm:"many2many:drug_indications;"`
	Trials      []ClinicalTrial `json:"trials,omitempty" gorm:"many2many:drug_trials;"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Drug) TableName() string {
	return "drugs"
}

// NCTCodes dekodiert die gespeicherten Trial-Codes.
func (d *Drug) NCTCodes() []string {
	if len(d.NCTCodesRaw) == 0 {
		return nil
	}
	var codes []string
	if err := json.Unmarshal(d.NCTCodesRaw, &codes); err != nil {
		return nil
	}
	return codes
}

// SetNCTCodes kodiert die Trial-Codes für die Persistenz.
func (d *Drug) SetNCTCodes(codes []string) {
	if len(codes) == 0 {
		d.NCTCodesRaw = nil
		return
	}
	raw, err := json.Marshal(codes)
	if err != nil {
		return
	}
	d.NCTCodesRaw = raw
}
