package services

import (
	"fmt"
	"time"

	"biopartner-insights/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ValidationResult ist das Signal einer einzelnen Validierungsquelle
// für ein Medikament.
type ValidationResult struct {
	Source           string    `json:"source"`
	ConfidenceScore  float64   `json:"confidence_score"`
	ValidationStatus string    `json:"validation_status"` // "validated", "partial", "not_available"
	Details          string    `json:"details,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Gewichte pro Validierungsquelle. Unbekannte Quellen zählen kaum.
var sourceWeights = map[string]float64{
	"fda": 1.0,
}

const unknownSourceWeight = 0.1

// ConfidenceService berechnet die Gesamt-Konfidenz pro Medikament aus
// den Quellsignalen plus Richness-Bonus der Target-/Indikations-Kanten.
type ConfidenceService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewConfidenceService erstellt den Konfidenz-Service.
func NewConfidenceService(db *gorm.DB, logger *zap.Logger) *ConfidenceService {
	return &ConfidenceService{DB: db, Logger: logger}
}

// ValidateDrug sammelt die Quellsignale für ein Medikament. Aktuell ist
// nur die FDA-Quelle aktiv; die übrigen liefern deterministische
// "not available"-Stubs, damit die Aggregat-Form stabil bleibt.
func (cs *ConfidenceService) ValidateDrug(drug *models.Drug) []ValidationResult {
	now := time.Now().UTC()
	results := []ValidationResult{cs.validateFDA(drug, now)}
	for _, source := range []string{"clinical_trials", "drugs_com"} {
		results = append(results, ValidationResult{
			Source:           source,
			ConfidenceScore:  0,
			ValidationStatus: "not_available",
			Details:          "source not configured",
			Timestamp:        now,
		})
	}
	return results
}

// validateFDA bewertet, wie vollständig die FDA-Felder belegt sind.
func (cs *ConfidenceService) validateFDA(drug *models.Drug, now time.Time) ValidationResult {
	result := ValidationResult{Source: "fda", Timestamp: now}
	switch {
	case drug.FDAApprovalStatus && drug.FDAApprovalDate != nil:
		result.ConfidenceScore = 0.9
		result.ValidationStatus = "validated"
		result.Details = "approval status and date present"
	case drug.FDAApprovalStatus:
		result.ConfidenceScore = 0.7
		result.ValidationStatus = "partial"
		result.Details = "approval status without date"
	default:
		result.ConfidenceScore = 0.5
		result.ValidationStatus = "partial"
		result.Details = "no FDA approval recorded"
	}
	return result
}

// AggregateConfidence kombiniert Quellsignale und Kanten-Konfidenzen:
// gewichteter Durchschnitt der Quellen, bis zu +0.1 für die mittlere
// Target-Konfidenz, bis zu +0.1 für die mittlere Indikations-Konfidenz,
// geklemmt auf [0, 1].
func AggregateConfidence(results []ValidationResult, targetConfs, indicationConfs []float64) float64 {
	var weightedSum, totalWeight float64
	for _, r := range results {
		if r.ValidationStatus == "not_available" {
			continue
		}
		w, ok := sourceWeights[r.Source]
		if !ok {
			w = unknownSourceWeight
		}
		weightedSum += w * r.ConfidenceScore
		totalWeight += w
	}
	score := 0.0
	if totalWeight > 0 {
		score = weightedSum / totalWeight
	}
	score += 0.1 * average(targetConfs)
	score += 0.1 * average(indicationConfs)

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Run berechnet und persistiert die Gesamt-Konfidenz aller Medikamente.
func (cs *ConfidenceService) Run() (int, error) {
	var drugs []models.Drug
	if err := cs.DB.Order("id").Find(&drugs).Error; err != nil {
		return 0, fmt.Errorf("drugs laden: %w", err)
	}

	updated := 0
	for i := range drugs {
		drug := &drugs[i]
		var targetEdges []models.DrugTarget
		if err := cs.DB.Where("drug_id = ?", drug.ID).Find(&targetEdges).Error; err != nil {
			return updated, err
		}
		var indicationEdges []models.DrugIndication
		if err := cs.DB.Where("drug_id = ?", drug.ID).Find(&indicationEdges).Error; err != nil {
			return updated, err
		}

		targetConfs := make([]float64, 0, len(targetEdges))
		for _, e := range targetEdges {
			targetConfs = append(targetConfs, e.Confidence)
		}
		indicationConfs := make([]float64, 0, len(indicationEdges))
		for _, e := range indicationEdges {
			indicationConfs = append(indicationConfs, e.Confidence)
		}

		overall := AggregateConfidence(cs.ValidateDrug(drug), targetConfs, indicationConfs)
		if overall == drug.OverallConfidence {
			continue
		}
		if err := cs.DB.Model(drug).Update("overall_confidence", overall).Error; err != nil {
			return updated, err
		}
		updated++
	}

	cs.Logger.Info("Konfidenz-Aggregation abgeschlossen",
		zap.Int("drugs", len(drugs)), zap.Int("updated", updated))
	return updated, nil
}
