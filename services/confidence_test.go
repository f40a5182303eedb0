package services

import (
	"testing"
	"time"

	"biopartner-insights/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateDrug(t *testing.T) {
	cs := NewConfidenceService(nil, zap.NewNop())
	date := time.Date(2014, 9, 4, 0, 0, 0, 0, time.UTC)
	drug := &models.Drug{GenericName: "Pembrolizumab", FDAApprovalStatus: true, FDAApprovalDate: &date}

	results := cs.ValidateDrug(drug)
	require.Len(t, results, 3)

	assert.Equal(t, "fda", results[0].Source)
	assert.Equal(t, "validated", results[0].ValidationStatus)
	assert.InDelta(t, 0.9, results[0].ConfidenceScore, 1e-9)

	for _, r := range results[1:] {
		assert.Equal(t, "not_available", r.ValidationStatus)
	}
}

func TestValidateFDAPartial(t *testing.T) {
	cs := NewConfidenceService(nil, zap.NewNop())

	noDate := cs.validateFDA(&models.Drug{FDAApprovalStatus: true}, time.Now())
	assert.Equal(t, "partial", noDate.ValidationStatus)
	assert.InDelta(t, 0.7, noDate.ConfidenceScore, 1e-9)

	unapproved := cs.validateFDA(&models.Drug{}, time.Now())
	assert.Equal(t, "partial", unapproved.ValidationStatus)
	assert.InDelta(t, 0.5, unapproved.ConfidenceScore, 1e-9)
}

func TestAggregateConfidence(t *testing.T) {
	fda := ValidationResult{Source: "fda", ConfidenceScore: 0.9, ValidationStatus: "validated"}
	stub := ValidationResult{Source: "drugs_com", ValidationStatus: "not_available"}

	// Nur FDA zählt, Stubs werden übersprungen.
	score := AggregateConfidence([]ValidationResult{fda, stub}, nil, nil)
	assert.InDelta(t, 0.9, score, 1e-9)

	// Richness-Bonus: +0.1 * Mittelwert je Kantentyp.
	score = AggregateConfidence([]ValidationResult{fda}, []float64{0.8, 0.6}, []float64{1.0})
	assert.InDelta(t, 0.9+0.1*0.7+0.1*1.0, score, 1e-9)
}

func TestAggregateConfidenceUnknownSourceWeight(t *testing.T) {
	fda := ValidationResult{Source: "fda", ConfidenceScore: 0.9, ValidationStatus: "validated"}
	other := ValidationResult{Source: "press_release", ConfidenceScore: 0.1, ValidationStatus: "partial"}

	// fda Gewicht 1.0, unbekannte Quelle 0.1.
	want := (1.0*0.9 + 0.1*0.1) / 1.1
	assert.InDelta(t, want, AggregateConfidence([]ValidationResult{fda, other}, nil, nil), 1e-9)
}

func TestAggregateConfidenceClamped(t *testing.T) {
	fda := ValidationResult{Source: "fda", ConfidenceScore: 0.95, ValidationStatus: "validated"}
	score := AggregateConfidence([]ValidationResult{fda}, []float64{1.0}, []float64{1.0})
	assert.LessOrEqual(t, score, 1.0)
	assert.InDelta(t, 1.0, score, 1e-9)

	// Ohne verwertbare Quelle bleibt nur der Bonus.
	none := AggregateConfidence(nil, []float64{0.5}, nil)
	assert.InDelta(t, 0.05, none, 1e-9)
	assert.GreaterOrEqual(t, none, 0.0)
}
