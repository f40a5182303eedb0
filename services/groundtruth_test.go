package services

import (
	"strings"
	"testing"
	"time"

	"biopartner-insights/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCompareNameSets(t *testing.T) {
	gt := []string{"Pembrolizumab", "Nivolumab", "Atezolizumab"}
	pipe := []string{"pembrolizumab", "nivolumab", "Ipilimumab"}

	m := CompareNameSets(gt, pipe)
	assert.Equal(t, 2, m.MatchCount)
	assert.InDelta(t, 2.0/3.0, m.Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, m.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, m.F1, 1e-9)
	assert.Equal(t, []string{"atezolizumab"}, m.MissingFromPipeline)
	assert.Equal(t, []string{"ipilimumab"}, m.ExtraInPipeline)
}

func TestCompareNameSetsEmpty(t *testing.T) {
	m := CompareNameSets(nil, nil)
	assert.Zero(t, m.Precision)
	assert.Zero(t, m.Recall)
	assert.Zero(t, m.F1)

	// Normalisierung macht Duplikate und Whitespace unschädlich.
	m = CompareNameSets([]string{"Pembrolizumab", " pembrolizumab "}, []string{"PEMBROLIZUMAB"})
	assert.Equal(t, 1, m.GroundTruthCount)
	assert.InDelta(t, 1.0, m.F1, 1e-9)
}

func TestCompareMechanisms(t *testing.T) {
	gt := map[string]string{
		"pembrolizumab": "PD-1 receptor antagonist",
		"nivolumab":     "PD-1 blocking antibody",
		"ruxolitinib":   "JAK1/JAK2 inhibitor",
		"sotatercept":   "activin receptor ligand trap",
	}
	pipe := map[string]string{
		"pembrolizumab": "pd-1 receptor antagonist",     // exakt nach case-folding
		"nivolumab":     "binds the PD-1 blocking site", // "blocking" > 3 Zeichen → partiell
		"ruxolitinib":   "unknown",                      // Mismatch
		// sotatercept fehlt in der Pipeline → zählt nicht
	}

	m := CompareMechanisms(gt, pipe)
	assert.Equal(t, 3, m.TotalCommon)
	assert.Equal(t, 1, m.ExactMatches)
	assert.Equal(t, 1, m.PartialMatches)
	assert.Equal(t, 1, m.Mismatches)
	assert.InDelta(t, (1.0+0.5)/3.0, m.Accuracy, 1e-9)
	require.Len(t, m.MismatchDetails, 1)
	assert.Contains(t, m.MismatchDetails[0], "ruxolitinib")
}

func TestCompareTrialCounts(t *testing.T) {
	gt := map[string]int{"pembrolizumab": 4, "nivolumab": 2, "sotatercept": 1}
	pipe := map[string]int{"pembrolizumab": 3, "nivolumab": 2}

	tc := CompareTrialCounts(gt, pipe)
	assert.Equal(t, 6, tc.GroundTruthTrials)
	assert.Equal(t, 5, tc.PipelineTrials)
	assert.InDelta(t, 5.0/6.0, tc.OverallCoverage, 1e-9)
	require.Len(t, tc.PerDrug, 2)
	assert.Equal(t, "nivolumab", tc.PerDrug[0].Drug)
	assert.InDelta(t, 0.75, tc.PerDrug[1].Coverage, 1e-9)
}

func TestCountTrialCell(t *testing.T) {
	assert.Equal(t, 3, countTrialCell("NCT01234567 | NCT07654321 | NCT09999999"))
	assert.Equal(t, 1, countTrialCell("NCT01234567"))
	assert.Equal(t, 2, countTrialCell("NCT01234567 || NCT07654321 |"))
	assert.Equal(t, 0, countTrialCell("   "))
	assert.Equal(t, 0, countTrialCell(""))
}

func TestApplyCompanyAlias(t *testing.T) {
	assert.Equal(t, "roche/genentech", applyCompanyAlias("Roche"))
	assert.Equal(t, "roche/genentech", applyCompanyAlias("genentech"))
	assert.Equal(t, "merck & co.", applyCompanyAlias("Merck"))
	assert.Equal(t, "Novartis", applyCompanyAlias("Novartis"))
}

func TestBuildSummaryThresholds(t *testing.T) {
	cfg := &config.Config{DrugF1Min: 0.8, CompanyF1Min: 0.9, MechanismAccMin: 0.7, TrialCoverageMin: 0.5}
	gv := NewGroundTruthValidator(cfg, nil, zap.NewNop())

	passed := gv.buildSummary(Validations{
		DrugNames:       SetMetrics{F1: 0.85},
		CompanyCoverage: SetMetrics{F1: 0.95},
		Mechanisms:      MechanismMetrics{Accuracy: 0.75},
		ClinicalTrials:  TrialCoverage{OverallCoverage: 0.6},
	})
	assert.Equal(t, "passed", passed.OverallStatus)
	assert.Empty(t, passed.Recommendations)

	failing := gv.buildSummary(Validations{
		DrugNames:       SetMetrics{F1: 0.5},
		CompanyCoverage: SetMetrics{F1: 0.95},
		Mechanisms:      MechanismMetrics{Accuracy: 0.2},
		ClinicalTrials:  TrialCoverage{OverallCoverage: 0.1},
	})
	assert.Equal(t, "needs_improvement", failing.OverallStatus)
	assert.Len(t, failing.Recommendations, 3)
	assert.InDelta(t, 0.5, failing.KeyMetrics["drug_name_f1"], 1e-9)
}

func TestRenderReport(t *testing.T) {
	report := &ValidationReport{
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Validations: Validations{
			DrugNames: SetMetrics{
				Precision: 2.0 / 3.0, Recall: 2.0 / 3.0, F1: 2.0 / 3.0,
				GroundTruthCount: 3, PipelineCount: 3, MatchCount: 2,
				MissingFromPipeline: []string{"atezolizumab"},
			},
		},
		Summary: ReportSummary{
			OverallStatus: "needs_improvement",
			KeyMetrics:    map[string]float64{"drug_name_f1": 2.0 / 3.0},
			Recommendations: []string{
				"Drug name F1 (0.67) below 0.80: improve drug name extraction patterns",
			},
		},
	}

	out := RenderReport(report)
	assert.Contains(t, out, "GROUND TRUTH VALIDATION REPORT")
	assert.Contains(t, out, "SUMMARY")
	assert.Contains(t, out, "KEY METRICS")
	assert.Contains(t, out, "DETAILED RESULTS")
	assert.Contains(t, out, "RECOMMENDATIONS")
	assert.Contains(t, out, "missing from pipeline: atezolizumab")
	assert.Contains(t, out, "Drug names: 2/3 matched")
	assert.True(t, strings.HasPrefix(out, strings.Repeat("=", 60)+"\n"))
}

func TestJoinLimited(t *testing.T) {
	assert.Equal(t, "a, b", joinLimited([]string{"a", "b"}, 5))
	assert.Equal(t, "a, b (and 2 more)", joinLimited([]string{"a", "b", "c", "d"}, 2))
}
