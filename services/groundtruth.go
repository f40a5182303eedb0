package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"biopartner-insights/config"
	"biopartner-insights/models"

	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GroundTruthRecord ist eine Zeile der kuratierten Referenztabelle.
type GroundTruthRecord struct {
	Company            string `json:"company"`
	GenericName        string `json:"generic_name"`
	BrandName          string `json:"brand_name,omitempty"`
	FDAApproval        string `json:"fda_approval,omitempty"`
	DrugClass          string `json:"drug_class,omitempty"`
	Target             string `json:"target,omitempty"`
	Mechanism          string `json:"mechanism,omitempty"`
	IndicationApproved string `json:"indication_approved,omitempty"`
	Trials             string `json:"current_clinical_trials,omitempty"` // "|"-getrennt
}

// Ground-Truth-Firmenname → Pipeline-Firmenname.
var companyAliases = map[string]string{
	"roche":     "roche/genentech",
	"genentech": "roche/genentech",
	"jnj":       "johnson & johnson",
	"merck":     "merck & co.",
	"gilead":    "gilead sciences",
	"regeneron": "regeneron pharmaceuticals",
	"astellas":  "astellas pharma",
	"daiichi":   "daiichi sankyo",
}

// LoadGroundTruth liest die Referenztabelle aus dem Spreadsheet.
// Ladefehler sind fatal: Metriken über Teil-Daten wären irreführend.
func LoadGroundTruth(path string) ([]GroundTruthRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ground truth öffnen: %w", err)
	}
	if len(f.Sheets) == 0 {
		return nil, fmt.Errorf("ground truth %s: keine sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) < 2 {
		return nil, fmt.Errorf("ground truth %s: keine datenzeilen", path)
	}

	col := map[string]int{}
	for i, cell := range sheet.Rows[0].Cells {
		col[strings.TrimSpace(cell.String())] = i
	}
	cellValue := func(row *xlsx.Row, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row.Cells) {
			return ""
		}
		return strings.TrimSpace(row.Cells[idx].String())
	}

	var records []GroundTruthRecord
	for _, row := range sheet.Rows[1:] {
		rec := GroundTruthRecord{
			Company:            cellValue(row, "Partner"),
			GenericName:        cellValue(row, "Generic name"),
			BrandName:          cellValue(row, "Brand name"),
			FDAApproval:        cellValue(row, "FDA Approval"),
			DrugClass:          cellValue(row, "Drug Class"),
			Target:             cellValue(row, "Target"),
			Mechanism:          cellValue(row, "Mechanism"),
			IndicationApproved: cellValue(row, "Indication Approved"),
			Trials:             cellValue(row, "Current Clinical Trials"),
		}
		if rec.GenericName == "" {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ground truth %s: keine verwertbaren zeilen", path)
	}
	return records, nil
}

// SetMetrics ist das Ergebnis eines Mengen-Vergleichs normalisierter Namen.
type SetMetrics struct {
	Precision           float64  `json:"precision"`
	Recall              float64  `json:"recall"`
	F1                  float64  `json:"f1_score"`
	GroundTruthCount    int      `json:"ground_truth_count"`
	PipelineCount       int      `json:"pipeline_count"`
	MatchCount          int      `json:"match_count"`
	MissingFromPipeline []string `json:"missing_from_pipeline,omitempty"`
	ExtraInPipeline     []string `json:"extra_in_pipeline,omitempty"`
}

// CompareNameSets berechnet Precision/Recall/F1 über normalisierte Namen.
func CompareNameSets(groundTruth, pipeline []string) SetMetrics {
	gtSet := normalizeSet(groundTruth)
	pipeSet := normalizeSet(pipeline)

	var matches, missing, extra []string
	for name := range gtSet {
		if pipeSet[name] {
			matches = append(matches, name)
		} else {
			missing = append(missing, name)
		}
	}
	for name := range pipeSet {
		if !gtSet[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)

	m := SetMetrics{
		GroundTruthCount:    len(gtSet),
		PipelineCount:       len(pipeSet),
		MatchCount:          len(matches),
		MissingFromPipeline: missing,
		ExtraInPipeline:     extra,
	}
	if m.PipelineCount > 0 {
		m.Precision = float64(m.MatchCount) / float64(m.PipelineCount)
	}
	if m.GroundTruthCount > 0 {
		m.Recall = float64(m.MatchCount) / float64(m.GroundTruthCount)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func normalizeSet(names []string) map[string]bool {
	set := map[string]bool{}
	for _, n := range names {
		key := NormalizeName(n)
		if key != "" {
			set[key] = true
		}
	}
	return set
}

// MechanismMetrics bewertet die Übereinstimmung der Wirkmechanismen für
// Medikamente, die in beiden Datensätzen vorkommen.
type MechanismMetrics struct {
	Accuracy        float64  `json:"accuracy"`
	ExactMatches    int      `json:"exact_matches"`
	PartialMatches  int      `json:"partial_matches"`
	Mismatches      int      `json:"mismatches"`
	TotalCommon     int      `json:"total_common"`
	MismatchDetails []string `json:"mismatch_details,omitempty"`
}

// CompareMechanisms vergleicht Mechanismus-Texte: exakt (1.0), partiell
// (0.5, ein Ground-Truth-Wort > 3 Zeichen als Substring) oder Mismatch.
func CompareMechanisms(groundTruth, pipeline map[string]string) MechanismMetrics {
	m := MechanismMetrics{}
	var commonKeys []string
	for key := range groundTruth {
		if _, ok := pipeline[key]; ok {
			commonKeys = append(commonKeys, key)
		}
	}
	sort.Strings(commonKeys)
	m.TotalCommon = len(commonKeys)

	for _, key := range commonKeys {
		gtMech := strings.ToLower(strings.TrimSpace(groundTruth[key]))
		pipeMech := strings.ToLower(strings.TrimSpace(pipeline[key]))
		switch {
		case gtMech != "" && gtMech == pipeMech:
			m.ExactMatches++
		case partialMechanismMatch(gtMech, pipeMech):
			m.PartialMatches++
		default:
			m.Mismatches++
			if len(m.MismatchDetails) < 10 {
				m.MismatchDetails = append(m.MismatchDetails,
					fmt.Sprintf("%s: expected %q, got %q", key, groundTruth[key], pipeline[key]))
			}
		}
	}
	if m.TotalCommon > 0 {
		m.Accuracy = (float64(m.ExactMatches) + 0.5*float64(m.PartialMatches)) / float64(m.TotalCommon)
	}
	return m
}

func partialMechanismMatch(gtMech, pipeMech string) bool {
	if gtMech == "" || pipeMech == "" {
		return false
	}
	for _, word := range strings.Fields(gtMech) {
		if len(word) > 3 && strings.Contains(pipeMech, word) {
			return true
		}
	}
	return false
}

// DrugTrialCoverage ist die Trial-Abdeckung eines Medikaments.
type DrugTrialCoverage struct {
	Drug        string  `json:"drug"`
	GroundTruth int     `json:"ground_truth_trials"`
	Pipeline    int     `json:"pipeline_trials"`
	Coverage    float64 `json:"coverage"`
}

// TrialCoverage aggregiert die Abdeckung über alle gemeinsamen Medikamente.
type TrialCoverage struct {
	OverallCoverage   float64             `json:"overall_coverage"`
	GroundTruthTrials int                 `json:"ground_truth_trials"`
	PipelineTrials    int                 `json:"pipeline_trials"`
	PerDrug           []DrugTrialCoverage `json:"per_drug,omitempty"`
}

// CompareTrialCounts vergleicht Trial-Zahlen pro gemeinsamem Medikament.
func CompareTrialCounts(groundTruth, pipeline map[string]int) TrialCoverage {
	var commonKeys []string
	for key := range groundTruth {
		if _, ok := pipeline[key]; ok {
			commonKeys = append(commonKeys, key)
		}
	}
	sort.Strings(commonKeys)

	tc := TrialCoverage{}
	for _, key := range commonKeys {
		gtCount := groundTruth[key]
		pipeCount := pipeline[key]
		coverage := 0.0
		if gtCount > 0 {
			coverage = float64(pipeCount) / float64(gtCount)
		}
		tc.GroundTruthTrials += gtCount
		tc.PipelineTrials += pipeCount
		tc.PerDrug = append(tc.PerDrug, DrugTrialCoverage{
			Drug: key, GroundTruth: gtCount, Pipeline: pipeCount, Coverage: coverage,
		})
	}
	if tc.GroundTruthTrials > 0 {
		tc.OverallCoverage = float64(tc.PipelineTrials) / float64(tc.GroundTruthTrials)
	}
	return tc
}

// Validations bündelt die vier unabhängigen Prüfungen.
type Validations struct {
	DrugNames       SetMetrics       `json:"drug_names"`
	CompanyCoverage SetMetrics       `json:"company_coverage"`
	Mechanisms      MechanismMetrics `json:"mechanisms"`
	ClinicalTrials  TrialCoverage    `json:"clinical_trials"`
}

// ReportSummary fasst die Kernzahlen und Empfehlungen zusammen.
type ReportSummary struct {
	OverallStatus   string             `json:"overall_status"`
	KeyMetrics      map[string]float64 `json:"key_metrics"`
	Recommendations []string           `json:"recommendations"`
}

// ValidationReport ist das maschinenlesbare Gesamtergebnis eines Laufs.
type ValidationReport struct {
	Timestamp   time.Time     `json:"timestamp"`
	Validations Validations   `json:"validations"`
	Summary     ReportSummary `json:"summary"`
}

// GroundTruthValidator vergleicht den persistierten Bestand mit der
// Referenztabelle und erzeugt JSON- und Text-Report.
type GroundTruthValidator struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewGroundTruthValidator erstellt den Validator.
func NewGroundTruthValidator(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *GroundTruthValidator {
	return &GroundTruthValidator{Config: cfg, DB: db, Logger: logger}
}

// RunFullValidation lädt beide Datensätze vollständig (fail fast) und
// rechnet alle vier Prüfungen unabhängig voneinander.
func (gv *GroundTruthValidator) RunFullValidation() (*ValidationReport, error) {
	records, err := LoadGroundTruth(gv.Config.GroundTruthPath)
	if err != nil {
		return nil, err
	}

	var drugs []models.Drug
	if err := gv.DB.Order("id").Find(&drugs).Error; err != nil {
		return nil, fmt.Errorf("pipeline-drugs laden: %w", err)
	}
	var companies []models.Company
	if err := gv.DB.Order("id").Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("pipeline-firmen laden: %w", err)
	}

	gtDrugNames := make([]string, 0, len(records))
	gtCompanyNames := make([]string, 0, len(records))
	gtMechanisms := map[string]string{}
	gtTrialCounts := map[string]int{}
	for _, rec := range records {
		gtDrugNames = append(gtDrugNames, rec.GenericName)
		if rec.Company != "" {
			gtCompanyNames = append(gtCompanyNames, applyCompanyAlias(rec.Company))
		}
		key := NormalizeName(rec.GenericName)
		if rec.Mechanism != "" {
			gtMechanisms[key] = rec.Mechanism
		}
		gtTrialCounts[key] = countTrialCell(rec.Trials)
	}

	pipeDrugNames := make([]string, 0, len(drugs))
	pipeMechanisms := map[string]string{}
	pipeTrialCounts := map[string]int{}
	for i := range drugs {
		pipeDrugNames = append(pipeDrugNames, drugs[i].GenericName)
		key := NormalizeName(drugs[i].GenericName)
		if drugs[i].MechanismOfAction != "" {
			pipeMechanisms[key] = drugs[i].MechanismOfAction
		}
		var linkCount int64
		if err := gv.DB.Model(&models.DrugTrial{}).Where("drug_id = ?", drugs[i].ID).Count(&linkCount).Error; err != nil {
			return nil, fmt.Errorf("trial-links zählen: %w", err)
		}
		pipeTrialCounts[key] = int(linkCount)
	}
	pipeCompanyNames := make([]string, 0, len(companies))
	for _, c := range companies {
		pipeCompanyNames = append(pipeCompanyNames, c.Name)
	}

	report := &ValidationReport{
		Timestamp: time.Now().UTC(),
		Validations: Validations{
			DrugNames:       CompareNameSets(gtDrugNames, pipeDrugNames),
			CompanyCoverage: CompareNameSets(gtCompanyNames, pipeCompanyNames),
			Mechanisms:      CompareMechanisms(gtMechanisms, pipeMechanisms),
			ClinicalTrials:  CompareTrialCounts(gtTrialCounts, pipeTrialCounts),
		},
	}
	report.Summary = gv.buildSummary(report.Validations)

	gv.Logger.Info("Ground-Truth-Validierung abgeschlossen",
		zap.Float64("drug_f1", report.Validations.DrugNames.F1),
		zap.Float64("company_f1", report.Validations.CompanyCoverage.F1),
		zap.Float64("mechanism_accuracy", report.Validations.Mechanisms.Accuracy),
		zap.Float64("trial_coverage", report.Validations.ClinicalTrials.OverallCoverage))
	return report, nil
}

// applyCompanyAlias mappt Ground-Truth-Kurznamen auf Pipeline-Namen.
func applyCompanyAlias(name string) string {
	if mapped, ok := companyAliases[NormalizeName(name)]; ok {
		return mapped
	}
	return name
}

// countTrialCell zählt die "|"-getrennten Einträge einer Trials-Zelle.
func countTrialCell(cell string) int {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0
	}
	count := 0
	for _, part := range strings.Split(cell, "|") {
		if strings.TrimSpace(part) != "" {
			count++
		}
	}
	return count
}

// buildSummary leitet Kernzahlen und Schwellen-Empfehlungen ab.
func (gv *GroundTruthValidator) buildSummary(v Validations) ReportSummary {
	summary := ReportSummary{
		KeyMetrics: map[string]float64{
			"drug_name_f1":       v.DrugNames.F1,
			"company_f1":         v.CompanyCoverage.F1,
			"mechanism_accuracy": v.Mechanisms.Accuracy,
			"trial_coverage":     v.ClinicalTrials.OverallCoverage,
		},
	}
	if v.DrugNames.F1 < gv.Config.DrugF1Min {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("Drug name F1 (%.2f) below %.2f: improve drug name extraction patterns", v.DrugNames.F1, gv.Config.DrugF1Min))
	}
	if v.CompanyCoverage.F1 < gv.Config.CompanyF1Min {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("Company F1 (%.2f) below %.2f: extend the company keyword mapping", v.CompanyCoverage.F1, gv.Config.CompanyF1Min))
	}
	if v.Mechanisms.Accuracy < gv.Config.MechanismAccMin {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("Mechanism accuracy (%.2f) below %.2f: extract mechanism text from FDA labels", v.Mechanisms.Accuracy, gv.Config.MechanismAccMin))
	}
	if v.ClinicalTrials.OverallCoverage < gv.Config.TrialCoverageMin {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("Trial coverage (%.2f) below %.2f: widen the NCT code context window", v.ClinicalTrials.OverallCoverage, gv.Config.TrialCoverageMin))
	}
	if len(summary.Recommendations) == 0 {
		summary.OverallStatus = "passed"
	} else {
		summary.OverallStatus = "needs_improvement"
	}
	return summary
}

// SaveResults schreibt das JSON-Ergebnis in das Output-Verzeichnis und
// liefert den Dateipfad zurück.
func (gv *GroundTruthValidator) SaveResults(report *ValidationReport) (string, error) {
	if err := os.MkdirAll(gv.Config.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("output-verzeichnis: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(gv.Config.OutputDir,
		fmt.Sprintf("validation_results_%s.json", report.Timestamp.Format("2006-01-02T15-04-05Z")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// RenderReport rendert den Text-Report parallel zum JSON-Ergebnis.
func RenderReport(report *ValidationReport) string {
	var b strings.Builder
	line := strings.Repeat("=", 60)

	b.WriteString(line + "\n")
	b.WriteString("GROUND TRUTH VALIDATION REPORT\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", report.Timestamp.Format(time.RFC3339))

	b.WriteString("SUMMARY\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	fmt.Fprintf(&b, "Overall status: %s\n\n", report.Summary.OverallStatus)

	b.WriteString("KEY METRICS\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	metricNames := make([]string, 0, len(report.Summary.KeyMetrics))
	for name := range report.Summary.KeyMetrics {
		metricNames = append(metricNames, name)
	}
	sort.Strings(metricNames)
	for _, name := range metricNames {
		fmt.Fprintf(&b, "%-20s %.3f\n", name+":", report.Summary.KeyMetrics[name])
	}
	b.WriteString("\n")

	b.WriteString("DETAILED RESULTS\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	d := report.Validations.DrugNames
	fmt.Fprintf(&b, "Drug names: %d/%d matched (precision %.3f, recall %.3f, F1 %.3f)\n",
		d.MatchCount, d.GroundTruthCount, d.Precision, d.Recall, d.F1)
	if len(d.MissingFromPipeline) > 0 {
		fmt.Fprintf(&b, "  missing from pipeline: %s\n", joinLimited(d.MissingFromPipeline, 5))
	}
	c := report.Validations.CompanyCoverage
	fmt.Fprintf(&b, "Companies:  %d/%d matched (precision %.3f, recall %.3f, F1 %.3f)\n",
		c.MatchCount, c.GroundTruthCount, c.Precision, c.Recall, c.F1)
	m := report.Validations.Mechanisms
	fmt.Fprintf(&b, "Mechanisms: %d exact, %d partial, %d mismatched of %d common (accuracy %.3f)\n",
		m.ExactMatches, m.PartialMatches, m.Mismatches, m.TotalCommon, m.Accuracy)
	t := report.Validations.ClinicalTrials
	fmt.Fprintf(&b, "Trials:     %d pipeline vs %d ground truth (coverage %.3f)\n\n",
		t.PipelineTrials, t.GroundTruthTrials, t.OverallCoverage)

	b.WriteString("RECOMMENDATIONS\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	if len(report.Summary.Recommendations) == 0 {
		b.WriteString("All metrics within thresholds.\n")
	} else {
		for _, rec := range report.Summary.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}
	return b.String()
}

func joinLimited(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:limit], ", ") + fmt.Sprintf(" (and %d more)", len(items)-limit)
}
