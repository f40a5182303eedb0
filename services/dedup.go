package services

import (
	"fmt"
	"sort"
	"strings"

	"biopartner-insights/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MergeGroup beschreibt eine Gruppe von Drug-Duplikaten: die älteste
// Zeile überlebt als Primary, alle anderen werden hineingemergt.
type MergeGroup struct {
	PrimaryID    uint   `json:"primary_id"`
	PrimaryName  string `json:"primary_name"` // bereits title-cased
	DuplicateIDs []uint `json:"duplicate_ids"`
}

// PlanDrugMerges gruppiert Medikamente über den normalisierten Generic
// Name und bestimmt pro Gruppe Primary (kleinste ID) und Duplikate.
// Reine Funktion, damit der Merge-Plan testbar bleibt.
func PlanDrugMerges(drugs []models.Drug) []MergeGroup {
	grouped := map[string][]models.Drug{}
	for _, d := range drugs {
		key := NormalizeName(d.GenericName)
		grouped[key] = append(grouped[key], d)
	}

	var plans []MergeGroup
	for _, group := range grouped {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		plan := MergeGroup{
			PrimaryID:   group[0].ID,
			PrimaryName: titleCase(group[0].GenericName),
		}
		for _, dup := range group[1:] {
			plan.DuplicateIDs = append(plan.DuplicateIDs, dup.ID)
		}
		plans = append(plans, plan)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].PrimaryID < plans[j].PrimaryID })
	return plans
}

// TaskResult ist das Ergebnis eines Wartungs-Tasks.
type TaskResult struct {
	Task    string `json:"task"`
	Success bool   `json:"success"`
	Details string `json:"details"`
}

// MaintenanceService führt die Post-hoc-Bereinigung des Bestands aus:
// Duplikate mergen, Schreibweisen vereinheitlichen, Trials nachverknüpfen.
type MaintenanceService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewMaintenanceService erstellt den Wartungs-Service.
func NewMaintenanceService(db *gorm.DB, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{DB: db, Logger: logger}
}

// Run führt alle Wartungs-Tasks aus und sammelt deren Ergebnisse.
// Ein fehlgeschlagener Task stoppt die folgenden nicht. Liefert zusätzlich
// die Anzahl gemergter Duplikat-Gruppen.
func (ms *MaintenanceService) Run() ([]TaskResult, int) {
	var results []TaskResult

	merged, err := ms.DedupDrugs()
	results = append(results, taskResult("deduplicate_drugs", err,
		fmt.Sprintf("%d duplicate groups merged", merged)))

	fixed, err := ms.StandardizeCapitalization()
	results = append(results, taskResult("standardize_capitalization", err,
		fmt.Sprintf("%d names updated", fixed)))

	relinked, err := ms.RelinkTrials()
	results = append(results, taskResult("relink_trials", err,
		fmt.Sprintf("%d trial links created", relinked)))

	return results, merged
}

func taskResult(task string, err error, details string) TaskResult {
	if err != nil {
		return TaskResult{Task: task, Success: false, Details: err.Error()}
	}
	return TaskResult{Task: task, Success: true, Details: details}
}

// DedupDrugs mergt Duplikat-Gruppen in einer Transaktion: Kanten werden
// vereinigt auf den Primary übertragen, Duplikate gelöscht, der Primary
// title-cased. Liefert die Anzahl gemergter Gruppen.
func (ms *MaintenanceService) DedupDrugs() (int, error) {
	var drugs []models.Drug
	if err := ms.DB.Order("id").Find(&drugs).Error; err != nil {
		return 0, fmt.Errorf("drugs laden: %w", err)
	}
	plans := PlanDrugMerges(drugs)
	if len(plans) == 0 {
		return 0, nil
	}

	err := ms.DB.Transaction(func(tx *gorm.DB) error {
		for _, plan := range plans {
			for _, dupID := range plan.DuplicateIDs {
				if err := ms.mergeEdges(tx, plan.PrimaryID, dupID); err != nil {
					return err
				}
				if err := tx.Delete(&models.Drug{}, dupID).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(&models.Drug{}).Where("id = ?", plan.PrimaryID).
				Update("generic_name", plan.PrimaryName).Error; err != nil {
				return err
			}
			ms.Logger.Info("Duplikate gemergt",
				zap.String("drug", plan.PrimaryName),
				zap.Int("duplicates", len(plan.DuplicateIDs)))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(plans), nil
}

// mergeEdges überträgt alle Kanten eines Duplikats vereinigt auf den
// Primary. Bereits vorhandene Kanten bleiben unangetastet.
func (ms *MaintenanceService) mergeEdges(tx *gorm.DB, primaryID, dupID uint) error {
	var trialEdges []models.DrugTrial
	if err := tx.Where("drug_id = ?", dupID).Find(&trialEdges).Error; err != nil {
		return err
	}
	for _, e := range trialEdges {
		moved := models.DrugTrial{DrugID: primaryID, ClinicalTrialID: e.ClinicalTrialID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&moved).Error; err != nil {
			return err
		}
	}

	var targetEdges []models.DrugTarget
	if err := tx.Where("drug_id = ?", dupID).Find(&targetEdges).Error; err != nil {
		return err
	}
	for _, e := range targetEdges {
		moved := models.DrugTarget{
			DrugID: primaryID, TargetID: e.TargetID,
			RelationshipType: e.RelationshipType, Confidence: e.Confidence,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&moved).Error; err != nil {
			return err
		}
	}

	var indicationEdges []models.DrugIndication
	if err := tx.Where("drug_id = ?", dupID).Find(&indicationEdges).Error; err != nil {
		return err
	}
	for _, e := range indicationEdges {
		moved := models.DrugIndication{
			DrugID: primaryID, IndicationID: e.IndicationID,
			ApprovalStatus: e.ApprovalStatus, Confidence: e.Confidence,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&moved).Error; err != nil {
			return err
		}
	}

	// Kanten des Duplikats räumen, bevor die Zeile fällt.
	if err := tx.Where("drug_id = ?", dupID).Delete(&models.DrugTrial{}).Error; err != nil {
		return err
	}
	if err := tx.Where("drug_id = ?", dupID).Delete(&models.DrugTarget{}).Error; err != nil {
		return err
	}
	return tx.Where("drug_id = ?", dupID).Delete(&models.DrugIndication{}).Error
}

// StandardizeCapitalization title-cased alle verbliebenen Generic Names.
func (ms *MaintenanceService) StandardizeCapitalization() (int, error) {
	var drugs []models.Drug
	if err := ms.DB.Order("id").Find(&drugs).Error; err != nil {
		return 0, err
	}
	updated := 0
	for i := range drugs {
		want := titleCase(drugs[i].GenericName)
		if want == drugs[i].GenericName {
			continue
		}
		if err := ms.DB.Model(&drugs[i]).Update("generic_name", want).Error; err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// RelinkTrials verknüpft Drugs erneut über ihre gespeicherten NCT-Codes
// mit den persistierten Trials. Nach einem Merge können Codes auf dem
// Primary liegen, deren Kanten noch fehlen.
func (ms *MaintenanceService) RelinkTrials() (int, error) {
	var drugs []models.Drug
	if err := ms.DB.Order("id").Find(&drugs).Error; err != nil {
		return 0, err
	}
	linked := 0
	for i := range drugs {
		for _, code := range drugs[i].NCTCodes() {
			var trial models.ClinicalTrial
			err := ms.DB.Where("nct_id = ?", code).First(&trial).Error
			if err == gorm.ErrRecordNotFound {
				continue
			}
			if err != nil {
				return linked, err
			}
			edge := models.DrugTrial{DrugID: drugs[i].ID, ClinicalTrialID: trial.ID}
			res := ms.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
			if res.Error != nil {
				return linked, res.Error
			}
			if res.RowsAffected > 0 {
				linked++
			}
		}
	}
	return linked, nil
}

// CollectionSummary rendert die Bestandsübersicht pro Firma als Text.
func (ms *MaintenanceService) CollectionSummary() (string, error) {
	var companies []models.Company
	if err := ms.DB.Order("name").Find(&companies).Error; err != nil {
		return "", err
	}
	var trialCount int64
	if err := ms.DB.Model(&models.ClinicalTrial{}).Count(&trialCount).Error; err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Drug Collection Summary\n")
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	totalDrugs := 0
	perCompany := make([]string, 0, len(companies))
	for _, company := range companies {
		var drugs []models.Drug
		if err := ms.DB.Where("company_id = ?", company.ID).Order("generic_name").Find(&drugs).Error; err != nil {
			return "", err
		}
		var valid []string
		for _, d := range drugs {
			if IsValidDrugName(d.GenericName) {
				valid = append(valid, d.GenericName)
			}
		}
		if len(valid) == 0 {
			continue
		}
		totalDrugs += len(valid)
		b.WriteString(company.Name + ":\n")
		b.WriteString(strings.Repeat("-", len(company.Name)+1) + "\n")
		for i, name := range valid {
			fmt.Fprintf(&b, "  %3d. %s\n", i+1, name)
		}
		b.WriteString("\n")
		perCompany = append(perCompany, fmt.Sprintf("  %s: %d drugs", company.Name, len(valid)))
	}

	fmt.Fprintf(&b, "Clinical Trials: %d\n", trialCount)
	fmt.Fprintf(&b, "Total Drugs: %d\n\n", totalDrugs)
	b.WriteString("Summary by Company:\n")
	b.WriteString(strings.Repeat("=", 20) + "\n")
	b.WriteString(strings.Join(perCompany, "\n") + "\n")
	return b.String(), nil
}
