package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"biopartner-insights/config"
	"biopartner-insights/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompanyRosterEntry ist eine Zeile der Firmenliste.
type CompanyRosterEntry struct {
	Name        string
	PipelineURL string
	Website     string
}

// Standard-Firmenliste, wenn keine CSV vorliegt.
var defaultCompanyRoster = []CompanyRosterEntry{
	{Name: "Merck & Co.", Website: "https://www.merck.com"},
	{Name: "Bristol Myers Squibb", Website: "https://www.bms.com"},
	{Name: "Roche/Genentech", Website: "https://www.roche.com"},
	{Name: "AstraZeneca", Website: "https://www.astrazeneca.com"},
	{Name: "Pfizer", Website: "https://www.pfizer.com"},
	{Name: "Novartis", Website: "https://www.novartis.com"},
	{Name: "Gilead Sciences", Website: "https://www.gilead.com"},
	{Name: "Amgen", Website: "https://www.amgen.com"},
	{Name: "Regeneron Pharmaceuticals", Website: "https://www.regeneron.com"},
	{Name: "Incyte", Website: "https://www.incyte.com"},
	{Name: "Daiichi Sankyo", Website: "https://www.daiichisankyo.com"},
	{Name: "Johnson & Johnson", Website: "https://www.jnj.com"},
}

// seedDrug ist ein kuratierter Wirkstoff für den Seed-Fallback.
type seedDrug struct {
	company     string
	genericName string
	brandName   string
	drugClass   string
	mechanism   string
	approved    bool
	approval    string // YYYY-MM-DD
	targets     []string
	indications []string
	nctCodes    []string
}

// Kuratierte Pipeline-Daten der großen Onkologie-Firmen. Fixture-Tabelle,
// kein Teil des Extraktionsalgorithmus.
var seedDrugs = []seedDrug{
	{
		company: "Merck & Co.", genericName: "Pembrolizumab", brandName: "KEYTRUDA",
		drugClass: "Monoclonal Antibody",
		mechanism: "Monoclonal antibody that binds to the PD-1 receptor and blocks its interaction with PD-L1 and PD-L2",
		approved:  true, approval: "2014-09-01",
		targets:     []string{"PD-1"},
		indications: []string{"Melanoma", "Non-Small Cell Lung Cancer", "Head And Neck Cancer"},
		nctCodes:    []string{"NCT03765918", "NCT03867084", "NCT05116189"},
	},
	{
		company: "Merck & Co.", genericName: "Sotatercept", brandName: "WINREVAIR",
		drugClass: "Therapeutic Protein",
		mechanism: "Activin signaling inhibitor",
		approved:  true, approval: "2023-03-01",
		targets:     []string{"Activin"},
		indications: []string{"Pulmonary Arterial Hypertension"},
		nctCodes:    []string{"NCT04938830", "NCT05624554"},
	},
	{
		company: "Merck & Co.", genericName: "Patritumab Deruxtecan",
		drugClass: "ADC",
		mechanism: "Anti-HER3 antibody-drug conjugate",
		targets:   []string{"HER3"},
		indications: []string{"Breast Cancer", "Non-Small Cell Lung Cancer"},
		nctCodes:    []string{"NCT04619004", "NCT06172478"},
	},
	{
		company: "Merck & Co.", genericName: "Nemtabrutinib",
		drugClass: "Small Molecule",
		mechanism: "Bruton's tyrosine kinase (BTK) inhibitor",
		targets:   []string{"BTK"},
		indications: []string{"Chronic Lymphocytic Leukemia", "Mantle Cell Lymphoma"},
		nctCodes:    []string{"NCT03162536", "NCT04728893"},
	},
	{
		company: "Bristol Myers Squibb", genericName: "Nivolumab", brandName: "OPDIVO",
		drugClass: "Monoclonal Antibody",
		mechanism: "Monoclonal antibody that binds to the PD-1 receptor and blocks its interaction with PD-L1 and PD-L2",
		approved:  true, approval: "2014-12-01",
		targets:     []string{"PD-1"},
		indications: []string{"Melanoma", "Renal Cell Carcinoma"},
		nctCodes:    []string{"NCT03066778", "NCT04191096"},
	},
	{
		company: "Bristol Myers Squibb", genericName: "Ipilimumab", brandName: "YERVOY",
		drugClass: "Monoclonal Antibody",
		mechanism: "Anti-CTLA-4 monoclonal antibody",
		approved:  true, approval: "2011-03-01",
		targets:     []string{"CTLA-4"},
		indications: []string{"Melanoma"},
		nctCodes:    []string{"NCT04736706"},
	},
	{
		company: "Roche/Genentech", genericName: "Atezolizumab", brandName: "TECENTRIQ",
		drugClass: "Monoclonal Antibody",
		mechanism: "Anti-PD-L1 monoclonal antibody",
		approved:  true, approval: "2016-05-01",
		targets:     []string{"PD-L1"},
		indications: []string{"Urothelial Cancer", "Non-Small Cell Lung Cancer"},
		nctCodes:    []string{"NCT03066778"},
	},
	{
		company: "Roche/Genentech", genericName: "Trastuzumab", brandName: "HERCEPTIN",
		drugClass: "Monoclonal Antibody",
		mechanism: "Anti-HER2 monoclonal antibody",
		approved:  true, approval: "1998-09-01",
		targets:     []string{"HER2"},
		indications: []string{"Breast Cancer", "Gastric Cancer"},
		nctCodes:    []string{"NCT05116189"},
	},
	{
		company: "Pfizer", genericName: "Avelumab", brandName: "BAVENCIO",
		drugClass: "Monoclonal Antibody",
		mechanism: "Anti-PD-L1 monoclonal antibody",
		approved:  true, approval: "2017-03-01",
		targets:     []string{"PD-L1"},
		indications: []string{"Merkel Cell Carcinoma", "Urothelial Cancer"},
		nctCodes:    []string{"NCT04191096"},
	},
	{
		company: "Novartis", genericName: "Tisagenlecleucel", brandName: "KYMRIAH",
		drugClass: "CAR-T Cell Therapy",
		mechanism: "CD19-directed genetically modified autologous T cell immunotherapy",
		approved:  true, approval: "2017-08-01",
		targets:     []string{"CD19"},
		indications: []string{"B-Cell Acute Lymphoblastic Leukemia"},
		nctCodes:    []string{"NCT03162536"},
	},
	{
		company: "Incyte", genericName: "Ruxolitinib", brandName: "JAKAFI",
		drugClass: "Small Molecule",
		mechanism: "JAK1/JAK2 kinase inhibitor",
		approved:  true, approval: "2011-11-01",
		targets:     []string{"JAK1", "JAK2"},
		indications: []string{"Myelofibrosis"},
		nctCodes:    []string{"NCT04728893"},
	},
}

// SeedService legt Firmen-Roster und kuratierte Known-Drug-Fixtures an.
type SeedService struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewSeedService erstellt den Seed-Service.
func NewSeedService(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *SeedService {
	return &SeedService{Config: cfg, DB: db, Logger: logger}
}

// LoadCompanyRoster liest die Firmenliste aus der CSV, sonst den Default.
// Erwartete Spalten: Company, OncologyPipelineURL, OfficialWebsite.
func (ss *SeedService) LoadCompanyRoster() []CompanyRosterEntry {
	f, err := os.Open(ss.Config.CompaniesCSVPath)
	if err != nil {
		ss.Logger.Info("Keine Firmen-CSV gefunden, nutze Default-Roster",
			zap.String("path", ss.Config.CompaniesCSVPath))
		return defaultCompanyRoster
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil || len(records) < 2 {
		ss.Logger.Warn("Firmen-CSV nicht lesbar, nutze Default-Roster", zap.Error(err))
		return defaultCompanyRoster
	}

	col := map[string]int{}
	for i, h := range records[0] {
		col[h] = i
	}
	nameIdx, ok := col["Company"]
	if !ok {
		ss.Logger.Warn("Firmen-CSV ohne Company-Spalte, nutze Default-Roster")
		return defaultCompanyRoster
	}

	var roster []CompanyRosterEntry
	seen := map[string]bool{}
	for _, rec := range records[1:] {
		if nameIdx >= len(rec) {
			continue
		}
		name := rec[nameIdx]
		if name == "" || seen[NormalizeName(name)] {
			continue
		}
		seen[NormalizeName(name)] = true
		entry := CompanyRosterEntry{Name: name}
		if idx, ok := col["OncologyPipelineURL"]; ok && idx < len(rec) {
			entry.PipelineURL = rec[idx]
		}
		if idx, ok := col["OfficialWebsite"]; ok && idx < len(rec) {
			entry.Website = rec[idx]
		}
		roster = append(roster, entry)
	}
	if len(roster) == 0 {
		return defaultCompanyRoster
	}
	return roster
}

// Apply legt Roster-Firmen und, falls konfiguriert, die kuratierten
// Known-Drugs samt Relationen per get-or-create an.
func (ss *SeedService) Apply() error {
	roster := ss.LoadCompanyRoster()
	return ss.DB.Transaction(func(tx *gorm.DB) error {
		for _, entry := range roster {
			company := models.Company{
				Name:        entry.Name,
				Website:     entry.Website,
				Description: "Oncology-focused pharmaceutical company",
			}
			if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
				Create(&company).Error; err != nil {
				return fmt.Errorf("roster-firma %q: %w", entry.Name, err)
			}
		}
		if !ss.Config.UseSeedFallback {
			return nil
		}
		for _, sd := range seedDrugs {
			if err := ss.applyDrug(tx, sd); err != nil {
				return fmt.Errorf("seed-drug %q: %w", sd.genericName, err)
			}
		}
		ss.Logger.Info("Seed-Daten angewendet",
			zap.Int("companies", len(roster)), zap.Int("drugs", len(seedDrugs)))
		return nil
	})
}

func (ss *SeedService) applyDrug(tx *gorm.DB, sd seedDrug) error {
	var company models.Company
	if err := tx.Where("LOWER(TRIM(name)) = ?", NormalizeName(sd.company)).First(&company).Error; err != nil {
		return err
	}

	var drug models.Drug
	err := tx.Where("LOWER(TRIM(generic_name)) = ?", NormalizeName(sd.genericName)).First(&drug).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if err == gorm.ErrRecordNotFound {
		drug = models.Drug{
			GenericName:       sd.genericName,
			BrandName:         sd.brandName,
			DrugClass:         sd.drugClass,
			MechanismOfAction: sd.mechanism,
			FDAApprovalStatus: sd.approved,
			CompanyID:         company.ID,
		}
		if sd.approval != "" {
			if t, perr := time.Parse("2006-01-02", sd.approval); perr == nil {
				drug.FDAApprovalDate = &t
			}
		}
		drug.SetNCTCodes(sd.nctCodes)
		if err := tx.Create(&drug).Error; err != nil {
			return err
		}
	}

	for _, name := range sd.targets {
		target, err := getOrCreateByName[models.Target](tx, name, func() models.Target {
			return models.Target{Name: name, TargetType: ClassifyTargetType(name)}
		})
		if err != nil {
			return err
		}
		edge := models.DrugTarget{DrugID: drug.ID, TargetID: target.ID, RelationshipType: "targets", Confidence: 1.0}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
			return err
		}
	}
	for _, name := range sd.indications {
		indication, err := getOrCreateByName[models.Indication](tx, name, func() models.Indication {
			return models.Indication{Name: name, IndicationType: indicationType(NormalizeName(name))}
		})
		if err != nil {
			return err
		}
		status := "investigational"
		if sd.approved {
			status = "approved"
		}
		edge := models.DrugIndication{DrugID: drug.ID, IndicationID: indication.ID, ApprovalStatus: status, Confidence: 1.0}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
			return err
		}
	}
	return nil
}
