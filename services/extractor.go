package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"biopartner-insights/config"
	"biopartner-insights/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	nctCodeRegex = regexp.MustCompile(`NCT\d{8}`)

	// Kandidaten-Muster für Medikamentennamen im Fließtext.
	drugSuffixRegex   = regexp.MustCompile(`\b[A-Z][a-z]{3,}(?:mab|nib|cept|leucel)\b`)
	drugCombinedRegex = regexp.MustCompile(`\b[A-Z][a-z]{3,}(?:mab)?\s+(?:[Dd]eruxtecan|[Vv]edotin|[Tt]irumotecan)\b`)
	drugCodeRegex     = regexp.MustCompile(`\b(?:MK-\d{3,4}|RG\d{4})\b`)

	corporateSuffixRegex = regexp.MustCompile(`\b([A-Z][A-Za-z&.\- ]{2,40}?)\s+(?:Inc|Corp|Corporation|Ltd|Pharmaceuticals|Pharma|Biotech|Therapeutics|Biosciences)\b`)
	aboutCompanyRegex    = regexp.MustCompile(`\b(?:About|Company|Overview)[:\s]+([A-Z][A-Za-z&.\- ]{2,40})`)

	trialPhaseRegex    = regexp.MustCompile(`(?i)\bphase\s+(I{1,3}V?|[1-4])\b`)
	effectiveTimeRegex = regexp.MustCompile(`(?i)effective time:?\s*(\d{8})`)
)

// Keyword → kanonischer Firmenname. Erster Auflösungsschritt vor den
// Regex-Heuristiken.
var companyKeywords = []struct {
	keyword   string
	canonical string
}{
	{"merck", "Merck & Co."},
	{"bristol", "Bristol Myers Squibb"},
	{"roche", "Roche/Genentech"},
	{"genentech", "Roche/Genentech"},
	{"pfizer", "Pfizer"},
	{"novartis", "Novartis"},
	{"gilead", "Gilead Sciences"},
	{"amgen", "Amgen"},
	{"regeneron", "Regeneron Pharmaceuticals"},
	{"incyte", "Incyte"},
}

// Markenname → Generic Name für Label- und Pressetexte.
var brandToGeneric = map[string]string{
	"KEYTRUDA":  "Pembrolizumab",
	"OPDIVO":    "Nivolumab",
	"YERVOY":    "Ipilimumab",
	"TECENTRIQ": "Atezolizumab",
	"HERCEPTIN": "Trastuzumab",
	"BAVENCIO":  "Avelumab",
	"KYMRIAH":   "Tisagenlecleucel",
	"YESCARTA":  "Axicabtagene Ciloleucel",
	"EMPLICITI": "Elotuzumab",
	"ZINPLAVA":  "Bezlotoxumab",
}

// FDA-Boilerplate, das vor Indikationstexten steht.
var fdaIndicationPrefixes = []string{
	"INDICATIONS AND USAGE:",
	"INDICATIONS AND USAGE",
	"For the treatment of",
	"Indicated for the treatment of",
	"Indicated for",
	"is indicated for",
}

// RunResult fasst einen Extraktionslauf zusammen.
type RunResult struct {
	DocumentsProcessed int `json:"documents_processed"`
	DocumentsFailed    int `json:"documents_failed"`
	CompaniesCreated   int `json:"companies_created"`
	DrugsCreated       int `json:"drugs_created"`
	DrugsUpdated       int `json:"drugs_updated"`
	TrialsCreated      int `json:"trials_created"`
	TrialsLinked       int `json:"trials_linked"`
}

// EntityExtractor verwandelt gespeicherte Dokumente in Company-, Drug-,
// Target-, Indication- und ClinicalTrial-Zeilen. Eine konfigurierbare
// Pipeline mit Capability-Flags statt mehrerer paralleler Implementierungen.
type EntityExtractor struct {
	Config      *config.Config
	DB          *gorm.DB
	Logger      *zap.Logger
	Targets     *TargetExtractor
	Indications *IndicationExtractor
}

// NewEntityExtractor erstellt die Extraktions-Pipeline.
func NewEntityExtractor(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *EntityExtractor {
	return &EntityExtractor{
		Config:      cfg,
		DB:          db,
		Logger:      logger,
		Targets:     NewTargetExtractor(cfg.TargetWindow, cfg.MaxCandidates, logger),
		Indications: NewIndicationExtractor(cfg.IndicationWindow, cfg.MaxCandidates, logger),
	}
}

// Run verarbeitet alle gespeicherten Dokumente in einer Transaktion.
// Fehler einzelner Dokumente werden geloggt und übersprungen; nur ein
// Batch-Fehler führt zum Rollback.
func (ee *EntityExtractor) Run() (*RunResult, error) {
	var documents []models.Document
	if err := ee.DB.Order("id").Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("dokumente laden: %w", err)
	}
	ee.Logger.Info("Starte Entity-Extraktion", zap.Int("documents", len(documents)))

	result := &RunResult{}
	err := ee.DB.Transaction(func(tx *gorm.DB) error {
		for i := range documents {
			doc := &documents[i]
			if err := ee.processDocument(tx, doc, result); err != nil {
				result.DocumentsFailed++
				ee.Logger.Warn("Dokument übersprungen",
					zap.Uint("document_id", doc.ID),
					zap.String("source_type", doc.SourceType),
					zap.Error(err))
				continue
			}
			result.DocumentsProcessed++
		}
		// Zweiter Pass: Drugs und Trials stammen aus unabhängigen
		// Dokumentmengen, die Verknüpfung ist erst jetzt vollständig.
		linked, err := ee.linkTrials(tx)
		if err != nil {
			return fmt.Errorf("trial-verknüpfung: %w", err)
		}
		result.TrialsLinked = linked
		return nil
	})
	if err != nil {
		return nil, err
	}

	ee.Logger.Info("Entity-Extraktion abgeschlossen",
		zap.Int("processed", result.DocumentsProcessed),
		zap.Int("failed", result.DocumentsFailed),
		zap.Int("drugs_created", result.DrugsCreated),
		zap.Int("trials_linked", result.TrialsLinked))
	return result, nil
}

// processDocument extrahiert Entitäten aus einem einzelnen Dokument.
func (ee *EntityExtractor) processDocument(tx *gorm.DB, doc *models.Document, result *RunResult) error {
	text := NormalizeText(doc.Content)
	if text == "" {
		return fmt.Errorf("leerer inhalt")
	}

	if strings.HasPrefix(doc.SourceType, "clinical_trial") {
		return ee.extractTrials(tx, doc, text, result)
	}

	companyName, ok := ResolveCompany(text)
	if !ok {
		// Ohne Firmenzuordnung keine Drug-Extraktion für dieses Dokument.
		return ee.extractTrials(tx, doc, text, result)
	}
	company, created, err := ee.getOrCreateCompany(tx, companyName)
	if err != nil {
		return err
	}
	if created {
		result.CompaniesCreated++
	}

	isFDA := strings.HasPrefix(doc.SourceType, "fda_")
	for _, candidate := range ExtractDrugCandidates(text) {
		if err := ee.upsertDrug(tx, company, candidate, text, doc.SourceType, isFDA, result); err != nil {
			ee.Logger.Warn("Drug-Kandidat nicht persistierbar",
				zap.String("candidate", candidate), zap.Error(err))
		}
	}
	return ee.extractTrials(tx, doc, text, result)
}

// upsertDrug legt ein Medikament an oder ergänzt null-Felder.
// Vorhandene Werte werden nie mit extrahierten Leerwerten überschrieben.
func (ee *EntityExtractor) upsertDrug(tx *gorm.DB, company *models.Company, name, text, sourceType string, isFDA bool, result *RunResult) error {
	key := NormalizeName(name)
	var drug models.Drug
	err := tx.Where("LOWER(TRIM(generic_name)) = ?", key).First(&drug).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if err == gorm.ErrRecordNotFound {
		// Containment erst als zweiter, getrennter Auflösungsschritt.
		err = tx.Where("generic_name ILIKE ?", "%"+name+"%").First(&drug).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
	}

	extractMechanism := ee.Config.ExtractMechanism
	extractTargets := !isFDA || ee.Config.ExtractTargetsFromFDA

	if err == gorm.ErrRecordNotFound {
		if !IsValidDrugName(name) {
			return nil // normales Filter-Ergebnis, kein Fehler
		}
		drug = models.Drug{
			GenericName: name,
			BrandName:   brandNameFor(name),
			DrugClass:   InferDrugClass(name),
			CompanyID:   company.ID,
		}
		if isFDA {
			drug.FDAApprovalStatus = true
			drug.FDAApprovalDate = parseEffectiveTime(text)
			if extractMechanism {
				drug.MechanismOfAction = mechanismNear(text)
			}
		}
		drug.SetNCTCodes(nctCodesNear(text, name, 500))
		if err := tx.Create(&drug).Error; err != nil {
			return err
		}
		result.DrugsCreated++
	} else {
		changed := fillNullFields(&drug, company.ID, isFDA, text)
		codes := mergeCodes(drug.NCTCodes(), nctCodesNear(text, name, 500))
		if len(codes) != len(drug.NCTCodes()) {
			drug.SetNCTCodes(codes)
			changed = true
		}
		if changed {
			if err := tx.Save(&drug).Error; err != nil {
				return err
			}
			result.DrugsUpdated++
		}
	}

	if extractTargets {
		for _, c := range ee.Targets.Extract(text, name) {
			if err := ee.attachTarget(tx, &drug, c); err != nil {
				return err
			}
			if drug.MechanismOfAction == "" && c.Mechanism != "" && extractMechanism {
				drug.MechanismOfAction = c.Mechanism
				if err := tx.Save(&drug).Error; err != nil {
					return err
				}
			}
		}
	}
	for _, c := range ee.Indications.Extract(text, name) {
		if err := ee.attachIndication(tx, &drug, c, sourceType); err != nil {
			return err
		}
	}
	if isFDA {
		if err := ee.attachLabelIndications(tx, &drug, text, sourceType); err != nil {
			return err
		}
	}
	return nil
}

// attachLabelIndications liest die Indikation aus dem bereinigten
// "INDICATIONS AND USAGE"-Abschnitt eines FDA-Labels. Label-Treffer
// bekommen eine hohe Konfidenz, das Label ist die autoritative Quelle.
func (ee *EntityExtractor) attachLabelIndications(tx *gorm.DB, drug *models.Drug, text, sourceType string) error {
	cleaned := strings.ToLower(CleanFDAIndication(text))
	if cleaned == "" {
		return nil
	}
	for _, known := range knownIndications {
		if !strings.Contains(cleaned, known) {
			continue
		}
		c := Candidate{
			Name:       titleCase(known),
			Type:       indicationType(known),
			Confidence: 0.9,
			Method:     "fda_label",
		}
		if err := ee.attachIndication(tx, drug, c, sourceType); err != nil {
			return err
		}
	}
	return nil
}

// fillNullFields ergänzt leere Felder eines bestehenden Drugs.
func fillNullFields(drug *models.Drug, companyID uint, isFDA bool, text string) bool {
	changed := false
	if drug.CompanyID == 0 {
		drug.CompanyID = companyID
		changed = true
	}
	if drug.BrandName == "" {
		if brand := brandNameFor(drug.GenericName); brand != "" {
			drug.BrandName = brand
			changed = true
		}
	}
	if drug.DrugClass == "" {
		if class := InferDrugClass(drug.GenericName); class != "" {
			drug.DrugClass = class
			changed = true
		}
	}
	if isFDA {
		if !drug.FDAApprovalStatus {
			drug.FDAApprovalStatus = true
			changed = true
		}
		if drug.FDAApprovalDate == nil {
			if date := parseEffectiveTime(text); date != nil {
				drug.FDAApprovalDate = date
				changed = true
			}
		}
	}
	return changed
}

// attachTarget legt Target und Kante idempotent an.
func (ee *EntityExtractor) attachTarget(tx *gorm.DB, drug *models.Drug, c Candidate) error {
	target, err := getOrCreateByName[models.Target](tx, c.Name, func() models.Target {
		return models.Target{Name: c.Name, TargetType: c.Type}
	})
	if err != nil {
		return err
	}
	edge := models.DrugTarget{
		DrugID:           drug.ID,
		TargetID:         target.ID,
		RelationshipType: relationshipFromMechanism(c.Mechanism),
		Confidence:       c.Confidence,
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
}

// attachIndication legt Indication und Kante idempotent an.
func (ee *EntityExtractor) attachIndication(tx *gorm.DB, drug *models.Drug, c Candidate, sourceType string) error {
	indication, err := getOrCreateByName[models.Indication](tx, c.Name, func() models.Indication {
		return models.Indication{Name: c.Name, IndicationType: c.Type}
	})
	if err != nil {
		return err
	}
	status := "investigational"
	if strings.HasPrefix(sourceType, "fda_") {
		status = "approved"
	}
	edge := models.DrugIndication{
		DrugID:         drug.ID,
		IndicationID:   indication.ID,
		ApprovalStatus: status,
		Confidence:     c.Confidence,
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
}

// getOrCreateByName löst case-insensitiv exakt auf, dann per Containment,
// und legt erst bei komplettem Fehltreffer an.
func getOrCreateByName[T any](tx *gorm.DB, name string, build func() T) (*T, error) {
	var row T
	err := tx.Where("LOWER(TRIM(name)) = ?", NormalizeName(name)).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	err = tx.Where("name ILIKE ?", "%"+name+"%").First(&row).Error
	if err == nil {
		return &row, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	row = build()
	if err := tx.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// getOrCreateCompany wie getOrCreateByName, meldet aber Neuanlagen.
func (ee *EntityExtractor) getOrCreateCompany(tx *gorm.DB, name string) (*models.Company, bool, error) {
	var company models.Company
	err := tx.Where("LOWER(TRIM(name)) = ?", NormalizeName(name)).First(&company).Error
	if err == nil {
		return &company, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}
	err = tx.Where("name ILIKE ?", "%"+name+"%").First(&company).Error
	if err == nil {
		return &company, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}
	company = models.Company{Name: name}
	if err := tx.Create(&company).Error; err != nil {
		return nil, false, err
	}
	return &company, true, nil
}

// extractTrials legt für jeden NCT-Code im Dokument höchstens eine
// ClinicalTrial-Zeile an.
func (ee *EntityExtractor) extractTrials(tx *gorm.DB, doc *models.Document, text string, result *RunResult) error {
	for _, nctID := range ExtractNCTCodes(text) {
		trial := models.ClinicalTrial{
			NCTID:  nctID,
			Title:  doc.Title,
			Status: trialStatus(text),
			Phase:  trialPhase(text),
		}
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "nct_id"}}, DoNothing: true}).Create(&trial)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			result.TrialsCreated++
		}
	}
	return nil
}

// linkTrials verknüpft Drugs über ihre NCT-Codes mit persistierten Trials.
// Codes ohne gespeicherte Studie sind kein Fehler.
func (ee *EntityExtractor) linkTrials(tx *gorm.DB) (int, error) {
	var drugs []models.Drug
	if err := tx.Find(&drugs).Error; err != nil {
		return 0, err
	}
	linked := 0
	for i := range drugs {
		for _, code := range drugs[i].NCTCodes() {
			var trial models.ClinicalTrial
			err := tx.Where("nct_id = ?", code).First(&trial).Error
			if err == gorm.ErrRecordNotFound {
				continue
			}
			if err != nil {
				return linked, err
			}
			edge := models.DrugTrial{DrugID: drugs[i].ID, ClinicalTrialID: trial.ID}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
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

// ResolveCompany leitet den Firmennamen aus einem Dokumenttext ab:
// erst Keyword-Mapping, dann Corporate-Suffix, dann About/Overview-Muster.
func ResolveCompany(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, ck := range companyKeywords {
		if strings.Contains(lower, ck.keyword) {
			return ck.canonical, true
		}
	}
	if m := corporateSuffixRegex.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := aboutCompanyRegex.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// ExtractDrugCandidates sammelt mögliche Medikamentennamen aus einem Text.
// Reihenfolge bleibt erhalten, Duplikate werden entfernt; das Gate ist
// IsValidDrugName beim Persistieren.
func ExtractDrugCandidates(text string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		key := NormalizeName(name)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, name)
	}

	// Kombinationsnamen zuerst, damit "Patritumab Deruxtecan" nicht als
	// zwei Einzeltreffer endet.
	for _, m := range drugCombinedRegex.FindAllString(text, -1) {
		add(titleCase(m))
	}
	for _, m := range drugSuffixRegex.FindAllString(text, -1) {
		if !seen[NormalizeName(m)] && !partOfCombined(text, m) {
			add(m)
		}
	}
	for _, m := range drugCodeRegex.FindAllString(text, -1) {
		add(m)
	}
	for brand, generic := range brandToGeneric {
		if strings.Contains(text, brand) {
			add(generic)
		}
	}
	return out
}

// partOfCombined prüft, ob ein Einzeltreffer Teil eines bereits erfassten
// Kombinationsnamens ist.
func partOfCombined(text, match string) bool {
	for _, m := range drugCombinedRegex.FindAllString(text, -1) {
		if strings.Contains(strings.ToLower(m), strings.ToLower(match)) {
			return true
		}
	}
	return false
}

// ExtractNCTCodes findet alle NCT-Identifier eines Textes, dedupliziert
// in Erst-Vorkommens-Reihenfolge.
func ExtractNCTCodes(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range nctCodeRegex.FindAllString(text, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// nctCodesNear liefert NCT-Codes im Umkreis einer Drug-Erwähnung.
func nctCodesNear(text, drugName string, radius int) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range contextWindows(text, drugName, radius) {
		for _, code := range ExtractNCTCodes(w.text) {
			if seen[code] {
				continue
			}
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}

func mergeCodes(existing, found []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(existing)+len(found))
	for _, c := range append(append([]string{}, existing...), found...) {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// CleanFDAIndication entfernt FDA-Boilerplate vor dem Indikationstext.
func CleanFDAIndication(text string) string {
	cleaned := strings.TrimSpace(text)
	for _, prefix := range fdaIndicationPrefixes {
		if idx := strings.Index(cleaned, prefix); idx >= 0 {
			cleaned = strings.TrimSpace(cleaned[idx+len(prefix):])
		}
	}
	if cut := strings.IndexAny(cleaned, ".\n"); cut > 0 {
		cleaned = cleaned[:cut]
	}
	return strings.TrimSpace(cleaned)
}

// parseEffectiveTime liest ein FDA-Datum im Format YYYYMMDD.
func parseEffectiveTime(text string) *time.Time {
	m := effectiveTimeRegex.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	t, err := time.Parse("20060102", m[1])
	if err != nil {
		return nil
	}
	return &t
}

func trialStatus(text string) string {
	lower := strings.ToLower(text)
	// "active, not recruiting" vor "recruiting", sonst gewinnt der Substring.
	for _, status := range []string{"active, not recruiting", "recruiting", "completed", "terminated", "suspended"} {
		if strings.Contains(lower, status) {
			return titleCase(status)
		}
	}
	return ""
}

func trialPhase(text string) string {
	m := trialPhaseRegex.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return "Phase " + strings.ToUpper(m[1])
}

// relationshipFromMechanism mappt den Mechanismus-Satzteil auf einen
// Kantentyp.
func relationshipFromMechanism(mechanism string) string {
	lower := strings.ToLower(mechanism)
	switch {
	case strings.Contains(lower, "inhibit"):
		return "inhibits"
	case strings.Contains(lower, "block"):
		return "blocks"
	case strings.Contains(lower, "bind"):
		return "binds"
	case strings.Contains(lower, "activat"):
		return "activates"
	case strings.Contains(lower, "modulat"):
		return "modulates"
	case strings.Contains(lower, "target"):
		return "targets"
	}
	return "targets"
}

// brandNameFor liefert den Markennamen, falls kuratiert bekannt.
func brandNameFor(generic string) string {
	key := NormalizeName(generic)
	for brand, g := range brandToGeneric {
		if NormalizeName(g) == key {
			return brand
		}
	}
	return ""
}
