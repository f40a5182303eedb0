package services

import (
	"regexp"
	"strings"
)

var (
	nctNameRegex   = regexp.MustCompile(`(?i)^NCT\d+`)
	studyCodeRegex = regexp.MustCompile(`^(Lung|Breast|PanTumor|Prostate|GI|Ovarian|Esophageal)\d+$`)
	merckCodeRegex = regexp.MustCompile(`^mk-\d+`)
	rocheCodeRegex = regexp.MustCompile(`^rg\d+`)
)

// Zu generische Biologie-Begriffe, die keine Medikamentennamen sind.
var genericBiologyTerms = map[string]bool{
	"ig": true, "igg1": true, "igg2": true, "igg3": true, "igg4": true,
	"igm": true, "iga": true, "parp1": true, "parp2": true, "parp3": true,
	"tyk2": true, "cdh6": true, "ror1": true, "her3": true, "trop2": true,
	"pcsk9": true, "ov65": true,
}

// Funktionswörter und häufige Fehltreffer aus Fließtext.
var drugStopWords = map[string]bool{
	"the": true, "and": true, "or": true, "but": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "with": true, "by": true,
	"is": true, "was": true, "are": true, "were": true, "be": true, "been": true,
	"being": true, "have": true, "has": true, "had": true, "do": true,
	"does": true, "did": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "can": true, "must": true,
	"shall": true, "accept": true, "except": true, "decline": true,
	"drug": true, "conjugate": true, "small": true, "molecule": true,
	"therapeutic": true, "protein": true, "bispecific": true, "antibody": true,
	"dose": true, "combination": true, "acquired": true, "noted": true,
	"as": true, "an": true, "a": true,
}

// Abgeschnittene Satzfragmente, kein vollständiger Name.
var incompleteEndings = []string{" is", " was", " being", " an", " a", " the", " and", " or"}

// Beschreibende Phrasen, die eine Wirkstoffklasse statt eines Namens benennen.
var descriptivePhrases = []string{
	"drug conjugate", "small molecule", "therapeutic protein",
	"bispecific antibody", "peptide",
}

// Kuratierte Liste bekannter Wirkstoffe als Positivindikator.
var knownDrugNames = map[string]bool{
	"pembrolizumab": true, "nivolumab": true, "sotatercept": true,
	"patritumab": true, "sacituzumab": true, "zilovertamab": true,
	"nemtabrutinib": true, "quavonlimab": true, "clesrovimab": true,
	"ifinatamab": true, "bezlotoxumab": true, "ipilimumab": true,
	"relatlimab": true, "enasicon": true, "dasatinib": true,
	"repotrectinib": true, "elotuzumab": true, "belatacept": true,
	"fedratinib": true, "luspatercept": true, "abatacept": true,
	"deucravacitinib": true, "trastuzumab": true, "atezolizumab": true,
	"avelumab": true, "blinatumomab": true, "dupilumab": true,
	"ruxolitinib": true,
}

// IsValidDrugName entscheidet, ob ein Kandidat ein echter Medikamentenname
// ist. Die Regeln greifen in fester Reihenfolge, die erste Ablehnung
// gewinnt; am Ende zählt nur ein Positivindikator. Bewusst konservativ:
// Präzision vor Vollständigkeit.
func IsValidDrugName(name string) bool {
	if len(name) < 3 || len(name) > 100 {
		return false
	}
	if nctNameRegex.MatchString(name) {
		return false
	}
	if studyCodeRegex.MatchString(name) {
		return false
	}

	lower := strings.ToLower(name)
	if genericBiologyTerms[lower] {
		return false
	}
	if drugStopWords[lower] {
		return false
	}
	for _, ending := range incompleteEndings {
		if strings.HasSuffix(name, ending) {
			return false
		}
	}
	for _, phrase := range descriptivePhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}

	if hasDrugSuffix(lower) {
		return true
	}
	if knownDrugNames[lower] {
		return true
	}
	if merckCodeRegex.MatchString(lower) || rocheCodeRegex.MatchString(lower) {
		return true
	}
	// Mehrwortige Namen wie "Patritumab Deruxtecan": ein Wortbestandteil
	// mit Wirkstoff-Morphologie genügt.
	if strings.Contains(lower, " ") {
		for _, word := range strings.Fields(lower) {
			if hasDrugSuffix(word) || knownDrugNames[word] || isPayloadName(word) {
				return true
			}
		}
	}
	return false
}

// hasDrugSuffix prüft die INN-Suffix-Morphologie.
func hasDrugSuffix(lower string) bool {
	switch {
	case strings.HasSuffix(lower, "mab"),
		strings.HasSuffix(lower, "zumab"),
		strings.HasSuffix(lower, "ximab"):
		return true // monoklonale Antikörper
	case strings.HasSuffix(lower, "nib"),
		strings.HasSuffix(lower, "tinib"):
		return true // Kinase-Inhibitoren
	case strings.HasSuffix(lower, "cept"):
		return true // Fusionsproteine
	case strings.HasSuffix(lower, "leucel"):
		return true // CAR-T-Produkte
	}
	return false
}

// isPayloadName erkennt ADC-Payload-Bestandteile in Kombinationsnamen.
func isPayloadName(lower string) bool {
	return strings.Contains(lower, "deruxtecan") ||
		strings.Contains(lower, "vedotin") ||
		strings.Contains(lower, "tirumotecan")
}

// InferDrugClass leitet die Wirkstoffklasse aus der Namens-Morphologie ab.
func InferDrugClass(name string) string {
	lower := strings.ToLower(name)
	switch {
	case isPayloadName(lower):
		return "ADC"
	case strings.HasSuffix(lower, "mab"),
		strings.HasSuffix(lower, "zumab"),
		strings.HasSuffix(lower, "ximab"):
		return "Monoclonal Antibody"
	case strings.HasSuffix(lower, "nib"),
		strings.HasSuffix(lower, "tinib"):
		return "Small Molecule"
	case strings.HasSuffix(lower, "cept"):
		return "Therapeutic Protein"
	case strings.HasSuffix(lower, "leucel"):
		return "CAR-T Cell Therapy"
	}
	return ""
}
