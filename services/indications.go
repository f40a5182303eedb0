package services

import (
	"strings"

	"go.uber.org/zap"
)

// Bekannte Indikationen, überwiegend Onkologie.
var knownIndications = []string{
	"breast cancer", "lung cancer", "non-small cell lung cancer",
	"small cell lung cancer", "melanoma", "renal cell carcinoma",
	"hepatocellular carcinoma", "urothelial cancer", "gastric cancer",
	"colorectal cancer", "pancreatic cancer", "ovarian cancer",
	"prostate cancer", "esophageal cancer", "cervical cancer",
	"endometrial carcinoma", "head and neck cancer", "merkel cell carcinoma",
	"triple-negative breast cancer", "hodgkin lymphoma",
	"non-hodgkin lymphoma", "multiple myeloma",
	"chronic lymphocytic leukemia", "acute myeloid leukemia",
	"b-cell acute lymphoblastic leukemia", "diffuse large b-cell lymphoma",
	"large b-cell lymphoma", "follicular lymphoma", "mantle cell lymphoma",
	"myelofibrosis", "pulmonary arterial hypertension", "atopic dermatitis",
	"rheumatoid arthritis", "psoriasis", "ulcerative colitis",
	"crohn's disease", "clostridium difficile infection",
}

// Indikations-Schlüsselwörter rund um eine Drug-Erwähnung.
var indicationKeywords = []string{
	"treats", "therapy", "treatment", "indicated for", "approved for",
}

// IndicationExtractor findet Krankheitsindikationen im Kontext einer
// Drug-Erwähnung. Gleiches Bewertungsschema wie bei Targets, eigenes
// Vokabular und breiteres Fenster.
type IndicationExtractor struct {
	Logger     *zap.Logger
	Window     int
	MaxResults int
}

// NewIndicationExtractor erstellt einen IndicationExtractor.
func NewIndicationExtractor(window, maxResults int, logger *zap.Logger) *IndicationExtractor {
	return &IndicationExtractor{Logger: logger, Window: window, MaxResults: maxResults}
}

// Extract liefert die deduplizierten Indikations-Kandidaten für ein
// Medikament in einem Text, absteigend nach Konfidenz.
func (ie *IndicationExtractor) Extract(text, drugName string) []Candidate {
	windows := contextWindows(text, drugName, ie.Window)
	if len(windows) == 0 {
		return nil
	}

	var all []Candidate
	for _, w := range windows {
		lowerWindow := strings.ToLower(w.text)
		for _, indication := range knownIndications {
			idx := strings.Index(lowerWindow, indication)
			if idx < 0 {
				continue
			}
			all = append(all, Candidate{
				Name:       titleCase(indication),
				Type:       indicationType(indication),
				Confidence: ie.score(w, idx),
				Method:     "known_vocabulary",
			})
		}
	}
	return rankCandidates(all, ie.MaxResults)
}

// score bewertet analog zu den Targets, aber mit den
// Indikations-Schlüsselwörtern.
func (ie *IndicationExtractor) score(w contextWindow, candidateOffset int) float64 {
	score := 0.5 + 0.3 // Vokabular-Lookup ist hier die einzige Quelle
	lowerWindow := strings.ToLower(w.text)
	for _, kw := range indicationKeywords {
		if strings.Contains(lowerWindow, kw) {
			score += 0.1
		}
	}
	distance := candidateOffset - w.mentionOffset
	if distance < 0 {
		distance = -distance
	}
	if distance < 200 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// indicationType unterscheidet grob Onkologie von allem anderen.
func indicationType(indication string) string {
	for _, marker := range []string{"cancer", "carcinoma", "lymphoma", "leukemia", "myeloma", "melanoma", "myelofibrosis"} {
		if strings.Contains(indication, marker) {
			return "oncology"
		}
	}
	return "non-oncology"
}
