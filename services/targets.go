package services

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Candidate ist ein extrahierter Target- oder Indikations-Kandidat mit
// Konfidenz. Ergebnis einer reinen Textanalyse, die Persistenz übernimmt
// der Aufrufer.
type Candidate struct {
	Name       string  `json:"name"`
	Type       string  `json:"type,omitempty"`
	Confidence float64 `json:"confidence"`
	Mechanism  string  `json:"mechanism,omitempty"`
	Method     string  `json:"method"`
}

// EntityRecognizer ist der optionale NLP-Pass. Fehlt er, fällt die
// Extraktion stillschweigend auf Vokabular und Muster zurück.
type EntityRecognizer interface {
	Entities(sentence string) []string
}

// Kanonische Target-Symbole. Lookup läuft case-insensitiv, gespeichert
// wird die kanonische Schreibweise.
var knownTargets = []string{
	"EGFR", "HER2", "HER3", "PD-1", "PD-L1", "CTLA-4", "VEGF", "VEGFR",
	"BRAF", "MEK", "PI3K", "AKT", "mTOR", "CDK4/6", "PARP", "ALK", "ROS1",
	"MET", "FGFR", "RET", "KRAS", "TP53", "MYC", "BCL2", "TROP2", "ROR1",
	"BTK", "CD19", "CD20", "CD38", "CD123", "BCMA", "SLAMF7", "B7-H3",
	"CD3", "CD22", "CD30", "CD33", "CD52", "CD79B", "Nectin-4", "FRα",
	"Activin", "TIGIT", "LAG-3", "IL-4Rα", "JAK1", "JAK2", "SYK", "FLT3",
	"IDH1", "IDH2", "EZH2", "MDM2", "XPO1", "HDAC", "DLL3", "GPRC5D",
	"Claudin 18.2", "c-Met", "AXL", "NTRK", "PCSK9", "CDH6",
}

// Muster-Familien für target-artige Tokens.
var targetPatterns = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`\b[A-Z]{2,10}\b`), "gene_symbol"},
	{regexp.MustCompile(`\b[A-Za-z]{4,}ase\b`), "enzyme"},
	{regexp.MustCompile(`\b[A-Za-z]{5,}in\b`), "protein"},
	{regexp.MustCompile(`\b[a-z]{4,}mab\b`), "antibody"},
	{regexp.MustCompile(`\b[a-z]{4,}nib\b`), "kinase_inhibitor"},
}

// Mechanismus-Indikatoren rund um eine Drug-Erwähnung.
var mechanismKeywords = []string{
	"inhibits", "targets", "blocks", "binds to", "activates", "modulates",
}

// Tokens, die trotz Muster-Treffer keine Targets sind.
var targetStopWords = map[string]bool{
	"THE": true, "AND": true, "FOR": true, "WITH": true, "FDA": true,
	"USA": true, "NCT": true, "DNA": true, "RNA": true, "LLC": true,
	"INC": true, "ADC": true, "INN": true, "AS": true, "IS": true,
	"IN": true, "ON": true, "OF": true, "OR": true, "TO": true, "BY": true,
	"II": true, "III": true, "IV": true, "USAGE": true, "ABOUT": true,
	"protein": true, "insulin": true, "within": true, "certain": true,
	"again": true, "contain": true, "therein": true, "origin": true,
	"margin": true, "main": true, "disease": true, "increase": true,
	"decrease": true, "release": true, "phase": true,
}

// TargetExtractor findet molekulare Targets im Kontext einer
// Drug-Erwähnung. Drei unabhängige Verfahren (Vokabular, Muster,
// optional NLP) werden vereinigt und gemeinsam bewertet.
type TargetExtractor struct {
	Logger     *zap.Logger
	Window     int
	MaxResults int
	Recognizer EntityRecognizer // optional

	knownLookup map[string]string
}

// NewTargetExtractor erstellt einen TargetExtractor mit den
// Standard-Parametern der Pipeline.
func NewTargetExtractor(window, maxResults int, logger *zap.Logger) *TargetExtractor {
	lookup := make(map[string]string, len(knownTargets))
	for _, t := range knownTargets {
		lookup[strings.ToLower(t)] = t
	}
	return &TargetExtractor{
		Logger:      logger,
		Window:      window,
		MaxResults:  maxResults,
		knownLookup: lookup,
	}
}

// Extract liefert die dedupliziert und absteigend nach Konfidenz
// sortierten Target-Kandidaten für ein Medikament in einem Text.
func (te *TargetExtractor) Extract(text, drugName string) []Candidate {
	windows := contextWindows(text, drugName, te.Window)
	if len(windows) == 0 {
		return nil
	}

	var all []Candidate
	for _, window := range windows {
		all = append(all, te.fromKnownVocabulary(window)...)
		all = append(all, te.fromPatterns(window)...)
		all = append(all, te.fromRecognizer(window)...)
	}
	return rankCandidates(all, te.MaxResults)
}

// fromKnownVocabulary matcht das feste Target-Vokabular im Fenster.
func (te *TargetExtractor) fromKnownVocabulary(w contextWindow) []Candidate {
	lowerWindow := strings.ToLower(w.text)
	var out []Candidate
	for lowerName, canonical := range te.knownLookup {
		idx := strings.Index(lowerWindow, lowerName)
		if idx < 0 {
			continue
		}
		out = append(out, Candidate{
			Name:       canonical,
			Type:       ClassifyTargetType(canonical),
			Confidence: scoreCandidate(w, idx, true),
			Mechanism:  mechanismNear(w.text),
			Method:     "known_vocabulary",
		})
	}
	return out
}

// fromPatterns wendet die Regex-Familien auf das Fenster an.
func (te *TargetExtractor) fromPatterns(w contextWindow) []Candidate {
	var out []Candidate
	for _, p := range targetPatterns {
		for _, loc := range p.re.FindAllStringIndex(w.text, -1) {
			match := w.text[loc[0]:loc[1]]
			if len(match) < 3 {
				continue
			}
			if targetStopWords[match] || targetStopWords[strings.ToLower(match)] {
				continue
			}
			// Vokabular-Treffer liefert der erste Pass bereits.
			if _, known := te.knownLookup[strings.ToLower(match)]; known {
				continue
			}
			out = append(out, Candidate{
				Name:       match,
				Type:       classifyByPattern(p.kind, match),
				Confidence: scoreCandidate(w, loc[0], false),
				Mechanism:  mechanismNear(w.text),
				Method:     "pattern",
			})
		}
	}
	return out
}

// fromRecognizer ist der optionale NLP-Pass. Best effort: ohne Recognizer
// oder bei leerem Ergebnis passiert nichts.
func (te *TargetExtractor) fromRecognizer(w contextWindow) []Candidate {
	if te.Recognizer == nil {
		return nil
	}
	var out []Candidate
	for _, entity := range te.Recognizer.Entities(w.text) {
		lower := strings.ToLower(entity)
		canonical, known := te.knownLookup[lower]
		if !known && !targetLikeMorphology(entity) {
			continue
		}
		name := entity
		if known {
			name = canonical
		}
		idx := strings.Index(strings.ToLower(w.text), lower)
		if idx < 0 {
			idx = len(w.text)
		}
		out = append(out, Candidate{
			Name:       name,
			Type:       ClassifyTargetType(name),
			Confidence: scoreCandidate(w, idx, known),
			Mechanism:  mechanismNear(w.text),
			Method:     "ner",
		})
	}
	return out
}

// targetLikeMorphology prüft, ob eine erkannte Entität wie ein Target
// aussieht (Gen-Symbol oder typische Endung).
var geneSymbolRegex = regexp.MustCompile(`^[A-Z][A-Z0-9-]{1,9}$`)

func targetLikeMorphology(s string) bool {
	if geneSymbolRegex.MatchString(s) {
		return true
	}
	lower := strings.ToLower(s)
	return strings.HasSuffix(lower, "ase") ||
		strings.HasSuffix(lower, "mab") ||
		strings.HasSuffix(lower, "nib")
}

// ClassifyTargetType ordnet einem Target-Namen einen groben Typ zu.
func ClassifyTargetType(name string) string {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "ase") {
		return "Enzyme"
	}
	if strings.HasSuffix(lower, "in") {
		return "Protein"
	}
	alpha := 0
	for _, r := range name {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' {
			alpha++
		}
	}
	if alpha <= 6 {
		return "Gene/Protein"
	}
	return "Protein"
}

func classifyByPattern(kind, match string) string {
	switch kind {
	case "enzyme":
		return "Enzyme"
	case "protein", "antibody":
		return "Protein"
	case "kinase_inhibitor":
		return "Protein"
	default:
		return ClassifyTargetType(match)
	}
}

// contextWindow ist ein Textausschnitt um eine Drug-Erwähnung.
// mentionOffset ist die Position der Erwähnung relativ zum Fensteranfang.
type contextWindow struct {
	text          string
	mentionOffset int
}

// contextWindows schneidet für jede Erwähnung des Medikaments ein
// symmetrisches Fenster aus dem Text.
func contextWindows(text, drugName string, window int) []contextWindow {
	if strings.TrimSpace(drugName) == "" || text == "" {
		return nil
	}
	lowerText := strings.ToLower(text)
	lowerDrug := strings.ToLower(drugName)

	var out []contextWindow
	for from := 0; ; {
		idx := strings.Index(lowerText[from:], lowerDrug)
		if idx < 0 {
			break
		}
		idx += from
		start := idx - window
		if start < 0 {
			start = 0
		}
		end := idx + len(lowerDrug) + window
		if end > len(text) {
			end = len(text)
		}
		out = append(out, contextWindow{text: text[start:end], mentionOffset: idx - start})
		from = idx + len(lowerDrug)
	}
	return out
}

// scoreCandidate berechnet die Konfidenz eines Kandidaten:
// Basis 0.5, +0.3 Vokabular, +0.1 je Mechanismus-Indikator im Fenster,
// +0.1 Distanzbonus unter 200 Zeichen, Deckel 1.0.
func scoreCandidate(w contextWindow, candidateOffset int, inVocabulary bool) float64 {
	score := 0.5
	if inVocabulary {
		score += 0.3
	}
	lowerWindow := strings.ToLower(w.text)
	for _, kw := range mechanismKeywords {
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

// mechanismNear liefert den ersten Mechanismus-Satzteil im Fenster.
func mechanismNear(window string) string {
	lower := strings.ToLower(window)
	for _, kw := range mechanismKeywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		end := idx + 120
		if end > len(window) {
			end = len(window)
		}
		snippet := window[idx:end]
		if cut := strings.IndexAny(snippet, ".;\n"); cut > 0 {
			snippet = snippet[:cut]
		}
		return strings.TrimSpace(snippet)
	}
	return ""
}

// rankCandidates dedupliziert case-insensitiv (höchste Konfidenz gewinnt),
// verwirft alles unter 0.3 und liefert die Top-N absteigend sortiert.
func rankCandidates(candidates []Candidate, limit int) []Candidate {
	best := map[string]Candidate{}
	for _, c := range candidates {
		if c.Confidence < 0.3 {
			continue
		}
		key := strings.ToLower(c.Name)
		if prev, ok := best[key]; !ok || c.Confidence > prev.Confidence {
			best[key] = c
		}
	}
	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
