package fsdump

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"biopartner-insights/config"
	"biopartner-insights/models"
	"biopartner-insights/providers"

	"go.uber.org/zap"
)

// Erkannte Dateiendungen im Dump-Verzeichnis.
var textExtensions = map[string]bool{
	".txt":  true,
	".text": true,
	".md":   true,
}

// Collector liest lokal abgelegte Dokument-Dumps ein. Die Collector-Läufe
// gegen FDA, ClinicalTrials.gov etc. legen ihre Ergebnisse als Textdateien
// ab; diese Quelle macht sie der Extraktion zugänglich, ohne dass die
// Pipeline selbst Netzwerk-I/O betreibt.
//
// Dateinamenkonvention: <source_type>__<slug>.txt, z.B.
// "fda_drug_approval__keytruda.txt". Optionale Metadaten stehen als
// Kopfzeilen "url: ..." und "title: ..." vor der ersten Leerzeile.
type Collector struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewCollector erstellt eine neue Instanz des Dump-Collectors.
func NewCollector(cfg *config.Config, logger *zap.Logger) *Collector {
	return &Collector{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Collectors zurück.
func (c *Collector) Name() string {
	return "fsdump"
}

// Collect liest alle Textdateien aus dem Dump-Verzeichnis.
// Der companies-Parameter wird hier ignoriert: die Dumps sind bereits
// pro Unternehmen eingesammelt worden.
func (c *Collector) Collect(companies []string) ([]providers.RawItem, error) {
	dir := c.Config.DocumentDumpDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			c.Logger.Warn("Dump-Verzeichnis existiert nicht, überspringe", zap.String("dir", dir))
			return nil, nil
		}
		return nil, fmt.Errorf("dump-verzeichnis lesen: %w", err)
	}

	var items []providers.RawItem
	for _, entry := range entries {
		if entry.IsDir() || !textExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		body, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			c.Logger.Warn("Dump-Datei nicht lesbar, überspringe",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		items = append(items, providers.RawItem{
			SourceURL:  "file://" + filepath.Join(dir, entry.Name()),
			Title:      titleFromFilename(entry.Name()),
			Body:       body,
			SourceType: sourceTypeFromFilename(entry.Name()),
		})
	}

	c.Logger.Info("Dump-Collector abgeschlossen", zap.Int("files", len(items)))
	return items, nil
}

// Parse wandelt eine Dump-Datei in ein Document um. Kopfzeilen vor der
// ersten Leerzeile überschreiben URL und Titel.
func (c *Collector) Parse(raw providers.RawItem) ([]*models.Document, error) {
	content := string(raw.Body)
	sourceURL := raw.SourceURL
	title := raw.Title

	if head, rest, ok := strings.Cut(content, "\n\n"); ok {
		matchedHeader := false
		for _, line := range strings.Split(head, "\n") {
			if v, ok := strings.CutPrefix(line, "url: "); ok {
				sourceURL = strings.TrimSpace(v)
				matchedHeader = true
			} else if v, ok := strings.CutPrefix(line, "title: "); ok {
				title = strings.TrimSpace(v)
				matchedHeader = true
			}
		}
		if matchedHeader {
			content = rest
		}
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("leeres dokument: %s", raw.SourceURL)
	}

	doc := &models.Document{
		SourceURL:     sourceURL,
		Title:         title,
		Content:       content,
		ContentHash:   models.HashContent(content),
		SourceType:    raw.SourceType,
		RetrievalDate: time.Now().UTC(),
	}
	return []*models.Document{doc}, nil
}

// sourceTypeFromFilename extrahiert den Quelltyp aus dem Präfix vor "__".
func sourceTypeFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if prefix, _, ok := strings.Cut(base, "__"); ok {
		return prefix
	}
	return "company_pipeline"
}

func titleFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if _, slug, ok := strings.Cut(base, "__"); ok {
		base = slug
	}
	return strings.ReplaceAll(base, "-", " ")
}
