package seedcorpus

import (
	"strings"
	"time"

	"biopartner-insights/models"
	"biopartner-insights/providers"

	"go.uber.org/zap"
)

// fixture ist ein kuratierter Dokument-Auszug für den Erstbetrieb.
type fixture struct {
	company    string
	sourceURL  string
	title      string
	sourceType string
	content    string
}

// Kuratierte Auszüge realer Pipeline- und Label-Texte. Halten die Pipeline
// auch ohne vorherige Collector-Läufe lauffähig.
var fixtures = []fixture{
	{
		company:    "Merck & Co.",
		sourceURL:  "https://www.merck.com/research/product-pipeline/",
		title:      "Merck & Co. oncology pipeline",
		sourceType: "company_pipeline",
		content: `About Merck & Co., Inc. Our oncology pipeline includes Pembrolizumab ` +
			`(KEYTRUDA), a monoclonal antibody that targets the PD-1 receptor and blocks its ` +
			`interaction with PD-L1, indicated for melanoma and non-small cell lung cancer ` +
			`(NCT03765918, NCT03867084). Patritumab Deruxtecan is an anti-HER3 antibody-drug ` +
			`conjugate in development for breast cancer (NCT04619004). Nemtabrutinib inhibits ` +
			`BTK and is studied in chronic lymphocytic leukemia (NCT03162536).`,
	},
	{
		company:    "Bristol Myers Squibb",
		sourceURL:  "https://www.bms.com/researchers-and-partners/in-the-pipeline.html",
		title:      "Bristol Myers Squibb pipeline",
		sourceType: "company_pipeline",
		content: `About Bristol Myers Squibb. Nivolumab (OPDIVO) is a monoclonal antibody ` +
			`that binds to the PD-1 receptor, approved for melanoma and renal cell carcinoma ` +
			`(NCT03066778). Ipilimumab targets CTLA-4 and is indicated for melanoma therapy ` +
			`(NCT04736706).`,
	},
	{
		company:    "Merck & Co.",
		sourceURL:  "https://www.fda.gov/drugs/resources-information-approved-drugs/keytruda",
		title:      "FDA approval: KEYTRUDA",
		sourceType: "fda_drug_approval",
		content: `INDICATIONS AND USAGE: KEYTRUDA (pembrolizumab) is a programmed death ` +
			`receptor-1 (PD-1)-blocking antibody indicated for the treatment of patients with ` +
			`unresectable or metastatic melanoma. Effective time: 20140904. Pembrolizumab ` +
			`blocks PD-1 and is studied in NCT05116189 and NCT04191096.`,
	},
}

// Collector liefert den eingebauten Seed-Korpus als Dokumente aus.
type Collector struct {
	Logger *zap.Logger
}

// NewCollector erstellt eine neue Instanz des Seed-Collectors.
func NewCollector(logger *zap.Logger) *Collector {
	return &Collector{Logger: logger}
}

// Name gibt den Namen des Collectors zurück.
func (c *Collector) Name() string {
	return "seedcorpus"
}

// Collect liefert die Fixtures für die angefragten Unternehmen.
// Bei leerer Liste werden alle Fixtures geliefert.
func (c *Collector) Collect(companies []string) ([]providers.RawItem, error) {
	wanted := map[string]bool{}
	for _, name := range companies {
		wanted[strings.ToLower(strings.TrimSpace(name))] = true
	}

	var items []providers.RawItem
	for _, f := range fixtures {
		if len(wanted) > 0 && !wanted[strings.ToLower(f.company)] {
			continue
		}
		items = append(items, providers.RawItem{
			SourceURL:  f.sourceURL,
			Title:      f.title,
			Body:       []byte(f.content),
			SourceType: f.sourceType,
		})
	}
	c.Logger.Info("Seed-Korpus geliefert", zap.Int("documents", len(items)))
	return items, nil
}

// Parse wandelt ein Fixture-Rohdatum in ein Document um.
func (c *Collector) Parse(raw providers.RawItem) ([]*models.Document, error) {
	content := strings.TrimSpace(string(raw.Body))
	doc := &models.Document{
		SourceURL:     raw.SourceURL,
		Title:         raw.Title,
		Content:       content,
		ContentHash:   models.HashContent(content),
		SourceType:    raw.SourceType,
		RetrievalDate: time.Now().UTC(),
	}
	return []*models.Document{doc}, nil
}
