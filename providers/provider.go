package providers

import "biopartner-insights/models"

// RawItem ist ein unverarbeitetes Fundstück eines Collectors, bevor es zu
// einem Document geparst wird.
type RawItem struct {
	SourceURL  string
	Title      string
	Body       []byte
	SourceType string
}

// Collector ist das Interface, das jede Dokument-Quelle (z.B. lokale Dumps,
// Seed-Korpus) implementieren muss. Die Extraktion hängt nur an dieser
// Schnittstelle, nie an konkreten Quellen.
type Collector interface {
	// Collect liefert Rohdaten für die angefragten Unternehmen.
	Collect(companies []string) ([]RawItem, error)

	// Parse wandelt ein Rohdatum in persistierbare Dokumente um.
	Parse(raw RawItem) ([]*models.Document, error)

	// Name gibt den eindeutigen Namen des Collectors zurück (z.B. "fsdump").
	Name() string
}
