package services

import (
	"fmt"

	"biopartner-insights/config"
	"biopartner-insights/models"
	"biopartner-insights/providers"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectService holt Dokumente aus allen aktivierten Quellen und
// persistiert sie content-addressiert. Bereits bekannte Inhalte werden
// über den Hash verworfen.
type CollectService struct {
	Config     *config.Config
	DB         *gorm.DB
	Logger     *zap.Logger
	Collectors []providers.Collector
}

// NewCollectService erstellt den Collect-Service.
func NewCollectService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, collectors []providers.Collector) *CollectService {
	return &CollectService{Config: cfg, DB: db, Logger: logger, Collectors: collectors}
}

// Run sammelt über alle Quellen ein und liefert die Anzahl neu
// gespeicherter Dokumente. Fehler einzelner Quellen oder Items werden
// geloggt, der Lauf geht weiter.
func (cs *CollectService) Run(companies []string) (int, error) {
	stored := 0
	for _, collector := range cs.Collectors {
		log := cs.Logger.With(zap.String("collector", collector.Name()))

		items, err := collector.Collect(companies)
		if err != nil {
			log.Error("Collector fehlgeschlagen", zap.Error(err))
			continue
		}
		for _, item := range items {
			docs, err := collector.Parse(item)
			if err != nil {
				log.Warn("Rohdatum nicht parsebar",
					zap.String("source_url", item.SourceURL), zap.Error(err))
				continue
			}
			for _, doc := range docs {
				created, err := cs.storeDocument(doc)
				if err != nil {
					log.Warn("Dokument nicht speicherbar",
						zap.String("source_url", doc.SourceURL), zap.Error(err))
					continue
				}
				if created {
					stored++
				}
			}
		}
		log.Info("Quelle abgeschlossen", zap.Int("items", len(items)))
	}
	cs.Logger.Info("Collect-Lauf abgeschlossen", zap.Int("new_documents", stored))
	return stored, nil
}

// storeDocument legt ein Dokument an, sofern der Content-Hash neu ist.
func (cs *CollectService) storeDocument(doc *models.Document) (bool, error) {
	if doc.ContentHash == "" {
		return false, fmt.Errorf("dokument ohne content-hash: %s", doc.SourceURL)
	}
	res := cs.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "content_hash"}},
		DoNothing: true,
	}).Create(doc)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
