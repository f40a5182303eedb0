package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document repräsentiert einen eingesammelten Rohtext (Pipeline-Seite,
// FDA-Label, Studienregister-Eintrag). Einmal gespeichert unveränderlich;
// Dedup über den Content-Hash.
type Document struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SourceURL     string    `json:"source_url" gorm:"size:1024"`
	Title         string    `json:"title"`
	Content       string    `json:"content" gorm:"type:text"`
	ContentHash   string    `json:"content_hash" gorm:"uniqueIndex;size:64;not null"`
	SourceType    string    `json:"source_type" gorm:"index"`
	RetrievalDate time.Time `json:"retrieval_date"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Document) TableName() string {
	return "documents"
}

// HashContent berechnet den SHA-256-Hash eines Dokumentinhalts.
// Dient als content-addressierter Dedup-Schlüssel.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
