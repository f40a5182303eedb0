package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
// Die Instanz ist nach Load unveränderlich und wird per Pointer an die
// Services durchgereicht.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`
	APIKey   string `envconfig:"API_KEY" required:"true"`

	// Extraction-Pipeline Schalter
	UseSeedFallback       bool `envconfig:"USE_SEED_FALLBACK" default:"true"`
	ExtractMechanism      bool `envconfig:"EXTRACT_MECHANISM" default:"true"`
	ExtractTargetsFromFDA bool `envconfig:"EXTRACT_TARGETS_FROM_FDA" default:"true"`

	// Fenstergrößen (Zeichen) für die Kontextsuche um Medikamentennamen
	TargetWindow     int `envconfig:"TARGET_WINDOW" default:"200"`
	IndicationWindow int `envconfig:"INDICATION_WINDOW" default:"300"`
	MaxCandidates    int `envconfig:"MAX_CANDIDATES" default:"15"`

	CompaniesCSVPath string `envconfig:"COMPANIES_CSV_PATH" default:"data/companies.csv"`
	GroundTruthPath  string `envconfig:"GROUND_TRUTH_PATH" default:"data/pipeline_ground_truth.xlsx"`
	OutputDir        string `envconfig:"OUTPUT_DIR" default:"outputs"`

	// Schwellen für die Report-Empfehlungen
	DrugF1Min         float64 `envconfig:"DRUG_F1_MIN" default:"0.8"`
	CompanyF1Min      float64 `envconfig:"COMPANY_F1_MIN" default:"0.9"`
	MechanismAccMin   float64 `envconfig:"MECHANISM_ACC_MIN" default:"0.7"`
	TrialCoverageMin  float64 `envconfig:"TRIAL_COVERAGE_MIN" default:"0.5"`

	CronEnabled  bool   `envconfig:"CRON_ENABLED" default:"true"`
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 3 * * 0"`

	// Dokument-Quellen (lokale Dumps der Collector-Läufe)
	DocumentDumpDir  string `envconfig:"DOCUMENT_DUMP_DIR" default:"data/documents"`
	EnabledProviders string `envconfig:"ENABLED_PROVIDERS" default:"fsdump,seedcorpus"`

	StratoS3Key    string `envconfig:"STRATO_S3_KEY" required:"true"`
	StratoS3Secret string `envconfig:"STRATO_S3_SECRET" required:"true"`
	StratoS3URL    string `envconfig:"STRATO_S3_URL" required:"true"`
	StratoS3Region string `envconfig:"STRATO_S3_REGION" required:"true"`
	StratoS3Bucket string `envconfig:"STRATO_S3_BUCKET" required:"true"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// ProviderEnabled prüft, ob ein Collector in ENABLED_PROVIDERS gelistet ist.
func (c *Config) ProviderEnabled(name string) bool {
	for _, p := range strings.Split(c.EnabledProviders, ",") {
		if strings.TrimSpace(strings.ToLower(p)) == name {
			return true
		}
	}
	return false
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
