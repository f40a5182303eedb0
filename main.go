package main

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"biopartner-insights/config"
	"biopartner-insights/models"
	"biopartner-insights/providers"
	"biopartner-insights/providers/fsdump"
	"biopartner-insights/providers/seedcorpus"
	"biopartner-insights/services"
	"biopartner-insights/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	documentsProcessedCounter prometheus.Counter
	documentsFailedCounter    prometheus.Counter
	drugsExtractedCounter     prometheus.Counter
	trialsLinkedCounter       prometheus.Counter
	duplicatesMergedCounter   prometheus.Counter
	validationRunsCounter     prometheus.Counter
)

func init() {
	documentsProcessedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "documents_processed_total",
		Help: "Total number of documents processed by entity extraction.",
	})
	documentsFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "documents_failed_total",
		Help: "Total number of documents skipped due to extraction errors.",
	})
	drugsExtractedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drugs_extracted_total",
		Help: "Total number of new drug rows created by extraction.",
	})
	trialsLinkedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trials_linked_total",
		Help: "Total number of drug-trial associations created.",
	})
	duplicatesMergedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicates_merged_total",
		Help: "Total number of duplicate drug groups merged.",
	})
	validationRunsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "validation_runs_total",
		Help: "Total number of ground truth validation runs.",
	})
	prometheus.MustRegister(
		documentsProcessedCounter, documentsFailedCounter, drugsExtractedCounter,
		trialsLinkedCounter, duplicatesMergedCounter, validationRunsCounter,
	)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APIKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	// Explizite Join-Modelle, damit die Kanten eigene Attribute tragen
	if err := db.SetupJoinTable(&models.Drug{}, "Targets", &models.DrugTarget{}); err != nil {
		logging.Fatal("Join table setup failed", zap.Error(err))
	}
	if err := db.SetupJoinTable(&models.Drug{}, "Indications", &models.DrugIndication{}); err != nil {
		logging.Fatal("Join table setup failed", zap.Error(err))
	}
	if err := db.SetupJoinTable(&models.Drug{}, "Trials", &models.DrugTrial{}); err != nil {
		logging.Fatal("Join table setup failed", zap.Error(err))
	}

	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(
		&models.Document{}, &models.Company{}, &models.Drug{},
		&models.Target{}, &models.Indication{}, &models.ClinicalTrial{},
		&models.DrugTarget{}, &models.DrugIndication{}, &models.DrugTrial{},
	); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Seeding: Firmen-Roster und kuratierte Known-Drugs
	seedService := services.NewSeedService(cfg, db, logging)
	if err := seedService.Apply(); err != nil {
		logging.Fatal("Seeding failed", zap.Error(err))
	}

	// Setup Collectors
	var collectors []providers.Collector
	if cfg.ProviderEnabled("fsdump") {
		collectors = append(collectors, fsdump.NewCollector(cfg, logging))
	}
	if cfg.ProviderEnabled("seedcorpus") {
		collectors = append(collectors, seedcorpus.NewCollector(logging))
	}
	if len(collectors) == 0 {
		logging.Warn("No collectors enabled, extraction will only see stored documents")
	}

	// Setup Services
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}
	collectService := services.NewCollectService(cfg, db, logging, collectors)
	extractor := services.NewEntityExtractor(cfg, db, logging)
	confidence := services.NewConfidenceService(db, logging)
	maintenance := services.NewMaintenanceService(db, logging)
	validator := services.NewGroundTruthValidator(cfg, db, logging)

	rosterNames := func() []string {
		roster := seedService.LoadCompanyRoster()
		names := make([]string, 0, len(roster))
		for _, entry := range roster {
			names = append(names, entry.Name)
		}
		return names
	}

	runPipeline := func() {
		if _, err := collectService.Run(rosterNames()); err != nil {
			logging.Error("Collect run failed", zap.Error(err))
			return
		}
		result, err := extractor.Run()
		if err != nil {
			logging.Error("Extraction run failed", zap.Error(err))
			return
		}
		documentsProcessedCounter.Add(float64(result.DocumentsProcessed))
		documentsFailedCounter.Add(float64(result.DocumentsFailed))
		drugsExtractedCounter.Add(float64(result.DrugsCreated))
		trialsLinkedCounter.Add(float64(result.TrialsLinked))

		tasks, merged := maintenance.Run()
		duplicatesMergedCounter.Add(float64(merged))
		for _, task := range tasks {
			if !task.Success {
				logging.Error("Maintenance task failed",
					zap.String("task", task.Task), zap.String("details", task.Details))
			}
		}

		if _, err := confidence.Run(); err != nil {
			logging.Error("Confidence run failed", zap.Error(err))
			return
		}

		report, err := validator.RunFullValidation()
		if err != nil {
			logging.Error("Validation run failed", zap.Error(err))
			return
		}
		validationRunsCounter.Inc()
		if _, err := validator.SaveResults(report); err != nil {
			logging.Error("Saving validation results failed", zap.Error(err))
		}
		rendered := services.RenderReport(report)
		if link, err := storage.UploadReport(s3Client, cfg, "validation-report.txt", []byte(rendered)); err != nil {
			logging.Error("Report upload failed", zap.Error(err))
		} else {
			logging.Info("Report uploaded", zap.String("link", link))
		}
	}

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := router.Group("/", apiKeyAuthMiddleware(cfg))
	setupCompanyRoutes(authed, db, logging)
	setupDrugRoutes(authed, db, logging)
	setupTrialRoutes(authed, db, logging)
	setupRunRoutes(authed, logging, collectService, extractor, confidence, maintenance, validator, rosterNames)

	// Setup Cron
	if cfg.CronEnabled {
		cronScheduler := cron.New()
		if _, err := cronScheduler.AddFunc(cfg.CronSchedule, func() {
			logging.Info("Running scheduled pipeline job...")
			runPipeline()
		}); err != nil {
			logging.Fatal("Invalid cron schedule", zap.Error(err))
		}
		cronScheduler.Start()
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupCompanyRoutes(rg *gin.RouterGroup, db *gorm.DB, log *zap.Logger) {
	companies := rg.Group("/companies")

	companies.GET("/", func(c *gin.Context) {
		var rows []models.Company
		if err := db.Order("name").Find(&rows).Error; err != nil {
			log.Error("Database query for companies failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	companies.GET("/:id/drugs", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
			return
		}
		var rows []models.Drug
		if err := db.Where("company_id = ?", id).
			Preload("Targets").Preload("Indications").Preload("Trials").
			Order("generic_name").Find(&rows).Error; err != nil {
			log.Error("Database query for company drugs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})
}

func setupDrugRoutes(rg *gin.RouterGroup, db *gorm.DB, log *zap.Logger) {
	drugs := rg.Group("/drugs")

	drugs.GET("/", func(c *gin.Context) {
		query := db.Model(&models.Drug{})
		if q := c.Query("q"); q != "" {
			query = query.Where("generic_name ILIKE ? OR brand_name ILIKE ?", "%"+q+"%", "%"+q+"%")
		}
		if min := c.Query("min_confidence"); min != "" {
			minVal, err := strconv.ParseFloat(min, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_confidence"})
				return
			}
			query = query.Where("overall_confidence >= ?", minVal)
		}
		var rows []models.Drug
		if err := query.Order("overall_confidence desc, generic_name").Find(&rows).Error; err != nil {
			log.Error("Database query for drugs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	drugs.GET("/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid drug id"})
			return
		}
		var drug models.Drug
		if err := db.Preload("Targets").Preload("Indications").Preload("Trials").
			First(&drug, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "drug not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"drug":             drug,
			"nct_codes":        drug.NCTCodes(),
			"confidence_label": services.FormatConfidence(drug.OverallConfidence),
		})
	})
}

func setupTrialRoutes(rg *gin.RouterGroup, db *gorm.DB, log *zap.Logger) {
	trials := rg.Group("/trials")

	trials.GET("/", func(c *gin.Context) {
		var rows []models.ClinicalTrial
		if err := db.Order("nct_id").Find(&rows).Error; err != nil {
			log.Error("Database query for trials failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	trials.GET("/:nct_id", func(c *gin.Context) {
		var trial models.ClinicalTrial
		if err := db.Where("nct_id = ?", c.Param("nct_id")).First(&trial).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "trial not found"})
			return
		}
		c.JSON(http.StatusOK, trial)
	})
}

func setupRunRoutes(
	rg *gin.RouterGroup,
	log *zap.Logger,
	collectService *services.CollectService,
	extractor *services.EntityExtractor,
	confidence *services.ConfidenceService,
	maintenance *services.MaintenanceService,
	validator *services.GroundTruthValidator,
	rosterNames func() []string,
) {
	runs := rg.Group("/runs")

	runs.POST("/collect", func(c *gin.Context) {
		count, err := collectService.Run(rosterNames())
		if err != nil {
			log.Error("Collect run failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"new_documents": count})
	})

	runs.POST("/extract", func(c *gin.Context) {
		result, err := extractor.Run()
		if err != nil {
			log.Error("Extraction run failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		documentsProcessedCounter.Add(float64(result.DocumentsProcessed))
		documentsFailedCounter.Add(float64(result.DocumentsFailed))
		drugsExtractedCounter.Add(float64(result.DrugsCreated))
		trialsLinkedCounter.Add(float64(result.TrialsLinked))
		c.JSON(http.StatusOK, result)
	})

	runs.POST("/dedup", func(c *gin.Context) {
		results, merged := maintenance.Run()
		duplicatesMergedCounter.Add(float64(merged))
		c.JSON(http.StatusOK, gin.H{"tasks": results})
	})

	runs.POST("/confidence", func(c *gin.Context) {
		updated, err := confidence.Run()
		if err != nil {
			log.Error("Confidence run failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": updated})
	})

	runs.POST("/validate", func(c *gin.Context) {
		report, err := validator.RunFullValidation()
		if err != nil {
			log.Error("Validation run failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		validationRunsCounter.Inc()
		if _, err := validator.SaveResults(report); err != nil {
			log.Warn("Saving validation results failed", zap.Error(err))
		}
		c.JSON(http.StatusOK, report)
	})

	runs.GET("/summary", func(c *gin.Context) {
		summary, err := maintenance.CollectionSummary()
		if err != nil {
			log.Error("Collection summary failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.String(http.StatusOK, summary)
	})

	runs.GET("/report", func(c *gin.Context) {
		report, err := validator.RunFullValidation()
		if err != nil {
			log.Error("Validation run failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.String(http.StatusOK, services.RenderReport(report))
	})
}
