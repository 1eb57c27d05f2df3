package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/bgremove"
	"github.com/promoforge-inc/promoforge-engine/pkg/colorx"
	"github.com/promoforge-inc/promoforge-engine/pkg/config"
	"github.com/promoforge-inc/promoforge-engine/pkg/database"
	"github.com/promoforge-inc/promoforge-engine/pkg/handlers"
	"github.com/promoforge-inc/promoforge-engine/pkg/layout"
	"github.com/promoforge-inc/promoforge-engine/pkg/logging"
	"github.com/promoforge-inc/promoforge-engine/pkg/render"
	"github.com/promoforge-inc/promoforge-engine/pkg/repositories"
	"github.com/promoforge-inc/promoforge-engine/pkg/services"
	"github.com/promoforge-inc/promoforge-engine/pkg/templates"
)

// Version is set at build time via ldflags
var Version = "dev"

// Engine bundles the assembled services. Embedding hosts hand these to
// their own transport; this binary only keeps them alive behind the
// health probe.
type Engine struct {
	Profiles   services.ProfileService
	Banners    services.BannerService
	Bandit     services.BanditService
	Terms      services.TermLearnService
	Teach      services.TeachService
	Compliance services.ComplianceService
	Reports    services.CTRReportService
}

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Log startup configuration
	log.Printf("Configuration loaded:")
	log.Printf("  Environment: %s", cfg.Env)
	log.Printf("  Database: %s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	log.Printf("  Output dir: %s", cfg.Render.OutputDir)
	log.Printf("  Background removal: %s", cfg.Removal.Mode)
	log.Printf("  Copywriter: %s", orDisabled(cfg.Copywriter.Provider))

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "promoforge-engine")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		log.Fatalf("Failed to open migration connection: %v", err)
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	_ = sqlDB.Close()

	engine, registry, err := assemble(cfg, db, logger)
	if err != nil {
		log.Fatalf("Failed to assemble engine: %v", err)
	}
	log.Printf("Engine assembled (%d markets, %d templates)",
		len(engine.Compliance.Markets()), len(registry.IDs()))

	mux := http.NewServeMux()
	healthHandler := handlers.NewHealthHandler(cfg, registry.IDs, logger)
	healthHandler.RegisterRoutes(mux)

	log.Printf("Starting promoforge-engine on port %s (version: %s)", cfg.Port, cfg.Version)
	if err := http.ListenAndServe(cfg.BindAddr+":"+cfg.Port, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// assemble wires every service from configuration, bottom up.
func assemble(cfg *config.Config, db *database.DB, logger *zap.Logger) (*Engine, *templates.Registry, error) {
	profileRepo := repositories.NewProfileRepository(db)
	statsRepo := repositories.NewABStatsRepository(db)
	dictRepo := repositories.NewTermDictionaryRepository(db)
	termStatsRepo := repositories.NewTermStatsRepository(db)
	teachRepo := repositories.NewTeachSampleRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)

	registry := templates.NewBuiltinRegistry()
	adjuster := layout.NewAdjuster(layout.DefaultThresholds(), logger)
	remover := bgremove.New(cfg.Removal, filepath.Join(cfg.Render.CacheDir, "cutouts"), logger)
	cache, err := colorx.NewCache(cfg.Render.CacheDir, logger)
	if err != nil {
		return nil, nil, err
	}
	pipeline := render.NewPipeline(cfg.Render, registry, adjuster, remover, cache, logger)

	compliance, err := services.NewComplianceService(cfg.Compliance.DictionaryDir, logger)
	if err != nil {
		return nil, nil, err
	}
	profiles := services.NewProfileService(profileRepo, logger)
	terms := services.NewTermLearnService(dictRepo, termStatsRepo, logger)
	teach := services.NewTeachService(teachRepo, logger)
	copywriter, err := services.NewCopywriterService(cfg.Copywriter, teach, logger)
	if err != nil {
		return nil, nil, err
	}
	banners := services.NewBannerService(profiles, terms, copywriter, compliance, pipeline, logger)
	bandit := services.NewBanditService(cfg.Bandit, statsRepo, sessionRepo, pipeline, registry.IDs, nil, logger)

	return &Engine{
		Profiles:   profiles,
		Banners:    banners,
		Bandit:     bandit,
		Terms:      terms,
		Teach:      teach,
		Compliance: compliance,
		Reports:    services.NewCTRReportService(logger),
	}, registry, nil
}

func orDisabled(s string) string {
	if s == "" {
		return "disabled"
	}
	return s
}
