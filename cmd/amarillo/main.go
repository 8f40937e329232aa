// Amarillo - Community WiFi Captive Portal Backend
//
// This is the main entry point for the Amarillo portal backend. It
// serves the management REST API, ingests access point telemetry over
// MQTT, and optionally mirrors heartbeats into InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/JeanClaudeMorales/amarillo/migrations"

	"github.com/JeanClaudeMorales/amarillo/internal/api"
	"github.com/JeanClaudeMorales/amarillo/internal/auth"
	"github.com/JeanClaudeMorales/amarillo/internal/geo"
	"github.com/JeanClaudeMorales/amarillo/internal/infrastructure/config"
	"github.com/JeanClaudeMorales/amarillo/internal/infrastructure/database"
	"github.com/JeanClaudeMorales/amarillo/internal/infrastructure/influxdb"
	"github.com/JeanClaudeMorales/amarillo/internal/infrastructure/logging"
	"github.com/JeanClaudeMorales/amarillo/internal/infrastructure/mqtt"
	"github.com/JeanClaudeMorales/amarillo/internal/portal"
	"github.com/JeanClaudeMorales/amarillo/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Amarillo",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	geoRepo := geo.NewSQLiteRepository(db.DB)
	adminRepo := auth.NewAdminRepository(db.DB)
	sessions := auth.NewSessionManager(db.DB, cfg.SessionTTL())
	accessPoints := portal.NewAccessPointRepository(db.DB, geoRepo)
	users := portal.NewPortalUserRepository(db.DB, geoRepo)
	questions := portal.NewQuestionRepository(db.DB)
	portalConfig := portal.NewConfigRepository(db.DB)
	dashboard := portal.NewDashboardRepository(db.DB)

	// First boot: create the initial superadmin account. The generated
	// password is logged once inside SeedSuperadmin.
	if _, seedErr := auth.SeedSuperadmin(ctx, adminRepo, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding superadmin: %w", seedErr)
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			influxClient.Close()
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to MQTT and start telemetry ingestion (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			mqttClient.Close()
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		ingestor := telemetry.NewIngestor(accessPoints, influxClient, log.Logger)
		if startErr := ingestor.Start(mqttClient); startErr != nil {
			return fmt.Errorf("starting telemetry ingestor: %w", startErr)
		}
		log.Info("telemetry ingestor started")
	} else {
		log.Info("MQTT disabled, access point telemetry unavailable")
	}

	// Start the HTTP API server
	server, err := api.New(api.Deps{
		Config:       cfg.API,
		Logger:       log,
		Admins:       adminRepo,
		Sessions:     sessions,
		Geo:          geoRepo,
		AccessPoints: accessPoints,
		Users:        users,
		Questions:    questions,
		PortalConfig: portalConfig,
		Dashboard:    dashboard,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. MQTT (if enabled)
	// 3. InfluxDB (if enabled)
	// 4. Database

	log.Info("Amarillo stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses AMARILLO_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AMARILLO_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
