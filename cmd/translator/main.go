// MQTT Topics Translator
//
// The translator subscribes to a fixed set of source topics on one MQTT
// broker and republishes every message, byte for byte, to the destination
// topics configured for it. Destinations are published with QoS 2 and the
// retained flag so late subscribers always see the last translated value.
//
// Configuration: configs/config.yaml (override with TRANSLATOR_CONFIG).
// Mapping document: mapping.file in the configuration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/mqtt-topics-translator/internal/api"
	"github.com/nerrad567/mqtt-topics-translator/internal/audit"
	"github.com/nerrad567/mqtt-topics-translator/internal/connection"
	"github.com/nerrad567/mqtt-topics-translator/internal/heartbeat"
	"github.com/nerrad567/mqtt-topics-translator/internal/infrastructure/config"
	"github.com/nerrad567/mqtt-topics-translator/internal/infrastructure/database"
	"github.com/nerrad567/mqtt-topics-translator/internal/infrastructure/influxdb"
	"github.com/nerrad567/mqtt-topics-translator/internal/infrastructure/logging"
	"github.com/nerrad567/mqtt-topics-translator/internal/infrastructure/mqtt"
	"github.com/nerrad567/mqtt-topics-translator/internal/mapping"
	"github.com/nerrad567/mqtt-topics-translator/internal/router"
	"github.com/nerrad567/mqtt-topics-translator/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the translator and blocks until ctx is cancelled.
// Deferred calls tear components down in reverse start order, so the
// connection manager stops before the journal and clients it reports to.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // Linear startup sequence
	log := logging.Default()
	log.Info("starting MQTT topics translator",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	table, err := mapping.Load(cfg.Mapping.File)
	if err != nil {
		return fmt.Errorf("loading mapping: %w", err)
	}
	log.Info("mapping table loaded",
		"file", cfg.Mapping.File,
		"rules", table.Len(),
		"destinations", table.DestinationCount(),
		"description", table.Description(),
	)

	var (
		recorders []router.Recorder
		observers []connection.Observer
		checks    = make(map[string]api.HealthChecker)
		auditRepo api.AuditReader
	)

	// Audit journal (optional)
	if cfg.Database.Enabled {
		db, dbErr := database.Open(cfg.Database)
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database ready", "path", db.Path())

		repo := audit.NewSQLiteRepository(db.DB)
		journal := audit.NewJournal(repo, log.Component("audit"), 0)
		journal.Start()
		defer func() {
			journal.Stop()
			if dropped := journal.Dropped(); dropped > 0 {
				log.Warn("audit entries dropped", "count", dropped)
			}
		}()

		recorders = append(recorders, journal)
		observers = append(observers, journal)
		checks["database"] = db
		auditRepo = repo
	} else {
		log.Info("audit journal disabled")
	}

	// Forwarding telemetry (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)

		metrics := influxMetrics{writer: influxClient}
		recorders = append(recorders, metrics)
		observers = append(observers, metrics)
		checks["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// WebSocket hub, created early so it can observe the first connect.
	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.WebSocket, log.Component("websocket"))
		go hub.Run(ctx)
		recorders = append(recorders, hub)
		observers = append(observers, hub)
	}

	mqttClient := mqtt.New(cfg.MQTT, log.Component("mqtt"))
	defer func() {
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT client", "error", closeErr)
		}
	}()
	checks["mqtt"] = mqttClient

	rtr, err := router.New(router.Options{
		Table:     table,
		Publisher: mqttClient,
		Logger:    log.Component("router"),
		Recorders: recorders,
	})
	if err != nil {
		return fmt.Errorf("creating router: %w", err)
	}

	mgr, err := connection.New(connection.Options{
		Client:       brokerAdapter{client: mqttClient},
		Router:       rtr,
		Table:        table,
		Connect:      connectOptions(cfg.MQTT),
		SubscribeQoS: byte(cfg.MQTT.SubscribeQoS), // #nosec G115 -- validated 0..2
		Reconnect:    reconnectPolicy(cfg.MQTT.Reconnect),
		Logger:       log.Component("connection"),
		Observers:    observers,
	})
	if err != nil {
		return fmt.Errorf("creating connection manager: %w", err)
	}

	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("starting connection: %w", err)
	}
	defer func() {
		log.Info("stopping connection")
		mgr.Stop()
	}()
	log.Info("connected to MQTT broker",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			Logger:     log.Component("api"),
			Connection: mgr,
			Stats:      rtr,
			Table:      table,
			Audit:      auditRepo,
			Checks:     checks,
			Hub:        hub,
			Version:    version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if interval := cfg.GetHeartbeatInterval(); interval > 0 {
		reporter, hbErr := heartbeat.New(heartbeat.Options{
			Interval: interval,
			Logger:   log.Component("heartbeat"),
			Stats:    rtr,
			Status:   mgr,
		})
		if hbErr != nil {
			return fmt.Errorf("creating heartbeat: %w", hbErr)
		}
		reporter.Start(ctx)
		defer reporter.Stop()
	}

	log.Info("translator running", "topics", len(table.SubscriptionTopics()))

	<-ctx.Done()
	log.Info("shutdown signal received")

	return nil
}

// getConfigPath returns TRANSLATOR_CONFIG, or the default path.
func getConfigPath() string {
	if path := os.Getenv("TRANSLATOR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
