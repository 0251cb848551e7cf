// Roomcast Core - Presence-Aware Announcement Router
//
// This is the main entry point for the Roomcast Core application.
// Roomcast routes spoken announcements to the rooms where people
// actually are:
//   - Room-level presence tracking with occupancy verification
//   - Personalised, optionally AI-enhanced message composition
//   - Per-room and per-person delivery gates
//   - Local-first operation over an MQTT host bridge
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/roomcast/roomcast-core/migrations"

	"github.com/roomcast/roomcast-core/internal/announce"
	"github.com/roomcast/roomcast-core/internal/api"
	"github.com/roomcast/roomcast-core/internal/directory"
	"github.com/roomcast/roomcast-core/internal/gate"
	"github.com/roomcast/roomcast-core/internal/host"
	"github.com/roomcast/roomcast-core/internal/infrastructure/config"
	"github.com/roomcast/roomcast-core/internal/infrastructure/database"
	"github.com/roomcast/roomcast-core/internal/infrastructure/influxdb"
	"github.com/roomcast/roomcast-core/internal/infrastructure/logging"
	"github.com/roomcast/roomcast-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Roomcast Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(cfg.Database)
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise the people/rooms directory
	repo := directory.NewSQLiteRepository(db.DB)
	registry := directory.NewRegistry(repo)
	registry.SetLogger(log)

	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading directory: %w", refreshErr)
	}
	log.Info("directory initialised",
		"people", registry.PersonCount(),
		"rooms", registry.RoomCount(),
	)

	// Load delivery gates
	gates := gate.NewSQLiteStore(db.DB)
	if loadErr := gates.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading gates: %w", loadErr)
	}

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional, delivery history)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the host bridge. Retained state topics replay on subscribe,
	// so the entity cache warms before the first announcement.
	bridge := host.NewBridge(mqttClient, byte(cfg.MQTT.QoS))
	bridge.SetLogger(log)
	if startErr := bridge.Start(); startErr != nil {
		return fmt.Errorf("starting host bridge: %w", startErr)
	}
	log.Info("host bridge started")

	// Assemble the announcement pipeline
	dispatcher := announce.NewDispatcher(cfg.Announce, registry, bridge, bridge, bridge, gates, log)
	if influxClient != nil {
		dispatcher.SetRecorder(influxClient)
	}

	// Start the API server, sharing its WebSocket hub with the
	// dispatcher so delivery events reach connected UIs
	apiServer, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Logger:     log,
		Registry:   registry,
		Gates:      gates,
		Dispatcher: dispatcher,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	dispatcher.SetBroadcaster(apiServer.Hub())

	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	// Accept announcement requests from host automations over the bus
	if subErr := bridge.OnAnnounce(busAnnounceHandler(ctx, dispatcher, log)); subErr != nil {
		return fmt.Errorf("subscribing to announce topic: %w", subErr)
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("Roomcast Core stopped")
	return nil
}

// busAnnounceHandler returns the handler for announcement requests
// published on the announce topic. Each request dispatches on its own
// goroutine; TTS delivery can take seconds and the MQTT receive path
// must not stall behind it.
func busAnnounceHandler(ctx context.Context, dispatcher *announce.Dispatcher, log *logging.Logger) func(payload []byte) {
	return func(payload []byte) {
		var req announce.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			log.Warn("ignoring malformed announce request", "error", err)
			return
		}

		go func() {
			if _, err := dispatcher.Announce(ctx, req); err != nil {
				log.Warn("bus announcement failed", "error", err)
			}
		}()
	}
}

// getConfigPath returns the configuration file path.
// Uses ROOMCAST_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ROOMCAST_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - apiServer: API server to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}
