// Solarward - Solar Window Shading Engine
//
// This is the main entry point for the Solarward service. Solarward
// watches the sun and the building's environment sensors, computes the
// solar power entering every configured window, and decides per window
// whether shading is required.
//
// Data flow:
//   - Sensor states arrive over MQTT (solarward/sensor/+)
//   - The engine runs on a fixed interval over the whole fleet
//   - Verdicts go back out over MQTT, into InfluxDB, and to WebSocket
//     subscribers via the REST API server
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/solarward/solarward-core/migrations"

	"github.com/solarward/solarward-core/internal/api"
	"github.com/solarward/solarward-core/internal/engine"
	"github.com/solarward/solarward-core/internal/infrastructure/config"
	"github.com/solarward/solarward-core/internal/infrastructure/database"
	"github.com/solarward/solarward-core/internal/infrastructure/influxdb"
	"github.com/solarward/solarward-core/internal/infrastructure/logging"
	"github.com/solarward/solarward-core/internal/infrastructure/mqtt"
	"github.com/solarward/solarward-core/internal/sensors"
	"github.com/solarward/solarward-core/internal/shading"
	"github.com/solarward/solarward-core/internal/window"
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

// sensorStateMaxAge is how long a sensor report stays usable. Beyond
// this the engine falls back to defaults, same as a sensor that never
// reported.
const sensorStateMaxAge = 15 * time.Minute

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
	log.Info("starting Solarward",
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Window fleet repository
	repo := window.NewSQLiteRepository(db.DB)

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
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Sensor state store, fed by the MQTT sensor topic family
	sensorStore := sensors.NewStore(sensorStateMaxAge, log)
	if attachErr := sensorStore.Attach(mqttClient, byte(cfg.MQTT.QoS)); attachErr != nil {
		return fmt.Errorf("attaching sensor store: %w", attachErr)
	}
	log.Info("sensor store attached", "topic", mqtt.Topics{}.AllSensorStates())

	// Connect to InfluxDB (optional)
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

	// Calculation engine
	states := engine.NewStateCache(sensorStore, cfg.GetCacheTTL())
	orch := engine.NewOrchestrator(
		window.NewResolver(log),
		shading.NewEvaluator(log),
		states,
		engine.Sensors{
			SolarRadiation: cfg.Sensors.SolarRadiation,
			SunPosition:    cfg.Sensors.SunPosition,
			OutdoorTemp:    cfg.Sensors.OutdoorTemp,
			ForecastTemp:   cfg.Sensors.ForecastTemp,
			WeatherWarning: cfg.Sensors.WeatherWarning,
		},
		cfg.Engine.MaxParallel,
		log,
	)
	if cfg.Site.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Site.Timezone)
		if err != nil {
			log.Warn("invalid site timezone, using UTC",
				"timezone", cfg.Site.Timezone, "error", err)
		} else {
			orch.SetLocation(loc)
		}
	}
	results := engine.NewResultStore()

	// WebSocket hub, shared between the API server and the engine loop
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// API server
	apiServer, err := api.New(api.Deps{
		Config:  cfg.API,
		WS:      cfg.WebSocket,
		Logger:  log,
		Repo:    repo,
		Results: results,
		MQTT:    mqttClient,
		DB:      db.DB,
		Hub:     hub,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, starting engine loop",
		"interval", cfg.GetEngineInterval(),
	)

	// The engine loop runs in this goroutine until shutdown. Runs are
	// sequential, so a slow run delays the next tick instead of piling up.
	loop := &engineLoop{
		repo:    repo,
		orch:    orch,
		results: results,
		mqtt:    mqttClient,
		influx:  influxClient,
		hub:     hub,
		qos:     byte(cfg.MQTT.QoS),
		logger:  log,
	}
	loop.run(ctx, cfg.GetEngineInterval())

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("Solarward stopped")
	return nil
}

// engineLoop drives periodic batch runs and fans results out to MQTT,
// InfluxDB, the WebSocket hub, and the result store.
type engineLoop struct {
	repo    window.Repository
	orch    *engine.Orchestrator
	results *engine.ResultStore
	mqtt    *mqtt.Client
	influx  *influxdb.Client
	hub     *api.Hub
	qos     byte
	logger  *logging.Logger
}

// run executes one batch immediately, then on every tick until the
// context is cancelled.
func (l *engineLoop) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.runOnce(ctx)
		}
	}
}

// runOnce loads the fleet, executes one batch run, and publishes the
// outcome. Failures are logged, never fatal; the next tick retries from
// scratch.
func (l *engineLoop) runOnce(ctx context.Context) {
	global, err := l.repo.GlobalLayer(ctx)
	if err != nil {
		l.logger.Error("loading global config", "error", err)
		return
	}
	if len(global) == 0 {
		l.logger.Warn("global config is empty, skipping run")
		return
	}
	groups, err := l.repo.ListGroups(ctx)
	if err != nil {
		l.logger.Error("loading groups", "error", err)
		return
	}
	windows, err := l.repo.ListWindows(ctx)
	if err != nil {
		l.logger.Error("loading windows", "error", err)
		return
	}

	batch, err := l.orch.Run(ctx, global, groups, windows)
	if err != nil {
		l.logger.Error("batch run failed", "error", err)
		return
	}

	l.results.Set(batch)
	l.publish(batch)

	l.logger.Info("batch run complete",
		"windows", batch.Summary.WindowCount,
		"shading", batch.Summary.ShadingCount,
		"errors", batch.Summary.ErrorCount,
		"total_power_w", batch.Summary.TotalPower,
		"duration_ms", batch.Summary.Duration,
	)
}

// publish fans one batch result out to MQTT, InfluxDB, and WebSocket
// subscribers. MQTT verdicts are retained so actuators that reconnect
// see the current state immediately.
func (l *engineLoop) publish(batch *engine.BatchResult) {
	topics := mqtt.Topics{}

	for id, res := range batch.Windows {
		l.publishJSON(topics.WindowVerdict(id), res, true)
		if l.influx != nil && res.Err == "" {
			l.influx.WriteWindowPower(id, res.Result)
		}
		l.hub.Broadcast(api.ChannelWindowVerdict, map[string]any{
			"window_id": id,
			"result":    res,
		})
	}

	for id, agg := range batch.Groups {
		l.publishJSON(topics.GroupPower(id), agg, true)
		if l.influx != nil {
			l.influx.WriteGroupPower(id, agg)
		}
	}

	l.publishJSON(topics.BatchSummary(), batch.Summary, false)
	if l.influx != nil {
		l.influx.WriteBatchSummary(batch.Summary)
	}

	l.hub.Broadcast(api.ChannelBatchCompleted, batch.Summary)
}

// publishJSON marshals and publishes one payload, logging failures.
func (l *engineLoop) publishJSON(topic string, payload any, retained bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		l.logger.Error("marshalling publish payload", "topic", topic, "error", err)
		return
	}
	if err := l.mqtt.Publish(topic, data, l.qos, retained); err != nil {
		l.logger.Warn("publishing result", "topic", topic, "error", err)
	}
}

// getConfigPath returns the configuration file path.
// Uses SOLARWARD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SOLARWARD_CONFIG"); path != "" {
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
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
