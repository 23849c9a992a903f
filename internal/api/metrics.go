package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	MQTT          MQTTMetrics     `json:"mqtt"`
	Engine        EngineMetrics   `json:"engine"`
	Database      DatabaseMetrics `json:"database"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// EngineMetrics contains calculation engine statistics from the last run.
type EngineMetrics struct {
	LastRun      string  `json:"last_run,omitempty"`
	WindowCount  int     `json:"window_count"`
	ShadingCount int     `json:"shading_count"`
	ErrorCount   int     `json:"error_count"`
	TotalPowerW  float64 `json:"total_power_w"`
	DurationMs   int64   `json:"duration_ms"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int `json:"open_connections"`
	InUse           int `json:"in_use"`
	Idle            int `json:"idle"`
}

// bytesPerMB converts bytes to megabytes.
const bytesPerMB = 1024 * 1024

// handleMetrics returns system-wide operational metrics.
//
// GET /metrics
// Response: SystemMetrics JSON
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(mem.Alloc) / bytesPerMB,
			MemoryTotalMB: float64(mem.TotalAlloc) / bytesPerMB,
			NumGC:         mem.NumGC,
		},
	}

	if s.hub != nil {
		metrics.WebSocket.ConnectedClients = s.hub.ClientCount()
	}
	if s.mqtt != nil {
		metrics.MQTT.Connected = s.mqtt.IsConnected()
	}
	if latest := s.results.Latest(); latest != nil {
		metrics.Engine = EngineMetrics{
			LastRun:      latest.Summary.CalculationTime.UTC().Format(time.RFC3339),
			WindowCount:  latest.Summary.WindowCount,
			ShadingCount: latest.Summary.ShadingCount,
			ErrorCount:   latest.Summary.ErrorCount,
			TotalPowerW:  latest.Summary.TotalPower,
			DurationMs:   latest.Summary.Duration,
		}
	}
	if s.db != nil {
		stats := s.db.Stats()
		metrics.Database = DatabaseMetrics{
			OpenConnections: stats.OpenConnections,
			InUse:           stats.InUse,
			Idle:            stats.Idle,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
