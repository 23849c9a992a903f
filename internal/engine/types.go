package engine

import (
	"sync"
	"time"

	"github.com/solarward/solarward-core/internal/solar"
)

// AggregatedPower is the power sum over a group's member windows.
type AggregatedPower struct {
	Name         string  `json:"name"`
	PowerTotal   float64 `json:"power_total"`
	PowerDirect  float64 `json:"power_direct"`
	PowerDiffuse float64 `json:"power_diffuse"`
	WindowCount  int     `json:"window_count"`
}

// Summary is the fleet-level rollup of one batch run.
type Summary struct {
	TotalPower      float64   `json:"total_power"`
	TotalDirect     float64   `json:"total_direct"`
	TotalDiffuse    float64   `json:"total_diffuse"`
	WindowCount     int       `json:"window_count"`
	ShadingCount    int       `json:"shading_count"`
	ErrorCount      int       `json:"error_count"`
	CalculationTime time.Time `json:"calculation_time"`
	Duration        int64     `json:"duration_ms"`
}

// WindowResult pairs a window's identity with its calculation output.
type WindowResult struct {
	Name   string                  `json:"name"`
	Result solar.CalculationResult `json:"result"`

	// Err carries the resolution or calculation failure for this window,
	// if any. The batch itself never fails because of one window.
	Err string `json:"error,omitempty"`
}

// BatchResult is the outcome of one batch run over the whole fleet.
type BatchResult struct {
	Windows map[string]WindowResult    `json:"windows"`
	Groups  map[string]AggregatedPower `json:"groups"`
	Summary Summary                    `json:"summary"`
}

// ResultStore holds the most recent batch result for consumers outside
// the run loop (HTTP API, WebSocket hub).
//
// Thread Safety: all methods are safe for concurrent use.
type ResultStore struct {
	mu     sync.RWMutex
	latest *BatchResult
}

// NewResultStore creates an empty result store.
func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Set replaces the stored result.
func (s *ResultStore) Set(result *BatchResult) {
	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()
}

// Latest returns the most recent batch result, or nil when no run has
// completed yet.
func (s *ResultStore) Latest() *BatchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
