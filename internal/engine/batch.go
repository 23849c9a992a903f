package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/solarward/solarward-core/internal/shading"
	"github.com/solarward/solarward-core/internal/solar"
	"github.com/solarward/solarward-core/internal/window"
)

// Logger is the minimal logging interface the orchestrator needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger satisfies Logger when no logger is configured.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Sensors names the fleet-level sensor sources one batch run reads.
// SunPosition is read through attributes (azimuth, elevation); the rest
// are plain state reads.
type Sensors struct {
	SolarRadiation string
	SunPosition    string
	OutdoorTemp    string
	ForecastTemp   string
	WeatherWarning string
}

// defaultSunPosition is the conventional sun tracker source id.
const defaultSunPosition = "sun.sun"

// defaultMaxParallel bounds concurrent window evaluations when the
// caller configures no limit.
const defaultMaxParallel = 8

// Orchestrator drives one batch run: it snapshots the fleet sensor
// state, resolves and evaluates every window with bounded parallelism,
// and aggregates the per-group and fleet-level results.
//
// A failing window never fails the batch; its error is recorded in the
// result and the run continues.
type Orchestrator struct {
	resolver  *window.Resolver
	evaluator *shading.Evaluator
	states    *StateCache
	sensors   Sensors
	logger    Logger

	maxParallel int
	now         func() time.Time
	location    *time.Location
}

// NewOrchestrator creates a batch orchestrator.
//
// Parameters:
//   - resolver: Configuration layer resolver (required)
//   - evaluator: Shading scenario evaluator (required)
//   - states: Run-scoped sensor state cache (required)
//   - sensors: Fleet sensor source ids
//   - maxParallel: Concurrent window evaluation limit (0 = default)
//   - logger: Structured logger, or nil for silence
func NewOrchestrator(resolver *window.Resolver, evaluator *shading.Evaluator, states *StateCache, sensors Sensors, maxParallel int, logger Logger) *Orchestrator {
	if logger == nil {
		logger = noopLogger{}
	}
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}
	if sensors.SunPosition == "" {
		sensors.SunPosition = defaultSunPosition
	}
	return &Orchestrator{
		resolver:    resolver,
		evaluator:   evaluator,
		states:      states,
		sensors:     sensors,
		logger:      logger,
		maxParallel: maxParallel,
		now:         time.Now,
		location:    time.UTC,
	}
}

// SetLocation sets the timezone used for the hour-gated scenario checks.
// The default is UTC.
func (o *Orchestrator) SetLocation(loc *time.Location) {
	if loc != nil {
		o.location = loc
	}
}

// Run executes one batch over the whole fleet.
//
// The state cache is reset first so every window in the run observes the
// same sensor snapshot. Windows are evaluated in parallel up to the
// configured limit; each failure is isolated into that window's result.
//
// Parameters:
//   - ctx: Context for sensor reads
//   - global: Fleet-wide configuration layer (required)
//   - groups: All configured groups
//   - windows: All configured windows
//
// Returns:
//   - *BatchResult: Per-window results, group aggregates and summary
//   - error: window.ErrGlobalMissing when the global layer is nil
func (o *Orchestrator) Run(ctx context.Context, global window.ConfigLayer, groups []window.Group, windows []window.Window) (*BatchResult, error) {
	if global == nil {
		return nil, window.ErrGlobalMissing
	}

	started := o.now()
	result := &BatchResult{
		Windows: make(map[string]WindowResult, len(windows)),
		Groups:  make(map[string]AggregatedPower, len(groups)),
		Summary: Summary{
			CalculationTime: started.UTC(),
		},
	}

	if len(windows) == 0 {
		o.logger.Debug("batch run skipped, no windows configured")
		return result, nil
	}

	o.states.Reset()
	fleet := o.readFleetState(ctx, global)
	factors := readGlobalFactors(global)

	groupsByID := make(map[string]window.Group, len(groups))
	for _, g := range groups {
		groupsByID[g.ID] = g
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, o.maxParallel)
	)

	for _, win := range windows {
		wg.Add(1)
		sem <- struct{}{}
		go func(win window.Window) {
			defer wg.Done()
			defer func() { <-sem }()

			wr := o.evaluateWindow(ctx, win, global, groupsByID, fleet, factors)

			mu.Lock()
			result.Windows[win.ID] = wr
			mu.Unlock()
		}(win)
	}
	wg.Wait()

	o.aggregate(result, groupsByID, windows)
	result.Summary.Duration = o.now().Sub(started).Milliseconds()

	o.logger.Debug("batch run complete",
		"windows", result.Summary.WindowCount,
		"shading", result.Summary.ShadingCount,
		"errors", result.Summary.ErrorCount,
		"total_power", result.Summary.TotalPower,
		"duration_ms", result.Summary.Duration,
	)
	return result, nil
}

// evaluateWindow resolves, calculates and decides for one window. Any
// failure is folded into the returned WindowResult instead of an error.
func (o *Orchestrator) evaluateWindow(ctx context.Context, win window.Window, global window.ConfigLayer, groupsByID map[string]window.Group, fleet solar.State, factors window.GlobalFactors) WindowResult {
	var groupLayer window.ConfigLayer
	kindFactor := 1.0
	if win.GroupID != nil {
		if g, ok := groupsByID[*win.GroupID]; ok {
			groupLayer = g.Overrides
			if g.Kind == window.GroupKindChildren {
				kindFactor = factors.KindFactor
			}
		} else {
			o.logger.Warn("window references unknown group",
				"window", win.ID, "group", *win.GroupID)
		}
	}

	cfg, _, err := o.resolver.Resolve(global, groupLayer, win.Overrides)
	if err != nil {
		o.logger.Warn("window resolution failed", "window", win.ID, "error", err)
		return WindowResult{
			Name: win.Name,
			Result: solar.CalculationResult{
				ShadeReason: fmt.Sprintf("calculation error: %v", err),
			},
			Err: err.Error(),
		}
	}

	cfg = cfg.ApplyFactors(window.GlobalFactors{
		Sensitivity:       factors.Sensitivity,
		KindFactor:        kindFactor,
		TemperatureOffset: factors.TemperatureOffset,
	})

	state := fleet
	if sensor := indoorSensorFor(win, groupLayer, global); sensor != "" {
		raw := o.states.Read(ctx, sensor, "")
		if v := parseFloat(raw, -9999); v != -9999 {
			state.IndoorTemp = v
			state.HasIndoorTemp = true
		}
	}

	calc := solar.Compute(cfg, state)
	calc.ShadeRequired, calc.ShadeReason = o.evaluator.Decide(cfg, calc, state)

	return WindowResult{Name: win.Name, Result: calc}
}

// indoorSensorFor resolves the indoor temperature source for one window
// through the inheritance chain: the window record itself, then the
// window overrides, then the group layer, then the global layer. An
// empty result means the window has no indoor source anywhere.
func indoorSensorFor(win window.Window, group, global window.ConfigLayer) string {
	if win.IndoorSensor != "" {
		return win.IndoorSensor
	}
	for _, layer := range []window.ConfigLayer{win.Overrides, group, global} {
		v, ok := layer.Get(window.FieldIndoorSensor)
		if !ok || v.IsInherit() {
			continue
		}
		if s, err := v.AsString(); err == nil && s != "" {
			return s
		}
	}
	return ""
}

// readFleetState snapshots the fleet-wide sensor inputs shared by every
// window in the run. Indoor temperature is filled in per window.
func (o *Orchestrator) readFleetState(ctx context.Context, global window.ConfigLayer) solar.State {
	state := solar.State{
		Radiation:    parseFloat(o.states.Read(ctx, o.sensors.SolarRadiation, "0"), 0),
		SunAzimuth:   parseFloat(o.states.ReadAttribute(ctx, o.sensors.SunPosition, "azimuth", "0"), 0),
		SunElevation: parseFloat(o.states.ReadAttribute(ctx, o.sensors.SunPosition, "elevation", "-90"), -90),
		Hour:         o.now().In(o.location).Hour(),
	}

	if o.sensors.OutdoorTemp != "" {
		state.OutdoorTemp = parseFloat(o.states.Read(ctx, o.sensors.OutdoorTemp, "0"), 0)
	}
	if o.sensors.ForecastTemp != "" {
		state.ForecastTemp = parseFloat(o.states.Read(ctx, o.sensors.ForecastTemp, "0"), 0)
	}
	if o.sensors.WeatherWarning != "" {
		state.WeatherWarning = parseOnOff(o.states.Read(ctx, o.sensors.WeatherWarning, "off"))
	}

	if v, ok := global.Get(window.FieldMaintenanceMode); ok {
		if b, err := v.AsBool(); err == nil {
			state.MaintenanceMode = b
		}
	}

	if v, ok := global.Get(window.FieldMinRadiation); ok && !v.IsInherit() {
		if f, err := v.AsFloat(); err == nil && f >= 0 {
			state.MinRadiation = f
		}
	}
	if v, ok := global.Get(window.FieldMinElevation); ok && !v.IsInherit() {
		if f, err := v.AsFloat(); err == nil {
			state.MinElevation = f
		}
	}

	return state
}

// readGlobalFactors extracts the fleet-level adjustment factors from the
// global layer. Missing or malformed fields fall back to neutral values.
func readGlobalFactors(global window.ConfigLayer) window.GlobalFactors {
	factors := window.GlobalFactors{Sensitivity: 1, KindFactor: 1}

	if v, ok := global.Get(window.FieldSensitivity); ok && !v.IsInherit() {
		if f, err := v.AsFloat(); err == nil && f > 0 {
			factors.Sensitivity = f
		}
	}
	if v, ok := global.Get(window.FieldChildrenFactor); ok && !v.IsInherit() {
		if f, err := v.AsFloat(); err == nil && f > 0 {
			factors.KindFactor = f
		}
	}
	if v, ok := global.Get(window.FieldTemperatureOffset); ok && !v.IsInherit() {
		if f, err := v.AsFloat(); err == nil {
			factors.TemperatureOffset = f
		}
	}

	return factors
}

// aggregate fills the per-group sums and the fleet summary from the
// per-window results.
func (o *Orchestrator) aggregate(result *BatchResult, groupsByID map[string]window.Group, windows []window.Window) {
	result.Summary.WindowCount = len(result.Windows)

	for _, win := range windows {
		wr, ok := result.Windows[win.ID]
		if !ok {
			continue
		}
		if wr.Err != "" {
			result.Summary.ErrorCount++
			continue
		}

		result.Summary.TotalPower += wr.Result.PowerTotal
		result.Summary.TotalDirect += wr.Result.PowerDirect
		result.Summary.TotalDiffuse += wr.Result.PowerDiffuse
		if wr.Result.ShadeRequired {
			result.Summary.ShadingCount++
		}

		if win.GroupID == nil {
			continue
		}
		g, found := groupsByID[*win.GroupID]
		if !found {
			continue
		}
		agg := result.Groups[g.ID]
		agg.Name = g.Name
		agg.PowerTotal += wr.Result.PowerTotal
		agg.PowerDirect += wr.Result.PowerDirect
		agg.PowerDiffuse += wr.Result.PowerDiffuse
		agg.WindowCount++
		result.Groups[g.ID] = agg
	}
}
