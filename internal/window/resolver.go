package window

import (
	"fmt"
	"math"
)

// Logger is the minimal logging interface the resolver needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// noopLogger satisfies Logger when no logger is configured.
type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Resolver merges the three configuration layers into one EffectiveConfig
// per window. It is stateless; one instance can serve all windows.
type Resolver struct {
	logger Logger
}

// NewResolver creates a resolver. A nil logger disables warning output.
func NewResolver(logger Logger) *Resolver {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Resolver{logger: logger}
}

// Resolve merges global, group and window layers into an EffectiveConfig.
//
// The global layer is the base for every field. The group layer (which may
// be nil) overlays fields whose values are not inheritance sentinels, then
// the window layer overlays with the same rule. A field still unresolved
// after all overlays is an error: the global layer is contractually
// required to define every scalar field as a non-inheritable baseline.
//
// The returned SourceMap records, per field, which layer supplied the
// final value.
//
// Parameters:
//   - global: Fleet-wide base layer (required)
//   - group: Group layer, or nil when the window belongs to no group
//   - win: Window layer (required; may be empty)
//
// Returns:
//   - EffectiveConfig: Fully resolved, concrete configuration
//   - SourceMap: Per-field provenance for diagnostics
//   - error: ErrGlobalMissing, ErrFieldUnresolved or ErrInvalidValue
func (r *Resolver) Resolve(global, group, win ConfigLayer) (EffectiveConfig, SourceMap, error) {
	if global == nil {
		return EffectiveConfig{}, nil, ErrGlobalMissing
	}

	sources := make(SourceMap, len(requiredNumericFields)+2)
	fields := make(map[string]float64, len(requiredNumericFields))

	for _, field := range requiredNumericFields {
		value, source, ok := overlay(field, global, group, win)
		if !ok {
			return EffectiveConfig{}, nil, fmt.Errorf("%w: %s", ErrFieldUnresolved, field)
		}
		f, err := value.AsFloat()
		if err != nil {
			return EffectiveConfig{}, nil, fmt.Errorf("field %s: %w", field, err)
		}
		fields[field] = f
		sources[field] = source
	}

	scenarioB, sourceB := r.resolveTriState(FieldScenarioBEnable, global, group, win)
	scenarioC, sourceC := r.resolveTriState(FieldScenarioCEnable, global, group, win)
	sources[FieldScenarioBEnable] = sourceB
	sources[FieldScenarioCEnable] = sourceC

	cfg := EffectiveConfig{
		Thresholds: Thresholds{
			Direct:  fields[FieldThresholdDirect],
			Diffuse: fields[FieldThresholdDiffuse],
		},
		Temperatures: Temperatures{
			IndoorBase:  fields[FieldTempIndoorBase],
			OutdoorBase: fields[FieldTempOutdoorBase],
		},
		Physical: Physical{
			GValue:        fields[FieldGValue],
			FrameWidth:    fields[FieldFrameWidth],
			DiffuseFactor: fields[FieldDiffuseFactor],
			Tilt:          fields[FieldTilt],
		},
		Geometry: Geometry{
			Width:        fields[FieldWindowWidth],
			Height:       fields[FieldWindowHeight],
			Azimuth:      fields[FieldAzimuth],
			ElevationMin: fields[FieldElevationMin],
			ElevationMax: fields[FieldElevationMax],
			AzimuthMin:   fields[FieldAzimuthMin],
			AzimuthMax:   fields[FieldAzimuthMax],
			ShadowDepth:  fields[FieldShadowDepth],
			ShadowOffset: fields[FieldShadowOffset],
		},
		ScenarioB: ScenarioB{
			Enabled:           scenarioB,
			TempIndoorOffset:  fields[FieldScenarioBIndoorOffset],
			TempOutdoorOffset: fields[FieldScenarioBOutdoorOffset],
		},
		ScenarioC: ScenarioC{
			Enabled:               scenarioC,
			TempForecastThreshold: fields[FieldScenarioCForecast],
			StartHour:             int(math.Round(fields[FieldScenarioCStartHour])),
		},
	}

	return cfg, sources, nil
}

// overlay resolves one field across the three layers: global as base,
// group then window overriding unless the value is an inheritance
// sentinel. Returns the winning value, its source, and whether any layer
// supplied a concrete value at all.
func overlay(field string, global, group, win ConfigLayer) (Value, string, bool) {
	value, source, resolved := Value{}, "", false

	if v, ok := global.Get(field); ok && !v.IsInherit() {
		value, source, resolved = v, SourceGlobal, true
	}
	if v, ok := group.Get(field); ok && !v.IsInherit() {
		value, source, resolved = v, SourceGroup, true
	}
	if v, ok := win.Get(field); ok && !v.IsInherit() {
		value, source, resolved = v, SourceWindow, true
	}

	return value, source, resolved
}

// resolveTriState resolves a scenario enablement flag.
//
// Window and group layers hold tri-state values (enable/disable/inherit);
// the global layer holds a plain boolean. A window-level concrete value
// wins, then the group's, then the global flag. Values outside the
// tri-state domain cannot resolve to a concrete state and are treated as
// disabled with a logged warning, never as an error.
func (r *Resolver) resolveTriState(field string, global, group, win ConfigLayer) (bool, string) {
	if v, ok := win.Get(field); ok && !v.IsInherit() {
		if enabled, ok := triStateConcrete(v); ok {
			return enabled, SourceWindow
		}
		r.logger.Warn("ambiguous scenario enablement, treating as disabled",
			"field", field, "layer", SourceWindow)
		return false, SourceWindow
	}

	if v, ok := group.Get(field); ok && !v.IsInherit() {
		if enabled, ok := triStateConcrete(v); ok {
			return enabled, SourceGroup
		}
		r.logger.Warn("ambiguous scenario enablement, treating as disabled",
			"field", field, "layer", SourceGroup)
		return false, SourceGroup
	}

	v, ok := global.Get(field)
	if !ok || v.IsInherit() {
		// Global carries no flag: the scenario defaults to off.
		return false, SourceGlobal
	}
	enabled, err := v.AsBool()
	if err != nil {
		r.logger.Warn("ambiguous scenario enablement, treating as disabled",
			"field", field, "layer", SourceGlobal)
		return false, SourceGlobal
	}
	return enabled, SourceGlobal
}

// triStateConcrete maps a tri-state layer value to a boolean.
// The second return is false when the value is outside the domain.
func triStateConcrete(v Value) (bool, bool) {
	s, err := v.AsString()
	if err != nil {
		// Booleans are accepted from legacy layers.
		if b, berr := v.AsBool(); berr == nil {
			return b, true
		}
		return false, false
	}
	switch TriState(s) {
	case TriStateEnable:
		return true, true
	case TriStateDisable:
		return false, true
	default:
		if b, berr := v.AsBool(); berr == nil {
			return b, true
		}
		return false, false
	}
}
