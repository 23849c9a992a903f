package window

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// valueKind discriminates the states of a configuration Value.
type valueKind int

const (
	kindInherit valueKind = iota
	kindString
	kindFloat
	kindBool
)

// Value is a single configuration field in a layer.
//
// A Value is either concrete (string, number, or boolean) or the explicit
// inheritance sentinel, meaning "defer to the parent layer". The legacy
// marker values from older installations (empty string, "inherit", "-1",
// numeric -1) are recognised as sentinels too, so zero and false remain
// valid concrete values.
type Value struct {
	kind valueKind
	str  string
	num  float64
	b    bool
}

// Inherit returns the explicit inheritance sentinel.
func Inherit() Value {
	return Value{kind: kindInherit}
}

// String returns a concrete string Value.
func String(s string) Value {
	return Value{kind: kindString, str: s}
}

// Float returns a concrete numeric Value.
func Float(f float64) Value {
	return Value{kind: kindFloat, num: f}
}

// Bool returns a concrete boolean Value.
func Bool(b bool) Value {
	return Value{kind: kindBool, b: b}
}

// IsInherit reports whether the value defers to the parent layer.
//
// Besides the explicit sentinel this covers the legacy marker forms:
// empty string, "inherit", "-1" and numeric -1.
func (v Value) IsInherit() bool {
	switch v.kind {
	case kindInherit:
		return true
	case kindString:
		s := strings.TrimSpace(v.str)
		return s == "" || s == "inherit" || s == "-1"
	case kindFloat:
		return v.num == -1
	default:
		return false
	}
}

// AsFloat converts the value to a float64.
//
// Strings are parsed; booleans and sentinels are rejected.
func (v Value) AsFloat() (float64, error) {
	switch v.kind {
	case kindFloat:
		return v.num, nil
	case kindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not numeric", ErrInvalidValue, v.str)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: not a number", ErrInvalidValue)
	}
}

// AsBool converts the value to a bool.
//
// Accepts booleans and the string forms "true"/"false"/"on"/"off"/"enable"/"disable".
func (v Value) AsBool() (bool, error) {
	switch v.kind {
	case kindBool:
		return v.b, nil
	case kindString:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "true", "on", "enable", "enabled", "1":
			return true, nil
		case "false", "off", "disable", "disabled", "0":
			return false, nil
		}
		return false, fmt.Errorf("%w: %q is not boolean", ErrInvalidValue, v.str)
	default:
		return false, fmt.Errorf("%w: not a boolean", ErrInvalidValue)
	}
}

// AsString converts the value to a string.
func (v Value) AsString() (string, error) {
	switch v.kind {
	case kindString:
		return v.str, nil
	case kindFloat:
		return strconv.FormatFloat(v.num, 'g', -1, 64), nil
	case kindBool:
		return strconv.FormatBool(v.b), nil
	default:
		return "", fmt.Errorf("%w: inherit sentinel has no string form", ErrInvalidValue)
	}
}

// UnmarshalJSON decodes a layer value from its stored JSON form.
// null decodes to the inheritance sentinel.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Inherit()
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding layer value: %w", err)
	}

	switch t := raw.(type) {
	case string:
		*v = String(t)
	case float64:
		*v = Float(t)
	case bool:
		*v = Bool(t)
	default:
		return fmt.Errorf("%w: unsupported JSON type %T", ErrInvalidValue, raw)
	}
	return nil
}

// MarshalJSON encodes a layer value back to JSON. The inheritance
// sentinel encodes to null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindString:
		return json.Marshal(v.str)
	case kindFloat:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("%w: non-finite number", ErrInvalidValue)
		}
		return json.Marshal(v.num)
	case kindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// ConfigLayer is one configuration layer: a flat mapping of field name to
// value. Layers are immutable snapshots supplied per evaluation run; the
// resolver never mutates them.
type ConfigLayer map[string]Value

// Get returns the value for a field, if present.
func (l ConfigLayer) Get(field string) (Value, bool) {
	if l == nil {
		return Value{}, false
	}
	v, ok := l[field]
	return v, ok
}

// TriState is the scenario enablement domain used at group and window
// level: enable, disable, or defer to the parent layer.
type TriState string

// TriState values.
const (
	TriStateEnable  TriState = "enable"
	TriStateDisable TriState = "disable"
	TriStateInherit TriState = "inherit"
)

// TriStateValue wraps a tri-state enablement as a layer value.
func TriStateValue(s TriState) Value {
	return String(string(s))
}

// Layer sources recorded in a SourceMap.
const (
	SourceGlobal = "global"
	SourceGroup  = "group"
	SourceWindow = "window"
)

// SourceMap records, per flat field name, which layer supplied the final
// resolved value. It is derived diagnostic data, never authoritative.
type SourceMap map[string]string

// Flat field names shared by all three configuration layers.
const (
	FieldThresholdDirect        = "threshold_direct"
	FieldThresholdDiffuse       = "threshold_diffuse"
	FieldTempIndoorBase         = "temperature_indoor_base"
	FieldTempOutdoorBase        = "temperature_outdoor_base"
	FieldGValue                 = "g_value"
	FieldFrameWidth             = "frame_width"
	FieldDiffuseFactor          = "diffuse_factor"
	FieldTilt                   = "tilt"
	FieldWindowWidth            = "window_width"
	FieldWindowHeight           = "window_height"
	FieldAzimuth                = "azimuth"
	FieldElevationMin           = "elevation_min"
	FieldElevationMax           = "elevation_max"
	FieldAzimuthMin             = "azimuth_min"
	FieldAzimuthMax             = "azimuth_max"
	FieldShadowDepth            = "shadow_depth"
	FieldShadowOffset           = "shadow_offset"
	FieldScenarioBEnable        = "scenario_b_enable"
	FieldScenarioBIndoorOffset  = "scenario_b_temp_indoor_offset"
	FieldScenarioBOutdoorOffset = "scenario_b_temp_outdoor_offset"
	FieldScenarioCEnable        = "scenario_c_enable"
	FieldScenarioCForecast      = "scenario_c_temp_forecast"
	FieldScenarioCStartHour     = "scenario_c_start_hour"
)

// FieldIndoorSensor names the indoor temperature source for a window.
// Resolvable through all three layers; a window record's own sensor
// column takes precedence over the layers.
const FieldIndoorSensor = "indoor_sensor"

// Fleet-level adjustment fields, read from the global layer only.
const (
	FieldSensitivity       = "sensitivity"
	FieldChildrenFactor    = "children_factor"
	FieldTemperatureOffset = "temperature_offset"
	FieldMaintenanceMode   = "maintenance_mode"
	FieldMinRadiation      = "min_radiation"
	FieldMinElevation      = "min_elevation"
)

// requiredNumericFields are the scalar fields the global layer must define
// with a concrete value. Resolution fails if any is missing from all three
// layers.
var requiredNumericFields = []string{
	FieldThresholdDirect,
	FieldThresholdDiffuse,
	FieldTempIndoorBase,
	FieldTempOutdoorBase,
	FieldGValue,
	FieldFrameWidth,
	FieldDiffuseFactor,
	FieldTilt,
	FieldWindowWidth,
	FieldWindowHeight,
	FieldAzimuth,
	FieldElevationMin,
	FieldElevationMax,
	FieldAzimuthMin,
	FieldAzimuthMax,
	FieldShadowDepth,
	FieldShadowOffset,
	FieldScenarioBIndoorOffset,
	FieldScenarioBOutdoorOffset,
	FieldScenarioCForecast,
	FieldScenarioCStartHour,
}

// knownFields is the full set of valid flat field names across all layers.
var knownFields = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, f := range requiredNumericFields {
		m[f] = struct{}{}
	}
	for _, f := range []string{
		FieldScenarioBEnable,
		FieldScenarioCEnable,
		FieldIndoorSensor,
		FieldSensitivity,
		FieldChildrenFactor,
		FieldTemperatureOffset,
		FieldMaintenanceMode,
		FieldMinRadiation,
		FieldMinElevation,
	} {
		m[f] = struct{}{}
	}
	return m
}()

// IsKnownField reports whether the name is a valid configuration field.
func IsKnownField(field string) bool {
	_, ok := knownFields[field]
	return ok
}

// Thresholds are the power thresholds (W) that trigger shading scenarios.
type Thresholds struct {
	Direct  float64
	Diffuse float64
}

// Temperatures are the base temperatures (°C) shading scenarios compare
// against.
type Temperatures struct {
	IndoorBase  float64
	OutdoorBase float64
}

// Physical holds the physical glazing parameters of a window.
type Physical struct {
	GValue        float64 // solar heat gain coefficient
	FrameWidth    float64 // m
	DiffuseFactor float64 // fraction of radiation that is diffuse
	Tilt          float64 // degrees from horizontal, 90 = vertical
}

// Geometry holds the window dimensions, orientation and shadow model.
// ElevationMin/Max and AzimuthMin/Max bound the sun positions from which
// the window receives direct sun; the azimuth bounds are relative to the
// window's own azimuth.
type Geometry struct {
	Width        float64 // m
	Height       float64 // m
	Azimuth      float64 // degrees, compass orientation of the window normal
	ElevationMin float64
	ElevationMax float64
	AzimuthMin   float64
	AzimuthMax   float64
	ShadowDepth  float64 // m, depth of the overhang casting the shadow
	ShadowOffset float64 // m, distance between overhang and glass
}

// ScenarioB is the diffuse-heat scenario configuration.
type ScenarioB struct {
	Enabled           bool
	TempIndoorOffset  float64
	TempOutdoorOffset float64
}

// ScenarioC is the heatwave-forecast scenario configuration.
type ScenarioC struct {
	Enabled               bool
	TempForecastThreshold float64
	StartHour             int
}

// EffectiveConfig is the fully resolved configuration for one window.
// Every field holds a concrete value; resolution fails explicitly rather
// than producing a partially resolved config.
type EffectiveConfig struct {
	Thresholds   Thresholds
	Temperatures Temperatures
	Physical     Physical
	Geometry     Geometry
	ScenarioB    ScenarioB
	ScenarioC    ScenarioC
}

// GlobalFactors are the fleet-level adjustments applied to a resolved
// configuration before evaluation: sensitivity scales both thresholds
// down, the group-kind factor scales them back up for less sensitive
// groups, and the temperature offset shifts both temperature bases.
type GlobalFactors struct {
	Sensitivity       float64
	KindFactor        float64
	TemperatureOffset float64
}

// ApplyFactors returns a copy of the config with the fleet-level
// adjustments applied. Non-positive sensitivity and kind factors are
// treated as 1 to keep thresholds finite.
func (c EffectiveConfig) ApplyFactors(f GlobalFactors) EffectiveConfig {
	sensitivity := f.Sensitivity
	if sensitivity <= 0 {
		sensitivity = 1
	}
	kindFactor := f.KindFactor
	if kindFactor <= 0 {
		kindFactor = 1
	}

	c.Thresholds.Direct = c.Thresholds.Direct / sensitivity * kindFactor
	c.Thresholds.Diffuse = c.Thresholds.Diffuse / sensitivity * kindFactor
	c.Temperatures.IndoorBase += f.TemperatureOffset
	c.Temperatures.OutdoorBase += f.TemperatureOffset
	return c
}

// GroupKindChildren marks groups whose thresholds are scaled by the
// fleet children factor.
const GroupKindChildren = "children"

// Window is one configured physical window.
type Window struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	GroupID      *string     `json:"group_id,omitempty"`
	IndoorSensor string      `json:"indoor_sensor,omitempty"`
	Overrides    ConfigLayer `json:"overrides"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Group is a named set of windows sharing a configuration layer.
type Group struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Kind      string      `json:"kind"`
	Overrides ConfigLayer `json:"overrides"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
