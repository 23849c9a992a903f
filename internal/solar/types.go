package solar

// State is an immutable snapshot of the environment for one evaluation
// run. It is constructed fresh per run from the sensor state provider,
// never mutated, and discarded afterwards.
type State struct {
	// Radiation is the global solar irradiance in W/m², >= 0.
	Radiation float64

	// SunAzimuth is the sun's compass azimuth in degrees (0–360).
	SunAzimuth float64

	// SunElevation is the sun's elevation in degrees (-90–90).
	SunElevation float64

	// OutdoorTemp is the outdoor air temperature in °C.
	OutdoorTemp float64

	// IndoorTemp is the indoor temperature of the room behind the window
	// being evaluated, in °C. Only meaningful when HasIndoorTemp is true.
	IndoorTemp float64

	// HasIndoorTemp reports whether an indoor temperature source was
	// available for the window. Temperature-gated scenarios degrade to
	// "no shading" without one.
	HasIndoorTemp bool

	// ForecastTemp is the forecast maximum temperature in °C. Zero means
	// no forecast is available.
	ForecastTemp float64

	// WeatherWarning forces shading on regardless of scenarios.
	WeatherWarning bool

	// MaintenanceMode disables shading decisions entirely.
	MaintenanceMode bool

	// MinRadiation is the fleet-configured irradiance gate in W/m².
	// Compute clamps it to MinRadiationFloor, so zero means "engine
	// floor only".
	MinRadiation float64

	// MinElevation is the fleet-configured sun elevation gate in
	// degrees. Compute clamps it to MinElevationFloor.
	MinElevation float64

	// Hour is the current local hour (0–23), used by the forecast
	// scenario's start-hour gate.
	Hour int
}

// CalculationResult is the per-window output record of one evaluation.
// It is created once per window per run and treated as immutable by all
// consumers.
type CalculationResult struct {
	PowerTotal   float64 `json:"power_total"`
	PowerDirect  float64 `json:"power_direct"`
	PowerDiffuse float64 `json:"power_diffuse"`

	// Raw values are computed without shadow attenuation.
	PowerDirectRaw float64 `json:"power_direct_raw"`
	PowerTotalRaw  float64 `json:"power_total_raw"`

	// Per-area metrics, in W/m². Degenerate geometry divides by 1.
	PowerM2Total   float64 `json:"power_m2_total"`
	PowerM2Direct  float64 `json:"power_m2_direct"`
	PowerM2Diffuse float64 `json:"power_m2_diffuse"`
	PowerM2Raw     float64 `json:"power_m2_raw"`

	// ShadowFactor is the multiplicative attenuation applied to direct
	// power, in [0.1, 1.0].
	ShadowFactor float64 `json:"shadow_factor"`

	// AreaM2 is the glass area in m², >= 0.
	AreaM2 float64 `json:"area_m2"`

	// IsVisible reports whether the sun is within the window's visibility
	// bounds. When false, PowerDirect is zero.
	IsVisible bool `json:"is_visible"`

	// ShadeRequired and ShadeReason carry the shading verdict. The power
	// calculator leaves them at their zero values; the scenario evaluator
	// fills them in.
	ShadeRequired bool   `json:"shade_required"`
	ShadeReason   string `json:"shade_reason"`

	// EffectiveThreshold is the direct power threshold (W) the verdict
	// was measured against.
	EffectiveThreshold float64 `json:"effective_threshold"`
}
