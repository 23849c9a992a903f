package solar

import (
	"math"

	"github.com/solarward/solarward-core/internal/window"
)

// Engine floors for the minimum-input gates. The fleet may raise the
// gates through State.MinRadiation and State.MinElevation but never
// lower them below these.
const (
	// MinRadiationFloor is the irradiance (W/m²) below which the
	// calculation always short-circuits to an all-zero result.
	MinRadiationFloor = 1e-3

	// MinElevationFloor is the sun elevation (degrees) below which the
	// calculation always short-circuits to an all-zero result.
	MinElevationFloor = 0.0
)

// Compute calculates the solar power entering one window.
//
// It is a pure function of the resolved configuration and the state
// snapshot: identical inputs yield identical results. The verdict fields
// (ShadeRequired, ShadeReason) are left at their zero values; deciding is
// the scenario evaluator's responsibility.
//
// Behaviour:
//   - radiation or sun elevation below the minimum-input gates yields
//     an all-zero, not-visible result
//   - diffuse power is always computed, independent of visibility
//   - direct power requires visibility and a positive incidence cosine,
//     and is attenuated by the geometric shadow factor
//   - degenerate glass area yields zero power rather than an error
func Compute(cfg window.EffectiveConfig, state State) CalculationResult {
	result := CalculationResult{
		ShadowFactor:       1.0,
		EffectiveThreshold: cfg.Thresholds.Direct,
	}

	minRadiation := math.Max(state.MinRadiation, MinRadiationFloor)
	minElevation := math.Max(state.MinElevation, MinElevationFloor)
	if state.Radiation < minRadiation || state.SunElevation < minElevation {
		return result
	}

	glassWidth := math.Max(0, cfg.Geometry.Width-2*cfg.Physical.FrameWidth)
	glassHeight := math.Max(0, cfg.Geometry.Height-2*cfg.Physical.FrameWidth)
	area := glassWidth * glassHeight
	result.AreaM2 = area

	// Diffuse power ignores the shadow model entirely.
	result.PowerDiffuse = state.Radiation * cfg.Physical.DiffuseFactor * area * cfg.Physical.GValue

	if Visible(state.SunAzimuth, state.SunElevation, cfg.Geometry) {
		result.IsVisible = true

		cosIncidence := IncidenceCosine(state.SunAzimuth, state.SunElevation, cfg.Geometry.Azimuth, cfg.Physical.Tilt)
		sinElevation := math.Sin(radians(state.SunElevation))

		if cosIncidence > 0 && sinElevation > 0 {
			direct := state.Radiation * (1 - cfg.Physical.DiffuseFactor) *
				cosIncidence / sinElevation * area * cfg.Physical.GValue

			result.PowerDirectRaw = direct
			result.ShadowFactor = ShadowFactor(
				state.SunElevation, state.SunAzimuth, cfg.Geometry.Azimuth,
				cfg.Geometry.ShadowDepth, cfg.Geometry.ShadowOffset,
			)
			result.PowerDirect = direct * result.ShadowFactor
		}
	}

	result.PowerTotal = result.PowerDirect + result.PowerDiffuse
	result.PowerTotalRaw = result.PowerDirectRaw + result.PowerDiffuse

	// Degenerate geometry divides by 1 instead of raising.
	perArea := math.Max(area, 1)
	result.PowerM2Total = result.PowerTotal / perArea
	result.PowerM2Direct = result.PowerDirect / perArea
	result.PowerM2Diffuse = result.PowerDiffuse / perArea
	result.PowerM2Raw = result.PowerTotalRaw / perArea

	return result
}
