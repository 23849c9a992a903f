package solar

import (
	"math"

	"github.com/solarward/solarward-core/internal/window"
)

// Shadow factor bounds and model constants.
const (
	// shadowFactorFloor is the minimum attenuation. Direct power is never
	// fully extinguished so diffuse-driven logic downstream keeps working.
	shadowFactorFloor = 0.1

	// shadowReferenceHeight is the fixed reference dimension (m) the
	// effective shadow length is normalised by. The interpolation curve
	// over this constant is the contract; it is deliberately not derived
	// from the actual window height.
	shadowReferenceHeight = 1.0

	// minTan guards the shadow projection against grazing-incidence
	// singularities.
	minTan = 1e-3
)

// Visible reports whether the sun can shine directly onto the window.
//
// True iff the sun elevation lies within the geometry's elevation bounds
// and the normalised azimuth delta between sun and window normal lies
// within the (window-relative) azimuth bounds.
func Visible(sunAzimuth, sunElevation float64, g window.Geometry) bool {
	if sunElevation < g.ElevationMin || sunElevation > g.ElevationMax {
		return false
	}
	delta := azimuthDelta(sunAzimuth, g.Azimuth)
	return delta >= g.AzimuthMin && delta <= g.AzimuthMax
}

// IncidenceCosine returns the cosine of the angle between the sun ray and
// the window normal, from the standard spherical formula. Only positive
// values contribute to direct power.
func IncidenceCosine(sunAzimuth, sunElevation, windowAzimuth, tilt float64) float64 {
	sunEl := radians(sunElevation)
	sunAz := radians(sunAzimuth)
	winAz := radians(windowAzimuth)
	tiltRad := radians(tilt)

	return math.Sin(sunEl)*math.Cos(tiltRad) +
		math.Cos(sunEl)*math.Sin(tiltRad)*math.Cos(sunAz-winAz)
}

// ShadowFactor computes the geometric attenuation an overhang casts on
// the window, in [0.1, 1.0].
//
// The overhang's projected shadow length is shadowDepth / tan(elevation),
// reduced by shadowOffset (clamped at zero) and normalised by the fixed
// reference dimension. The factor interpolates linearly between 1.0 (no
// shadow) and the 0.1 floor, then an azimuth-alignment term weakens the
// shadow as the sun moves away from the window normal.
//
// A sun at or below the horizon returns 1.0: direct power is already zero
// there, so attenuation is meaningless.
func ShadowFactor(sunElevation, sunAzimuth, windowAzimuth, shadowDepth, shadowOffset float64) float64 {
	if shadowDepth <= 0 && shadowOffset <= 0 {
		return 1.0
	}

	sunEl := radians(sunElevation)
	if sunEl <= 0 {
		return 1.0
	}

	azFactor := math.Max(0, math.Cos(radians(azimuthDelta(sunAzimuth, windowAzimuth))))

	shadowLength := shadowDepth / math.Max(math.Tan(sunEl), minTan)
	effectiveShadow := math.Max(0, shadowLength-shadowOffset)

	if effectiveShadow <= 0 {
		return 1.0
	}
	if effectiveShadow >= shadowReferenceHeight {
		return shadowFactorFloor
	}

	factor := 1.0 - (1.0-shadowFactorFloor)*(effectiveShadow/shadowReferenceHeight)
	// A sun aligned with the window normal shades fully; an oblique sun
	// blends the factor back towards 1.0.
	factor = factor*azFactor + (1.0 - azFactor)

	return math.Max(shadowFactorFloor, math.Min(1.0, factor))
}

// azimuthDelta normalises the difference between two compass azimuths
// into [-180, 180).
func azimuthDelta(sunAzimuth, windowAzimuth float64) float64 {
	return math.Mod(math.Mod(sunAzimuth-windowAzimuth+180, 360)+360, 360) - 180
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
