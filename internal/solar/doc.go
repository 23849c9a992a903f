// Package solar computes the solar power entering a window from the sun
// position, the window geometry and the ambient irradiance.
//
// The package is pure computation: no I/O, no state, no clocks. Compute
// applies the visibility check, the incidence cosine and the geometric
// shadow factor to the resolved physical parameters of a window and
// produces a CalculationResult.
//
// The shadow model: an overhang of a configured depth casts a projected
// shadow normalised against a fixed 1 m reference dimension, and the
// attenuation never falls below 0.1 so diffuse-driven decisions downstream
// stay live. The interpolation curve is contractual; see ShadowFactor.
package solar
