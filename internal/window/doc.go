// Package window provides the window fleet model and the three-tier
// configuration inheritance resolver for Solarward Core.
//
// Every physical window is configured through three layers: a fleet-wide
// global layer (contractually complete), an optional group layer, and the
// window's own layer. Group and window layers override individual fields;
// a field set to the inheritance sentinel defers to the layer below.
//
// # Key Types
//
//   - Value: tagged union of a concrete scalar or the inheritance sentinel
//   - ConfigLayer: flat field-name → Value snapshot of one layer
//   - Resolver: merges the three layers into an EffectiveConfig
//   - EffectiveConfig: fully resolved, concrete per-window configuration
//   - SourceMap: per-field provenance (global/group/window) for diagnostics
//   - Repository: persistence for windows, groups and the global layer
//
// # Usage
//
//	repo := window.NewSQLiteRepository(db.DB)
//	resolver := window.NewResolver(log)
//
//	global, _ := repo.GlobalLayer(ctx)
//	win, _ := repo.GetWindow(ctx, "window-south-kitchen")
//	cfg, sources, err := resolver.Resolve(global, groupLayer, win.Overrides)
//
// # Invariants
//
// After a successful Resolve every field of EffectiveConfig holds a
// concrete value. Numeric zero and false are concrete, never sentinels.
// The SourceMap is derived diagnostic data and is never fed back into
// resolution.
package window
