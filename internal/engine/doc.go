// Package engine orchestrates batch evaluation runs over the window
// fleet.
//
// A run snapshots the shared sensor state once through a run-scoped
// cache, resolves each window's effective configuration, computes its
// solar power and shading verdict with bounded parallelism, and rolls
// the per-window results up into group aggregates and a fleet summary.
// One window's failure is isolated into its own result; the batch
// itself only fails when the global configuration layer is missing.
//
// The most recent BatchResult is held in a ResultStore for consumers
// outside the run loop, such as the HTTP API and the WebSocket hub.
package engine
