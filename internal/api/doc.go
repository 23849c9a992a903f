// Package api implements the HTTP REST API and WebSocket server for Solarward.
//
// This package provides:
//   - REST endpoints for window and group CRUD and global configuration
//   - Read access to the latest batch calculation results
//   - WebSocket hub for real-time batch result broadcasts
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between operator interfaces (web admin, dashboards)
// and the window fleet repository + calculation engine. Configuration
// changes land in SQLite and take effect on the next engine run; results
// flow the other way, from the engine into the result store and out to
// WebSocket subscribers.
//
// # Graceful Degradation
//
// The server operates without MQTT and without InfluxDB. Configuration
// endpoints and result reads keep working; only the live sensor feed
// stops updating.
package api
