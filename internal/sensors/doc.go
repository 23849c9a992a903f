// Package sensors maintains the live view of environmental sensor state.
//
// Sensor values arrive over MQTT on the solarward/sensor/+ topic family,
// published by the home automation gateway. This package subscribes to
// that family, caches the latest value and attributes per source, and
// exposes them through the read interface the calculation engine
// consumes.
//
// # Payload Format
//
// Two payload shapes are accepted:
//
//   - A JSON object: {"value": 812.4, "attributes": {"azimuth": 180.5}}
//   - A bare value: 812.4 (the whole payload is the state, no attributes)
//
// # Staleness
//
// A retained MQTT message can outlive the sensor that produced it. The
// store optionally expires entries after a configurable age, after which
// reads fall back to the caller's default exactly as if the sensor had
// never reported.
package sensors
