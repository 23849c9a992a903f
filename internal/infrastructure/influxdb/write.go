package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/solarward/solarward-core/internal/engine"
	"github.com/solarward/solarward-core/internal/solar"
)

// WriteWindowPower writes one window's calculation result to InfluxDB.
//
// This is the primary method for recording per-window telemetry.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - windowID: Unique identifier for the window (e.g., "living-south")
//   - result: The calculation output for this window
//
// Example:
//
//	client.WriteWindowPower("living-south", res.Result)
func (c *Client) WriteWindowPower(windowID string, result solar.CalculationResult) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"window_power",
		map[string]string{
			"window_id": windowID,
		},
		map[string]interface{}{
			"power_total":    result.PowerTotal,
			"power_direct":   result.PowerDirect,
			"power_diffuse":  result.PowerDiffuse,
			"power_m2_total": result.PowerM2Total,
			"shadow_factor":  result.ShadowFactor,
			"shade_required": result.ShadeRequired,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteGroupPower writes a group's aggregated power to InfluxDB.
//
// Parameters:
//   - groupID: Group identifier
//   - agg: Aggregated power over the group's member windows
func (c *Client) WriteGroupPower(groupID string, agg engine.AggregatedPower) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"group_power",
		map[string]string{
			"group_id": groupID,
		},
		map[string]interface{}{
			"power_total":   agg.PowerTotal,
			"power_direct":  agg.PowerDirect,
			"power_diffuse": agg.PowerDiffuse,
			"window_count":  agg.WindowCount,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteBatchSummary writes the fleet-level rollup of one batch run.
//
// Used for tracking engine throughput and total solar load over time.
//
// Parameters:
//   - summary: The batch summary produced by the orchestrator
func (c *Client) WriteBatchSummary(summary engine.Summary) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"batch_summary",
		map[string]string{},
		map[string]interface{}{
			"total_power":   summary.TotalPower,
			"total_direct":  summary.TotalDirect,
			"total_diffuse": summary.TotalDiffuse,
			"window_count":  summary.WindowCount,
			"shading_count": summary.ShadingCount,
			"error_count":   summary.ErrorCount,
			"duration_ms":   summary.Duration,
		},
		summary.CalculationTime,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
