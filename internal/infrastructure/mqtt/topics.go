package mqtt

import "fmt"

// Topic prefixes for the Solarward MQTT hierarchy.
//
// Sensor topics carry inbound environment readings published by the
// building's sensor gateway; core topics carry outbound calculation
// results and shading verdicts.
const (
	// TopicPrefix is the base for all Solarward topics.
	TopicPrefix = "solarward"

	// TopicPrefixSensor is the base for inbound sensor state topics.
	TopicPrefixSensor = "solarward/sensor"

	// TopicPrefixCore is the base for outbound core topics.
	TopicPrefixCore = "solarward/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "solarward/system"
)

// Topics provides builders for Solarward MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	verdictTopic := topics.WindowVerdict("living-south")
//	// Returns: "solarward/core/window/living-south/state"
type Topics struct{}

// =============================================================================
// Sensor Topics (inbound)
// =============================================================================

// SensorState returns the topic a sensor source publishes its state on.
//
// Example: solarward/sensor/sensor.solar_radiation
func (Topics) SensorState(sourceID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixSensor, sourceID)
}

// AllSensorStates returns a pattern matching every sensor state topic.
//
// Pattern: solarward/sensor/+
func (Topics) AllSensorStates() string {
	return fmt.Sprintf("%s/+", TopicPrefixSensor)
}

// =============================================================================
// Core Topics (outbound)
// =============================================================================

// WindowVerdict returns the topic for one window's calculation result
// and shading verdict. Published retained so late subscribers see the
// current verdict immediately.
//
// Example: solarward/core/window/living-south/state
func (Topics) WindowVerdict(windowID string) string {
	return fmt.Sprintf("%s/window/%s/state", TopicPrefixCore, windowID)
}

// AllWindowVerdicts returns a pattern matching every window verdict.
//
// Pattern: solarward/core/window/+/state
func (Topics) AllWindowVerdicts() string {
	return fmt.Sprintf("%s/window/+/state", TopicPrefixCore)
}

// GroupPower returns the topic for one group's aggregated power.
//
// Example: solarward/core/group/south-side/power
func (Topics) GroupPower(groupID string) string {
	return fmt.Sprintf("%s/group/%s/power", TopicPrefixCore, groupID)
}

// AllGroupPower returns a pattern matching every group aggregate.
//
// Pattern: solarward/core/group/+/power
func (Topics) AllGroupPower() string {
	return fmt.Sprintf("%s/group/+/power", TopicPrefixCore)
}

// BatchSummary returns the topic for the fleet-level batch summary.
//
// Example: solarward/core/batch/summary
func (Topics) BatchSummary() string {
	return fmt.Sprintf("%s/batch/summary", TopicPrefixCore)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic, used for the service's
// online/offline announcements and last will.
//
// Example: solarward/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: solarward/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns
// =============================================================================

// AllTopics returns a pattern matching all Solarward topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: solarward/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
