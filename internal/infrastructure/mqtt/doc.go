// Package mqtt provides MQTT client connectivity for Solarward.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Solarward uses MQTT as its message bus: environmental sensor states
// flow in from the home automation gateway, and shading verdicts flow
// back out. The broker (Mosquitto) decouples the engine from whatever
// publishes sensor data and whatever actuates the covers.
//
//	Sensor Gateway → MQTT Broker → Solarward Engine → MQTT Broker → Cover Actuators
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all inbound sensor states
//	err = client.Subscribe(mqtt.Topics{}.AllSensorStates(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a window verdict (retained so late subscribers catch up)
//	topic := mqtt.Topics{}.WindowVerdict("living-south")
//	client.Publish(topic, []byte(`{"shade_required":true}`), 1, true)
package mqtt
