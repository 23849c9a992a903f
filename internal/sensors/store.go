package sensors

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/solarward/solarward-core/internal/infrastructure/mqtt"
)

// Logger is the minimal logging surface this package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Subscriber is the MQTT capability the store attaches to. Satisfied by
// *mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// entry is the latest known state of one sensor source.
type entry struct {
	value      string
	attributes map[string]string
	updatedAt  time.Time
}

// statePayload is the structured form a gateway may publish.
type statePayload struct {
	Value      any            `json:"value"`
	Attributes map[string]any `json:"attributes"`
}

// Store caches the latest state per sensor source and serves reads to
// the calculation engine.
//
// Thread Safety: all methods are safe for concurrent use; MQTT handlers
// write while engine workers read.
type Store struct {
	maxAge time.Duration
	logger Logger

	mu      sync.RWMutex
	entries map[string]entry

	now func() time.Time
}

// NewStore creates an empty sensor store.
//
// Parameters:
//   - maxAge: Entries older than this read as absent. Zero disables expiry.
//   - logger: Destination for handler diagnostics. May be nil.
func NewStore(maxAge time.Duration, logger Logger) *Store {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Store{
		maxAge:  maxAge,
		logger:  logger,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Attach subscribes the store to the sensor state topic family.
//
// Parameters:
//   - client: Connected MQTT client (or equivalent)
//   - qos: QoS level for the subscription
//
// Returns:
//   - error: If the subscription could not be established
func (s *Store) Attach(client Subscriber, qos byte) error {
	topic := mqtt.Topics{}.AllSensorStates()
	if err := client.Subscribe(topic, qos, s.HandleMessage); err != nil {
		return fmt.Errorf("sensors: subscribe %s: %w", topic, err)
	}
	return nil
}

// HandleMessage ingests one sensor state message.
//
// The source ID is the topic remainder after the sensor prefix. Payloads
// that parse as a JSON object are taken as {"value": ..., "attributes":
// {...}}; anything else is stored verbatim as the value.
func (s *Store) HandleMessage(topic string, payload []byte) error {
	id := strings.TrimPrefix(topic, mqtt.TopicPrefixSensor+"/")
	if id == "" || id == topic {
		return fmt.Errorf("sensors: unexpected topic %q", topic)
	}

	e := entry{
		attributes: make(map[string]string),
		updatedAt:  s.now(),
	}

	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "{") {
		var parsed statePayload
		if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
			s.logger.Warn("discarding malformed sensor payload",
				"topic", topic,
				"error", err,
			)
			return fmt.Errorf("sensors: decode %s: %w", topic, err)
		}
		e.value = stringify(parsed.Value)
		for k, v := range parsed.Attributes {
			e.attributes[k] = stringify(v)
		}
	} else {
		e.value = trimmed
	}

	s.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()

	s.logger.Debug("sensor state updated", "source", id, "value", e.value)
	return nil
}

// Read returns the current state of a source, or def when the source has
// never reported or its last report has expired.
func (s *Store) Read(_ context.Context, id string, def string) string {
	e, ok := s.lookup(id)
	if !ok {
		return def
	}
	return e.value
}

// ReadAttribute returns one attribute of a source, or def.
func (s *Store) ReadAttribute(_ context.Context, id string, attribute string, def string) string {
	e, ok := s.lookup(id)
	if !ok {
		return def
	}
	v, ok := e.attributes[attribute]
	if !ok {
		return def
	}
	return v
}

// Seen reports whether the source has a live entry.
func (s *Store) Seen(id string) bool {
	_, ok := s.lookup(id)
	return ok
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.maxAge <= 0 {
		return len(s.entries)
	}
	cutoff := s.now().Add(-s.maxAge)
	n := 0
	for _, e := range s.entries {
		if !e.updatedAt.Before(cutoff) {
			n++
		}
	}
	return n
}

func (s *Store) lookup(id string) (entry, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return entry{}, false
	}
	if s.maxAge > 0 && s.now().Sub(e.updatedAt) > s.maxAge {
		return entry{}, false
	}
	return e, true
}

// stringify renders a decoded JSON value the way the engine's parsers
// expect: numbers without exponent notation, booleans as true/false.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
