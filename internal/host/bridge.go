package host

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/roomcast/roomcast-core/internal/infrastructure/mqtt"
)

// MQTTClient is the interface for MQTT operations the bridge needs.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// statePayload is the wire form of a retained entity state.
type statePayload struct {
	Value      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// callEnvelope is the wire form of a capability invocation.
type callEnvelope struct {
	RequestID string         `json:"request_id,omitempty"`
	Data      map[string]any `json:"data"`
}

// responseEnvelope is the wire form of a blocking call's answer.
type responseEnvelope struct {
	Success bool           `json:"success"`
	Result  map[string]any `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Bridge implements StateReader, CapabilityCaller, and EventEmitter
// over the MQTT bus.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	mqtt   MQTTClient
	qos    byte
	topics mqtt.Topics

	// states caches the latest retained state per entity.
	states  map[string]State
	stateMu sync.RWMutex

	// pending maps request ids to response channels for blocking calls.
	pending   map[string]chan responseEnvelope
	pendingMu sync.Mutex

	started atomic.Bool

	logger   Logger
	loggerMu sync.RWMutex
}

// NewBridge creates a host bridge over the given MQTT client.
func NewBridge(client MQTTClient, qos byte) *Bridge {
	return &Bridge{
		mqtt:    client,
		qos:     qos,
		states:  make(map[string]State),
		pending: make(map[string]chan responseEnvelope),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

func (b *Bridge) log() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

// Start subscribes to the state and response topics. The retained
// state topics replay immediately, so the cache warms on startup.
func (b *Bridge) Start() error {
	if err := b.mqtt.Subscribe(b.topics.AllStates(), b.qos, b.handleState); err != nil {
		return fmt.Errorf("subscribing to states: %w", err)
	}
	if err := b.mqtt.Subscribe(b.topics.AllResponses(), b.qos, b.handleResponse); err != nil {
		return fmt.Errorf("subscribing to responses: %w", err)
	}
	b.started.Store(true)
	return nil
}

// OnAnnounce registers a handler for announcement requests arriving
// over the bus from host automations.
func (b *Bridge) OnAnnounce(handler func(payload []byte)) error {
	return b.mqtt.Subscribe(b.topics.Announce(), b.qos, func(_ string, payload []byte) error {
		handler(payload)
		return nil
	})
}

// handleState caches an incoming retained entity state.
func (b *Bridge) handleState(topic string, payload []byte) error {
	entityID := strings.TrimPrefix(topic, mqtt.TopicPrefix+"/state/")
	if entityID == "" || entityID == topic {
		return fmt.Errorf("unexpected state topic %q", topic)
	}

	var sp statePayload
	if err := json.Unmarshal(payload, &sp); err != nil {
		return fmt.Errorf("parsing state for %s: %w", entityID, err)
	}

	b.stateMu.Lock()
	b.states[entityID] = State{
		EntityID:   entityID,
		Value:      sp.Value,
		Attributes: sp.Attributes,
		UpdatedAt:  time.Now().UTC(),
	}
	b.stateMu.Unlock()
	return nil
}

// handleResponse routes a call response to its waiting caller.
// Responses with no waiter (late arrivals after timeout) are dropped.
func (b *Bridge) handleResponse(topic string, payload []byte) error {
	requestID := strings.TrimPrefix(topic, mqtt.TopicPrefix+"/response/")

	var resp responseEnvelope
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("parsing response %s: %w", requestID, err)
	}

	b.pendingMu.Lock()
	ch, ok := b.pending[requestID]
	if ok {
		delete(b.pending, requestID)
	}
	b.pendingMu.Unlock()

	if ok {
		ch <- resp
	}
	return nil
}

// GetState returns the latest known state for an entity.
func (b *Bridge) GetState(entityID string) (State, bool) {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	s, ok := b.states[entityID]
	return s, ok
}

// Call invokes a host capability.
//
// Non-blocking calls return once the request is published. Blocking
// calls register a correlation id, publish, and wait for the response
// or context expiry.
func (b *Bridge) Call(ctx context.Context, domain, action string, payload map[string]any, blocking bool) (map[string]any, error) {
	if !b.started.Load() {
		return nil, ErrNotStarted
	}

	env := callEnvelope{Data: payload}
	var respCh chan responseEnvelope

	if blocking {
		env.RequestID = uuid.NewString()
		respCh = make(chan responseEnvelope, 1)

		b.pendingMu.Lock()
		b.pending[env.RequestID] = respCh
		b.pendingMu.Unlock()
	}

	body, err := json.Marshal(env)
	if err != nil {
		b.cancelPending(env.RequestID)
		return nil, fmt.Errorf("encoding call %s.%s: %w", domain, action, err)
	}

	if err := b.mqtt.Publish(b.topics.Call(domain, action), body, b.qos, false); err != nil {
		b.cancelPending(env.RequestID)
		return nil, fmt.Errorf("publishing call %s.%s: %w", domain, action, err)
	}

	if !blocking {
		return nil, nil
	}

	select {
	case resp := <-respCh:
		if !resp.Success {
			return nil, fmt.Errorf("%w: %s.%s: %s", ErrCallFailed, domain, action, resp.Error)
		}
		return resp.Result, nil
	case <-ctx.Done():
		b.cancelPending(env.RequestID)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s.%s", ErrCallTimeout, domain, action)
		}
		return nil, fmt.Errorf("call %s.%s: %w", domain, action, ctx.Err())
	}
}

// cancelPending drops a pending response registration.
func (b *Bridge) cancelPending(requestID string) {
	if requestID == "" {
		return
	}
	b.pendingMu.Lock()
	delete(b.pending, requestID)
	b.pendingMu.Unlock()
}

// Emit publishes a named event. Failures are logged, never returned;
// event delivery must not break the announcement pipeline.
func (b *Bridge) Emit(name string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		b.log().Error("encoding event failed", "event", name, "error", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.Event(name), body, b.qos, false); err != nil {
		b.log().Warn("publishing event failed", "event", name, "error", err)
	}
}
