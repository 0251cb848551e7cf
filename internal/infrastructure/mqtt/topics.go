package mqtt

import "fmt"

// Topic prefixes for the Roomcast MQTT hierarchy.
//
// The host platform mirrors entity states onto retained state topics,
// Roomcast invokes host capabilities through call/response topics, and
// announcement lifecycle events are published on event topics.
const (
	// TopicPrefix is the base for all Roomcast topics.
	TopicPrefix = "roomcast"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "roomcast/system"
)

// Topics provides builders for Roomcast MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.State("person.alice")
//	// Returns: "roomcast/state/person.alice"
type Topics struct{}

// =============================================================================
// Entity State Topics
// =============================================================================

// State returns the retained state topic for a host entity.
//
// Example: roomcast/state/person.alice
func (Topics) State(entityID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, entityID)
}

// =============================================================================
// Capability Call Topics
// =============================================================================

// Call returns the topic for invoking a host capability.
//
// Example: roomcast/call/tts/speak
func (Topics) Call(domain, action string) string {
	return fmt.Sprintf("%s/call/%s/%s", TopicPrefix, domain, action)
}

// Response returns the topic a blocking call's result arrives on.
//
// Example: roomcast/response/req-abc123
func (Topics) Response(requestID string) string {
	return fmt.Sprintf("%s/response/%s", TopicPrefix, requestID)
}

// =============================================================================
// Event Topics
// =============================================================================

// Event returns the topic for announcement lifecycle events.
//
// Example: roomcast/event/announcement_sent
func (Topics) Event(eventName string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, eventName)
}

// Announce returns the topic host automations publish announcement
// requests to.
//
// Example: roomcast/announce
func (Topics) Announce() string {
	return fmt.Sprintf("%s/announce", TopicPrefix)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
//
// Example: roomcast/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllStates returns a pattern matching every entity state topic.
//
// Pattern: roomcast/state/+
func (Topics) AllStates() string {
	return fmt.Sprintf("%s/state/+", TopicPrefix)
}

// AllResponses returns a pattern matching every call response topic.
//
// Pattern: roomcast/response/+
func (Topics) AllResponses() string {
	return fmt.Sprintf("%s/response/+", TopicPrefix)
}

// AllEvents returns a pattern matching every event topic.
//
// Pattern: roomcast/event/+
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefix)
}

// AllTopics returns a pattern matching all Roomcast topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: roomcast/#
func (Topics) AllTopics() string {
	return "roomcast/#"
}
