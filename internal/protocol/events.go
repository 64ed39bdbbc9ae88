package protocol

import "encoding/json"

// Type discriminates stream event variants.
type Type string

const (
	TypeStateSnapshot Type = "STATE_SNAPSHOT"
	TypeTextContent   Type = "TEXT_MESSAGE_CONTENT"
	TypeTextEnd       Type = "TEXT_MESSAGE_END"
	TypeToolCallStart Type = "TOOL_CALL_START"
	TypeToolCallEnd   Type = "TOOL_CALL_END"
	TypeCustom        Type = "CUSTOM"
	TypeError         Type = "ERROR"

	// TypeUnknown marks an event whose type is not part of the protocol.
	// Consumers treat it as a no-op rather than a failure.
	TypeUnknown Type = "UNKNOWN"
)

// Preview is the blueprint summary carried by a state snapshot.
type Preview struct {
	ProjectName string   `json:"project_name"`
	ProjectType string   `json:"project_type"`
	EntityTypes []string `json:"entity_types"`
	AgentCount  int      `json:"agent_count"`
	Topics      []string `json:"topics"`
}

// DebugInfo carries backend introspection attached to a snapshot.
type DebugInfo struct {
	Thinking         string   `json:"thinking"`
	Approach         string   `json:"approach"`
	TurnCount        int      `json:"turn_count"`
	MessageCount     int      `json:"message_count"`
	DomainConfidence float64  `json:"domain_confidence"`
	DiscussedTopics  []string `json:"discussed_topics"`
}

// StateSnapshot is the full session-preview state. Snapshots replace
// prior state wholesale; they are never merged.
type StateSnapshot struct {
	Phase          string    `json:"phase"`
	Preview        Preview   `json:"preview"`
	InferredDomain string    `json:"inferred_domain"`
	Debug          DebugInfo `json:"debug"`
}

// ToolCall describes a backend tool invocation.
type ToolCall struct {
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input"`
}

// CustomPayload carries an ad-hoc UI widget by name.
type CustomPayload struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// Event is the closed tagged union of stream events. Type selects the
// variant; only the matching payload field is populated.
type Event struct {
	Type     Type
	Snapshot *StateSnapshot
	Delta    string
	Tool     *ToolCall
	Custom   *CustomPayload
	Message  string
}
