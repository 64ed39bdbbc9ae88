package session

import (
	"encoding/json"
	"time"
)

// Role identifies a transcript speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one transcript entry. IDs are sequential per reducer
// and stable once assigned; streaming deltas target a message by ID.
type ChatMessage struct {
	ID        int       `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Streaming bool      `json:"streaming"`
}

// Phase is a coarse stage of the design session. It drives UI layout
// only; the reducer never infers it from message content.
type Phase string

const (
	PhaseGoalUnderstanding  Phase = "goal_understanding"
	PhaseAgentConfiguration Phase = "agent_configuration"
	PhaseBlueprintDesign    Phase = "blueprint_design"
	PhaseComplete           Phase = "complete"
)

// BlueprintPreview summarizes the blueprint under construction.
type BlueprintPreview struct {
	ProjectName string   `json:"project_name"`
	ProjectType string   `json:"project_type"`
	EntityTypes []string `json:"entity_types"`
	AgentCount  int      `json:"agent_count"`
	Topics      []string `json:"topics"`
}

// DebugSummary mirrors the backend's introspection counters.
type DebugSummary struct {
	Thinking         string   `json:"thinking"`
	Approach         string   `json:"approach"`
	TurnCount        int      `json:"turn_count"`
	MessageCount     int      `json:"message_count"`
	DomainConfidence float64  `json:"domain_confidence"`
	DiscussedTopics  []string `json:"discussed_topics"`
}

// State is the session-preview state. Snapshots replace it wholesale.
type State struct {
	Phase          Phase            `json:"phase"`
	Preview        BlueprintPreview `json:"preview"`
	InferredDomain string           `json:"inferred_domain"`
	Debug          DebugSummary     `json:"debug"`
}

// DebugKind labels debug trace entries.
type DebugKind string

const (
	KindStateUpdate     DebugKind = "state_update"
	KindPhaseTransition DebugKind = "phase_transition"
	KindHydration       DebugKind = "hydration"
	KindPhaseTool       DebugKind = "phase_tool"
	KindToolCall        DebugKind = "tool_call"
	KindError           DebugKind = "error"
)

// DebugEvent is one append-only trace entry. Entries are never mutated
// once appended.
type DebugEvent struct {
	ID        int            `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Kind      DebugKind      `json:"kind"`
	Title     string         `json:"title"`
	Details   map[string]any `json:"details,omitempty"`
}

// PendingWidget is the at-most-one outstanding ad-hoc UI component,
// attached to the assistant message it arrived under. Cleared when the
// user acts on it or a newer widget replaces it.
type PendingWidget struct {
	Name      string          `json:"name"`
	Value     json.RawMessage `json:"value"`
	MessageID int             `json:"message_id"`
}
