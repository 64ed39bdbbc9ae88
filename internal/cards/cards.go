package cards

import "encoding/json"

// Envelope is a self-describing structured content block embedded in a
// CUSTOM event, meant for widget rendering. Body is deliberately
// untyped; ExtractPersonas interprets it.
type Envelope struct {
	CardID   string          `json:"card_id"`
	Type     string          `json:"type"`
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle,omitempty"`
	Body     json.RawMessage `json:"body"`
	Actions  []Action        `json:"actions,omitempty"`
	Helper   *Helper         `json:"helper,omitempty"`
}

// Action is a user-selectable card action.
type Action struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Style string `json:"style,omitempty"`
}

// Helper carries optional rationale attached to a card.
type Helper struct {
	WhyThis        []string `json:"why_this,omitempty"`
	RisksIfSkipped []string `json:"risks_if_skipped,omitempty"`
}

// Persona is a normalized interviewee archetype extracted from a card
// body or an option list. ID is deterministic and stable for a given
// input; it doubles as a UI key and a selection-matching key.
type Persona struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Role    string   `json:"role,omitempty"`
	Summary string   `json:"summary,omitempty"`
	Tier    string   `json:"tier,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// Option is a plain selectable choice inside an ask widget.
type Option struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}
