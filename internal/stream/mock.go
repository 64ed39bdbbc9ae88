package stream

import (
	"context"
	"encoding/json"
	"iter"
	"sync"

	"bp-cli/internal/protocol"
)

// MockSource is a deterministic event source for tests and demos.
type MockSource struct {
	mu    sync.Mutex
	turns int
}

// NewMockSource returns a scripted source.
func NewMockSource() *MockSource {
	return &MockSource{}
}

func (m *MockSource) Send(ctx context.Context, sessionID, message string) iter.Seq2[protocol.Event, error] {
	m.mu.Lock()
	m.turns++
	turn := m.turns
	m.mu.Unlock()

	return func(yield func(protocol.Event, error) bool) {
		for _, ev := range scriptedTurn(turn) {
			if ctx.Err() != nil {
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func scriptedTurn(turn int) []protocol.Event {
	if turn == 1 {
		input, _ := json.Marshal(map[string]string{"domain": "retail analytics"})
		return []protocol.Event{
			{Type: protocol.TypeToolCallStart, Tool: &protocol.ToolCall{Tool: "infer_domain", Input: input}},
			{Type: protocol.TypeToolCallEnd, Tool: &protocol.ToolCall{Tool: "infer_domain"}},
			{Type: protocol.TypeTextContent, Delta: "Let's figure out what you want to build. "},
			{Type: protocol.TypeTextContent, Delta: "Tell me about the people this system serves."},
			{Type: protocol.TypeTextEnd},
			{Type: protocol.TypeStateSnapshot, Snapshot: &protocol.StateSnapshot{
				Phase:          "goal_understanding",
				InferredDomain: "retail analytics",
				Preview: protocol.Preview{
					ProjectName: "Untitled project",
					ProjectType: "analysis",
					AgentCount:  0,
				},
				Debug: protocol.DebugInfo{TurnCount: 1, MessageCount: 2, DomainConfidence: 0.4},
			}},
		}
	}

	card := map[string]any{
		"card_id":  "personas-1",
		"type":     "persona_picker",
		"title":    "Who should the agents interview?",
		"subtitle": "Pick the voices that matter most",
		"body": map[string]any{
			"must":   []map[string]string{{"name": "Store Manager", "summary": "Owns day-to-day operations"}},
			"should": []map[string]string{{"name": "Category Buyer"}},
		},
		"actions": []map[string]string{{"id": "confirm", "label": "Looks right"}},
	}
	value, _ := json.Marshal(map[string]any{
		"prompt": "Which personas should we keep?",
		"step":   "Choose interview personas",
		"card":   card,
	})
	return []protocol.Event{
		{Type: protocol.TypeTextContent, Delta: "Here is a first cut of interview personas."},
		{Type: protocol.TypeCustom, Custom: &protocol.CustomPayload{Name: "ask_user", Value: value}},
		{Type: protocol.TypeTextEnd},
		{Type: protocol.TypeStateSnapshot, Snapshot: &protocol.StateSnapshot{
			Phase:          "agent_configuration",
			InferredDomain: "retail analytics",
			Preview: protocol.Preview{
				ProjectName: "Retail pulse",
				ProjectType: "analysis",
				EntityTypes: []string{"store", "sku"},
				AgentCount:  2,
				Topics:      []string{"inventory", "promotions"},
			},
			Debug: protocol.DebugInfo{TurnCount: 2, MessageCount: 4, DomainConfidence: 0.8},
		}},
	}
}
