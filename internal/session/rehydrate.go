package session

// StoredMessage is a persisted transcript entry.
type StoredMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StoredBlueprint holds the persisted preview fields.
type StoredBlueprint struct {
	ProjectName    string   `json:"project_name"`
	ProjectType    string   `json:"project_type"`
	EntityTypes    []string `json:"entity_types"`
	AgentCount     int      `json:"agent_count"`
	InferredDomain string   `json:"inferred_domain"`
}

// Snapshot is a previously persisted session record, fetched from the
// session store.
type Snapshot struct {
	Messages     []StoredMessage `json:"messages"`
	Phase        string          `json:"phase"`
	Blueprint    StoredBlueprint `json:"blueprint_state"`
	TurnCount    int             `json:"turn_count"`
	MessageCount int             `json:"message_count"`
}

// Rehydrate rebuilds transcript and state from a persisted record. Only
// final materialized values were persisted, so this never replays the
// original event stream: messages are reconstructed 1:1 with fresh
// sequential ids, topics start empty, and debug counters take their
// stored totals.
func (r *Reducer) Rehydrate(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()

	for _, m := range snap.Messages {
		role := RoleUser
		if m.Role == string(RoleAssistant) {
			role = RoleAssistant
		}
		r.appendMessageLocked(role, m.Content, false)
	}

	phase := Phase(snap.Phase)
	if phase == "" {
		phase = PhaseGoalUnderstanding
	}
	r.state = State{
		Phase: phase,
		Preview: BlueprintPreview{
			ProjectName: snap.Blueprint.ProjectName,
			ProjectType: snap.Blueprint.ProjectType,
			EntityTypes: snap.Blueprint.EntityTypes,
			AgentCount:  snap.Blueprint.AgentCount,
		},
		InferredDomain: snap.Blueprint.InferredDomain,
		Debug: DebugSummary{
			TurnCount:    snap.TurnCount,
			MessageCount: snap.MessageCount,
		},
	}
	r.appendDebugLocked(KindHydration, "Session rehydrated", map[string]any{
		"messages": len(snap.Messages),
		"phase":    string(phase),
	})
}
