package session

import (
	"strings"
	"sync"
	"time"

	"bp-cli/internal/protocol"
	"bp-cli/internal/render"
	"bp-cli/internal/stream"
	"bp-cli/internal/util"

	"go.uber.org/zap"
)

// Reducer folds the event stream of a design session into transcript,
// session state, debug trace, and the pending widget. It owns all of
// that state exclusively; every mutation happens through Apply or the
// Send turn loop.
type Reducer struct {
	mu        sync.Mutex
	source    stream.Source
	renderer  render.Renderer
	logger    *zap.Logger
	sessionID string

	messages  []ChatMessage
	state     State
	debug     []DebugEvent
	pending   *PendingWidget
	lastError string

	nextMessageID int
	nextDebugID   int
	streamingID   int
	sending       bool
}

// NewReducer constructs a reducer for one session. renderer may be nil.
func NewReducer(sessionID string, source stream.Source, renderer render.Renderer, logger *zap.Logger) *Reducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reducer{
		source:    source,
		renderer:  renderer,
		logger:    logger,
		sessionID: sessionID,
		state:     State{Phase: PhaseGoalUnderstanding},
	}
}

// SessionID returns the backing session identifier.
func (r *Reducer) SessionID() string { return r.sessionID }

// Apply folds a single event into state. Events must be applied in
// arrival order.
func (r *Reducer) Apply(ev protocol.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Type {
	case protocol.TypeStateSnapshot:
		r.applySnapshotLocked(ev.Snapshot)
	case protocol.TypeTextContent:
		r.appendDeltaLocked(ev.Delta)
	case protocol.TypeTextEnd:
		r.finishStreamingLocked()
	case protocol.TypeToolCallStart:
		r.recordToolStartLocked(ev.Tool)
	case protocol.TypeToolCallEnd:
		// completion is implicit, nothing to fold
	case protocol.TypeCustom:
		r.setPendingLocked(ev.Custom)
	case protocol.TypeError:
		r.lastError = ev.Message
		r.appendDebugLocked(KindError, "Stream error", map[string]any{"message": ev.Message})
	}
}

func (r *Reducer) applySnapshotLocked(snap *protocol.StateSnapshot) {
	if snap == nil {
		return
	}
	prev := r.state.Phase
	next := Phase(snap.Phase)
	r.state = State{
		Phase: next,
		Preview: BlueprintPreview{
			ProjectName: snap.Preview.ProjectName,
			ProjectType: snap.Preview.ProjectType,
			EntityTypes: snap.Preview.EntityTypes,
			AgentCount:  snap.Preview.AgentCount,
			Topics:      snap.Preview.Topics,
		},
		InferredDomain: snap.InferredDomain,
		Debug: DebugSummary{
			Thinking:         snap.Debug.Thinking,
			Approach:         snap.Debug.Approach,
			TurnCount:        snap.Debug.TurnCount,
			MessageCount:     snap.Debug.MessageCount,
			DomainConfidence: snap.Debug.DomainConfidence,
			DiscussedTopics:  snap.Debug.DiscussedTopics,
		},
	}
	if next != prev {
		r.appendDebugLocked(KindPhaseTransition, "Phase transition", map[string]any{
			"from": string(prev),
			"to":   string(next),
		})
	}
	r.appendDebugLocked(KindStateUpdate, "State update", map[string]any{
		"phase":       snap.Phase,
		"agent_count": snap.Preview.AgentCount,
	})
}

func (r *Reducer) appendDeltaLocked(delta string) {
	if delta == "" {
		return
	}
	if r.streamingID == 0 {
		r.logger.Debug("delta with no streaming message, dropped")
		return
	}
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ID == r.streamingID {
			r.messages[i].Content += delta
			r.messages[i].UpdatedAt = time.Now()
			return
		}
	}
}

func (r *Reducer) finishStreamingLocked() {
	if r.streamingID == 0 {
		return
	}
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ID == r.streamingID {
			r.messages[i].Streaming = false
			r.messages[i].UpdatedAt = time.Now()
			break
		}
	}
	r.streamingID = 0
}

func (r *Reducer) recordToolStartLocked(call *protocol.ToolCall) {
	if call == nil {
		return
	}
	kind, title := classifyTool(call.Tool)
	input := util.Preview(util.RedactSecrets(string(call.Input)), 4, 512)
	r.appendDebugLocked(kind, title, map[string]any{
		"tool":  call.Tool,
		"input": input,
	})
}

func classifyTool(name string) (DebugKind, string) {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "hydrate") || strings.Contains(n, "restore") || strings.Contains(n, "resume"):
		return KindHydration, "Hydrating session"
	case strings.Contains(n, "transition") || strings.Contains(n, "phase"):
		return KindPhaseTool, "Phase tool"
	default:
		return KindToolCall, "Tool call"
	}
}

func (r *Reducer) setPendingLocked(custom *protocol.CustomPayload) {
	if custom == nil {
		return
	}
	target := r.streamingID
	if target == 0 {
		for i := len(r.messages) - 1; i >= 0; i-- {
			if r.messages[i].Role == RoleAssistant {
				target = r.messages[i].ID
				break
			}
		}
	}
	r.pending = &PendingWidget{Name: custom.Name, Value: custom.Value, MessageID: target}
	r.appendDebugLocked(KindToolCall, "Widget: "+custom.Name, map[string]any{
		"widget": custom.Name,
		"value":  util.Preview(string(custom.Value), 4, 512),
	})
}

func (r *Reducer) appendMessageLocked(role Role, content string, streaming bool) ChatMessage {
	r.nextMessageID++
	now := time.Now()
	msg := ChatMessage{
		ID:        r.nextMessageID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
		Streaming: streaming,
	}
	r.messages = append(r.messages, msg)
	return msg
}

func (r *Reducer) removeMessageLocked(id int) {
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ID == id {
			r.messages = append(r.messages[:i], r.messages[i+1:]...)
			return
		}
	}
}

func (r *Reducer) appendDebugLocked(kind DebugKind, title string, details map[string]any) {
	r.nextDebugID++
	r.debug = append(r.debug, DebugEvent{
		ID:        r.nextDebugID,
		Timestamp: time.Now(),
		Kind:      kind,
		Title:     title,
		Details:   details,
	})
}

// Messages returns a copy of the transcript.
func (r *Reducer) Messages() []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChatMessage, len(r.messages))
	copy(out, r.messages)
	return out
}

// State returns the current session-preview state.
func (r *Reducer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Debug returns a copy of the debug trace.
func (r *Reducer) Debug() []DebugEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DebugEvent, len(r.debug))
	copy(out, r.debug)
	return out
}

// Pending returns the outstanding widget, or nil.
func (r *Reducer) Pending() *PendingWidget {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// ClearPending drops the outstanding widget after the user acts on it.
func (r *Reducer) ClearPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
}

// LastError returns the current error banner text, if any.
func (r *Reducer) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastError
}

// ClearError dismisses the error banner.
func (r *Reducer) ClearError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastError = ""
}

// Reset tears down all session state, as on disconnect.
func (r *Reducer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

func (r *Reducer) resetLocked() {
	r.messages = nil
	r.state = State{Phase: PhaseGoalUnderstanding}
	r.debug = nil
	r.pending = nil
	r.lastError = ""
	r.nextMessageID = 0
	r.nextDebugID = 0
	r.streamingID = 0
}
