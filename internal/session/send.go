package session

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Send runs one conversation turn: append the user message and an empty
// streaming assistant placeholder, drive the stream, and fold every
// yielded event. Only one turn may be in flight; a second call while
// streaming is a no-op. A fatal stream error removes the still-empty
// placeholder and surfaces the error, leaving the transcript otherwise
// untouched.
func (r *Reducer) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	r.mu.Lock()
	if r.sending {
		r.mu.Unlock()
		r.logger.Debug("send ignored, turn already in flight")
		return nil
	}
	r.sending = true
	prevPhase := r.state.Phase
	r.appendMessageLocked(RoleUser, text, false)
	placeholder := r.appendMessageLocked(RoleAssistant, "", true)
	r.streamingID = placeholder.ID
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.sending = false
		r.mu.Unlock()
	}()

	r.logger.Debug("starting turn",
		zap.String("session_id", r.sessionID),
		zap.String("phase", string(prevPhase)))

	for ev, err := range r.source.Send(ctx, r.sessionID, text) {
		if err != nil {
			r.mu.Lock()
			r.removeMessageLocked(placeholder.ID)
			r.streamingID = 0
			r.lastError = err.Error()
			r.mu.Unlock()
			return err
		}
		r.Apply(ev)
		if r.renderer != nil {
			r.renderer.Emit(ev)
		}
	}

	// Close the streaming bubble even when TEXT_MESSAGE_END was lost to
	// a soft completion.
	r.mu.Lock()
	r.finishStreamingLocked()
	r.mu.Unlock()
	return nil
}
