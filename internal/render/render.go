package render

import "bp-cli/internal/protocol"

// Renderer emits stream events to an output target.
type Renderer interface {
	Emit(protocol.Event)
	Close() error
}
