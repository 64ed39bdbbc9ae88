package protocol

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseFrame turns one decoded frame into an Event. The event type comes
// from the frame header when the endpoint provides one, otherwise from the
// payload's own "type" field. Returns false for frames that must be
// dropped: empty payloads and payloads that are not valid JSON.
func ParseFrame(name, data string) (Event, bool) {
	data = strings.TrimSpace(data)
	if data == "" {
		return Event{}, false
	}
	if !gjson.Valid(data) {
		return Event{}, false
	}

	typ := strings.TrimSpace(name)
	if typ == "" {
		typ = gjson.Get(data, "type").String()
	}

	switch Type(typ) {
	case TypeStateSnapshot:
		var snap StateSnapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			return Event{}, false
		}
		return Event{Type: TypeStateSnapshot, Snapshot: &snap}, true
	case TypeTextContent:
		var body struct {
			Delta string `json:"delta"`
		}
		if err := json.Unmarshal([]byte(data), &body); err != nil {
			return Event{}, false
		}
		return Event{Type: TypeTextContent, Delta: body.Delta}, true
	case TypeTextEnd:
		return Event{Type: TypeTextEnd}, true
	case TypeToolCallStart:
		var call ToolCall
		if err := json.Unmarshal([]byte(data), &call); err != nil {
			return Event{}, false
		}
		return Event{Type: TypeToolCallStart, Tool: &call}, true
	case TypeToolCallEnd:
		var call ToolCall
		if err := json.Unmarshal([]byte(data), &call); err != nil {
			return Event{}, false
		}
		return Event{Type: TypeToolCallEnd, Tool: &call}, true
	case TypeCustom:
		var custom CustomPayload
		if err := json.Unmarshal([]byte(data), &custom); err != nil {
			return Event{}, false
		}
		return Event{Type: TypeCustom, Custom: &custom}, true
	case TypeError:
		var body struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(data), &body); err != nil {
			return Event{}, false
		}
		return Event{Type: TypeError, Message: body.Message}, true
	default:
		return Event{Type: TypeUnknown}, true
	}
}
