package protocol

import "testing"

func TestParseFrameSnapshot(t *testing.T) {
	data := `{"type":"STATE_SNAPSHOT","phase":"blueprint_design","inferred_domain":"retail",` +
		`"preview":{"project_name":"Pulse","project_type":"analysis","entity_types":["sku"],"agent_count":2,"topics":["stock"]},` +
		`"debug":{"turn_count":3,"message_count":6,"domain_confidence":0.9}}`
	ev, ok := ParseFrame("", data)
	if !ok {
		t.Fatalf("expected frame to parse")
	}
	if ev.Type != TypeStateSnapshot || ev.Snapshot == nil {
		t.Fatalf("expected snapshot variant, got %+v", ev)
	}
	if ev.Snapshot.Phase != "blueprint_design" {
		t.Fatalf("unexpected phase: %q", ev.Snapshot.Phase)
	}
	if ev.Snapshot.Preview.AgentCount != 2 || ev.Snapshot.Preview.ProjectName != "Pulse" {
		t.Fatalf("preview not decoded: %+v", ev.Snapshot.Preview)
	}
	if ev.Snapshot.Debug.DomainConfidence != 0.9 {
		t.Fatalf("debug not decoded: %+v", ev.Snapshot.Debug)
	}
}

func TestParseFrameHeaderNameWins(t *testing.T) {
	ev, ok := ParseFrame("TEXT_MESSAGE_CONTENT", `{"delta":"hi"}`)
	if !ok || ev.Type != TypeTextContent || ev.Delta != "hi" {
		t.Fatalf("expected delta event, got %+v ok=%v", ev, ok)
	}
}

func TestParseFrameTypeFromBody(t *testing.T) {
	ev, ok := ParseFrame("", `{"type":"TEXT_MESSAGE_END"}`)
	if !ok || ev.Type != TypeTextEnd {
		t.Fatalf("expected text end, got %+v ok=%v", ev, ok)
	}
}

func TestParseFrameToolCall(t *testing.T) {
	ev, ok := ParseFrame("", `{"type":"TOOL_CALL_START","tool":"hydrate_session","input":{"session":"s1"}}`)
	if !ok || ev.Type != TypeToolCallStart || ev.Tool == nil {
		t.Fatalf("expected tool call, got %+v ok=%v", ev, ok)
	}
	if ev.Tool.Tool != "hydrate_session" {
		t.Fatalf("unexpected tool name: %q", ev.Tool.Tool)
	}
	if len(ev.Tool.Input) == 0 {
		t.Fatalf("expected raw input payload")
	}
}

func TestParseFrameCustom(t *testing.T) {
	ev, ok := ParseFrame("", `{"type":"CUSTOM","name":"ask_user","value":{"prompt":"pick one"}}`)
	if !ok || ev.Type != TypeCustom || ev.Custom == nil {
		t.Fatalf("expected custom event, got %+v ok=%v", ev, ok)
	}
	if ev.Custom.Name != "ask_user" {
		t.Fatalf("unexpected widget name: %q", ev.Custom.Name)
	}
}

func TestParseFrameError(t *testing.T) {
	ev, ok := ParseFrame("", `{"type":"ERROR","message":"backend unavailable"}`)
	if !ok || ev.Type != TypeError || ev.Message != "backend unavailable" {
		t.Fatalf("expected error event, got %+v ok=%v", ev, ok)
	}
}

func TestParseFrameMalformedDropped(t *testing.T) {
	if _, ok := ParseFrame("", `{"type":"ERROR"`); ok {
		t.Fatalf("malformed payload must be dropped")
	}
}

func TestParseFrameEmptyDropped(t *testing.T) {
	if _, ok := ParseFrame("TEXT_MESSAGE_CONTENT", "   "); ok {
		t.Fatalf("empty payload must be dropped")
	}
}

func TestParseFrameUnknownTypeIsNoop(t *testing.T) {
	ev, ok := ParseFrame("", `{"type":"SOMETHING_NEW","payload":1}`)
	if !ok {
		t.Fatalf("unknown types must not be dropped")
	}
	if ev.Type != TypeUnknown {
		t.Fatalf("expected unknown variant, got %q", ev.Type)
	}
}
