package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bp-cli/internal/protocol"

	"go.uber.org/zap"
)

func TestClientSendDeliversEventsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\"delta\":\"He\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\"delta\":\"llo\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"TEXT_MESSAGE_END\"}\n\n")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	var events []protocol.Event
	for ev, err := range client.Send(context.Background(), "s1", "hi") {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		events = append(events, ev)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Delta != "He" || events[1].Delta != "llo" {
		t.Fatalf("deltas out of order: %+v", events)
	}
	if events[2].Type != protocol.TypeTextEnd {
		t.Fatalf("expected text end last, got %q", events[2].Type)
	}
}

func TestClientSendRejectedBeforeFirstEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such session", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	var sawEvent bool
	var sawErr error
	for ev, err := range client.Send(context.Background(), "missing", "hi") {
		if err != nil {
			sawErr = err
			break
		}
		_ = ev
		sawEvent = true
	}
	if sawEvent {
		t.Fatalf("no events expected on rejected stream")
	}
	if !errors.Is(sawErr, ErrStreamRejected) {
		t.Fatalf("expected ErrStreamRejected, got %v", sawErr)
	}
}

func TestClientSendSkipsMalformedFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\"delta\":\"He\"}\n\n")
		fmt.Fprint(w, "data: {not json at all\n\n")
		fmt.Fprint(w, "data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\"delta\":\"llo\"}\n\n")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	var deltas []string
	for ev, err := range client.Send(context.Background(), "s1", "hi") {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Type == protocol.TypeTextContent {
			deltas = append(deltas, ev.Delta)
		}
	}
	if len(deltas) != 2 || deltas[0] != "He" || deltas[1] != "llo" {
		t.Fatalf("expected valid frames around the malformed one, got %v", deltas)
	}
}

func TestClientWatchUsesLineFraming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\"delta\":\"a\"}\n")
		fmt.Fprint(w, "ignore me\n")
		fmt.Fprint(w, "data: {\"type\":\"TEXT_MESSAGE_END\"}\n")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	var events []protocol.Event
	for ev, err := range client.Watch(context.Background(), "s1") {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		events = append(events, ev)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
}

type scriptedReader struct {
	chunks []string
	err    error
	i      int
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if r.i < len(r.chunks) {
		n := copy(p, r.chunks[r.i])
		r.i++
		return n, nil
	}
	return 0, r.err
}

func TestPumpSoftCompletionAfterFirstEvent(t *testing.T) {
	client := &Client{logger: zap.NewNop()}
	body := &scriptedReader{
		chunks: []string{"data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\"delta\":\"partial\"}\n\n"},
		err:    errors.New("connection reset"),
	}

	var events []protocol.Event
	var yieldedErr error
	client.pump(body, &RecordDecoder{}, func(ev protocol.Event, err error) bool {
		if err != nil {
			yieldedErr = err
			return false
		}
		events = append(events, ev)
		return true
	})
	if yieldedErr != nil {
		t.Fatalf("post-first-event failure must end quietly, got %v", yieldedErr)
	}
	if len(events) != 1 || events[0].Delta != "partial" {
		t.Fatalf("partial events must be kept, got %+v", events)
	}
}

func TestPumpFailureBeforeFirstEventIsFatal(t *testing.T) {
	client := &Client{logger: zap.NewNop()}
	body := &scriptedReader{err: errors.New("connection reset")}

	var events []protocol.Event
	var yieldedErr error
	client.pump(body, &RecordDecoder{}, func(ev protocol.Event, err error) bool {
		if err != nil {
			yieldedErr = err
			return false
		}
		events = append(events, ev)
		return true
	})
	if yieldedErr == nil {
		t.Fatalf("pre-first-event failure must surface an error")
	}
	if len(events) != 0 {
		t.Fatalf("no events expected, got %d", len(events))
	}
}

func TestSendStopsWhenConsumerBreaks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 100; i++ {
			fmt.Fprintf(w, "data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\"delta\":\"d%d\"}\n\n", i)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	count := 0
	for _, err := range client.Send(context.Background(), "s1", "hi") {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("expected consumer to stop at 2 events, got %d", count)
	}
}

func TestMockSourceScriptsTurns(t *testing.T) {
	src := NewMockSource()
	var sawSnapshot, sawEnd bool
	for ev, err := range src.Send(context.Background(), "s1", "hello") {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		switch ev.Type {
		case protocol.TypeStateSnapshot:
			sawSnapshot = true
		case protocol.TypeTextEnd:
			sawEnd = true
		}
	}
	if !sawSnapshot || !sawEnd {
		t.Fatalf("scripted turn missing events: snapshot=%v end=%v", sawSnapshot, sawEnd)
	}
}
