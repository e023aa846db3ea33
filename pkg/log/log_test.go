package log

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func decisionEvent(user int, executed bool, reason string) Event {
	return Event{
		Timestamp: time.Now(),
		Direction: DirectionNone,
		Layer:     LayerService,
		Category:  CategoryDecision,
		Decision: &DecisionEvent{
			User:     user,
			Command:  "DISENGAGE",
			Executed: executed,
			Reason:   reason,
		},
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	event := Event{
		Timestamp: time.Now().Truncate(time.Millisecond),
		Direction: DirectionIn,
		Layer:     LayerTransport,
		Category:  CategoryMessage,
		Topic:     "latch/commands",
		Message: &MessageEvent{
			Size:    5,
			Payload: "1lock",
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}

	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	if got.Topic != event.Topic {
		t.Errorf("Topic = %q, want %q", got.Topic, event.Topic)
	}
	if got.Message == nil || got.Message.Payload != "1lock" {
		t.Errorf("Message = %+v, want payload %q", got.Message, "1lock")
	}
	if got.Layer != LayerTransport || got.Category != CategoryMessage {
		t.Errorf("Layer/Category = %v/%v", got.Layer, got.Category)
	}
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.llog")

	fl, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	fl.Log(decisionEvent(1, true, ""))
	fl.Log(decisionEvent(2, false, "hash mismatch"))
	if err := fl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Log after close is silently ignored.
	fl.Log(decisionEvent(3, true, ""))

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()

	var events []Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		events = append(events, e)
	}

	if len(events) != 2 {
		t.Fatalf("read %d events, want 2", len(events))
	}
	if !events[0].Decision.Executed {
		t.Error("first decision Executed = false, want true")
	}
	if events[1].Decision.Reason != "hash mismatch" {
		t.Errorf("second decision Reason = %q", events[1].Decision.Reason)
	}
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.llog")

	fl, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	fl.Log(Event{
		Timestamp: time.Now(),
		Direction: DirectionIn,
		Layer:     LayerTransport,
		Category:  CategoryMessage,
		Topic:     "latch/commands",
		Message:   &MessageEvent{Size: 5, Payload: "1lock"},
	})
	fl.Log(decisionEvent(1, true, ""))
	fl.Close()

	cat := CategoryDecision
	r, err := NewFilteredReader(path, Filter{Category: &cat})
	if err != nil {
		t.Fatalf("NewFilteredReader() error = %v", err)
	}
	defer r.Close()

	e, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if e.Category != CategoryDecision {
		t.Errorf("Category = %v, want CategoryDecision", e.Category)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() after last match error = %v, want io.EOF", err)
	}
}

func TestMultiLogger(t *testing.T) {
	var mu sync.Mutex
	var got []Event
	a := loggerFunc(func(e Event) { mu.Lock(); got = append(got, e); mu.Unlock() })
	b := loggerFunc(func(e Event) { mu.Lock(); got = append(got, e); mu.Unlock() })

	m := NewMultiLogger(a, b)
	m.Log(decisionEvent(1, true, ""))

	if len(got) != 2 {
		t.Errorf("delivered to %d loggers, want 2", len(got))
	}
}

// loggerFunc adapts a function to the Logger interface.
type loggerFunc func(Event)

func (f loggerFunc) Log(e Event) { f(e) }

func TestSlogAdapter(t *testing.T) {
	// Must not panic on any event shape; output content is slog's concern.
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))

	adapter.Log(decisionEvent(1, false, "no outstanding challenge"))
	adapter.Log(Event{
		Timestamp:   time.Now(),
		Direction:   DirectionNone,
		Layer:       LayerService,
		Category:    CategoryState,
		StateChange: &StateChangeEvent{Entity: StateEntityAuthorizer, OldState: "IDLE", NewState: "AWAITING_RESPONSE"},
	})
	adapter.Log(Event{
		Timestamp: time.Now(),
		Direction: DirectionIn,
		Layer:     LayerWire,
		Category:  CategoryError,
		Error:     &ErrorEventData{Layer: LayerWire, Message: "unknown command word", Context: "command request"},
	})
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Log(decisionEvent(0, false, "")) // must not panic
}
