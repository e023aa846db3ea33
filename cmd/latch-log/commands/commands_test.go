package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/latch-protocol/latch-go/pkg/log"
)

// writeSampleLog writes a small log file and returns its path.
func writeSampleLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.llog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("creating log file: %v", err)
	}
	defer logger.Close()

	ts := time.Date(2026, 8, 26, 10, 15, 32, 123456000, time.UTC)
	logger.Log(log.Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-6789",
		Direction:    log.DirectionIn,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Topic:        "latch/commands",
		Message:      &log.MessageEvent{Size: 5, Payload: "1lock"},
	})
	logger.Log(log.Event{
		Timestamp: ts.Add(time.Second),
		Direction: log.DirectionNone,
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityAuthorizer,
			OldState: "IDLE",
			NewState: "AWAITING_RESPONSE",
			Reason:   "challenge issued",
		},
	})
	logger.Log(log.Event{
		Timestamp: ts.Add(2 * time.Second),
		Direction: log.DirectionNone,
		Layer:     log.LayerService,
		Category:  log.CategoryDecision,
		Decision:  &log.DecisionEvent{User: 1, Command: "DISENGAGE", Executed: true},
	})
	return path
}

func TestRunView(t *testing.T) {
	path := writeSampleLog(t)

	var buf bytes.Buffer
	if err := RunView(path, log.Filter{}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"2026-08-26T10:15:32.123456Z",
		"[conn:abc12345]",
		"latch/commands",
		`"1lock" (5 bytes)`,
		"IDLE -> AWAITING_RESPONSE",
		"User 1 EXECUTED DISENGAGE",
		"3 events",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := writeSampleLog(t)

	filter, err := BuildFilter("", "", "service", "decision", "")
	if err != nil {
		t.Fatalf("BuildFilter: %v", err)
	}

	var buf bytes.Buffer
	if err := RunView(path, filter, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "1 events") {
		t.Errorf("expected 1 event, got:\n%s", output)
	}
	if strings.Contains(output, "1lock") {
		t.Errorf("message event not filtered out:\n%s", output)
	}
}

func TestBuildFilterErrors(t *testing.T) {
	if _, err := BuildFilter("", "sideways", "", "", ""); err == nil {
		t.Error("expected error for bad direction")
	}
	if _, err := BuildFilter("", "", "kernel", "", ""); err == nil {
		t.Error("expected error for bad layer")
	}
	if _, err := BuildFilter("", "", "", "opinion", ""); err == nil {
		t.Error("expected error for bad category")
	}
}

func TestRunExportJSONL(t *testing.T) {
	path := writeSampleLog(t)
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport: %v", err)
	}

	var buf bytes.Buffer
	if err := RunView(path, log.Filter{}, &buf); err != nil {
		t.Fatalf("RunView after export: %v", err)
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := writeSampleLog(t)
	if err := RunExport(path, "xml", ""); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRunFilterRoundTrip(t *testing.T) {
	path := writeSampleLog(t)
	out := filepath.Join(t.TempDir(), "filtered.llog")

	filter, err := BuildFilter("abc12345-6789", "", "", "", "")
	if err != nil {
		t.Fatalf("BuildFilter: %v", err)
	}
	if err := RunFilter(path, filter, out); err != nil {
		t.Fatalf("RunFilter: %v", err)
	}

	var buf bytes.Buffer
	if err := RunView(out, log.Filter{}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	if !strings.Contains(buf.String(), "1 events") {
		t.Errorf("expected 1 filtered event, got:\n%s", buf.String())
	}
}

func TestRunStats(t *testing.T) {
	path := writeSampleLog(t)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total events: 3",
		"TRANSPORT",
		"latch/commands",
		"1 executed, 0 rejected",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("stats missing %q:\n%s", want, output)
		}
	}
}
