package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/latch-protocol/latch-go/pkg/log"
)

// BuildFilter parses flag strings into a log.Filter. Empty strings
// leave the criterion unset.
func BuildFilter(connID, direction, layer, category, topic string) (log.Filter, error) {
	filter := log.Filter{ConnectionID: connID, Topic: topic}

	if direction != "" {
		d, err := parseDirection(direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if layer != "" {
		l, err := parseLayer(layer)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Layer = &l
	}
	if category != "" {
		c, err := parseCategory(category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	return filter, nil
}

func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	case "none":
		return log.DirectionNone, nil
	}
	return 0, fmt.Errorf("unknown direction: %s (in, out, none)", s)
}

func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "service":
		return log.LayerService, nil
	}
	return 0, fmt.Errorf("unknown layer: %s (transport, wire, service)", s)
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "state":
		return log.CategoryState, nil
	case "decision":
		return log.CategoryDecision, nil
	case "error":
		return log.CategoryError, nil
	}
	return 0, fmt.Errorf("unknown category: %s (message, state, decision, error)", s)
}

// RunView prints matching events in human-readable form.
func RunView(path string, filter log.Filter, w io.Writer) error {
	count := 0
	err := forEachEvent(path, filter, func(event log.Event) error {
		formatEvent(w, event)
		count++
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%d events\n", count)
	return nil
}

// formatEvent writes one event as a header line plus indented details.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	fmt.Fprintf(w, "%s [conn:%s] %-4s %-9s %s\n",
		ts, shortenConnID(event.ConnectionID), event.Direction, event.Layer, typeLabel(event))

	switch {
	case event.Message != nil:
		if event.Topic != "" {
			fmt.Fprintf(w, "  Topic:   %s\n", event.Topic)
		}
		fmt.Fprintf(w, "  Payload: %q (%d bytes)", event.Message.Payload, event.Message.Size)
		if event.Message.Truncated {
			fmt.Fprint(w, " [truncated]")
		}
		fmt.Fprintln(w)

	case event.StateChange != nil:
		sc := event.StateChange
		fmt.Fprintf(w, "  %s: %s -> %s", sc.Entity, sc.OldState, sc.NewState)
		if sc.Reason != "" {
			fmt.Fprintf(w, " (%s)", sc.Reason)
		}
		fmt.Fprintln(w)

	case event.Decision != nil:
		d := event.Decision
		verdict := "REJECTED"
		if d.Executed {
			verdict = "EXECUTED"
		}
		fmt.Fprintf(w, "  User %d %s", d.User, verdict)
		if d.Command != "" {
			fmt.Fprintf(w, " %s", d.Command)
		}
		if d.Reason != "" {
			fmt.Fprintf(w, " (%s)", d.Reason)
		}
		fmt.Fprintln(w)

	case event.Error != nil:
		fmt.Fprintf(w, "  %s", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, " [%s]", event.Error.Context)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
}

func typeLabel(event log.Event) string {
	switch {
	case event.Message != nil:
		return "Message"
	case event.StateChange != nil:
		return "State"
	case event.Decision != nil:
		return "Decision"
	case event.Error != nil:
		return "Error"
	}
	return "Unknown"
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}
