package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/latch-protocol/latch-go/pkg/log"
)

// RunExport converts a capture to the requested format.
func RunExport(path, format, output string) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(path, w)
	case "csv":
		return exportCSV(path, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(path string, w io.Writer) error {
	encoder := json.NewEncoder(w)
	return forEachEvent(path, log.Filter{}, func(event log.Event) error {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("encoding event: %w", err)
		}
		return nil
	})
}

func exportCSV(path string, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "connection_id", "direction", "layer", "category", "topic", "type", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	return forEachEvent(path, log.Filter{}, func(event log.Event) error {
		record := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.ConnectionID,
			event.Direction.String(),
			event.Layer.String(),
			event.Category.String(),
			event.Topic,
			typeLabel(event),
			eventDetail(event),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		return nil
	})
}

// eventDetail summarizes the type-specific payload in one cell.
func eventDetail(event log.Event) string {
	switch {
	case event.Message != nil:
		return event.Message.Payload
	case event.StateChange != nil:
		return event.StateChange.OldState + "->" + event.StateChange.NewState
	case event.Decision != nil:
		return "user=" + strconv.Itoa(event.Decision.User) + " executed=" + strconv.FormatBool(event.Decision.Executed)
	case event.Error != nil:
		return event.Error.Message
	}
	return ""
}
