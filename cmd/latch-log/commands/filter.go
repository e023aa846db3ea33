package commands

import (
	"fmt"

	"github.com/latch-protocol/latch-go/pkg/log"
)

// RunFilter copies matching events from path into a new capture file.
func RunFilter(path string, filter log.Filter, output string) error {
	writer, err := log.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("creating output capture: %w", err)
	}
	defer writer.Close()

	count := 0
	err = forEachEvent(path, filter, func(event log.Event) error {
		writer.Log(event)
		count++
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d events to %s\n", count, output)
	return nil
}
