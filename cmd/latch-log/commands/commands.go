// Package commands implements the latch-log subcommands.
package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/latch-protocol/latch-go/pkg/log"
)

// forEachEvent streams matching events out of a capture file.
func forEachEvent(path string, filter log.Filter, fn func(log.Event) error) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("opening capture: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading event: %w", err)
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}
