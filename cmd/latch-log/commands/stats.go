package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/latch-protocol/latch-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	EventsByTopic     map[string]int
	Decisions         struct {
		Executed int
		Rejected int
	}
	Errors    int
	TimeRange struct {
		Start time.Time
		End   time.Time
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := collectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func collectStats(path string) (*Stats, error) {
	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		EventsByTopic:     make(map[string]int),
	}

	err := forEachEvent(path, log.Filter{}, func(event log.Event) error {
		stats.tally(event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// tally folds one event into the aggregates.
func (s *Stats) tally(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++
	if event.Topic != "" {
		s.EventsByTopic[event.Topic]++
	}

	if event.Decision != nil {
		if event.Decision.Executed {
			s.Decisions.Executed++
		} else {
			s.Decisions.Rejected++
		}
	}
	if event.Error != nil {
		s.Errors++
	}

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintf(w, "Total events: %d\n", stats.TotalEvents)
	if !stats.TimeRange.Start.IsZero() {
		fmt.Fprintf(w, "Time range:   %s - %s (%s)\n",
			stats.TimeRange.Start.UTC().Format(time.RFC3339),
			stats.TimeRange.End.UTC().Format(time.RFC3339),
			stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
	}

	fmt.Fprintln(w, "\nBy layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerService} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", layer, count)
		}
	}

	fmt.Fprintln(w, "\nBy category:")
	for _, category := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryDecision, log.CategoryError} {
		if count := stats.EventsByCategory[category]; count > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", category, count)
		}
	}

	fmt.Fprintln(w, "\nBy direction:")
	for _, direction := range []log.Direction{log.DirectionIn, log.DirectionOut, log.DirectionNone} {
		if count := stats.EventsByDirection[direction]; count > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", direction, count)
		}
	}

	if len(stats.EventsByTopic) > 0 {
		fmt.Fprintln(w, "\nBy topic:")
		topics := make([]string, 0, len(stats.EventsByTopic))
		for topic := range stats.EventsByTopic {
			topics = append(topics, topic)
		}
		sort.Strings(topics)
		for _, topic := range topics {
			fmt.Fprintf(w, "  %-32s %d\n", topic, stats.EventsByTopic[topic])
		}
	}

	fmt.Fprintf(w, "\nDecisions: %d executed, %d rejected\n",
		stats.Decisions.Executed, stats.Decisions.Rejected)
	fmt.Fprintf(w, "Errors:    %d\n", stats.Errors)
}
