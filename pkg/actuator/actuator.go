// Package actuator provides latch actuator implementations.
//
// The real device drives a GPIO relay; that lives outside this module.
// Simulated stands in for it in examples and tests: it tracks the bolt
// position and records every command it was asked to perform.
package actuator

import (
	"log/slog"
	"sync"

	"github.com/latch-protocol/latch-go/pkg/authorizer"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

var _ authorizer.Actuator = (*Simulated)(nil)

// Simulated is an in-memory latch.
type Simulated struct {
	mu      sync.Mutex
	locked  bool
	history []wire.Command
	logger  *slog.Logger
}

// NewSimulated creates a simulated latch, initially unlocked.
// Pass nil to disable logging.
func NewSimulated(logger *slog.Logger) *Simulated {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Simulated{logger: logger}
}

// Apply performs the command: DISENGAGE arms the bolt, ENGAGE releases it.
func (s *Simulated) Apply(cmd wire.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd {
	case wire.CommandDisengage:
		s.locked = true
	case wire.CommandEngage:
		s.locked = false
	}
	s.history = append(s.history, cmd)
	s.logger.Info("latch actuated", "command", cmd.String(), "locked", s.locked)
	return nil
}

// Locked reports the current bolt position.
func (s *Simulated) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// History returns every command applied so far, in order.
func (s *Simulated) History() []wire.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Command, len(s.history))
	copy(out, s.history)
	return out
}
