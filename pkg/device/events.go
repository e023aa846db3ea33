package device

import "github.com/latch-protocol/latch-go/pkg/wire"

// EventType classifies service events.
type EventType uint8

const (
	// EventChallengeIssued fires after a validation request was published.
	EventChallengeIssued EventType = iota

	// EventCommandExecuted fires after the actuator applied a command.
	EventCommandExecuted

	// EventCommandRejected fires when a validation response was refused.
	EventCommandRejected

	// EventChallengeExpired fires when the expiry sweep dropped a challenge.
	EventChallengeExpired
)

func (t EventType) String() string {
	switch t {
	case EventChallengeIssued:
		return "CHALLENGE_ISSUED"
	case EventCommandExecuted:
		return "COMMAND_EXECUTED"
	case EventCommandRejected:
		return "COMMAND_REJECTED"
	case EventChallengeExpired:
		return "CHALLENGE_EXPIRED"
	}
	return "UNKNOWN"
}

// Event is delivered to the OnEvent callback.
type Event struct {
	Type EventType

	// User is the user digit the event concerns, -1 when unknown.
	User int

	// Command is set for EventCommandExecuted.
	Command wire.Command

	// Err carries the rejection reason for EventCommandRejected.
	Err error
}

// EventHandler receives service events. Invoked on the poll goroutine;
// must not block.
type EventHandler func(Event)
