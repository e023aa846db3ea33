package wire

import (
	"errors"
	"fmt"
)

// Command words accepted on the command topic. Matching is case-sensitive.
const (
	WordLock   = "lock"
	WordUnlock = "unlock"
)

// Parse errors.
var (
	// ErrEmptyPayload indicates a payload too short to carry a message.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrBadUserDigit indicates the leading character is not an ASCII digit.
	ErrBadUserDigit = errors.New("leading character is not a user digit")

	// ErrUnknownCommand indicates an unrecognized command word.
	ErrUnknownCommand = errors.New("unknown command word")
)

// Command identifies the latch action requested by a command message.
type Command uint8

const (
	// CommandEngage releases the latch ("unlock" on the wire).
	CommandEngage Command = 1

	// CommandDisengage arms the latch ("lock" on the wire).
	CommandDisengage Command = 2
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CommandEngage:
		return "ENGAGE"
	case CommandDisengage:
		return "DISENGAGE"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether the command is a known value.
func (c Command) IsValid() bool {
	return c == CommandEngage || c == CommandDisengage
}

// CommandRequest is a decoded command topic payload.
type CommandRequest struct {
	// User is the issuing user digit (0-9).
	User int

	// Command is the requested latch action.
	Command Command
}

// ParseCommandRequest decodes a command topic payload.
// The payload must be at least two characters: a leading ASCII digit
// followed by exactly "lock" or "unlock".
func ParseCommandRequest(payload string) (CommandRequest, error) {
	if len(payload) < 2 {
		return CommandRequest{}, ErrEmptyPayload
	}

	user, ok := userDigit(payload[0])
	if !ok {
		return CommandRequest{}, ErrBadUserDigit
	}

	var cmd Command
	switch payload[1:] {
	case WordLock:
		cmd = CommandDisengage
	case WordUnlock:
		cmd = CommandEngage
	default:
		return CommandRequest{}, fmt.Errorf("%w: %q", ErrUnknownCommand, payload[1:])
	}

	return CommandRequest{User: user, Command: cmd}, nil
}

// ValidationRequest is a challenge published by the device.
type ValidationRequest struct {
	// User is the digit of the user the challenge was issued for.
	User int

	// Nonce is the single-use random token the verifier must digest.
	Nonce string
}

// Encode renders the validation request payload.
func (r ValidationRequest) Encode() string {
	return fmt.Sprintf("%d%s", r.User, r.Nonce)
}

// ValidationResponse is a decoded validation response payload.
type ValidationResponse struct {
	// User is the responding user digit.
	User int

	// Digest is the claimed digest string, compared byte-for-byte against
	// the expected digest (no numeric coercion).
	Digest string
}

// ParseValidationResponse decodes a validation response payload.
// The payload must be non-empty with a leading ASCII digit; the remainder
// (possibly empty) is the claimed digest string.
func ParseValidationResponse(payload string) (ValidationResponse, error) {
	if len(payload) == 0 {
		return ValidationResponse{}, ErrEmptyPayload
	}

	user, ok := userDigit(payload[0])
	if !ok {
		return ValidationResponse{}, ErrBadUserDigit
	}

	return ValidationResponse{User: user, Digest: payload[1:]}, nil
}

// userDigit converts a leading payload byte to a user number.
func userDigit(b byte) (int, bool) {
	if b < '0' || b > '9' {
		return 0, false
	}
	return int(b - '0'), true
}
