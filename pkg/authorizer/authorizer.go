package authorizer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/latch-protocol/latch-go/pkg/challenge"
	latchlog "github.com/latch-protocol/latch-go/pkg/log"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

// State represents the authorizer state.
type State uint8

const (
	// StateIdle - no challenge outstanding.
	StateIdle State = iota

	// StateAwaitingResponse - one challenge outstanding.
	StateAwaitingResponse
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAwaitingResponse:
		return "AWAITING_RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// Authorization errors. Parsing and matching errors are recovered locally
// by the caller: they never escalate past a log line.
var (
	// ErrMalformedRequest indicates an unparsable command payload.
	// State is unchanged and nothing is published.
	ErrMalformedRequest = errors.New("malformed command request")

	// ErrNoOutstandingChallenge indicates a response arrived with nothing
	// pending. No-op with respect to state.
	ErrNoOutstandingChallenge = errors.New("no outstanding challenge")

	// ErrHashMismatch indicates the response did not match the pending
	// challenge's user or digest. The actuator is not invoked.
	ErrHashMismatch = errors.New("hash mismatch")

	// ErrChallengeExpired indicates the pending challenge outlived the
	// configured expiry before a response arrived.
	ErrChallengeExpired = errors.New("challenge expired")
)

// Actuator performs the physical effect of an authorized command.
// Apply is invoked synchronously, exactly once per matched response.
type Actuator interface {
	Apply(cmd wire.Command) error
}

// Digester computes the digest echoed back by the remote verifier.
// challenge.Digest is the default; *challenge.KeyedDigester is the
// opt-in keyed alternative.
type Digester func(challenge.Nonce) string

// Config configures an Authorizer.
type Config struct {
	// Generator produces challenge nonces. Defaults to a boot-seeded
	// challenge.NewGenerator.
	Generator *challenge.Generator

	// Digest computes the expected digest of a nonce.
	// Defaults to challenge.Digest.
	Digest Digester

	// Publish sends a validation request payload on the outbound topic.
	// Required.
	Publish func(payload string) error

	// Actuator receives authorized commands. Required.
	Actuator Actuator

	// Expiry bounds how long a pending challenge stays answerable.
	// Zero disables expiry: a challenge then lives until superseded
	// or answered.
	Expiry time.Duration

	// Logger for operational output (optional).
	Logger *slog.Logger

	// ProtocolLogger for structured event capture (optional).
	ProtocolLogger latchlog.Logger
}

// pendingChallenge is the single outstanding challenge.
// Exclusively owned by the Authorizer; never exposed outside it.
type pendingChallenge struct {
	issuingUser    int
	command        wire.Command
	expectedDigest string

	// nonce is retained only for logging and debugging; verification
	// compares digests, not nonces.
	nonce challenge.Nonce

	issuedAt time.Time
}

// Outcome is the transient result of processing a validation response.
// When Executed is false the accompanying error carries the rejection
// reason.
type Outcome struct {
	// Executed indicates the actuator was invoked.
	Executed bool

	// User is the user digit of the settled challenge (or responding user
	// when nothing was pending).
	User int

	// Command is the authorized command; valid only when Executed.
	Command wire.Command

	// Nonce is the settled challenge's nonce, for logging only.
	Nonce challenge.Nonce
}

// Authorizer is the command-authorization state machine.
//
// Not safe for concurrent use: every method must be called from the single
// transport poll goroutine.
type Authorizer struct {
	gen      *challenge.Generator
	digest   Digester
	publish  func(string) error
	actuator Actuator
	expiry   time.Duration

	logger   *slog.Logger
	protocol latchlog.Logger

	pending *pendingChallenge

	// now is the clock, swapped in tests to drive expiry.
	now func() time.Time
}

// New creates an authorizer.
func New(config Config) (*Authorizer, error) {
	if config.Publish == nil {
		return nil, errors.New("authorizer: Publish is required")
	}
	if config.Actuator == nil {
		return nil, errors.New("authorizer: Actuator is required")
	}
	if config.Generator == nil {
		config.Generator = challenge.NewGenerator()
	}
	if config.Digest == nil {
		config.Digest = challenge.Digest
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.ProtocolLogger == nil {
		config.ProtocolLogger = latchlog.NoopLogger{}
	}

	return &Authorizer{
		gen:      config.Generator,
		digest:   config.Digest,
		publish:  config.Publish,
		actuator: config.Actuator,
		expiry:   config.Expiry,
		logger:   config.Logger,
		protocol: config.ProtocolLogger,
		now:      time.Now,
	}, nil
}

// State returns the current state.
func (a *Authorizer) State() State {
	if a.pending != nil {
		return StateAwaitingResponse
	}
	return StateIdle
}

// HandleCommandRequest processes a command topic payload.
//
// A well-formed request replaces any pending challenge unconditionally,
// publishes <user><nonce> on the validation request topic, and moves the
// authorizer to AWAITING_RESPONSE. A malformed request returns
// ErrMalformedRequest and leaves state and pending challenge untouched.
func (a *Authorizer) HandleCommandRequest(payload string) error {
	req, err := wire.ParseCommandRequest(payload)
	if err != nil {
		a.logger.Warn("ignoring malformed command request",
			"payload", payload, "err", err)
		a.logError("command request", err)
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	nonce := a.gen.NextNonce()
	expected := a.digest(nonce)

	superseded := a.pending
	oldState := a.State()
	a.pending = &pendingChallenge{
		issuingUser:    req.User,
		command:        req.Command,
		expectedDigest: expected,
		nonce:          nonce,
		issuedAt:       a.now(),
	}

	if superseded != nil {
		a.logger.Debug("superseding pending challenge",
			"old_user", superseded.issuingUser,
			"old_command", superseded.command.String())
	}

	out := wire.ValidationRequest{User: req.User, Nonce: nonce.String()}
	if err := a.publish(out.Encode()); err != nil {
		// The challenge was never broadcast, so nobody can answer it.
		a.pending = nil
		a.logStateChange(StateAwaitingResponse, StateIdle, "publish failed")
		return fmt.Errorf("failed to publish challenge: %w", err)
	}

	a.logger.Info("challenge issued",
		"user", req.User,
		"command", req.Command.String(),
		"nonce", nonce.String())
	a.logStateChange(oldState, StateAwaitingResponse, "command request")

	return nil
}

// HandleValidationResponse processes a validation response payload.
//
// The outcome is Executed iff the responding user digit equals the pending
// challenge's issuing user and the claimed digest string equals the
// expected digest exactly. The pending challenge is cleared whether or not
// the response matched; only a response with nothing pending leaves state
// untouched.
func (a *Authorizer) HandleValidationResponse(payload string) (Outcome, error) {
	if a.pending == nil {
		a.logger.Warn("ignoring response with no outstanding challenge",
			"payload", payload)
		a.logDecision(Outcome{}, ErrNoOutstandingChallenge)
		return Outcome{}, ErrNoOutstandingChallenge
	}

	if a.expired() {
		out := a.settle()
		a.logger.Warn("rejecting response to expired challenge",
			"user", out.User)
		a.logDecision(out, ErrChallengeExpired)
		return out, ErrChallengeExpired
	}

	resp, err := wire.ParseValidationResponse(payload)
	if err != nil {
		// The response was processed, so the challenge is consumed even
		// though the payload never named a user or digest.
		out := a.settle()
		a.logger.Warn("rejecting unparsable validation response",
			"payload", payload, "err", err)
		a.logDecision(out, ErrHashMismatch)
		return out, fmt.Errorf("%w: %v", ErrHashMismatch, err)
	}

	pending := a.pending
	out := a.settle()

	if resp.User != pending.issuingUser || resp.Digest != pending.expectedDigest {
		a.logger.Warn("rejecting validation response",
			"responding_user", resp.User,
			"issuing_user", pending.issuingUser,
			"digest_match", resp.Digest == pending.expectedDigest)
		a.logDecision(out, ErrHashMismatch)
		return out, ErrHashMismatch
	}

	// Matched: exactly one actuator invocation, before returning.
	if err := a.actuator.Apply(pending.command); err != nil {
		a.logger.Error("actuator failed",
			"command", pending.command.String(), "err", err)
		a.logDecision(out, err)
		return out, fmt.Errorf("actuator failed: %w", err)
	}

	out.Executed = true
	a.logger.Info("command executed",
		"user", pending.issuingUser,
		"command", pending.command.String())
	a.logDecision(out, nil)

	return out, nil
}

// CheckExpiry collapses an expired pending challenge back to IDLE.
// Call it from the poll loop; it returns true if a challenge was dropped.
func (a *Authorizer) CheckExpiry() bool {
	if a.pending == nil || !a.expired() {
		return false
	}

	user := a.pending.issuingUser
	a.pending = nil
	a.logger.Info("challenge expired", "user", user)
	a.logStateChange(StateAwaitingResponse, StateIdle, "expired")
	return true
}

// expired reports whether the pending challenge outlived the expiry.
// Always false when no expiry is configured.
func (a *Authorizer) expired() bool {
	if a.pending == nil || a.expiry <= 0 {
		return false
	}
	return a.now().Sub(a.pending.issuedAt) >= a.expiry
}

// settle clears the pending challenge and returns an outcome naming it.
func (a *Authorizer) settle() Outcome {
	pending := a.pending
	a.pending = nil
	a.logStateChange(StateAwaitingResponse, StateIdle, "response processed")
	return Outcome{
		User:    pending.issuingUser,
		Command: pending.command,
		Nonce:   pending.nonce,
	}
}

func (a *Authorizer) logStateChange(oldState, newState State, reason string) {
	a.protocol.Log(latchlog.Event{
		Timestamp: a.now(),
		Direction: latchlog.DirectionNone,
		Layer:     latchlog.LayerService,
		Category:  latchlog.CategoryState,
		StateChange: &latchlog.StateChangeEvent{
			Entity:   latchlog.StateEntityAuthorizer,
			OldState: oldState.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})
}

func (a *Authorizer) logDecision(out Outcome, err error) {
	event := latchlog.DecisionEvent{
		User:     out.User,
		Executed: err == nil,
		Nonce:    out.Nonce.String(),
	}
	if out.Command.IsValid() {
		event.Command = out.Command.String()
	}
	if err != nil {
		event.Reason = err.Error()
	}
	a.protocol.Log(latchlog.Event{
		Timestamp: a.now(),
		Direction: latchlog.DirectionNone,
		Layer:     latchlog.LayerService,
		Category:  latchlog.CategoryDecision,
		Decision:  &event,
	})
}

func (a *Authorizer) logError(context string, err error) {
	a.protocol.Log(latchlog.Event{
		Timestamp: a.now(),
		Direction: latchlog.DirectionIn,
		Layer:     latchlog.LayerWire,
		Category:  latchlog.CategoryError,
		Error: &latchlog.ErrorEventData{
			Layer:   latchlog.LayerWire,
			Message: err.Error(),
			Context: context,
		},
	})
}
