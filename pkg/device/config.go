package device

import (
	"crypto/tls"
	"log/slog"
	"time"

	latchlog "github.com/latch-protocol/latch-go/pkg/log"
)

const (
	// DefaultPollInterval paces the Run loop.
	DefaultPollInterval = 10 * time.Millisecond

	// Default topic names. Deployments sharing a broker across several
	// latches override these with per-device prefixes.
	DefaultCommandTopic            = "latch/commands"
	DefaultValidationRequestTopic  = "latch/validation/requests"
	DefaultValidationResponseTopic = "latch/validation/responses"
)

// Topics names the three pub/sub channels a device uses.
type Topics struct {
	// Commands carries inbound command requests from users.
	Commands string

	// ValidationRequests carries outbound challenges to verifiers.
	ValidationRequests string

	// ValidationResponses carries inbound digest responses.
	ValidationResponses string
}

// DefaultTopics returns the standard topic set.
func DefaultTopics() Topics {
	return Topics{
		Commands:            DefaultCommandTopic,
		ValidationRequests:  DefaultValidationRequestTopic,
		ValidationResponses: DefaultValidationResponseTopic,
	}
}

// Config configures a Service.
type Config struct {
	// StorePath is the config store backing file. Used only when no
	// store is injected with SetStore.
	StorePath string

	// Topics to subscribe and publish on. Zero value means DefaultTopics.
	Topics Topics

	// ChallengeExpiry bounds how long an issued challenge stays
	// answerable. Zero disables expiry.
	ChallengeExpiry time.Duration

	// PollInterval paces the Run loop. Zero means DefaultPollInterval.
	PollInterval time.Duration

	// TLSConfig secures the broker connection when non-nil.
	TLSConfig *tls.Config

	// Logger for operational output (optional).
	Logger *slog.Logger

	// ProtocolLogger for structured event capture (optional).
	ProtocolLogger latchlog.Logger
}

// DefaultConfig returns a Config with the standard topics and poll
// interval. StorePath must still be set (or a store injected) before Boot.
func DefaultConfig() Config {
	return Config{
		Topics:       DefaultTopics(),
		PollInterval: DefaultPollInterval,
	}
}

func (c *Config) applyDefaults() {
	if c.Topics == (Topics{}) {
		c.Topics = DefaultTopics()
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.ProtocolLogger == nil {
		c.ProtocolLogger = latchlog.NoopLogger{}
	}
}
