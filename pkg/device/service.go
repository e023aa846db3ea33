package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/latch-protocol/latch-go/pkg/authorizer"
	"github.com/latch-protocol/latch-go/pkg/configstore"
	"github.com/latch-protocol/latch-go/pkg/transport"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

// Service errors.
var (
	// ErrIncompleteConfiguration means the config store is still missing
	// credentials after provisioning. The device cannot operate; the
	// caller should surface the failure and restart after provisioning.
	ErrIncompleteConfiguration = errors.New("configuration incomplete")

	// ErrNoStorePath means neither a store nor a StorePath was provided.
	ErrNoStorePath = errors.New("no config store path")

	// ErrNoActuator means Start was called without an actuator.
	ErrNoActuator = errors.New("no actuator")

	// ErrNotBooted means Start was called before a successful Boot.
	ErrNotBooted = errors.New("service not booted")

	// ErrNotRunning means Poll or Run was called outside the running state.
	ErrNotRunning = errors.New("service not running")

	// ErrAlreadyBooted means Boot was called twice.
	ErrAlreadyBooted = errors.New("service already booted")
)

// ServiceState tracks the lifecycle position of a Service.
type ServiceState uint8

const (
	StateCreated ServiceState = iota
	StateBooted
	StateRunning
	StateStopped
)

func (s ServiceState) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateBooted:
		return "BOOTED"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	}
	return "UNKNOWN"
}

// Service is the latch endpoint. Construct with New, configure with the
// setters, then Boot, Start, and Run in that order.
type Service struct {
	config Config

	store     *configstore.Store
	storeFile *os.File
	creds     configstore.Credentials

	bus     transport.PubSub
	ownsBus bool

	auth     *authorizer.Authorizer
	actuator authorizer.Actuator

	provisioner Provisioner
	onEvent     EventHandler

	state ServiceState
}

// New creates a Service. It performs no I/O.
func New(config Config) *Service {
	config.applyDefaults()
	return &Service{config: config, state: StateCreated}
}

// SetStore injects a config store, overriding Config.StorePath.
// The caller keeps ownership of the backing media.
func (s *Service) SetStore(store *configstore.Store) {
	s.store = store
}

// SetTransport injects a broker connection, overriding the default
// dial to the stored endpoint. The caller keeps ownership.
func (s *Service) SetTransport(bus transport.PubSub) {
	s.bus = bus
}

// SetActuator sets the latch actuator. Required before Start.
func (s *Service) SetActuator(a authorizer.Actuator) {
	s.actuator = a
}

// SetProvisioner sets the provisioner consulted during Boot when the
// store is incomplete. Optional; without one an incomplete store is a
// fatal Boot error.
func (s *Service) SetProvisioner(p Provisioner) {
	s.provisioner = p
}

// OnEvent registers the event callback. Invoked on the poll goroutine.
func (s *Service) OnEvent(fn EventHandler) {
	s.onEvent = fn
}

// State returns the lifecycle state.
func (s *Service) State() ServiceState {
	return s.state
}

// Credentials returns the credentials loaded at Boot.
func (s *Service) Credentials() configstore.Credentials {
	return s.creds
}

// Boot prepares the config store and loads credentials.
//
// On first boot the store region is initialized to empty. When any slot
// is missing the provisioner runs; if the store is still incomplete
// afterwards Boot fails with ErrIncompleteConfiguration and the device
// must not proceed to Start.
func (s *Service) Boot(ctx context.Context) error {
	if s.state != StateCreated {
		return ErrAlreadyBooted
	}

	if s.store == nil {
		if s.config.StorePath == "" {
			return ErrNoStorePath
		}
		f, err := configstore.OpenFile(s.config.StorePath)
		if err != nil {
			return fmt.Errorf("opening config store: %w", err)
		}
		s.storeFile = f
		s.store = configstore.New(f)
	}

	initialized, err := s.store.InitializeIfNeeded()
	if err != nil {
		return s.bootFailed(fmt.Errorf("initializing config store: %w", err))
	}
	if initialized {
		s.config.Logger.Info("config store initialized")
	}

	complete, err := s.store.IsComplete()
	if err != nil {
		return s.bootFailed(err)
	}
	if !complete && s.provisioner != nil {
		s.config.Logger.Info("configuration incomplete, provisioning")
		if err := s.provisioner.Provision(ctx, s.store); err != nil {
			return s.bootFailed(err)
		}
		if complete, err = s.store.IsComplete(); err != nil {
			return s.bootFailed(err)
		}
	}
	if !complete {
		return s.bootFailed(ErrIncompleteConfiguration)
	}

	if s.creds, err = s.store.Credentials(); err != nil {
		return s.bootFailed(err)
	}

	s.state = StateBooted
	s.config.Logger.Info("booted", "endpoint", s.creds.Endpoint, "username", s.creds.Username)
	return nil
}

// bootFailed releases the store file when Boot opened it.
func (s *Service) bootFailed(err error) error {
	if s.storeFile != nil {
		s.storeFile.Close()
		s.storeFile = nil
		s.store = nil
	}
	return err
}

// Start connects to the broker and subscribes to the device topics.
func (s *Service) Start() error {
	if s.state != StateBooted {
		return ErrNotBooted
	}
	if s.actuator == nil {
		return ErrNoActuator
	}

	if s.bus == nil {
		client, err := transport.Dial(transport.ClientConfig{
			Address:        s.creds.Endpoint,
			Username:       s.creds.Username,
			Password:       s.creds.Password,
			TLSConfig:      s.config.TLSConfig,
			Logger:         s.config.Logger,
			ProtocolLogger: s.config.ProtocolLogger,
		})
		if err != nil {
			return fmt.Errorf("connecting to broker: %w", err)
		}
		s.bus = client
		s.ownsBus = true
	}

	auth, err := authorizer.New(authorizer.Config{
		Publish: func(payload string) error {
			return s.bus.Publish(s.config.Topics.ValidationRequests, payload)
		},
		Actuator:       s.actuator,
		Expiry:         s.config.ChallengeExpiry,
		Logger:         s.config.Logger,
		ProtocolLogger: s.config.ProtocolLogger,
	})
	if err != nil {
		return err
	}
	s.auth = auth

	s.bus.SetHandler(s.dispatch)
	for _, topic := range []string{s.config.Topics.Commands, s.config.Topics.ValidationResponses} {
		if err := s.bus.Subscribe(topic); err != nil {
			s.Stop()
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
	}

	s.state = StateRunning
	s.config.Logger.Info("started",
		"commands", s.config.Topics.Commands,
		"responses", s.config.Topics.ValidationResponses)
	return nil
}

// dispatch routes one inbound message. Runs on the poll goroutine.
func (s *Service) dispatch(topic, payload string) {
	switch topic {
	case s.config.Topics.Commands:
		if err := s.auth.HandleCommandRequest(payload); err != nil {
			s.config.Logger.Debug("command request dropped", "error", err)
			return
		}
		req, _ := wire.ParseCommandRequest(payload)
		s.emit(Event{Type: EventChallengeIssued, User: req.User})

	case s.config.Topics.ValidationResponses:
		out, err := s.auth.HandleValidationResponse(payload)
		if err != nil {
			s.config.Logger.Info("command rejected", "user", out.User, "error", err)
			s.emit(Event{Type: EventCommandRejected, User: out.User, Err: err})
			return
		}
		s.emit(Event{Type: EventCommandExecuted, User: out.User, Command: out.Command})

	default:
		s.config.Logger.Debug("message on unexpected topic", "topic", topic)
	}
}

// Poll runs one cycle: dispatch at most one inbound message, then sweep
// the challenge expiry. Exposed so callers can drive the service from
// their own loop instead of Run.
func (s *Service) Poll() error {
	if s.state != StateRunning {
		return ErrNotRunning
	}
	if err := s.bus.Poll(); err != nil {
		return err
	}
	if s.auth.CheckExpiry() {
		s.emit(Event{Type: EventChallengeExpired, User: -1})
	}
	return nil
}

// Run polls until ctx is canceled or the transport fails. The service
// is stopped on return. A transport failure is returned to the caller,
// who typically restarts the process.
func (s *Service) Run(ctx context.Context) error {
	if s.state != StateRunning {
		return ErrNotRunning
	}
	defer s.Stop()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Poll(); err != nil {
				return fmt.Errorf("poll: %w", err)
			}
		}
	}
}

// Stop closes the broker connection and store file when the service
// owns them. Safe to call more than once.
func (s *Service) Stop() {
	if s.state == StateStopped {
		return
	}
	if s.ownsBus && s.bus != nil {
		s.bus.Close()
		s.bus = nil
	}
	if s.storeFile != nil {
		s.storeFile.Close()
		s.storeFile = nil
	}
	s.state = StateStopped
	s.config.Logger.Info("stopped")
}

func (s *Service) emit(ev Event) {
	if s.onEvent != nil {
		s.onEvent(ev)
	}
}
