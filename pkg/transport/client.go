package transport

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	latchlog "github.com/latch-protocol/latch-go/pkg/log"
)

// Client defaults.
const (
	// DefaultDialTimeout bounds connection establishment and the AUTH
	// handshake.
	DefaultDialTimeout = 10 * time.Second

	// DefaultQueueSize is the inbound message queue depth. The reader
	// goroutine blocks when the queue is full, which back-pressures the
	// broker rather than dropping messages.
	DefaultQueueSize = 64
)

// ClientConfig configures a broker connection.
type ClientConfig struct {
	// Address is the broker address (host:port). Required.
	Address string

	// Username and Password authenticate the device to the broker.
	// Both come from the config store.
	Username string
	Password string

	// TLSConfig enables TLS when non-nil; nil means plain TCP.
	TLSConfig *tls.Config

	// DialTimeout bounds dialing and the AUTH handshake.
	DialTimeout time.Duration

	// QueueSize is the inbound queue depth.
	QueueSize int

	// Logger for operational output (optional).
	Logger *slog.Logger

	// ProtocolLogger for structured event capture (optional).
	ProtocolLogger latchlog.Logger
}

// inboundMsg is one queued topic delivery.
type inboundMsg struct {
	topic   string
	payload string
}

// Client is a broker connection implementing PubSub.
//
// Publish and Subscribe are safe to call from any goroutine; Poll must be
// called from a single goroutine (the device poll loop).
type Client struct {
	conn   net.Conn
	framer *Framer
	connID string

	logger   *slog.Logger
	protocol latchlog.Logger

	handler Handler
	inbound chan inboundMsg
	readErr chan error

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial connects to a broker and performs the AUTH handshake.
func Dial(config ClientConfig) (*Client, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("broker address is required")
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = DefaultDialTimeout
	}
	if config.QueueSize == 0 {
		config.QueueSize = DefaultQueueSize
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.ProtocolLogger == nil {
		config.ProtocolLogger = latchlog.NoopLogger{}
	}

	var conn net.Conn
	var err error
	if config.TLSConfig != nil {
		dialer := &net.Dialer{Timeout: config.DialTimeout}
		conn, err = tls.DialWithDialer(dialer, "tcp", config.Address, config.TLSConfig)
	} else {
		conn, err = net.DialTimeout("tcp", config.Address, config.DialTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial broker: %w", err)
	}

	c := &Client{
		conn:     conn,
		framer:   NewFramer(conn),
		connID:   uuid.New().String(),
		logger:   config.Logger,
		protocol: config.ProtocolLogger,
		inbound:  make(chan inboundMsg, config.QueueSize),
		readErr:  make(chan error, 1),
		closed:   make(chan struct{}),
	}

	if err := c.authenticate(config); err != nil {
		conn.Close()
		return nil, err
	}

	c.logger.Info("connected to broker",
		"addr", config.Address, "conn_id", c.connID)

	go c.readLoop()
	return c, nil
}

// authenticate runs the AUTH handshake within the dial timeout.
func (c *Client) authenticate(config ClientConfig) error {
	deadline := time.Now().Add(config.DialTimeout)
	if err := c.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set handshake deadline: %w", err)
	}

	if err := c.framer.WriteFrame([]byte(encodeAuth(config.Username, config.Password))); err != nil {
		return fmt.Errorf("failed to send AUTH: %w", err)
	}

	frame, err := c.framer.ReadFrame()
	if err != nil {
		return fmt.Errorf("failed to read AUTH reply: %w", err)
	}
	verb, rest := splitFrame(string(frame))
	switch verb {
	case verbOK:
		// Clear the handshake deadline for normal operation.
		return c.conn.SetDeadline(time.Time{})
	case verbErr:
		return fmt.Errorf("%w: %s", ErrAuthFailed, rest)
	default:
		return fmt.Errorf("%w: unexpected AUTH reply %q", ErrBadFrame, verb)
	}
}

// readLoop queues inbound MSG frames until the connection fails or closes.
func (c *Client) readLoop() {
	for {
		frame, err := c.framer.ReadFrame()
		if err != nil {
			select {
			case <-c.closed:
			default:
				c.readErr <- fmt.Errorf("broker connection lost: %w", err)
			}
			return
		}

		verb, rest := splitFrame(string(frame))
		if verb != verbMsg {
			c.logger.Debug("ignoring unexpected frame", "verb", verb, "conn_id", c.connID)
			continue
		}
		topic, payload, err := splitTopicPayload(rest)
		if err != nil {
			c.logger.Debug("ignoring malformed MSG frame", "err", err, "conn_id", c.connID)
			continue
		}

		select {
		case c.inbound <- inboundMsg{topic: topic, payload: payload}:
		case <-c.closed:
			return
		}
	}
}

// Subscribe registers interest in a topic with the broker.
func (c *Client) Subscribe(topic string) error {
	if !validTopic(topic) {
		return fmt.Errorf("%w: %q", ErrBadTopic, topic)
	}
	if err := c.framer.WriteFrame([]byte(encodeSub(topic))); err != nil {
		return fmt.Errorf("failed to subscribe to %q: %w", topic, err)
	}
	c.logger.Debug("subscribed", "topic", topic, "conn_id", c.connID)
	return nil
}

// Publish sends a payload on a topic.
func (c *Client) Publish(topic, payload string) error {
	if !validTopic(topic) {
		return fmt.Errorf("%w: %q", ErrBadTopic, topic)
	}
	if err := c.framer.WriteFrame([]byte(encodePub(topic, payload))); err != nil {
		return fmt.Errorf("failed to publish to %q: %w", topic, err)
	}
	c.logMessage(latchlog.DirectionOut, topic, payload)
	return nil
}

// SetHandler registers the inbound message handler.
// Call it once, before the first Poll.
func (c *Client) SetHandler(fn Handler) {
	c.handler = fn
}

// Poll dispatches at most one queued inbound message to the handler.
// A quiet channel returns nil immediately; a failed connection returns
// the transport error.
func (c *Client) Poll() error {
	select {
	case msg := <-c.inbound:
		c.logMessage(latchlog.DirectionIn, msg.topic, msg.payload)
		if c.handler != nil {
			c.handler(msg.topic, msg.payload)
		}
		return nil
	default:
	}

	select {
	case err := <-c.readErr:
		return err
	case <-c.closed:
		return ErrClosed
	default:
		return nil
	}
}

// Close tears down the connection. Safe to call multiple times.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
		c.logger.Info("disconnected from broker", "conn_id", c.connID)
	})
	return err
}

func (c *Client) logMessage(direction latchlog.Direction, topic, payload string) {
	c.protocol.Log(latchlog.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    direction,
		Layer:        latchlog.LayerTransport,
		Category:     latchlog.CategoryMessage,
		Topic:        topic,
		Message: &latchlog.MessageEvent{
			Size:    len(payload),
			Payload: payload,
		},
	})
}
