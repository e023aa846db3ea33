package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// BrokerConfig configures a Broker.
type BrokerConfig struct {
	// Address to listen on (e.g., ":4180" or "127.0.0.1:4180").
	Address string

	// TLSConfig enables TLS when non-nil; nil means plain TCP.
	TLSConfig *tls.Config

	// Authenticate validates client credentials. nil accepts any client.
	Authenticate func(username, password string) bool

	// Logger for operational output (optional).
	Logger *slog.Logger
}

// DefaultPort is the broker's default listen port.
const DefaultPort = 4180

// Broker is a minimal topic fan-out server. Every client authenticates
// with an AUTH frame, then subscribes to topics and publishes payloads;
// a published payload is delivered as a MSG frame to every subscriber of
// its topic, in the order published.
type Broker struct {
	config   BrokerConfig
	listener net.Listener
	logger   *slog.Logger

	mu    sync.RWMutex
	conns map[*brokerConn]struct{}
	subs  map[string]map[*brokerConn]struct{}

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// brokerConn is one authenticated client connection.
type brokerConn struct {
	id     string
	conn   net.Conn
	framer *Framer
}

// NewBroker creates a broker.
func NewBroker(config BrokerConfig) *Broker {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Broker{
		config: config,
		logger: config.Logger,
		conns:  make(map[*brokerConn]struct{}),
		subs:   make(map[string]map[*brokerConn]struct{}),
	}
}

// Start begins accepting connections.
func (b *Broker) Start(ctx context.Context) error {
	if b.running.Load() {
		return fmt.Errorf("broker already running")
	}

	var listener net.Listener
	var err error
	if b.config.TLSConfig != nil {
		listener, err = tls.Listen("tcp", b.config.Address, b.config.TLSConfig)
	} else {
		listener, err = net.Listen("tcp", b.config.Address)
	}
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", b.config.Address, err)
	}

	b.listener = listener
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.running.Store(true)
	b.logger.Info("broker listening", "addr", listener.Addr().String())

	b.wg.Add(1)
	go b.acceptLoop()
	return nil
}

// Stop gracefully stops the broker and closes every connection.
func (b *Broker) Stop() error {
	if !b.running.Load() {
		return nil
	}
	b.running.Store(false)
	b.cancel()
	err := b.listener.Close()

	b.mu.Lock()
	for c := range b.conns {
		c.conn.Close()
	}
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("broker stopped")
	return err
}

// Addr returns the broker's listen address.
func (b *Broker) Addr() net.Addr {
	return b.listener.Addr()
}

// ConnectionCount returns the number of active connections.
func (b *Broker) ConnectionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.conns)
}

// acceptLoop accepts connections until the listener closes.
func (b *Broker) acceptLoop() {
	defer b.wg.Done()

	for {
		conn, err := b.listener.Accept()
		if err != nil {
			select {
			case <-b.ctx.Done():
			default:
				b.logger.Warn("accept failed", "err", err)
			}
			return
		}

		b.wg.Add(1)
		go b.handleConn(conn)
	}
}

// handleConn authenticates a client and services its frames.
func (b *Broker) handleConn(conn net.Conn) {
	defer b.wg.Done()

	c := &brokerConn{
		id:     uuid.New().String(),
		conn:   conn,
		framer: NewFramer(conn),
	}
	logger := b.logger.With("conn_id", c.id, "remote", conn.RemoteAddr().String())

	if err := b.authenticate(c); err != nil {
		logger.Warn("authentication failed", "err", err)
		conn.Close()
		return
	}
	logger.Info("client connected")

	b.mu.Lock()
	b.conns[c] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.removeConn(c)
		conn.Close()
		logger.Info("client disconnected")
	}()

	for {
		frame, err := c.framer.ReadFrame()
		if err != nil {
			return
		}

		verb, rest := splitFrame(string(frame))
		switch verb {
		case verbSub:
			if !validTopic(rest) {
				logger.Debug("ignoring bad SUB", "topic", rest)
				continue
			}
			b.subscribe(c, rest)
			logger.Debug("subscription added", "topic", rest)
		case verbPub:
			topic, payload, err := splitTopicPayload(rest)
			if err != nil {
				logger.Debug("ignoring bad PUB", "err", err)
				continue
			}
			b.fanOut(topic, payload)
		default:
			logger.Debug("ignoring unknown verb", "verb", verb)
		}
	}
}

// authenticate expects the first frame to be AUTH.
func (b *Broker) authenticate(c *brokerConn) error {
	frame, err := c.framer.ReadFrame()
	if err != nil {
		return fmt.Errorf("failed to read AUTH frame: %w", err)
	}

	verb, rest := splitFrame(string(frame))
	if verb != verbAuth {
		c.framer.WriteFrame([]byte(verbErr + " expected AUTH"))
		return fmt.Errorf("%w: first frame was %q", ErrBadFrame, verb)
	}

	username, password, _ := splitTopicPayload(rest)
	if b.config.Authenticate != nil && !b.config.Authenticate(username, password) {
		c.framer.WriteFrame([]byte(verbErr + " bad credentials"))
		return fmt.Errorf("%w: user %q", ErrAuthFailed, username)
	}

	return c.framer.WriteFrame([]byte(verbOK))
}

// subscribe adds a connection to a topic.
func (b *Broker) subscribe(c *brokerConn, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*brokerConn]struct{})
	}
	b.subs[topic][c] = struct{}{}
}

// fanOut delivers a payload to every subscriber of a topic.
func (b *Broker) fanOut(topic, payload string) {
	b.mu.RLock()
	subscribers := make([]*brokerConn, 0, len(b.subs[topic]))
	for c := range b.subs[topic] {
		subscribers = append(subscribers, c)
	}
	b.mu.RUnlock()

	frame := []byte(encodeMsg(topic, payload))
	for _, c := range subscribers {
		if err := c.framer.WriteFrame(frame); err != nil {
			b.logger.Debug("delivery failed", "conn_id", c.id, "topic", topic, "err", err)
		}
	}
}

// removeConn drops a connection and all its subscriptions.
func (b *Broker) removeConn(c *brokerConn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.conns, c)
	for topic, set := range b.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(b.subs, topic)
		}
	}
}
