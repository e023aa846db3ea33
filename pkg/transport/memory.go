package transport

import (
	"fmt"
	"sync"
)

// MemoryBus is an in-process pub/sub bus for tests and examples.
// Endpoints created from the same bus see each other's publications.
type MemoryBus struct {
	mu        sync.Mutex
	endpoints []*MemoryEndpoint
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Endpoint creates a new endpoint attached to the bus.
func (b *MemoryBus) Endpoint() *MemoryEndpoint {
	b.mu.Lock()
	defer b.mu.Unlock()

	ep := &MemoryEndpoint{
		bus:  b,
		subs: make(map[string]struct{}),
	}
	b.endpoints = append(b.endpoints, ep)
	return ep
}

// dispatch queues a payload at every endpoint subscribed to the topic.
func (b *MemoryBus) dispatch(topic, payload string) {
	b.mu.Lock()
	endpoints := make([]*MemoryEndpoint, len(b.endpoints))
	copy(endpoints, b.endpoints)
	b.mu.Unlock()

	for _, ep := range endpoints {
		ep.deliver(topic, payload)
	}
}

// MemoryEndpoint is one attachment point on a MemoryBus, implementing
// PubSub with the same queue-then-Poll delivery model as Client.
type MemoryEndpoint struct {
	bus *MemoryBus

	mu      sync.Mutex
	subs    map[string]struct{}
	queue   []inboundMsg
	handler Handler
	closed  bool
}

// Subscribe registers interest in a topic.
func (ep *MemoryEndpoint) Subscribe(topic string) error {
	if !validTopic(topic) {
		return fmt.Errorf("%w: %q", ErrBadTopic, topic)
	}

	ep.mu.Lock()
	defer ep.mu.Unlock()
	if ep.closed {
		return ErrClosed
	}
	ep.subs[topic] = struct{}{}
	return nil
}

// Publish delivers a payload to every subscribed endpoint on the bus.
func (ep *MemoryEndpoint) Publish(topic, payload string) error {
	if !validTopic(topic) {
		return fmt.Errorf("%w: %q", ErrBadTopic, topic)
	}

	ep.mu.Lock()
	closed := ep.closed
	ep.mu.Unlock()
	if closed {
		return ErrClosed
	}

	ep.bus.dispatch(topic, payload)
	return nil
}

// SetHandler registers the inbound message handler.
func (ep *MemoryEndpoint) SetHandler(fn Handler) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.handler = fn
}

// Poll dispatches at most one queued inbound message to the handler.
func (ep *MemoryEndpoint) Poll() error {
	ep.mu.Lock()
	if ep.closed {
		ep.mu.Unlock()
		return ErrClosed
	}
	if len(ep.queue) == 0 || ep.handler == nil {
		ep.mu.Unlock()
		return nil
	}
	msg := ep.queue[0]
	ep.queue = ep.queue[1:]
	handler := ep.handler
	ep.mu.Unlock()

	// Invoke outside the lock so the handler can publish.
	handler(msg.topic, msg.payload)
	return nil
}

// Close detaches the endpoint; further operations return ErrClosed.
func (ep *MemoryEndpoint) Close() error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.closed = true
	ep.queue = nil
	return nil
}

// QueueLen returns the number of undelivered messages. Test helper.
func (ep *MemoryEndpoint) QueueLen() int {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return len(ep.queue)
}

// deliver queues a message if the endpoint subscribes to the topic.
func (ep *MemoryEndpoint) deliver(topic, payload string) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if ep.closed {
		return
	}
	if _, ok := ep.subs[topic]; !ok {
		return
	}
	ep.queue = append(ep.queue, inboundMsg{topic: topic, payload: payload})
}
