package transport

// Handler receives one inbound message at a time, in delivery order.
// It is only ever invoked from within Poll.
type Handler func(topic, payload string)

// PubSub is the message channel the device core consumes.
// Implemented by Client and MemoryEndpoint.
type PubSub interface {
	// Subscribe registers interest in a topic.
	Subscribe(topic string) error

	// Publish sends a payload on a topic.
	Publish(topic, payload string) error

	// SetHandler registers the inbound message handler.
	// Call it once, before the first Poll.
	SetHandler(fn Handler)

	// Poll dispatches at most one queued inbound message to the handler
	// and returns. It returns a transport error if the connection has
	// failed; a quiet channel is not an error.
	Poll() error

	// Close tears down the channel.
	Close() error
}

// Compile-time interface satisfaction checks.
var (
	_ PubSub = (*Client)(nil)
	_ PubSub = (*MemoryEndpoint)(nil)
)
