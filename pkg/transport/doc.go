// Package transport provides the pub/sub message channel between the latch
// device and its remote verifier.
//
// The device consumes the PubSub interface and never touches connection
// machinery directly. Two implementations are provided:
//
//   - Client, a TCP/TLS connection to a Broker, exchanging length-prefixed
//     text frames (AUTH/SUB/PUB from the client, OK/ERR/MSG from the broker).
//   - MemoryBus endpoints, an in-process loopback for tests.
//
// # Delivery model
//
// Inbound messages are queued by a background reader and handed to the
// registered handler only from Poll, one message per call, in delivery
// order. The handler is therefore only ever invoked from the goroutine
// that calls Poll, which is what lets the rest of the device run without
// locks. The transport never re-enters the handler from within the
// handler's own call.
package transport
