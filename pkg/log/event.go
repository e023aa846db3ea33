package log

import (
	"time"
)

// Event is one captured protocol event. The CBOR tags use integer keys
// to keep long captures small; tag numbers are part of the file format
// and must not be reused.
type Event struct {
	// Timestamp of the event, nanosecond precision.
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the transport connection, if any.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	Direction Direction `cbor:"3,keyasint"`
	Layer     Layer     `cbor:"4,keyasint"`
	Category  Category  `cbor:"5,keyasint"`

	// Topic is the pub/sub topic for message events.
	Topic string `cbor:"6,keyasint,omitempty"`

	// Exactly one detail payload is set, matching Category.
	Message     *MessageEvent     `cbor:"7,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"8,keyasint,omitempty"`
	Decision    *DecisionEvent    `cbor:"9,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"10,keyasint,omitempty"`
}

// Direction tells whether a message was received or sent. Events with
// no message flow (state changes, decisions) use DirectionNone.
type Direction uint8

const (
	DirectionIn   Direction = 0
	DirectionOut  Direction = 1
	DirectionNone Direction = 2
)

var directionNames = [...]string{"IN", "OUT", "NONE"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "UNKNOWN"
}

// Layer tells which part of the stack captured the event: raw pub/sub
// payloads (transport), payload parsing (wire), or the authorizer and
// device service (service).
type Layer uint8

const (
	LayerTransport Layer = 0
	LayerWire      Layer = 1
	LayerService   Layer = 2
)

var layerNames = [...]string{"TRANSPORT", "WIRE", "SERVICE"}

func (l Layer) String() string {
	if int(l) < len(layerNames) {
		return layerNames[l]
	}
	return "UNKNOWN"
}

// Category classifies the event and determines which detail payload
// is populated.
type Category uint8

const (
	CategoryMessage  Category = 0
	CategoryState    Category = 1
	CategoryDecision Category = 2
	CategoryError    Category = 3
)

var categoryNames = [...]string{"MESSAGE", "STATE", "DECISION", "ERROR"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "UNKNOWN"
}

// MessageEvent records one pub/sub payload.
type MessageEvent struct {
	// Size is the full payload size in bytes, even when truncated.
	Size int `cbor:"1,keyasint"`

	// Payload is the message text.
	Payload string `cbor:"2,keyasint,omitempty"`

	// Truncated marks payloads cut short in the capture.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent records a lifecycle transition of the authorizer,
// the transport connection, or the device service.
type StateChangeEvent struct {
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState may be empty for the initial transition.
	OldState string `cbor:"2,keyasint,omitempty"`
	NewState string `cbor:"3,keyasint"`

	// Reason for the change, if available.
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity names the thing that changed state.
type StateEntity uint8

const (
	StateEntityConnection StateEntity = 0
	StateEntityAuthorizer StateEntity = 1
	StateEntityService    StateEntity = 2
)

var stateEntityNames = [...]string{"CONNECTION", "AUTHORIZER", "SERVICE"}

func (s StateEntity) String() string {
	if int(s) < len(stateEntityNames) {
		return stateEntityNames[s]
	}
	return "UNKNOWN"
}

// DecisionEvent records the outcome of one validation response.
type DecisionEvent struct {
	// User is the digit the decision applies to.
	User int `cbor:"1,keyasint"`

	// Command is ENGAGE or DISENGAGE when known.
	Command string `cbor:"2,keyasint,omitempty"`

	// Executed is true when the actuator was invoked.
	Executed bool `cbor:"3,keyasint"`

	// Reason explains rejections.
	Reason string `cbor:"4,keyasint,omitempty"`

	// Nonce of the consumed challenge, kept for correlation.
	Nonce string `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData records an error at any layer.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`

	// Context names the operation that failed.
	Context string `cbor:"3,keyasint,omitempty"`
}
