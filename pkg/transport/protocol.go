package transport

import (
	"errors"
	"fmt"
	"strings"
)

// Frame verbs. Client to broker: AUTH, SUB, PUB. Broker to client: OK, ERR
// (handshake replies) and MSG (topic delivery).
const (
	verbAuth = "AUTH"
	verbSub  = "SUB"
	verbPub  = "PUB"
	verbMsg  = "MSG"
	verbOK   = "OK"
	verbErr  = "ERR"
)

// Protocol errors.
var (
	// ErrBadTopic indicates a topic containing whitespace or nothing at all.
	ErrBadTopic = errors.New("invalid topic")

	// ErrBadFrame indicates a frame that does not follow the verb grammar.
	ErrBadFrame = errors.New("invalid frame")

	// ErrAuthFailed indicates the broker rejected the credentials.
	ErrAuthFailed = errors.New("authentication rejected")

	// ErrClosed indicates the channel has been closed.
	ErrClosed = errors.New("transport closed")
)

// validTopic reports whether a topic can be carried in the frame grammar.
func validTopic(topic string) bool {
	return topic != "" && !strings.ContainsAny(topic, " \t\r\n")
}

// encodeAuth renders an AUTH frame.
func encodeAuth(username, password string) string {
	return fmt.Sprintf("%s %s %s", verbAuth, username, password)
}

// encodeSub renders a SUB frame.
func encodeSub(topic string) string {
	return fmt.Sprintf("%s %s", verbSub, topic)
}

// encodePub renders a PUB frame. The payload is the remainder of the frame
// and may contain spaces.
func encodePub(topic, payload string) string {
	return fmt.Sprintf("%s %s %s", verbPub, topic, payload)
}

// encodeMsg renders a MSG delivery frame.
func encodeMsg(topic, payload string) string {
	return fmt.Sprintf("%s %s %s", verbMsg, topic, payload)
}

// splitFrame splits a frame into its verb and remainder.
func splitFrame(frame string) (verb, rest string) {
	verb, rest, _ = strings.Cut(frame, " ")
	return verb, rest
}

// splitTopicPayload splits "topic payload" where payload may be empty and
// may contain spaces.
func splitTopicPayload(rest string) (topic, payload string, err error) {
	topic, payload, _ = strings.Cut(rest, " ")
	if !validTopic(topic) {
		return "", "", fmt.Errorf("%w: %q", ErrBadTopic, topic)
	}
	return topic, payload, nil
}
