package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Frames are a 4-byte big-endian length prefix followed by the payload.
const (
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4

	// DefaultMaxMessageSize caps frames at 4 KB. Latch payloads are a
	// handful of bytes; anything larger is a protocol violation.
	DefaultMaxMessageSize = 4096
)

// Framing errors.
var (
	ErrMessageTooLarge = errors.New("message too large")
	ErrMessageEmpty    = errors.New("message is empty")
	ErrFrameTruncated  = errors.New("frame truncated")
)

// Framer reads and writes length-prefixed frames over a stream,
// usually a net.Conn. Writes are serialized internally; reads must
// stay on a single goroutine.
type Framer struct {
	r io.Reader
	w io.Writer

	writeMu sync.Mutex

	max uint32
}

// NewFramer wraps a bidirectional stream.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{r: rw, w: rw, max: DefaultMaxMessageSize}
}

// WriteFrame sends one frame. The prefix and payload go out in a
// single Write so a frame never interleaves with another goroutine's.
func (f *Framer) WriteFrame(data []byte) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}
	if uint32(len(data)) > f.max {
		return fmt.Errorf("%w: %d bytes, cap %d", ErrMessageTooLarge, len(data), f.max)
	}

	buf := make([]byte, LengthPrefixSize+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[LengthPrefixSize:], data)

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	if _, err := f.w.Write(buf); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadFrame returns the next payload. io.EOF reports a clean close
// between frames; a close mid-frame is ErrFrameTruncated.
func (f *Framer) ReadFrame() ([]byte, error) {
	var prefix [LengthPrefixSize]byte
	if _, err := io.ReadFull(f.r, prefix[:]); err != nil {
		switch {
		case err == io.EOF:
			return nil, io.EOF
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("reading frame prefix: %w", err)
	}

	length := binary.BigEndian.Uint32(prefix[:])
	if length == 0 {
		return nil, ErrMessageEmpty
	}
	if length > f.max {
		return nil, fmt.Errorf("%w: %d bytes, cap %d", ErrMessageTooLarge, length, f.max)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("reading frame payload: %w", err)
	}
	return payload, nil
}
