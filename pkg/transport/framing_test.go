package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFramerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	f := NewFramer(&buf)

	messages := []string{"AUTH door pw1", "SUB latch/commands", "PUB latch/validation/requests 1KXQPLRZA"}
	for _, m := range messages {
		if err := f.WriteFrame([]byte(m)); err != nil {
			t.Fatalf("WriteFrame(%q) error = %v", m, err)
		}
	}

	for _, want := range messages {
		got, err := f.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() error = %v", err)
		}
		if string(got) != want {
			t.Errorf("ReadFrame() = %q, want %q", got, want)
		}
	}

	if _, err := f.ReadFrame(); err != io.EOF {
		t.Errorf("ReadFrame() at end error = %v, want io.EOF", err)
	}
}

func TestWriteFrameEmpty(t *testing.T) {
	f := NewFramer(&bytes.Buffer{})
	if err := f.WriteFrame(nil); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("WriteFrame(nil) error = %v, want ErrMessageEmpty", err)
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	f := NewFramer(&bytes.Buffer{})
	big := make([]byte, DefaultMaxMessageSize+1)
	if err := f.WriteFrame(big); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("WriteFrame(oversized) error = %v, want ErrMessageTooLarge", err)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	var buf bytes.Buffer
	f := NewFramer(&buf)
	if err := f.WriteFrame([]byte("SUB latch/commands")); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}

	// Chop the last byte off the frame.
	buf.Truncate(buf.Len() - 1)
	if _, err := f.ReadFrame(); !errors.Is(err, ErrFrameTruncated) {
		t.Errorf("ReadFrame() error = %v, want ErrFrameTruncated", err)
	}
}

func TestReadFrameOversizedPrefix(t *testing.T) {
	// A length prefix beyond the cap must be rejected before allocation.
	buf := bytes.NewBuffer([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	f := NewFramer(buf)
	if _, err := f.ReadFrame(); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("ReadFrame() error = %v, want ErrMessageTooLarge", err)
	}
}
