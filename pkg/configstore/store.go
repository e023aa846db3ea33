package configstore

import (
	"fmt"
	"io"
)

// Region layout constants.
const (
	// SlotSize is the size of one credential slot in bytes. A stored value
	// occupies at most SlotSize-1 bytes followed by a NUL terminator.
	SlotSize = 32

	// SlotCount is the number of credential slots.
	SlotCount = 3

	// MarkerOffset is the offset of the initialization marker byte.
	MarkerOffset = SlotCount * SlotSize

	// MarkerByte is the sentinel written once the region has been
	// zero-initialized.
	MarkerByte = 0xA5

	// RegionSize is the total size of the persisted region.
	RegionSize = MarkerOffset + 1
)

// Slot identifies one credential slot by its fixed position.
type Slot uint8

const (
	// SlotEndpoint holds the broker endpoint address.
	SlotEndpoint Slot = iota

	// SlotUsername holds the transport username.
	SlotUsername

	// SlotPassword holds the transport password.
	SlotPassword
)

// String returns the slot name.
func (s Slot) String() string {
	switch s {
	case SlotEndpoint:
		return "endpoint"
	case SlotUsername:
		return "username"
	case SlotPassword:
		return "password"
	default:
		return "unknown"
	}
}

// offset returns the slot's byte offset within the region.
func (s Slot) offset() int64 {
	return int64(s) * SlotSize
}

// Media is the persistent backing for a Store. *os.File satisfies it;
// tests substitute an in-memory implementation to observe physical writes.
type Media interface {
	io.ReaderAt
	io.WriterAt

	// Sync commits buffered writes to stable storage.
	Sync() error
}

// Store is a fixed-slot credential store over a Media region.
// It is not safe for concurrent use; per the device's concurrency model
// all access happens on the single poll goroutine.
type Store struct {
	media Media
}

// New creates a store over the given media. Call InitializeIfNeeded before
// the first read on media whose history is unknown.
func New(media Media) *Store {
	return &Store{media: media}
}

// InitializeIfNeeded checks the marker byte and, if it is absent, zero-fills
// the whole region and writes the marker. Idempotent: safe to call every
// boot. Returns true if a physical write was performed.
func (s *Store) InitializeIfNeeded() (bool, error) {
	var marker [1]byte
	n, err := s.media.ReadAt(marker[:], MarkerOffset)
	if err == nil && n == 1 && marker[0] == MarkerByte {
		return false, nil
	}
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read marker: %w", err)
	}

	// Blank or corrupted media: zero every slot, then set the marker.
	region := make([]byte, RegionSize)
	region[MarkerOffset] = MarkerByte
	if _, err := s.media.WriteAt(region, 0); err != nil {
		return false, fmt.Errorf("failed to initialize region: %w", err)
	}
	if err := s.media.Sync(); err != nil {
		return false, fmt.Errorf("failed to commit initialization: %w", err)
	}
	return true, nil
}

// Read returns the stored text for a slot, stopping at the first NUL or
// the slot bound, whichever comes first. An unset slot yields "".
func (s *Store) Read(slot Slot) (string, error) {
	var buf [SlotSize]byte
	n, err := s.media.ReadAt(buf[:], slot.offset())
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read %s slot: %w", slot, err)
	}

	end := n
	if end > SlotSize-1 {
		end = SlotSize - 1
	}
	for i := 0; i < end; i++ {
		if buf[i] == 0 {
			end = i
			break
		}
	}
	return string(buf[:end]), nil
}

// Write truncates value to the slot bound, stores it NUL-terminated, and
// commits before returning. Over-long values are truncated, not rejected.
func (s *Store) Write(slot Slot, value string) error {
	if len(value) > SlotSize-1 {
		value = value[:SlotSize-1]
	}

	var buf [SlotSize]byte
	copy(buf[:], value)
	if _, err := s.media.WriteAt(buf[:], slot.offset()); err != nil {
		return fmt.Errorf("failed to write %s slot: %w", slot, err)
	}
	if err := s.media.Sync(); err != nil {
		return fmt.Errorf("failed to commit %s slot: %w", slot, err)
	}
	return nil
}

// IsComplete reports whether all three slots hold non-empty values.
// The device must not proceed to transport setup while this is false.
func (s *Store) IsComplete() (bool, error) {
	for slot := SlotEndpoint; slot <= SlotPassword; slot++ {
		v, err := s.Read(slot)
		if err != nil {
			return false, err
		}
		if v == "" {
			return false, nil
		}
	}
	return true, nil
}

// Credentials is the full set of connection parameters.
type Credentials struct {
	Endpoint string
	Username string
	Password string
}

// Credentials reads all three slots.
func (s *Store) Credentials() (Credentials, error) {
	var c Credentials
	var err error
	if c.Endpoint, err = s.Read(SlotEndpoint); err != nil {
		return Credentials{}, err
	}
	if c.Username, err = s.Read(SlotUsername); err != nil {
		return Credentials{}, err
	}
	if c.Password, err = s.Read(SlotPassword); err != nil {
		return Credentials{}, err
	}
	return c, nil
}
