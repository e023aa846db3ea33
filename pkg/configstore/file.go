package configstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// *os.File provides ReadAt/WriteAt/Sync directly.
var _ Media = (*os.File)(nil)

// OpenFile opens (creating parent directories and the file if necessary)
// the backing file for a store. The caller owns the returned file and
// should close it on shutdown.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open store file: %w", err)
	}
	return f, nil
}
