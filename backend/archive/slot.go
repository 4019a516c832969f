package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
)

// ErrSlotEmpty is returned by a Slot when nothing was ever written under the key.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is a named key-value storage cell. Values are always written whole.
type Slot interface {
	Read(key string) ([]byte, error)
	Write(key string, value []byte) error
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func checkKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid slot key %q", key)
	}
	return nil
}

// FileSlot keeps one file per key below a base directory.
type FileSlot struct {
	basePath string
	fs       afero.Fs
}

func NewFileSlot(basePath string, fs afero.Fs) (*FileSlot, error) {
	if err := fs.MkdirAll(basePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &FileSlot{
		basePath: basePath,
		fs:       fs,
	}, nil
}

func (s *FileSlot) Path(key string) string {
	return filepath.Join(s.basePath, key+".json")
}

func (s *FileSlot) Read(key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to read archive file: %w", err)
	}
	return data, nil
}

// Write replaces the slot content through a temporary file and a rename.
func (s *FileSlot) Write(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	target := s.Path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, value, 0600); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace archive file: %w", err)
	}
	return nil
}

var _ Slot = (*FileSlot)(nil)
