package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileBackend keeps all keys in one JSON file. The file is re-read on every
// Get so values written by other processes become visible, and replaced
// atomically on every write. Concurrent writers from different processes
// follow last-write-wins. A corrupt file fails reads and is replaced by the
// next write.
type FileBackend struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
}

type fileContents struct {
	Values map[string]string `json:"values"`

	// repair is set when the file on disk is corrupt and must be rewritten.
	repair bool
}

// NewFileBackend creates a backend stored at path. The file and its directory
// are created on the first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path, log: zap.NewNop()}
}

// Get implements Backend.
func (f *FileBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := f.load()
	if err != nil {
		return nil, false, err
	}
	v, ok := contents.Values[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Set implements Backend.
func (f *FileBackend) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := f.loadForWrite()
	if err != nil {
		return err
	}
	contents.Values[key] = string(value)
	return f.save(contents)
}

// Delete implements Backend.
func (f *FileBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := f.loadForWrite()
	if err != nil {
		return err
	}
	if _, ok := contents.Values[key]; !ok && !contents.repair {
		return nil
	}
	delete(contents.Values, key)
	return f.save(contents)
}

// Close implements Backend.
func (f *FileBackend) Close() error {
	return nil
}

func (f *FileBackend) load() (*fileContents, error) {
	contents := &fileContents{Values: make(map[string]string)}

	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return contents, nil
		}
		return nil, fmt.Errorf("open storage file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(contents); err != nil {
		return nil, fmt.Errorf("%w: decode storage file: %w", ErrCorruptFile, err)
	}
	if contents.Values == nil {
		contents.Values = make(map[string]string)
	}
	return contents, nil
}

// loadForWrite is load, except that a corrupt file starts over empty.
func (f *FileBackend) loadForWrite() (*fileContents, error) {
	contents, err := f.load()
	if errors.Is(err, ErrCorruptFile) {
		f.log.Warn("storage file is corrupt, starting over", zap.String("path", f.path), zap.Error(err))
		return &fileContents{Values: make(map[string]string), repair: true}, nil
	}
	return contents, err
}

func (f *FileBackend) save(contents *fileContents) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".storage-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(contents); err != nil {
		tmp.Close()
		return fmt.Errorf("encode storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod storage file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace storage file: %w", err)
	}
	return nil
}
