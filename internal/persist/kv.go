package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrStatePathRequired = errors.New("state file path is required")
	ErrKeyRequired       = errors.New("kv key is required")
)

// KV is the key-value contract the persistence adapter is written against.
// Values are JSON-encoded byte payloads; the core logic must not assume a
// specific storage technology behind it.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// FileKV keeps all keys in one JSON object on disk. Writes go through a
// temp file and rename so a crash mid-write leaves the previous state.
type FileKV struct {
	path string
	mu   sync.Mutex
}

// NewFileKV constructs a file-backed store at path. The file is created on
// first Set.
func NewFileKV(path string) (*FileKV, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, ErrStatePathRequired
	}
	return &FileKV{path: trimmed}, nil
}

// Path returns the backing file location.
func (f *FileKV) Path() string {
	return f.path
}

// Get returns the stored payload for key and whether it exists.
func (f *FileKV) Get(key string) ([]byte, bool, error) {
	if strings.TrimSpace(key) == "" {
		return nil, false, ErrKeyRequired
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readLocked()
	if err != nil {
		return nil, false, err
	}
	value, ok := entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores one payload under key, replacing any previous value.
func (f *FileKV) Set(key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return ErrKeyRequired
	}
	if !json.Valid(value) {
		return fmt.Errorf("kv value for %s is not valid JSON", key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readLocked()
	if err != nil {
		return err
	}
	entries[key] = append(json.RawMessage(nil), value...)
	return f.writeLocked(entries)
}

func (f *FileKV) readLocked() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]json.RawMessage), nil
		}
		return nil, fmt.Errorf("read state file %s: %w", f.path, err)
	}

	entries := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", f.path, err)
	}
	return entries, nil
}

func (f *FileKV) writeLocked(entries map[string]json.RawMessage) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state file %s: %w", f.path, err)
	}
	return nil
}
