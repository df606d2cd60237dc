package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage persists every namespace in a single JSON document. Writes
// replace the document through a temp file and rename so a crash never
// leaves a half written file behind.
type FileStorage struct {
	mu    sync.Mutex
	path  string
	items map[string]map[string]string
}

var _ Storage = (*FileStorage)(nil)

// NewFile opens (or creates on first write) the JSON document at path.
func NewFile(path string) (*FileStorage, error) {
	f := &FileStorage{
		path:  path,
		items: make(map[string]map[string]string),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return f, nil
}

func (f *FileStorage) GetItem(_ context.Context, namespace, key string) (string, bool, error) {
	if err := validate(namespace, key); err != nil {
		return "", false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	value, ok := f.items[namespace][key]
	return value, ok, nil
}

func (f *FileStorage) SetItem(_ context.Context, namespace, key, value string) error {
	if err := validate(namespace, key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ns, ok := f.items[namespace]
	if !ok {
		ns = make(map[string]string)
		f.items[namespace] = ns
	}
	previous, existed := ns[key]
	ns[key] = value

	if err := f.flush(); err != nil {
		// keep memory in step with disk
		if existed {
			ns[key] = previous
		} else {
			delete(ns, key)
		}
		return err
	}
	return nil
}

func (f *FileStorage) RemoveItem(_ context.Context, namespace, key string) error {
	if err := validate(namespace, key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ns, ok := f.items[namespace]
	if !ok {
		return nil
	}
	previous, ok := ns[key]
	if !ok {
		return nil
	}
	delete(ns, key)
	if len(ns) == 0 {
		delete(f.items, namespace)
	}

	if err := f.flush(); err != nil {
		ns[key] = previous
		f.items[namespace] = ns
		return err
	}
	return nil
}

func (f *FileStorage) Close(context.Context) error {
	return nil
}

// flush must be called with f.mu held.
func (f *FileStorage) flush() error {
	data, err := json.MarshalIndent(f.items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
