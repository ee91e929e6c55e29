// Package store implements durable per-document persistence. Every document
// is a single JSON file under its collection directory, so readers always see
// the latest committed write; there is no in-memory cache. Writes go to a
// temp file first and are moved into place with an atomic rename, and every
// mutating operation holds a mutex for its (collection, key) pair, so a
// reader never observes a truncated or half-written document.
package store

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
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrCorrupt       = errors.New("document is not valid JSON")
	ErrInvalidKey    = errors.New("invalid document key")
)

type Store struct {
	baseDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open prepares the base data directory and returns a store handle.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// Collection returns a handle for the named collection, creating its
// directory on first use. Collections are never deleted at runtime.
func (s *Store) Collection(name string) (*Collection, error) {
	if err := validateKey(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.baseDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create collection directory %s: %w", name, err)
	}
	return &Collection{store: s, name: name, dir: dir}, nil
}

func (s *Store) lockFor(collection, key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := collection + "/" + key
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

type Collection struct {
	store *Store
	name  string
	dir   string
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) fileName(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return ErrInvalidKey
	}
	return nil
}

// Create persists doc under key. It fails with ErrAlreadyExists instead of
// silently overwriting.
func (c *Collection) Create(key string, doc any) error {
	if err := validateKey(key); err != nil {
		return err
	}

	l := c.store.lockFor(c.name, key)
	l.Lock()
	defer l.Unlock()

	if _, err := os.Stat(c.fileName(key)); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat document %s/%s: %w", c.name, key, err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", c.name, key, err)
	}
	return c.writeAtomic(key, data)
}

// Read loads the document under key into out. A document whose stored bytes
// are not valid JSON is reported as ErrCorrupt rather than decoded into an
// empty value.
func (c *Collection) Read(key string, out any) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := os.ReadFile(c.fileName(key))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read document %s/%s: %w", c.name, key, err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("document %s/%s: %w", c.name, key, ErrCorrupt)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode document %s/%s: %w", c.name, key, err)
	}
	return nil
}

// Update shallow-merges the top-level keys of fields over the stored
// document and atomically replaces it. The target must already exist.
func (c *Collection) Update(key string, fields any) error {
	if err := validateKey(key); err != nil {
		return err
	}

	l := c.store.lockFor(c.name, key)
	l.Lock()
	defer l.Unlock()

	data, err := os.ReadFile(c.fileName(key))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read document %s/%s: %w", c.name, key, err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("document %s/%s: %w", c.name, key, ErrCorrupt)
	}

	var current map[string]json.RawMessage
	if err := json.Unmarshal(data, &current); err != nil {
		return fmt.Errorf("document %s/%s is not an object: %w", c.name, key, err)
	}

	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode update for %s/%s: %w", c.name, key, err)
	}
	var incoming map[string]json.RawMessage
	if err := json.Unmarshal(patch, &incoming); err != nil {
		return fmt.Errorf("update for %s/%s is not an object: %w", c.name, key, err)
	}

	for k, v := range incoming {
		current[k] = v
	}

	merged, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", c.name, key, err)
	}
	return c.writeAtomic(key, merged)
}

// Delete removes the document permanently.
func (c *Collection) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	l := c.store.lockFor(c.name, key)
	l.Lock()
	defer l.Unlock()

	err := os.Remove(c.fileName(key))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", c.name, key, err)
	}
	return nil
}

// List returns the keys of all documents in the collection, in no
// particular order.
func (c *Collection) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("list collection %s: %w", c.name, err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

// Exists probes for a document without reading it.
func (c *Collection) Exists(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	_, err := os.Stat(c.fileName(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat document %s/%s: %w", c.name, key, err)
	}
	return true, nil
}

// writeAtomic writes data to a temp file in the collection directory and
// renames it over the target, so concurrent readers see either the previous
// or the new document in full. Temp files don't carry the .json suffix and
// are therefore invisible to List.
func (c *Collection) writeAtomic(key string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s/%s: %w", c.name, key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write document %s/%s: %w", c.name, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close document %s/%s: %w", c.name, key, err)
	}
	if err := os.Rename(tmpName, c.fileName(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace document %s/%s: %w", c.name, key, err)
	}
	return nil
}
