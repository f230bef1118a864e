// Package store keeps a single JSON document on disk. Every read loads the
// whole file and every write replaces it; access to one file is serialized
// by the store's lock.
package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/tombers/tombers/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CorruptError reports a store file that exists but cannot be decoded.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("store file %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// JSONFile is a whole-document JSON store for a value of type T.
type JSONFile[T any] struct {
	name  string
	path  string
	empty func() T

	mu sync.RWMutex
}

// New returns a store named name (used in logs and metrics) backed by path.
// empty builds the document written when the file does not exist yet.
func New[T any](name, path string, empty func() T) *JSONFile[T] {
	return &JSONFile[T]{name: name, path: path, empty: empty}
}

func (s *JSONFile[T]) Name() string { return s.name }
func (s *JSONFile[T]) Path() string { return s.path }

// Init creates the file with an empty document on first run and otherwise
// checks that the existing file decodes.
func (s *JSONFile[T]) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrapf(err, "store %s: create directory", s.name)
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return s.write(s.empty())
	} else if err != nil {
		return errors.Wrapf(err, "store %s: stat %s", s.name, s.path)
	}
	_, err := s.read()
	return err
}

// Load returns the current document.
func (s *JSONFile[T]) Load() (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

// Save replaces the document on disk.
func (s *JSONFile[T]) Save(doc T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(doc)
}

// View loads the document and passes it to fn under the read lock.
func (s *JSONFile[T]) View(fn func(doc T) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	return fn(doc)
}

// Update runs a load-modify-save cycle under the write lock. If fn returns
// an error nothing is written and the error is returned unchanged.
func (s *JSONFile[T]) Update(fn func(doc *T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return s.write(doc)
}

func (s *JSONFile[T]) read() (T, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s.empty(), nil
	}
	if err != nil {
		var zero T
		return zero, errors.Wrapf(err, "store %s: read %s", s.name, s.path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s.empty(), nil
	}
	doc := s.empty()
	if err := json.Unmarshal(data, &doc); err != nil {
		var zero T
		return zero, &CorruptError{Path: s.path, Err: err}
	}
	return doc, nil
}

// write encodes doc to a temp file next to the target and renames it into
// place, so readers never observe a half-written document.
func (s *JSONFile[T]) write(doc T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "store %s: encode", s.name)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "store %s: create temp file", s.name)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "store %s: write temp file", s.name)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "store %s: close temp file", s.name)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "store %s: replace %s", s.name, s.path)
	}
	metrics.IncStoreWrites(s.name)
	return nil
}
