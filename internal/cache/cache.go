// Package cache provides a flat JSON key/value store used to memoize
// results of external API lookups (geocoding, registry details) between
// runs. The whole document is loaded at start and flushed back to disk
// periodically and at completion.
//
// Negative results are ordinary entries: once a lookup has been recorded
// as "not found" it is never retried unless the cache file is removed
// out-of-band.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Store is an in-memory map of string keys to values of type V, backed by
// a single pretty-printed JSON document on disk.
type Store[V any] struct {
	path       string
	entries    map[string]V
	flushEvery int
	dirty      int
	log        *zap.Logger
}

// Option configures a Store.
type Option func(*settings)

type settings struct {
	flushEvery int
	log        *zap.Logger
}

// WithFlushEvery makes Put flush the store to disk after every n writes.
// n <= 0 disables periodic flushing; Flush must then be called explicitly.
func WithFlushEvery(n int) Option {
	return func(s *settings) { s.flushEvery = n }
}

// WithLogger sets the logger used to report non-fatal flush failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.log = l }
}

// New opens the store at path, loading any existing document. A missing
// file yields an empty store; a malformed file is an error so a corrupted
// cache is never silently discarded.
func New[V any](path string, opts ...Option) (*Store[V], error) {
	cfg := settings{flushEvery: 20, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Store[V]{
		path:       path,
		entries:    make(map[string]V),
		flushEvery: cfg.flushEvery,
		log:        cfg.log,
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.entries); err != nil {
		return nil, fmt.Errorf("parsing cache %s: %w", path, err)
	}
	return s, nil
}

// Get returns the entry for key, if any.
func (s *Store[V]) Get(key string) (V, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Has reports whether key is present without decoding the value.
func (s *Store[V]) Has(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Put records the entry for key and flushes to disk when the periodic
// flush threshold is reached. Flush errors at this point are logged, not
// returned; the entry stays in memory and the final Flush will retry.
func (s *Store[V]) Put(key string, v V) {
	s.entries[key] = v
	s.dirty++
	if s.flushEvery > 0 && s.dirty >= s.flushEvery {
		if err := s.Flush(); err != nil {
			s.log.Warn("periodic cache flush failed", zap.String("path", s.path), zap.Error(err))
		}
	}
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	return len(s.entries)
}

// Flush writes the full document to disk, pretty-printed with UTF-8 text
// preserved as-is (no \u escaping of non-ASCII or HTML characters).
func (s *Store[V]) Flush() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating cache directory: %w", err)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.entries); err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing cache %s: %w", s.path, err)
	}
	s.dirty = 0
	return nil
}
