// SPDX-License-Identifier: MIT

package store

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Sentinel errors for store selection and use.
var (
	// ErrUnknownBackend indicates a backend name Open does not recognize.
	ErrUnknownBackend = errors.New("store: unknown backend")

	// ErrPathRequired indicates a persistent backend configured without a path.
	ErrPathRequired = errors.New("store: path is required for a persistent backend")

	// ErrClosed indicates use of a store after Close.
	ErrClosed = errors.New("store: closed")
)

// Backend names accepted by Open.
const (
	Memory = "memory"
	Badger = "badger"
	SQLite = "sqlite"
)

// Store is a write-once key-value map. Implementations are safe for
// concurrent use.
type Store interface {
	// Get returns the value stored under key.
	Get(key []byte) (val []byte, ok bool, err error)

	// PutIfAbsent stores val unless key is already present. It returns the
	// value now held under key and whether it was loaded rather than stored.
	PutIfAbsent(key, val []byte) (actual []byte, loaded bool, err error)

	// Len returns the number of keys.
	Len() (int, error)

	// Close releases the backend.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Backend is one of Memory, Badger or SQLite. Empty means Memory.
	Backend string `yaml:"backend"`

	// Path is the database directory (badger) or file (sqlite).
	// Ignored when InMemory is set.
	Path string `yaml:"path"`

	// InMemory keeps badger or sqlite data in memory only.
	InMemory bool `yaml:"in_memory"`

	// SyncWrites makes badger fsync every commit.
	SyncWrites bool `yaml:"sync_writes"`

	// Truncate drops every entry a persistent backend already holds when it
	// is opened. Without it, reopening a path keeps the previous run's data.
	Truncate bool `yaml:"truncate"`

	// Logger receives backend diagnostics. Nil disables them.
	Logger *slog.Logger `yaml:"-"`
}

// Validate checks the backend name and its path requirement.
func (c Config) Validate() error {
	switch name := strings.ToLower(c.Backend); name {
	case "", Memory:
		return nil
	case Badger, SQLite:
		if !c.InMemory && c.Path == "" {
			return fmt.Errorf("%w: %s", ErrPathRequired, name)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}

// Open creates the configured backend.
func Open(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Backend) {
	case Badger:
		return OpenBadger(cfg)
	case SQLite:
		return OpenSQLite(cfg)
	default:
		return NewMemory(), nil
	}
}
