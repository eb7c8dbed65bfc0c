// SPDX-License-Identifier: MIT

package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore keeps entries in an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens a BadgerDB at cfg.Path, or in memory when cfg.InMemory is set.
// The directory is created when missing.
func OpenBadger(cfg Config) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("%w: badger", ErrPathRequired)
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	if cfg.Truncate {
		if err := db.DropAll(); err != nil {
			db.Close()
			return nil, fmt.Errorf("truncate badger database: %w", err)
		}
	}

	return &BadgerStore{db: db}, nil
}

// Get returns the value under key.
func (bs *BadgerStore) Get(key []byte) ([]byte, bool, error) {
	var val []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("badger get: %w", err)
	}

	return val, true, nil
}

// PutIfAbsent stores val unless key is present. Conflicting transactions are
// retried; the loser then reads the winner's value.
func (bs *BadgerStore) PutIfAbsent(key, val []byte) ([]byte, bool, error) {
	for {
		var (
			actual []byte
			loaded bool
		)
		err := bs.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			switch {
			case err == nil:
				loaded = true
				actual, err = item.ValueCopy(nil)
				return err
			case errors.Is(err, badger.ErrKeyNotFound):
				actual = val
				return txn.Set(key, val)
			default:
				return err
			}
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("badger put: %w", err)
		}

		return actual, loaded, nil
	}
}

// Len counts keys with a key-only iteration.
func (bs *BadgerStore) Len() (int, error) {
	n := 0
	err := bs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("badger count: %w", err)
	}

	return n, nil
}

// Close closes the database.
func (bs *BadgerStore) Close() error {
	return bs.db.Close()
}
