// SPDX-License-Identifier: MIT

// Package store provides the key-value backends behind the value repository.
//
// Every backend implements Store, whose only write is PutIfAbsent: a key is
// assigned once and later writers observe the first value. Three backends
// are available:
//
//	memory  sharded in-process maps (default)
//	badger  embedded BadgerDB, on disk or in memory
//	sqlite  a single kv table in SQLite (modernc.org/sqlite, no cgo)
//
// Use Open with a Config to select a backend by name.
package store
