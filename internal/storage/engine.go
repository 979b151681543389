/*
 * Copyright (c) 2026 Sharknado Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package storage contains the table/key/document engine and its
operation log.

Engine Overview:
================

The Engine keeps every table as an in-memory map from key to decoded
JSON document, backed by the append-only operation log for durability.

Write Path:
===========

 1. Acquire the exclusive lock
 2. Append the record to the operation log
 3. Apply the mutation to the in-memory maps
 4. Release the lock

If the append fails the in-memory state is left untouched and the error
is surfaced to the caller, so a record never becomes visible to readers
without being durable first.

Read Path:
==========

 1. Acquire the shared lock
 2. Read from the in-memory maps
 3. Release the lock

Startup/Recovery:
=================

The constructor replays the operation log from the beginning, rebuilding
exactly the state the log describes. Tables are created implicitly by the
first SET that names them, both live and during replay.

Thread Safety:
==============

A single sync.RWMutex covers both the log append and the in-memory
update, which linearizes all mutations: readers always observe a state
that is a prefix of the durable log.
*/
package storage

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"sharknado/internal/document"
	"sharknado/internal/errors"
)

// tableNamePattern restricts table identifiers to letters, digits, and
// underscores.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Entry is one (key, document) pair returned by Query.
type Entry struct {
	Key string
	Doc document.Value
}

// Engine is the concurrent-safe document store shared by all sessions.
type Engine struct {
	mu     sync.RWMutex
	tables map[string]map[string]document.Value
	log    *OpLog
}

// NewEngine opens the operation log at logPath and rebuilds the
// in-memory state by replaying it.
func NewEngine(logPath string) (*Engine, error) {
	oplog, err := OpenOpLog(logPath)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		tables: make(map[string]map[string]document.Value),
		log:    oplog,
	}

	err = oplog.Replay(func(rec Record) {
		switch rec.Op {
		case OpSet, OpUpdate:
			doc, derr := document.Decode(rec.Doc)
			if derr != nil {
				// parseRecord already validated the JSON; this only
				// fires on payloads valid as JSON but undecodable,
				// which cannot happen with encoding/json output.
				return
			}
			e.table(rec.Table)[rec.Key] = doc
		case OpDelete:
			if t, ok := e.tables[rec.Table]; ok {
				delete(t, rec.Key)
			}
		}
	})
	if err != nil {
		oplog.Close()
		return nil, err
	}

	return e, nil
}

// table returns the named table map, creating it if needed.
// Callers must hold the exclusive lock (or be in single-threaded replay).
func (e *Engine) table(name string) map[string]document.Value {
	t, ok := e.tables[name]
	if !ok {
		t = make(map[string]document.Value)
		e.tables[name] = t
	}
	return t
}

// validateNames checks the table identifier and key against the data
// model rules. The key additionally must not contain the log record
// separator.
func validateNames(table, key string) error {
	if table == "" || !tableNamePattern.MatchString(table) {
		return errors.InvalidValue("table", "identifier must be letters, digits, or underscores")
	}
	if key == "" || strings.ContainsAny(key, " \t|") {
		return errors.InvalidValue("key", "must be non-empty without whitespace or '|'")
	}
	return nil
}

// Set inserts or overwrites the document at (table, key).
// The table is created implicitly if it does not exist.
func (e *Engine) Set(table, key string, doc document.Value) error {
	if err := validateNames(table, key); err != nil {
		return err
	}
	raw, err := document.Encode(doc)
	if err != nil {
		return errors.BadJSON().WithCause(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.log.Append(Record{Op: OpSet, Table: table, Key: key, Doc: raw}); err != nil {
		return err
	}
	e.table(table)[key] = doc
	return nil
}

// Get returns the document at (table, key).
func (e *Engine) Get(table, key string) (document.Value, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, ok := e.tables[table]
	if !ok {
		return nil, errors.NotFound("record")
	}
	doc, ok := t[key]
	if !ok {
		return nil, errors.NotFound("record")
	}
	return doc, nil
}

// Update replaces the document at (table, key).
// Unlike Set it fails with NotFound when the key is absent, and in that
// case nothing is appended to the log.
func (e *Engine) Update(table, key string, doc document.Value) error {
	if err := validateNames(table, key); err != nil {
		return err
	}
	raw, err := document.Encode(doc)
	if err != nil {
		return errors.BadJSON().WithCause(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tables[table]
	if !ok {
		return errors.NotFound("record")
	}
	if _, ok := t[key]; !ok {
		return errors.NotFound("record")
	}

	if err := e.log.Append(Record{Op: OpUpdate, Table: table, Key: key, Doc: raw}); err != nil {
		return err
	}
	t[key] = doc
	return nil
}

// Delete removes (table, key). Deleting an absent key is not an error,
// but the DELETE record is still appended so the log remains a complete
// trace of accepted commands.
func (e *Engine) Delete(table, key string) error {
	if err := validateNames(table, key); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.log.Append(Record{Op: OpDelete, Table: table, Key: key}); err != nil {
		return err
	}
	if t, ok := e.tables[table]; ok {
		delete(t, key)
	}
	return nil
}

// Query returns every entry in the named table for which match returns
// true. The snapshot is taken under the shared lock, so results are
// consistent as of one point in the mutation order. No result ordering
// is guaranteed.
func (e *Engine) Query(table string, match func(document.Value) bool) ([]Entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, ok := e.tables[table]
	if !ok {
		return nil, errors.NotFound("table")
	}

	var results []Entry
	for key, doc := range t {
		if match(doc) {
			results = append(results, Entry{Key: key, Doc: doc})
		}
	}
	return results, nil
}

// Tables returns the sorted list of table names.
func (e *Engine) Tables() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.tables))
	for name := range e.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LogSize returns the current size of the operation log in bytes.
func (e *Engine) LogSize() (int64, error) {
	return e.log.Size()
}

// Close closes the underlying operation log.
func (e *Engine) Close() error {
	return e.log.Close()
}
