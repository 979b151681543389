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

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func setupTestOpLog(t *testing.T) (*OpLog, string, func()) {
	tmpDir, err := os.MkdirTemp("", "sharknado_oplog_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	path := filepath.Join(tmpDir, "test.log")
	oplog, err := OpenOpLog(path)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to open log: %v", err)
	}

	cleanup := func() {
		oplog.Close()
		os.RemoveAll(tmpDir)
	}
	return oplog, path, cleanup
}

func TestOpLogAppendAndReplay(t *testing.T) {
	oplog, _, cleanup := setupTestOpLog(t)
	defer cleanup()

	records := []Record{
		{Op: OpSet, Table: "users", Key: "alice", Doc: json.RawMessage(`{"name":"Alice"}`)},
		{Op: OpUpdate, Table: "users", Key: "alice", Doc: json.RawMessage(`{"name":"Alice Smith"}`)},
		{Op: OpDelete, Table: "users", Key: "bob"},
	}
	for _, rec := range records {
		if err := oplog.Append(rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	var replayed []Record
	if err := oplog.Replay(func(rec Record) {
		replayed = append(replayed, rec)
	}); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	if len(replayed) != len(records) {
		t.Fatalf("Expected %d records, got %d", len(records), len(replayed))
	}
	for i, rec := range replayed {
		want := records[i]
		if rec.Op != want.Op || rec.Table != want.Table || rec.Key != want.Key {
			t.Errorf("Record %d: got %v/%s/%s, want %v/%s/%s",
				i, rec.Op, rec.Table, rec.Key, want.Op, want.Table, want.Key)
		}
		if string(rec.Doc) != string(want.Doc) {
			t.Errorf("Record %d payload: got %s, want %s", i, rec.Doc, want.Doc)
		}
	}
}

func TestOpLogPayloadWithSeparator(t *testing.T) {
	oplog, _, cleanup := setupTestOpLog(t)
	defer cleanup()

	// The JSON payload may legitimately contain the field separator.
	doc := json.RawMessage(`{"note":"a|b|c"}`)
	if err := oplog.Append(Record{Op: OpSet, Table: "t", Key: "k", Doc: doc}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	var got json.RawMessage
	if err := oplog.Replay(func(rec Record) { got = rec.Doc }); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if string(got) != string(doc) {
		t.Errorf("Payload mangled by separator: got %s, want %s", got, doc)
	}
}

func TestOpLogReplaySkipsMalformedLines(t *testing.T) {
	oplog, path, cleanup := setupTestOpLog(t)
	defer cleanup()

	if err := oplog.Append(Record{Op: OpSet, Table: "t", Key: "k1", Doc: json.RawMessage(`1`)}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Simulate garbage from a crash mid-append, then a valid record.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("Failed to open log for corruption: %v", err)
	}
	f.WriteString("not a record\n")
	f.WriteString("SET|t|k2|{broken json\n")
	f.WriteString("FROB|t|k3|1\n")
	f.Close()

	if err := oplog.Append(Record{Op: OpSet, Table: "t", Key: "k4", Doc: json.RawMessage(`2`)}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	var keys []string
	if err := oplog.Replay(func(rec Record) { keys = append(keys, rec.Key) }); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "k1" || keys[1] != "k4" {
		t.Errorf("Expected only valid records [k1 k4], got %v", keys)
	}
}

func TestOpLogMissingFileIsEmpty(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "sharknado_oplog_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	oplog := &OpLog{path: filepath.Join(tmpDir, "absent.log")}
	count := 0
	if err := oplog.Replay(func(Record) { count++ }); err != nil {
		t.Fatalf("Replay of missing file should succeed, got: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 records from missing file, got %d", count)
	}
}

func TestOpLogSize(t *testing.T) {
	oplog, _, cleanup := setupTestOpLog(t)
	defer cleanup()

	size, err := oplog.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 0 {
		t.Errorf("Expected initial size 0, got %d", size)
	}

	if err := oplog.Append(Record{Op: OpDelete, Table: "t", Key: "k"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	size, err = oplog.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size == 0 {
		t.Error("Expected size > 0 after append")
	}
}
