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

package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"sharknado/internal/document"
	"sharknado/internal/errors"
)

func TestParseLogin(t *testing.T) {
	cmd, err := Parse("LOGIN admin admin123")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cmd.Kind != KindLogin || cmd.User != "admin" || cmd.Pass != "admin123" {
		t.Errorf("Unexpected command: %+v", cmd)
	}
}

func TestParseIsCaseInsensitive(t *testing.T) {
	for _, line := range []string{"login a b", "Login a b", "LOGIN a b", "lOgIn a b"} {
		cmd, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", line, err)
		}
		if cmd.Kind != KindLogin {
			t.Errorf("Parse(%q): expected LOGIN, got %s", line, cmd.Verb())
		}
	}
}

func TestParseSetKeepsPayload(t *testing.T) {
	cmd, err := Parse(`SET users john {"name": "John", "age": 30}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cmd.Kind != KindSet || cmd.Table != "users" || cmd.Key != "john" {
		t.Errorf("Unexpected command: %+v", cmd)
	}

	want, _ := document.Decode([]byte(`{"name":"John","age":30}`))
	if diff := cmp.Diff(want, cmd.Doc); diff != "" {
		t.Errorf("Payload mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSetBadJSON(t *testing.T) {
	if _, err := Parse(`SET users john {broken`); !errors.IsCode(err, errors.CodeBadJSON) {
		t.Errorf("Expected BadJSON, got %v", err)
	}
	if _, err := Parse(`UPDATE users john {"a":1} trailing`); !errors.IsCode(err, errors.CodeBadJSON) {
		t.Errorf("Expected BadJSON for trailing garbage, got %v", err)
	}
}

func TestParseInsufficientArguments(t *testing.T) {
	cases := []string{
		"LOGIN admin",
		"LOGIN",
		"SET users",
		"SET users john",
		"GET users",
		"DELETE users",
		"QUERY",
		"LOGOUT extra",
		"GET users john extra",
	}
	for _, line := range cases {
		if _, err := Parse(line); !errors.IsCode(err, errors.CodeBadArguments) {
			t.Errorf("Parse(%q): expected BadArguments, got %v", line, err)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	if _, err := Parse("FROB users john"); !errors.IsCode(err, errors.CodeUnknownCommand) {
		t.Errorf("Expected UnknownCommand, got %v", err)
	}
}

func TestParseQueryKeepsConditionString(t *testing.T) {
	cmd, err := Parse(`QUERY users age >= 18 name contains "John"`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cmd.Kind != KindQuery || cmd.Table != "users" {
		t.Errorf("Unexpected command: %+v", cmd)
	}
	if cmd.Query != `age >= 18 name contains "John"` {
		t.Errorf("Condition string mangled: %q", cmd.Query)
	}

	// A bare QUERY <table> selects everything; conditions are optional.
	cmd, err = Parse("QUERY users")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cmd.Query != "" {
		t.Errorf("Expected empty condition string, got %q", cmd.Query)
	}
}

func TestParseToleratesCR(t *testing.T) {
	cmd, err := Parse("GET users john\r")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cmd.Key != "john" {
		t.Errorf("Expected key 'john', got %q", cmd.Key)
	}
}

func TestParseSimpleVerbs(t *testing.T) {
	cases := map[string]Kind{
		"LOGOUT": KindLogout,
		"WHOAMI": KindWhoami,
		"HELP":   KindHelp,
		"EXIT":   KindExit,
		"QUIT":   KindExit,
	}
	for line, kind := range cases {
		cmd, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", line, err)
		}
		if cmd.Kind != kind {
			t.Errorf("Parse(%q): expected kind %v, got %v", line, kind, cmd.Kind)
		}
	}
}
