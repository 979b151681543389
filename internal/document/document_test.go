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

package document

import (
	"testing"
)

func decode(t *testing.T, s string) Value {
	t.Helper()
	v, err := Decode([]byte(s))
	if err != nil {
		t.Fatalf("Failed to decode %q: %v", s, err)
	}
	return v
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	for _, s := range []string{``, `{`, `{"a":}`, `[1,2`, `{"a":1} extra`} {
		if _, err := Decode([]byte(s)); err == nil {
			t.Errorf("Expected decode error for %q", s)
		}
	}
}

func TestResolveObjectPath(t *testing.T) {
	doc := decode(t, `{"specs":{"battery":"30 hours"},"name":"Headphones"}`)

	v, ok := Resolve(doc, "specs.battery")
	if !ok {
		t.Fatal("Expected specs.battery to resolve")
	}
	if v != "30 hours" {
		t.Errorf("Expected '30 hours', got %v", v)
	}

	// Top-level column reference is the path on the document root.
	if v, ok := Resolve(doc, "name"); !ok || v != "Headphones" {
		t.Errorf("Expected 'Headphones', got %v (ok=%v)", v, ok)
	}
}

func TestResolveArrayIndex(t *testing.T) {
	doc := decode(t, `{"tags":["rust","db"],"matrix":[[1,2],[3,4]]}`)

	if v, ok := Resolve(doc, "tags.1"); !ok || v != "db" {
		t.Errorf("Expected 'db' at tags.1, got %v (ok=%v)", v, ok)
	}
	if v, ok := Resolve(doc, "matrix.1.0"); !ok {
		t.Errorf("Expected matrix.1.0 to resolve, got %v", v)
	} else if n, _ := AsNumber(v); n != 3 {
		t.Errorf("Expected 3 at matrix.1.0, got %v", v)
	}
}

func TestResolveMissing(t *testing.T) {
	doc := decode(t, `{"a":{"b":1},"arr":[1,2],"s":"text"}`)

	cases := []string{
		"a.c",     // missing object key
		"arr.5",   // index out of range
		"arr.x",   // non-numeric index into array
		"arr.-1",  // negative index
		"s.field", // primitive with segments left over
		"a.b.c",   // path continues past a primitive
		"missing", // missing top-level key
	}
	for _, path := range cases {
		if _, ok := Resolve(doc, path); ok {
			t.Errorf("Expected path %q to be missing", path)
		}
	}
}

func TestEqualNumericPromotion(t *testing.T) {
	a := decode(t, `{"age":30}`)
	b := decode(t, `{"age":30.0}`)
	if !Equal(a, b) {
		t.Error("Expected 30 and 30.0 to compare equal")
	}
	if Equal(decode(t, `30`), decode(t, `30.5`)) {
		t.Error("Expected 30 and 30.5 to differ")
	}
}

func TestEqualStructural(t *testing.T) {
	cases := []struct {
		a, b  string
		equal bool
	}{
		{`null`, `null`, true},
		{`true`, `true`, true},
		{`true`, `false`, false},
		{`"a"`, `"a"`, true},
		{`"a"`, `"b"`, false},
		{`[1,2]`, `[1,2]`, true},
		{`[1,2]`, `[2,1]`, false},
		{`{"a":1,"b":[true,null]}`, `{"b":[true,null],"a":1}`, true},
		{`{"a":1}`, `{"a":1,"b":2}`, false},
		{`"1"`, `1`, false},
		{`null`, `0`, false},
	}
	for _, c := range cases {
		got := Equal(decode(t, c.a), decode(t, c.b))
		if got != c.equal {
			t.Errorf("Equal(%s, %s) = %v, want %v", c.a, c.b, got, c.equal)
		}
	}
}
