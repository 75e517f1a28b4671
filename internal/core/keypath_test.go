package core

import (
	"reflect"
	"testing"
)

func TestDiscoverKeyPaths(t *testing.T) {
	tests := []struct {
		name    string
		records []string // JSON objects, one per record
		want    []string
	}{
		{
			name:    "flat records",
			records: []string{`{"a":1,"b":"x"}`, `{"a":2,"b":"y"}`},
			want:    []string{"a", "b"},
		},
		{
			name:    "nested object",
			records: []string{`{"name":"jo","addr":{"city":"LA"}}`},
			want:    []string{"name", "addr.city"},
		},
		{
			name:    "array of objects",
			records: []string{`{"user":{"todos":[{"id":1},{"id":2}]}}`},
			want:    []string{"user.todos[0].id", "user.todos[1].id"},
		},
		{
			name:    "array of primitives",
			records: []string{`{"tags":["a","b","c"]}`},
			want:    []string{"tags[0]", "tags[1]", "tags[2]"},
		},
		{
			name:    "heterogeneous shapes",
			records: []string{`{"a":1}`, `{"b":2}`},
			want:    []string{"a", "b"},
		},
		{
			name:    "duplicates suppressed in first-seen order",
			records: []string{`{"a":1,"b":2}`, `{"b":3,"c":4}`, `{"a":5}`},
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "array length differences",
			records: []string{`{"tags":["a"]}`, `{"tags":["a","b"]}`},
			want:    []string{"tags[0]", "tags[1]"},
		},
		{
			name:    "deep nesting",
			records: []string{`{"a":{"b":{"c":[{"d":1}]}}}`},
			want:    []string{"a.b.c[0].d"},
		},
		{
			name:    "null leaf is a path",
			records: []string{`{"a":null,"b":1}`},
			want:    []string{"a", "b"},
		},
		{
			name:    "empty record contributes nothing",
			records: []string{`{}`, `{"a":1}`},
			want:    []string{"a"},
		},
		{
			name:    "empty nested object contributes nothing",
			records: []string{`{"a":{},"b":1}`},
			want:    []string{"b"},
		},
		{
			name:    "empty array contributes nothing",
			records: []string{`{"a":[],"b":1}`},
			want:    []string{"b"},
		},
		{
			name:    "empty collection",
			records: nil,
			want:    nil,
		},
		{
			name:    "leaf and mapping under the same field across records",
			records: []string{`{"a":2}`, `{"a":{"b":1}}`},
			want:    []string{"a", "a.b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]*Record, len(tt.records))
			for i, src := range tt.records {
				records[i] = mustRecord(t, src)
			}
			got := DiscoverKeyPaths(records)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DiscoverKeyPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscoverKeyPaths_Deterministic(t *testing.T) {
	records := []*Record{
		mustRecord(t, `{"z":1,"m":{"b":2,"a":3},"arr":[{"x":1},{"y":2}]}`),
		mustRecord(t, `{"q":4,"z":5}`),
	}

	first := DiscoverKeyPaths(records)
	for i := 0; i < 10; i++ {
		if got := DiscoverKeyPaths(records); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: DiscoverKeyPaths() = %v, want %v", i, got, first)
		}
	}
}

func TestDiscoverKeyPaths_SupersetOfEveryRecord(t *testing.T) {
	collection := []*Record{
		mustRecord(t, `{"a":1,"n":{"x":1}}`),
		mustRecord(t, `{"b":[1,2],"n":{"y":2}}`),
		mustRecord(t, `{"a":3,"c":{"d":[{"e":4}]}}`),
	}

	all := make(map[string]struct{})
	for _, p := range DiscoverKeyPaths(collection) {
		all[p] = struct{}{}
	}

	for i, rec := range collection {
		for _, p := range DiscoverKeyPaths([]*Record{rec}) {
			if _, ok := all[p]; !ok {
				t.Errorf("record %d path %q missing from collection schema", i, p)
			}
		}
	}
}
