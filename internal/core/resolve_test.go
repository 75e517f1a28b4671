package core

import (
	"reflect"
	"testing"
)

func TestParseKeyPath(t *testing.T) {
	tests := []struct {
		path string
		want []pathStep
	}{
		{
			path: "a",
			want: []pathStep{{field: "a", index: -1}},
		},
		{
			path: "a.b.c",
			want: []pathStep{{field: "a", index: -1}, {field: "b", index: -1}, {field: "c", index: -1}},
		},
		{
			path: "todos[2].id",
			want: []pathStep{{field: "todos", index: 2}, {field: "id", index: -1}},
		},
		{
			path: "tags[10]",
			want: []pathStep{{field: "tags", index: 10}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := parseKeyPath(tt.path); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseKeyPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	rec := mustRecord(t, `{"a":1,"n":{"b":"x","deep":{"c":true}},"arr":[{"id":7},{"id":8}],"tags":["t0","t1"]}`)

	tests := []struct {
		name      string
		path      string
		want      any
		wantFound bool
	}{
		{name: "top-level leaf", path: "a", want: jsonNum("1"), wantFound: true},
		{name: "nested leaf", path: "n.b", want: "x", wantFound: true},
		{name: "deep nested leaf", path: "n.deep.c", want: true, wantFound: true},
		{name: "indexed object field", path: "arr[1].id", want: jsonNum("8"), wantFound: true},
		{name: "indexed primitive", path: "tags[0]", want: "t0", wantFound: true},
		{name: "structured value survives", path: "n.deep", wantFound: true},
		{name: "missing field", path: "zzz", wantFound: false},
		{name: "missing nested field", path: "n.zzz", wantFound: false},
		{name: "index out of range", path: "tags[5]", wantFound: false},
		{name: "index into non-array", path: "a[0]", wantFound: false},
		{name: "descend through leaf", path: "a.b", wantFound: false},
		{name: "descend through array without index", path: "arr.id", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := resolve(rec, parseKeyPath(tt.path))
			if found != tt.wantFound {
				t.Fatalf("resolve(%q) found = %v, want %v", tt.path, found, tt.wantFound)
			}
			if tt.want != nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("resolve(%q) = %#v, want %#v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolve_NullLeafIsFound(t *testing.T) {
	rec := mustRecord(t, `{"a":null}`)
	got, found := resolve(rec, parseKeyPath("a"))
	if !found {
		t.Fatal("resolve(a) found = false, want true")
	}
	if got != nil {
		t.Errorf("resolve(a) = %#v, want nil", got)
	}
}
