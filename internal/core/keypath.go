package core

// keypath.go implements schema discovery: walking every record in the input
// collection and collecting the flattened key path of every leaf field.
//
// Key paths use dot/bracket notation: "field", "field.sub", "field[2].sub".
// The union across all records, in first-discovery order with duplicates
// suppressed, becomes the CSV column schema. Records that lack a given path
// simply produce an empty cell at that column.

import "strconv"

// DiscoverKeyPaths walks each record in order and returns every unique leaf
// key path, in the order each was first seen. An empty collection (or a
// collection of empty records) yields an empty slice.
func DiscoverKeyPaths(records []*Record) []string {
	var paths []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec == nil {
			continue
		}
		for _, key := range rec.Keys() {
			v, _ := rec.Get(key)
			discover(v, key, &paths, seen)
		}
	}
	return paths
}

// discover classifies a value as a sequence, a mapping, or a leaf, and
// recurses accordingly. path is the flattened location of v.
func discover(v any, path string, paths *[]string, seen map[string]struct{}) {
	switch val := v.(type) {
	case []any:
		for i, el := range val {
			discover(el, path+"["+strconv.Itoa(i)+"]", paths, seen)
		}
	case *Record:
		if val == nil {
			addPath(path, paths, seen)
			return
		}
		for _, key := range val.Keys() {
			child, _ := val.Get(key)
			discover(child, path+"."+key, paths, seen)
		}
	default:
		addPath(path, paths, seen)
	}
}

func addPath(path string, paths *[]string, seen map[string]struct{}) {
	if _, dup := seen[path]; dup {
		return
	}
	seen[path] = struct{}{}
	*paths = append(*paths, path)
}
