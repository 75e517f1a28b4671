package core

// resolve.go locates a leaf value inside a record by following a parsed key
// path. Resolution never validates: a path discovered against one record's
// shape may not exist in another, and every mismatch (missing field, wrong
// type, index out of range) is reported as not-found and surfaces as an
// empty cell.

import (
	"regexp"
	"strconv"
	"strings"
)

// pathStep is one parsed segment of a key path: a field access, optionally
// followed by an array index.
type pathStep struct {
	field string
	index int // -1 when the segment carries no index
}

// indexedSegment matches "name[3]" style segments. Field names containing
// literal dots or brackets cannot be addressed; they mis-parse the same way
// the string grammar they were discovered under would.
var indexedSegment = regexp.MustCompile(`^(.+)\[(\d+)\]$`)

// parseKeyPath splits a key path on "." and parses each segment's optional
// bracket index. Paths are parsed once per conversion and the parsed form is
// reused across every row.
func parseKeyPath(path string) []pathStep {
	segments := strings.Split(path, ".")
	steps := make([]pathStep, 0, len(segments))
	for _, seg := range segments {
		if m := indexedSegment.FindStringSubmatch(seg); m != nil {
			idx, err := strconv.Atoi(m[2])
			if err == nil {
				steps = append(steps, pathStep{field: m[1], index: idx})
				continue
			}
		}
		steps = append(steps, pathStep{field: seg, index: -1})
	}
	return steps
}

// resolve walks rec along steps. The second return is false when any step
// cannot be taken.
func resolve(rec *Record, steps []pathStep) (any, bool) {
	var cur any = rec
	for _, step := range steps {
		r, ok := cur.(*Record)
		if !ok || r == nil {
			return nil, false
		}
		v, ok := r.Get(step.field)
		if !ok {
			return nil, false
		}
		if step.index >= 0 {
			arr, ok := v.([]any)
			if !ok || step.index >= len(arr) {
				return nil, false
			}
			v = arr[step.index]
		}
		cur = v
	}
	return cur, true
}
