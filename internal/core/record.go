package core

// record.go implements the order-preserving record type that conversion
// operates on.
//
// CSV column order is defined by first-discovery order across the input
// collection, so records decoded from JSON must remember the order in which
// object keys appeared. encoding/json's default map decoding throws that
// order away, which is why Record carries its own key slice and decodes
// itself from the token stream.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Record is a string-keyed mapping whose key order is significant.
// Values are one of: string, bool, json.Number (or a native Go numeric for
// caller-built records), nil, *Record for nested objects, or []any for
// arrays.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Set stores a value under key. The first Set for a key fixes its position
// in the record's key order; later Sets overwrite the value in place.
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the record's keys in insertion order. The returned slice is
// the record's own backing slice and must not be modified.
func (r *Record) Keys() []string {
	return r.keys
}

// Len returns the number of keys in the record.
func (r *Record) Len() int {
	return len(r.keys)
}

// UnmarshalJSON decodes a JSON object into the record, preserving the order
// in which keys appear in the source text. Numbers are kept as json.Number
// so their textual form survives into the CSV unchanged.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}

	rec, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}

// MarshalJSON encodes the record as a JSON object in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RecordFromMap converts a plain map into a Record. Go map iteration order
// is random, so keys are sorted to keep conversion output deterministic.
// Callers that need schema columns in authoring order should build records
// with Set or supply JSON text instead.
func RecordFromMap(m map[string]any) *Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rec := NewRecord()
	for _, k := range keys {
		rec.Set(k, normalizeValue(m[k]))
	}
	return rec
}

// normalizeValue rewrites nested maps into Records so the rest of the
// pipeline only ever sees *Record, []any, and leaf values.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return RecordFromMap(t)
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = normalizeValue(el)
		}
		return out
	default:
		return v
	}
}

// decodeObject consumes object members up to and including the closing
// brace. The opening brace has already been read by the caller.
func decodeObject(dec *json.Decoder) (*Record, error) {
	rec := NewRecord()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("record: expected object key, got %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		rec.Set(key, val)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return rec, nil
}

// decodeArray consumes array elements up to and including the closing
// bracket. The opening bracket has already been read by the caller.
func decodeArray(dec *json.Decoder) ([]any, error) {
	arr := make([]any, 0)
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return nil, err
	}
	return arr, nil
}

// decodeValue reads a single JSON value of any kind from the token stream.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); ok {
		switch d {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("record: unexpected delimiter %v", d)
	}
	// string, json.Number, bool, or nil
	return tok, nil
}
