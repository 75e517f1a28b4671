package core

// document.go assembles the full CSV document for one conversion call:
// normalize input, merge options, optional byte-order mark and title block,
// header row, then one row per record. All state for a call lives in locals;
// nothing is shared between calls.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrInvalidInput reports data that could not be normalized into a
	// record collection: malformed JSON, or JSON whose top-level value is
	// not an object or array of objects.
	ErrInvalidInput = errors.New("invalid input data")

	// ErrEmptyDocument reports a conversion that produced no output at all.
	// A well-formed call always emits at least the header line terminator,
	// so this guards against malformed option merges, not empty data.
	ErrEmptyDocument = errors.New("empty csv document")
)

const (
	lineTerminator = "\r\n"
	byteOrderMark  = "\ufeff"
)

// Options controls a single conversion. The zero value means "use the
// defaults" for every field: unset strings fall back per field, and
// UseByteOrderMark defaults to true (hence the pointer).
type Options struct {
	// Filename is the base name for the delivered artifact, without
	// extension. Default "csv.csv".
	Filename string

	// FieldSeparator joins cells in the header and every row. Default ",".
	FieldSeparator string

	// ShowTitle prepends a title block (Title, a line terminator, and a
	// blank line) ahead of the header.
	ShowTitle bool

	// Title is the title block text. Default "CSV".
	Title string

	// UseByteOrderMark prepends U+FEFF to the document. Defaults to true
	// when nil.
	UseByteOrderMark *bool

	// NoDownload asks the delivery layer to return the document to the
	// caller instead of triggering a download. The assembler itself always
	// returns the text; this flag only travels with the options.
	NoDownload bool
}

// DefaultOptions returns the package-level defaults.
func DefaultOptions() Options {
	bom := true
	return Options{
		Filename:         "csv.csv",
		FieldSeparator:   ",",
		Title:            "CSV",
		UseByteOrderMark: &bom,
	}
}

// Merged returns o with every unset field taken from base. Booleans with a
// false zero value (ShowTitle, NoDownload) are combined with OR so that
// either layer can switch them on.
func (o Options) Merged(base Options) Options {
	out := o
	if out.Filename == "" {
		out.Filename = base.Filename
	}
	if out.FieldSeparator == "" {
		out.FieldSeparator = base.FieldSeparator
	}
	if out.Title == "" {
		out.Title = base.Title
	}
	if out.UseByteOrderMark == nil {
		out.UseByteOrderMark = base.UseByteOrderMark
	}
	out.ShowTitle = out.ShowTitle || base.ShowTitle
	out.NoDownload = out.NoDownload || base.NoDownload
	return out
}

func (o Options) useByteOrderMark() bool {
	return o.UseByteOrderMark == nil || *o.UseByteOrderMark
}

// Document is the assembled CSV output of one conversion call.
type Document struct {
	// Filename is the finalized base name: caller filename (or option/
	// default fallback) with interior spaces replaced by underscores, no
	// extension. The delivery layer appends ".csv".
	Filename string

	// Text is the full document, byte-exact: optional BOM, optional title
	// block, header line, data lines, all CRLF-terminated.
	Text string

	// Rows is the number of data rows (records), excluding the header.
	Rows int

	// Columns is the size of the discovered key path set.
	Columns int

	// NoDownload mirrors the merged option so the delivery layer knows
	// whether to trigger a download or hand the text back.
	NoDownload bool
}

// Convert turns data into a CSV document.
//
// data may be a []*Record, a single *Record, a []map[string]any, a
// map[string]any, or JSON text (string, []byte, json.RawMessage) holding an
// object or an array of objects. filename, when non-empty, overrides the
// merged options' Filename. Option fields left unset fall back to
// DefaultOptions.
//
// The key path set is computed exactly once and used for the header and
// every row, so all lines have identical cell counts.
func Convert(data any, filename string, opts Options) (*Document, error) {
	records, err := normalizeInput(data)
	if err != nil {
		return nil, err
	}

	merged := opts.Merged(DefaultOptions())
	if filename != "" {
		merged.Filename = filename
	}

	paths := DiscoverKeyPaths(records)
	parsed := make([][]pathStep, len(paths))
	for i, p := range paths {
		parsed[i] = parseKeyPath(p)
	}

	var b strings.Builder
	if merged.useByteOrderMark() {
		b.WriteString(byteOrderMark)
	}
	if merged.ShowTitle {
		b.WriteString(merged.Title)
		b.WriteString(lineTerminator)
		b.WriteString("\n")
	}

	cells := make([]string, len(paths))
	for i, p := range paths {
		cells[i] = formatCell(p, true)
	}
	b.WriteString(strings.Join(cells, merged.FieldSeparator))
	b.WriteString(lineTerminator)

	for _, rec := range records {
		for i := range parsed {
			cells[i] = formatCell(resolve(rec, parsed[i]))
		}
		b.WriteString(strings.Join(cells, merged.FieldSeparator))
		b.WriteString(lineTerminator)
	}

	text := b.String()
	if text == "" {
		return nil, ErrEmptyDocument
	}

	return &Document{
		Filename:   finalizeFilename(merged.Filename),
		Text:       text,
		Rows:       len(records),
		Columns:    len(paths),
		NoDownload: merged.NoDownload,
	}, nil
}

// finalizeFilename replaces interior spaces with underscores. The ".csv"
// extension is appended at delivery, not here.
func finalizeFilename(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// normalizeInput coerces the caller's data argument into a record
// collection. A single record is wrapped into a one-element collection.
func normalizeInput(data any) ([]*Record, error) {
	switch v := data.(type) {
	case nil:
		return nil, fmt.Errorf("%w: data is nil", ErrInvalidInput)
	case []*Record:
		return v, nil
	case *Record:
		return []*Record{v}, nil
	case []map[string]any:
		records := make([]*Record, len(v))
		for i, m := range v {
			records[i] = RecordFromMap(m)
		}
		return records, nil
	case map[string]any:
		return []*Record{RecordFromMap(v)}, nil
	case []any:
		records := make([]*Record, 0, len(v))
		for i, el := range v {
			rec, err := coerceRecord(el)
			if err != nil {
				return nil, fmt.Errorf("%w: element %d is not an object", ErrInvalidInput, i)
			}
			records = append(records, rec)
		}
		return records, nil
	case string:
		return parseJSONInput([]byte(v))
	case []byte:
		return parseJSONInput(v)
	case json.RawMessage:
		return parseJSONInput(v)
	default:
		return nil, fmt.Errorf("%w: unsupported data type %T", ErrInvalidInput, data)
	}
}

func coerceRecord(v any) (*Record, error) {
	switch t := v.(type) {
	case *Record:
		return t, nil
	case map[string]any:
		return RecordFromMap(t), nil
	default:
		return nil, fmt.Errorf("not an object: %T", v)
	}
}

// parseJSONInput decodes JSON text into a record collection with key order
// preserved. A top-level JSON string is itself treated as JSON-encoded data
// and parsed again, matching the "collection or a JSON-encoded string of
// same" entrypoint contract. Anything other than an object or an array of
// objects fails the call.
func parseJSONInput(data []byte) ([]*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	// Trailing tokens after the first value mean the input was not a single
	// JSON document.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrInvalidInput)
	}

	switch t := v.(type) {
	case *Record:
		return []*Record{t}, nil
	case []any:
		records := make([]*Record, 0, len(t))
		for i, el := range t {
			rec, ok := el.(*Record)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is not an object", ErrInvalidInput, i)
			}
			records = append(records, rec)
		}
		return records, nil
	case string:
		return parseJSONInput([]byte(t))
	default:
		return nil, fmt.Errorf("%w: JSON value is not an object or array", ErrInvalidInput)
	}
}
