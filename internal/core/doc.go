// Package core converts collections of heterogeneous, possibly-nested
// records into CSV documents.
//
// This package is the heart of the exporter, containing all domain logic
// independent of any transport layer. It can be used by web handlers, CLI
// tools, or tests without modification.
//
// # Conversion pipeline
//
// A conversion call moves through fixed stages, each owning its state for
// that call only:
//
//  1. Normalize: the data argument (records, maps, or JSON text) becomes an
//     ordered []*Record. JSON that is not an object or array of objects
//     fails the call with [ErrInvalidInput].
//  2. Merge: caller [Options] are shallow-merged over the configured
//     defaults; an explicit filename argument wins over both.
//  3. Discover: [DiscoverKeyPaths] walks every record and produces the
//     column schema, the union of all leaf key paths in first-seen order.
//  4. Assemble: optional byte-order mark and title block, then the header
//     and one line per record, every cell quoted, CRLF line terminators.
//
// # Key paths
//
// Columns are addressed by dot/bracket key paths: "name", "addr.city",
// "user.todos[1].id". Records missing a path produce an empty cell at that
// column, so irregular collections always align with the header.
//
// # Ordering
//
// Column order is first-discovery order across the whole scan, which is why
// [Record] preserves JSON object key order during decoding. Conversion of
// the same input is byte-for-byte deterministic.
//
// # Service
//
// [Service] wraps the engine for long-lived deployments: it applies
// configured option defaults and records each export in the export_log
// table when a database pool is configured. Recording is best-effort and
// never fails a conversion.
package core
