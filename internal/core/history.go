package core

// history.go records completed exports in the export_log table. The table is
// an audit trail, not an artifact store: only metadata about each document
// is kept, never the document text.

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrHistoryDisabled is returned by history queries when the service was
// built without a database pool.
var ErrHistoryDisabled = errors.New("export history is disabled")

// ExportEntry is one row of the export_log table.
type ExportEntry struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	RowCount    int       `json:"rowCount"`
	ColumnCount int       `json:"columnCount"`
	ByteSize    int       `json:"byteSize"`
	Separator   string    `json:"separator"`
	DurationMS  int64     `json:"durationMs"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

const exportLogSchema = `
CREATE TABLE IF NOT EXISTS export_log (
	id           UUID PRIMARY KEY,
	filename     TEXT NOT NULL,
	row_count    INTEGER NOT NULL,
	column_count INTEGER NOT NULL,
	byte_size    INTEGER NOT NULL,
	separator    TEXT NOT NULL,
	duration_ms  BIGINT NOT NULL,
	ip_address   TEXT,
	user_agent   TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertExportSQL = `
INSERT INTO export_log
	(id, filename, row_count, column_count, byte_size, separator, duration_ms, ip_address, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const selectExportsSQL = `
SELECT id, filename, row_count, column_count, byte_size, separator, duration_ms,
	ip_address, user_agent, created_at
FROM export_log
ORDER BY created_at DESC
LIMIT $1`

// EnsureSchema creates the export_log table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, exportLogSchema)
	return err
}

// HistoryEnabled reports whether exports are being recorded.
func (s *Service) HistoryEnabled() bool {
	return s.pool != nil
}

// recordExport inserts a history row for a completed export. Failures are
// logged and swallowed so a history outage never fails a conversion.
func (s *Service) recordExport(ctx context.Context, result *ExportResult, separator string) {
	if s.pool == nil {
		return
	}

	doc := result.Document
	_, err := s.pool.Exec(ctx, insertExportSQL,
		result.ID,
		doc.Filename,
		doc.Rows,
		doc.Columns,
		len(doc.Text),
		separator,
		result.Duration.Milliseconds(),
		toPgText(IPAddressFromContext(ctx)),
		toPgText(UserAgentFromContext(ctx)),
	)
	if err != nil {
		slog.Warn("export history insert failed",
			"export_id", result.ID,
			"error", err,
		)
	}
}

// RecentExports returns the most recent history entries, newest first.
// limit values outside (0, configured maximum] are clamped to the maximum.
func (s *Service) RecentExports(ctx context.Context, limit int) ([]ExportEntry, error) {
	if s.pool == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 || limit > s.cfg.Export.HistoryLimit {
		limit = s.cfg.Export.HistoryLimit
	}

	rows, err := s.pool.Query(ctx, selectExportsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ExportEntry
	for rows.Next() {
		var e ExportEntry
		var ip, ua pgtype.Text
		if err := rows.Scan(&e.ID, &e.Filename, &e.RowCount, &e.ColumnCount,
			&e.ByteSize, &e.Separator, &e.DurationMS, &ip, &ua, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.IPAddress = ip.String
		e.UserAgent = ua.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// toPgText converts a string to pgtype.Text, mapping empty to NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
