package core

// service.go exposes the conversion engine as a long-lived service. The
// service itself holds no per-call state: each Export call owns its own
// buffers, so a shared instance is safe without a reentrancy guarantee from
// the engine.

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/exportkit/jsoncsv/internal/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service is the entry point for export operations.
type Service struct {
	pool     *pgxpool.Pool
	cfg      *config.Config
	defaults Options
	limiter  *ExportLimiter
}

// NewService creates a Service. pool may be nil, in which case export
// history is disabled and conversions still work.
func NewService(pool *pgxpool.Pool, cfg *config.Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	bom := cfg.Export.UseByteOrderMark
	return &Service{
		pool: pool,
		cfg:  cfg,
		defaults: Options{
			Filename:         cfg.Export.DefaultFilename,
			FieldSeparator:   cfg.Export.FieldSeparator,
			Title:            cfg.Export.Title,
			UseByteOrderMark: &bom,
		},
		limiter: NewExportLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWait),
	}, nil
}

// ExportRequest describes one conversion call.
type ExportRequest struct {
	// Data is the record collection or JSON text to convert. See Convert
	// for the accepted forms.
	Data any

	// Filename, when non-empty, overrides the options' filename.
	Filename string

	// Options for this call. Unset fields fall back to the configured
	// defaults, then to the package defaults.
	Options Options
}

// ExportResult is the outcome of a successful export.
type ExportResult struct {
	ID       string
	Document *Document
	Duration time.Duration
}

// Export converts the request data into a CSV document and records the
// export in the history log. History recording is best-effort: a storage
// failure is logged and never fails the export.
func (s *Service) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()

	merged := req.Options.Merged(s.defaults)
	doc, err := Convert(req.Data, req.Filename, merged)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{
		ID:       uuid.NewString(),
		Document: doc,
		Duration: time.Since(start),
	}

	slog.Debug("export complete",
		"export_id", result.ID,
		"filename", doc.Filename,
		"rows", doc.Rows,
		"columns", doc.Columns,
		"bytes", len(doc.Text),
		"duration_ms", result.Duration.Milliseconds(),
	)

	s.recordExport(ctx, result, merged.FieldSeparator)
	return result, nil
}

// Drain waits for in-flight exports to finish. Used during graceful
// shutdown so active conversions complete before the process exits.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
