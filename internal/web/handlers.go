package web

// handlers.go implements the export API.
//
// POST /api/export is the delivery end of the conversion pipeline: it runs
// the conversion and either triggers a browser download (Content-Disposition
// attachment) or, when noDownload is set, returns the document body without
// the attachment disposition.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/exportkit/jsoncsv/internal/core"
	"github.com/exportkit/jsoncsv/internal/logging"
)

// exportOptions mirrors core.Options with the JSON field names the API
// accepts. Unset fields fall back to the server's configured defaults.
type exportOptions struct {
	Filename         string `json:"filename"`
	FieldSeparator   string `json:"fieldSeparator"`
	ShowTitle        bool   `json:"showTitle"`
	Title            string `json:"title"`
	UseByteOrderMark *bool  `json:"useByteOrderMark"`
	NoDownload       bool   `json:"noDownload"`
}

func (o *exportOptions) toCore() core.Options {
	if o == nil {
		return core.Options{}
	}
	return core.Options{
		Filename:         o.Filename,
		FieldSeparator:   o.FieldSeparator,
		ShowTitle:        o.ShowTitle,
		Title:            o.Title,
		UseByteOrderMark: o.UseByteOrderMark,
		NoDownload:       o.NoDownload,
	}
}

// exportRequest is the POST /api/export body. Data is kept as raw JSON all
// the way into the engine so object key order survives into the column
// schema.
type exportRequest struct {
	Data     json.RawMessage `json:"data"`
	Filename string          `json:"filename"`
	Options  *exportOptions  `json:"options"`
}

// handleExport converts the posted data and delivers the CSV document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Export.MaxBodySize)

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidInput, err), http.StatusBadRequest)
		return
	}
	if len(req.Data) == 0 {
		s.respondError(w, r, fmt.Errorf("%w: missing data field", core.ErrInvalidInput), http.StatusBadRequest)
		return
	}

	ctx := withRequestMetadata(r.Context(), r)
	result, err := s.service.Export(ctx, core.ExportRequest{
		Data:     req.Data,
		Filename: req.Filename,
		Options:  req.Options.toCore(),
	})
	if err != nil {
		s.metrics.recordExport(false, 0, 0)
		s.respondError(w, r, err, exportErrorStatus(err))
		return
	}

	doc := result.Document
	s.metrics.recordExport(true, result.Duration, len(doc.Text))

	logging.FromContext(r.Context()).Info("export delivered",
		"export_id", result.ID,
		"filename", doc.Filename,
		"rows", doc.Rows,
		"columns", doc.Columns,
		"bytes", len(doc.Text),
		"no_download", doc.NoDownload,
	)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("X-Export-Id", result.ID)
	if !doc.NoDownload {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, doc.Filename))
	}
	w.Write([]byte(doc.Text))
}

// exportErrorStatus picks the HTTP status for a failed conversion.
func exportErrorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrEmptyDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyExports):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// handleListExports returns recent export history entries.
func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = n
	}

	entries, err := s.service.RecentExports(r.Context(), limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrHistoryDisabled) {
			status = http.StatusServiceUnavailable
		}
		s.respondError(w, r, err, status)
		return
	}
	if entries == nil {
		entries = []core.ExportEntry{}
	}

	writeJSON(w, map[string]any{
		"exports": entries,
		"count":   len(entries),
	})
}

// handleHealth reports liveness and whether export history is available.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"history": s.service.HistoryEnabled(),
	})
}

// withRequestMetadata adds IP and User-Agent to context for export history.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr)
	return core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
}
