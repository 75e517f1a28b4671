package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/exportkit/jsoncsv/internal/config"
	"github.com/exportkit/jsoncsv/internal/core"
)

func testServerConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     time.Minute,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  time.Minute,
		},
		Export: config.ExportConfig{
			DefaultFilename:  "csv.csv",
			FieldSeparator:   ",",
			Title:            "CSV",
			UseByteOrderMark: true,
			MaxBodySize:      1 << 20,
			HistoryLimit:     50,
		},
		Rate:    config.RateLimitConfig{Enabled: false},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	svc, err := core.NewService(nil, cfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return NewServer(svc, cfg)
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleExport(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	rec := doRequest(t, s, http.MethodPost, "/api/export",
		`{"data":[{"a":1,"b":"x"},{"a":2,"b":"y"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="csv.csv.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rec.Header().Get("X-Export-Id") == "" {
		t.Error("X-Export-Id header missing")
	}

	want := "\ufeff\"a\",\"b\"\r\n\"1\",\"x\"\r\n\"2\",\"y\"\r\n"
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestHandleExport_PreservesKeyOrder(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	rec := doRequest(t, s, http.MethodPost, "/api/export",
		`{"data":[{"zebra":1,"alpha":2,"mango":3}],"options":{"useByteOrderMark":false}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if want := "\"zebra\",\"alpha\",\"mango\"\r\n\"1\",\"2\",\"3\"\r\n"; rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestHandleExport_Options(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	rec := doRequest(t, s, http.MethodPost, "/api/export",
		`{"data":[{"a":1}],"filename":"my report","options":{"fieldSeparator":";","showTitle":true,"title":"Report","useByteOrderMark":false}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="my_report.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if want := "Report\r\n\n\"a\"\r\n\"1\"\r\n"; rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestHandleExport_NoDownload(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	rec := doRequest(t, s, http.MethodPost, "/api/export",
		`{"data":[{"a":1}],"options":{"noDownload":true}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "" {
		t.Errorf("Content-Disposition = %q, want no attachment header", cd)
	}
	if !strings.Contains(rec.Body.String(), "\"a\"") {
		t.Errorf("body = %q, want document text", rec.Body.String())
	}
}

func TestHandleExport_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "malformed body", body: `{"data":`, wantStatus: http.StatusBadRequest, wantCode: "EXP001"},
		{name: "missing data field", body: `{"filename":"x"}`, wantStatus: http.StatusBadRequest, wantCode: "EXP001"},
		{name: "data not a collection", body: `{"data":42}`, wantStatus: http.StatusBadRequest, wantCode: "EXP001"},
		{name: "array of primitives", body: `{"data":[1,2,3]}`, wantStatus: http.StatusBadRequest, wantCode: "EXP001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testServerConfig())
			rec := doRequest(t, s, http.MethodPost, "/api/export", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal error response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if resp.Message == "" {
				t.Error("error response has empty message")
			}
		})
	}
}

func TestHandleListExports_HistoryDisabled(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	rec := doRequest(t, s, http.MethodGet, "/api/exports", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503; body = %s", rec.Code, rec.Body.String())
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if resp.Code != "HIST001" {
		t.Errorf("code = %q, want HIST001", resp.Code)
	}
}

func TestHandleListExports_BadLimit(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	rec := doRequest(t, s, http.MethodGet, "/api/exports?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status  string `json:"status"`
		History bool   `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal health response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want %q", resp.Status, "ok")
	}
	if resp.History {
		t.Error("history = true, want false with no database")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	// Generate some traffic first so counters exist.
	doRequest(t, s, http.MethodPost, "/api/export", `{"data":[{"a":1}]}`)

	rec := doRequest(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "jsoncsv_exports_total") {
		t.Error("metrics output missing jsoncsv_exports_total")
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	headers := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'",
	}
	for name, want := range headers {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := testServerConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret-key"}
	s := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader(`{"data":[{"a":1}]}`))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without key = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader(`{"data":[{"a":1}]}`))
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status with wrong key = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader(`{"data":[{"a":1}]}`))
	req.Header.Set("X-API-Key", "secret-key")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with valid key = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}

	// Health stays open regardless of auth settings.
	rec = doRequest(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	cfg := testServerConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 3
	s := newTestServer(t, cfg)

	for i := 0; i < 3; i++ {
		rec := doRequest(t, s, http.MethodGet, "/healthz", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}

func TestRequestBodyLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.Export.MaxBodySize = 64
	s := newTestServer(t, cfg)

	big := `{"data":[{"field":"` + strings.Repeat("x", 256) + `"}]}`
	rec := doRequest(t, s, http.MethodPost, "/api/export", big)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for oversized body", rec.Code)
	}
}
