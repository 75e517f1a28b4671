package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error", err: nil, wantCode: ""},
		{name: "invalid input", err: ErrInvalidInput, wantCode: "EXP001"},
		{name: "wrapped invalid input", err: fmt.Errorf("normalize: %w", ErrInvalidInput), wantCode: "EXP001"},
		{name: "empty document", err: ErrEmptyDocument, wantCode: "EXP002"},
		{name: "history disabled", err: ErrHistoryDisabled, wantCode: "HIST001"},
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), wantCode: "DB001"},
		{name: "context canceled", err: context.Canceled, wantCode: "REQ001"},
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: "REQ001"},
		{name: "unknown", err: errors.New("something else entirely"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if tt.err != nil && (got.Message == "" || got.Action == "") {
				t.Errorf("MapError(%v) = %+v, want non-empty Message and Action", tt.err, got)
			}
		})
	}
}
