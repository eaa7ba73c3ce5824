package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"not found", ErrNotFound, "CLM001"},
		{"wrapped not found", fmt.Errorf("get claim CLM1: %w", ErrNotFound), "CLM001"},
		{"conflict", ErrConflict, "CLM002"},
		{"validation", &ValidationError{Field: "customer_age", Message: "must be between 18 and 120"}, "VAL001"},
		{"parse error", &ParseError{Line: 3, Column: "claim_date", Err: errors.New("bad")}, "CSV001"},
		{"parse error wrapping validation", &ParseError{Line: 3, Err: &ValidationError{Field: "x"}}, "CSV001"},
		{"import busy", ErrImportInProgress, "IMP001"},
		{"file too large", fmt.Errorf("upload: %w", ErrFileTooLarge), "CSV002"},
		{"chat message", errors.New("chat message must not be empty"), "CHAT001"},
		{"connection refused", &StoreError{Op: "ping", Err: errors.New("dial tcp: connection refused")}, "DB001"},
		{"connection reset", errors.New("read: connection reset by peer"), "DB002"},
		{"deadline", &StoreError{Op: "list", Err: context.DeadlineExceeded}, "DB003"},
		{"deadlock", errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"), "DB004"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && (got.Message == "" || got.Action == "") {
				t.Errorf("MapError() = %+v, want message and action", got)
			}
		})
	}
}

func TestMapError_CaseInsensitive(t *testing.T) {
	if got := MapError(errors.New("CONNECTION REFUSED")).Code; got != "DB001" {
		t.Errorf("code = %q, want DB001", got)
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(ErrNotFound)
	if !strings.Contains(got, "Claim not found") || !strings.Contains(got, "(Code: CLM001)") {
		t.Errorf("FormatUserError() = %q", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrConflict, true},
		{errors.New("connection refused"), true},
		{errors.New("segfault in the flux capacitor"), false},
	}

	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
