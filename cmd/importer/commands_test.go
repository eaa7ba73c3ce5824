package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/claims/internal/core"
)

const testCSV = `policy_id,claim_id,customer_age,customer_gender,customer_state,vehicle_make,vehicle_model,vehicle_year,claim_date,claim_type,claim_amount,deductible,claim_status,annual_premium,is_fraud
POL1,CLM1,35,M,CA,Toyota,Sedan,2020,2024-01-15 10:30:00.000000,Collision,5000.00,1000,Approved,1200.00,False
POL2,CLM2,41,F,NY,Honda,Civic,2018,2024-01-16 11:00:00.000000,Theft,3000.00,500,Denied,900.00,True
POL3,CLM3,29,M,TX,Ford,F-150,2021,2024-01-17 09:45:00.000000,Collision,750.50,250,Open,1100.00,false
`

func runImporter(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claims.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCommand(t *testing.T) {
	path := writeCSV(t, testCSV)

	out, err := runImporter(t, "load", path, "--batch-size", "2", "--conflict-key", "claim_id")
	if err != nil {
		t.Fatalf("load error = %v", err)
	}
	if !strings.Contains(out, "Imported 3 of 3 claims from claims.csv in 2 batches") {
		t.Errorf("output = %q", out)
	}
}

func TestLoadCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    func(t *testing.T) []string
		wantErr string
	}{
		{
			name:    "missing argument",
			args:    func(*testing.T) []string { return []string{"load"} },
			wantErr: "accepts 1 arg",
		},
		{
			name: "malformed row",
			args: func(t *testing.T) []string {
				return []string{"load", writeCSV(t, strings.Replace(testCSV, "5000.00", "lots", 1))}
			},
			wantErr: "(Code: CSV001)",
		},
		{
			name: "unknown conflict key",
			args: func(t *testing.T) []string {
				return []string{"load", writeCSV(t, testCSV), "--conflict-key", "vin"}
			},
			wantErr: "vin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runImporter(t, tt.args(t)...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     string
		wantCode bool
	}{
		{"mapped", &core.ParseError{Line: 3, Column: "claim_amount", Err: errors.New("bad")}, "(Code: CSV001)", true},
		{"unmapped", errors.New("disk on fire"), "load claims.csv: disk on fire", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loadError("claims.csv", tt.err)
			if !errors.Is(err, tt.err) {
				t.Errorf("loadError() does not wrap %v", tt.err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("loadError() = %q, want it to contain %q", err, tt.want)
			}
			if got := strings.Contains(err.Error(), "Code:"); got != tt.wantCode {
				t.Errorf("loadError() has code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestCountCommand(t *testing.T) {
	out, err := runImporter(t, "count")
	if err != nil {
		t.Fatalf("count error = %v", err)
	}
	if out != "0 claims\n" {
		t.Errorf("output = %q", out)
	}
}
