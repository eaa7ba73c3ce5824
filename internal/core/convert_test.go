package core

import (
	"testing"
	"time"
)

func TestParseCSVTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-01-15 10:30:00.123456", time.Date(2024, 1, 15, 10, 30, 0, 123456000, time.UTC), false},
		{" 2024-01-15 10:30:00.5 ", time.Date(2024, 1, 15, 10, 30, 0, 500000000, time.UTC), false},
		{"2024-01-15 10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), false},
		{"2024-01-15", time.Time{}, true},
		{"15/01/2024 10:30", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCSVTimestamp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCSVTimestamp(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseCSVTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-01-15T10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), false},
		{"2024-01-15T10:30:00.25", time.Date(2024, 1, 15, 10, 30, 0, 250000000, time.UTC), false},
		{"2024-01-15T10:30:00Z", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), false},
		{"2024-01-15T12:30:00+02:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), false},
		{"2024-01-15 10:30:00.000001", time.Date(2024, 1, 15, 10, 30, 0, 1000, time.UTC), false},
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"yesterday", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestamp(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if !tt.wantErr && got.Location() != time.UTC {
				t.Errorf("ParseTimestamp(%q) location = %v, want UTC", tt.in, got.Location())
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"42", 42, false},
		{" 7 ", 7, false},
		{"-3", -3, false},
		{"4.5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseInt(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseInt(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"5000", "5000.00", false},
		{"1234.567", "1234.57", false},
		{" 0.1 ", "0.10", false},
		{"-12.5", "-12.50", false},
		{"$100", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMoney(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMoney(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got.StringFixed(2) != tt.want {
			t.Errorf("ParseMoney(%q) = %s, want %s", tt.in, got.StringFixed(2), tt.want)
		}
	}
}

func TestParseFraudFlag(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"true", true},
		{"True", true},
		{"TRUE", true},
		{" true ", true},
		{"false", false},
		{"1", false},
		{"yes", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ParseFraudFlag(tt.in); got != tt.want {
			t.Errorf("ParseFraudFlag(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
