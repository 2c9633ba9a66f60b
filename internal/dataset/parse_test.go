package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  time.Time
		valid bool
	}{
		{"excel serial", "45292", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"excel serial with time", "45292.5", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"iso date", "2024-03-31", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), true},
		{"iso datetime", "2024-03-31 08:30:00", time.Date(2024, 3, 31, 8, 30, 0, 0, time.UTC), true},
		{"day first", "15/01/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"day first short", "5/2/2024", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), true},
		{"compact", "20240115", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"padded", "  2024-01-02 ", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"blank", "", time.Time{}, false},
		{"text", "sin dato", time.Time{}, false},
		{"zero serial", "0", time.Time{}, false},
		{"negative", "-3", time.Time{}, false},
		{"impossible day", "31/02/2024", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{"1234.5", 1234.5, true},
		{"1,234", 1234, true},
		{"12,345,678.25", 12345678.25, true},
		{"-1,000", -1000, true},
		{"1,5", 0, false},
		{"12,75", 0, false},
		{"1.234,5", 0, false},
		{"1,23", 0, false},
		{"1234,567", 0, false},
		{",5", 0, false},
		{" 12 ", 12, true},
		{"-0.25", -0.25, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"   ", 0, false},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseNumber(tt.raw)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
