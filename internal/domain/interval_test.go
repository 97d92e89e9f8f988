package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseRefreshInterval(t *testing.T) {
	testCases := []struct {
		input       string
		expected    time.Duration
		expectError bool
	}{
		{"", 0, false},
		{"off", 0, false},
		{"OFF", 0, false},
		{"10s", 10 * time.Second, false},
		{"30s", 30 * time.Second, false},
		{" 60s ", 60 * time.Second, false},
		{"5s", 0, true},
		{"1m", 0, true},
		{"fast", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			ri, err := ParseRefreshInterval(tc.input)
			if tc.expectError {
				if !errors.Is(err, ErrInvalidInterval) {
					t.Errorf("expected ErrInvalidInterval, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ri.Every != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, ri.Every)
			}
			if ri.Enabled() != (tc.expected > 0) {
				t.Errorf("Enabled() mismatch for %q", tc.input)
			}
		})
	}
}
