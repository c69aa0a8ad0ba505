package utils

import (
	"testing"
	"time"
)

func TestParseRFC3339NormalisesToUTC(t *testing.T) {
	got, err := ParseRFC3339("2024-03-01T12:30:00+02:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseRFC3339Empty(t *testing.T) {
	if _, err := ParseRFC3339(""); err == nil {
		t.Fatalf("expected error for empty value")
	}
}

