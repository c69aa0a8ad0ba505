package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time. Injected so incident ids and hypothesis
// timestamps are reproducible in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// IDGenerator produces incident identifiers.
type IDGenerator interface {
	IncidentID(tag string, at time.Time) string
}

// IncidentIDLayout is the timestamp portion of an incident id.
const IncidentIDLayout = "20060102_150405"

// RandomSuffixIDs builds ids of the form "{tag}_{YYYYMMDD}_{HHMMSS}_{4 hex}".
type RandomSuffixIDs struct{}

// IncidentID implements IDGenerator.
func (RandomSuffixIDs) IncidentID(tag string, at time.Time) string {
	return FormatIncidentID(tag, at, uuid.NewString()[:4])
}

// FormatIncidentID renders the public incident id format.
func FormatIncidentID(tag string, at time.Time, suffix string) string {
	return fmt.Sprintf("%s_%s_%s", tag, at.UTC().Format(IncidentIDLayout), suffix)
}
