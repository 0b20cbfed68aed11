package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc returning UTC.
func Now() time.Time { return NowFunc().UTC() }

// Today returns the current UTC calendar day formatted as YYYY-MM-DD.
func Today() string { return Day(Now()) }

// Day formats t as a UTC calendar day.
func Day(t time.Time) string { return t.UTC().Format("2006-01-02") }

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool { return Day(a) == Day(b) }
