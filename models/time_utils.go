package models

import (
	"fmt"
	"strings"
	"time"
)

var intervalNames = []struct {
	name string
	d    time.Duration
}{
	{"1min", time.Minute},
	{"5min", 5 * time.Minute},
	{"15min", 15 * time.Minute},
	{"30min", 30 * time.Minute},
	{"45min", 45 * time.Minute},
	{"1h", time.Hour},
	{"2h", 2 * time.Hour},
	{"4h", 4 * time.Hour},
	{"8h", 8 * time.Hour},
	{"1day", 24 * time.Hour},
}

// ParseInterval converts "5min", "1h", "1day" (or any time.ParseDuration
// string) to a duration
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, in := range intervalNames {
		if in.name == s {
			return in.d, nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("unsupported interval %q", s)
	}
	return d, nil
}

// IntervalName is the inverse of ParseInterval for the named intervals
func IntervalName(d time.Duration) (string, bool) {
	for _, in := range intervalNames {
		if in.d == d {
			return in.name, true
		}
	}
	return "", false
}

// CandlesForWindow estimates how many bars of the given interval fit between
// start and end, with a 10% buffer
func CandlesForWindow(interval time.Duration, start, end time.Time) int {
	if interval <= 0 || !end.After(start) {
		return 0
	}
	n := float64(end.Sub(start)) / float64(interval)
	return int(n*1.1) + 1
}
