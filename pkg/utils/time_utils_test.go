package utils

import (
	"testing"
	"time"
)

func TestMillisRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)

	millis := TimeToMillis(now)
	back := MillisToTime(millis)

	if !back.Equal(now) {
		t.Errorf("MillisToTime(TimeToMillis(%v)) = %v, want %v", now, back, now)
	}
}

func TestFormatAndParseTime(t *testing.T) {
	ts := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	formatted := FormatTime(ts)
	if formatted != "2025-06-15T10:30:00Z" {
		t.Errorf("FormatTime(%v) = %q, want %q", ts, formatted, "2025-06-15T10:30:00Z")
	}

	parsed, err := ParseTime(formatted)
	if err != nil {
		t.Fatalf("ParseTime(%q) returned error: %v", formatted, err)
	}
	if !parsed.Equal(ts) {
		t.Errorf("ParseTime(%q) = %v, want %v", formatted, parsed, ts)
	}
}

func TestParseTimeInvalid(t *testing.T) {
	if _, err := ParseTime("not-a-timestamp"); err == nil {
		t.Error("ParseTime should fail for a malformed string")
	}
}

func TestMillisAgo(t *testing.T) {
	before := GetCurrentTimeMillis()
	cutoff := MillisAgo(time.Hour)
	after := GetCurrentTimeMillis()

	hourMillis := int64(time.Hour / time.Millisecond)
	if cutoff < before-hourMillis || cutoff > after-hourMillis {
		t.Errorf("MillisAgo(1h) = %d, expected about %d", cutoff, before-hourMillis)
	}
}

func TestIsOlderThan(t *testing.T) {
	tests := []struct {
		name     string
		millis   int64
		duration time.Duration
		expected bool
	}{
		{
			name:     "Two hours ago is older than one hour",
			millis:   time.Now().Add(-2*time.Hour).UnixNano() / int64(time.Millisecond),
			duration: time.Hour,
			expected: true,
		},
		{
			name:     "Now is not older than one hour",
			millis:   GetCurrentTimeMillis(),
			duration: time.Hour,
			expected: false,
		},
		{
			name:     "Future time is never older",
			millis:   time.Now().Add(time.Hour).UnixNano() / int64(time.Millisecond),
			duration: time.Minute,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsOlderThan(tt.millis, tt.duration)
			if result != tt.expected {
				t.Errorf("IsOlderThan(%d, %v) = %v, want %v", tt.millis, tt.duration, result, tt.expected)
			}
		})
	}
}
