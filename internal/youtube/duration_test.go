package youtube

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"PT45S", 45 * time.Second},
		{"PT1M30S", 90 * time.Second},
		{"PT2M", 2 * time.Minute},
		{"PT1H", time.Hour},
		{"PT1H2M10S", time.Hour + 2*time.Minute + 10*time.Second},
		{"P1DT3M", 24*time.Hour + 3*time.Minute},
		{"P0D", 0},
		{"PT1.5S", 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if err != nil {
			t.Errorf("ParseDuration(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDurationHoursCounted(t *testing.T) {
	// One hour and five seconds must not be mistaken for a short video.
	got, err := ParseDuration("PT1H5S")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got < time.Minute {
		t.Errorf("expected more than a minute, got %v", got)
	}
}

func TestParseDurationInvalid(t *testing.T) {
	for _, in := range []string{"", "P", "PT", "1M", "PT5", "PTM", "P1M", "PT1D", "P1Y2M", "PT1X"} {
		if _, err := ParseDuration(in); err == nil {
			t.Errorf("ParseDuration(%q): expected error", in)
		}
	}
}
