package timeline

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr error
	}{
		{"2026-01-10", date(2026, 1, 10), nil},
		{"  2026-01-10 ", date(2026, 1, 10), nil},
		{"2026-01-10T23:30:00-05:00", date(2026, 1, 10), nil},
		{"2026-01-10T08:00:00Z", date(2026, 1, 10), nil},
		{"2026-01-10T08:00:00.123Z", date(2026, 1, 10), nil},
		{"2026-01-10T08:00:00", date(2026, 1, 10), nil},
		{"2026-01-10 08:00:00", date(2026, 1, 10), nil},
		{"2026/01/10", date(2026, 1, 10), nil},
		{"", time.Time{}, ErrNoDate},
		{"   ", time.Time{}, ErrNoDate},
		{"tomorrow", time.Time{}, ErrInvalidDate},
		{"2026-13-01", time.Time{}, ErrInvalidDate},
		{"10.01.2026", time.Time{}, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseDate(%q) err = %v, want %v", tt.in, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestZoomTruncate(t *testing.T) {
	// 2026-01-10 is a Saturday.
	tests := []struct {
		zoom Zoom
		in   time.Time
		want time.Time
	}{
		{ZoomDay, date(2026, 1, 10), date(2026, 1, 10)},
		{ZoomWeek, date(2026, 1, 10), date(2026, 1, 5)},
		{ZoomWeek, date(2026, 1, 11), date(2026, 1, 5)},
		{ZoomWeek, date(2026, 1, 12), date(2026, 1, 12)},
		{ZoomMonth, date(2026, 1, 10), date(2026, 1, 1)},
		{ZoomMonth, date(2026, 2, 28), date(2026, 2, 1)},
	}

	for _, tt := range tests {
		t.Run(string(tt.zoom)+"/"+tt.in.Format(time.DateOnly), func(t *testing.T) {
			if got := tt.zoom.Truncate(tt.in); !got.Equal(tt.want) {
				t.Errorf("Truncate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseZoom(t *testing.T) {
	for _, s := range []string{"day", "Week", " MONTH "} {
		if _, err := ParseZoom(s); err != nil {
			t.Errorf("ParseZoom(%q) = %v", s, err)
		}
	}
	if _, err := ParseZoom("year"); !errors.Is(err, ErrInvalidZoom) {
		t.Errorf("ParseZoom(year) err = %v, want ErrInvalidZoom", err)
	}
}

func TestZoomOffset(t *testing.T) {
	tests := []struct {
		zoom   Zoom
		origin time.Time
		d      time.Time
		width  float64
		want   float64
	}{
		{ZoomDay, date(2026, 1, 5), date(2026, 1, 8), 40, 120},
		{ZoomWeek, date(2026, 1, 5), date(2026, 1, 19), 84, 168},
		{ZoomWeek, date(2026, 1, 5), date(2026, 1, 13), 84, 96},
		{ZoomMonth, date(2026, 1, 1), date(2026, 2, 1), 120, 120},
		{ZoomMonth, date(2026, 1, 1), date(2026, 1, 1), 120, 0},
		{ZoomMonth, date(2025, 12, 1), date(2026, 1, 1), 120, 120},
		{ZoomMonth, date(2026, 2, 1), date(2026, 2, 15), 112, 56},
	}
	for _, tt := range tests {
		if got := tt.zoom.offset(tt.origin, tt.d, tt.width); got != tt.want {
			t.Errorf("%s.offset(%s, %s) = %v, want %v", tt.zoom,
				tt.origin.Format(time.DateOnly), tt.d.Format(time.DateOnly), got, tt.want)
		}
	}
}
