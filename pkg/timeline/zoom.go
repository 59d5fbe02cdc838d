package timeline

import (
	"fmt"
	"strings"
	"time"
)

// Zoom is the timeline granularity.
type Zoom string

const (
	ZoomDay   Zoom = "day"
	ZoomWeek  Zoom = "week"
	ZoomMonth Zoom = "month"
)

// Zooms lists the supported zoom levels from finest to coarsest.
var Zooms = []Zoom{ZoomDay, ZoomWeek, ZoomMonth}

// Default column widths in pixels.
const (
	DefaultDayWidth   = 40.0
	DefaultWeekWidth  = 84.0
	DefaultMonthWidth = 120.0
)

// ParseZoom parses a zoom name case-insensitively.
func ParseZoom(s string) (Zoom, error) {
	z := Zoom(strings.ToLower(strings.TrimSpace(s)))
	if !z.Valid() {
		return "", fmt.Errorf("%w: %q (want day, week or month)", ErrInvalidZoom, s)
	}
	return z, nil
}

// Valid reports whether z is a known zoom level.
func (z Zoom) Valid() bool {
	switch z {
	case ZoomDay, ZoomWeek, ZoomMonth:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (z Zoom) String() string { return string(z) }

// DefaultColumnWidth returns the pixel width of one column at this zoom.
func (z Zoom) DefaultColumnWidth() float64 {
	switch z {
	case ZoomDay:
		return DefaultDayWidth
	case ZoomMonth:
		return DefaultMonthWidth
	default:
		return DefaultWeekWidth
	}
}

// LabelFormat returns the time layout used for column labels.
func (z Zoom) LabelFormat() string {
	switch z {
	case ZoomDay:
		return "Mon 2"
	case ZoomMonth:
		return "Jan 2006"
	default:
		return "Jan 2"
	}
}

// Label formats the column label for a bucket starting at t.
func (z Zoom) Label(t time.Time) string { return t.Format(z.LabelFormat()) }

// Truncate returns the start of the bucket containing day d.
// Weeks start on Monday.
func (z Zoom) Truncate(d time.Time) time.Time {
	d = Day(d)
	switch z {
	case ZoomWeek:
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case ZoomMonth:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

// Next returns the start of the bucket after the one starting at b.
func (z Zoom) Next(b time.Time) time.Time {
	switch z {
	case ZoomWeek:
		return b.AddDate(0, 0, 7)
	case ZoomMonth:
		return b.AddDate(0, 1, 0)
	default:
		return b.AddDate(0, 0, 1)
	}
}

// offset maps day d to pixels from the bucket starting at origin. The
// whole-bucket part lands on a column edge and the remainder is the share
// of the bucket elapsed before d.
func (z Zoom) offset(origin, d time.Time, columnWidth float64) float64 {
	d = Day(d)
	switch z {
	case ZoomWeek:
		return float64(daysBetween(origin, d)) * columnWidth / 7
	case ZoomMonth:
		months := (d.Year()-origin.Year())*12 + int(d.Month()-origin.Month())
		return float64(months)*columnWidth + float64(d.Day()-1)*columnWidth/float64(daysIn(d))
	default:
		return float64(daysBetween(origin, d)) * columnWidth
	}
}

func daysIn(d time.Time) int {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
