package timeline

import "time"

// DateColumn is one bucket of the timeline header.
type DateColumn struct {
	Start time.Time `json:"start"` // anchor date, first day of the bucket
	End   time.Time `json:"end"`   // last day of the bucket
	Label string    `json:"label"`
	Left  float64   `json:"left"`
	Width float64   `json:"width"`

	IsToday   bool `json:"is_today"`
	IsWeekend bool `json:"is_weekend"` // day zoom only

	// WeekendLeft and WeekendWidth locate the Saturday/Sunday band inside
	// a week column. Both are zero at day and month zoom.
	WeekendLeft  float64 `json:"weekend_left,omitempty"`
	WeekendWidth float64 `json:"weekend_width,omitempty"`
}

// BuildDateColumns returns one column per bucket intersecting the window,
// inclusive, starting with the bucket that contains w.Start. A zero or
// negative columnWidth uses the zoom's default.
func BuildDateColumns(w Window, z Zoom, columnWidth float64, now time.Time) []DateColumn {
	if columnWidth <= 0 {
		columnWidth = z.DefaultColumnWidth()
	}
	today := Day(now)

	var cols []DateColumn
	for b := z.Truncate(w.Start); !b.After(w.End); b = z.Next(b) {
		last := z.Next(b).AddDate(0, 0, -1)
		col := DateColumn{
			Start:   b,
			End:     last,
			Label:   z.Label(b),
			Left:    float64(len(cols)) * columnWidth,
			Width:   columnWidth,
			IsToday: !today.Before(b) && !today.After(last),
		}
		switch z {
		case ZoomDay:
			col.IsWeekend = isWeekend(b)
		case ZoomWeek:
			// Weeks start on Monday, so Saturday is offset 5.
			col.WeekendLeft = col.Left + columnWidth*5/7
			col.WeekendWidth = columnWidth * 2 / 7
		}
		cols = append(cols, col)
	}
	return cols
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
