package timeline

import "time"

// TodayMarkerOffset returns the x offset of the "now" line: the middle of
// today's day within the grid. ok is false when today is outside the
// window and the marker should be hidden.
func TodayMarkerOffset(w Window, z Zoom, columnWidth float64, now time.Time) (offset float64, ok bool) {
	today := Day(now)
	if !w.Contains(today) {
		return 0, false
	}
	if columnWidth <= 0 {
		columnWidth = z.DefaultColumnWidth()
	}
	origin := z.Truncate(w.Start)
	left := xOf(origin, today, z, columnWidth)
	right := xOf(origin, today.AddDate(0, 0, 1), z, columnWidth)
	return (left + right) / 2, true
}
