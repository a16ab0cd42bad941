package domain

import "time"

// windowAnchorHour is the UTC hour every accumulation window ends on.
// MERGE/CPTEC daily totals run 12Z to 12Z rather than midnight to midnight
// so that a full South American rainfall day lands in one window.
const windowAnchorHour = 12

// WindowHours is the number of hourly grids that make up one window.
const WindowHours = 24

// TimeWindow is one daily accumulation period: exactly 24 hours, ending on
// a 12:00 UTC boundary. Immutable; derived purely from the requested range.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Hours returns the 24 hourly instants [End-23h .. End] whose grids sum
// into this window's daily total, in chronological order.
func (w TimeWindow) Hours() []time.Time {
	hours := make([]time.Time, WindowHours)
	for i := range hours {
		hours[i] = w.End.Add(-time.Duration(WindowHours-1-i) * time.Hour)
	}
	return hours
}

// EnumerateWindows lists the daily accumulation windows covered by
// [start, end], in ascending order. The first window ends at the smallest
// 12:00 UTC instant >= start and the last at the largest 12:00 UTC instant
// <= end. A range that spans no boundary yields an empty slice.
// Returns ErrInvalidRange when start is after end.
func EnumerateWindows(start, end time.Time) ([]TimeWindow, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}

	first := nextAnchor(start.UTC())
	last := prevAnchor(end.UTC())
	if first.After(last) {
		return nil, nil
	}

	n := int(last.Sub(first)/(WindowHours*time.Hour)) + 1
	windows := make([]TimeWindow, 0, n)
	for e := first; !e.After(last); e = e.Add(WindowHours * time.Hour) {
		windows = append(windows, TimeWindow{
			Start: e.Add(-WindowHours * time.Hour),
			End:   e,
		})
	}
	return windows, nil
}

// nextAnchor returns the smallest 12:00 UTC instant >= t.
func nextAnchor(t time.Time) time.Time {
	anchor := time.Date(t.Year(), t.Month(), t.Day(), windowAnchorHour, 0, 0, 0, time.UTC)
	if anchor.Before(t) {
		anchor = anchor.AddDate(0, 0, 1)
	}
	return anchor
}

// prevAnchor returns the largest 12:00 UTC instant <= t.
func prevAnchor(t time.Time) time.Time {
	anchor := time.Date(t.Year(), t.Month(), t.Day(), windowAnchorHour, 0, 0, 0, time.UTC)
	if anchor.After(t) {
		anchor = anchor.AddDate(0, 0, -1)
	}
	return anchor
}
