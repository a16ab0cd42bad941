package domain_test

import (
	"testing"
	"time"

	"github.com/couchcryptid/precip-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumerateWindows_ExampleRange(t *testing.T) {
	start := time.Date(2025, 1, 2, 23, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 5, 23, 0, 0, 0, time.UTC)

	windows, err := domain.EnumerateWindows(start, end)
	require.NoError(t, err)
	require.Len(t, windows, 3)

	wantEnds := []time.Time{
		time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC),
	}
	for i, w := range windows {
		assert.Equal(t, wantEnds[i], w.End, "window %d end", i)
		assert.Equal(t, wantEnds[i].Add(-24*time.Hour), w.Start, "window %d start", i)
	}
}

func TestEnumerateWindows_NoGapsNoOverlaps(t *testing.T) {
	start := time.Date(2024, 2, 27, 5, 30, 0, 0, time.UTC) // spans a leap day
	end := time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)

	windows, err := domain.EnumerateWindows(start, end)
	require.NoError(t, err)
	require.NotEmpty(t, windows)

	for i, w := range windows {
		assert.Equal(t, 24*time.Hour, w.End.Sub(w.Start), "window %d span", i)
		assert.Equal(t, 12, w.End.Hour(), "window %d anchor", i)
		assert.Equal(t, 0, w.End.Minute())
		if i > 0 {
			assert.Equal(t, windows[i-1].End, w.Start, "window %d continuity", i)
		}
	}
}

func TestEnumerateWindows_StartOnBoundary(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	windows, err := domain.EnumerateWindows(at, at)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, at, windows[0].End)
}

func TestEnumerateWindows_RangeSpansNoBoundary(t *testing.T) {
	start := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC)

	windows, err := domain.EnumerateWindows(start, end)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestEnumerateWindows_InvalidRange(t *testing.T) {
	start := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := domain.EnumerateWindows(start, end)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestEnumerateWindows_NonUTCInputs(t *testing.T) {
	sp := time.FixedZone("BRT", -3*60*60)
	start := time.Date(2025, 1, 2, 20, 0, 0, 0, sp) // 23:00 UTC
	end := time.Date(2025, 1, 5, 20, 0, 0, 0, sp)   // 23:00 UTC

	windows, err := domain.EnumerateWindows(start, end)
	require.NoError(t, err)
	require.Len(t, windows, 3)
	assert.Equal(t, time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC), windows[0].End)
}

func TestTimeWindowHours(t *testing.T) {
	w := domain.TimeWindow{
		Start: time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC),
	}

	hours := w.Hours()
	require.Len(t, hours, 24)
	assert.Equal(t, time.Date(2025, 1, 3, 13, 0, 0, 0, time.UTC), hours[0])
	assert.Equal(t, w.End, hours[23])
	for i := 1; i < len(hours); i++ {
		assert.Equal(t, time.Hour, hours[i].Sub(hours[i-1]))
	}
}
