package domain_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/precip-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testWindow is the middle window of the documented example range.
var testWindow = domain.TimeWindow{
	Start: time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC),
}

// testGrid builds a small 3x4 grid over southeastern Brazil with every cell
// set to fill.
func testGrid(hour time.Time, fill float64) *domain.HourlyGrid {
	g := &domain.HourlyGrid{
		Grid: domain.Grid{
			CRS:       domain.GeographicCRS,
			OriginLat: -24.0,
			OriginLon: -47.0,
			CellSize:  0.1,
			Rows:      3,
			Cols:      4,
			Values:    make([]float64, 12),
		},
		Hour: hour,
	}
	for i := range g.Values {
		g.Values[i] = fill
	}
	return g
}

// mockSource serves canned grids keyed by hour; hours not in the map are
// absent. Hours in errHours fail with a synthetic fetch error.
type mockSource struct {
	grids    map[time.Time]*domain.HourlyGrid
	errHours map[time.Time]bool
}

func (m *mockSource) Fetch(_ context.Context, hour time.Time) (*domain.HourlyGrid, bool, error) {
	if m.errHours[hour] {
		return nil, false, errors.New("synthetic fetch failure")
	}
	g, ok := m.grids[hour]
	return g, ok, nil
}

// fullSource returns a source with all 24 hours present, each cell holding
// the hour's 1-based index times 0.1 mm.
func fullSource(w domain.TimeWindow) *mockSource {
	src := &mockSource{grids: make(map[time.Time]*domain.HourlyGrid)}
	for i, hour := range w.Hours() {
		src.grids[hour] = testGrid(hour, float64(i+1)*0.1)
	}
	return src
}

func TestAccumulate_AllHoursPresent(t *testing.T) {
	src := fullSource(testWindow)

	daily, err := domain.Accumulate(context.Background(), testWindow, src, slog.Default())
	require.NoError(t, err)

	assert.True(t, daily.Complete)
	assert.Empty(t, daily.MissingHours)
	require.Len(t, daily.Values, 12)

	// 0.1 + 0.2 + ... + 2.4 = 30.0 in every cell.
	for i, v := range daily.Values {
		assert.InDelta(t, 30.0, v, 1e-9, "cell %d", i)
	}
}

func TestAccumulate_OneHourMissing(t *testing.T) {
	src := fullSource(testWindow)
	missing := testWindow.Hours()[5]
	delete(src.grids, missing)

	daily, err := domain.Accumulate(context.Background(), testWindow, src, slog.Default())
	require.NoError(t, err)

	assert.False(t, daily.Complete)
	assert.Equal(t, []time.Time{missing}, daily.MissingHours)

	// Remaining 23 hours still sum; hour 6 contributed 0.6 mm per cell.
	for i, v := range daily.Values {
		assert.InDelta(t, 30.0-0.6, v, 1e-9, "cell %d", i)
	}
}

func TestAccumulate_FetchErrorDegradesToMissing(t *testing.T) {
	src := fullSource(testWindow)
	failing := testWindow.Hours()[0]
	src.errHours = map[time.Time]bool{failing: true}

	daily, err := domain.Accumulate(context.Background(), testWindow, src, slog.Default())
	require.NoError(t, err)

	assert.False(t, daily.Complete)
	assert.Equal(t, []time.Time{failing}, daily.MissingHours)
}

func TestAccumulate_AllHoursAbsent(t *testing.T) {
	src := &mockSource{grids: map[time.Time]*domain.HourlyGrid{}}

	daily, err := domain.Accumulate(context.Background(), testWindow, src, slog.Default())
	require.NoError(t, err)

	assert.False(t, daily.Complete)
	assert.Len(t, daily.MissingHours, 24)
	assert.Empty(t, daily.Values)
	assert.Equal(t, domain.GeographicCRS, daily.CRS)
}

func TestAccumulate_ShapeMismatch(t *testing.T) {
	src := fullSource(testWindow)
	odd := testWindow.Hours()[10]
	bad := testGrid(odd, 1.0)
	bad.Cols = 5
	bad.Values = make([]float64, 15)
	src.grids[odd] = bad

	_, err := domain.Accumulate(context.Background(), testWindow, src, slog.Default())

	var mismatch *domain.ShapeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, odd, mismatch.Hour)
	assert.Equal(t, testWindow, mismatch.Window)
}

func TestAccumulate_Deterministic(t *testing.T) {
	src := fullSource(testWindow)

	first, err := domain.Accumulate(context.Background(), testWindow, src, slog.Default())
	require.NoError(t, err)
	second, err := domain.Accumulate(context.Background(), testWindow, src, slog.Default())
	require.NoError(t, err)

	// Bit-identical, not merely close: summation runs in hour order even
	// though fetches are concurrent.
	assert.Equal(t, first.Values, second.Values)
}
