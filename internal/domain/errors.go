package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned when a caller requests a range whose start is
// after its end. It is fatal and reported before any processing starts.
var ErrInvalidRange = errors.New("range start must not be after range end")

// ErrUnsupportedCRS is returned when a grid arrives in a coordinate
// reference system the extractor cannot align locations to.
var ErrUnsupportedCRS = errors.New("unsupported grid coordinate reference system")

// ShapeMismatchError reports spatial metadata disagreement between hourly
// grids within one window. It aborts only that window's row; the run
// continues with the row recorded as fully absent and incomplete.
type ShapeMismatchError struct {
	Window TimeWindow
	Hour   time.Time
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("grid shape mismatch at %s within window ending %s",
		e.Hour.Format(time.RFC3339), e.Window.End.Format(time.RFC3339))
}
