package possession

import (
	"errors"
	"fmt"

	"github.com/albapepper/audl-stats/internal/eventtype"
)

// ErrPointCountMismatch matches any *PointCountMismatchError via errors.Is.
var ErrPointCountMismatch = errors.New("point count mismatch")

// PointCountMismatchError reports a reconstruction whose point count
// disagrees with the final score.
type PointCountMismatchError struct {
	Expected int
	Actual   int
}

func (e *PointCountMismatchError) Error() string {
	return fmt.Sprintf("point count mismatch: expected %d points from final score, reconstructed %d", e.Expected, e.Actual)
}

// Is lets errors.Is match ErrPointCountMismatch.
func (e *PointCountMismatchError) Is(target error) bool {
	return target == ErrPointCountMismatch
}

// CheckPointCount verifies that one point was reconstructed per goal scored.
func CheckPointCount(points []Point, homeScore, awayScore int) error {
	expected := homeScore + awayScore
	if len(points) != expected {
		return &PointCountMismatchError{Expected: expected, Actual: len(points)}
	}
	return nil
}

// IsParseError reports whether err is a deterministic parse failure (bad
// event code or score disagreement) that will not go away on retry.
func IsParseError(err error) bool {
	return errors.Is(err, ErrPointCountMismatch) || errors.Is(err, eventtype.ErrUnknownType)
}
