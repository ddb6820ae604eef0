package possession

import (
	"log/slog"

	"github.com/albapepper/audl-stats/internal/eventtype"
)

// Tracer observes a parse. Calls happen synchronously on the parsing
// goroutine.
type Tracer interface {
	EventConsumed(side Side, index int, ev RawEvent, cat eventtype.Category)
	PointSealed(p Point)
	PlayerUnresolved(side Side, key int)
	ScoreTimesExhausted(pointSequence int)
}

// NopTracer discards everything.
type NopTracer struct{}

func (NopTracer) EventConsumed(Side, int, RawEvent, eventtype.Category) {}
func (NopTracer) PointSealed(Point)                                     {}
func (NopTracer) PlayerUnresolved(Side, int)                            {}
func (NopTracer) ScoreTimesExhausted(int)                               {}

// SlogTracer writes trace records at debug level; a roster miss or a short
// score-time list is a warning.
type SlogTracer struct {
	logger *slog.Logger
}

// NewSlogTracer wraps logger. A nil logger uses slog.Default().
func NewSlogTracer(logger *slog.Logger) *SlogTracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogTracer{logger: logger}
}

func (t *SlogTracer) EventConsumed(side Side, index int, ev RawEvent, cat eventtype.Category) {
	t.logger.Debug("Event consumed",
		"side", side, "index", index,
		"type", eventtype.Code(ev.Type), "category", cat)
}

func (t *SlogTracer) PointSealed(p Point) {
	t.logger.Debug("Point sealed",
		"sequence", p.Sequence, "quarter", p.Quarter,
		"start", p.StartTime, "end", p.EndTime, "events", len(p.Events))
}

func (t *SlogTracer) PlayerUnresolved(side Side, key int) {
	t.logger.Warn("Line player not in roster", "side", side, "key", key)
}

func (t *SlogTracer) ScoreTimesExhausted(pointSequence int) {
	t.logger.Warn("Score times exhausted before point sealed", "sequence", pointSequence)
}
