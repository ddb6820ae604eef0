package possession

import (
	"github.com/albapepper/audl-stats/internal/eventtype"
)

// Tracker turns the two team event streams of a game into sealed points.
// A Tracker holds no per-game state; each Track call starts fresh.
type Tracker struct {
	newIDs func() IDAllocator
	tracer Tracer
}

// NewTracker creates a tracker. newIDs is called once per Track call so
// concurrent parses never share an allocator; nil uses UUIDAllocator.
// A nil tracer discards trace output.
func NewTracker(newIDs func() IDAllocator, tracer Tracer) *Tracker {
	if newIDs == nil {
		newIDs = func() IDAllocator { return UUIDAllocator{} }
	}
	if tracer == nil {
		tracer = NopTracer{}
	}
	return &Tracker{newIDs: newIDs, tracer: tracer}
}

// Track parses one game with random ids and no tracing.
func Track(in Input) (*Result, error) {
	return NewTracker(nil, nil).Track(in)
}

// stream is a read cursor over one team's events.
type stream struct {
	events []RawEvent
	pos    int
}

func (s *stream) empty() bool {
	return s.pos >= len(s.events)
}

// peek returns the head event, or nil when the stream is exhausted.
func (s *stream) peek() *RawEvent {
	if s.empty() {
		return nil
	}
	return &s.events[s.pos]
}

func (s *stream) pop() (RawEvent, int) {
	i := s.pos
	s.pos++
	return s.events[i], i
}

// Track runs the merge. It either returns every point of the game or an
// error; there is no partial result. Errors are *eventtype.UnknownTypeError
// or *PointCountMismatchError.
func (t *Tracker) Track(in Input) (*Result, error) {
	streams := [2]*stream{
		Home: {events: in.HomeEvents},
		Away: {events: in.AwayEvents},
	}
	rosters := [2]RosterLookup{Home: in.HomeRoster, Away: in.AwayRoster}
	clock := newScoreClock(in.ScoreTimesHome, in.ScoreTimesAway)
	b := newBuilder(t.newIDs())

	side, err := openingSide(streams[Home].peek())
	if err != nil {
		return nil, err
	}

	for !streams[Home].empty() || !streams[Away].empty() {
		if streams[side].empty() {
			side = side.Other()
		}

		ev, idx := streams[side].pop()
		cat, err := eventtype.Classify(ev.Type)
		if err != nil {
			return nil, err
		}
		t.tracer.EventConsumed(side, idx, ev, cat)

		switch cat.Kind {
		case eventtype.KindPossessionStart, eventtype.KindSubstitution:
			sub := cat.Kind == eventtype.KindSubstitution
			for _, key := range ev.Line {
				playerID, ok := rosters[side].Resolve(key)
				if !ok {
					t.tracer.PlayerUnresolved(side, key)
					continue
				}
				b.appendPlayedPoint(PlayedPoint{PlayerID: playerID, Side: side, Substitution: sub})
			}

		case eventtype.KindPeriodEnd:
			b.nextQuarter()
			side = side.Other()

		case eventtype.KindPossessionChanging:
			b.appendEvent(domainEvent(ev, cat, side, rosters[side]))
			side = side.Other()

		default:
			b.appendEvent(domainEvent(ev, cat, side, rosters[side]))
		}

		homeEmpty, awayEmpty := streams[Home].empty(), streams[Away].empty()
		switch {
		case homeEmpty && awayEmpty:
		case homeEmpty:
			side = Away
		case awayEmpty:
			side = Home
		default:
			boundary, err := atPointBoundary(streams[Home].peek(), streams[Away].peek())
			if err != nil {
				return nil, err
			}
			if !boundary {
				continue
			}
			t.seal(b, clock)
			if side, err = openingSide(streams[Home].peek()); err != nil {
				return nil, err
			}
		}
	}

	if b.hasContent() {
		t.seal(b, clock)
	}

	res := b.result()
	if err := CheckPointCount(res.Points, in.HomeScore, in.AwayScore); err != nil {
		return nil, err
	}
	return res, nil
}

func (t *Tracker) seal(b *builder, clock *scoreClock) {
	end, ok := clock.next()
	if !ok {
		t.tracer.ScoreTimesExhausted(b.current.Sequence)
		end = b.current.StartTime
	}
	t.tracer.PointSealed(b.sealCurrent(end))
}

// openingSide decides whose stream is read first in a point: the home
// stream if home is about to pull (starts on defense), otherwise away.
// Used at the start of the game and after every seal.
func openingSide(homeHead *RawEvent) (Side, error) {
	if homeHead == nil {
		return Away, nil
	}
	cat, err := eventtype.Classify(homeHead.Type)
	if err != nil {
		return Away, err
	}
	if cat.Kind == eventtype.KindPossessionStart && cat.Role == eventtype.RoleDefense {
		return Home, nil
	}
	return Away, nil
}

// atPointBoundary reports whether both heads open a new point.
func atPointBoundary(home, away *RawEvent) (bool, error) {
	for _, head := range []*RawEvent{home, away} {
		cat, err := eventtype.Classify(head.Type)
		if err != nil {
			return false, err
		}
		if !cat.IsPossessionStart() {
			return false, nil
		}
	}
	return true, nil
}

func domainEvent(ev RawEvent, cat eventtype.Category, side Side, roster RosterLookup) Event {
	e := Event{
		Side:     side,
		Type:     eventtype.Code(ev.Type),
		Category: cat,
		X:        ev.X,
		Y:        ev.Y,
	}
	if ev.Player != nil {
		if id, ok := roster.Resolve(*ev.Player); ok {
			e.PlayerID = &id
		}
	}
	return e
}
