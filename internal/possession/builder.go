package possession

import "sort"

// builder accumulates the point currently being played and everything
// sealed before it.
type builder struct {
	ids IDAllocator

	quarter  int
	eventSeq int
	current  Point
	// currentPlayed counts played-point rows already attached to current.
	currentPlayed int

	points []Point
	played []PlayedPoint
}

func newBuilder(ids IDAllocator) *builder {
	b := &builder{ids: ids, quarter: 1}
	b.open(1, 0)
	return b
}

func (b *builder) open(sequence, startTime int) {
	b.current = Point{
		ID:        b.ids.NewID(),
		Sequence:  sequence,
		Quarter:   b.quarter,
		StartTime: startTime,
	}
	b.eventSeq = 0
	b.currentPlayed = 0
}

// appendEvent attaches e to the current point, assigning its id, owner and
// sequence number.
func (b *builder) appendEvent(e Event) {
	e.ID = b.ids.NewID()
	e.PointID = b.current.ID
	e.Sequence = b.eventSeq
	b.eventSeq++
	b.current.Events = append(b.current.Events, e)
}

// appendPlayedPoint attaches a roster-presence row to the current point.
func (b *builder) appendPlayedPoint(pp PlayedPoint) {
	pp.PointID = b.current.ID
	b.played = append(b.played, pp)
	b.currentPlayed++
}

func (b *builder) nextQuarter() {
	b.quarter++
}

// hasContent reports whether the current point has anything worth sealing.
func (b *builder) hasContent() bool {
	return len(b.current.Events) > 0 || b.currentPlayed > 0
}

// sealCurrent closes the current point at endTime and opens the next one
// starting where it ended.
func (b *builder) sealCurrent(endTime int) Point {
	sealed := b.current
	sealed.EndTime = endTime
	b.points = append(b.points, sealed)
	b.open(sealed.Sequence+1, endTime)
	return sealed
}

func (b *builder) result() *Result {
	return &Result{Points: b.points, PlayedPoints: b.played}
}

// --------------------------------------------------------------------------
// Score clock
// --------------------------------------------------------------------------

// scoreSentinel leads every per-team score-time list.
const scoreSentinel = 1

// scoreClock yields point end times from the merged score-time lists.
type scoreClock struct {
	times []int
	pos   int
}

func newScoreClock(home, away []int) *scoreClock {
	home = stripSentinel(home)
	away = stripSentinel(away)
	times := make([]int, 0, len(home)+len(away))
	times = append(times, home...)
	times = append(times, away...)
	sort.Ints(times)
	return &scoreClock{times: times}
}

func stripSentinel(times []int) []int {
	if len(times) > 0 && times[0] == scoreSentinel {
		return times[1:]
	}
	return times
}

// next returns the next end time, or false when the list is used up.
func (c *scoreClock) next() (int, bool) {
	if c.pos >= len(c.times) {
		return 0, false
	}
	t := c.times[c.pos]
	c.pos++
	return t, true
}
