// Package coalesce implements a single-slot, rate-limited request queue.
//
// A Queue holds at most one pending coordinate. Enqueue overwrites it, and
// Check dispatches it once at least MinInterval has passed since the previous
// dispatch. A Queue is not safe for concurrent use; the session loop owns it.
package coalesce

import (
	"time"

	"github.com/hightemp/mapcode/internal/geo"
)

// DefaultMinInterval is the minimum time between two dispatches.
const DefaultMinInterval = time.Second

// Queue coalesces coordinate requests for one remote service.
type Queue struct {
	minInterval time.Duration
	now         func() time.Time
	dispatch    func(geo.Coordinate)

	pending  *geo.Coordinate
	lastSent *geo.Coordinate
	lastTime time.Time
	waiting  bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

// New creates a queue that calls dispatch for each coordinate it sends.
// A non-positive minInterval selects DefaultMinInterval.
func New(minInterval time.Duration, dispatch func(geo.Coordinate), opts ...Option) *Queue {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	q := &Queue{
		minInterval: minInterval,
		now:         time.Now,
		dispatch:    dispatch,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue stores c, replacing any coordinate not yet sent, and runs Check.
func (q *Queue) Enqueue(c geo.Coordinate) bool {
	q.pending = &c
	return q.Check()
}

// Check dispatches the pending coordinate if the rate limit allows it and
// reports whether a dispatch happened. A pending coordinate equal to the last
// one sent is dropped.
func (q *Queue) Check() bool {
	if q.pending == nil {
		return false
	}
	if q.lastSent != nil && q.pending.Equal(*q.lastSent) {
		q.pending = nil
		return false
	}
	// A different coordinate is pending, so returning to the last sent one
	// later must produce a new request.
	q.lastSent = nil

	q.waiting = true
	now := q.now()
	if !q.lastTime.IsZero() && now.Sub(q.lastTime) < q.minInterval {
		return false
	}

	c := *q.pending
	q.pending = nil
	q.lastSent = &c
	q.lastTime = now
	q.dispatch(c)
	return true
}

// Restore puts c back after a failed request so the next Check retries it.
// A newer pending coordinate is kept.
func (q *Queue) Restore(c geo.Coordinate) {
	q.lastSent = nil
	if q.pending == nil {
		q.pending = &c
	}
	q.waiting = true
}

// Force makes the next Check send the pending coordinate even if it equals
// the last one sent.
func (q *Queue) Force() {
	q.lastSent = nil
}

// Done marks the outstanding request as answered.
func (q *Queue) Done() {
	if q.pending == nil {
		q.waiting = false
	}
}

// Pending returns the queued coordinate, if any.
func (q *Queue) Pending() (geo.Coordinate, bool) {
	if q.pending == nil {
		return geo.Coordinate{}, false
	}
	return *q.pending, true
}

// Waiting reports whether a request is queued or in flight.
func (q *Queue) Waiting() bool {
	return q.waiting
}
