package scheduler

import (
	"math"
	"time"
)

// Deadline reports how much of the current slice remains.
type Deadline interface {
	TimeRemaining() time.Duration
}

// Unbounded is a Deadline that never runs out.
var Unbounded Deadline = unbounded{}

type unbounded struct{}

func (unbounded) TimeRemaining() time.Duration { return math.MaxInt64 }

// TimeDeadline expires at a fixed wall-clock instant.
type TimeDeadline struct {
	end time.Time
	now func() time.Time
}

// NewDeadline returns a Deadline that expires budget from now.
func NewDeadline(budget time.Duration) *TimeDeadline {
	return &TimeDeadline{end: time.Now().Add(budget), now: time.Now}
}

// DeadlineAt returns a Deadline that expires at end, measured with now.
// A nil now uses time.Now.
func DeadlineAt(end time.Time, now func() time.Time) *TimeDeadline {
	if now == nil {
		now = time.Now
	}
	return &TimeDeadline{end: end, now: now}
}

// TimeRemaining returns the time left before the deadline, or zero.
func (d *TimeDeadline) TimeRemaining() time.Duration {
	left := d.end.Sub(d.now())
	if left < 0 {
		return 0
	}
	return left
}

// UnitDeadline measures its budget in checks instead of time. The first n
// calls to TimeRemaining report an hour left; later calls report zero.
// A worker that checks after every unit therefore performs n+1 units.
type UnitDeadline struct {
	left int
}

// NewUnitDeadline returns a deadline that allows n checks.
func NewUnitDeadline(n int) *UnitDeadline {
	return &UnitDeadline{left: n}
}

// TimeRemaining consumes one check.
func (d *UnitDeadline) TimeRemaining() time.Duration {
	if d.left <= 0 {
		return 0
	}
	d.left--
	return time.Hour
}
