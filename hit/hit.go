// Package hit holds the running result of a closest-hit search.
package hit

import (
	"math"

	"row-major/whitted/vmath/vec3"
)

// Record is threaded through every Intersect call of one search.  Time only
// ever shrinks: a primitive may overwrite the record only with a strictly
// closer hit, so after visiting every primitive the record describes the
// closest one.
type Record struct {
	// Time is the ray parameter of the closest hit so far, +Inf before any hit.
	Time float64

	// Normal is the unit surface normal at the closest hit.  Meaningless
	// until Time is finite.
	Normal vec3.T
}

func NewRecord() Record {
	return Record{Time: math.Inf(1)}
}

func (r *Record) Hit() bool {
	return !math.IsInf(r.Time, 1)
}
