package reservation

import "github.com/google/uuid"

// FindConflict returns the first active reservation in snapshot on berth number
// whose stay overlaps candidate, skipping exclude. It returns nil when there is none.
//
// The result is only meaningful while the caller holds the berth's lock and the
// snapshot was read under it.
func FindConflict(number int, snapshot []*Reservation, candidate Interval, exclude uuid.UUID) *Reservation {
	for _, r := range snapshot {
		if r == nil || r.catwayNumber != number || !r.status.IsActive() {
			continue
		}
		if exclude != uuid.Nil && r.id == exclude {
			continue
		}
		if r.interval.Overlaps(candidate) {
			return r
		}
	}
	return nil
}

// HasConflict reports whether FindConflict finds anything.
func HasConflict(number int, snapshot []*Reservation, candidate Interval, exclude uuid.UUID) bool {
	return FindConflict(number, snapshot, candidate, exclude) != nil
}
