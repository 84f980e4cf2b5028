package domain

import "time"

// Phase is the time-derived view of a booking. It is recomputed on every
// read so clock skew between request and render resolves itself on refresh.
type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseOngoing  Phase = "ongoing"
	PhasePast     Phase = "past"
)

func ParsePhase(s string) (Phase, bool) {
	switch Phase(s) {
	case PhaseUpcoming, PhaseOngoing, PhasePast:
		return Phase(s), true
	default:
		return "", false
	}
}

// Classify partitions a booking by its in/out times relative to now.
// A booking whose in-time equals now exactly is ongoing, not upcoming.
func Classify(now, inTime time.Time, outTime *time.Time) Phase {
	if inTime.After(now) {
		return PhaseUpcoming
	}
	if outTime != nil && outTime.Before(now) {
		return PhasePast
	}
	return PhaseOngoing
}
