// Package phase classifies a contest schedule into its lifecycle phase.
// Classification is a pure function of the schedule and the supplied clock
// instant: nothing is cached, so callers that need to observe a live
// transition simply call again.
package phase

import "time"

// Phase is the lifecycle stage of a contest.
type Phase string

const (
	Upcoming  Phase = "upcoming"  // before startDate
	Active    Phase = "active"    // posting window
	Review    Phase = "review"    // scores final, winner visible, disputes open
	Completed Phase = "completed" // everything closed
)

func (p Phase) String() string {
	return string(p)
}

// Window is a contest schedule. End must not be before Start, and
// EndOfReview, when set, must not be before End; the models package
// rejects anything else before it is stored.
type Window struct {
	Start       time.Time
	End         time.Time
	EndOfReview *time.Time // nil means the contest has no review period
}

// Classify maps the window and the given instant to a phase. Intervals are
// half-open: a boundary instant belongs to the later phase, so now == Start
// is already Active and now == End has left Active.
func Classify(w Window, now time.Time) Phase {
	if now.Before(w.Start) {
		return Upcoming
	}
	if now.Before(w.End) {
		return Active
	}
	if w.EndOfReview != nil && now.Before(*w.EndOfReview) {
		return Review
	}
	return Completed
}

// CanPost reports whether new posts are accepted, which is only during the
// active window.
func CanPost(w Window, now time.Time) bool {
	return Classify(w, now) == Active
}

// ShouldShowWinner reports whether the winner may be revealed.
func ShouldShowWinner(w Window, now time.Time) bool {
	p := Classify(w, now)
	return p == Review || p == Completed
}

// ShouldShowCountdown reports whether a countdown (to start, or to end) is
// still meaningful.
func ShouldShowCountdown(w Window, now time.Time) bool {
	p := Classify(w, now)
	return p == Upcoming || p == Active
}
