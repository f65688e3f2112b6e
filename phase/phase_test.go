package phase

import (
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func window(start, end string, endOfReview string) Window {
	w := Window{Start: ts(start), End: ts(end)}
	if endOfReview != "" {
		t := ts(endOfReview)
		w.EndOfReview = &t
	}
	return w
}

func TestClassify(t *testing.T) {
	// One hour of posting on July 4th, then a day of review.
	reviewed := window("2024-07-04T12:00:00Z", "2024-07-04T13:00:00Z", "2024-07-05T13:00:00Z")
	// Same posting window, no review period.
	plain := window("2024-07-04T12:00:00Z", "2024-07-04T13:00:00Z", "")

	tests := []struct {
		name string
		w    Window
		now  string
		want Phase
	}{
		{"before start", reviewed, "2024-07-04T11:59:00Z", Upcoming},
		{"start instant is already active", reviewed, "2024-07-04T12:00:00Z", Active},
		{"mid window", reviewed, "2024-07-04T12:30:00Z", Active},
		{"end instant enters review", reviewed, "2024-07-04T13:00:00Z", Review},
		{"during review", reviewed, "2024-07-04T18:00:00Z", Review},
		{"review end instant completes", reviewed, "2024-07-05T13:00:00Z", Completed},
		{"long after", reviewed, "2024-07-06T00:00:00Z", Completed},

		{"no review: before start", plain, "2024-07-04T11:00:00Z", Upcoming},
		{"no review: end instant completes directly", plain, "2024-07-04T13:00:00Z", Completed},
		{"no review: after end", plain, "2024-07-04T14:00:00Z", Completed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.w, ts(tt.now)); got != tt.want {
				t.Errorf("Classify(%s) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestClassifyNeverReturnsReviewWithoutReviewPeriod(t *testing.T) {
	w := window("2024-07-04T12:00:00Z", "2024-07-04T13:00:00Z", "")

	// Sweep across the whole schedule in one-minute steps.
	for now := ts("2024-07-04T11:00:00Z"); now.Before(ts("2024-07-04T15:00:00Z")); now = now.Add(time.Minute) {
		if got := Classify(w, now); got == Review {
			t.Fatalf("Classify(%v) returned review for a contest without a review period", now)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	w := window("2024-07-04T12:00:00Z", "2024-07-04T13:00:00Z", "2024-07-05T13:00:00Z")

	order := map[Phase]int{Upcoming: 0, Active: 1, Review: 2, Completed: 3}

	prev := Upcoming
	for now := ts("2024-07-04T11:00:00Z"); now.Before(ts("2024-07-05T14:00:00Z")); now = now.Add(time.Minute) {
		got := Classify(w, now)
		if order[got] < order[prev] {
			t.Fatalf("phase went backwards at %v: %v -> %v", now, prev, got)
		}
		prev = got
	}
}

func TestPredicatesPartitionPhases(t *testing.T) {
	w := window("2024-07-04T12:00:00Z", "2024-07-04T13:00:00Z", "2024-07-05T13:00:00Z")

	instants := map[Phase]string{
		Upcoming:  "2024-07-04T11:00:00Z",
		Active:    "2024-07-04T12:30:00Z",
		Review:    "2024-07-04T18:00:00Z",
		Completed: "2024-07-06T00:00:00Z",
	}

	for p, at := range instants {
		now := ts(at)
		if got := Classify(w, now); got != p {
			t.Fatalf("setup: Classify(%s) = %v, want %v", at, got, p)
		}

		wantCanPost := p == Active
		wantWinner := p == Review || p == Completed
		wantCountdown := p == Upcoming || p == Active

		if got := CanPost(w, now); got != wantCanPost {
			t.Errorf("CanPost in %v = %v, want %v", p, got, wantCanPost)
		}
		if got := ShouldShowWinner(w, now); got != wantWinner {
			t.Errorf("ShouldShowWinner in %v = %v, want %v", p, got, wantWinner)
		}
		if got := ShouldShowCountdown(w, now); got != wantCountdown {
			t.Errorf("ShouldShowCountdown in %v = %v, want %v", p, got, wantCountdown)
		}

		// Winner and countdown are complementary; posting implies countdown.
		if ShouldShowWinner(w, now) == ShouldShowCountdown(w, now) {
			t.Errorf("winner and countdown both %v in phase %v", ShouldShowWinner(w, now), p)
		}
	}
}

func TestZeroLengthReviewPeriod(t *testing.T) {
	// endOfReview == end: the review interval is empty, so end goes
	// straight to completed.
	w := window("2024-07-04T12:00:00Z", "2024-07-04T13:00:00Z", "2024-07-04T13:00:00Z")

	if got := Classify(w, ts("2024-07-04T13:00:00Z")); got != Completed {
		t.Errorf("Classify(end) with empty review interval = %v, want %v", got, Completed)
	}
}

func TestZeroLengthContest(t *testing.T) {
	// start == end: the active interval is empty.
	w := window("2024-07-04T12:00:00Z", "2024-07-04T12:00:00Z", "")

	if got := Classify(w, ts("2024-07-04T12:00:00Z")); got != Completed {
		t.Errorf("Classify(start) with empty active interval = %v, want %v", got, Completed)
	}
	if got := Classify(w, ts("2024-07-04T11:59:59Z")); got != Upcoming {
		t.Errorf("Classify(just before) = %v, want %v", got, Upcoming)
	}
}
