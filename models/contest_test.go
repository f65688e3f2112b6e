package models

import (
	"testing"
	"time"

	"tallyfest/phase"
)

func TestContestValidate(t *testing.T) {
	start := time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC).Unix()
	end := start + 3600
	review := end + 86400
	badReview := end - 1

	tests := []struct {
		name    string
		contest Contest
		wantErr error
	}{
		{"valid with review", Contest{Title: "Lap Counter", StartDate: start, EndDate: end, EndOfReviewDate: &review}, nil},
		{"valid without review", Contest{Title: "Lap Counter", StartDate: start, EndDate: end}, nil},
		{"valid zero length", Contest{Title: "Flash Contest", StartDate: start, EndDate: start}, nil},
		{"missing title", Contest{StartDate: start, EndDate: end}, ErrContestTitleRequired},
		{"end before start", Contest{Title: "Backwards", StartDate: end, EndDate: start}, ErrContestDatesInverted},
		{"review before end", Contest{Title: "Short Review", StartDate: start, EndDate: end, EndOfReviewDate: &badReview}, ErrReviewBeforeEnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.contest.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestContestWindow(t *testing.T) {
	start := time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	review := end.Add(24 * time.Hour)
	reviewUnix := review.Unix()

	c := Contest{
		Title:           "Lap Counter",
		StartDate:       start.Unix(),
		EndDate:         end.Unix(),
		EndOfReviewDate: &reviewUnix,
	}

	w := c.Window()
	if !w.Start.Equal(start) || !w.End.Equal(end) {
		t.Errorf("Window() = [%v, %v], want [%v, %v]", w.Start, w.End, start, end)
	}
	if w.EndOfReview == nil || !w.EndOfReview.Equal(review) {
		t.Errorf("Window().EndOfReview = %v, want %v", w.EndOfReview, review)
	}

	if got := phase.Classify(w, start.Add(30*time.Minute)); got != phase.Active {
		t.Errorf("Classify(mid window) = %v, want active", got)
	}

	c.EndOfReviewDate = nil
	if w := c.Window(); w.EndOfReview != nil {
		t.Errorf("Window() without review date = %v, want nil", w.EndOfReview)
	}
}
