package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tallyfest/phase"
)

var (
	ErrContestTitleRequired = errors.New("contest title is required")
	ErrContestDatesInverted = errors.New("endDate must not be before startDate")
	ErrReviewBeforeEnd      = errors.New("endOfReviewDate must not be before endDate")
)

type Contest struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description,omitempty" json:"description"`
	Unit            string             `bson:"unit" json:"unit"` // what a post's count measures, e.g. "laps"
	StartDate       int64              `bson:"startDate" json:"startDate"`
	EndDate         int64              `bson:"endDate" json:"endDate"`
	EndOfReviewDate *int64             `bson:"endOfReviewDate,omitempty" json:"endOfReviewDate,omitempty"`
	CreatedBy       primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt       int64              `bson:"createdAt" json:"createdAt"`
}

// Validate rejects malformed contests before they reach the store. A contest
// whose dates are out of order has no defined phase, so it must never be saved.
func (c *Contest) Validate() error {
	if c.Title == "" {
		return ErrContestTitleRequired
	}
	if c.EndDate < c.StartDate {
		return ErrContestDatesInverted
	}
	if c.EndOfReviewDate != nil && *c.EndOfReviewDate < c.EndDate {
		return ErrReviewBeforeEnd
	}
	return nil
}

// Window converts the stored unix timestamps into the schedule the phase
// package classifies against.
func (c *Contest) Window() phase.Window {
	w := phase.Window{
		Start: time.Unix(c.StartDate, 0),
		End:   time.Unix(c.EndDate, 0),
	}
	if c.EndOfReviewDate != nil {
		t := time.Unix(*c.EndOfReviewDate, 0)
		w.EndOfReview = &t
	}
	return w
}
