package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type ContestPost struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ContestID   primitive.ObjectID `bson:"contestId" json:"contestId"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Count       int                `bson:"count" json:"count"`
	Description string             `bson:"description,omitempty" json:"description"`
	Image       string             `bson:"image,omitempty" json:"image"`
	// Reactions maps an emoji to the hex user ids who picked it. A user id
	// appears under at most one emoji at a time.
	Reactions  map[string][]string `bson:"reactions,omitempty" json:"reactions"`
	FishyFlags []string            `bson:"fishyFlags,omitempty" json:"fishyFlags"`
	// Upvotes predates the reactions map and only exists on old documents.
	// Read paths fold it into Reactions["👍"]; the admin migration removes it.
	Upvotes   []string `bson:"upvotes,omitempty" json:"-"`
	CreatedAt int64    `bson:"createdAt" json:"createdAt"`
	User      *User    `bson:"-" json:"user,omitempty"` // Populated in response only
}
