package models

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxCommentLength = 256

var (
	ErrCommentEmpty   = errors.New("comment text is empty")
	ErrCommentTooLong = errors.New("comment text exceeds 256 characters")
)

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID    primitive.ObjectID `bson:"postId" json:"postId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	UserName  string             `bson:"userName" json:"userName"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
}

// ValidateCommentText trims the text and enforces the length contract.
// The limit counts runes, not bytes, so emoji-heavy comments are not
// penalized for their UTF-8 encoding.
func ValidateCommentText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrCommentEmpty
	}
	if len([]rune(trimmed)) > MaxCommentLength {
		return "", ErrCommentTooLong
	}
	return trimmed, nil
}
