// Package reactions computes reaction state for a contest post. Every
// function returns fresh values and never mutates the post it is given;
// persisting a result is the caller's job.
package reactions

import (
	"errors"

	"tallyfest/models"
)

// ThumbsUp is the reaction key that superseded the legacy upvotes list.
const ThumbsUp = "👍"

var (
	// ErrSelfAction is returned when a user reacts to or flags their own post.
	ErrSelfAction = errors.New("cannot react to your own post")
	// ErrUnauthenticated is returned when the viewer id is empty.
	ErrUnauthenticated = errors.New("authentication required")
)

// Normalize returns the post's reaction map with the legacy upvotes list
// folded in as 👍. Old documents carry upvotes instead of a reactions map;
// folding at read time keeps them rendering correctly until the admin
// migration rewrites them. If the document already has a 👍 entry the
// legacy list is ignored, so running this over an already-migrated or
// repeatedly-read document never changes the result.
func Normalize(post *models.ContestPost) map[string][]string {
	out := make(map[string][]string, len(post.Reactions))
	for emoji, users := range post.Reactions {
		out[emoji] = append([]string(nil), users...)
	}
	if len(post.Upvotes) > 0 {
		if _, ok := out[ThumbsUp]; !ok {
			out[ThumbsUp] = append([]string(nil), post.Upvotes...)
		}
	}
	return out
}

// FindUserReaction returns the emoji the viewer reacted with. A user sits
// under at most one emoji, so the first hit is the only hit.
func FindUserReaction(post *models.ContestPost, viewerID string) (string, bool) {
	for emoji, users := range Normalize(post) {
		for _, id := range users {
			if id == viewerID {
				return emoji, true
			}
		}
	}
	return "", false
}

// HasFlagged reports whether the viewer marked the post as fishy.
func HasFlagged(post *models.ContestPost, viewerID string) bool {
	for _, id := range post.FishyFlags {
		if id == viewerID {
			return true
		}
	}
	return false
}

// ToggleReaction returns the reaction map after the viewer picks emoji.
// Picking the emoji they already have removes it; picking a different one
// moves them, so a viewer is never counted under two emoji at once. The
// post's own author may not react and an empty viewer id is rejected.
func ToggleReaction(post *models.ContestPost, viewerID, emoji string) (map[string][]string, error) {
	if viewerID == "" {
		return nil, ErrUnauthenticated
	}
	if viewerID == post.UserID.Hex() {
		return nil, ErrSelfAction
	}

	current, _ := FindUserReaction(post, viewerID)

	out := Normalize(post)
	if current != "" {
		out[current] = remove(out[current], viewerID)
		if len(out[current]) == 0 {
			delete(out, current)
		}
	}
	if current != emoji {
		out[emoji] = append(out[emoji], viewerID)
	}
	return out, nil
}

// ToggleFlag returns the fishy-flag set after the viewer toggles it, under
// the same preconditions as ToggleReaction.
func ToggleFlag(post *models.ContestPost, viewerID string) ([]string, error) {
	if viewerID == "" {
		return nil, ErrUnauthenticated
	}
	if viewerID == post.UserID.Hex() {
		return nil, ErrSelfAction
	}

	if HasFlagged(post, viewerID) {
		return remove(append([]string(nil), post.FishyFlags...), viewerID), nil
	}
	return append(append([]string(nil), post.FishyFlags...), viewerID), nil
}

func remove(users []string, id string) []string {
	out := users[:0]
	for _, u := range users {
		if u != id {
			out = append(out, u)
		}
	}
	return out
}
