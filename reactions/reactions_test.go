package reactions

import (
	"reflect"
	"sort"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tallyfest/models"
)

func newPost(owner primitive.ObjectID) *models.ContestPost {
	return &models.ContestPost{
		ID:        primitive.NewObjectID(),
		ContestID: primitive.NewObjectID(),
		UserID:    owner,
		Count:     12,
		CreatedAt: 1720094400,
	}
}

func sorted(users []string) []string {
	out := append([]string(nil), users...)
	sort.Strings(out)
	return out
}

func TestNormalizeFoldsLegacyUpvotes(t *testing.T) {
	post := newPost(primitive.NewObjectID())
	post.Upvotes = []string{"u1", "u2"}

	got := Normalize(post)
	if !reflect.DeepEqual(sorted(got[ThumbsUp]), []string{"u1", "u2"}) {
		t.Errorf("Normalize folded upvotes into %v, want [u1 u2]", got[ThumbsUp])
	}

	// The source document is untouched: this is a read-time view, not a write.
	if post.Reactions != nil {
		t.Errorf("Normalize mutated post.Reactions: %v", post.Reactions)
	}
	if !reflect.DeepEqual(post.Upvotes, []string{"u1", "u2"}) {
		t.Errorf("Normalize mutated post.Upvotes: %v", post.Upvotes)
	}

	// Normalizing the same original document again yields the same view.
	again := Normalize(post)
	if !reflect.DeepEqual(again, got) {
		t.Errorf("second Normalize drifted: %v vs %v", again, got)
	}
}

func TestNormalizeKeepsExistingThumbsUp(t *testing.T) {
	post := newPost(primitive.NewObjectID())
	post.Reactions = map[string][]string{ThumbsUp: {"u3"}}
	post.Upvotes = []string{"u1", "u2"}

	got := Normalize(post)
	if !reflect.DeepEqual(got[ThumbsUp], []string{"u3"}) {
		t.Errorf("existing 👍 entry was overridden by legacy upvotes: %v", got[ThumbsUp])
	}
}

func TestNormalizeEmptyPost(t *testing.T) {
	got := Normalize(newPost(primitive.NewObjectID()))
	if len(got) != 0 {
		t.Errorf("Normalize of a bare post = %v, want empty map", got)
	}
}

func TestFindUserReaction(t *testing.T) {
	post := newPost(primitive.NewObjectID())
	post.Reactions = map[string][]string{"🔥": {"u1"}, "😂": {"u2", "u3"}}

	tests := []struct {
		viewer    string
		wantEmoji string
		wantFound bool
	}{
		{"u1", "🔥", true},
		{"u3", "😂", true},
		{"stranger", "", false},
	}
	for _, tt := range tests {
		emoji, found := FindUserReaction(post, tt.viewer)
		if emoji != tt.wantEmoji || found != tt.wantFound {
			t.Errorf("FindUserReaction(%q) = (%q, %v), want (%q, %v)",
				tt.viewer, emoji, found, tt.wantEmoji, tt.wantFound)
		}
	}
}

func TestFindUserReactionSeesLegacyUpvotes(t *testing.T) {
	post := newPost(primitive.NewObjectID())
	post.Upvotes = []string{"u1", "u2"}

	emoji, found := FindUserReaction(post, "u1")
	if !found || emoji != ThumbsUp {
		t.Errorf("FindUserReaction(u1) = (%q, %v), want (👍, true)", emoji, found)
	}
}

func TestToggleReactionSequence(t *testing.T) {
	post := newPost(primitive.NewObjectID())

	// add 🔥
	got, err := ToggleReaction(post, "viewer", "🔥")
	if err != nil {
		t.Fatalf("ToggleReaction add: %v", err)
	}
	if !reflect.DeepEqual(got["🔥"], []string{"viewer"}) {
		t.Fatalf("after add: %v", got)
	}

	// switch 🔥 -> 😂: never present under two emoji
	post.Reactions = got
	got, err = ToggleReaction(post, "viewer", "😂")
	if err != nil {
		t.Fatalf("ToggleReaction switch: %v", err)
	}
	if _, ok := got["🔥"]; ok {
		t.Errorf("viewer still under 🔥 after switching: %v", got)
	}
	if !reflect.DeepEqual(got["😂"], []string{"viewer"}) {
		t.Errorf("viewer not under 😂 after switching: %v", got)
	}

	// toggle 😂 off
	post.Reactions = got
	got, err = ToggleReaction(post, "viewer", "😂")
	if err != nil {
		t.Fatalf("ToggleReaction remove: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("after removing the only reaction: %v", got)
	}
}

func TestToggleReactionMutualExclusivity(t *testing.T) {
	post := newPost(primitive.NewObjectID())
	moves := []string{"🔥", "😂", "😂", "👍", "🔥", "🔥", "👍"}

	for i, emoji := range moves {
		got, err := ToggleReaction(post, "viewer", emoji)
		if err != nil {
			t.Fatalf("move %d (%s): %v", i, emoji, err)
		}
		post.Reactions = got

		seen := 0
		for _, users := range got {
			for _, id := range users {
				if id == "viewer" {
					seen++
				}
			}
		}
		if seen > 1 {
			t.Fatalf("after move %d (%s) viewer appears %d times: %v", i, emoji, seen, got)
		}
	}
}

func TestToggleReactionDoesNotDisturbOthers(t *testing.T) {
	post := newPost(primitive.NewObjectID())
	post.Reactions = map[string][]string{"🔥": {"a", "viewer", "b"}}

	got, err := ToggleReaction(post, "viewer", "🔥")
	if err != nil {
		t.Fatalf("ToggleReaction: %v", err)
	}
	if !reflect.DeepEqual(sorted(got["🔥"]), []string{"a", "b"}) {
		t.Errorf("other users disturbed: %v", got["🔥"])
	}
}

func TestToggleReactionOnLegacyPost(t *testing.T) {
	// Toggling 👍 off a post that only has legacy upvotes must work through
	// the read-time fold.
	post := newPost(primitive.NewObjectID())
	post.Upvotes = []string{"u1", "viewer"}

	got, err := ToggleReaction(post, "viewer", ThumbsUp)
	if err != nil {
		t.Fatalf("ToggleReaction: %v", err)
	}
	if !reflect.DeepEqual(got[ThumbsUp], []string{"u1"}) {
		t.Errorf("legacy upvote not removed through the fold: %v", got)
	}
}

func TestToggleReactionRejectsSelfAndAnonymous(t *testing.T) {
	owner := primitive.NewObjectID()
	post := newPost(owner)
	post.Reactions = map[string][]string{"🔥": {"u1"}}

	if _, err := ToggleReaction(post, owner.Hex(), "🔥"); err != ErrSelfAction {
		t.Errorf("self reaction: err = %v, want ErrSelfAction", err)
	}
	if _, err := ToggleReaction(post, "", "🔥"); err != ErrUnauthenticated {
		t.Errorf("anonymous reaction: err = %v, want ErrUnauthenticated", err)
	}

	// Rejection leaves the post as it was.
	if !reflect.DeepEqual(post.Reactions, map[string][]string{"🔥": {"u1"}}) {
		t.Errorf("rejected toggle modified the post: %v", post.Reactions)
	}
}

func TestToggleFlag(t *testing.T) {
	owner := primitive.NewObjectID()
	post := newPost(owner)

	got, err := ToggleFlag(post, "viewer")
	if err != nil {
		t.Fatalf("ToggleFlag add: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"viewer"}) {
		t.Fatalf("after flagging: %v", got)
	}

	post.FishyFlags = got
	got, err = ToggleFlag(post, "viewer")
	if err != nil {
		t.Fatalf("ToggleFlag remove: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("after unflagging: %v", got)
	}

	if _, err := ToggleFlag(post, owner.Hex()); err != ErrSelfAction {
		t.Errorf("self flag: err = %v, want ErrSelfAction", err)
	}
	if _, err := ToggleFlag(post, ""); err != ErrUnauthenticated {
		t.Errorf("anonymous flag: err = %v, want ErrUnauthenticated", err)
	}
}

func TestFlagIndependentOfReaction(t *testing.T) {
	post := newPost(primitive.NewObjectID())
	post.Reactions = map[string][]string{"🔥": {"viewer"}}
	post.FishyFlags = []string{"viewer"}

	// A user may both react and flag; toggling one leaves the other alone.
	flags, err := ToggleFlag(post, "viewer")
	if err != nil {
		t.Fatalf("ToggleFlag: %v", err)
	}
	if len(flags) != 0 {
		t.Errorf("flag not removed: %v", flags)
	}
	if emoji, found := FindUserReaction(post, "viewer"); !found || emoji != "🔥" {
		t.Errorf("reaction disturbed by flag toggle: (%q, %v)", emoji, found)
	}
	if !HasFlagged(post, "viewer") {
		t.Errorf("HasFlagged should still read the stored document")
	}
}
