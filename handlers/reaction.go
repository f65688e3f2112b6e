package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tallyfest/database"
	"tallyfest/models"
	"tallyfest/reactions"
)

type ToggleReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

func loadPost(c *gin.Context, ctx context.Context) (*models.ContestPost, bool) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return nil, false
	}

	var post models.ContestPost
	if err := database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	return &post, true
}

func reactionError(c *gin.Context, err error) {
	switch err {
	case reactions.ErrSelfAction, reactions.ErrUnauthenticated:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reaction"})
	}
}

func ToggleReaction(c *gin.Context) {
	var req ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	viewer := c.GetString("userId")

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	post, ok := loadPost(c, ctx)
	if !ok {
		return
	}

	updated, err := reactions.ToggleReaction(post, viewer, req.Emoji)
	if err != nil {
		reactionError(c, err)
		return
	}

	// The toggled map already contains any folded legacy upvotes, so the
	// legacy field must go with this write or the fold would resurrect
	// removed reactions on the next read.
	update := bson.M{"$set": bson.M{"reactions": updated}}
	if len(post.Upvotes) > 0 {
		update["$unset"] = bson.M{"upvotes": ""}
	}

	if _, err := database.Posts.UpdateOne(ctx, bson.M{"_id": post.ID}, update); err != nil {
		log.Printf("ToggleReaction update error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reaction"})
		return
	}

	myReaction := ""
	for emoji, users := range updated {
		for _, id := range users {
			if id == viewer {
				myReaction = emoji
			}
		}
	}

	if wsManager != nil {
		wsManager.BroadcastReactionUpdate(post.ContestID.Hex(), map[string]interface{}{
			"postId":    post.ID.Hex(),
			"contestId": post.ContestID.Hex(),
			"reactions": updated,
		})
	}

	// Tell the author someone reacted, but not about un-reacting.
	if myReaction != "" {
		go notifyUser(post.UserID, "New reaction", "Someone reacted "+myReaction+" to your post")
	}

	c.JSON(http.StatusOK, gin.H{
		"reactions":  updated,
		"myReaction": myReaction,
	})
}

func ToggleFlag(c *gin.Context) {
	viewer := c.GetString("userId")

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	post, ok := loadPost(c, ctx)
	if !ok {
		return
	}

	updated, err := reactions.ToggleFlag(post, viewer)
	if err != nil {
		reactionError(c, err)
		return
	}

	if _, err := database.Posts.UpdateOne(ctx, bson.M{"_id": post.ID},
		bson.M{"$set": bson.M{"fishyFlags": updated}}); err != nil {
		log.Printf("ToggleFlag update error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update flag"})
		return
	}

	hasFlagged := false
	for _, id := range updated {
		if id == viewer {
			hasFlagged = true
		}
	}

	if wsManager != nil {
		wsManager.BroadcastReactionUpdate(post.ContestID.Hex(), map[string]interface{}{
			"postId":     post.ID.Hex(),
			"contestId":  post.ContestID.Hex(),
			"fishyFlags": updated,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"fishyFlags": updated,
		"hasFlagged": hasFlagged,
	})
}
