package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tallyfest/database"
	"tallyfest/models"
	"tallyfest/phase"
	"tallyfest/reactions"
)

type CreatePostRequest struct {
	Count       *int   `json:"count" binding:"required"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

func CreatePost(c *gin.Context) {
	contestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID"})
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Count < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Count must not be negative"})
		return
	}

	userID, ok := viewerID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var contest models.Contest
	if err := database.Contests.FindOne(ctx, bson.M{"_id": contestID}).Decode(&contest); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contest not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// Entries are only accepted while the contest is running.
	now := time.Now()
	if !phase.CanPost(contest.Window(), now) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Contest is not accepting posts",
			"phase": phase.Classify(contest.Window(), now).String(),
		})
		return
	}

	post := models.ContestPost{
		ID:          primitive.NewObjectID(),
		ContestID:   contestID,
		UserID:      userID,
		Count:       *req.Count,
		Description: req.Description,
		Image:       req.Image,
		CreatedAt:   now.Unix(),
	}

	if _, err := database.Posts.InsertOne(ctx, post); err != nil {
		log.Printf("CreatePost error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	if wsManager != nil {
		wsManager.BroadcastNewPost(contestID.Hex(), map[string]interface{}{
			"postId":    post.ID.Hex(),
			"contestId": contestID.Hex(),
			"userId":    userID.Hex(),
			"count":     post.Count,
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"postId":  post.ID.Hex(),
	})
}

// postResponse shapes a post for the feed: author info joined in, reactions
// normalized through the legacy-upvote fold, and the viewer's own
// reaction/flag state precomputed for the UI.
func postResponse(post *models.ContestPost, user *models.User, viewer string) map[string]interface{} {
	normalized := reactions.Normalize(post)
	myReaction, _ := reactions.FindUserReaction(post, viewer)

	userMap := map[string]interface{}{
		"id":     post.UserID.Hex(),
		"name":   "Unknown User",
		"avatar": fallbackAvatar,
	}
	if user != nil {
		if user.Name != "" {
			userMap["name"] = user.Name
		} else if user.Username != "" {
			userMap["name"] = user.Username
		}
		if user.Avatar != "" {
			userMap["avatar"] = user.Avatar
		}
	}

	return map[string]interface{}{
		"id":          post.ID.Hex(),
		"contestId":   post.ContestID.Hex(),
		"count":       post.Count,
		"description": post.Description,
		"image":       post.Image,
		"createdAt":   post.CreatedAt,
		"reactions":   normalized,
		"fishyFlags":  post.FishyFlags,
		"myReaction":  myReaction,
		"hasFlagged":  reactions.HasFlagged(post, viewer),
		"isMine":      post.UserID.Hex() == viewer,
		"user":        userMap,
	}
}

func GetContestPosts(c *gin.Context) {
	contestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID"})
		return
	}

	viewer := c.GetString("userId")

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "contestId", Value: contestID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "userId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$user"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	cursor, err := database.Posts.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("GetContestPosts aggregate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	defer cursor.Close(ctx)

	var posts []struct {
		models.ContestPost `bson:",inline"`
		User               *models.User `bson:"user"`
	}
	if err := cursor.All(ctx, &posts); err != nil {
		log.Printf("GetContestPosts decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode posts"})
		return
	}

	response := make([]map[string]interface{}, len(posts))
	for i := range posts {
		response[i] = postResponse(&posts[i].ContestPost, posts[i].User, viewer)
	}

	c.JSON(http.StatusOK, response)
}

func GetMyPosts(c *gin.Context) {
	userID, ok := viewerID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "userId", Value: userID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "userId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$user"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	cursor, err := database.Posts.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("GetMyPosts aggregate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	defer cursor.Close(ctx)

	var posts []struct {
		models.ContestPost `bson:",inline"`
		User               *models.User `bson:"user"`
	}
	if err := cursor.All(ctx, &posts); err != nil {
		log.Printf("GetMyPosts decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode posts"})
		return
	}

	viewer := userID.Hex()
	response := make([]map[string]interface{}, len(posts))
	for i := range posts {
		response[i] = postResponse(&posts[i].ContestPost, posts[i].User, viewer)
	}

	c.JSON(http.StatusOK, response)
}

func DeletePost(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	userID, ok := viewerID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var post models.ContestPost
	if err := database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if post.UserID != userID && !c.GetBool("isAdmin") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the author or an admin can delete a post"})
		return
	}

	if _, err := database.Posts.DeleteOne(ctx, bson.M{"_id": postID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	// Comments hang off the post; drop them with it.
	if _, err := database.Comments.DeleteMany(ctx, bson.M{"postId": postID}); err != nil {
		log.Printf("DeletePost comment cleanup error: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}
