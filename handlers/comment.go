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
	"go.mongodb.org/mongo-driver/mongo/options"

	"tallyfest/database"
	"tallyfest/models"
)

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

func CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	text, err := models.ValidateCommentText(req.Text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := viewerID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	post, ok := loadPost(c, ctx)
	if !ok {
		return
	}

	var user models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	userName := user.Name
	if userName == "" {
		userName = user.Username
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		PostID:    post.ID,
		UserID:    userID,
		UserName:  userName,
		Text:      text,
		CreatedAt: time.Now().Unix(),
	}

	if _, err := database.Comments.InsertOne(ctx, comment); err != nil {
		log.Printf("CreateComment error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	if wsManager != nil {
		wsManager.BroadcastCommentAdded(post.ContestID.Hex(), map[string]interface{}{
			"postId":    post.ID.Hex(),
			"contestId": post.ContestID.Hex(),
			"commentId": comment.ID.Hex(),
			"userName":  userName,
			"text":      text,
		})
	}

	if post.UserID != userID {
		go notifyUser(post.UserID, "New comment", userName+" commented on your post")
	}

	c.JSON(http.StatusCreated, comment)
}

// ListComments returns a post's comments newest first, which is the order
// the feed shows them in.
func ListComments(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := database.Comments.Find(ctx, bson.M{"postId": postID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode comments"})
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}

	c.JSON(http.StatusOK, comments)
}

func DeleteComment(c *gin.Context) {
	commentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	userID, ok := viewerID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var comment models.Comment
	if err := database.Comments.FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if comment.UserID != userID && !c.GetBool("isAdmin") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the author or an admin can delete a comment"})
		return
	}

	if _, err := database.Comments.DeleteOne(ctx, bson.M{"_id": commentID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
