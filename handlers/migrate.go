package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"tallyfest/database"
	"tallyfest/models"
	"tallyfest/reactions"
)

// MigrateLegacyUpvotes rewrites every post that still carries the legacy
// upvotes list: the list is folded into reactions as 👍 and removed. The
// read-time fold in the reactions package keeps old documents rendering
// until this has run; running it again finds nothing to do.
func MigrateLegacyUpvotes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cursor, err := database.Posts.Find(ctx, bson.M{
		"upvotes": bson.M{"$exists": true, "$ne": bson.A{}},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch legacy posts"})
		return
	}
	defer cursor.Close(ctx)

	migrated := 0
	failed := 0

	for cursor.Next(ctx) {
		var post models.ContestPost
		if err := cursor.Decode(&post); err != nil {
			log.Printf("MigrateLegacyUpvotes decode error: %v", err)
			failed++
			continue
		}

		update := bson.M{
			"$set":   bson.M{"reactions": reactions.Normalize(&post)},
			"$unset": bson.M{"upvotes": ""},
		}

		if _, err := database.Posts.UpdateOne(ctx, bson.M{"_id": post.ID}, update); err != nil {
			log.Printf("MigrateLegacyUpvotes update error for post %s: %v", post.ID.Hex(), err)
			failed++
			continue
		}
		migrated++
	}

	if err := cursor.Err(); err != nil {
		log.Printf("MigrateLegacyUpvotes cursor error: %v", err)
	}

	log.Printf("Legacy upvote migration finished: %d migrated, %d failed", migrated, failed)

	c.JSON(http.StatusOK, gin.H{
		"message":  "Migration complete",
		"migrated": migrated,
		"failed":   failed,
	})
}
