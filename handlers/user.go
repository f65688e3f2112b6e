package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tallyfest/database"
	"tallyfest/models"
)

type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Bio    string `json:"bio"`
	Avatar string `json:"avatar"`
}

func GetMyProfile(c *gin.Context) {
	userID, ok := viewerID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	// Touch last seen on the way out; losing this write is harmless.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()
		if _, err := database.Users.UpdateOne(ctx, bson.M{"_id": userID},
			bson.M{"$set": bson.M{"lastSeen": time.Now().Unix()}}); err != nil {
			log.Printf("GetMyProfile lastSeen update error: %v", err)
		}
	}()

	c.JSON(http.StatusOK, user)
}

func UpdateMyProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := viewerID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":     req.Name,
		"bio":      req.Bio,
		"avatar":   req.Avatar,
		"lastSeen": time.Now().Unix(),
	}}

	result, err := database.Users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		log.Printf("UpdateMyProfile error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

func GetUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		// Deleted accounts still own posts; give the UI something to render.
		c.JSON(http.StatusOK, gin.H{
			"id":     userID.Hex(),
			"name":   "Unknown User",
			"avatar": fallbackAvatar,
			"bio":    "",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     user.ID.Hex(),
		"name":   user.Name,
		"avatar": user.Avatar,
		"bio":    user.Bio,
	})
}

// UploadImage pushes a multipart image to Cloudinary and returns the hosted
// URL, which the client then attaches to a post.
func UploadImage(c *gin.Context) {
	userID, ok := viewerID(c)
	if !ok {
		return
	}

	if cfg.CloudinaryURL == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form data"})
		return
	}

	imageFile, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}
	defer imageFile.Close()

	cld, err := cloudinary.NewFromURL(cfg.CloudinaryURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cloudinary configuration error"})
		return
	}

	uploadParams := uploader.UploadParams{
		Folder:         "tallyfest/posts",
		PublicID:       userID.Hex() + "_" + time.Now().Format("20060102150405"),
		Transformation: "c_limit,w_1200,h_1200,q_auto",
	}

	uploadResult, err := cld.Upload.Upload(ctx, imageFile, uploadParams)
	if err != nil {
		log.Printf("UploadImage cloudinary error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": uploadResult.SecureURL})
}
