package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"tallyfest/config"
	"tallyfest/database"
	"tallyfest/models"
)

// Google OAuth Config
var googleOAuthConfig *oauth2.Config

// InitGoogleOAuth builds the OAuth config from the injected settings.
// Without client credentials the Google routes answer 503.
func InitGoogleOAuth(cfg *config.Config) {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		log.Println("Google OAuth not configured - set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
		return
	}

	googleOAuthConfig = &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  "http://localhost:" + cfg.Port + "/api/google/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
	log.Println("Google OAuth configured successfully")
}

// Google user info structure
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

type GoogleAuthRequest struct {
	Credential string `json:"credential" binding:"required"`
}

// Generate username from email
func generateUsernameFromEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "user_" + primitive.NewObjectID().Hex()[:8]
	}
	local := strings.ToLower(strings.ReplaceAll(email[:at], ".", ""))
	return local + "_" + primitive.NewObjectID().Hex()[:4]
}

// GetGoogleAuthURL starts the traditional OAuth flow.
func GetGoogleAuthURL(c *gin.Context) {
	if googleOAuthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}

	// Generate state token for security
	state := primitive.NewObjectID().Hex()

	url := googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GoogleOAuthCallback finishes the traditional OAuth flow.
func GoogleOAuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code missing"})
		return
	}

	if googleOAuthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}

	ctx := context.Background()
	token, err := googleOAuthConfig.Exchange(ctx, code)
	if err != nil {
		log.Printf("Google OAuth token exchange failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to exchange authorization code"})
		return
	}

	// Get user info from Google
	client := googleOAuthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		log.Printf("Failed to get user info from Google: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user information"})
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read user information"})
		return
	}

	var googleUser GoogleUserInfo
	if err := json.Unmarshal(data, &googleUser); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse user information"})
		return
	}

	handleGoogleUser(c, googleUser)
}

// GoogleAuthWithCredential handles Google Identity Services sign-in, where
// the browser sends the credential JWT directly.
func GoogleAuthWithCredential(c *gin.Context) {
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, _, err := new(jwt.Parser).ParseUnverified(req.Credential, jwt.MapClaims{})
	if err != nil {
		log.Printf("Failed to parse Google credential: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Google credential"})
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Google credential"})
		return
	}

	googleUser := GoogleUserInfo{
		ID:      getStringClaim(claims, "sub"),
		Email:   getStringClaim(claims, "email"),
		Name:    getStringClaim(claims, "name"),
		Picture: getStringClaim(claims, "picture"),
	}

	if googleUser.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email not provided by Google"})
		return
	}

	handleGoogleUser(c, googleUser)
}

// Helper function to get string claim from JWT
func getStringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// Handle Google user authentication/registration
func handleGoogleUser(c *gin.Context, googleUser GoogleUserInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	isNewUser := false

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"email": googleUser.Email}).Decode(&user)

	if err == mongo.ErrNoDocuments {
		isNewUser = true
		user = createUserFromGoogle(googleUser)

		if _, err := database.Users.InsertOne(ctx, user); err != nil {
			log.Printf("Failed to insert Google user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user account"})
			return
		}

		log.Printf("New Google user created: %s (ID: %s)", googleUser.Email, user.ID.Hex())
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	} else {
		// Existing user - refresh last seen and fill in what Google knows
		updateData := bson.M{
			"$set": bson.M{
				"lastSeen":     time.Now().Unix(),
				"authProvider": "google",
			},
		}

		if user.GoogleID == nil && googleUser.ID != "" {
			updateData["$set"].(bson.M)["googleId"] = googleUser.ID
		}

		if (user.Avatar == "" || user.Avatar == fallbackAvatar) && googleUser.Picture != "" {
			updateData["$set"].(bson.M)["avatar"] = googleUser.Picture
			user.Avatar = googleUser.Picture
		}

		if _, err := database.Users.UpdateOne(ctx, bson.M{"_id": user.ID}, updateData); err != nil {
			log.Printf("Failed to update user last seen: %v", err)
		}
	}

	tokenString, err := issueToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     tokenString,
		"userId":    user.ID.Hex(),
		"email":     user.Email,
		"username":  user.Username,
		"avatar":    user.Avatar,
		"name":      user.Name,
		"isNewUser": isNewUser,
		"message":   "Authentication successful",
	})
}

// Create user from Google info
func createUserFromGoogle(googleUser GoogleUserInfo) models.User {
	username := generateUsernameFromEmail(googleUser.Email)

	avatar := googleUser.Picture
	if avatar == "" {
		avatar = fallbackAvatar
	}

	name := googleUser.Name
	if name == "" {
		if googleUser.GivenName != "" || googleUser.FamilyName != "" {
			name = strings.TrimSpace(googleUser.GivenName + " " + googleUser.FamilyName)
		} else {
			name = username
		}
	}

	return models.User{
		ID:           primitive.NewObjectID(),
		Email:        googleUser.Email,
		PasswordHash: nil, // Google users don't have password
		AuthProvider: "google",
		GoogleID:     &googleUser.ID,
		Username:     username,
		Name:         name,
		Avatar:       avatar,
		Bio:          "",
		CreatedAt:    time.Now().Unix(),
		LastSeen:     time.Now().Unix(),
	}
}
