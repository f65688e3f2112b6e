package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tallyfest/config"
	"tallyfest/handlers"
	"tallyfest/middleware"
)

func SetupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Tallyfest API is running",
			"time":    time.Now().Unix(),
		})
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public routes (no auth required)
	authLimit := middleware.RateLimitMiddleware(20, time.Minute)
	router.POST("/api/signup", authLimit, handlers.Signup)
	router.POST("/api/login", authLimit, handlers.Login)
	router.GET("/api/vapid-public-key", handlers.GetVapidPublicKey)

	// Google OAuth routes
	router.GET("/api/google/auth-url", handlers.GetGoogleAuthURL)
	router.GET("/api/google/callback", handlers.GoogleOAuthCallback)
	router.POST("/api/google-auth", authLimit, handlers.GoogleAuthWithCredential)

	// Protected routes group
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	// Profile
	protected.GET("/me", handlers.GetMyProfile)
	protected.PUT("/me", handlers.UpdateMyProfile)
	protected.GET("/user/:id", handlers.GetUser)
	protected.GET("/my/posts", handlers.GetMyPosts)

	// Contests
	protected.GET("/contests", handlers.ListContests)
	protected.GET("/contests/:id", handlers.GetContest)
	protected.GET("/contests/:id/leaderboard", handlers.GetLeaderboard)
	protected.GET("/contests/:id/posts", handlers.GetContestPosts)
	protected.POST("/contests/:id/posts", handlers.CreatePost)

	// Posts
	protected.DELETE("/posts/:id", handlers.DeletePost)
	protected.POST("/posts/:id/reactions", handlers.ToggleReaction)
	protected.POST("/posts/:id/flag", handlers.ToggleFlag)

	// Comments
	protected.GET("/posts/:id/comments", handlers.ListComments)
	protected.POST("/posts/:id/comments", handlers.CreateComment)
	protected.DELETE("/comments/:id", handlers.DeleteComment)

	// Image upload
	protected.POST("/upload-image", handlers.UploadImage)

	// Push subscriptions
	protected.POST("/subscribe", handlers.SubscribePush)

	// Admin routes: contest management and data migration
	admin := router.Group("/api/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnly())
	admin.POST("/contests", handlers.CreateContest)
	admin.PUT("/contests/:id", handlers.UpdateContest)
	admin.DELETE("/contests/:id", handlers.DeleteContest)
	admin.POST("/migrate-upvotes", handlers.MigrateLegacyUpvotes)

	// Add a catch-all for undefined API routes
	router.NoRoute(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
			c.JSON(404, gin.H{
				"error":   "Endpoint not found",
				"path":    c.Request.URL.Path,
				"message": "Check the API documentation for available endpoints",
			})
			return
		}
		c.Next()
	})

	return router
}
