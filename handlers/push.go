package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tallyfest/config"
	"tallyfest/database"
)

// InitPush fills in VAPID keys when the environment does not provide them.
// Generated keys only live for the process, so browsers must re-subscribe
// after a restart; production sets them explicitly.
func InitPush(cfg *config.Config) {
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		return
	}

	publicKey, privateKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		log.Printf("Failed to generate VAPID keys: %v", err)
		return
	}

	cfg.VAPIDPublicKey = publicKey
	cfg.VAPIDPrivateKey = privateKey

	log.Println("Generated new VAPID keys - for production, set these as environment variables:")
	log.Printf("  VAPID_PUBLIC_KEY: %s", publicKey)
	log.Printf("  VAPID_PRIVATE_KEY: %s", privateKey)
}

func GetVapidPublicKey(c *gin.Context) {
	if cfg.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "VAPID public key not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"publicKey": cfg.VAPIDPublicKey})
}

func SubscribePush(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
	}

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

	subscription := webpush.Subscription{
		Endpoint: req.Endpoint,
		Keys: webpush.Keys{
			P256dh: req.Keys.P256dh,
			Auth:   req.Keys.Auth,
		},
	}

	// ID stays zero so omitempty keeps _id out of the $set; upsert inserts
	// generate their own.
	pushSub := PushSubscription{
		UserID: userID,
		Sub:    subscription,
	}

	// Upsert: update if exists, insert if not
	_, err := database.PushSubs.UpdateOne(
		ctx,
		bson.M{"userId": userID},
		bson.M{"$set": pushSub},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Printf("Failed to save subscription: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Push subscription saved successfully",
		"userId":  userID.Hex(),
	})
}

// notifyUser delivers a push notification to one user, best effort. Called
// from handlers in a goroutine so a slow push service never delays the
// HTTP response.
func notifyUser(userID primitive.ObjectID, title, body string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in push notification: %v", r)
		}
	}()

	if cfg == nil || cfg.VAPIDPrivateKey == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var sub PushSubscription
	err := database.PushSubs.FindOne(ctx, bson.M{"userId": userID}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return // No subscription
	}
	if err != nil {
		log.Printf("Failed to find subscription for user %s: %v", userID.Hex(), err)
		return
	}

	payload := map[string]interface{}{
		"title": title,
		"body":  body,
		"data": map[string]interface{}{
			"timestamp": time.Now().Unix(),
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal push payload: %v", err)
		return
	}

	resp, err := webpush.SendNotification(payloadBytes, &sub.Sub, &webpush.Options{
		Subscriber:      cfg.VAPIDSubject,
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		TTL:             30,
	})
	if err != nil {
		log.Printf("Failed to send push notification to user %s: %v", userID.Hex(), err)

		// If subscription is invalid (410), delete it
		if resp != nil && resp.StatusCode == http.StatusGone {
			if _, delErr := database.PushSubs.DeleteOne(ctx, bson.M{"userId": userID}); delErr != nil {
				log.Printf("Failed to delete expired subscription: %v", delErr)
			}
		}
		return
	}
	resp.Body.Close()
}
