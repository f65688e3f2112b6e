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
	"tallyfest/phase"
)

type ContestRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	Unit            string `json:"unit" binding:"required"`
	StartDate       int64  `json:"startDate" binding:"required"`
	EndDate         int64  `json:"endDate" binding:"required"`
	EndOfReviewDate *int64 `json:"endOfReviewDate"`
}

// phaseInfo derives the lifecycle fields every contest response carries.
func phaseInfo(contest *models.Contest, now time.Time) gin.H {
	w := contest.Window()
	return gin.H{
		"phase":               phase.Classify(w, now).String(),
		"canPost":             phase.CanPost(w, now),
		"shouldShowWinner":    phase.ShouldShowWinner(w, now),
		"shouldShowCountdown": phase.ShouldShowCountdown(w, now),
	}
}

func contestResponse(contest *models.Contest, now time.Time) gin.H {
	resp := gin.H{
		"id":          contest.ID.Hex(),
		"title":       contest.Title,
		"description": contest.Description,
		"unit":        contest.Unit,
		"startDate":   contest.StartDate,
		"endDate":     contest.EndDate,
		"createdBy":   contest.CreatedBy.Hex(),
		"createdAt":   contest.CreatedAt,
	}
	if contest.EndOfReviewDate != nil {
		resp["endOfReviewDate"] = *contest.EndOfReviewDate
	}
	for k, v := range phaseInfo(contest, now) {
		resp[k] = v
	}
	return resp
}

func CreateContest(c *gin.Context) {
	var req ContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := viewerID(c)
	if !ok {
		return
	}

	contest := models.Contest{
		ID:              primitive.NewObjectID(),
		Title:           req.Title,
		Description:     req.Description,
		Unit:            req.Unit,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		EndOfReviewDate: req.EndOfReviewDate,
		CreatedBy:       userID,
		CreatedAt:       time.Now().Unix(),
	}

	if err := contest.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if _, err := database.Contests.InsertOne(ctx, contest); err != nil {
		log.Printf("CreateContest error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contest"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Contest created successfully",
		"contestId": contest.ID.Hex(),
	})
}

func UpdateContest(c *gin.Context) {
	contestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID"})
		return
	}

	var req ContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
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

	contest.Title = req.Title
	contest.Description = req.Description
	contest.Unit = req.Unit
	contest.StartDate = req.StartDate
	contest.EndDate = req.EndDate
	contest.EndOfReviewDate = req.EndOfReviewDate

	if err := contest.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := bson.M{"$set": bson.M{
		"title":       contest.Title,
		"description": contest.Description,
		"unit":        contest.Unit,
		"startDate":   contest.StartDate,
		"endDate":     contest.EndDate,
	}}
	if contest.EndOfReviewDate != nil {
		update["$set"].(bson.M)["endOfReviewDate"] = *contest.EndOfReviewDate
	} else {
		update["$unset"] = bson.M{"endOfReviewDate": ""}
	}

	if _, err := database.Contests.UpdateOne(ctx, bson.M{"_id": contestID}, update); err != nil {
		log.Printf("UpdateContest error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update contest"})
		return
	}

	if wsManager != nil {
		wsManager.BroadcastContestUpdated(contestID.Hex(), map[string]interface{}{
			"contestId": contestID.Hex(),
			"startDate": contest.StartDate,
			"endDate":   contest.EndDate,
		})
	}

	c.JSON(http.StatusOK, contestResponse(&contest, time.Now()))
}

func DeleteContest(c *gin.Context) {
	contestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	result, err := database.Contests.DeleteOne(ctx, bson.M{"_id": contestID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contest"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contest not found"})
		return
	}

	// Posts and comments under the contest become unreachable; clean them up too.
	postCursor, err := database.Posts.Find(ctx, bson.M{"contestId": contestID})
	if err == nil {
		var posts []models.ContestPost
		if err := postCursor.All(ctx, &posts); err == nil {
			var postIDs []primitive.ObjectID
			for _, p := range posts {
				postIDs = append(postIDs, p.ID)
			}
			if len(postIDs) > 0 {
				if _, err := database.Comments.DeleteMany(ctx, bson.M{"postId": bson.M{"$in": postIDs}}); err != nil {
					log.Printf("DeleteContest comment cleanup error: %v", err)
				}
			}
		}
		if _, err := database.Posts.DeleteMany(ctx, bson.M{"contestId": contestID}); err != nil {
			log.Printf("DeleteContest post cleanup error: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contest deleted"})
}

func ListContests(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}})
	cursor, err := database.Contests.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch contests"})
		return
	}
	defer cursor.Close(ctx)

	var contests []models.Contest
	if err := cursor.All(ctx, &contests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode contests"})
		return
	}

	now := time.Now()
	response := make([]gin.H, len(contests))
	for i := range contests {
		response[i] = contestResponse(&contests[i], now)
	}

	c.JSON(http.StatusOK, response)
}

func GetContest(c *gin.Context) {
	contestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID"})
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

	c.JSON(http.StatusOK, contestResponse(&contest, time.Now()))
}

// GetLeaderboard sums the counts logged per user. The standings are always
// visible; the explicit winner entry only appears once the contest reaches
// review or completed, so nobody is crowned mid-race.
func GetLeaderboard(c *gin.Context) {
	contestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID"})
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

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "contestId", Value: contestID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$userId"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$count"}}},
			{Key: "posts", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "_id"},
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
		log.Printf("GetLeaderboard aggregate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute leaderboard"})
		return
	}
	defer cursor.Close(ctx)

	var rows []struct {
		UserID primitive.ObjectID `bson:"_id"`
		Total  int                `bson:"total"`
		Posts  int                `bson:"posts"`
		User   *models.User       `bson:"user"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		log.Printf("GetLeaderboard decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode leaderboard"})
		return
	}

	standings := make([]gin.H, len(rows))
	for i, row := range rows {
		entry := gin.H{
			"rank":   i + 1,
			"userId": row.UserID.Hex(),
			"total":  row.Total,
			"posts":  row.Posts,
			"name":   "Unknown User",
			"avatar": fallbackAvatar,
		}
		if row.User != nil {
			if row.User.Name != "" {
				entry["name"] = row.User.Name
			} else if row.User.Username != "" {
				entry["name"] = row.User.Username
			}
			if row.User.Avatar != "" {
				entry["avatar"] = row.User.Avatar
			}
		}
		standings[i] = entry
	}

	now := time.Now()
	response := gin.H{
		"contestId": contestID.Hex(),
		"unit":      contest.Unit,
		"standings": standings,
	}
	for k, v := range phaseInfo(&contest, now) {
		response[k] = v
	}

	if phase.ShouldShowWinner(contest.Window(), now) && len(standings) > 0 {
		response["winner"] = standings[0]
	}

	c.JSON(http.StatusOK, response)
}
