package handlers

import (
	"context"
	"net/http"
	"time"

	"travelship-backend/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserHandler struct {
	userCollection *mongo.Collection
}

type UpdateProfileRequest struct {
	FirstName  string `json:"first_name,omitempty" binding:"omitempty,min=2,max=50"`
	LastName   string `json:"last_name,omitempty" binding:"omitempty,min=2,max=50"`
	Phone      string `json:"phone,omitempty" binding:"omitempty,min=10,max=15"`
	UserType   string `json:"user_type,omitempty" binding:"omitempty,oneof=shipper sender"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

func NewUserHandler(userCollection *mongo.Collection) *UserHandler {
	return &UserHandler{
		userCollection: userCollection,
	}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := c.Get("user_id")
	userIDObj := userID.(primitive.ObjectID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := h.userCollection.FindOne(ctx, bson.M{"_id": userIDObj}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Database error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID, _ := c.Get("user_id")
	userIDObj := userID.(primitive.ObjectID)

	updateData := bson.M{
		"updated_at": time.Now(),
	}

	if req.FirstName != "" {
		updateData["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		updateData["last_name"] = req.LastName
	}
	if req.Phone != "" {
		updateData["phone"] = req.Phone
	}
	if req.UserType != "" {
		updateData["user_type"] = req.UserType
	}
	if req.City != "" {
		updateData["city"] = req.City
	}
	if req.Country != "" {
		updateData["country"] = req.Country
	}
	if req.ProfilePic != "" {
		updateData["profile_pic"] = req.ProfilePic
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.userCollection.UpdateOne(ctx, bson.M{"_id": userIDObj}, bson.M{
		"$set": updateData,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating profile",
		})
		return
	}

	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
	})
}

// GetPublicProfile отдаёт публичную часть профиля: имя, город,
// рейтинг и статус верификации
func (h *UserHandler) GetPublicProfile(c *gin.Context) {
	userID := c.Param("id")
	userIDObj, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = h.userCollection.FindOne(ctx, bson.M{"_id": userIDObj}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Database error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID,
		"first_name":  user.FirstName,
		"last_name":   user.LastName,
		"city":        user.City,
		"country":     user.Country,
		"user_type":   user.UserType,
		"stats":       user.Stats,
		"is_verified": user.IsVerified,
		"profile_pic": user.ProfilePic,
		"created_at":  user.CreatedAt,
	})
}
