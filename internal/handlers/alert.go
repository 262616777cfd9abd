package handlers

import (
	"context"
	"net/http"
	"time"

	"travelship-backend/internal/models"
	"travelship-backend/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AlertHandler struct {
	alertCollection *mongo.Collection
}

type CreateAlertRequest struct {
	Type               string     `json:"type" binding:"required,oneof=sender shipper"`
	FromCity           string     `json:"from_city,omitempty"`
	FromCountry        string     `json:"from_country,omitempty"`
	ToCity             string     `json:"to_city,omitempty"`
	ToCountry          string     `json:"to_country,omitempty"`
	DateFrom           *time.Time `json:"date_from,omitempty"`
	DateTo             *time.Time `json:"date_to,omitempty"`
	MinWeight          *float64   `json:"min_weight,omitempty" binding:"omitempty,gte=0"`
	MaxWeight          *float64   `json:"max_weight,omitempty" binding:"omitempty,gte=0"`
	MinReward          *float64   `json:"min_reward,omitempty" binding:"omitempty,gte=0"`
	MaxReward          *float64   `json:"max_reward,omitempty" binding:"omitempty,gte=0"`
	NotificationMethod string     `json:"notification_method" binding:"required,oneof=email push both"`
}

type UpdateAlertRequest struct {
	FromCity           *string    `json:"from_city,omitempty"`
	FromCountry        *string    `json:"from_country,omitempty"`
	ToCity             *string    `json:"to_city,omitempty"`
	ToCountry          *string    `json:"to_country,omitempty"`
	DateFrom           *time.Time `json:"date_from,omitempty"`
	DateTo             *time.Time `json:"date_to,omitempty"`
	MinWeight          *float64   `json:"min_weight,omitempty" binding:"omitempty,gte=0"`
	MaxWeight          *float64   `json:"max_weight,omitempty" binding:"omitempty,gte=0"`
	MinReward          *float64   `json:"min_reward,omitempty" binding:"omitempty,gte=0"`
	MaxReward          *float64   `json:"max_reward,omitempty" binding:"omitempty,gte=0"`
	NotificationMethod string     `json:"notification_method,omitempty" binding:"omitempty,oneof=email push both"`
	IsActive           *bool      `json:"is_active,omitempty"`
}

func NewAlertHandler(alertCollection *mongo.Collection) *AlertHandler {
	return &AlertHandler{
		alertCollection: alertCollection,
	}
}

func (h *AlertHandler) CreateAlert(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID, _ := c.Get("user_id")
	userIDObj := userID.(primitive.ObjectID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Лимит активных алертов проверяется только при создании -
	// уже существующие алерты он не трогает
	activeCount, err := h.alertCollection.CountDocuments(ctx, bson.M{
		"user_id":   userIDObj,
		"is_active": true,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error checking alert limit",
		})
		return
	}

	if activeCount >= models.MaxActiveAlertsPerUser {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Active alert limit reached",
			"limit": models.MaxActiveAlertsPerUser,
		})
		return
	}

	now := time.Now()
	alert := models.Alert{
		UserID:             userIDObj,
		Type:               req.Type,
		FromCity:           req.FromCity,
		FromCountry:        req.FromCountry,
		ToCity:             req.ToCity,
		ToCountry:          req.ToCountry,
		DateFrom:           req.DateFrom,
		DateTo:             req.DateTo,
		MinWeight:          req.MinWeight,
		MaxWeight:          req.MaxWeight,
		MinReward:          req.MinReward,
		MaxReward:          req.MaxReward,
		IsActive:           true,
		NotificationMethod: req.NotificationMethod,
		MatchCount:         0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := validator.ValidateStruct(&alert); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	result, err := h.alertCollection.InsertOne(ctx, alert)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error creating alert",
		})
		return
	}

	alert.ID = result.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, alert)
}

func (h *AlertHandler) GetUserAlerts(c *gin.Context) {
	userID, _ := c.Get("user_id")
	userIDObj := userID.(primitive.ObjectID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := h.alertCollection.Find(ctx, bson.M{
		"user_id": userIDObj,
	}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching alerts",
		})
		return
	}
	defer cursor.Close(ctx)

	var alerts []models.Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding alerts",
		})
		return
	}

	c.JSON(http.StatusOK, alerts)
}

func (h *AlertHandler) UpdateAlert(c *gin.Context) {
	alertID := c.Param("id")
	alertIDObj, err := primitive.ObjectIDFromHex(alertID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid alert ID",
		})
		return
	}

	var req UpdateAlertRequest
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

	if req.FromCity != nil {
		updateData["from_city"] = *req.FromCity
	}
	if req.FromCountry != nil {
		updateData["from_country"] = *req.FromCountry
	}
	if req.ToCity != nil {
		updateData["to_city"] = *req.ToCity
	}
	if req.ToCountry != nil {
		updateData["to_country"] = *req.ToCountry
	}
	if req.DateFrom != nil {
		updateData["date_from"] = *req.DateFrom
	}
	if req.DateTo != nil {
		updateData["date_to"] = *req.DateTo
	}
	if req.MinWeight != nil {
		updateData["min_weight"] = *req.MinWeight
	}
	if req.MaxWeight != nil {
		updateData["max_weight"] = *req.MaxWeight
	}
	if req.MinReward != nil {
		updateData["min_reward"] = *req.MinReward
	}
	if req.MaxReward != nil {
		updateData["max_reward"] = *req.MaxReward
	}
	if req.NotificationMethod != "" {
		updateData["notification_method"] = req.NotificationMethod
	}
	if req.IsActive != nil {
		updateData["is_active"] = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.alertCollection.UpdateOne(ctx, bson.M{
		"_id":     alertIDObj,
		"user_id": userIDObj,
	}, bson.M{
		"$set": updateData,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating alert",
		})
		return
	}

	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Alert not found or you don't have permission to edit it",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Alert updated successfully",
	})
}

func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	alertID := c.Param("id")
	alertIDObj, err := primitive.ObjectIDFromHex(alertID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid alert ID",
		})
		return
	}

	userID, _ := c.Get("user_id")
	userIDObj := userID.(primitive.ObjectID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.alertCollection.DeleteOne(ctx, bson.M{
		"_id":     alertIDObj,
		"user_id": userIDObj,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error deleting alert",
		})
		return
	}

	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Alert not found or you don't have permission to delete it",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Alert deleted successfully",
	})
}
