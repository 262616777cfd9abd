package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"travelship-backend/internal/models"
	"travelship-backend/internal/services"
	"travelship-backend/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TripHandler struct {
	tripCollection *mongo.Collection
	matchService   *services.MatchService
	alertMatcher   *services.AlertMatcherService
}

type CreateTripRequest struct {
	From        models.Location `json:"from"`
	To          models.Location `json:"to"`
	DateFrom    time.Time       `json:"date_from" binding:"required"`
	DateTo      time.Time       `json:"date_to" binding:"required"`
	AvailableKg float64         `json:"available_kg" binding:"required,gt=0"`
	PricePerKg  *float64        `json:"price_per_kg,omitempty" binding:"omitempty,gte=0"`
	Description string          `json:"description,omitempty" binding:"omitempty,max=2000"`
}

type UpdateTripRequest struct {
	DateFrom    *time.Time `json:"date_from,omitempty"`
	DateTo      *time.Time `json:"date_to,omitempty"`
	AvailableKg *float64   `json:"available_kg,omitempty" binding:"omitempty,gt=0"`
	PricePerKg  *float64   `json:"price_per_kg,omitempty" binding:"omitempty,gte=0"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status,omitempty" binding:"omitempty,oneof=active completed cancelled"`
}

type TripFilters struct {
	FromCity  string    `form:"from_city"`
	ToCity    string    `form:"to_city"`
	DateFrom  time.Time `form:"date_from"`
	DateTo    time.Time `form:"date_to"`
	MinKg     float64   `form:"min_kg"`
	Page      int       `form:"page"`
	Limit     int       `form:"limit"`
	SortBy    string    `form:"sort_by"`    // created_at, views, available_kg
	SortOrder string    `form:"sort_order"` // asc, desc
}

func NewTripHandler(tripCollection *mongo.Collection, matchService *services.MatchService, alertMatcher *services.AlertMatcherService) *TripHandler {
	return &TripHandler{
		tripCollection: tripCollection,
		matchService:   matchService,
		alertMatcher:   alertMatcher,
	}
}

func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if req.DateFrom.After(req.DateTo) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "date_from must not be after date_to",
		})
		return
	}

	userID, _ := c.Get("user_id")
	userIDObj := userID.(primitive.ObjectID)

	now := time.Now()
	trip := models.Trip{
		UserID:      userIDObj,
		From:        req.From,
		To:          req.To,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		AvailableKg: req.AvailableKg,
		PricePerKg:  req.PricePerKg,
		Description: req.Description,
		Status:      models.TripStatusActive,
		Views:       0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Поездка с пустым городом не должна попасть в выдачу матчера
	if err := validator.ValidateStruct(&trip); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.tripCollection.InsertOne(ctx, trip)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error creating trip",
		})
		return
	}

	trip.ID = result.InsertedID.(primitive.ObjectID)

	// Поездка записана - проверяем sender-алерты best-effort
	h.alertMatcher.CheckMatchingAlerts(ctx, &trip)

	c.JSON(http.StatusCreated, trip)
}

func (h *TripHandler) GetTrips(c *gin.Context) {
	var filters TripFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.Limit <= 0 || filters.Limit > 50 {
		filters.Limit = 20
	}
	if filters.SortBy == "" {
		filters.SortBy = "created_at"
	}
	if filters.SortOrder == "" {
		filters.SortOrder = "desc"
	}

	filter := bson.M{
		"status": models.TripStatusActive,
	}

	if filters.FromCity != "" {
		filter["from.city"] = filters.FromCity
	}
	if filters.ToCity != "" {
		filter["to.city"] = filters.ToCity
	}
	if filters.MinKg > 0 {
		filter["available_kg"] = bson.M{"$gte": filters.MinKg}
	}
	if !filters.DateFrom.IsZero() || !filters.DateTo.IsZero() {
		dateFilter := bson.M{}
		if !filters.DateFrom.IsZero() {
			dateFilter["$gte"] = filters.DateFrom
		}
		if !filters.DateTo.IsZero() {
			dateFilter["$lte"] = filters.DateTo
		}
		filter["date_from"] = dateFilter
	}

	sortOrder := 1
	if filters.SortOrder == "desc" {
		sortOrder = -1
	}

	skip := (filters.Page - 1) * filters.Limit
	opts := options.Find().
		SetLimit(int64(filters.Limit)).
		SetSkip(int64(skip)).
		SetSort(bson.D{{Key: filters.SortBy, Value: sortOrder}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := h.tripCollection.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching trips",
		})
		return
	}
	defer cursor.Close(ctx)

	var trips []models.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding trips",
		})
		return
	}

	totalCount, err := h.tripCollection.CountDocuments(ctx, filter)
	if err != nil {
		totalCount = 0
	}

	totalPages := (totalCount + int64(filters.Limit) - 1) / int64(filters.Limit)

	c.JSON(http.StatusOK, gin.H{
		"trips": trips,
		"pagination": gin.H{
			"page":        filters.Page,
			"limit":       filters.Limit,
			"total":       totalCount,
			"total_pages": totalPages,
		},
	})
}

func (h *TripHandler) GetTrip(c *gin.Context) {
	tripID := c.Param("id")
	tripIDObj, err := primitive.ObjectIDFromHex(tripID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid trip ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var trip models.Trip
	err = h.tripCollection.FindOne(ctx, bson.M{
		"_id": tripIDObj,
	}).Decode(&trip)

	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Trip not found",
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Database error",
			})
		}
		return
	}

	// Увеличиваем счетчик просмотров
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.tripCollection.UpdateOne(ctx, bson.M{"_id": tripIDObj}, bson.M{
			"$inc": bson.M{"views": 1},
		})
	}()

	c.JSON(http.StatusOK, trip)
}

// GetTripMatches возвращает активные заявки, подходящие под поездку,
// по убыванию оценки совместимости
func (h *TripHandler) GetTripMatches(c *gin.Context) {
	tripID := c.Param("id")
	tripIDObj, err := primitive.ObjectIDFromHex(tripID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid trip ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	matches, err := h.matchService.MatchesForTrip(ctx, tripIDObj)
	if err != nil {
		if err == services.ErrTripNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Trip not found",
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Error fetching matches",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
		"count":   len(matches),
	})
}

func (h *TripHandler) GetUserTrips(c *gin.Context) {
	userID, _ := c.Get("user_id")
	userIDObj := userID.(primitive.ObjectID)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	skip := (page - 1) * limit
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(skip)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := h.tripCollection.Find(ctx, bson.M{
		"user_id": userIDObj,
	}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching user trips",
		})
		return
	}
	defer cursor.Close(ctx)

	var trips []models.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding trips",
		})
		return
	}

	c.JSON(http.StatusOK, trips)
}

func (h *TripHandler) UpdateTrip(c *gin.Context) {
	tripID := c.Param("id")
	tripIDObj, err := primitive.ObjectIDFromHex(tripID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid trip ID",
		})
		return
	}

	var req UpdateTripRequest
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

	var trip models.Trip
	err = h.tripCollection.FindOne(ctx, bson.M{
		"_id":     tripIDObj,
		"user_id": userIDObj,
	}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Trip not found or you don't have permission to edit it",
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Database error",
			})
		}
		return
	}

	newDateFrom := trip.DateFrom
	newDateTo := trip.DateTo
	if req.DateFrom != nil {
		newDateFrom = *req.DateFrom
	}
	if req.DateTo != nil {
		newDateTo = *req.DateTo
	}
	if newDateFrom.After(newDateTo) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "date_from must not be after date_to",
		})
		return
	}

	updateData := bson.M{
		"updated_at": time.Now(),
	}

	if req.DateFrom != nil {
		updateData["date_from"] = *req.DateFrom
	}
	if req.DateTo != nil {
		updateData["date_to"] = *req.DateTo
	}
	if req.AvailableKg != nil {
		updateData["available_kg"] = *req.AvailableKg
	}
	if req.PricePerKg != nil {
		updateData["price_per_kg"] = *req.PricePerKg
	}
	if req.Description != nil {
		updateData["description"] = *req.Description
	}
	if req.Status != "" {
		updateData["status"] = req.Status
	}

	result, err := h.tripCollection.UpdateOne(ctx, bson.M{"_id": tripIDObj}, bson.M{
		"$set": updateData,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating trip",
		})
		return
	}

	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Trip not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Trip updated successfully",
	})
}

func (h *TripHandler) DeleteTrip(c *gin.Context) {
	tripID := c.Param("id")
	tripIDObj, err := primitive.ObjectIDFromHex(tripID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid trip ID",
		})
		return
	}

	userID, _ := c.Get("user_id")
	userIDObj := userID.(primitive.ObjectID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Мягкое удаление - переводим в cancelled
	result, err := h.tripCollection.UpdateOne(ctx, bson.M{
		"_id":     tripIDObj,
		"user_id": userIDObj,
	}, bson.M{
		"$set": bson.M{
			"status":     models.TripStatusCancelled,
			"updated_at": time.Now(),
		},
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error deleting trip",
		})
		return
	}

	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Trip not found or you don't have permission to delete it",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Trip deleted successfully",
	})
}
