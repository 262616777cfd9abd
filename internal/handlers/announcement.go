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

type AnnouncementHandler struct {
	announcementCollection *mongo.Collection
	matchService           *services.MatchService
	alertMatcher           *services.AlertMatcherService
}

type CreateAnnouncementRequest struct {
	UserType    string          `json:"user_type" binding:"required,oneof=shipper sender"`
	From        models.Location `json:"from"`
	To          models.Location `json:"to"`
	DateFrom    time.Time       `json:"date_from" binding:"required"`
	DateTo      time.Time       `json:"date_to" binding:"required"`
	WeightRange string          `json:"weight_range" binding:"required,oneof=0-1 2-5 5-10 10-15 15-20 20-25 25-30 30+"`
	Weight      *float64        `json:"weight,omitempty" binding:"omitempty,gt=0"`
	Reward      float64         `json:"reward" binding:"gte=0"`
	Description string          `json:"description,omitempty" binding:"omitempty,max=2000"`
}

type UpdateAnnouncementRequest struct {
	DateFrom    *time.Time `json:"date_from,omitempty"`
	DateTo      *time.Time `json:"date_to,omitempty"`
	WeightRange string     `json:"weight_range,omitempty" binding:"omitempty,oneof=0-1 2-5 5-10 10-15 15-20 20-25 25-30 30+"`
	Weight      *float64   `json:"weight,omitempty" binding:"omitempty,gt=0"`
	Reward      *float64   `json:"reward,omitempty" binding:"omitempty,gte=0"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status,omitempty" binding:"omitempty,oneof=active matched completed cancelled"`
}

type AnnouncementFilters struct {
	FromCity  string    `form:"from_city"`
	ToCity    string    `form:"to_city"`
	DateFrom  time.Time `form:"date_from"`
	DateTo    time.Time `form:"date_to"`
	Page      int       `form:"page"`
	Limit     int       `form:"limit"`
	SortBy    string    `form:"sort_by"`    // created_at, views, reward
	SortOrder string    `form:"sort_order"` // asc, desc
}

func NewAnnouncementHandler(announcementCollection *mongo.Collection, matchService *services.MatchService, alertMatcher *services.AlertMatcherService) *AnnouncementHandler {
	return &AnnouncementHandler{
		announcementCollection: announcementCollection,
		matchService:           matchService,
		alertMatcher:           alertMatcher,
	}
}

func (h *AnnouncementHandler) CreateAnnouncement(c *gin.Context) {
	var req CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	// Инвариант окна дат
	if req.DateFrom.After(req.DateTo) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "date_from must not be after date_to",
		})
		return
	}

	userID, _ := c.Get("user_id")
	userIDObj := userID.(primitive.ObjectID)

	now := time.Now()
	announcement := models.Announcement{
		UserID:      userIDObj,
		UserType:    req.UserType,
		From:        req.From,
		To:          req.To,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		WeightRange: req.WeightRange,
		Weight:      req.Weight,
		Reward:      req.Reward,
		Description: req.Description,
		Status:      models.AnnouncementStatusActive,
		Views:       0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Маршрут проверяется на уровне модели: заявка с пустым городом
	// не должна попасть в выдачу матчера
	if err := validator.ValidateStruct(&announcement); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.announcementCollection.InsertOne(ctx, announcement)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error creating announcement",
		})
		return
	}

	announcement.ID = result.InsertedID.(primitive.ObjectID)

	// Запись прошла - проверяем алерты. Сбои внутри матчера не влияют
	// на ответ: заявка уже создана.
	h.alertMatcher.CheckMatchingAlerts(ctx, &announcement)

	c.JSON(http.StatusCreated, announcement)
}

func (h *AnnouncementHandler) GetAnnouncements(c *gin.Context) {
	var filters AnnouncementFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	// Устанавливаем значения по умолчанию
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

	// Строим фильтр для запроса
	filter := bson.M{
		"status": models.AnnouncementStatusActive,
	}

	if filters.FromCity != "" {
		filter["from.city"] = filters.FromCity
	}
	if filters.ToCity != "" {
		filter["to.city"] = filters.ToCity
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

	// Настройки сортировки
	sortOrder := 1
	if filters.SortOrder == "desc" {
		sortOrder = -1
	}

	// Параметры пагинации
	skip := (filters.Page - 1) * filters.Limit
	opts := options.Find().
		SetLimit(int64(filters.Limit)).
		SetSkip(int64(skip)).
		SetSort(bson.D{{Key: filters.SortBy, Value: sortOrder}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := h.announcementCollection.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching announcements",
		})
		return
	}
	defer cursor.Close(ctx)

	var announcements []models.Announcement
	if err := cursor.All(ctx, &announcements); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding announcements",
		})
		return
	}

	// Получаем общее количество для пагинации
	totalCount, err := h.announcementCollection.CountDocuments(ctx, filter)
	if err != nil {
		totalCount = 0
	}

	totalPages := (totalCount + int64(filters.Limit) - 1) / int64(filters.Limit)

	c.JSON(http.StatusOK, gin.H{
		"announcements": announcements,
		"pagination": gin.H{
			"page":        filters.Page,
			"limit":       filters.Limit,
			"total":       totalCount,
			"total_pages": totalPages,
		},
	})
}

func (h *AnnouncementHandler) GetAnnouncement(c *gin.Context) {
	announcementID := c.Param("id")
	announcementIDObj, err := primitive.ObjectIDFromHex(announcementID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid announcement ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var announcement models.Announcement
	err = h.announcementCollection.FindOne(ctx, bson.M{
		"_id": announcementIDObj,
	}).Decode(&announcement)

	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Announcement not found",
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
		h.announcementCollection.UpdateOne(ctx, bson.M{"_id": announcementIDObj}, bson.M{
			"$inc": bson.M{"views": 1},
		})
	}()

	c.JSON(http.StatusOK, announcement)
}

// GetAnnouncementMatches возвращает активные поездки, подходящие под заявку,
// по убыванию оценки совместимости. Чистое чтение: просмотры не инкрементируются.
func (h *AnnouncementHandler) GetAnnouncementMatches(c *gin.Context) {
	announcementID := c.Param("id")
	announcementIDObj, err := primitive.ObjectIDFromHex(announcementID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid announcement ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	matches, err := h.matchService.MatchesForAnnouncement(ctx, announcementIDObj)
	if err != nil {
		if err == services.ErrAnnouncementNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Announcement not found",
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

func (h *AnnouncementHandler) GetUserAnnouncements(c *gin.Context) {
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

	cursor, err := h.announcementCollection.Find(ctx, bson.M{
		"user_id": userIDObj,
	}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching user announcements",
		})
		return
	}
	defer cursor.Close(ctx)

	var announcements []models.Announcement
	if err := cursor.All(ctx, &announcements); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding announcements",
		})
		return
	}

	c.JSON(http.StatusOK, announcements)
}

func (h *AnnouncementHandler) UpdateAnnouncement(c *gin.Context) {
	announcementID := c.Param("id")
	announcementIDObj, err := primitive.ObjectIDFromHex(announcementID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid announcement ID",
		})
		return
	}

	var req UpdateAnnouncementRequest
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

	// Проверяем, что пользователь является автором заявки
	var announcement models.Announcement
	err = h.announcementCollection.FindOne(ctx, bson.M{
		"_id":     announcementIDObj,
		"user_id": userIDObj,
	}).Decode(&announcement)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Announcement not found or you don't have permission to edit it",
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Database error",
			})
		}
		return
	}

	// Проверяем инвариант дат с учётом частичного обновления
	newDateFrom := announcement.DateFrom
	newDateTo := announcement.DateTo
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

	// Строим обновления
	updateData := bson.M{
		"updated_at": time.Now(),
	}

	if req.DateFrom != nil {
		updateData["date_from"] = *req.DateFrom
	}
	if req.DateTo != nil {
		updateData["date_to"] = *req.DateTo
	}
	if req.WeightRange != "" {
		updateData["weight_range"] = req.WeightRange
	}
	if req.Weight != nil {
		updateData["weight"] = *req.Weight
	}
	if req.Reward != nil {
		updateData["reward"] = *req.Reward
	}
	if req.Description != nil {
		updateData["description"] = *req.Description
	}
	if req.Status != "" {
		updateData["status"] = req.Status
	}

	result, err := h.announcementCollection.UpdateOne(ctx, bson.M{"_id": announcementIDObj}, bson.M{
		"$set": updateData,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating announcement",
		})
		return
	}

	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Announcement not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Announcement updated successfully",
	})
}

func (h *AnnouncementHandler) DeleteAnnouncement(c *gin.Context) {
	announcementID := c.Param("id")
	announcementIDObj, err := primitive.ObjectIDFromHex(announcementID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid announcement ID",
		})
		return
	}

	userID, _ := c.Get("user_id")
	userIDObj := userID.(primitive.ObjectID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Мягкое удаление - переводим в cancelled
	result, err := h.announcementCollection.UpdateOne(ctx, bson.M{
		"_id":     announcementIDObj,
		"user_id": userIDObj,
	}, bson.M{
		"$set": bson.M{
			"status":     models.AnnouncementStatusCancelled,
			"updated_at": time.Now(),
		},
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error deleting announcement",
		})
		return
	}

	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Announcement not found or you don't have permission to delete it",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Announcement deleted successfully",
	})
}
