// internal/services/notification.go
package services

import (
	"context"
	"fmt"
	"time"

	"travelship-backend/internal/config"
	"travelship-backend/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationService хранит in-app уведомления и рассылает push
// на зарегистрированные устройства через внешний шлюз.
type NotificationService struct {
	config                 *config.Config
	notificationCollection *mongo.Collection
	deviceTokenCollection  *mongo.Collection
	client                 *resty.Client
	log                    *logrus.Logger
}

// Запрос к push-шлюзу
type pushMessage struct {
	Tokens   []string               `json:"tokens"`
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Priority string                 `json:"priority"`
}

func NewNotificationService(cfg *config.Config, notificationCollection, deviceTokenCollection *mongo.Collection, log *logrus.Logger) *NotificationService {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2)

	return &NotificationService{
		config:                 cfg,
		notificationCollection: notificationCollection,
		deviceTokenCollection:  deviceTokenCollection,
		client:                 client,
		log:                    log,
	}
}

// CreateForUser сохраняет in-app уведомление пользователю
func (ns *NotificationService) CreateForUser(ctx context.Context, userID primitive.ObjectID, title, message, notificationType string, data map[string]interface{}) (*models.Notification, error) {
	notification := models.Notification{
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		Data:      data,
		IsRead:    false,
		IsSent:    false,
		CreatedAt: time.Now(),
	}

	result, err := ns.notificationCollection.InsertOne(ctx, notification)
	if err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}

	notification.ID = result.InsertedID.(primitive.ObjectID)
	return &notification, nil
}

// SendPushToUser отправляет push на все активные устройства пользователя
func (ns *NotificationService) SendPushToUser(ctx context.Context, userID primitive.ObjectID, title, body string, data map[string]interface{}) error {
	tokens, err := ns.getUserDeviceTokens(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get device tokens: %w", err)
	}

	if len(tokens) == 0 {
		// Нет устройств - не ошибка
		return nil
	}

	return ns.sendPush(tokens, title, body, data)
}

func (ns *NotificationService) getUserDeviceTokens(ctx context.Context, userID primitive.ObjectID) ([]string, error) {
	cursor, err := ns.deviceTokenCollection.Find(ctx, bson.M{
		"user_id":   userID,
		"is_active": true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tokens []string
	for cursor.Next(ctx) {
		var deviceToken models.DeviceToken
		if err := cursor.Decode(&deviceToken); err != nil {
			continue
		}
		tokens = append(tokens, deviceToken.Token)
	}

	return tokens, nil
}

func (ns *NotificationService) sendPush(tokens []string, title, body string, data map[string]interface{}) error {
	if ns.config.PushEndpoint == "" || ns.config.PushKey == "" {
		return fmt.Errorf("push gateway is not configured")
	}

	message := pushMessage{
		Tokens:   tokens,
		Title:    title,
		Body:     body,
		Data:     data,
		Priority: "high",
	}

	resp, err := ns.client.R().
		SetHeader("Authorization", "key="+ns.config.PushKey).
		SetBody(message).
		Post(ns.config.PushEndpoint)
	if err != nil {
		return fmt.Errorf("failed to send push request: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode())
	}

	return nil
}

// RegisterDevice сохраняет push-токен устройства, повторная регистрация
// того же токена просто реактивирует его
func (ns *NotificationService) RegisterDevice(ctx context.Context, userID primitive.ObjectID, token, platform string) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"user_id":    userID,
			"platform":   platform,
			"is_active":  true,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := ns.deviceTokenCollection.UpdateOne(ctx, bson.M{"token": token}, update, opts)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// UnregisterDevice деактивирует токен устройства
func (ns *NotificationService) UnregisterDevice(ctx context.Context, userID primitive.ObjectID, token string) error {
	_, err := ns.deviceTokenCollection.UpdateOne(ctx, bson.M{
		"token":   token,
		"user_id": userID,
	}, bson.M{
		"$set": bson.M{
			"is_active":  false,
			"updated_at": time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to unregister device: %w", err)
	}
	return nil
}
