package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

type Notification struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID     `bson:"user_id" json:"user_id"`
	Type      string                 `bson:"type" json:"type"` // alert, announcement, trip, system
	Title     string                 `bson:"title" json:"title"`
	Message   string                 `bson:"message" json:"message"`
	Data      map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"` // Дополнительные данные
	IsRead    bool                   `bson:"is_read" json:"is_read"`
	IsSent    bool                   `bson:"is_sent" json:"is_sent"`
	ReadAt    *time.Time             `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}

// Типы уведомлений
const (
	NotificationTypeAlert        = "alert"
	NotificationTypeAnnouncement = "announcement"
	NotificationTypeTrip         = "trip"
	NotificationTypeSystem       = "system"
)

// Модель для push-токенов устройств
type DeviceToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Token     string             `bson:"token" json:"token"`
	Platform  string             `bson:"platform" json:"platform"` // android, ios, web
	IsActive  bool               `bson:"is_active" json:"is_active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
