// internal/database/mongodb.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"travelship-backend/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(cfg *config.Config) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.MongoTimeout)*time.Second)
	defer cancel()

	// Настройки клиента
	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(100).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second)

	// Создание клиента
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к MongoDB: %w", err)
	}

	// Проверка подключения
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ошибка пинга MongoDB: %w", err)
	}

	database := client.Database(cfg.DatabaseName)

	log.Printf("Успешно подключен к MongoDB: %s", cfg.DatabaseName)

	return &MongoDB{
		Client:   client,
		Database: database,
	}, nil
}

func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("ошибка отключения от MongoDB: %w", err)
	}

	log.Println("Отключен от MongoDB")
	return nil
}

// CreateIndexes создает индексы для всех коллекций
// ВАЖНО: Используем bson.D вместо map для сохранения порядка ключей
func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	// Создание индексов для пользователей
	userCollection := m.Database.Collection("users")
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	if _, err := userCollection.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("ошибка создания индексов для пользователей: %w", err)
	}

	// Создание индексов для заявок на перевозку
	announcementCollection := m.Database.Collection("announcements")
	announcementIndexes := []mongo.IndexModel{
		{
			// Составной индекс под запрос матчера: статус + маршрут
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "from.city", Value: 1},
				{Key: "to.city", Value: 1},
			},
		},
		{
			// Индекс под пересечение дат
			Keys: bson.D{
				{Key: "date_from", Value: 1},
				{Key: "date_to", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			// Индекс для поиска заявок пользователя
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}

	if _, err := announcementCollection.Indexes().CreateMany(ctx, announcementIndexes); err != nil {
		return fmt.Errorf("ошибка создания индексов для заявок: %w", err)
	}

	// Создание индексов для поездок
	tripCollection := m.Database.Collection("trips")
	tripIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "from.city", Value: 1},
				{Key: "to.city", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "date_from", Value: 1},
				{Key: "date_to", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}

	if _, err := tripCollection.Indexes().CreateMany(ctx, tripIndexes); err != nil {
		return fmt.Errorf("ошибка создания индексов для поездок: %w", err)
	}

	// Создание индексов для алертов
	alertCollection := m.Database.Collection("alerts")
	alertIndexes := []mongo.IndexModel{
		{
			// Составной индекс под скан матчера: тип + активность
			Keys: bson.D{
				{Key: "type", Value: 1},
				{Key: "is_active", Value: 1},
			},
		},
		{
			// Индекс под проверку лимита активных алертов
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "is_active", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	if _, err := alertCollection.Indexes().CreateMany(ctx, alertIndexes); err != nil {
		return fmt.Errorf("ошибка создания индексов для алертов: %w", err)
	}

	// Создание индексов для уведомлений
	notificationCollection := m.Database.Collection("notifications")
	notificationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "is_read", Value: 1},
			},
		},
	}

	if _, err := notificationCollection.Indexes().CreateMany(ctx, notificationIndexes); err != nil {
		return fmt.Errorf("ошибка создания индексов для уведомлений: %w", err)
	}

	// Создание индексов для токенов устройств
	deviceTokenCollection := m.Database.Collection("device_tokens")
	deviceTokenIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := deviceTokenCollection.Indexes().CreateMany(ctx, deviceTokenIndexes); err != nil {
		return fmt.Errorf("ошибка создания индексов для токенов устройств: %w", err)
	}

	log.Println("✅ Индексы успешно созданы для всех коллекций")
	return nil
}
