package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server настройки
	Port string
	Host string
	Env  string

	// MongoDB настройки
	MongoURI     string
	DatabaseName string
	MongoTimeout int

	// JWT настройки
	JWTSecret     string
	JWTExpiration int

	// Push сервис настройки
	PushEndpoint string
	PushKey      string

	// Email настройки
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	EmailName    string

	// Rate limiting
	RateLimitRequests       int
	RateLimitCreateRequests int // потолок на создание сущностей
	RateLimitWindow         int // секунды
}

func Load() *Config {
	// Загружаем переменные из .env файла
	if err := godotenv.Load(); err != nil {
		log.Printf("Не удалось загрузить .env файл: %v", err)
	}

	config := &Config{
		Port:                    getEnv("PORT", "8080"),
		Host:                    getEnv("HOST", "0.0.0.0"),
		Env:                     getEnv("ENV", "development"),
		MongoURI:                getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName:            getEnv("DATABASE_NAME", "travelship"),
		MongoTimeout:            getEnvAsInt("MONGO_TIMEOUT", 10),
		JWTSecret:               getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration:           getEnvAsInt("JWT_EXPIRATION", 24), // часы
		PushEndpoint:            getEnv("PUSH_ENDPOINT", ""),
		PushKey:                 getEnv("PUSH_KEY", ""),
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:            getEnv("SMTP_USERNAME", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		EmailFrom:               getEnv("EMAIL_FROM", ""),
		EmailName:               getEnv("EMAIL_NAME", "TravelShip"),
		RateLimitRequests:       getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitCreateRequests: getEnvAsInt("RATE_LIMIT_CREATE_REQUESTS", 10),
		RateLimitWindow:         getEnvAsInt("RATE_LIMIT_WINDOW", 60),
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
