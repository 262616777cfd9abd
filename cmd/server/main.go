// cmd/server/main.go - TravelShip Marketplace Backend Server
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Внутренние пакеты проекта
	"travelship-backend/internal/config"
	"travelship-backend/internal/database"
	"travelship-backend/internal/handlers"
	"travelship-backend/internal/middleware"
	"travelship-backend/internal/services"
	"travelship-backend/pkg/auth"
	"travelship-backend/pkg/validator"

	// Внешние зависимости
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	// Глобальная переменная для отслеживания времени запуска сервера
	serverStartTime = time.Now()

	// Версия приложения
	appVersion = "1.0.0"
	buildTime  = "unknown"
	gitCommit  = "unknown"
)

func main() {
	// Загружаем .env файл в режиме разработки
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// Загружаем конфигурацию
	cfg := config.Load()

	// Настраиваем логирование
	logger := setupLogging(cfg)

	// Выводим информацию о запуске
	printStartupInfo(cfg)

	// Подключаемся к MongoDB
	log.Println("🔌 Connecting to MongoDB...")
	db, err := database.NewMongoDB(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("⚠️  Error disconnecting from MongoDB: %v", err)
		} else {
			log.Println("✅ Disconnected from MongoDB")
		}
	}()

	// Создаем индексы в MongoDB
	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.CreateIndexes(indexCtx); err != nil {
		log.Printf("⚠️  Warning: Failed to create some indexes: %v", err)
	}
	indexCancel()

	// Инициализируем валидатор
	validator.Init()

	// Инициализируем JWT менеджер
	jwtManager := auth.NewJWTManager(
		cfg.JWTSecret,
		time.Duration(cfg.JWTExpiration)*time.Hour,
	)

	// Коллекции MongoDB
	userCollection := db.Database.Collection("users")
	announcementCollection := db.Database.Collection("announcements")
	tripCollection := db.Database.Collection("trips")
	alertCollection := db.Database.Collection("alerts")
	notificationCollection := db.Database.Collection("notifications")
	deviceTokenCollection := db.Database.Collection("device_tokens")

	// Инициализируем сервисы
	notificationService := services.NewNotificationService(cfg, notificationCollection, deviceTokenCollection, logger)
	emailService := services.NewEmailService(cfg)
	matchService := services.NewMatchService(announcementCollection, tripCollection, userCollection, logger)
	alertMatcher := services.NewAlertMatcherService(alertCollection, userCollection, notificationService, emailService, logger)

	// Инициализируем хендлеры
	authHandler := handlers.NewAuthHandler(userCollection, jwtManager)
	userHandler := handlers.NewUserHandler(userCollection)
	announcementHandler := handlers.NewAnnouncementHandler(announcementCollection, matchService, alertMatcher)
	tripHandler := handlers.NewTripHandler(tripCollection, matchService, alertMatcher)
	alertHandler := handlers.NewAlertHandler(alertCollection)
	notificationHandler := handlers.NewNotificationHandler(notificationCollection, notificationService)

	// Создаем и настраиваем роутер
	router := setupRouter(cfg, logger, jwtManager,
		authHandler, userHandler, announcementHandler, tripHandler, alertHandler, notificationHandler)

	// Создаем HTTP сервер
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("🚀 TravelShip Backend Server v%s starting...", appVersion)
		log.Printf("🌐 Server running on http://%s:%s", cfg.Host, cfg.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	// Graceful shutdown с таймаутом
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	} else {
		log.Println("✅ Server gracefully stopped")
	}

	log.Println("👋 TravelShip Backend exited")
}

// setupLogging настраивает логирование в зависимости от окружения
func setupLogging(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	} else {
		gin.SetMode(gin.DebugMode)
		logger.SetLevel(logrus.DebugLevel)
		// Добавляем время к логам в development
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	return logger
}

// printStartupInfo выводит информацию о запуске сервера
func printStartupInfo(cfg *config.Config) {
	log.Println("================================================================================")
	log.Printf("📦 TravelShip Marketplace Backend Server")
	log.Printf("📌 Version: %s | Build: %s | Commit: %s", appVersion, buildTime, gitCommit)
	log.Printf("🌍 Environment: %s", cfg.Env)
	log.Printf("🔧 Configuration:")
	log.Printf("   • Host: %s", cfg.Host)
	log.Printf("   • Port: %s", cfg.Port)
	log.Printf("   • Database: %s", cfg.DatabaseName)
	log.Printf("   • Rate Limit: %d requests per %ds", cfg.RateLimitRequests, cfg.RateLimitWindow)
	log.Println("================================================================================")
}

// setupRouter настраивает все маршруты
func setupRouter(
	cfg *config.Config,
	logger *logrus.Logger,
	jwtManager *auth.JWTManager,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	announcementHandler *handlers.AnnouncementHandler,
	tripHandler *handlers.TripHandler,
	alertHandler *handlers.AlertHandler,
	notificationHandler *handlers.NotificationHandler,
) *gin.Engine {
	router := gin.New()

	// Глобальные middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	// CORS настройки для поддержки frontend
	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Rate limiting: общий потолок на весь API, отдельный жёсткий -
	// на создание сущностей (каждое создание запускает скан алертов)
	rateLimiter := middleware.NewRateLimiter(time.Duration(cfg.RateLimitWindow) * time.Second)
	router.Use(rateLimiter.Limit("api", cfg.RateLimitRequests))
	createLimit := rateLimiter.Limit("create", cfg.RateLimitCreateRequests)

	// Health check и метаданные
	setupHealthRoutes(router)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Публичные маршруты (без авторизации)
		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/login", authHandler.Login)

		v1.GET("/announcements", announcementHandler.GetAnnouncements)
		v1.GET("/announcements/:id", announcementHandler.GetAnnouncement)
		v1.GET("/trips", tripHandler.GetTrips)
		v1.GET("/trips/:id", tripHandler.GetTrip)
		v1.GET("/users/:id/profile", userHandler.GetPublicProfile)

		// Защищенные маршруты (требуют JWT)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager))
		{
			// Профиль пользователя
			protected.GET("/users/me", userHandler.GetProfile)
			protected.PUT("/users/me", userHandler.UpdateProfile)

			// Заявки на перевозку
			protected.POST("/announcements", createLimit, announcementHandler.CreateAnnouncement)
			protected.PUT("/announcements/:id", announcementHandler.UpdateAnnouncement)
			protected.DELETE("/announcements/:id", announcementHandler.DeleteAnnouncement)
			protected.GET("/announcements/:id/matches", announcementHandler.GetAnnouncementMatches)
			protected.GET("/users/me/announcements", announcementHandler.GetUserAnnouncements)

			// Поездки
			protected.POST("/trips", createLimit, tripHandler.CreateTrip)
			protected.PUT("/trips/:id", tripHandler.UpdateTrip)
			protected.DELETE("/trips/:id", tripHandler.DeleteTrip)
			protected.GET("/trips/:id/matches", tripHandler.GetTripMatches)
			protected.GET("/users/me/trips", tripHandler.GetUserTrips)

			// Алерты
			protected.POST("/alerts", createLimit, alertHandler.CreateAlert)
			protected.GET("/alerts", alertHandler.GetUserAlerts)
			protected.PUT("/alerts/:id", alertHandler.UpdateAlert)
			protected.DELETE("/alerts/:id", alertHandler.DeleteAlert)

			// Уведомления
			protected.GET("/notifications", notificationHandler.GetNotifications)
			protected.GET("/notifications/unread-count", notificationHandler.GetUnreadCount)
			protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
			protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
			protected.DELETE("/notifications/:id", notificationHandler.DeleteNotification)
			protected.POST("/notifications/register-device", notificationHandler.RegisterDevice)
			protected.DELETE("/notifications/unregister-device", notificationHandler.UnregisterDevice)
		}
	}

	// 404 handler для неизвестных маршрутов
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	// 405 handler для неподдерживаемых методов
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":  "Method not allowed",
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})
	})

	return router
}

// setupHealthRoutes настраивает маршруты health check и информации о сервере
func setupHealthRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(serverStartTime).String(),
			"version":   appVersion,
			"build": gin.H{
				"time":   buildTime,
				"commit": gitCommit,
			},
		})
	})

	// Readiness check для Kubernetes
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ready": true})
	})

	// Liveness check для Kubernetes
	router.GET("/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"alive": true})
	})

	// API информация
	router.GET("/api", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "TravelShip Marketplace API",
			"version":     appVersion,
			"description": "Backend API for the TravelShip peer-to-peer package shipping marketplace",
			"endpoints": gin.H{
				"public_api":    "/api/v1/*",
				"protected_api": "/api/v1/* (requires JWT)",
				"health":        "/health",
			},
			"features": []string{
				"User Authentication & Authorization (JWT)",
				"Shipment Announcements Board",
				"Traveler Trips Board",
				"Announcement/Trip Compatibility Matching",
				"Saved Search Alerts with Notifications",
				"Push Notifications",
				"Email Notifications",
				"Rate Limiting",
				"CORS Support",
			},
		})
	})
}
