package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func limiterRouter(rl *RateLimiter, limit int, userID *primitive.ObjectID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if userID != nil {
		id := *userID
		router.Use(func(c *gin.Context) {
			c.Set("user_id", id)
			c.Next()
		})
	}
	router.Use(rl.Limit("test", limit))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doRequest(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	router.ServeHTTP(w, req)
	return w
}

func TestLimitRejectsAboveThreshold(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	router := limiterRouter(rl, 2, nil)

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1").Code)

	w := doRequest(router, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestLimitKeysAnonymousClientsByIP(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	router := limiterRouter(rl, 1, nil)

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "10.0.0.1").Code)

	// Другой IP считается отдельно
	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.2").Code)
}

func TestLimitKeysAuthenticatedClientsByUser(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	userID := primitive.NewObjectID()
	router := limiterRouter(rl, 1, &userID)

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1").Code)

	// Смена IP не сбрасывает счётчик аутентифицированного пользователя
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "10.0.0.2").Code)
}

func TestLimitScopesAreIndependent(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/read", rl.Limit("read", 5), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/write", rl.Limit("write", 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	get := func(path string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:12345"
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("/write"))
	assert.Equal(t, http.StatusTooManyRequests, get("/write"))

	// Исчерпанный write-лимит не трогает read-счётчик того же клиента
	assert.Equal(t, http.StatusOK, get("/read"))
}

func TestLimitReportsRemaining(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	router := limiterRouter(rl, 3, nil)

	w := doRequest(router, "10.0.0.1")
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Remaining"))
}
