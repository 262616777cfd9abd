package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RateLimiter - скользящее окно запросов в памяти. Один экземпляр
// обслуживает несколько лимитов: общий на весь API и более жёсткий
// на создание заявок, поездок и алертов - каждое создание запускает
// скан алертов, и заспамить его дешевле, чем чтение.
type RateLimiter struct {
	requests map[string][]time.Time
	mutex    sync.Mutex
	window   time.Duration
}

func NewRateLimiter(window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		window:   window,
	}

	// Очистка устаревших ключей каждые 5 минут
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		for range ticker.C {
			rl.cleanup()
		}
	}()

	return rl
}

// Limit возвращает middleware с заданным потолком запросов в окно.
// Аутентифицированные запросы считаются по пользователю, остальные
// по IP клиента; scope разводит счётчики разных лимитов.
func (rl *RateLimiter) Limit(scope string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + clientKey(c)

		rl.mutex.Lock()

		now := time.Now()
		cutoff := now.Add(-rl.window)

		var recent []time.Time
		for _, reqTime := range rl.requests[key] {
			if reqTime.After(cutoff) {
				recent = append(recent, reqTime)
			}
		}

		if len(recent) >= limit {
			rl.requests[key] = recent
			rl.mutex.Unlock()

			c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}

		recent = append(recent, now)
		rl.requests[key] = recent
		remaining := limit - len(recent)
		rl.mutex.Unlock()

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		c.Next()
	}
}

// clientKey - идентификатор источника запроса. Для защищённых маршрутов
// auth-middleware уже положил user_id в контекст, смена IP пользователю
// не помогает. До аутентификации остаётся IP.
func clientKey(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(primitive.ObjectID); ok {
			return "user:" + id.Hex()
		}
	}
	return "ip:" + c.ClientIP()
}

func (rl *RateLimiter) cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for key, requests := range rl.requests {
		var recent []time.Time
		for _, reqTime := range requests {
			if reqTime.After(cutoff) {
				recent = append(recent, reqTime)
			}
		}

		if len(recent) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = recent
		}
	}
}
