package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func postJSON(t *testing.T, handler gin.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("user_id", primitive.NewObjectID())

	handler(c)
	return w
}

func TestCreateAnnouncementRejectsEmptyCity(t *testing.T) {
	h := NewAnnouncementHandler(nil, nil, nil)

	// Пустой from.city проходит биндинг, но не проходит валидацию модели:
	// такая заявка получала бы +20 за "совпадение" пустых городов
	body := `{
		"user_type": "sender",
		"from": {"city": "", "country": "France"},
		"to": {"city": "NYC", "country": "USA"},
		"date_from": "2025-06-01T00:00:00Z",
		"date_to": "2025-06-10T00:00:00Z",
		"weight_range": "2-5",
		"reward": 50
	}`

	w := postJSON(t, h.CreateAnnouncement, "/api/v1/announcements", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "City")
}

func TestCreateAnnouncementRejectsMissingRoute(t *testing.T) {
	h := NewAnnouncementHandler(nil, nil, nil)

	body := `{
		"user_type": "sender",
		"date_from": "2025-06-01T00:00:00Z",
		"date_to": "2025-06-10T00:00:00Z",
		"weight_range": "2-5",
		"reward": 50
	}`

	w := postJSON(t, h.CreateAnnouncement, "/api/v1/announcements", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAnnouncementRejectsInvertedDates(t *testing.T) {
	h := NewAnnouncementHandler(nil, nil, nil)

	body := `{
		"user_type": "sender",
		"from": {"city": "Paris", "country": "France"},
		"to": {"city": "NYC", "country": "USA"},
		"date_from": "2025-06-10T00:00:00Z",
		"date_to": "2025-06-01T00:00:00Z",
		"weight_range": "2-5",
		"reward": 50
	}`

	w := postJSON(t, h.CreateAnnouncement, "/api/v1/announcements", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "date_from")
}
