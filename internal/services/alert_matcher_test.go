package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"travelship-backend/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func floatPtr(v float64) *float64 { return &v }

func timePtr(s string) *time.Time {
	t := date(s)
	return &t
}

func wildcardAlert(alertType string) *models.Alert {
	return &models.Alert{
		Type:               alertType,
		IsActive:           true,
		NotificationMethod: models.NotificationMethodEmail,
	}
}

func matcherAnnouncement() *models.Announcement {
	a := testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10")
	a.Weight = floatPtr(3)
	a.Reward = 50
	a.WeightRange = models.WeightRange2to5
	return a
}

func matcherTrip() *models.Trip {
	trip := testTrip("Paris", "NYC", "2025-06-05", "2025-06-15")
	trip.AvailableKg = 12
	trip.PricePerKg = floatPtr(8)
	return trip
}

func TestAlertMatchesWildcard(t *testing.T) {
	// Алерт без фильтров матчится на любую сущность своего типа
	assert.True(t, AlertMatches(wildcardAlert(models.AlertTypeShipper), matcherAnnouncement()))
	assert.True(t, AlertMatches(wildcardAlert(models.AlertTypeSender), matcherTrip()))
}

func TestAlertMatchesCityFilters(t *testing.T) {
	tests := []struct {
		name     string
		fromCity string
		toCity   string
		want     bool
	}{
		{"exact from city", "Paris", "", true},
		{"case-insensitive from city", "paris", "", true},
		{"uppercase from city", "PARIS", "", true},
		{"wrong from city", "Lyon", "", false},
		{"exact to city", "", "NYC", true},
		{"case-insensitive to city", "", "nyc", true},
		{"wrong to city", "", "Boston", false},
		{"both cities match", "Paris", "NYC", true},
		{"one of two rejects", "Paris", "Boston", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := wildcardAlert(models.AlertTypeShipper)
			alert.FromCity = tt.fromCity
			alert.ToCity = tt.toCity

			assert.Equal(t, tt.want, AlertMatches(alert, matcherAnnouncement()))
		})
	}
}

func TestAlertMatchesCountryFilters(t *testing.T) {
	alert := wildcardAlert(models.AlertTypeShipper)
	alert.FromCountry = "france"
	assert.True(t, AlertMatches(alert, matcherAnnouncement()))

	alert.FromCountry = "Germany"
	assert.False(t, AlertMatches(alert, matcherAnnouncement()))

	alert = wildcardAlert(models.AlertTypeShipper)
	alert.ToCountry = "USA"
	assert.True(t, AlertMatches(alert, matcherAnnouncement()))
}

func TestAlertMatchesDateBounds(t *testing.T) {
	// Релевантная дата заявки - начало окна: 2025-06-01
	tests := []struct {
		name     string
		dateFrom *time.Time
		dateTo   *time.Time
		want     bool
	}{
		{"no bounds", nil, nil, true},
		{"inside bounds", timePtr("2025-05-01"), timePtr("2025-07-01"), true},
		{"exactly on lower bound", timePtr("2025-06-01"), nil, true},
		{"exactly on upper bound", nil, timePtr("2025-06-01"), true},
		{"before lower bound", timePtr("2025-06-02"), nil, false},
		{"after upper bound", nil, timePtr("2025-05-31"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := wildcardAlert(models.AlertTypeShipper)
			alert.DateFrom = tt.dateFrom
			alert.DateTo = tt.dateTo

			assert.Equal(t, tt.want, AlertMatches(alert, matcherAnnouncement()))
		})
	}
}

func TestAlertMatchesTripUsesDepartureDate(t *testing.T) {
	// Для поездки релевантная дата - date_from (дата отправления)
	trip := matcherTrip() // отправление 2025-06-05

	alert := wildcardAlert(models.AlertTypeSender)
	alert.DateFrom = timePtr("2025-06-05")
	assert.True(t, AlertMatches(alert, trip))

	alert.DateFrom = timePtr("2025-06-06")
	assert.False(t, AlertMatches(alert, trip))

	// Конец окна поездки не участвует в проверке
	alert = wildcardAlert(models.AlertTypeSender)
	alert.DateTo = timePtr("2025-06-10")
	assert.True(t, AlertMatches(alert, trip))
}

func TestAlertMatchesWeightBounds(t *testing.T) {
	// Вес заявки 3 кг
	tests := []struct {
		name      string
		minWeight *float64
		maxWeight *float64
		want      bool
	}{
		{"no bounds", nil, nil, true},
		{"inside bounds", floatPtr(1), floatPtr(5), true},
		{"exactly min", floatPtr(3), nil, true},
		{"exactly max", nil, floatPtr(3), true},
		{"below min", floatPtr(4), nil, false},
		{"above max", nil, floatPtr(2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := wildcardAlert(models.AlertTypeShipper)
			alert.MinWeight = tt.minWeight
			alert.MaxWeight = tt.maxWeight

			assert.Equal(t, tt.want, AlertMatches(alert, matcherAnnouncement()))
		})
	}
}

func TestAlertMatchesWeightAbsentImposesNoConstraint(t *testing.T) {
	// Заявка без точного веса проходит любые весовые фильтры
	a := matcherAnnouncement()
	a.Weight = nil

	alert := wildcardAlert(models.AlertTypeShipper)
	alert.MinWeight = floatPtr(100)
	assert.True(t, AlertMatches(alert, a))
}

func TestAlertMatchesPriceBounds(t *testing.T) {
	// Вознаграждение заявки 50, цена за кг поездки 8
	alert := wildcardAlert(models.AlertTypeShipper)
	alert.MinReward = floatPtr(40)
	alert.MaxReward = floatPtr(60)
	assert.True(t, AlertMatches(alert, matcherAnnouncement()))

	alert.MinReward = floatPtr(51)
	assert.False(t, AlertMatches(alert, matcherAnnouncement()))

	senderAlert := wildcardAlert(models.AlertTypeSender)
	senderAlert.MaxReward = floatPtr(10)
	assert.True(t, AlertMatches(senderAlert, matcherTrip()))

	senderAlert.MaxReward = floatPtr(5)
	assert.False(t, AlertMatches(senderAlert, matcherTrip()))
}

func TestAlertMatchesMonotonicity(t *testing.T) {
	// Добавление фильтра может только сузить множество совпадений
	shipments := []models.Shipment{
		matcherAnnouncement(),
		func() *models.Announcement {
			a := matcherAnnouncement()
			a.Weight = floatPtr(1)
			return a
		}(),
		func() *models.Announcement {
			a := matcherAnnouncement()
			a.From.City = "Lyon"
			return a
		}(),
	}

	base := wildcardAlert(models.AlertTypeShipper)
	constrained := wildcardAlert(models.AlertTypeShipper)
	constrained.MinWeight = floatPtr(2)

	for _, shipment := range shipments {
		if AlertMatches(constrained, shipment) {
			// Всё, что прошло суженный алерт, проходит и базовый
			assert.True(t, AlertMatches(base, shipment))
		}
	}

	baseCount := 0
	constrainedCount := 0
	for _, shipment := range shipments {
		if AlertMatches(base, shipment) {
			baseCount++
		}
		if AlertMatches(constrained, shipment) {
			constrainedCount++
		}
	}
	assert.LessOrEqual(t, constrainedCount, baseCount)
}

// Фейковые доставщики для проверки изоляции сбоев

type flakyNotifier struct {
	createErr error
	pushErr   error
	created   int
	pushed    int
}

func (n *flakyNotifier) CreateForUser(ctx context.Context, userID primitive.ObjectID, title, message, notificationType string, data map[string]interface{}) (*models.Notification, error) {
	n.created++
	return nil, n.createErr
}

func (n *flakyNotifier) SendPushToUser(ctx context.Context, userID primitive.ObjectID, title, body string, data map[string]interface{}) error {
	n.pushed++
	return n.pushErr
}

type flakyEmailSender struct {
	calls chan struct{}
	err   error
}

func (e *flakyEmailSender) SendAlertNotificationEmail(toEmail, toName, alertType string, details MatchDetails) error {
	e.calls <- struct{}{}
	return e.err
}

func TestNotifyAlertOwnerSwallowsDeliveryFailures(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	notifier := &flakyNotifier{
		createErr: errors.New("notification store unavailable"),
		pushErr:   errors.New("push gateway timeout"),
	}
	emailer := &flakyEmailSender{
		calls: make(chan struct{}, 1),
		err:   errors.New("smtp connection refused"),
	}

	svc := NewAlertMatcherService(nil, nil, notifier, emailer, logger)

	verifiedAt := time.Now()
	owner := &models.User{
		Email:           "owner@example.com",
		FirstName:       "Test",
		LastName:        "Owner",
		EmailVerifiedAt: &verifiedAt,
	}

	alert := *wildcardAlert(models.AlertTypeShipper)
	alert.ID = primitive.NewObjectID()
	alert.UserID = primitive.NewObjectID()
	alert.NotificationMethod = models.NotificationMethodBoth

	// Все три канала падают - вызов обязан вернуться без паники
	svc.notifyAlertOwner(context.Background(), alert, matcherAnnouncement(), owner)

	assert.Equal(t, 1, notifier.created)
	assert.Equal(t, 1, notifier.pushed)

	select {
	case <-emailer.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("email dispatch was never attempted")
	}
}

func TestNotifyAlertOwnerSkipsEmailForUnverifiedOwner(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	notifier := &flakyNotifier{}
	emailer := &flakyEmailSender{calls: make(chan struct{}, 1)}

	svc := NewAlertMatcherService(nil, nil, notifier, emailer, logger)

	owner := &models.User{
		Email:     "owner@example.com",
		FirstName: "Test",
	}

	alert := *wildcardAlert(models.AlertTypeShipper)
	alert.ID = primitive.NewObjectID()
	alert.UserID = primitive.NewObjectID()
	alert.NotificationMethod = models.NotificationMethodEmail

	svc.notifyAlertOwner(context.Background(), alert, matcherAnnouncement(), owner)

	assert.Equal(t, 1, notifier.created)
	assert.Equal(t, 0, notifier.pushed)

	select {
	case <-emailer.calls:
		t.Fatal("email must not be sent to an unverified address")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAlertTargetMapping(t *testing.T) {
	// Новая заявка проверяется против shipper-алертов, поездка - против sender
	assert.Equal(t, models.AlertTypeShipper, matcherAnnouncement().AlertTarget())
	assert.Equal(t, models.AlertTypeSender, matcherTrip().AlertTarget())
}

func TestMatchDetailsFor(t *testing.T) {
	details := MatchDetailsFor(matcherAnnouncement())
	assert.Equal(t, "Paris", details.From)
	assert.Equal(t, "NYC", details.To)
	require.NotNil(t, details.Date)
	assert.Equal(t, date("2025-06-01"), *details.Date)
	require.NotNil(t, details.Weight)
	assert.Equal(t, 3.0, *details.Weight)
	require.NotNil(t, details.Price)
	assert.Equal(t, 50.0, *details.Price)

	tripDetails := MatchDetailsFor(matcherTrip())
	assert.Equal(t, date("2025-06-05"), *tripDetails.Date)
	require.NotNil(t, tripDetails.Weight)
	assert.Equal(t, 12.0, *tripDetails.Weight)
	require.NotNil(t, tripDetails.Price)
	assert.Equal(t, 8.0, *tripDetails.Price)
}
