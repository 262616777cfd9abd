// internal/services/alert_matcher.go
package services

import (
	"context"
	"strings"
	"time"

	"travelship-backend/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AlertNotifier доставляет in-app и push-уведомления владельцу алерта
type AlertNotifier interface {
	CreateForUser(ctx context.Context, userID primitive.ObjectID, title, message, notificationType string, data map[string]interface{}) (*models.Notification, error)
	SendPushToUser(ctx context.Context, userID primitive.ObjectID, title, body string, data map[string]interface{}) error
}

// AlertEmailSender отправляет письмо о сработавшем алерте
type AlertEmailSender interface {
	SendAlertNotificationEmail(toEmail, toName, alertType string, details MatchDetails) error
}

// AlertMatcherService сканирует активные алерты при появлении новой заявки
// или поездки. Вызывается из хендлера создания после успешной записи;
// любая внутренняя ошибка логируется и глотается - создание сущности
// не должно зависеть от судьбы уведомлений.
type AlertMatcherService struct {
	alertCollection *mongo.Collection
	userCollection  *mongo.Collection
	notifications   AlertNotifier
	emails          AlertEmailSender
	log             *logrus.Logger
}

func NewAlertMatcherService(
	alertCollection, userCollection *mongo.Collection,
	notifications AlertNotifier,
	emails AlertEmailSender,
	log *logrus.Logger,
) *AlertMatcherService {
	return &AlertMatcherService{
		alertCollection: alertCollection,
		userCollection:  userCollection,
		notifications:   notifications,
		emails:          emails,
		log:             log,
	}
}

// CheckMatchingAlerts находит алерты, под которые подпадает новая сущность,
// атомарно инкрементирует их счётчики и рассылает уведомления best-effort.
// Никогда не возвращает ошибку: при сбое стора вернётся пустой список.
func (s *AlertMatcherService) CheckMatchingAlerts(ctx context.Context, shipment models.Shipment) []models.Alert {
	log := s.log.WithFields(logrus.Fields{
		"kind":      shipment.ShipmentKind(),
		"entity_id": shipment.ShipmentID().Hex(),
	})

	// Кандидаты: активные алерты противоположной роли
	cursor, err := s.alertCollection.Find(ctx, bson.M{
		"type":      shipment.AlertTarget(),
		"is_active": true,
	})
	if err != nil {
		log.WithError(err).Error("не удалось загрузить алерты, пропускаем проверку")
		return nil
	}
	defer cursor.Close(ctx)

	var candidates []models.Alert
	if err := cursor.All(ctx, &candidates); err != nil {
		log.WithError(err).Error("не удалось декодировать алерты, пропускаем проверку")
		return nil
	}

	var matched []models.Alert
	now := time.Now()

	for _, alert := range candidates {
		if !AlertMatches(&alert, shipment) {
			continue
		}

		// Атомарный $inc вместо read-modify-write: одновременные создания
		// двух подходящих сущностей не теряют инкременты
		_, err := s.alertCollection.UpdateOne(ctx, bson.M{"_id": alert.ID}, bson.M{
			"$inc": bson.M{"match_count": 1},
			"$set": bson.M{
				"last_notified_at": now,
				"updated_at":       now,
			},
		})
		if err != nil {
			log.WithError(err).WithField("alert_id", alert.ID.Hex()).Error("не удалось обновить счётчик алерта")
			continue
		}

		alert.MatchCount++
		notifiedAt := now
		alert.LastNotifiedAt = &notifiedAt

		// Доставка уведомления не влияет на результат: счётчик уже обновлён
		owner, err := s.loadAlertOwner(ctx, alert.UserID)
		if err != nil {
			log.WithError(err).WithField("alert_id", alert.ID.Hex()).Error("не удалось загрузить владельца алерта, уведомление пропущено")
		} else {
			s.notifyAlertOwner(ctx, alert, shipment, owner)
		}

		matched = append(matched, alert)
	}

	log.WithField("matched", len(matched)).Info("проверка алертов завершена")
	return matched
}

// AlertMatches применяет фильтры алерта к новой сущности. Каждый фильтр
// опционален и независим: незаполненное поле алерта ничего не ограничивает,
// поэтому алерт без фильтров матчится на любую сущность своего типа.
func AlertMatches(alert *models.Alert, shipment models.Shipment) bool {
	from := shipment.RouteFrom()
	to := shipment.RouteTo()

	// Города и страны сравниваются без учёта регистра
	if alert.FromCity != "" && from.City != "" && !strings.EqualFold(alert.FromCity, from.City) {
		return false
	}
	if alert.FromCountry != "" && from.Country != "" && !strings.EqualFold(alert.FromCountry, from.Country) {
		return false
	}
	if alert.ToCity != "" && to.City != "" && !strings.EqualFold(alert.ToCity, to.City) {
		return false
	}
	if alert.ToCountry != "" && to.Country != "" && !strings.EqualFold(alert.ToCountry, to.Country) {
		return false
	}

	// Релевантная дата: начало окна заявки либо дата отправления поездки
	date := shipment.MatchDate()
	if alert.DateFrom != nil && date.Before(*alert.DateFrom) {
		return false
	}
	if alert.DateTo != nil && date.After(*alert.DateTo) {
		return false
	}

	if weight := shipment.MatchWeight(); weight != nil {
		if alert.MinWeight != nil && *weight < *alert.MinWeight {
			return false
		}
		if alert.MaxWeight != nil && *weight > *alert.MaxWeight {
			return false
		}
	}

	if price := shipment.MatchPrice(); price != nil {
		if alert.MinReward != nil && *price < *alert.MinReward {
			return false
		}
		if alert.MaxReward != nil && *price > *alert.MaxReward {
			return false
		}
	}

	return true
}

// notifyAlertOwner доставляет уведомление владельцу сработавшего алерта.
// Любой сбой логируется и не распространяется дальше.
func (s *AlertMatcherService) notifyAlertOwner(ctx context.Context, alert models.Alert, shipment models.Shipment, owner *models.User) {
	log := s.log.WithFields(logrus.Fields{
		"alert_id": alert.ID.Hex(),
		"user_id":  alert.UserID.Hex(),
	})

	details := MatchDetailsFor(shipment)

	title, message := alertNotificationText(alert.Type, details)

	// In-app уведомление пишется всегда
	data := map[string]interface{}{
		"alert_id":  alert.ID.Hex(),
		"kind":      shipment.ShipmentKind(),
		"entity_id": shipment.ShipmentID().Hex(),
	}
	if _, err := s.notifications.CreateForUser(ctx, alert.UserID, title, message, models.NotificationTypeAlert, data); err != nil {
		log.WithError(err).Error("не удалось сохранить in-app уведомление")
	}

	if alert.WantsPush() {
		if err := s.notifications.SendPushToUser(ctx, alert.UserID, title, message, data); err != nil {
			log.WithError(err).Warn("не удалось отправить push")
		}
	}

	// Email уходит только пользователям с подтверждённой почтой.
	// Отправка в горутине: SMTP не должен держать запрос создания сущности.
	if alert.WantsEmail() && owner.HasVerifiedEmail() {
		email := owner.Email
		name := owner.FullName()
		alertType := alert.Type
		go func() {
			if err := s.emails.SendAlertNotificationEmail(email, name, alertType, details); err != nil {
				log.WithError(err).Warn("не удалось отправить email-уведомление")
			}
		}()
	}
}

func (s *AlertMatcherService) loadAlertOwner(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.userCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// MatchDetailsFor собирает детали совпадения для текста уведомления
func MatchDetailsFor(shipment models.Shipment) MatchDetails {
	date := shipment.MatchDate()
	return MatchDetails{
		From:   shipment.RouteFrom().City,
		To:     shipment.RouteTo().City,
		Date:   &date,
		Weight: shipment.MatchWeight(),
		Price:  shipment.MatchPrice(),
	}
}

func alertNotificationText(alertType string, details MatchDetails) (string, string) {
	if alertType == models.AlertTypeSender {
		return "Найдена подходящая поездка",
			"По вашему алерту появилась поездка " + details.From + " → " + details.To
	}
	return "Найдена подходящая посылка",
		"По вашему алерту появилась заявка на перевозку " + details.From + " → " + details.To
}
