// internal/services/match.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"travelship-backend/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Веса компонентов оценки совместимости. Сумма максимумов равна 100.
const (
	ScoreFromCity    = 20 // Совпадение города отправления
	ScoreToCity      = 20 // Совпадение города назначения
	ScoreDateOverlap = 30 // Пересечение окон дат, всё или ничего
	ScoreMaxRating   = 20 // Рейтинг контрагента, rating * 4
	ScoreVerified    = 10 // Контрагент подтверждён документами
	ScoreMax         = 100

	ratingMultiplier = 4
)

var (
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrTripNotFound         = errors.New("trip not found")
)

// TripMatch - поездка-кандидат с оценкой совместимости
type TripMatch struct {
	Trip  models.Trip `json:"trip"`
	Score int         `json:"score"`
}

// AnnouncementMatch - заявка-кандидат с оценкой совместимости
type AnnouncementMatch struct {
	Announcement models.Announcement `json:"announcement"`
	Score        int                 `json:"score"`
}

// MatchService считает оценку совместимости заявки и поездки
// и подбирает ранжированные списки кандидатов. Чистое чтение:
// счётчики просмотров здесь не трогаются.
type MatchService struct {
	announcementCollection *mongo.Collection
	tripCollection         *mongo.Collection
	userCollection         *mongo.Collection
	log                    *logrus.Logger
}

func NewMatchService(announcementCollection, tripCollection, userCollection *mongo.Collection, log *logrus.Logger) *MatchService {
	return &MatchService{
		announcementCollection: announcementCollection,
		tripCollection:         tripCollection,
		userCollection:         userCollection,
		log:                    log,
	}
}

// Score возвращает оценку совместимости заявки и поездки в диапазоне [0,100].
// Детерминированная чистая функция от обеих сущностей и профиля контрагента.
// Города сравниваются точно, с учётом регистра - никакого нечёткого
// сопоставления или расстояний по координатам.
func (s *MatchService) Score(a *models.Announcement, t *models.Trip, counterpart *models.User) int {
	score := 0

	if a.From.City == t.From.City {
		score += ScoreFromCity
	}
	if a.To.City == t.To.City {
		score += ScoreToCity
	}

	if DatesOverlap(a.DateFrom, a.DateTo, t.DateFrom, t.DateTo) {
		score += ScoreDateOverlap
	}

	if counterpart != nil {
		// Рейтинг по шкале 0-5, идеальная пятёрка даёт ровно 20 очков
		ratingPoints := counterpart.Stats.Rating * ratingMultiplier
		score += int(math.Min(ratingPoints, ScoreMaxRating))

		if counterpart.IsVerified {
			score += ScoreVerified
		}
	}

	if score > ScoreMax {
		score = ScoreMax
	}
	return score
}

// DatesOverlap проверяет пересечение интервалов [aFrom, aTo] и [tFrom, tTo].
// Границы включительные: касание в одной точке считается пересечением.
func DatesOverlap(aFrom, aTo, tFrom, tTo time.Time) bool {
	return !tFrom.After(aTo) && !tTo.Before(aFrom)
}

// MatchesForAnnouncement возвращает активные поездки, совместимые с заявкой,
// отсортированные по убыванию оценки. Порядок при равных оценках стабильный.
func (s *MatchService) MatchesForAnnouncement(ctx context.Context, announcementID primitive.ObjectID) ([]TripMatch, error) {
	var announcement models.Announcement
	err := s.announcementCollection.FindOne(ctx, bson.M{"_id": announcementID}).Decode(&announcement)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("failed to load announcement: %w", err)
	}

	// Фильтр на уровне стора: активные поездки по тому же маршруту,
	// окно которых пересекается с окном заявки
	filter := bson.M{
		"status":    models.TripStatusActive,
		"from.city": announcement.From.City,
		"to.city":   announcement.To.City,
		"date_from": bson.M{"$lte": announcement.DateTo},
		"date_to":   bson.M{"$gte": announcement.DateFrom},
	}

	cursor, err := s.tripCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []models.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}

	matches := make([]TripMatch, 0, len(trips))
	for _, trip := range trips {
		owner, err := s.loadUser(ctx, trip.UserID)
		if err != nil {
			return nil, err
		}

		matches = append(matches, TripMatch{
			Trip:  trip,
			Score: s.Score(&announcement, &trip, owner),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches, nil
}

// MatchesForTrip - зеркальная операция: активные заявки, совместимые с поездкой
func (s *MatchService) MatchesForTrip(ctx context.Context, tripID primitive.ObjectID) ([]AnnouncementMatch, error) {
	var trip models.Trip
	err := s.tripCollection.FindOne(ctx, bson.M{"_id": tripID}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}

	filter := bson.M{
		"status":    models.AnnouncementStatusActive,
		"from.city": trip.From.City,
		"to.city":   trip.To.City,
		"date_from": bson.M{"$lte": trip.DateTo},
		"date_to":   bson.M{"$gte": trip.DateFrom},
	}

	cursor, err := s.announcementCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	defer cursor.Close(ctx)

	var announcements []models.Announcement
	if err := cursor.All(ctx, &announcements); err != nil {
		return nil, fmt.Errorf("failed to decode announcements: %w", err)
	}

	matches := make([]AnnouncementMatch, 0, len(announcements))
	for _, announcement := range announcements {
		owner, err := s.loadUser(ctx, announcement.UserID)
		if err != nil {
			return nil, err
		}

		matches = append(matches, AnnouncementMatch{
			Announcement: announcement,
			Score:        s.Score(&announcement, &trip, owner),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches, nil
}

// loadUser возвращает профиль владельца кандидата. Отсутствующий профиль
// не считается ошибкой: кандидат оценивается без очков за рейтинг и верификацию.
func (s *MatchService) loadUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.userCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			s.log.WithField("user_id", userID.Hex()).Warn("владелец кандидата не найден, оцениваем без профиля")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID.Hex(), err)
	}
	return &user, nil
}
