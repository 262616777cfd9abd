// internal/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Точка маршрута. Координаты опциональны и в матчинге не участвуют -
// сравнение идёт строго по названиям городов.
type Location struct {
	City        string    `bson:"city" json:"city" validate:"required,min=2,max=100"`
	Country     string    `bson:"country" json:"country" validate:"required,min=2,max=100"`
	Coordinates []float64 `bson:"coordinates,omitempty" json:"coordinates,omitempty" validate:"omitempty,len=2"`
}

// Announcement - заявка отправителя на перевозку посылки
type Announcement struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id" validate:"required"`

	UserType string `bson:"user_type" json:"user_type" validate:"required,oneof=shipper sender"`

	// Маршрут
	From Location `bson:"from" json:"from"`
	To   Location `bson:"to" json:"to"`

	// Окно, в которое посылку нужно доставить
	DateFrom time.Time `bson:"date_from" json:"date_from" validate:"required"`
	DateTo   time.Time `bson:"date_to" json:"date_to" validate:"required"`

	// Вес: диапазон обязателен, точный вес - по желанию
	WeightRange string   `bson:"weight_range" json:"weight_range" validate:"required,oneof=0-1 2-5 5-10 10-15 15-20 20-25 25-30 30+"`
	Weight      *float64 `bson:"weight,omitempty" json:"weight,omitempty" validate:"omitempty,gt=0"`

	// Вознаграждение перевозчику
	Reward float64 `bson:"reward" json:"reward" validate:"gte=0"`

	Description string `bson:"description" json:"description" validate:"omitempty,max=2000"`

	Status string `bson:"status" json:"status"`
	Views  int    `bson:"views" json:"views"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Статусы заявки
const (
	AnnouncementStatusActive    = "active"
	AnnouncementStatusMatched   = "matched"
	AnnouncementStatusCompleted = "completed"
	AnnouncementStatusCancelled = "cancelled"
)

// Весовые диапазоны (кг)
const (
	WeightRange0to1   = "0-1"
	WeightRange2to5   = "2-5"
	WeightRange5to10  = "5-10"
	WeightRange10to15 = "10-15"
	WeightRange15to20 = "15-20"
	WeightRange20to25 = "20-25"
	WeightRange25to30 = "25-30"
	WeightRange30plus = "30+"
)

// AllWeightRanges - допустимые значения weight_range в порядке возрастания
var AllWeightRanges = []string{
	WeightRange0to1,
	WeightRange2to5,
	WeightRange5to10,
	WeightRange10to15,
	WeightRange15to20,
	WeightRange20to25,
	WeightRange25to30,
	WeightRange30plus,
}

func IsValidWeightRange(r string) bool {
	for _, known := range AllWeightRanges {
		if known == r {
			return true
		}
	}
	return false
}

func (a *Announcement) IsActive() bool {
	return a.Status == AnnouncementStatusActive
}

// Инвариант date_from <= date_to
func (a *Announcement) HasValidDates() bool {
	return !a.DateFrom.After(a.DateTo)
}

func (a *Announcement) CanBeEditedBy(userID primitive.ObjectID, isModerator bool) bool {
	if isModerator {
		return true
	}
	return a.UserID == userID
}

func (a *Announcement) IsRecent() bool {
	return time.Since(a.CreatedAt) < 7*24*time.Hour
}
