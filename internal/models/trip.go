// internal/models/trip.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trip - поездка путешественника со свободным местом в багаже
type Trip struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id" validate:"required"`

	// Маршрут
	From Location `bson:"from" json:"from"`
	To   Location `bson:"to" json:"to"`

	// Окно поездки. Каноническое имя полей - date_from/date_to,
	// дата отправления для алертов берётся из date_from.
	DateFrom time.Time `bson:"date_from" json:"date_from" validate:"required"`
	DateTo   time.Time `bson:"date_to" json:"date_to" validate:"required"`

	// Свободная грузоподъёмность и цена за килограмм
	AvailableKg float64  `bson:"available_kg" json:"available_kg" validate:"gt=0"`
	PricePerKg  *float64 `bson:"price_per_kg,omitempty" json:"price_per_kg,omitempty" validate:"omitempty,gte=0"`

	Description string `bson:"description" json:"description" validate:"omitempty,max=2000"`

	Status string `bson:"status" json:"status"`
	Views  int    `bson:"views" json:"views"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Статусы поездки
const (
	TripStatusActive    = "active"
	TripStatusCompleted = "completed"
	TripStatusCancelled = "cancelled"
)

func (t *Trip) IsActive() bool {
	return t.Status == TripStatusActive
}

func (t *Trip) HasValidDates() bool {
	return !t.DateFrom.After(t.DateTo)
}

func (t *Trip) CanBeEditedBy(userID primitive.ObjectID, isModerator bool) bool {
	if isModerator {
		return true
	}
	return t.UserID == userID
}
