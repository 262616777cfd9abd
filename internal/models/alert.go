// internal/models/alert.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Типы алертов: кого ждёт подписчик.
// sender-алерт срабатывает на новые поездки (отправитель ждёт перевозчика),
// shipper-алерт - на новые заявки (перевозчик ждёт посылку).
const (
	AlertTypeSender  = "sender"
	AlertTypeShipper = "shipper"
)

// Способы доставки уведомления
const (
	NotificationMethodEmail = "email"
	NotificationMethodPush  = "push"
	NotificationMethodBoth  = "both"
)

// MaxActiveAlertsPerUser - лимит одновременно активных алертов на пользователя,
// проверяется при создании
const MaxActiveAlertsPerUser = 5

// Alert - сохранённый поисковый запрос. Все поля-фильтры опциональны:
// незаполненное поле не ограничивает выборку (wildcard).
type Alert struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id" validate:"required"`

	Type string `bson:"type" json:"type" validate:"required,oneof=sender shipper"`

	// Фильтры маршрута, пустая строка = любой город/страна
	FromCity    string `bson:"from_city,omitempty" json:"from_city,omitempty"`
	FromCountry string `bson:"from_country,omitempty" json:"from_country,omitempty"`
	ToCity      string `bson:"to_city,omitempty" json:"to_city,omitempty"`
	ToCountry   string `bson:"to_country,omitempty" json:"to_country,omitempty"`

	// Границы по дате отправления
	DateFrom *time.Time `bson:"date_from,omitempty" json:"date_from,omitempty"`
	DateTo   *time.Time `bson:"date_to,omitempty" json:"date_to,omitempty"`

	// Границы по весу (кг)
	MinWeight *float64 `bson:"min_weight,omitempty" json:"min_weight,omitempty" validate:"omitempty,gte=0"`
	MaxWeight *float64 `bson:"max_weight,omitempty" json:"max_weight,omitempty" validate:"omitempty,gte=0"`

	// Границы по цене (вознаграждение заявки либо цена за кг поездки)
	MinReward *float64 `bson:"min_reward,omitempty" json:"min_reward,omitempty" validate:"omitempty,gte=0"`
	MaxReward *float64 `bson:"max_reward,omitempty" json:"max_reward,omitempty" validate:"omitempty,gte=0"`

	IsActive           bool   `bson:"is_active" json:"is_active"`
	NotificationMethod string `bson:"notification_method" json:"notification_method" validate:"required,oneof=email push both"`

	// Статистика срабатываний
	MatchCount     int        `bson:"match_count" json:"match_count"`
	LastNotifiedAt *time.Time `bson:"last_notified_at,omitempty" json:"last_notified_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsWildcard - алерт без единого фильтра, матчится на любую сущность своего типа
func (a *Alert) IsWildcard() bool {
	return a.FromCity == "" && a.FromCountry == "" &&
		a.ToCity == "" && a.ToCountry == "" &&
		a.DateFrom == nil && a.DateTo == nil &&
		a.MinWeight == nil && a.MaxWeight == nil &&
		a.MinReward == nil && a.MaxReward == nil
}

// WantsEmail - нужно ли отправлять email при срабатывании
func (a *Alert) WantsEmail() bool {
	return a.NotificationMethod == NotificationMethodEmail || a.NotificationMethod == NotificationMethodBoth
}

// WantsPush - нужно ли отправлять push при срабатывании
func (a *Alert) WantsPush() bool {
	return a.NotificationMethod == NotificationMethodPush || a.NotificationMethod == NotificationMethodBoth
}
