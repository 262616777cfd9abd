// internal/models/shipment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shipment - общий интерфейс над Announcement и Trip для алерт-матчера.
// Вместо ветвления по строке-признаку каждая сущность сама отдаёт
// релевантные для фильтрации поля.
type Shipment interface {
	// ShipmentID возвращает идентификатор документа
	ShipmentID() primitive.ObjectID
	// OwnerID возвращает владельца сущности
	OwnerID() primitive.ObjectID
	// ShipmentKind возвращает вид сущности: "announcement" или "trip"
	ShipmentKind() string
	// AlertTarget возвращает тип алертов, которые проверяются
	// при появлении этой сущности
	AlertTarget() string
	// RouteFrom и RouteTo - точки маршрута
	RouteFrom() Location
	RouteTo() Location
	// MatchDate - релевантная дата: начало окна доставки для заявки,
	// дата отправления (date_from) для поездки
	MatchDate() time.Time
	// MatchWeight - вес в кг, nil если не задан
	MatchWeight() *float64
	// MatchPrice - цена: вознаграждение заявки либо цена за кг поездки, nil если не задана
	MatchPrice() *float64
}

// Виды сущностей
const (
	ShipmentKindAnnouncement = "announcement"
	ShipmentKindTrip         = "trip"
)

func (a *Announcement) ShipmentID() primitive.ObjectID { return a.ID }
func (a *Announcement) OwnerID() primitive.ObjectID    { return a.UserID }
func (a *Announcement) ShipmentKind() string           { return ShipmentKindAnnouncement }

// Новая заявка интересна перевозчикам
func (a *Announcement) AlertTarget() string { return AlertTypeShipper }

func (a *Announcement) RouteFrom() Location { return a.From }
func (a *Announcement) RouteTo() Location   { return a.To }

func (a *Announcement) MatchDate() time.Time { return a.DateFrom }

func (a *Announcement) MatchWeight() *float64 { return a.Weight }

func (a *Announcement) MatchPrice() *float64 {
	reward := a.Reward
	return &reward
}

func (t *Trip) ShipmentID() primitive.ObjectID { return t.ID }
func (t *Trip) OwnerID() primitive.ObjectID    { return t.UserID }
func (t *Trip) ShipmentKind() string           { return ShipmentKindTrip }

// Новая поездка интересна отправителям
func (t *Trip) AlertTarget() string { return AlertTypeSender }

func (t *Trip) RouteFrom() Location { return t.From }
func (t *Trip) RouteTo() Location   { return t.To }

func (t *Trip) MatchDate() time.Time { return t.DateFrom }

func (t *Trip) MatchWeight() *float64 {
	kg := t.AvailableKg
	return &kg
}

func (t *Trip) MatchPrice() *float64 { return t.PricePerKg }
