package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Роли пользователей на площадке
const (
	UserTypeShipper = "shipper" // Путешественник, предлагающий место в багаже
	UserTypeSender  = "sender"  // Отправитель посылки
)

// Статистика пользователя, заполняется по завершённым доставкам
type UserStats struct {
	Rating             float64 `bson:"rating" json:"rating"` // Средняя оценка 0-5
	RatingCount        int     `bson:"rating_count" json:"rating_count"`
	CompletedShipments int     `bson:"completed_shipments" json:"completed_shipments"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email        string             `bson:"email" json:"email" validate:"required,email"`
	Phone        string             `bson:"phone" json:"phone" validate:"omitempty,min=10,max=15"`
	PasswordHash string             `bson:"password_hash" json:"-"`

	// Личная информация
	FirstName  string `bson:"first_name" json:"first_name" validate:"required,min=2,max=50"`
	LastName   string `bson:"last_name" json:"last_name" validate:"required,min=2,max=50"`
	ProfilePic string `bson:"profile_pic" json:"profile_pic"`
	City       string `bson:"city" json:"city"`
	Country    string `bson:"country" json:"country"`

	// Предпочитаемая роль (пользователь может выступать в обеих)
	UserType string `bson:"user_type" json:"user_type" validate:"omitempty,oneof=shipper sender"`

	// Статистика и доверие
	Stats      UserStats `bson:"stats" json:"stats"`
	IsVerified bool      `bson:"is_verified" json:"is_verified"` // Подтверждён документами
	IsBlocked  bool      `bson:"is_blocked" json:"is_blocked"`

	// Временные метки
	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updated_at"`
	LastLoginAt     *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	EmailVerifiedAt *time.Time `bson:"email_verified_at,omitempty" json:"email_verified_at,omitempty"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Email подтверждён - только таким пользователям уходят уведомления
func (u *User) HasVerifiedEmail() bool {
	return u.EmailVerifiedAt != nil
}
