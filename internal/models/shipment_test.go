package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAnnouncementAsShipment(t *testing.T) {
	weight := 3.5
	dateFrom := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	a := &Announcement{
		ID:       primitive.NewObjectID(),
		UserID:   primitive.NewObjectID(),
		From:     Location{City: "Paris", Country: "France"},
		To:       Location{City: "NYC", Country: "USA"},
		DateFrom: dateFrom,
		DateTo:   dateFrom.AddDate(0, 0, 10),
		Weight:   &weight,
		Reward:   50,
	}

	var shipment Shipment = a
	assert.Equal(t, ShipmentKindAnnouncement, shipment.ShipmentKind())
	assert.Equal(t, AlertTypeShipper, shipment.AlertTarget())
	assert.Equal(t, a.ID, shipment.ShipmentID())
	assert.Equal(t, a.UserID, shipment.OwnerID())
	assert.Equal(t, "Paris", shipment.RouteFrom().City)
	assert.Equal(t, "NYC", shipment.RouteTo().City)
	// Релевантная дата заявки - начало окна доставки
	assert.Equal(t, dateFrom, shipment.MatchDate())

	require.NotNil(t, shipment.MatchWeight())
	assert.Equal(t, 3.5, *shipment.MatchWeight())
	require.NotNil(t, shipment.MatchPrice())
	assert.Equal(t, 50.0, *shipment.MatchPrice())
}

func TestAnnouncementWithoutExactWeight(t *testing.T) {
	a := &Announcement{WeightRange: WeightRange2to5}
	assert.Nil(t, a.MatchWeight())
}

func TestTripAsShipment(t *testing.T) {
	price := 8.0
	departure := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	trip := &Trip{
		ID:          primitive.NewObjectID(),
		UserID:      primitive.NewObjectID(),
		From:        Location{City: "Paris", Country: "France"},
		To:          Location{City: "NYC", Country: "USA"},
		DateFrom:    departure,
		DateTo:      departure.AddDate(0, 0, 10),
		AvailableKg: 12,
		PricePerKg:  &price,
	}

	var shipment Shipment = trip
	assert.Equal(t, ShipmentKindTrip, shipment.ShipmentKind())
	assert.Equal(t, AlertTypeSender, shipment.AlertTarget())
	// Релевантная дата поездки - дата отправления
	assert.Equal(t, departure, shipment.MatchDate())

	require.NotNil(t, shipment.MatchWeight())
	assert.Equal(t, 12.0, *shipment.MatchWeight())
	require.NotNil(t, shipment.MatchPrice())
	assert.Equal(t, 8.0, *shipment.MatchPrice())
}

func TestTripWithoutPrice(t *testing.T) {
	trip := &Trip{AvailableKg: 5}
	assert.Nil(t, trip.MatchPrice())
}
