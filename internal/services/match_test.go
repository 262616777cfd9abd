package services

import (
	"testing"
	"time"

	"travelship-backend/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testAnnouncement(fromCity, toCity, dateFrom, dateTo string) *models.Announcement {
	return &models.Announcement{
		UserType: models.UserTypeSender,
		From:     models.Location{City: fromCity, Country: "France"},
		To:       models.Location{City: toCity, Country: "USA"},
		DateFrom: date(dateFrom),
		DateTo:   date(dateTo),
		Status:   models.AnnouncementStatusActive,
	}
}

func testTrip(fromCity, toCity, dateFrom, dateTo string) *models.Trip {
	return &models.Trip{
		From:        models.Location{City: fromCity, Country: "France"},
		To:          models.Location{City: toCity, Country: "USA"},
		DateFrom:    date(dateFrom),
		DateTo:      date(dateTo),
		AvailableKg: 10,
		Status:      models.TripStatusActive,
	}
}

func testUser(rating float64, verified bool) *models.User {
	return &models.User{
		FirstName:  "Test",
		LastName:   "User",
		Stats:      models.UserStats{Rating: rating},
		IsVerified: verified,
	}
}

func newTestMatchService() *MatchService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewMatchService(nil, nil, nil, logger)
}

func TestScore(t *testing.T) {
	s := newTestMatchService()

	tests := []struct {
		name         string
		announcement *models.Announcement
		trip         *models.Trip
		counterpart  *models.User
		want         int
	}{
		{
			name:         "full match with perfect counterpart",
			announcement: testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10"),
			trip:         testTrip("Paris", "NYC", "2025-06-05", "2025-06-15"),
			counterpart:  testUser(5, true),
			want:         100,
		},
		{
			name:         "overlapping dates rating four verified",
			announcement: testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10"),
			trip:         testTrip("Paris", "NYC", "2025-06-05", "2025-06-15"),
			counterpart:  testUser(4, true),
			want:         96, // 20+20+30+16+10
		},
		{
			name:         "same cities non-overlapping dates",
			announcement: testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10"),
			trip:         testTrip("Paris", "NYC", "2025-06-11", "2025-06-20"),
			counterpart:  testUser(4, true),
			want:         66, // 20+20+0+16+10
		},
		{
			name:         "no city match at all",
			announcement: testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10"),
			trip:         testTrip("Lyon", "Boston", "2025-06-05", "2025-06-15"),
			counterpart:  testUser(0, false),
			want:         30,
		},
		{
			name:         "city comparison is case-sensitive",
			announcement: testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10"),
			trip:         testTrip("paris", "nyc", "2025-06-05", "2025-06-15"),
			counterpart:  testUser(0, false),
			want:         30,
		},
		{
			name:         "only destination matches",
			announcement: testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10"),
			trip:         testTrip("Lyon", "NYC", "2025-06-20", "2025-06-25"),
			counterpart:  testUser(0, false),
			want:         20,
		},
		{
			name:         "touching boundary counts as overlap",
			announcement: testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10"),
			trip:         testTrip("Paris", "NYC", "2025-06-10", "2025-06-20"),
			counterpart:  testUser(0, false),
			want:         70, // 20+20+30
		},
		{
			name:         "rating above five is capped at twenty points",
			announcement: testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10"),
			trip:         testTrip("Paris", "NYC", "2025-06-05", "2025-06-15"),
			counterpart:  testUser(7, true),
			want:         100,
		},
		{
			name:         "nil counterpart scores without profile points",
			announcement: testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10"),
			trip:         testTrip("Paris", "NYC", "2025-06-05", "2025-06-15"),
			counterpart:  nil,
			want:         70,
		},
		{
			name:         "zero rating unverified counterpart",
			announcement: testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10"),
			trip:         testTrip("Paris", "NYC", "2025-06-05", "2025-06-15"),
			counterpart:  testUser(0, false),
			want:         70,
		},
		{
			name:         "fractional rating truncates",
			announcement: testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10"),
			trip:         testTrip("Paris", "NYC", "2025-06-05", "2025-06-15"),
			counterpart:  testUser(4.6, false),
			want:         88, // 20+20+30+18
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.announcement, tt.trip, tt.counterpart)
			assert.Equal(t, tt.want, got)

			// Оценка всегда остаётся в допустимом диапазоне
			require.GreaterOrEqual(t, got, 0)
			require.LessOrEqual(t, got, ScoreMax)
		})
	}
}

func TestScorePerfectRequiresAllComponents(t *testing.T) {
	s := newTestMatchService()

	a := testAnnouncement("Paris", "NYC", "2025-06-01", "2025-06-10")
	trip := testTrip("Paris", "NYC", "2025-06-05", "2025-06-15")

	// Каждое ослабление условия убирает 100 из достижимых
	assert.Equal(t, 100, s.Score(a, trip, testUser(5, true)))
	assert.Less(t, s.Score(a, trip, testUser(5, false)), 100)
	assert.Less(t, s.Score(a, trip, testUser(4.9, true)), 100)

	late := testTrip("Paris", "NYC", "2025-07-01", "2025-07-10")
	assert.Less(t, s.Score(a, late, testUser(5, true)), 100)

	otherCity := testTrip("Lyon", "NYC", "2025-06-05", "2025-06-15")
	assert.Less(t, s.Score(a, otherCity, testUser(5, true)), 100)
}

func TestDatesOverlap(t *testing.T) {
	tests := []struct {
		name                   string
		aFrom, aTo, tFrom, tTo string
		want                   bool
	}{
		{"full containment", "2025-06-01", "2025-06-30", "2025-06-10", "2025-06-15", true},
		{"partial overlap", "2025-06-01", "2025-06-10", "2025-06-05", "2025-06-15", true},
		{"touching at announcement end", "2025-06-01", "2025-06-10", "2025-06-10", "2025-06-20", true},
		{"touching at announcement start", "2025-06-10", "2025-06-20", "2025-06-01", "2025-06-10", true},
		{"trip entirely after", "2025-06-01", "2025-06-10", "2025-06-11", "2025-06-20", false},
		{"trip entirely before", "2025-06-11", "2025-06-20", "2025-06-01", "2025-06-10", false},
		{"identical intervals", "2025-06-01", "2025-06-10", "2025-06-01", "2025-06-10", true},
		{"single day both", "2025-06-01", "2025-06-01", "2025-06-01", "2025-06-01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DatesOverlap(date(tt.aFrom), date(tt.aTo), date(tt.tFrom), date(tt.tTo))
			assert.Equal(t, tt.want, got)
		})
	}
}
