package bookings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-scheduler/internal/catalog"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// 2026-10-19 is a Monday.
const (
	testMonday = "2026-10-19"
	testSunday = "2026-10-18"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	reg, err := catalog.NewRegistry(
		[]catalog.Service{
			{ID: "cut", Name: "Corte Feminino", Category: catalog.CategoryHair, DurationMinutes: 60, Price: 80},
			{ID: "mani", Name: "Manicure", Category: catalog.CategoryNails, DurationMinutes: 45, Price: 35},
		},
		[]catalog.Staff{
			{
				ID:               "ana",
				Name:             "Ana",
				Specialties:      []catalog.Category{catalog.CategoryHair},
				WorkingHours:     catalog.WorkingHours{Start: "09:00", End: "17:00"},
				WorkingDays:      []int{1, 2, 3, 4, 5},
				CalendarIdentity: "ana@salon.test",
			},
			{
				ID:           "bia",
				Name:         "Bia",
				Specialties:  []catalog.Category{catalog.CategoryHair, catalog.CategoryNails},
				WorkingHours: catalog.WorkingHours{Start: "10:00", End: "12:15"},
				WorkingDays:  []int{1},
			},
		},
		nil,
	)
	require.NoError(t, err)
	return reg
}

func testDay(t *testing.T, date string) time.Time {
	t.Helper()
	day, err := time.ParseInLocation(time.DateOnly, date, time.UTC)
	require.NoError(t, err)
	return day
}

func testLogger() *logging.Logger {
	return logging.New("error")
}

func seedBooking(t *testing.T, store Store, id, staffID, date, clock string, status Status) Booking {
	t.Helper()
	b := Booking{
		ID:          id,
		ClientName:  "Cliente " + id,
		ClientPhone: "11999990000",
		Service:     catalog.Service{ID: "cut", Name: "Corte Feminino", Category: catalog.CategoryHair, DurationMinutes: 60, Price: 80},
		Staff:       catalog.Staff{ID: staffID, Name: staffID},
		Date:        date,
		Time:        clock,
		Status:      status,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
	require.NoError(t, store.Insert(t.Context(), b))
	return b
}

func catalogHours(start, end string) catalog.WorkingHours {
	return catalog.WorkingHours{Start: start, End: end}
}
