package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskora/models"
)

// createEnv seeds one provider with a bookable 90-minute service.
func createEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local))
	env.provs.put(models.Provider{
		ID:           "p-1",
		Profile:      models.Profile{Name: "Cleaner", LocationGeo: geoPoint(0.01, 0)},
		Availability: calendarWith(time.Monday, models.TimeWindow{Start: "09:00", End: "17:00"}),
	})
	env.catalog.putCategory(models.Category{ID: "home-cleaning"})
	env.catalog.putService(models.Service{
		ID: "svc-1", ProviderID: "p-1", CategoryID: "home-cleaning",
		Duration: 90, Price: 120, Active: true,
	})
	return env
}

func cleanRequest() models.BookingRequest {
	return models.BookingRequest{
		ProviderID: "p-1",
		UserID:     "u-1",
		ServiceID:  "svc-1",
		Date:       "2026-09-07",
		Time:       "10:00 AM",
	}
}

func TestCreateBooking(t *testing.T) {
	env := createEnv(t)

	id, err := env.engine.CreateBooking(context.Background(), cleanRequest())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	b, err := env.bookings.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, models.PaymentUnpaid, b.PaymentStatus)
	assert.Equal(t, 600, b.Start)
	assert.Equal(t, 690, b.End)
	assert.Equal(t, 90, b.Duration)
	assert.Equal(t, 120.0, b.Amount)
}

func TestCreateBookingConflictOnOverlap(t *testing.T) {
	env := createEnv(t)
	ctx := context.Background()

	_, err := env.engine.CreateBooking(ctx, cleanRequest())
	require.NoError(t, err)

	// A half-open interval starting inside the first booking collides.
	req := cleanRequest()
	req.Time = "11:00 AM"
	_, err = env.engine.CreateBooking(ctx, req)
	assert.True(t, IsConflict(err))

	// Starting exactly at the first booking's end does not.
	req.Time = "11:30 AM"
	_, err = env.engine.CreateBooking(ctx, req)
	assert.NoError(t, err)
}

func TestCreateBookingExactDuplicateConflicts(t *testing.T) {
	env := createEnv(t)
	ctx := context.Background()

	_, err := env.engine.CreateBooking(ctx, cleanRequest())
	require.NoError(t, err)
	_, err = env.engine.CreateBooking(ctx, cleanRequest())
	assert.True(t, IsConflict(err))
}

func TestCreateBookingResolvedBookingsFreeTheSlot(t *testing.T) {
	env := createEnv(t)
	ctx := context.Background()
	env.bookings.put(models.Booking{
		ID: "b-old", ProviderID: "p-1", Date: "2026-09-07",
		Start: 600, End: 690, Status: models.BookingCancelled,
	})

	_, err := env.engine.CreateBooking(ctx, cleanRequest())
	assert.NoError(t, err)
}

func TestCreateBookingConcurrentRequestsOneWins(t *testing.T) {
	env := createEnv(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.engine.CreateBooking(context.Background(), cleanRequest())
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.True(t, IsConflict(err))
		}
	}
	assert.Equal(t, 1, winners)
}

func TestCreateBookingValidation(t *testing.T) {
	env := createEnv(t)
	ctx := context.Background()

	t.Run("bad date", func(t *testing.T) {
		req := cleanRequest()
		req.Date = "next monday"
		_, err := env.engine.CreateBooking(ctx, req)
		assert.True(t, IsValidation(err))
	})

	t.Run("bad time", func(t *testing.T) {
		req := cleanRequest()
		req.Time = "25:00"
		_, err := env.engine.CreateBooking(ctx, req)
		assert.True(t, IsValidation(err))
	})

	t.Run("unknown service", func(t *testing.T) {
		req := cleanRequest()
		req.ServiceID = "svc-ghost"
		_, err := env.engine.CreateBooking(ctx, req)
		assert.True(t, IsNotFound(err))
	})

	t.Run("service of another provider", func(t *testing.T) {
		env.catalog.putService(models.Service{
			ID: "svc-other", ProviderID: "p-2", CategoryID: "home-cleaning",
			Duration: 60, Price: 50, Active: true,
		})
		req := cleanRequest()
		req.ServiceID = "svc-other"
		_, err := env.engine.CreateBooking(ctx, req)
		assert.True(t, IsNotFound(err))
	})

	t.Run("unknown provider", func(t *testing.T) {
		env.catalog.putService(models.Service{
			ID: "svc-ghost-prov", ProviderID: "p-ghost", CategoryID: "home-cleaning",
			Duration: 60, Price: 50, Active: true,
		})
		req := cleanRequest()
		req.ProviderID = "p-ghost"
		req.ServiceID = "svc-ghost-prov"
		_, err := env.engine.CreateBooking(ctx, req)
		assert.True(t, IsNotFound(err))
	})
}
