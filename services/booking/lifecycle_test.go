package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskora/models"
	"taskora/utils"
)

// lifecycleEnv seeds a provider, a 10% commission category and its service.
func lifecycleEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	env := newTestEnv(now)
	env.provs.put(models.Provider{
		ID:      "p-1",
		Profile: models.Profile{Name: "Cleaner", Rating: 4.0},
	})
	env.catalog.putCategory(models.Category{
		ID: "home-cleaning",
		Commission: models.CommissionRule{
			Type: models.CommissionPercentage, Value: 10,
		},
	})
	env.catalog.putService(models.Service{
		ID: "svc-1", ProviderID: "p-1", CategoryID: "home-cleaning",
		Duration: 90, Price: 1000, Active: true,
	})
	return env
}

func seedBooking(env *testEnv, id string, status models.BookingStatus, pay models.PaymentStatus) models.Booking {
	b := models.Booking{
		ID:         id,
		ProviderID: "p-1",
		UserID:     "u-1",
		ServiceID:  "svc-1",
		Date:       "2026-09-07",
		Time:       "10:00 AM",
		Duration:   90,
		Start:      600,
		End:        690,
		Amount:     1000,
		Status:     status,
	}
	b.PaymentStatus = pay
	env.bookings.put(b)
	return b
}

func transition(env *testEnv, id string, action models.TransitionAction, actor models.TransitionActor) (*TransitionResult, error) {
	return env.engine.Transition(context.Background(), TransitionRequest{
		BookingID: id, Action: action, Actor: actor,
	})
}

func TestConfirmBooking(t *testing.T) {
	env := lifecycleEnv(t, time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local))
	seedBooking(env, "b-1", models.BookingPending, models.PaymentUnpaid)

	res, err := transition(env, "b-1", models.ActionConfirm, models.ActorCustomer)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, res.Status)

	b, err := env.bookings.GetByID("b-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, b.PaymentStatus)
	assert.Equal(t, 100.0, b.Commission)
	assert.Equal(t, 900.0, b.ProviderAmount)
}

func TestConfirmRejectsNonPending(t *testing.T) {
	env := lifecycleEnv(t, time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local))
	for _, status := range []models.BookingStatus{
		models.BookingConfirmed, models.BookingInProgress,
		models.BookingCompleted, models.BookingCancelled, models.BookingExpired,
	} {
		seedBooking(env, "b-"+string(status), status, models.PaymentUnpaid)
		_, err := transition(env, "b-"+string(status), models.ActionConfirm, models.ActorCustomer)
		assert.True(t, IsState(err), "confirm from %s", status)
	}
}

func TestStartRespectsGraceWindow(t *testing.T) {
	// Booking starts 10:00 AM on 2026-09-07; the provider may start it from
	// 09:55 onward.
	env := lifecycleEnv(t, time.Date(2026, 9, 7, 9, 50, 0, 0, time.Local))
	seedBooking(env, "b-1", models.BookingConfirmed, models.PaymentPaid)

	_, err := transition(env, "b-1", models.ActionStart, models.ActorProvider)
	assert.True(t, IsState(err))

	env.engine.Clock = func() time.Time { return time.Date(2026, 9, 7, 9, 56, 0, 0, time.Local) }
	res, err := transition(env, "b-1", models.ActionStart, models.ActorProvider)
	require.NoError(t, err)
	assert.Equal(t, models.BookingInProgress, res.Status)
}

func TestStartRejectsNonConfirmed(t *testing.T) {
	env := lifecycleEnv(t, time.Date(2026, 9, 7, 10, 0, 0, 0, time.Local))
	seedBooking(env, "b-1", models.BookingPending, models.PaymentUnpaid)
	_, err := transition(env, "b-1", models.ActionStart, models.ActorProvider)
	assert.True(t, IsState(err))
}

func TestCancelRefunds(t *testing.T) {
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local)

	t.Run("customer cancelling a confirmed booking gets half back", func(t *testing.T) {
		env := lifecycleEnv(t, now)
		seedBooking(env, "b-1", models.BookingConfirmed, models.PaymentPaid)

		res, err := transition(env, "b-1", models.ActionCancel, models.ActorCustomer)
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, res.Status)
		assert.Equal(t, 500.0, env.wallets.balance("u-1"))

		b, _ := env.bookings.GetByID("b-1")
		assert.Equal(t, models.PaymentRefunded, b.PaymentStatus)
	})

	t.Run("provider cancelling refunds in full", func(t *testing.T) {
		env := lifecycleEnv(t, now)
		seedBooking(env, "b-1", models.BookingConfirmed, models.PaymentPaid)

		_, err := transition(env, "b-1", models.ActionCancel, models.ActorProvider)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, env.wallets.balance("u-1"))
	})

	t.Run("customer cancelling before confirmation pays nothing", func(t *testing.T) {
		env := lifecycleEnv(t, now)
		seedBooking(env, "b-1", models.BookingPending, models.PaymentUnpaid)

		_, err := transition(env, "b-1", models.ActionCancel, models.ActorCustomer)
		require.NoError(t, err)
		assert.Equal(t, 0.0, env.wallets.balance("u-1"))
	})

	t.Run("in-progress cancellation refunds in full regardless of actor", func(t *testing.T) {
		env := lifecycleEnv(t, now)
		seedBooking(env, "b-1", models.BookingInProgress, models.PaymentPaid)

		_, err := transition(env, "b-1", models.ActionCancel, models.ActorCustomer)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, env.wallets.balance("u-1"))
	})
}

func TestCancelIsIdempotent(t *testing.T) {
	env := lifecycleEnv(t, time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local))
	seedBooking(env, "b-1", models.BookingConfirmed, models.PaymentPaid)

	_, err := transition(env, "b-1", models.ActionCancel, models.ActorCustomer)
	require.NoError(t, err)
	balance := env.wallets.balance("u-1")

	res, err := transition(env, "b-1", models.ActionCancel, models.ActorCustomer)
	require.NoError(t, err)
	assert.True(t, res.AlreadyCancelled)
	assert.Equal(t, balance, env.wallets.balance("u-1"))
}

func TestCancelRetriesRefundAfterWalletFailure(t *testing.T) {
	env := lifecycleEnv(t, time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local))
	seedBooking(env, "b-1", models.BookingConfirmed, models.PaymentPaid)
	env.wallets.setApplyErr(errors.New("wallet store down"))

	_, err := transition(env, "b-1", models.ActionCancel, models.ActorCustomer)
	require.Error(t, err)

	// The booking resolved, but the money side stayed open for a retry.
	b, _ := env.bookings.GetByID("b-1")
	assert.Equal(t, models.BookingCancelled, b.Status)
	assert.Equal(t, models.PaymentPaid, b.PaymentStatus)
	assert.Equal(t, 500.0, b.RefundDue)
	assert.Equal(t, 0.0, env.wallets.balance("u-1"))

	env.wallets.setApplyErr(nil)
	res, err := transition(env, "b-1", models.ActionCancel, models.ActorCustomer)
	require.NoError(t, err)
	assert.True(t, res.AlreadyCancelled)
	assert.Equal(t, 500.0, env.wallets.balance("u-1"))

	b, _ = env.bookings.GetByID("b-1")
	assert.Equal(t, models.PaymentRefunded, b.PaymentStatus)

	// A third cancel must not credit again.
	_, err = transition(env, "b-1", models.ActionCancel, models.ActorCustomer)
	require.NoError(t, err)
	assert.Equal(t, 500.0, env.wallets.balance("u-1"))
}

func TestCancelRejectsCompletedAndExpired(t *testing.T) {
	env := lifecycleEnv(t, time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local))
	seedBooking(env, "b-done", models.BookingCompleted, models.PaymentPaid)
	seedBooking(env, "b-gone", models.BookingExpired, models.PaymentRefunded)

	_, err := transition(env, "b-done", models.ActionCancel, models.ActorCustomer)
	assert.True(t, IsState(err))
	_, err = transition(env, "b-gone", models.ActionCancel, models.ActorCustomer)
	assert.True(t, IsState(err))
}

// completionCode digs the one-time code out of the recorded email body.
func completionCode(t *testing.T, env *testEnv) string {
	t.Helper()
	mail, ok := env.notify.lastUserEmail()
	require.True(t, ok, "no completion email recorded")
	fields := strings.Fields(mail.Body)
	require.GreaterOrEqual(t, len(fields), 5)
	return strings.TrimSuffix(fields[4], ".")
}

func TestCompletionHappyPath(t *testing.T) {
	env := lifecycleEnv(t, time.Date(2026, 9, 7, 12, 0, 0, 0, time.Local))
	b := seedBooking(env, "b-1", models.BookingInProgress, models.PaymentPaid)
	require.NoError(t, env.bookings.SetSettlement(context.Background(), b.ID, 100, 900))

	res, err := transition(env, "b-1", models.ActionRequestCompletion, models.ActorProvider)
	require.NoError(t, err)
	require.NotEmpty(t, res.CompletionToken)
	assert.Equal(t, models.BookingInProgress, res.Status)

	code := completionCode(t, env)
	res, err = env.engine.Transition(context.Background(), TransitionRequest{
		BookingID: "b-1",
		Action:    models.ActionConfirmCompletion,
		Actor:     models.ActorProvider,
		Token:     res.CompletionToken,
		Code:      code,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, res.Status)

	// Provider payout: wallet credit plus earnings aggregates.
	assert.Equal(t, 900.0, env.wallets.balance("p-1"))
	p, _ := env.provs.GetByID("p-1")
	assert.Equal(t, 900.0, p.TotalEarnings)
	assert.Equal(t, 1, p.CompletedBookings)

	history, err := env.wallets.History("p-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.SourcePayment, history[0].Source)
}

func TestCompletionRejectsWrongCode(t *testing.T) {
	env := lifecycleEnv(t, time.Date(2026, 9, 7, 12, 0, 0, 0, time.Local))
	seedBooking(env, "b-1", models.BookingInProgress, models.PaymentPaid)

	res, err := transition(env, "b-1", models.ActionRequestCompletion, models.ActorProvider)
	require.NoError(t, err)

	_, err = env.engine.Transition(context.Background(), TransitionRequest{
		BookingID: "b-1",
		Action:    models.ActionConfirmCompletion,
		Actor:     models.ActorProvider,
		Token:     res.CompletionToken,
		Code:      "WRONG0",
	})
	assert.True(t, IsVerification(err))

	b, _ := env.bookings.GetByID("b-1")
	assert.Equal(t, models.BookingInProgress, b.Status)
	assert.Equal(t, 0.0, env.wallets.balance("p-1"))
}

func TestCompletionRejectsExpiredToken(t *testing.T) {
	env := lifecycleEnv(t, time.Date(2026, 9, 7, 12, 0, 0, 0, time.Local))
	seedBooking(env, "b-1", models.BookingInProgress, models.PaymentPaid)

	token, err := utils.GenerateCompletionToken("b-1", utils.HashCode("123456"), -time.Minute)
	require.NoError(t, err)

	_, err = env.engine.Transition(context.Background(), TransitionRequest{
		BookingID: "b-1",
		Action:    models.ActionConfirmCompletion,
		Actor:     models.ActorProvider,
		Token:     token,
		Code:      "123456",
	})
	assert.True(t, IsVerification(err))
}

func TestCompletionRejectsTokenForOtherBooking(t *testing.T) {
	env := lifecycleEnv(t, time.Date(2026, 9, 7, 12, 0, 0, 0, time.Local))
	seedBooking(env, "b-1", models.BookingInProgress, models.PaymentPaid)
	seedBooking(env, "b-2", models.BookingInProgress, models.PaymentPaid)

	res, err := transition(env, "b-2", models.ActionRequestCompletion, models.ActorProvider)
	require.NoError(t, err)
	code := completionCode(t, env)

	_, err = env.engine.Transition(context.Background(), TransitionRequest{
		BookingID: "b-1",
		Action:    models.ActionConfirmCompletion,
		Actor:     models.ActorProvider,
		Token:     res.CompletionToken,
		Code:      code,
	})
	assert.True(t, IsVerification(err))
}

func TestRequestCompletionRequiresInProgress(t *testing.T) {
	env := lifecycleEnv(t, time.Date(2026, 9, 7, 12, 0, 0, 0, time.Local))
	seedBooking(env, "b-1", models.BookingConfirmed, models.PaymentPaid)
	_, err := transition(env, "b-1", models.ActionRequestCompletion, models.ActorProvider)
	assert.True(t, IsState(err))
}

func TestCompletionRecomputesMissingSettlement(t *testing.T) {
	// A booking confirmed before settlement storage was in place still pays
	// out correctly.
	env := lifecycleEnv(t, time.Date(2026, 9, 7, 12, 0, 0, 0, time.Local))
	seedBooking(env, "b-1", models.BookingInProgress, models.PaymentPaid)

	res, err := transition(env, "b-1", models.ActionRequestCompletion, models.ActorProvider)
	require.NoError(t, err)
	code := completionCode(t, env)

	_, err = env.engine.Transition(context.Background(), TransitionRequest{
		BookingID: "b-1",
		Action:    models.ActionConfirmCompletion,
		Actor:     models.ActorProvider,
		Token:     res.CompletionToken,
		Code:      code,
	})
	require.NoError(t, err)
	assert.Equal(t, 900.0, env.wallets.balance("p-1"))
}

func TestTransitionUnknownBookingAndAction(t *testing.T) {
	env := lifecycleEnv(t, time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local))
	seedBooking(env, "b-1", models.BookingPending, models.PaymentUnpaid)

	_, err := transition(env, "b-ghost", models.ActionConfirm, models.ActorCustomer)
	assert.True(t, IsNotFound(err))

	_, err = transition(env, "b-1", "teleport", models.ActorCustomer)
	assert.True(t, IsValidation(err))
}
