package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/pkg/auth"
	"github.com/eazyparking/parking-bookings/pkg/events"
)

func (f *fixture) paymentService(provider *mockProvider) PaymentService {
	return NewPaymentService(provider, f.bookings, f.lots, f.users, f.cats, f.bus, f.cfg)
}

func checkoutReq(inTime time.Time) *domain.CheckoutReq {
	return &domain.CheckoutReq{
		ParkingLotID:       1,
		CategoryID:         1,
		CompanyName:        "Acme Logistics",
		RegistrationNumber: "KA01AB1234",
		InTime:             inTime,
	}
}

func signedToken(t *testing.T, f *fixture, inTime time.Time) string {
	t.Helper()
	token, _, err := auth.NewPaymentToken(auth.PaymentClaims{
		UserID:             1,
		ParkingLotID:       1,
		RegistrationNumber: "KA01AB1234",
		CategoryID:         1,
		CompanyName:        "Acme Logistics",
		InTime:             inTime,
	}, f.cfg.Auth.JWTSecret, f.cfg.Booking.PaymentTokenTTL)
	require.NoError(t, err)
	return token
}

func TestInitiateCheckoutIssuesSignedSession(t *testing.T) {
	f := newFixture(&domain.ParkingLot{ID: 1, Location: "MG Road", Price: 120, TotalSlot: 5})
	provider := &mockProvider{}
	svc := f.paymentService(provider)
	inTime := time.Now().Add(2 * time.Hour).Truncate(time.Second)

	session, err := svc.InitiateCheckout(context.Background(), 1, checkoutReq(inTime))
	require.NoError(t, err)
	assert.NotEmpty(t, session.URL)

	require.Len(t, provider.sessions, 1)
	in := provider.sessions[0]
	assert.Equal(t, int64(12000), in.AmountMinor)
	assert.Equal(t, "inr", in.Currency)

	// The token rides through session metadata and the success URL, and
	// must carry everything needed to commit the booking later.
	token := in.Metadata["token"]
	require.NotEmpty(t, token)
	assert.True(t, strings.Contains(in.SuccessURL, "token="+token))

	claims, err := auth.ParsePaymentToken(token, f.cfg.Auth.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, int64(1), claims.ParkingLotID)
	assert.Equal(t, "KA01AB1234", claims.RegistrationNumber)
	assert.True(t, claims.InTime.Equal(inTime))
	assert.NotEmpty(t, claims.ID)

	// Checkout alone holds nothing.
	assert.Equal(t, 0, f.lots.booked(1))
	assert.Equal(t, 0, f.bookings.count())
}

func TestInitiateCheckoutFullLot(t *testing.T) {
	f := newFixture(&domain.ParkingLot{ID: 1, Location: "MG Road", Price: 120, TotalSlot: 2, BookedSlot: 2})
	provider := &mockProvider{}
	svc := f.paymentService(provider)

	_, err := svc.InitiateCheckout(context.Background(), 1, checkoutReq(time.Now().Add(2*time.Hour)))
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Empty(t, provider.sessions)
}

func TestInitiateCheckoutLeadTime(t *testing.T) {
	f := newFixture(&domain.ParkingLot{ID: 1, Location: "MG Road", Price: 120, TotalSlot: 5})
	provider := &mockProvider{}
	svc := f.paymentService(provider)

	_, err := svc.InitiateCheckout(context.Background(), 1, checkoutReq(time.Now()))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, provider.sessions)
}

func TestInitiateCheckoutProviderDown(t *testing.T) {
	f := newFixture(&domain.ParkingLot{ID: 1, Location: "MG Road", Price: 120, TotalSlot: 5})
	provider := &mockProvider{err: context.DeadlineExceeded}
	svc := f.paymentService(provider)

	_, err := svc.InitiateCheckout(context.Background(), 1, checkoutReq(time.Now().Add(2*time.Hour)))
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestConfirmCommitsBookingExactlyOnce(t *testing.T) {
	f := newFixture(&domain.ParkingLot{ID: 1, Location: "MG Road", Price: 120, TotalSlot: 5})
	svc := f.paymentService(&mockProvider{})
	token := signedToken(t, f, time.Now().Add(2*time.Hour))

	res, err := svc.Confirm(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	require.NotNil(t, res.Booking)
	require.NotNil(t, res.Booking.PaymentID)
	assert.Equal(t, int64(120), res.Booking.Amount)
	assert.Equal(t, 1, f.lots.booked(1))
	assert.Equal(t, 1, f.bookings.count())
	assert.True(t, f.bus.published(events.PaymentCaptured))
	assert.True(t, f.bus.published(events.BookingCreated))

	// A replayed confirmation must not book again.
	_, err = svc.Confirm(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrTokenAlreadyUsed)
	assert.Equal(t, 1, f.lots.booked(1))
	assert.Equal(t, 1, f.bookings.count())
}

func TestConfirmConcurrentReplay(t *testing.T) {
	f := newFixture(&domain.ParkingLot{ID: 1, Location: "MG Road", Price: 120, TotalSlot: 5})
	svc := f.paymentService(&mockProvider{})
	token := signedToken(t, f, time.Now().Add(2*time.Hour))

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Confirm(context.Background(), token)
			errs <- err
		}()
	}

	var ok, replayed int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrTokenAlreadyUsed):
			replayed++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, replayed)
	assert.Equal(t, 1, f.bookings.count())
}

func TestConfirmCapacityGoneAfterPayment(t *testing.T) {
	f := newFixture(&domain.ParkingLot{ID: 1, Location: "MG Road", Price: 120, TotalSlot: 1, BookedSlot: 1})
	svc := f.paymentService(&mockProvider{})
	token := signedToken(t, f, time.Now().Add(2*time.Hour))

	_, err := svc.Confirm(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Equal(t, 0, f.bookings.count())
	assert.True(t, f.bus.published(events.PaymentCapacityConflict))

	// The token stays unconsumed; a retry reports the same conflict, not a
	// replay.
	_, err = svc.Confirm(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
}

func TestConfirmRejectsBadTokens(t *testing.T) {
	f := newFixture(&domain.ParkingLot{ID: 1, Location: "MG Road", Price: 120, TotalSlot: 5})
	svc := f.paymentService(&mockProvider{})

	_, err := svc.Confirm(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	f.cfg.Booking.PaymentTokenTTL = time.Nanosecond
	token := signedToken(t, f, time.Now().Add(2*time.Hour))
	time.Sleep(10 * time.Millisecond)
	_, err = svc.Confirm(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	assert.Equal(t, 0, f.bookings.count())
}

func TestWebhookAcksUnconfirmableTokens(t *testing.T) {
	f := newFixture(&domain.ParkingLot{ID: 1, Location: "MG Road", Price: 120, TotalSlot: 5})
	svc := f.paymentService(&mockProvider{})

	// A completed session whose token outlived its TTL cannot be
	// confirmed by any number of retries; the webhook must still 2xx.
	f.cfg.Booking.PaymentTokenTTL = time.Nanosecond
	expired := signedToken(t, f, time.Now().Add(2*time.Hour))
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(expired), "sig"))
	assert.Equal(t, 0, f.bookings.count())

	// Same for a token that never parses at all.
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("not-a-token"), "sig"))
	assert.Equal(t, 0, f.bookings.count())
}

func TestWebhookReplayIsAcknowledged(t *testing.T) {
	f := newFixture(&domain.ParkingLot{ID: 1, Location: "MG Road", Price: 120, TotalSlot: 5})
	svc := f.paymentService(&mockProvider{})
	token := signedToken(t, f, time.Now().Add(2*time.Hour))

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(token), "sig"))
	assert.Equal(t, 1, f.bookings.count())

	// Stripe retries until it gets a 2xx; the replay must be a no-op.
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(token), "sig"))
	assert.Equal(t, 1, f.bookings.count())
}
