package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/internal/platform/payments"
	"github.com/eazyparking/parking-bookings/internal/repo/postgres"
	"github.com/eazyparking/parking-bookings/pkg/auth"
	"github.com/eazyparking/parking-bookings/pkg/config"
	"github.com/eazyparking/parking-bookings/pkg/events"
	"github.com/eazyparking/parking-bookings/pkg/logger"
)

// ConfirmResult is what the verify endpoint returns to the frontend.
type ConfirmResult struct {
	Status  string          `json:"status"` // success or failed
	Booking *domain.Booking `json:"booking,omitempty"`
}

type PaymentService interface {
	// InitiateCheckout validates availability and creates a provider
	// checkout session carrying a signed single-use token. No slot is
	// reserved yet: abandoned checkouts must not starve capacity, at the
	// cost of a late race handled in Confirm.
	InitiateCheckout(ctx context.Context, userID int64, req *domain.CheckoutReq) (*payments.CheckoutSession, error)
	// Confirm consumes the token exactly once, reserves a slot and
	// commits the booking atomically.
	Confirm(ctx context.Context, token string) (*ConfirmResult, error)
	// HandleWebhook verifies and dispatches a provider callback.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	provider    payments.Provider
	bookingRepo postgres.BookingRepo
	lotRepo     postgres.ParkingLotRepo
	userRepo    postgres.UserRepo
	catRepo     postgres.CategoryRepo
	eventBus    events.Publisher
	cfg         *config.Config
}

func NewPaymentService(
	provider payments.Provider,
	bookingRepo postgres.BookingRepo,
	lotRepo postgres.ParkingLotRepo,
	userRepo postgres.UserRepo,
	catRepo postgres.CategoryRepo,
	eventBus events.Publisher,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		provider:    provider,
		bookingRepo: bookingRepo,
		lotRepo:     lotRepo,
		userRepo:    userRepo,
		catRepo:     catRepo,
		eventBus:    eventBus,
		cfg:         cfg,
	}
}

func (s *paymentService) InitiateCheckout(ctx context.Context, userID int64, req *domain.CheckoutReq) (*payments.CheckoutSession, error) {
	if req.InTime.Before(time.Now().Add(s.cfg.Booking.MinLeadTime)) {
		return nil, fmt.Errorf("%w: in_time must be at least %s in the future",
			domain.ErrInvalidInput, s.cfg.Booking.MinLeadTime)
	}

	lot, err := s.lotRepo.GetByID(ctx, req.ParkingLotID)
	if err != nil {
		return nil, fmt.Errorf("lookup parking lot: %w", err)
	}
	// Fail fast when full; no token is issued for a lot that cannot be
	// booked right now.
	if !lot.CanBook() {
		return nil, domain.ErrCapacityExceeded
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if _, err := s.catRepo.GetByID(ctx, req.CategoryID); err != nil {
		return nil, fmt.Errorf("lookup vehicle category: %w", err)
	}

	token, _, err := auth.NewPaymentToken(auth.PaymentClaims{
		UserID:             userID,
		ParkingLotID:       req.ParkingLotID,
		RegistrationNumber: req.RegistrationNumber,
		CategoryID:         req.CategoryID,
		CompanyName:        req.CompanyName,
		InTime:             req.InTime,
	}, s.cfg.Auth.JWTSecret, s.cfg.Booking.PaymentTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign payment token: %w", err)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payments.CreateSessionInput{
		ProductName: fmt.Sprintf("Booking by %s for %s at %s", user.FullName(), req.CompanyName, lot.Location),
		AmountMinor: lot.Price * 100,
		Currency:    s.cfg.Stripe.Currency,
		SuccessURL:  fmt.Sprintf("%s/booking-status?status=success&token=%s", s.cfg.Server.FrontendURL, token),
		CancelURL:   fmt.Sprintf("%s/booking-status?status=failed", s.cfg.Server.FrontendURL),
		Metadata: map[string]string{
			"token":               token,
			"user_id":             fmt.Sprint(userID),
			"parking_lot_id":      fmt.Sprint(req.ParkingLotID),
			"registration_number": req.RegistrationNumber,
		},
	})
	if err != nil {
		// Nothing was persisted; the caller may retry.
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return session, nil
}

func (s *paymentService) Confirm(ctx context.Context, token string) (*ConfirmResult, error) {
	claims, err := auth.ParsePaymentToken(token, s.cfg.Auth.JWTSecret)
	if err != nil {
		if errors.Is(err, auth.ErrPaymentTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	paymentID := claims.ID
	req := &domain.BookingCreateReq{
		UserID:             claims.UserID,
		ParkingLotID:       claims.ParkingLotID,
		CategoryID:         claims.CategoryID,
		CompanyName:        claims.CompanyName,
		RegistrationNumber: claims.RegistrationNumber,
		InTime:             claims.InTime,
		PaymentID:          &paymentID,
	}

	booking, err := s.bookingRepo.CreateConsumingToken(ctx, claims.ID, req, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			// The customer paid but the lot filled between checkout and
			// confirmation. Surface it loudly for a manual refund; the
			// transaction rolled back, so no slot is held.
			logger.ErrorContext(ctx, "payment captured but no slot available",
				"user_id", claims.UserID,
				"parking_lot_id", claims.ParkingLotID,
				"token_id", claims.ID,
			)
			conflict := events.PaymentCapacityConflictEvent{
				UserID:       claims.UserID,
				ParkingLotID: claims.ParkingLotID,
				Registration: claims.RegistrationNumber,
				InTime:       claims.InTime,
				TokenID:      claims.ID,
				OccurredAt:   time.Now(),
			}
			if perr := s.eventBus.Publish(ctx, events.PaymentCapacityConflict, conflict); perr != nil {
				logger.ErrorContext(ctx, "failed to publish capacity conflict event", "error", perr)
			}
		}
		return nil, err
	}

	captured := events.PaymentCapturedEvent{
		BookingID: booking.ID,
		SessionID: claims.ID,
		Amount:    booking.Amount * 100,
		Currency:  s.cfg.Stripe.Currency,
	}
	if err := s.eventBus.Publish(ctx, events.PaymentCaptured, captured); err != nil {
		logger.ErrorContext(ctx, "failed to publish payment captured event", "error", err, "booking_id", booking.ID)
	}

	if user, uerr := s.userRepo.FindByID(ctx, claims.UserID); uerr == nil {
		if lot, lerr := s.lotRepo.GetByID(ctx, claims.ParkingLotID); lerr == nil {
			created := events.BookingCreatedEvent{
				BookingID:    booking.ID,
				BookRef:      booking.BookRef,
				UserID:       user.ID,
				UserEmail:    user.Email,
				UserName:     user.FullName(),
				ParkingLotID: lot.ID,
				Location:     lot.Location,
				Registration: claims.RegistrationNumber,
				InTime:       claims.InTime,
				CreatedAt:    booking.CreatedAt,
			}
			if perr := s.eventBus.Publish(ctx, events.BookingCreated, created); perr != nil {
				logger.ErrorContext(ctx, "failed to publish booking created event", "error", perr, "booking_id", booking.ID)
			}
		}
	}

	return &ConfirmResult{Status: "success", Booking: booking}, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	result, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if !result.Completed {
		return nil
	}
	if result.Token == "" {
		logger.WarnContext(ctx, "completed checkout session without payment token", "session_id", result.SessionID)
		return nil
	}

	// Only transport and signature failures get a non-2xx; every settled
	// outcome is acked so Stripe stops retrying a confirmation whose
	// result cannot change.
	_, err = s.Confirm(ctx, result.Token)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrTokenAlreadyUsed):
		// Webhook retry racing a client-side verify; the booking exists.
		logger.InfoContext(ctx, "webhook replay for consumed token", "session_id", result.SessionID)
		return nil
	case errors.Is(err, domain.ErrCapacityExceeded):
		// Already logged and published by Confirm.
		return nil
	case errors.Is(err, domain.ErrTokenExpired):
		// The customer paid but the confirmation window passed. A retry
		// cannot revalidate the token; this needs a manual refund.
		logger.ErrorContext(ctx, "payment captured but token expired", "session_id", result.SessionID)
		return nil
	case errors.Is(err, domain.ErrTokenInvalid):
		logger.ErrorContext(ctx, "completed checkout session with undecodable token", "session_id", result.SessionID)
		return nil
	default:
		return err
	}
}
