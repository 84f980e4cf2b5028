package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/internal/repo/postgres"
	"github.com/eazyparking/parking-bookings/pkg/config"
	"github.com/eazyparking/parking-bookings/pkg/events"
	"github.com/eazyparking/parking-bookings/pkg/logger"
)

type BookingService interface {
	// Create runs the walk-in (admin) and post-payment booking commit.
	// adminFlow selects the relaxed in-time policy.
	Create(ctx context.Context, req *domain.BookingCreateReq, adminFlow bool) (*domain.Booking, error)
	ListForUser(ctx context.Context, userID int64, scope *domain.Phase, limit, offset int) ([]domain.BookingDetail, error)
	ListForAdmin(ctx context.Context, f domain.BookingFilter, scope *domain.Phase) ([]domain.BookingDetail, error)
	CheckIn(ctx context.Context, vehicleID int64) error
	CheckOut(ctx context.Context, vehicleID int64) error
	Settle(ctx context.Context, vehicleID int64, remark string) error
	VehiclesByStatus(ctx context.Context, status domain.VehicleStatus, limit, offset int) ([]domain.Vehicle, error)
}

type bookingService struct {
	bookingRepo postgres.BookingRepo
	vehicleRepo postgres.VehicleRepo
	lotRepo     postgres.ParkingLotRepo
	userRepo    postgres.UserRepo
	catRepo     postgres.CategoryRepo
	eventBus    events.Publisher
	cfg         *config.Config
}

func NewBookingService(
	bookingRepo postgres.BookingRepo,
	vehicleRepo postgres.VehicleRepo,
	lotRepo postgres.ParkingLotRepo,
	userRepo postgres.UserRepo,
	catRepo postgres.CategoryRepo,
	eventBus events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		vehicleRepo: vehicleRepo,
		lotRepo:     lotRepo,
		userRepo:    userRepo,
		catRepo:     catRepo,
		eventBus:    eventBus,
		cfg:         cfg,
	}
}

// validateInTime applies the booking lead-time policy. The admin walk-in
// flow may book "now or future"; the user flow needs a minimum lead time.
func (s *bookingService) validateInTime(inTime, now time.Time, adminFlow bool) error {
	if adminFlow && s.cfg.Booking.AllowImmediateAdmin {
		if inTime.Before(now.Add(-time.Minute)) {
			return fmt.Errorf("%w: in_time must not be in the past", domain.ErrInvalidInput)
		}
		return nil
	}
	if inTime.Before(now.Add(s.cfg.Booking.MinLeadTime)) {
		return fmt.Errorf("%w: in_time must be at least %s in the future",
			domain.ErrInvalidInput, s.cfg.Booking.MinLeadTime)
	}
	return nil
}

func (s *bookingService) Create(ctx context.Context, req *domain.BookingCreateReq, adminFlow bool) (*domain.Booking, error) {
	if err := s.validateInTime(req.InTime, time.Now(), adminFlow); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if _, err := s.catRepo.GetByID(ctx, req.CategoryID); err != nil {
		return nil, fmt.Errorf("lookup vehicle category: %w", err)
	}
	lot, err := s.lotRepo.GetByID(ctx, req.ParkingLotID)
	if err != nil {
		return nil, fmt.Errorf("lookup parking lot: %w", err)
	}

	booking, err := s.bookingRepo.Create(ctx, req, uuid.NewString())
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, booking, user, lot, req)
	return booking, nil
}

func (s *bookingService) publishCreated(ctx context.Context, b *domain.Booking, u *domain.User, lot *domain.ParkingLot, req *domain.BookingCreateReq) {
	event := events.BookingCreatedEvent{
		BookingID:    b.ID,
		BookRef:      b.BookRef,
		UserID:       u.ID,
		UserEmail:    u.Email,
		UserName:     u.FullName(),
		ParkingLotID: lot.ID,
		Location:     lot.Location,
		Registration: req.RegistrationNumber,
		InTime:       req.InTime,
		CreatedAt:    b.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "failed to publish booking created event", "error", err, "booking_id", b.ID)
	}
}

// filterByPhase keeps only bookings in the requested phase. Classification
// is derived per read, so this cannot be pushed into SQL.
func filterByPhase(ds []domain.BookingDetail, scope *domain.Phase) []domain.BookingDetail {
	if scope == nil {
		return ds
	}
	out := make([]domain.BookingDetail, 0, len(ds))
	for _, d := range ds {
		if d.Phase == *scope {
			out = append(out, d)
		}
	}
	return out
}

func (s *bookingService) ListForUser(ctx context.Context, userID int64, scope *domain.Phase, limit, offset int) ([]domain.BookingDetail, error) {
	ds, err := s.bookingRepo.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return filterByPhase(ds, scope), nil
}

func (s *bookingService) ListForAdmin(ctx context.Context, f domain.BookingFilter, scope *domain.Phase) ([]domain.BookingDetail, error) {
	ds, err := s.bookingRepo.ListForAdmin(ctx, f)
	if err != nil {
		return nil, err
	}
	return filterByPhase(ds, scope), nil
}

func (s *bookingService) CheckIn(ctx context.Context, vehicleID int64) error {
	if err := s.vehicleRepo.CheckIn(ctx, vehicleID); err != nil {
		return err
	}
	s.publishTransition(ctx, vehicleID, domain.VehicleIn, events.VehicleCheckedIn)
	return nil
}

func (s *bookingService) CheckOut(ctx context.Context, vehicleID int64) error {
	if err := s.vehicleRepo.CheckOut(ctx, vehicleID); err != nil {
		return err
	}
	s.publishTransition(ctx, vehicleID, domain.VehicleOut, events.VehicleCheckedOut)
	return nil
}

func (s *bookingService) Settle(ctx context.Context, vehicleID int64, remark string) error {
	if err := s.vehicleRepo.Settle(ctx, vehicleID, remark); err != nil {
		return err
	}

	event := events.BookingSettledEvent{
		VehicleID: vehicleID,
		Remark:    remark,
		SettledAt: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.BookingSettled, event); err != nil {
		logger.ErrorContext(ctx, "failed to publish booking settled event", "error", err, "vehicle_id", vehicleID)
	}
	return nil
}

func (s *bookingService) publishTransition(ctx context.Context, vehicleID int64, status domain.VehicleStatus, subject string) {
	event := events.VehicleTransitionEvent{
		VehicleID: vehicleID,
		Status:    string(status),
		At:        time.Now(),
	}
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "failed to publish vehicle transition event", "error", err, "vehicle_id", vehicleID)
	}
}

func (s *bookingService) VehiclesByStatus(ctx context.Context, status domain.VehicleStatus, limit, offset int) ([]domain.Vehicle, error) {
	return s.vehicleRepo.ListByStatus(ctx, status, limit, offset)
}
