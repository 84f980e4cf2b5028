package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eazyparking/parking-bookings/internal/domain"
)

type BookingRepo interface {
	// Create reserves a slot and inserts the vehicle and booking rows in
	// one transaction. The reservation rolls back with everything else.
	Create(ctx context.Context, in *domain.BookingCreateReq, bookRef string) (*domain.Booking, error)
	// CreateConsumingToken is Create plus a first-use check on the
	// payment token id; the jti primary key arbitrates concurrent
	// confirmation attempts.
	CreateConsumingToken(ctx context.Context, jti string, in *domain.BookingCreateReq, bookRef string) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListForUser(ctx context.Context, userID int64, limit, offset int) ([]domain.BookingDetail, error)
	ListForAdmin(ctx context.Context, f domain.BookingFilter) ([]domain.BookingDetail, error)
}

type BookingRepoImpl struct{ pool *pgxpool.Pool }

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepoImpl { return &BookingRepoImpl{pool: pool} }

const bookingCols = `id, book_ref, user_id, parking_lot_id, vehicle_id, amount, payment_id, created_at`

func (r *BookingRepoImpl) Create(ctx context.Context, in *domain.BookingCreateReq, bookRef string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	b, err := createBookingTx(ctx, tx, in, bookRef)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BookingRepoImpl) CreateConsumingToken(ctx context.Context, jti string, in *domain.BookingCreateReq, bookRef string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// First valid use wins; a replay hits the primary key and backs off.
	ct, err := tx.Exec(ctx,
		`INSERT INTO payment_tokens (jti, consumed_at) VALUES ($1, now()) ON CONFLICT (jti) DO NOTHING`, jti)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, domain.ErrTokenAlreadyUsed
	}

	b, err := createBookingTx(ctx, tx, in, bookRef)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE payment_tokens SET booking_id=$2 WHERE jti=$1`, jti, b.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func createBookingTx(ctx context.Context, tx pgx.Tx, in *domain.BookingCreateReq, bookRef string) (*domain.Booking, error) {
	if err := reserveSlot(ctx, tx, in.ParkingLotID); err != nil {
		return nil, err
	}

	var vehicleID int64
	err := tx.QueryRow(ctx,
		`INSERT INTO vehicles (registration_number, company_name, category_id, in_time, status)
VALUES ($1,$2,$3,$4,'upcoming')
RETURNING id`,
		in.RegistrationNumber, in.CompanyName, in.CategoryID, in.InTime,
	).Scan(&vehicleID)
	if err != nil {
		return nil, fmt.Errorf("insert vehicle: %w", err)
	}

	// The amount is snapshotted from the lot's current price so later
	// price edits leave past bookings untouched.
	var b domain.Booking
	err = tx.QueryRow(ctx,
		`INSERT INTO bookings (book_ref, user_id, parking_lot_id, vehicle_id, amount, payment_id)
VALUES ($1,$2,$3,$4,(SELECT price FROM parking_lots WHERE id=$3),$5)
RETURNING `+bookingCols,
		bookRef, in.UserID, in.ParkingLotID, vehicleID, in.PaymentID,
	).Scan(&b.ID, &b.BookRef, &b.UserID, &b.ParkingLotID, &b.VehicleID, &b.Amount, &b.PaymentID, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return &b, nil
}

func (r *BookingRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.Booking
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&b.ID, &b.BookRef, &b.UserID, &b.ParkingLotID, &b.VehicleID, &b.Amount, &b.PaymentID, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const detailQuery = `SELECT
  b.id, b.book_ref, b.user_id, b.parking_lot_id, b.vehicle_id, b.amount, b.payment_id, b.created_at,
  v.id, v.registration_number, v.company_name, v.category_id, v.in_time, v.out_time, v.status, COALESCE(v.remark,''), v.settled_at, v.created_at,
  p.location, p.price,
  u.id, u.first_name, u.last_name, u.email, u.mobile_number, u.created_at
FROM bookings b
JOIN vehicles v ON v.id = b.vehicle_id
JOIN parking_lots p ON p.id = b.parking_lot_id
JOIN users u ON u.id = b.user_id`

func scanDetails(rows pgx.Rows, withUser bool) ([]domain.BookingDetail, error) {
	defer rows.Close()

	now := time.Now()
	var ds []domain.BookingDetail
	for rows.Next() {
		var d domain.BookingDetail
		var u domain.UserDTO
		if err := rows.Scan(
			&d.ID, &d.BookRef, &d.UserID, &d.ParkingLotID, &d.VehicleID, &d.Amount, &d.PaymentID, &d.CreatedAt,
			&d.Vehicle.ID, &d.Vehicle.RegistrationNumber, &d.Vehicle.CompanyName, &d.Vehicle.CategoryID,
			&d.Vehicle.InTime, &d.Vehicle.OutTime, &d.Vehicle.Status, &d.Vehicle.Remark, &d.Vehicle.SettledAt, &d.Vehicle.CreatedAt,
			&d.Location, &d.Price,
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.MobileNumber, &u.RegisteredAt,
		); err != nil {
			return nil, err
		}
		d.OutTime = d.Vehicle.OutTime
		d.Phase = domain.Classify(now, d.Vehicle.InTime, d.Vehicle.OutTime)
		if withUser {
			d.User = &u
		}
		ds = append(ds, d)
	}
	return ds, rows.Err()
}

func (r *BookingRepoImpl) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]domain.BookingDetail, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const q = detailQuery + ` WHERE b.user_id=$1 ORDER BY v.in_time DESC LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanDetails(rows, false)
}

func (r *BookingRepoImpl) ListForAdmin(ctx context.Context, f domain.BookingFilter) ([]domain.BookingDetail, error) {
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	const q = detailQuery + `
WHERE ($1::bigint IS NULL OR b.user_id = $1)
  AND ($2::bigint IS NULL OR b.parking_lot_id = $2)
  AND ($3::text IS NULL OR v.status = $3)
ORDER BY v.in_time DESC LIMIT $4 OFFSET $5`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, f.UserID, f.ParkingLotID, f.Status, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanDetails(rows, true)
}

var _ BookingRepo = (*BookingRepoImpl)(nil)
