package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/pkg/logger"
)

type ParkingLotRepo interface {
	Create(ctx context.Context, in *domain.ParkingLotCreateReq) (*domain.ParkingLot, error)
	GetByID(ctx context.Context, id int64) (*domain.ParkingLot, error)
	List(ctx context.Context) ([]domain.ParkingLot, error)
	Update(ctx context.Context, id int64, patch domain.ParkingLotPatch) (*domain.ParkingLot, error)
	Delete(ctx context.Context, id int64) error
	// Reserve atomically takes one slot. Exactly one of two concurrent
	// calls against the last free slot succeeds.
	Reserve(ctx context.Context, id int64) error
	// Release atomically frees one slot, never dropping below zero.
	Release(ctx context.Context, id int64) error
}

type ParkingLotRepoImpl struct{ pool *pgxpool.Pool }

func NewParkingLotRepo(pool *pgxpool.Pool) *ParkingLotRepoImpl {
	return &ParkingLotRepoImpl{pool: pool}
}

const lotCols = `id, location, img_url, price, total_slot, booked_slot, created_at, updated_at`

func scanLot(row pgx.Row) (*domain.ParkingLot, error) {
	var p domain.ParkingLot
	err := row.Scan(&p.ID, &p.Location, &p.ImgURL, &p.Price, &p.TotalSlot, &p.BookedSlot, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParkingLotRepoImpl) Create(ctx context.Context, in *domain.ParkingLotCreateReq) (*domain.ParkingLot, error) {
	const q = `INSERT INTO parking_lots (location, img_url, price, total_slot, booked_slot)
VALUES ($1,$2,$3,$4,0)
RETURNING ` + lotCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanLot(r.pool.QueryRow(ctx, q, in.Location, in.ImgURL, in.Price, in.TotalSlot))
}

func (r *ParkingLotRepoImpl) GetByID(ctx context.Context, id int64) (*domain.ParkingLot, error) {
	const q = `SELECT ` + lotCols + ` FROM parking_lots WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanLot(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *ParkingLotRepoImpl) List(ctx context.Context) ([]domain.ParkingLot, error) {
	const q = `SELECT ` + lotCols + ` FROM parking_lots ORDER BY location`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []domain.ParkingLot
	for rows.Next() {
		var p domain.ParkingLot
		if err := rows.Scan(&p.ID, &p.Location, &p.ImgURL, &p.Price, &p.TotalSlot, &p.BookedSlot, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		lots = append(lots, p)
	}
	return lots, rows.Err()
}

func (r *ParkingLotRepoImpl) Update(ctx context.Context, id int64, patch domain.ParkingLotPatch) (*domain.ParkingLot, error) {
	// total_slot may not drop below the current booked count; the guard
	// rides the same statement to stay race-free against reservations.
	const q = `UPDATE parking_lots SET
  location   = COALESCE($2, location),
  img_url    = COALESCE($3, img_url),
  price      = COALESCE($4, price),
  total_slot = COALESCE($5, total_slot),
  updated_at = now()
WHERE id=$1 AND ($5::int IS NULL OR $5 >= booked_slot)
RETURNING ` + lotCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanLot(r.pool.QueryRow(ctx, q, id, patch.Location, patch.ImgURL, patch.Price, patch.TotalSlot))
	if errors.Is(err, pgx.ErrNoRows) {
		if exists, eerr := r.exists(ctx, id); eerr == nil && exists {
			return nil, fmt.Errorf("%w: total_slot below booked_slot", domain.ErrInvalidInput)
		}
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *ParkingLotRepoImpl) Delete(ctx context.Context, id int64) error {
	// Deleting a lot with active bookings would orphan them.
	const q = `DELETE FROM parking_lots WHERE id=$1 AND booked_slot = 0`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		if exists, eerr := r.exists(ctx, id); eerr == nil && exists {
			return domain.ErrInvalidState
		}
		return domain.ErrNotFound
	}
	return nil
}

func (r *ParkingLotRepoImpl) Reserve(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return reserveSlot(ctx, r.pool, id)
}

func (r *ParkingLotRepoImpl) Release(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return releaseSlot(ctx, r.pool, id)
}

func (r *ParkingLotRepoImpl) exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM parking_lots WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// execer covers both pgxpool.Pool and pgx.Tx so the guarded counter
// updates compose into larger transactions.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// reserveSlot is the only place booked_slot is incremented. The predicate
// keeps the increment and the capacity check in one atomic statement, so
// two racing reservations for the last slot cannot both pass.
func reserveSlot(ctx context.Context, db execer, id int64) error {
	const q = `UPDATE parking_lots
SET booked_slot = booked_slot + 1, updated_at = now()
WHERE id=$1 AND booked_slot < total_slot`

	ct, err := db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var one int
		err := db.QueryRow(ctx, `SELECT 1 FROM parking_lots WHERE id=$1`, id).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		return domain.ErrCapacityExceeded
	}
	return nil
}

// releaseSlot is the only place booked_slot is decremented. Going below
// zero is a logic error elsewhere; the guard floors it and we log instead
// of corrupting the counter.
func releaseSlot(ctx context.Context, db execer, id int64) error {
	const q = `UPDATE parking_lots
SET booked_slot = booked_slot - 1, updated_at = now()
WHERE id=$1 AND booked_slot > 0`

	ct, err := db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var one int
		err := db.QueryRow(ctx, `SELECT 1 FROM parking_lots WHERE id=$1`, id).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		logger.ErrorContext(ctx, "release on lot with zero booked slots", "parking_lot_id", id)
	}
	return nil
}

var _ ParkingLotRepo = (*ParkingLotRepoImpl)(nil)
