package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eazyparking/parking-bookings/internal/domain"
)

type VehicleRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
	// CheckIn moves upcoming -> in.
	CheckIn(ctx context.Context, id int64) error
	// CheckOut moves in -> out and stamps the departure time.
	CheckOut(ctx context.Context, id int64) error
	// Settle moves out -> settled with a closing remark and frees the
	// booked slot in the same transaction.
	Settle(ctx context.Context, id int64, remark string) error
	ListByStatus(ctx context.Context, status domain.VehicleStatus, limit, offset int) ([]domain.Vehicle, error)
}

type VehicleRepoImpl struct{ pool *pgxpool.Pool }

func NewVehicleRepo(pool *pgxpool.Pool) *VehicleRepoImpl { return &VehicleRepoImpl{pool: pool} }

const vehicleCols = `id, registration_number, company_name, category_id, in_time, out_time, status, COALESCE(remark,''), settled_at, created_at`

func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := row.Scan(&v.ID, &v.RegistrationNumber, &v.CompanyName, &v.CategoryID,
		&v.InTime, &v.OutTime, &v.Status, &v.Remark, &v.SettledAt, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	const q = `SELECT ` + vehicleCols + ` FROM vehicles WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVehicle(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return v, err
}

// transition runs a guarded status update; zero rows on an existing
// vehicle means the transition was not legal from its current state.
func (r *VehicleRepoImpl) transition(ctx context.Context, id int64, q string) error {
	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var one int
		err := r.pool.QueryRow(ctx, `SELECT 1 FROM vehicles WHERE id=$1`, id).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		return domain.ErrInvalidState
	}
	return nil
}

func (r *VehicleRepoImpl) CheckIn(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return r.transition(ctx, id,
		`UPDATE vehicles SET status='in' WHERE id=$1 AND status='upcoming'`)
}

func (r *VehicleRepoImpl) CheckOut(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return r.transition(ctx, id,
		`UPDATE vehicles SET status='out', out_time=now() WHERE id=$1 AND status='in'`)
}

func (r *VehicleRepoImpl) Settle(ctx context.Context, id int64, remark string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`UPDATE vehicles SET status='settled', remark=$2, settled_at=now() WHERE id=$1 AND status='out'`,
		id, remark)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var one int
		err := tx.QueryRow(ctx, `SELECT 1 FROM vehicles WHERE id=$1`, id).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		return domain.ErrInvalidState
	}

	var lotID int64
	err = tx.QueryRow(ctx, `SELECT parking_lot_id FROM bookings WHERE vehicle_id=$1`, id).Scan(&lotID)
	if err != nil {
		return err
	}
	if err := releaseSlot(ctx, tx, lotID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *VehicleRepoImpl) ListByStatus(ctx context.Context, status domain.VehicleStatus, limit, offset int) ([]domain.Vehicle, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + vehicleCols + ` FROM vehicles WHERE status=$1 ORDER BY in_time DESC LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vs := make([]domain.Vehicle, 0, limit)
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.RegistrationNumber, &v.CompanyName, &v.CategoryID,
			&v.InTime, &v.OutTime, &v.Status, &v.Remark, &v.SettledAt, &v.CreatedAt); err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, rows.Err()
}

var _ VehicleRepo = (*VehicleRepoImpl)(nil)
