package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eazyparking/parking-bookings/internal/domain"
)

type CategoryRepo interface {
	Create(ctx context.Context, name string) (*domain.VehicleCategory, error)
	GetByID(ctx context.Context, id int64) (*domain.VehicleCategory, error)
	List(ctx context.Context) ([]domain.VehicleCategory, error)
	Rename(ctx context.Context, id int64, name string) (*domain.VehicleCategory, error)
	Delete(ctx context.Context, id int64) error
}

type CategoryRepoImpl struct{ pool *pgxpool.Pool }

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepoImpl { return &CategoryRepoImpl{pool: pool} }

func (r *CategoryRepoImpl) Create(ctx context.Context, name string) (*domain.VehicleCategory, error) {
	const q = `INSERT INTO vehicle_categories (name) VALUES ($1) RETURNING id, name, created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.VehicleCategory
	err := r.pool.QueryRow(ctx, q, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepoImpl) GetByID(ctx context.Context, id int64) (*domain.VehicleCategory, error) {
	const q = `SELECT id, name, created_at FROM vehicle_categories WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.VehicleCategory
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepoImpl) List(ctx context.Context) ([]domain.VehicleCategory, error) {
	const q = `SELECT id, name, created_at FROM vehicle_categories ORDER BY name`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cs []domain.VehicleCategory
	for rows.Next() {
		var c domain.VehicleCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, rows.Err()
}

func (r *CategoryRepoImpl) Rename(ctx context.Context, id int64, name string) (*domain.VehicleCategory, error) {
	const q = `UPDATE vehicle_categories SET name=$2 WHERE id=$1 RETURNING id, name, created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.VehicleCategory
	err := r.pool.QueryRow(ctx, q, id, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepoImpl) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM vehicle_categories WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// Referenced by vehicles.
			return domain.ErrInvalidState
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ CategoryRepo = (*CategoryRepoImpl)(nil)
