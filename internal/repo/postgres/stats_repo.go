package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eazyparking/parking-bookings/internal/domain"
)

// StatsRepo feeds the admin dashboard. Read-only aggregates; the
// presentation layer does all rendering.
type StatsRepo interface {
	Totals(ctx context.Context) (*domain.DashboardStats, error)
	Occupancy(ctx context.Context) ([]domain.LotOccupancy, error)
}

type StatsRepoImpl struct{ pool *pgxpool.Pool }

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepoImpl { return &StatsRepoImpl{pool: pool} }

func (r *StatsRepoImpl) Totals(ctx context.Context) (*domain.DashboardStats, error) {
	const q = `SELECT
  (SELECT count(*) FROM parking_lots),
  (SELECT count(*) FROM bookings),
  (SELECT count(*) FROM users WHERE role='user'),
  (SELECT count(*) FROM vehicles WHERE status='in'),
  (SELECT COALESCE(sum(amount),0) FROM bookings WHERE payment_id IS NOT NULL),
  (SELECT count(*) FROM bookings WHERE payment_id IS NOT NULL)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.DashboardStats
	err := r.pool.QueryRow(ctx, q).Scan(
		&s.ParkingLots, &s.Bookings, &s.Users, &s.VehiclesIn, &s.Revenue, &s.PaidBookings)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StatsRepoImpl) Occupancy(ctx context.Context) ([]domain.LotOccupancy, error) {
	const q = `SELECT id, location, total_slot, booked_slot FROM parking_lots ORDER BY location`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var os []domain.LotOccupancy
	for rows.Next() {
		var o domain.LotOccupancy
		if err := rows.Scan(&o.ParkingLotID, &o.Location, &o.TotalSlot, &o.BookedSlot); err != nil {
			return nil, err
		}
		o.Available = o.TotalSlot - o.BookedSlot
		os = append(os, o)
	}
	return os, rows.Err()
}

var _ StatsRepo = (*StatsRepoImpl)(nil)
