package postgres

import (
	"context"
	"fmt"

	"merchant-collections/internal/core/ports"
)

// StatsRepo implements ports.StatsRepository by calling the server-side
// aggregation function, keeping the arithmetic next to the data.
type StatsRepo struct {
	pool Pool
}

// NewStatsRepo creates a new StatsRepo.
func NewStatsRepo(pool Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

// DashboardStats fetches the pre-aggregated dashboard object.
func (r *StatsRepo) DashboardStats(ctx context.Context) (*ports.DashboardStats, error) {
	query := `SELECT total_merchants, total_debt, total_balance, total_collected FROM get_dashboard_stats()`

	stats := &ports.DashboardStats{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalMerchants, &stats.TotalDebt, &stats.TotalBalance, &stats.TotalCollected,
	)
	if err != nil {
		return nil, fmt.Errorf("get dashboard stats: %w", err)
	}
	return stats, nil
}
