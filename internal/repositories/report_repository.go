package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// DashboardStats is the snapshot shown on the POS home screen.
// Monetary values are paisa.
type DashboardStats struct {
	ActiveProducts    int   `json:"active_products"`
	LowStockProducts  int   `json:"low_stock_products"`
	TodaySalesCount   int   `json:"today_sales_count"`
	TodayRevenue      int64 `json:"today_revenue"`
	PendingSalesCount int   `json:"pending_sales_count"`
	OutstandingDue    int64 `json:"outstanding_due"`
}

// ReportRepository runs the aggregate queries behind the dashboard.
type ReportRepository interface {
	GetDashboardStats(now time.Time) (*DashboardStats, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) GetDashboardStats(now time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	productQuery := `SELECT COUNT(*),
	    COUNT(*) FILTER (WHERE min_stock_level > 0 AND
	      CASE WHEN unit_type = 'gaz' THEN quantity_in_gaz ELSE quantity_in_meter END <= min_stock_level)
	  FROM products
	  WHERE is_active = TRUE`
	if err := r.db.QueryRow(productQuery).Scan(&stats.ActiveProducts, &stats.LowStockProducts); err != nil {
		return nil, fmt.Errorf("%w: querying product stats: %v", ErrDatabaseError, err)
	}

	salesQuery := `SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
	  FROM sales
	  WHERE status <> 'cancelled' AND created_at >= $1 AND created_at < $2`
	if err := r.db.QueryRow(salesQuery, dayStart, dayEnd).Scan(&stats.TodaySalesCount, &stats.TodayRevenue); err != nil {
		return nil, fmt.Errorf("%w: querying today's sales: %v", ErrDatabaseError, err)
	}

	pendingQuery := `SELECT COUNT(*), COALESCE(SUM(due_amount), 0)
	  FROM sales
	  WHERE status = 'pending'`
	if err := r.db.QueryRow(pendingQuery).Scan(&stats.PendingSalesCount, &stats.OutstandingDue); err != nil {
		return nil, fmt.Errorf("%w: querying pending sales: %v", ErrDatabaseError, err)
	}

	return stats, nil
}
