package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/music-lessons-api/internal/models"
)

// AnalyticsRepository exposes read-only aggregate queries for admin reports.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// MonthlyRevenue sums booked lesson prices per calendar month of the lesson start,
// optionally restricted to one year.
func (r *AnalyticsRepository) MonthlyRevenue(ctx context.Context, year *int) ([]models.MonthlyRevenue, error) {
	query := `SELECT EXTRACT(MONTH FROM starts_at)::INT AS month, COALESCE(SUM(price), 0)::FLOAT8 AS revenue, COUNT(*) AS lessons
FROM lessons WHERE student_id IS NOT NULL`
	var args []interface{}
	if year != nil {
		args = append(args, *year)
		query += ` AND EXTRACT(YEAR FROM starts_at)::INT = $1`
	}
	query += ` GROUP BY month ORDER BY month`

	rows := make([]models.MonthlyRevenue, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query monthly revenue: %w", err)
	}
	return rows, nil
}

// InstrumentPopularity counts booked lessons and revenue per instrument.
func (r *AnalyticsRepository) InstrumentPopularity(ctx context.Context) ([]models.InstrumentPopularity, error) {
	const query = `SELECT instrument, COUNT(*) AS lessons, COALESCE(SUM(price), 0)::FLOAT8 AS revenue
FROM lessons WHERE student_id IS NOT NULL GROUP BY instrument ORDER BY lessons DESC, instrument ASC`
	rows := make([]models.InstrumentPopularity, 0)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query instrument popularity: %w", err)
	}
	return rows, nil
}

// OutreachBreakdown counts accounts per outreach source and role.
func (r *AnalyticsRepository) OutreachBreakdown(ctx context.Context) ([]models.OutreachBreakdown, error) {
	const query = `SELECT outreach_source, role, COUNT(*) AS count FROM accounts
GROUP BY outreach_source, role ORDER BY outreach_source ASC, role ASC`
	rows := make([]models.OutreachBreakdown, 0)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query outreach breakdown: %w", err)
	}
	return rows, nil
}

// RoleCounts counts accounts per role. Roles without accounts are absent.
func (r *AnalyticsRepository) RoleCounts(ctx context.Context) ([]models.RoleCount, error) {
	const query = `SELECT role, COUNT(*) AS count FROM accounts GROUP BY role`
	rows := make([]models.RoleCount, 0)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query role counts: %w", err)
	}
	return rows, nil
}

// StudentLessonCounts returns the number of booked lessons per student.
func (r *AnalyticsRepository) StudentLessonCounts(ctx context.Context) ([]models.StudentLessonCount, error) {
	const query = `SELECT student_id, COUNT(*) AS lessons FROM lessons WHERE student_id IS NOT NULL GROUP BY student_id`
	rows := make([]models.StudentLessonCount, 0)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query student lesson counts: %w", err)
	}
	return rows, nil
}
