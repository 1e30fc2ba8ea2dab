package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/music-lessons-api/internal/models"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
)

// AnalyticsRepository runs the aggregate queries behind the admin reports.
type AnalyticsRepository interface {
	MonthlyRevenue(ctx context.Context, year *int) ([]models.MonthlyRevenue, error)
	InstrumentPopularity(ctx context.Context) ([]models.InstrumentPopularity, error)
	OutreachBreakdown(ctx context.Context) ([]models.OutreachBreakdown, error)
	RoleCounts(ctx context.Context) ([]models.RoleCount, error)
	StudentLessonCounts(ctx context.Context) ([]models.StudentLessonCount, error)
}

const analyticsCachePrefix = "analytics"

// AnalyticsService computes the admin reports, serving them from cache when enabled.
// Every report method also reports whether the result came from cache.
type AnalyticsService struct {
	repo    AnalyticsRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo AnalyticsRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// timed runs one repository query and records its duration.
func timed[T any](metrics *MetricsService, label string, query func() (T, error)) (T, error) {
	start := time.Now()
	result, err := query()
	metrics.ObserveDBQuery(label, time.Since(start))
	if err != nil {
		return result, appErrors.Internal(err, "failed to compute "+strings.ReplaceAll(label, "_", " ")+" report")
	}
	return result, nil
}

// RevenueByQuarter folds monthly revenue of booked lessons into calendar quarters.
// A nil year covers every year.
func (s *AnalyticsService) RevenueByQuarter(ctx context.Context, year *int) (*models.RevenueByQuarterReport, bool, error) {
	scope := "all"
	if year != nil {
		scope = strconv.Itoa(*year)
	}
	return remember(ctx, s.cache, makeAnalyticsCacheKey("revenue", scope), func() (*models.RevenueByQuarterReport, error) {
		months, err := timed(s.metrics, "revenue_by_quarter", func() ([]models.MonthlyRevenue, error) {
			return s.repo.MonthlyRevenue(ctx, year)
		})
		if err != nil {
			return nil, err
		}
		return foldQuarters(months, year), nil
	})
}

func foldQuarters(months []models.MonthlyRevenue, year *int) *models.RevenueByQuarterReport {
	report := &models.RevenueByQuarterReport{Year: year, Quarters: make([]models.QuarterRevenue, 4)}
	for i := range report.Quarters {
		report.Quarters[i].Quarter = fmt.Sprintf("Q%d", i+1)
	}
	for _, m := range months {
		if m.Month < 1 || m.Month > 12 {
			continue
		}
		q := &report.Quarters[(m.Month-1)/3]
		q.Revenue += m.Revenue
		q.Lessons += m.Lessons
		report.Total += m.Revenue
	}
	return report
}

// InstrumentPopularity counts booked lessons and revenue per instrument.
func (s *AnalyticsService) InstrumentPopularity(ctx context.Context) ([]models.InstrumentPopularity, bool, error) {
	return remember(ctx, s.cache, makeAnalyticsCacheKey("instruments"), func() ([]models.InstrumentPopularity, error) {
		return timed(s.metrics, "instrument_popularity", func() ([]models.InstrumentPopularity, error) {
			return s.repo.InstrumentPopularity(ctx)
		})
	})
}

// OutreachBreakdown counts accounts per outreach source and role.
func (s *AnalyticsService) OutreachBreakdown(ctx context.Context) ([]models.OutreachBreakdown, bool, error) {
	return remember(ctx, s.cache, makeAnalyticsCacheKey("outreach"), func() ([]models.OutreachBreakdown, error) {
		return timed(s.metrics, "outreach_breakdown", func() ([]models.OutreachBreakdown, error) {
			return s.repo.OutreachBreakdown(ctx)
		})
	})
}

// UserCounts counts accounts per role. Every role is present, zero when empty.
func (s *AnalyticsService) UserCounts(ctx context.Context) ([]models.RoleCount, bool, error) {
	return remember(ctx, s.cache, makeAnalyticsCacheKey("users"), func() ([]models.RoleCount, error) {
		rows, err := timed(s.metrics, "user_counts", func() ([]models.RoleCount, error) {
			return s.repo.RoleCounts(ctx)
		})
		if err != nil {
			return nil, err
		}
		byRole := make(map[models.UserRole]int, len(rows))
		for _, row := range rows {
			byRole[row.Role] += row.Count
		}
		counts := make([]models.RoleCount, 0, len(models.Roles))
		for _, role := range models.Roles {
			counts = append(counts, models.RoleCount{Role: role, Count: byRole[role]})
		}
		return counts, nil
	})
}

// SecondLessonRate reports the share of students with a lesson who booked at least two.
func (s *AnalyticsService) SecondLessonRate(ctx context.Context) (*models.SecondLessonReport, bool, error) {
	return remember(ctx, s.cache, makeAnalyticsCacheKey("second-lesson"), func() (*models.SecondLessonReport, error) {
		rows, err := timed(s.metrics, "second_lesson", func() ([]models.StudentLessonCount, error) {
			return s.repo.StudentLessonCounts(ctx)
		})
		if err != nil {
			return nil, err
		}
		return secondLessonReport(rows), nil
	})
}

func secondLessonReport(rows []models.StudentLessonCount) *models.SecondLessonReport {
	report := &models.SecondLessonReport{}
	for _, row := range rows {
		if row.Lessons >= 1 {
			report.StudentsWithLesson++
		}
		if row.Lessons >= 2 {
			report.StudentsWithSecondLesson++
		}
	}
	if report.StudentsWithLesson > 0 {
		report.Percentage = 100 * float64(report.StudentsWithSecondLesson) / float64(report.StudentsWithLesson)
	}
	return report
}

// SystemMetrics returns the instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.AnalyticsSystemMetrics {
	return s.metrics.Snapshot()
}

func makeAnalyticsCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.WriteString(analyticsCachePrefix)
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
