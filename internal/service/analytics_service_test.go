package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/music-lessons-api/internal/models"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
)

type mockAnalyticsRepo struct {
	months       []models.MonthlyRevenue
	instruments  []models.InstrumentPopularity
	outreach     []models.OutreachBreakdown
	roles        []models.RoleCount
	lessonCounts []models.StudentLessonCount
	err          error
	calls        map[string]int
	lastYear     *int
}

func (m *mockAnalyticsRepo) called(name string) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *mockAnalyticsRepo) MonthlyRevenue(_ context.Context, year *int) ([]models.MonthlyRevenue, error) {
	m.called("revenue")
	m.lastYear = year
	return m.months, m.err
}

func (m *mockAnalyticsRepo) InstrumentPopularity(context.Context) ([]models.InstrumentPopularity, error) {
	m.called("instruments")
	return m.instruments, m.err
}

func (m *mockAnalyticsRepo) OutreachBreakdown(context.Context) ([]models.OutreachBreakdown, error) {
	m.called("outreach")
	return m.outreach, m.err
}

func (m *mockAnalyticsRepo) RoleCounts(context.Context) ([]models.RoleCount, error) {
	m.called("roles")
	return m.roles, m.err
}

func (m *mockAnalyticsRepo) StudentLessonCounts(context.Context) ([]models.StudentLessonCount, error) {
	m.called("lesson_counts")
	return m.lessonCounts, m.err
}

type stubCacheRepo struct {
	store   map[string][]byte
	deleted []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	return nil
}

func newCachedAnalytics(repo AnalyticsRepository) (*AnalyticsService, *CacheService, *MetricsService) {
	metrics := NewMetricsService()
	cache := NewCacheService(&stubCacheRepo{}, metrics, time.Minute, zap.NewNop(), true)
	return NewAnalyticsService(repo, cache, metrics, zap.NewNop()), cache, metrics
}

func TestRevenueByQuarterFoldsMonths(t *testing.T) {
	repo := &mockAnalyticsRepo{months: []models.MonthlyRevenue{
		{Month: 1, Revenue: 50, Lessons: 1},
		{Month: 3, Revenue: 100, Lessons: 2},
		{Month: 4, Revenue: 75, Lessons: 1},
		{Month: 12, Revenue: 60, Lessons: 1},
	}}
	svc := NewAnalyticsService(repo, nil, nil, nil)
	year := 2024

	report, hit, err := svc.RevenueByQuarter(context.Background(), &year)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, report.Quarters, 4)
	assert.Equal(t, models.QuarterRevenue{Quarter: "Q1", Revenue: 150, Lessons: 3}, report.Quarters[0])
	assert.Equal(t, models.QuarterRevenue{Quarter: "Q2", Revenue: 75, Lessons: 1}, report.Quarters[1])
	assert.Equal(t, models.QuarterRevenue{Quarter: "Q3"}, report.Quarters[2])
	assert.Equal(t, models.QuarterRevenue{Quarter: "Q4", Revenue: 60, Lessons: 1}, report.Quarters[3])
	assert.Equal(t, 285.0, report.Total)
	require.NotNil(t, repo.lastYear)
	assert.Equal(t, 2024, *repo.lastYear)
}

func TestRevenueByQuarterCachesPerYear(t *testing.T) {
	repo := &mockAnalyticsRepo{months: []models.MonthlyRevenue{{Month: 5, Revenue: 40, Lessons: 1}}}
	svc, _, metrics := newCachedAnalytics(repo)
	ctx := context.Background()

	first, hit, err := svc.RevenueByQuarter(ctx, nil)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.RevenueByQuarter(ctx, nil)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls["revenue"])

	year := 2023
	_, hit, err = svc.RevenueByQuarter(ctx, &year)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.calls["revenue"])

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(2), snapshot.CacheMisses)
	assert.Equal(t, uint64(2), snapshot.DBQueryCount)
}

func TestInvalidateAnalyticsDropsCachedReports(t *testing.T) {
	repo := &mockAnalyticsRepo{roles: []models.RoleCount{{Role: models.RoleStudent, Count: 1}}}
	svc, cache, _ := newCachedAnalytics(repo)
	ctx := context.Background()

	_, _, err := svc.UserCounts(ctx)
	require.NoError(t, err)
	invalidateAnalytics(ctx, cache, zap.NewNop())
	_, hit, err := svc.UserCounts(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.calls["roles"])
}

func TestUserCountsZeroFillsRoles(t *testing.T) {
	repo := &mockAnalyticsRepo{roles: []models.RoleCount{{Role: models.RoleStudent, Count: 7}}}
	svc := NewAnalyticsService(repo, nil, nil, nil)

	counts, _, err := svc.UserCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.RoleCount{
		{Role: models.RoleAdmin, Count: 0},
		{Role: models.RoleTeacher, Count: 0},
		{Role: models.RoleStudent, Count: 7},
	}, counts)
}

func TestSecondLessonRate(t *testing.T) {
	repo := &mockAnalyticsRepo{lessonCounts: []models.StudentLessonCount{
		{StudentID: "a", Lessons: 1},
		{StudentID: "b", Lessons: 2},
		{StudentID: "c", Lessons: 5},
		{StudentID: "d", Lessons: 1},
	}}
	svc := NewAnalyticsService(repo, nil, nil, nil)

	report, _, err := svc.SecondLessonRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.StudentsWithLesson)
	assert.Equal(t, 2, report.StudentsWithSecondLesson)
	assert.InDelta(t, 50.0, report.Percentage, 0.0001)
}

func TestSecondLessonRateWithoutStudents(t *testing.T) {
	svc := NewAnalyticsService(&mockAnalyticsRepo{}, nil, nil, nil)

	report, _, err := svc.SecondLessonRate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Percentage)
}

func TestAnalyticsErrorsAreInternal(t *testing.T) {
	repo := &mockAnalyticsRepo{err: assert.AnError}
	svc, _, _ := newCachedAnalytics(repo)

	_, _, err := svc.InstrumentPopularity(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	_, hit, err := svc.OutreachBreakdown(context.Background())
	require.Error(t, err)
	assert.False(t, hit)
}
