package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyRevenueFiltersByYear(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND EXTRACT(YEAR FROM starts_at)::INT = $1 GROUP BY month ORDER BY month")).
		WithArgs(2030).
		WillReturnRows(sqlmock.NewRows([]string{"month", "revenue", "lessons"}).AddRow(1, 100.0, 2).AddRow(5, 50.0, 1))

	year := 2030
	rows, err := repo.MonthlyRevenue(context.Background(), &year)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 5, rows[1].Month)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyRevenueAllYears(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lessons WHERE student_id IS NOT NULL GROUP BY month")).
		WillReturnRows(sqlmock.NewRows([]string{"month", "revenue", "lessons"}))

	rows, err := repo.MonthlyRevenue(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRoleCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery("SELECT role, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"role", "count"}).AddRow("student", 4).AddRow("teacher", 1))

	rows, err := repo.RoleCounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestStudentLessonCountsWrapsErrors(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery("SELECT student_id, COUNT").WillReturnError(errors.New("timeout"))

	_, err := repo.StudentLessonCounts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "student lesson counts")
}
