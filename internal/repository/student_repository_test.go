package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/music-lessons-api/internal/models"
)

func TestStudentRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "email", "card_number", "card_expiry", "instrument", "pin", "created_at", "updated_at"}).
		AddRow("s1", "Sam", "sam@example.com", "12345678901234", "12/30", "Piano", "123", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM student_profiles WHERE email = $1")).
		WithArgs("sam@example.com").
		WillReturnRows(rows)

	profile, err := repo.FindByEmail(context.Background(), "Sam@example.com")
	require.NoError(t, err)
	assert.Equal(t, "**********1234", profile.MaskedCard())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO student_profiles").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.StudentProfile{Name: "Sam", Email: "sam@example.com"})
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestStudentRepositoryDeleteReleasesBookings(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT sheet_music_path FROM lessons WHERE student_id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"sheet_music_path"}).AddRow("uploads/a.pdf"))
	mock.ExpectExec("INSERT INTO cancellation_log").
		WithArgs("s1", sqlmock.AnyArg(), models.CancelReasonStudentDeletion).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE lessons SET student_id = NULL").
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM student_profiles WHERE id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	paths, err := repo.Delete(context.Background(), "s1", models.CancelReasonStudentDeletion)
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/a.pdf"}, paths)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteMissingRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT sheet_music_path").WillReturnRows(sqlmock.NewRows([]string{"sheet_music_path"}))
	mock.ExpectExec("INSERT INTO cancellation_log").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE lessons").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM student_profiles").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), "missing", models.CancelReasonStudentDeletion)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
