package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/music-lessons-api/internal/models"
)

var lessonCols = []string{"id", "teacher_id", "student_id", "instrument", "legacy_lesson_type", "lesson_type_new", "student_chosen_type",
	"starts_at", "ends_at", "price", "notes", "special_requests", "sheet_music_filename", "sheet_music_path", "created_at", "updated_at"}

func TestLessonListAvailableWithInstrument(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	now := time.Now().UTC()
	start := now.Add(24 * time.Hour)
	rows := sqlmock.NewRows(lessonCols).
		AddRow("l1", "t1", nil, "Guitar", nil, "Virtual", nil, start, start.Add(time.Hour), 50.0, nil, nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id IS NULL AND starts_at > $1 AND LOWER(instrument) = LOWER($2) ORDER BY starts_at ASC")).
		WithArgs(now, "guitar").
		WillReturnRows(rows)

	lessons, err := repo.ListAvailable(context.Background(), models.LessonFilter{Instrument: " guitar ", After: now})
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.False(t, lessons[0].Booked())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonBookIsConditional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	booking := models.LessonBooking{LessonID: "l1", StudentID: "s1", StudentChosenType: models.LessonTypeVirtual}

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND student_id IS NULL")).
		WithArgs("l1", "s1", models.LessonTypeVirtual, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND student_id IS NULL")).
		WithArgs("l1", "s1", models.LessonTypeVirtual, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Book(context.Background(), booking)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Book(context.Background(), booking)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonCancelCommitsAuditAndRelease(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cancellation_log").
		WithArgs("l1", "s1", sqlmock.AnyArg(), models.CancelReasonStudent).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("UPDATE lessons l SET student_id = NULL").
		WithArgs("l1", "s1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"sheet_music_path"}).AddRow("uploads/x.pdf"))
	mock.ExpectCommit()

	path, err := repo.Cancel(context.Background(), "l1", "s1", models.CancelReasonStudent)
	require.NoError(t, err)
	require.NotNil(t, path)
	assert.Equal(t, "uploads/x.pdf", *path)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonCancelNotOwnerRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cancellation_log").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("UPDATE lessons l SET").WillReturnRows(sqlmock.NewRows([]string{"sheet_music_path"}))
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), "l1", "intruder", models.CancelReasonStudent)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonDeleteBookedWritesAuditFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id, sheet_music_path FROM lessons WHERE id = $1 FOR UPDATE")).
		WithArgs("l1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "sheet_music_path"}).AddRow("s1", nil))
	mock.ExpectExec("INSERT INTO cancellation_log").
		WithArgs("l1", "s1", sqlmock.AnyArg(), models.CancelReasonTeacherDeletion).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lessons WHERE id = $1")).
		WithArgs("l1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	path, err := repo.Delete(context.Background(), "l1", models.CancelReasonTeacherDeletion)
	require.NoError(t, err)
	assert.Nil(t, path)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonDeleteOpenSkipsAudit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT student_id, sheet_music_path").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "sheet_music_path"}).AddRow(nil, nil))
	mock.ExpectExec("DELETE FROM lessons").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.Delete(context.Background(), "l1", models.CancelReasonTeacherDeletion)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonCreateIfAbsentCountsInserted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	start := time.Date(2030, 3, 1, 10, 0, 0, 0, time.UTC)
	lessons := []models.Lesson{
		{TeacherID: "t1", Instrument: "Piano", LessonTypeNew: models.LessonTypeInPerson, StartsAt: start, EndsAt: start.Add(time.Hour), Price: 50},
		{TeacherID: "t1", Instrument: "Piano", LessonTypeNew: models.LessonTypeInPerson, StartsAt: start.Add(2 * time.Hour), EndsAt: start.Add(3 * time.Hour), Price: 50},
	}

	mock.ExpectBegin()
	mock.ExpectExec("WHERE NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("WHERE NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	inserted, err := repo.CreateIfAbsent(context.Background(), lessons)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.NotEmpty(t, lessons[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec("UPDATE lessons SET instrument").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "missing", models.LessonUpdate{Instrument: "Piano"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLessonMalformedIDIsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)
	badID := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}

	mock.ExpectQuery("FROM lessons WHERE id = \\$1").WithArgs("abc").WillReturnError(badID)
	_, err := repo.FindByID(context.Background(), "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectExec("UPDATE lessons SET instrument").WillReturnError(badID)
	err = repo.Update(context.Background(), "abc", models.LessonUpdate{Instrument: "Piano"})
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cancellation_log").WillReturnError(badID)
	mock.ExpectRollback()
	_, err = repo.Cancel(context.Background(), "abc", "s1", models.CancelReasonStudent)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnError(badID)
	mock.ExpectRollback()
	_, err = repo.Delete(context.Background(), "abc", models.CancelReasonTeacherDeletion)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
