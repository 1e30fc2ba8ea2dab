package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/music-lessons-api/internal/models"
)

const lessonColumns = `id, teacher_id, student_id, instrument, legacy_lesson_type, lesson_type_new, student_chosen_type,
starts_at, ends_at, price, notes, special_requests, sheet_music_filename, sheet_music_path, created_at, updated_at`

// clearOccupant resets every booking-owned column of a lesson.
const clearOccupant = `student_id = NULL, student_chosen_type = NULL, special_requests = NULL, sheet_music_filename = NULL, sheet_music_path = NULL`

// LessonRepository manages lesson slots and their occupancy.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// FindByID returns a lesson by identifier.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1 LIMIT 1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		if isMissing(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return &lesson, nil
}

// ListAvailable returns open lessons starting after filter.After, soonest first.
func (r *LessonRepository) ListAvailable(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT ` + lessonColumns + ` FROM lessons WHERE student_id IS NULL AND starts_at > $1`)
	args := []interface{}{filter.After}
	if instrument := strings.TrimSpace(filter.Instrument); instrument != "" {
		args = append(args, instrument)
		builder.WriteString(fmt.Sprintf(" AND LOWER(instrument) = LOWER($%d)", len(args)))
	}
	builder.WriteString(" ORDER BY starts_at ASC")

	lessons := make([]models.Lesson, 0)
	if err := r.db.SelectContext(ctx, &lessons, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list available lessons: %w", err)
	}
	return lessons, nil
}

// ListByStudent returns every lesson currently booked by the student.
func (r *LessonRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE student_id = $1 ORDER BY starts_at ASC`
	lessons := make([]models.Lesson, 0)
	if err := r.db.SelectContext(ctx, &lessons, query, studentID); err != nil {
		return nil, fmt.Errorf("list student lessons: %w", err)
	}
	return lessons, nil
}

// ListByTeacher returns every lesson of a teacher, open or booked.
func (r *LessonRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE teacher_id = $1 ORDER BY starts_at ASC`
	lessons := make([]models.Lesson, 0)
	if err := r.db.SelectContext(ctx, &lessons, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher lessons: %w", err)
	}
	return lessons, nil
}

func prepareLesson(lesson *models.Lesson) {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now
}

// Create inserts a single open lesson.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	prepareLesson(lesson)
	const query = `INSERT INTO lessons (id, teacher_id, instrument, legacy_lesson_type, lesson_type_new, starts_at, ends_at, price, notes, created_at, updated_at)
VALUES (:id, :teacher_id, :instrument, :legacy_lesson_type, :lesson_type_new, :starts_at, :ends_at, :price, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts each lesson unless the teacher already has an open lesson
// with identical bounds. It returns how many rows were inserted.
func (r *LessonRepository) CreateIfAbsent(ctx context.Context, lessons []models.Lesson) (inserted int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk availability: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO lessons (id, teacher_id, instrument, lesson_type_new, starts_at, ends_at, price, created_at, updated_at)
SELECT $1, $2, $3, $4, $5, $6, $7, $8, $8
WHERE NOT EXISTS (SELECT 1 FROM lessons WHERE teacher_id = $2 AND starts_at = $5 AND ends_at = $6 AND student_id IS NULL)`
	for i := range lessons {
		lesson := &lessons[i]
		prepareLesson(lesson)
		var res sql.Result
		res, err = tx.ExecContext(ctx, query, lesson.ID, lesson.TeacherID, lesson.Instrument, lesson.LessonTypeNew,
			lesson.StartsAt, lesson.EndsAt, lesson.Price, lesson.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("insert availability slot: %w", err)
		}
		var affected int64
		if affected, err = res.RowsAffected(); err != nil {
			return 0, fmt.Errorf("availability slot rows: %w", err)
		}
		inserted += int(affected)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk availability: %w", err)
	}
	return inserted, nil
}

// Update writes teacher-editable fields. The lesson type of a booked lesson is
// left untouched: missing lessons and booked lessons whose type would change
// both yield sql.ErrNoRows.
func (r *LessonRepository) Update(ctx context.Context, id string, update models.LessonUpdate) error {
	const query = `UPDATE lessons SET instrument = $2, lesson_type_new = $3, starts_at = $4, ends_at = $5, price = $6, notes = $7, updated_at = $8
WHERE id = $1 AND (student_id IS NULL OR lesson_type_new = $3)`
	res, err := r.db.ExecContext(ctx, query, id, update.Instrument, update.LessonTypeNew, update.StartsAt, update.EndsAt,
		update.Price, update.Notes, time.Now().UTC())
	if err != nil {
		if isMissing(err) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update lesson: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lesson rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Book claims an open lesson. It reports false when the lesson was no longer open,
// so concurrent bookings of the same lesson succeed at most once.
func (r *LessonRepository) Book(ctx context.Context, booking models.LessonBooking) (bool, error) {
	const query = `UPDATE lessons SET student_id = $2, student_chosen_type = $3, special_requests = $4,
sheet_music_filename = $5, sheet_music_path = $6, updated_at = $7
WHERE id = $1 AND student_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, booking.LessonID, booking.StudentID, booking.StudentChosenType,
		booking.SpecialRequests, booking.SheetMusicFilename, booking.SheetMusicPath, time.Now().UTC())
	if err != nil {
		if isMissing(err) {
			return false, nil
		}
		return false, fmt.Errorf("book lesson: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("book lesson rows: %w", err)
	}
	return affected == 1, nil
}

// Cancel logs the release and reopens the lesson in one transaction. It returns
// sql.ErrNoRows when the lesson is not booked by studentID, and otherwise the
// sheet music path that was attached to the booking.
func (r *LessonRepository) Cancel(ctx context.Context, lessonID, studentID, reason string) (path *string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cancel lesson: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `INSERT INTO cancellation_log (lesson_id, student_id, cancelled_at, reason) VALUES ($1, $2, $3, $4)`,
		lessonID, studentID, now, reason); err != nil {
		if isMissing(err) {
			err = sql.ErrNoRows
			return nil, err
		}
		return nil, fmt.Errorf("log cancellation: %w", err)
	}

	var previous sql.NullString
	if err = tx.GetContext(ctx, &previous, `UPDATE lessons l SET `+clearOccupant+`, updated_at = $3
FROM (SELECT id, sheet_music_path FROM lessons WHERE id = $1 AND student_id = $2 FOR UPDATE) old
WHERE l.id = old.id RETURNING old.sheet_music_path`, lessonID, studentID, now); err != nil {
		if isMissing(err) {
			err = sql.ErrNoRows
			return nil, err
		}
		return nil, fmt.Errorf("release lesson: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel lesson: %w", err)
	}
	if previous.Valid {
		return &previous.String, nil
	}
	return nil, nil
}

// Delete removes a lesson, logging the removal with reason first when it is booked.
// It returns the sheet music path of the removed lesson, if any.
func (r *LessonRepository) Delete(ctx context.Context, lessonID, reason string) (path *string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete lesson: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current struct {
		StudentID      *string `db:"student_id"`
		SheetMusicPath *string `db:"sheet_music_path"`
	}
	if err = tx.GetContext(ctx, &current, `SELECT student_id, sheet_music_path FROM lessons WHERE id = $1 FOR UPDATE`, lessonID); err != nil {
		if isMissing(err) {
			err = sql.ErrNoRows
			return nil, err
		}
		return nil, fmt.Errorf("lock lesson: %w", err)
	}

	if current.StudentID != nil {
		if _, err = tx.ExecContext(ctx, `INSERT INTO cancellation_log (lesson_id, student_id, cancelled_at, reason) VALUES ($1, $2, $3, $4)`,
			lessonID, *current.StudentID, time.Now().UTC(), reason); err != nil {
			return nil, fmt.Errorf("log lesson deletion: %w", err)
		}
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, lessonID); err != nil {
		return nil, fmt.Errorf("delete lesson: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete lesson: %w", err)
	}
	return current.SheetMusicPath, nil
}
