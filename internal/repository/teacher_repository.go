package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/music-lessons-api/internal/models"
)

const teacherColumns = `id, name, email, instrument, hourly_rate, availability_text, created_at, updated_at`

// TeacherRepository manages persistence for teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByEmail returns the profile owned by the account with email.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.TeacherProfile, error) {
	query := `SELECT ` + teacherColumns + ` FROM teacher_profiles WHERE email = $1 LIMIT 1`
	var profile models.TeacherProfile
	if err := r.db.GetContext(ctx, &profile, query, models.NormalizeEmail(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher profile by email: %w", err)
	}
	return &profile, nil
}

// FindByID returns a teacher profile by identifier.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.TeacherProfile, error) {
	query := `SELECT ` + teacherColumns + ` FROM teacher_profiles WHERE id = $1 LIMIT 1`
	var profile models.TeacherProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if isMissing(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find teacher profile by id: %w", err)
	}
	return &profile, nil
}

// Create inserts a teacher profile.
func (r *TeacherRepository) Create(ctx context.Context, profile *models.TeacherProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.Email = models.NormalizeEmail(profile.Email)
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	const query = `INSERT INTO teacher_profiles (id, name, email, instrument, hourly_rate, availability_text, created_at, updated_at)
VALUES (:id, :name, :email, :instrument, :hourly_rate, :availability_text, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create teacher profile: %w", ErrDuplicate)
		}
		return fmt.Errorf("create teacher profile: %w", err)
	}
	return nil
}

// Update writes the mutable fields of a teacher profile.
func (r *TeacherRepository) Update(ctx context.Context, profile *models.TeacherProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teacher_profiles SET name = :name, instrument = :instrument, hourly_rate = :hourly_rate,
availability_text = :availability_text, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("update teacher profile: %w", err)
	}
	return nil
}

// Delete removes a teacher profile together with all of its lessons. Booked lessons are
// logged with reason before removal. Sheet music paths of removed lessons are returned.
func (r *TeacherRepository) Delete(ctx context.Context, teacherID, reason string) (paths []string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete teacher profile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	paths = make([]string, 0)
	if err = tx.SelectContext(ctx, &paths, `SELECT sheet_music_path FROM lessons WHERE teacher_id = $1 AND sheet_music_path IS NOT NULL`, teacherID); err != nil {
		return nil, fmt.Errorf("collect teacher uploads: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO cancellation_log (lesson_id, student_id, cancelled_at, reason)
SELECT id, student_id, $2, $3 FROM lessons WHERE teacher_id = $1 AND student_id IS NOT NULL`, teacherID, time.Now().UTC(), reason); err != nil {
		return nil, fmt.Errorf("log teacher lesson removals: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM lessons WHERE teacher_id = $1`, teacherID); err != nil {
		return nil, fmt.Errorf("delete teacher lessons: %w", err)
	}

	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM teacher_profiles WHERE id = $1`, teacherID); err != nil {
		return nil, fmt.Errorf("delete teacher profile: %w", err)
	}
	var affected int64
	if affected, err = res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("delete teacher profile rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete teacher profile: %w", err)
	}
	return paths, nil
}
