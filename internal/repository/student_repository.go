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

const studentColumns = `id, name, email, card_number, card_expiry, instrument, pin, created_at, updated_at`

// StudentRepository manages persistence for student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByEmail returns the profile owned by the account with email.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.StudentProfile, error) {
	query := `SELECT ` + studentColumns + ` FROM student_profiles WHERE email = $1 LIMIT 1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, models.NormalizeEmail(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student profile: %w", err)
	}
	return &profile, nil
}

// Create inserts a student profile. A second profile for the same email yields ErrDuplicate.
func (r *StudentRepository) Create(ctx context.Context, profile *models.StudentProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.Email = models.NormalizeEmail(profile.Email)
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	const query = `INSERT INTO student_profiles (id, name, email, card_number, card_expiry, instrument, pin, created_at, updated_at)
VALUES (:id, :name, :email, :card_number, :card_expiry, :instrument, :pin, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create student profile: %w", ErrDuplicate)
		}
		return fmt.Errorf("create student profile: %w", err)
	}
	return nil
}

// Update writes the mutable fields of a profile identified by ID.
func (r *StudentRepository) Update(ctx context.Context, profile *models.StudentProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_profiles SET name = :name, card_number = :card_number, card_expiry = :card_expiry,
instrument = :instrument, pin = :pin, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("update student profile: %w", err)
	}
	return nil
}

// Delete removes a student profile. Lessons booked by the student are reopened, each
// release logged with reason; the stored sheet music paths of those lessons are returned.
func (r *StudentRepository) Delete(ctx context.Context, studentID, reason string) (paths []string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete student profile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	paths = make([]string, 0)
	if err = tx.SelectContext(ctx, &paths, `SELECT sheet_music_path FROM lessons WHERE student_id = $1 AND sheet_music_path IS NOT NULL`, studentID); err != nil {
		return nil, fmt.Errorf("collect student uploads: %w", err)
	}

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `INSERT INTO cancellation_log (lesson_id, student_id, cancelled_at, reason)
SELECT id, student_id, $2, $3 FROM lessons WHERE student_id = $1`, studentID, now, reason); err != nil {
		return nil, fmt.Errorf("log student releases: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE lessons SET `+clearOccupant+`, updated_at = $2 WHERE student_id = $1`, studentID, now); err != nil {
		return nil, fmt.Errorf("release student lessons: %w", err)
	}

	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM student_profiles WHERE id = $1`, studentID); err != nil {
		return nil, fmt.Errorf("delete student profile: %w", err)
	}
	var affected int64
	if affected, err = res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("delete student profile rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete student profile: %w", err)
	}
	return paths, nil
}
