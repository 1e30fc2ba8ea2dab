package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/music-lessons-api/internal/dto"
	"github.com/noah-isme/music-lessons-api/internal/models"
	"github.com/noah-isme/music-lessons-api/internal/repository"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
)

type studentRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.StudentProfile, error)
	Create(ctx context.Context, profile *models.StudentProfile) error
	Update(ctx context.Context, profile *models.StudentProfile) error
	Delete(ctx context.Context, studentID, reason string) ([]string, error)
}

// StudentService manages the caller's student profile.
type StudentService struct {
	repo       studentRepository
	sheetMusic *SheetMusicService
	cache      cacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, sheetMusic *SheetMusicService, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, sheetMusic: sheetMusic, cache: cache, validator: validate, logger: logger}
}

// Get returns the profile owned by email.
func (s *StudentService) Get(ctx context.Context, email string) (*models.StudentProfile, error) {
	profile, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Internal(err, "failed to load student profile")
	}
	return profile, nil
}

func (s *StudentService) validate(req dto.StudentProfileRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return invalidPayload(err, "student profile")
	}
	if !cardExpiryPattern.MatchString(req.CardExpiry) {
		return validationError("card expiry must be in MM/YY format")
	}
	return nil
}

// Create stores a profile for email. A second profile for the same email is a conflict.
func (s *StudentService) Create(ctx context.Context, email string, req dto.StudentProfileRequest) (*models.StudentProfile, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	profile := &models.StudentProfile{
		Name:       req.Name,
		Email:      email,
		CardNumber: req.CardNumber,
		CardExpiry: req.CardExpiry,
		Instrument: req.Instrument,
		Pin:        req.Pin,
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student profile already exists")
		}
		return nil, appErrors.Internal(err, "failed to create student profile")
	}
	return profile, nil
}

// Update replaces the mutable fields of the caller's profile.
func (s *StudentService) Update(ctx context.Context, email string, req dto.StudentProfileRequest) (*models.StudentProfile, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	profile, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	profile.Name = req.Name
	profile.CardNumber = req.CardNumber
	profile.CardExpiry = req.CardExpiry
	profile.Instrument = req.Instrument
	profile.Pin = req.Pin
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, appErrors.Internal(err, "failed to update student profile")
	}
	return profile, nil
}

// Delete removes the caller's profile and releases its bookings. The account is kept.
func (s *StudentService) Delete(ctx context.Context, email string) error {
	profile, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	paths, err := s.repo.Delete(ctx, profile.ID, models.CancelReasonStudentDeletion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return appErrors.Internal(err, "failed to delete student profile")
	}
	for _, path := range paths {
		s.sheetMusic.Remove(ctx, path)
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	s.logger.Info("student profile deleted", zap.String("student_id", profile.ID), zap.Int("released_uploads", len(paths)))
	return nil
}
