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

type teacherRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.TeacherProfile, error)
	FindByID(ctx context.Context, id string) (*models.TeacherProfile, error)
	Create(ctx context.Context, profile *models.TeacherProfile) error
	Update(ctx context.Context, profile *models.TeacherProfile) error
	Delete(ctx context.Context, teacherID, reason string) ([]string, error)
}

// TeacherService manages the caller's teacher profile.
type TeacherService struct {
	repo       teacherRepository
	sheetMusic *SheetMusicService
	cache      cacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewTeacherService constructs the teacher service.
func NewTeacherService(repo teacherRepository, sheetMusic *SheetMusicService, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, sheetMusic: sheetMusic, cache: cache, validator: validate, logger: logger}
}

// Get returns the profile owned by email.
func (s *TeacherService) Get(ctx context.Context, email string) (*models.TeacherProfile, error) {
	profile, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Internal(err, "failed to load teacher profile")
	}
	return profile, nil
}

// Create stores a profile for email.
func (s *TeacherService) Create(ctx context.Context, email string, req dto.TeacherProfileRequest) (*models.TeacherProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "teacher profile")
	}
	profile := &models.TeacherProfile{
		Name:             req.Name,
		Email:            email,
		Instrument:       req.Instrument,
		HourlyRate:       req.HourlyRate,
		AvailabilityText: req.AvailabilityText,
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teacher profile already exists")
		}
		return nil, appErrors.Internal(err, "failed to create teacher profile")
	}
	return profile, nil
}

// Update replaces the mutable fields of the caller's profile.
func (s *TeacherService) Update(ctx context.Context, email string, req dto.TeacherProfileRequest) (*models.TeacherProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "teacher profile")
	}
	profile, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	profile.Name = req.Name
	profile.Instrument = req.Instrument
	profile.HourlyRate = req.HourlyRate
	profile.AvailabilityText = req.AvailabilityText
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, appErrors.Internal(err, "failed to update teacher profile")
	}
	return profile, nil
}

// Delete removes the caller's profile and every lesson it owns. The account is kept.
func (s *TeacherService) Delete(ctx context.Context, email string) error {
	profile, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	paths, err := s.repo.Delete(ctx, profile.ID, models.CancelReasonTeacherDeletion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return appErrors.Internal(err, "failed to delete teacher profile")
	}
	for _, path := range paths {
		s.sheetMusic.Remove(ctx, path)
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	s.logger.Info("teacher profile deleted", zap.String("teacher_id", profile.ID))
	return nil
}
