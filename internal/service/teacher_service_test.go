package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/music-lessons-api/internal/dto"
	"github.com/noah-isme/music-lessons-api/internal/models"
	"github.com/noah-isme/music-lessons-api/internal/repository"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
)

type mockTeacherRepo struct {
	profiles map[string]*models.TeacherProfile
	reasons  []string
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{profiles: make(map[string]*models.TeacherProfile)}
}

func (m *mockTeacherRepo) FindByEmail(_ context.Context, email string) (*models.TeacherProfile, error) {
	profile, ok := m.profiles[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *profile
	return &clone, nil
}

func (m *mockTeacherRepo) FindByID(_ context.Context, id string) (*models.TeacherProfile, error) {
	for _, profile := range m.profiles {
		if profile.ID == id {
			clone := *profile
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) Create(_ context.Context, profile *models.TeacherProfile) error {
	if _, exists := m.profiles[profile.Email]; exists {
		return fmt.Errorf("create teacher profile: %w", repository.ErrDuplicate)
	}
	profile.ID = fmt.Sprintf("tch-%d", len(m.profiles)+1)
	clone := *profile
	m.profiles[profile.Email] = &clone
	return nil
}

func (m *mockTeacherRepo) Update(_ context.Context, profile *models.TeacherProfile) error {
	clone := *profile
	m.profiles[profile.Email] = &clone
	return nil
}

func (m *mockTeacherRepo) Delete(_ context.Context, teacherID, reason string) ([]string, error) {
	for email, profile := range m.profiles {
		if profile.ID == teacherID {
			delete(m.profiles, email)
			m.reasons = append(m.reasons, reason)
			return nil, nil
		}
	}
	return nil, sql.ErrNoRows
}

func TestTeacherProfileLifecycle(t *testing.T) {
	repo := newMockTeacherRepo()
	cache := &countingInvalidator{}
	svc := NewTeacherService(repo, nil, cache, nil, zap.NewNop())
	ctx := context.Background()
	req := dto.TeacherProfileRequest{Name: "Tess", Instrument: "Violin", HourlyRate: 45, AvailabilityText: "Weekday evenings"}

	created, err := svc.Create(ctx, "tess@example.com", req)
	require.NoError(t, err)
	assert.Equal(t, "tch-1", created.ID)

	_, err = svc.Create(ctx, "tess@example.com", req)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	req.HourlyRate = 120
	updated, err := svc.Update(ctx, "tess@example.com", req)
	require.NoError(t, err)
	assert.Equal(t, 120.0, updated.HourlyRate)

	require.NoError(t, svc.Delete(ctx, "tess@example.com"))
	assert.Equal(t, []string{models.CancelReasonTeacherDeletion}, repo.reasons)
	assert.Equal(t, 1, cache.calls)

	_, err = svc.Update(ctx, "tess@example.com", req)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTeacherHourlyRateBounds(t *testing.T) {
	svc := NewTeacherService(newMockTeacherRepo(), nil, nil, nil, nil)

	for _, rate := range []float64{19.99, 200.01, 0} {
		_, err := svc.Create(context.Background(), "tess@example.com", dto.TeacherProfileRequest{Name: "Tess", Instrument: "Violin", HourlyRate: rate})
		require.Error(t, err, "rate %v", rate)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
		assert.Contains(t, err.Error(), "hourly_rate")
	}
	for _, rate := range []float64{20, 200} {
		_, err := svc.Create(context.Background(), fmt.Sprintf("t%v@example.com", rate), dto.TeacherProfileRequest{Name: "Tess", Instrument: "Violin", HourlyRate: rate})
		assert.NoError(t, err, "rate %v", rate)
	}
}
