package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/music-lessons-api/internal/dto"
	"github.com/noah-isme/music-lessons-api/internal/models"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
)

type recordingRemover struct {
	emails []string
	err    error
}

func (r *recordingRemover) Delete(_ context.Context, email string) error {
	r.emails = append(r.emails, email)
	return r.err
}

func seedAccount(t *testing.T, repo *mockAccountRepo, id, email string, role models.UserRole, pin string) {
	t.Helper()
	account := &models.Account{ID: id, Email: email, Role: role, OutreachSource: "Google"}
	if pin != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
		require.NoError(t, err)
		encoded := string(hash)
		account.AdminPinHash = &encoded
	}
	repo.accounts[email] = account
}

func newTestAdminService(repo *mockAccountRepo, students, teachers profileRemover) *AdminService {
	svc := NewAdminService(repo, students, teachers, &countingInvalidator{}, nil, zap.NewNop())
	svc.bcryptCost = bcrypt.MinCost
	return svc
}

func TestAdminUpdateOutreachAndPin(t *testing.T) {
	repo := newMockAccountRepo()
	seedAccount(t, repo, "adm-1", "root@example.com", models.RoleAdmin, "2468")
	svc := newTestAdminService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Update(ctx, "adm-1", dto.AdminProfileUpdateRequest{OutreachSource: "Billboard"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Update(ctx, "adm-1", dto.AdminProfileUpdateRequest{CurrentPin: "0000", NewPin: "13579"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidPin)

	updated, err := svc.Update(ctx, "adm-1", dto.AdminProfileUpdateRequest{OutreachSource: "Flyer", CurrentPin: "2468", NewPin: "13579"})
	require.NoError(t, err)
	assert.Equal(t, "Flyer", updated.OutreachSource)

	stored, err := svc.Get(ctx, "adm-1")
	require.NoError(t, err)
	require.NotNil(t, stored.AdminPinHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*stored.AdminPinHash), []byte("13579")))
}

func TestAdminListAccountsByRole(t *testing.T) {
	repo := newMockAccountRepo()
	seedAccount(t, repo, "adm-1", "root@example.com", models.RoleAdmin, "")
	seedAccount(t, repo, "stu-1", "sam@example.com", models.RoleStudent, "")
	svc := newTestAdminService(repo, nil, nil)

	accounts, err := svc.ListAccounts(context.Background(), "Student", "")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "stu-1", accounts[0].ID)

	_, err = svc.ListAccounts(context.Background(), "owner", "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAdminDeleteAccountRemovesProfile(t *testing.T) {
	repo := newMockAccountRepo()
	seedAccount(t, repo, "adm-1", "root@example.com", models.RoleAdmin, "")
	seedAccount(t, repo, "stu-1", "sam@example.com", models.RoleStudent, "")
	seedAccount(t, repo, "tch-1", "tess@example.com", models.RoleTeacher, "")
	students := &recordingRemover{}
	teachers := &recordingRemover{err: appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")}
	svc := newTestAdminService(repo, students, teachers)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteAccount(ctx, "adm-1", "adm-1"), appErrors.ErrConflict)

	require.NoError(t, svc.DeleteAccount(ctx, "adm-1", "stu-1"))
	assert.Equal(t, []string{"sam@example.com"}, students.emails)

	require.NoError(t, svc.DeleteAccount(ctx, "adm-1", "tch-1"))
	assert.Equal(t, []string{"tess@example.com"}, teachers.emails)

	assert.ErrorIs(t, svc.DeleteAccount(ctx, "adm-1", "stu-1"), appErrors.ErrNotFound)
	assert.Len(t, repo.accounts, 1)
}

func TestAdminDeleteAccountStopsOnProfileFailure(t *testing.T) {
	repo := newMockAccountRepo()
	seedAccount(t, repo, "stu-1", "sam@example.com", models.RoleStudent, "")
	svc := newTestAdminService(repo, &recordingRemover{err: appErrors.Internal(assert.AnError, "failed")}, nil)

	err := svc.DeleteAccount(context.Background(), "adm-1", "stu-1")
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Len(t, repo.accounts, 1)
}

func TestAdminDeleteAdminAccountRemovesBothProfiles(t *testing.T) {
	repo := newMockAccountRepo()
	seedAccount(t, repo, "adm-1", "root@example.com", models.RoleAdmin, "")
	seedAccount(t, repo, "adm-2", "ops@example.com", models.RoleAdmin, "")
	students := &recordingRemover{}
	teachers := &recordingRemover{err: appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")}
	svc := newTestAdminService(repo, students, teachers)

	require.NoError(t, svc.DeleteAccount(context.Background(), "adm-1", "adm-2"))
	assert.Equal(t, []string{"ops@example.com"}, students.emails)
	assert.Equal(t, []string{"ops@example.com"}, teachers.emails)
	assert.Len(t, repo.accounts, 1)
}
