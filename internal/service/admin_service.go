package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/music-lessons-api/internal/dto"
	"github.com/noah-isme/music-lessons-api/internal/models"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
)

type adminAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	UpdateAdminSettings(ctx context.Context, account *models.Account) error
	List(ctx context.Context, filter models.AccountFilter) ([]models.Account, error)
	Delete(ctx context.Context, id string) error
}

type profileRemover interface {
	Delete(ctx context.Context, email string) error
}

// AdminService covers the admin's own account and account management.
type AdminService struct {
	accounts   adminAccountRepository
	students   profileRemover
	teachers   profileRemover
	cache      cacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
	bcryptCost int
}

// NewAdminService constructs an AdminService.
func NewAdminService(accounts adminAccountRepository, students, teachers profileRemover, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		accounts:   accounts,
		students:   students,
		teachers:   teachers,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Get returns the caller's account.
func (s *AdminService) Get(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Internal(err, "failed to load account")
	}
	return account, nil
}

// Update changes the outreach source and, when the current PIN is proven, the admin PIN.
func (s *AdminService) Update(ctx context.Context, accountID string, req dto.AdminProfileUpdateRequest) (*models.Account, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "admin profile")
	}
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if source := strings.TrimSpace(req.OutreachSource); source != "" {
		if !models.IsOutreachSource(source) {
			return nil, validationError("outreach source must be one of " + strings.Join(models.OutreachSources, ", "))
		}
		account.OutreachSource = source
	}

	if req.NewPin != "" {
		if account.AdminPinHash == nil || req.CurrentPin == "" ||
			bcrypt.CompareHashAndPassword([]byte(*account.AdminPinHash), []byte(req.CurrentPin)) != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidPin, "current pin is incorrect")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPin), s.bcryptCost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash admin pin")
		}
		encoded := string(hash)
		account.AdminPinHash = &encoded
	}

	if err := s.accounts.UpdateAdminSettings(ctx, account); err != nil {
		return nil, appErrors.Internal(err, "failed to update account")
	}
	return account, nil
}

// ListAccounts returns every account, optionally restricted to one role.
func (s *AdminService) ListAccounts(ctx context.Context, rawRole, search string) ([]models.Account, error) {
	filter := models.AccountFilter{Search: strings.TrimSpace(search)}
	if rawRole != "" {
		role, ok := models.ParseRole(rawRole)
		if !ok {
			return nil, validationError("role must be one of admin, teacher, student")
		}
		filter.Role = &role
	}
	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list accounts")
	}
	return accounts, nil
}

// DeleteAccount removes another account together with its profile.
func (s *AdminService) DeleteAccount(ctx context.Context, callerID, accountID string) error {
	if callerID == accountID {
		return appErrors.Clone(appErrors.ErrConflict, "cannot delete your own account")
	}
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return err
	}

	var profiles []profileRemover
	switch account.Role {
	case models.RoleStudent:
		profiles = []profileRemover{s.students}
	case models.RoleTeacher:
		profiles = []profileRemover{s.teachers}
	case models.RoleAdmin:
		// Admins may hold either profile under their own email.
		profiles = []profileRemover{s.students, s.teachers}
	}
	for _, remover := range profiles {
		if remover == nil {
			continue
		}
		if err := remover.Delete(ctx, account.Email); err != nil && !errors.Is(err, appErrors.ErrNotFound) {
			return err
		}
	}

	if err := s.accounts.Delete(ctx, account.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Internal(err, "failed to delete account")
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	s.logger.Info("account deleted", zap.String("account_id", account.ID), zap.String("role", string(account.Role)))
	return nil
}
