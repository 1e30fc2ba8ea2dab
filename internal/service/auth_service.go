package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/music-lessons-api/internal/models"
	"github.com/noah-isme/music-lessons-api/internal/repository"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 6

type authAccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

// AuthConfig defines policy for signup and login.
type AuthConfig struct {
	AdminSignupPIN string
	BcryptCost     int
}

// AuthService provides signup and login use cases.
type AuthService struct {
	repo   authAccountRepository
	tokens *TokenService
	logger *zap.Logger
	config AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authAccountRepository, tokens *TokenService, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{repo: repo, tokens: tokens, logger: logger, config: config}
}

// Signup registers a new account. Checks run in a fixed order and the first failure is reported.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.SignupResponse, error) {
	email := models.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, validationError("email and password are required")
	}
	if !emailPattern.MatchString(email) {
		return nil, validationError("email address is not valid")
	}
	if len(req.Password) < minPasswordLength {
		return nil, validationError("password must be at least 6 characters")
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, validationError("role must be one of admin, teacher, student")
	}
	if role == models.RoleAdmin && !pinMatches(req.Pin, s.config.AdminSignupPIN) {
		return nil, validationError("admin pin is incorrect")
	}
	source := strings.TrimSpace(req.OutreachSource)
	if !models.IsOutreachSource(source) {
		return nil, validationError("outreach source must be one of " + strings.Join(models.OutreachSources, ", "))
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	account := &models.Account{
		Email:          email,
		PasswordHash:   string(passwordHash),
		Role:           role,
		OutreachSource: source,
	}
	if role == models.RoleAdmin {
		pinHash, err := bcrypt.GenerateFromPassword([]byte(req.Pin), s.config.BcryptCost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash admin pin")
		}
		hash := string(pinHash)
		account.AdminPinHash = &hash
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "email already registered")
		}
		return nil, appErrors.Internal(err, "failed to create account")
	}

	s.logger.Info("account created", zap.String("account_id", account.ID), zap.String("role", string(role)))
	return &models.SignupResponse{AccountID: account.ID, Email: account.Email, Role: role}, nil
}

// Login authenticates an account and issues a bearer token. Admins must also supply their PIN.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	email := models.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, validationError("email and password are required")
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	if account.Role == models.RoleAdmin {
		if req.Pin == "" || account.AdminPinHash == nil ||
			bcrypt.CompareHashAndPassword([]byte(*account.AdminPinHash), []byte(req.Pin)) != nil {
			s.logger.Warn("admin login rejected", zap.String("account_id", account.ID))
			return nil, appErrors.Clone(appErrors.ErrInvalidPin, "invalid admin pin")
		}
	}

	token, _, err := s.tokens.Issue(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	return &models.LoginResponse{
		Token:     token,
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		ExpiresIn: int64(s.tokens.Expiry().Seconds()),
	}, nil
}

// ValidateToken delegates to the token service.
func (s *AuthService) ValidateToken(token string) (*models.JWTClaims, error) {
	return s.tokens.Validate(token)
}

func pinMatches(given, expected string) bool {
	if given == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}
