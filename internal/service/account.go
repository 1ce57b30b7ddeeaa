package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/ShopyKart/internal/auth"
	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/event"
	"github.com/utafrali/ShopyKart/internal/repository"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
	"github.com/utafrali/ShopyKart/pkg/pagination"
	"github.com/utafrali/ShopyKart/pkg/validator"
)

const (
	// bcryptCost is the cost factor for password hashing.
	bcryptCost = 12

	minPasswordLength = 8
	maxPasswordLength = 72

	invalidCredentials = "invalid email or password"
)

// AccountService implements signup, login and account administration.
type AccountService struct {
	repo       repository.AccountRepository
	jwtManager *auth.JWTManager
	producer   *event.Producer
	logger     *slog.Logger
	cost       int
	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

// AccountOption customizes an AccountService.
type AccountOption func(*AccountService)

// WithPasswordCost overrides the bcrypt cost factor.
func WithPasswordCost(cost int) AccountOption {
	return func(s *AccountService) { s.cost = cost }
}

// NewAccountService creates an account service.
func NewAccountService(
	repo repository.AccountRepository,
	jwtManager *auth.JWTManager,
	producer *event.Producer,
	logger *slog.Logger,
	opts ...AccountOption,
) *AccountService {
	s := &AccountService{
		repo:       repo,
		jwtManager: jwtManager,
		producer:   producer,
		logger:     logger,
		cost:       bcryptCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cost < bcrypt.MinCost || s.cost > bcrypt.MaxCost {
		logger.Warn("bcrypt cost out of range, using default",
			slog.Int("cost", s.cost),
			slog.Int("default", bcrypt.DefaultCost),
		)
		s.cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	if err != nil {
		// Only reachable on an invalid cost, which is clamped above.
		panic(fmt.Sprintf("generate dummy password hash: %v", err))
	}
	s.dummyHash = hash
	return s
}

// SignupInput holds the fields of a new account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by a successful login.
type AuthResult struct {
	Identity    domain.Identity `json:"identity"`
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int64           `json:"expires_in"`
}

// Signup registers a user-role account.
func (s *AccountService) Signup(ctx context.Context, input SignupInput) (*domain.Account, error) {
	return s.create(ctx, input, domain.RoleUser)
}

func (s *AccountService) create(ctx context.Context, input SignupInput, role domain.Role) (*domain.Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	a := &domain.Account{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.InfoContext(ctx, "account registered",
		slog.String("account_id", a.ID),
		slog.String("role", string(a.Role)),
	)
	if err := s.producer.PublishAccountRegistered(ctx, a); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.registered event",
			slog.String("account_id", a.ID),
			slog.String("error", err.Error()),
		)
	}
	return a, nil
}

// Authenticate verifies credentials and issues an access token. Every
// mismatch returns the same Unauthorized error.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("get account by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	token, err := s.jwtManager.GenerateAccessToken(a.ID, a.Email, string(a.Role))
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.InfoContext(ctx, "account logged in", slog.String("account_id", a.ID))
	return &AuthResult{
		Identity:    a.Identity(),
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtManager.TTL().Seconds()),
	}, nil
}

// GetAccount returns an account by ID.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// ListAccounts returns a page of accounts, oldest first.
func (s *AccountService) ListAccounts(ctx context.Context, page pagination.Params) ([]domain.Account, int, error) {
	accounts, total, err := s.repo.List(ctx, page.Normalize())
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, total, nil
}

// EnsureAdmin creates an admin account unless the email is already
// registered. It reports whether an account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}
	if _, err := s.repo.GetByEmail(ctx, normalized); err == nil {
		return false, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return false, fmt.Errorf("look up admin account: %w", err)
	}

	if _, err := s.create(ctx, SignupInput{Name: name, Email: normalized, Password: password}, domain.RoleAdmin); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperrors.InvalidInput("email is required")
	}
	if !validator.Var(email, "email") {
		return "", apperrors.InvalidInput("email is not a valid address")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(password) > maxPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at most %d bytes", maxPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}
	return nil
}
