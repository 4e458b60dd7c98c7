package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/repository"
)

const minPasswordLength = 6

// UserRepository defines the persistence operations required by the
// AuthService.
type UserRepository interface {
	// UserExists reports whether an account uses email.
	UserExists(ctx context.Context, email string) (bool, error)
	// RegisterUser stores a new account.
	RegisterUser(ctx context.Context, rec repository.UserRecord) error
	FindByEmail(ctx context.Context, email string) (*repository.UserRecord, error)
	FindByID(ctx context.Context, id string) (*repository.UserRecord, error)
	// ListByStatus returns the accounts in the given state.
	ListByStatus(ctx context.Context, status string) ([]repository.UserRecord, error)
	// UpdateStatus changes the state of an account.
	UpdateStatus(ctx context.Context, id, status string) (*repository.UserRecord, error)
}

// AuthService registers accounts and issues and verifies tokens.
type AuthService struct {
	repo     UserRepository
	tokens   *TokenIssuer
	cost     int
	approval bool
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithApproval makes new accounts PENDING until an admin approves them.
func WithApproval(required bool) AuthOption {
	return func(s *AuthService) {
		s.approval = required
	}
}

// NewAuthService constructs an AuthService. cost is the bcrypt cost; values
// outside bcrypt's range select bcrypt.DefaultCost.
func NewAuthService(repo UserRepository, tokens *TokenIssuer, cost int, opts ...AuthOption) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	s := &AuthService{repo: repo, tokens: tokens, cost: cost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account. It does not sign the user in. The account is
// active right away unless approval is required.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	status, message := models.UserActive, "registered, please sign in"
	if s.approval {
		status, message = models.UserPending, "registered, an administrator has to approve the account"
	}
	user, err := s.create(ctx, req, models.RoleUser, status)
	if err != nil {
		return nil, err
	}
	return authResponse(*user, "", message), nil
}

// SeedAdmin creates an active admin account unless email is already taken.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	_, err := s.create(ctx, models.RegisterRequest{Email: email, Password: password, FullName: "Administrator"},
		models.RoleAdmin, models.UserActive)
	if errors.Is(err, ErrEmailTaken) {
		return nil
	}
	return err
}

// PendingUsers lists the accounts waiting for approval.
func (s *AuthService) PendingUsers(ctx context.Context) ([]models.User, error) {
	recs, err := s.repo.ListByStatus(ctx, models.UserPending)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, rec.User)
	}
	return users, nil
}

// ApproveUser activates the account with the given ID.
func (s *AuthService) ApproveUser(ctx context.Context, id string) (*models.User, error) {
	rec, err := s.repo.UpdateStatus(ctx, id, models.UserActive)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	user := rec.User
	return &user, nil
}

func (s *AuthService) create(ctx context.Context, req models.RegisterRequest, role models.Role, status string) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password too short", ErrInvalidInput)
	}

	exists, err := s.repo.UserExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.NewString(),
		Email:    email,
		FullName: strings.TrimSpace(req.FullName),
		Role:     role,
		Status:   status,
	}
	if err := s.repo.RegisterUser(ctx, repository.UserRecord{User: user, PasswordHash: string(hash)}); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

// Login verifies the credentials and returns a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	rec, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if rec.Status == models.UserPending {
		return nil, ErrAccountPending
	}

	token, err := s.tokens.Issue(rec.User)
	if err != nil {
		return nil, err
	}
	return authResponse(rec.User, token, "signed in"), nil
}

// Authenticate returns the account a token belongs to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.FindByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	user := rec.User
	return &user, nil
}

// Logout revokes token.
func (s *AuthService) Logout(_ context.Context, token string) {
	s.tokens.Revoke(token)
}

func authResponse(user models.User, token, message string) *models.AuthResponse {
	return &models.AuthResponse{
		Token:    token,
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
		Status:   user.Status,
		Message:  message,
	}
}
