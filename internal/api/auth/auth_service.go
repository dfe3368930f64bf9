package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	// Register validates nothing itself; it hashes the password and creates
	// the credential record. Duplicate emails surface as ErrConflict.
	Register(ctx context.Context, email, password, displayName string) (*User, error)

	// Login verifies the credentials and issues an access token. Unknown
	// email and wrong password both collapse to ErrUnauthenticated so the
	// response never leaks account existence.
	Login(ctx context.Context, email, password string) (string, *User, error)
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
	tokens *TokenService
}

func NewAuthService(repo UserRepo, tokens *TokenService, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		tokens: tokens,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, email, passwordHash, displayName)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrUnauthenticated
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if !CheckPassword(password, user.PasswordHash) {
		return "", nil, ErrUnauthenticated
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	s.logger.InfoContext(ctx, "User logged in",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return token, user, nil
}
