package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error code for unique constraint violations.
const uniqueViolationCode = "23505"

var _ UserRepo = (*PostgresUserRepo)(nil)

type UserRepo interface {
	// CreateUser inserts a credential record. A duplicate email yields
	// ErrConflict; the unique constraint on the table makes the check and the
	// insert atomic under concurrent registrations.
	CreateUser(ctx context.Context, email, passwordHash, displayName string) (*User, error)

	// GetUserByEmail returns the record for the email or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// DB is the subset of pgxpool.Pool the repository needs. pgxmock's pool
// satisfies it in tests.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresUserRepo struct {
	logger *slog.Logger
	db     DB
}

func NewPostgresUserRepo(db DB, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		db:     db,
	}
}

func (r *PostgresUserRepo) CreateUser(ctx context.Context, email, passwordHash, displayName string) (*User, error) {
	var user User
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, display_name)
         VALUES ($1, $2, $3)
         RETURNING id, email, password_hash, display_name, avatar_url, created_at, updated_at`,
		email, passwordHash, displayName).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
		&user.AvatarURL, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create user: db insert failed: %w", err)
	}

	return &user, nil
}

func (r *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, password_hash, display_name, avatar_url, created_at, updated_at
         FROM users WHERE email = $1`,
		email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
		&user.AvatarURL, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("get user by email: query failed: %w", err)
	}

	return &user, nil
}
