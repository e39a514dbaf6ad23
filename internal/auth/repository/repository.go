// Package repository provides database operations for staff users.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// Repository provides database operations for users.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new users repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// User is a staff account that can act on bookings.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  *string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userSelectCols = `
	id, email, password_hash, display_name, roles, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Roles, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// CreateUserParams contains parameters for inserting a user.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	DisplayName  *string
	Roles        []string
}

func (r *Repository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name, roles)
		VALUES (LOWER($1), $2, $3, $4)
		RETURNING`+userSelectCols,
		params.Email, params.PasswordHash, params.DisplayName, params.Roles,
	))
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT`+userSelectCols+`
		FROM users WHERE id = $1
	`, id))
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT`+userSelectCols+`
		FROM users WHERE email = LOWER($1)
	`, email))
}

// SetUserRoles replaces a user's role set.
func (r *Repository) SetUserRoles(ctx context.Context, id uuid.UUID, roles []string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET roles = $2, updated_at = NOW() WHERE id = $1
	`, id, roles)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
