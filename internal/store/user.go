// ABOUTME: Store methods for users. Users are created by operators (cmd create-user);
// ABOUTME: there is no signup or password flow.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUsernameTaken is returned by CreateUser when the username already exists.
var ErrUsernameTaken = errors.New("username already taken")

// User is a row of the users table.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, username string) (*User, error) {
	rows, err := s.pool.Query(ctx,
		`INSERT INTO users (username) VALUES ($1) RETURNING id, username, created_at`, username)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[User])
	if isUniqueViolation(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUserByID returns the user with the given ID, or (nil, nil) if not found.
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.getUser(ctx, `SELECT id, username, created_at FROM users WHERE id = $1`, id)
}

// GetUserByUsername returns the user with the given username, or (nil, nil) if not found.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, `SELECT id, username, created_at FROM users WHERE username = $1`, username)
}

func (s *Store) getUser(ctx context.Context, sql string, arg any) (*User, error) {
	rows, err := s.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[User])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UsersExist reports which of ids have a users row. The result maps every
// existing id to true; missing ids are absent.
func (s *Store) UsersExist(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	found, err := collectIDs(ctx, s.pool, `SELECT id FROM users WHERE id = ANY($1::text::uuid[])`, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("users exist: %w", err)
	}
	out := make(map[uuid.UUID]bool, len(found))
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
