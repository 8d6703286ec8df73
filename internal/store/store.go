// Package store provides the Postgres data access layer. All queries go
// through pgx: plain reads use the pool directly, and every multi-row write
// (board creation, membership diffs, cascades) runs inside one native pgx
// transaction.
//
// Store implements board.Store, so the authorization and cascade engines read
// and write through it without knowing about SQL.
package store

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scarson/taskboard/internal/board"
)

// querier is the query surface shared by *pgxpool.Pool and pgx.Tx, so read
// helpers work both inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the central data access object.
type Store struct {
	pool *pgxpool.Pool
}

var _ board.Store = (*Store)(nil)

// New creates a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying pgxpool, e.g. for health checks.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// withTx runs fn inside a pgx transaction (read committed, the Postgres
// default). The transaction is committed if fn returns nil and rolled back
// otherwise, including on panic.
func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit; rollback on fn error or panic
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// InTx implements board.Store. fn receives a transaction-scoped handle that
// satisfies board.Tx.
func (s *Store) InTx(ctx context.Context, fn func(board.Tx) error) error {
	return s.RunTx(ctx, func(tx *Tx) error { return fn(tx) })
}

// RunTx runs fn with a *Tx under the same commit and rollback rules as InTx.
func (s *Store) RunTx(ctx context.Context, fn func(*Tx) error) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		return fn(&Tx{q: tx})
	})
}

// ResolveTarget implements board.Reader.
func (s *Store) ResolveTarget(ctx context.Context, t board.Target) (*board.Subject, error) {
	return resolveTarget(ctx, s.pool, t)
}

// MembershipOf implements board.Reader.
func (s *Store) MembershipOf(ctx context.Context, boardID, userID uuid.UUID) (*board.Role, error) {
	return membershipOf(ctx, s.pool, boardID, userID)
}

// uuidArray renders ids as a Postgres array literal. Queries take it as
// $n::text::uuid[], which encodes the same way under the extended protocol
// and under simple_protocol, where pgx has no parameter OIDs to go by.
func uuidArray(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// psql builds statements with Postgres ($n) placeholders. List queries use it
// because their parent filter is optional.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// participantScope restricts b to rows on boards userID participates in. b
// must expose the board as alias "b".
func participantScope(b sq.SelectBuilder, userID uuid.UUID) sq.SelectBuilder {
	return b.Join("board_participants p ON p.board_id = b.id AND p.user_id = ?", userID)
}

// queryList renders b and runs it on the pool.
func (s *Store) queryList(ctx context.Context, b sq.SelectBuilder) (pgx.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.pool.Query(ctx, query, args...)
}
