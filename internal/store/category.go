// ABOUTME: Store methods for goal categories.
// ABOUTME: Deletion goes through the board cascade, never through this file.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Category is a row of the goal_categories table.
type Category struct {
	ID        uuid.UUID `db:"id" json:"id"`
	BoardID   uuid.UUID `db:"board_id" json:"board_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const categoryColumns = `c.id, c.board_id, c.user_id, c.title, c.is_deleted, c.created_at, c.updated_at`

// CreateCategory inserts a category on boardID authored by userID.
func (s *Store) CreateCategory(ctx context.Context, boardID, userID uuid.UUID, title string) (*Category, error) {
	return createCategory(ctx, s.pool, boardID, userID, title)
}

// CreateCategory is Store.CreateCategory on the transaction.
func (t *Tx) CreateCategory(ctx context.Context, boardID, userID uuid.UUID, title string) (*Category, error) {
	return createCategory(ctx, t.q, boardID, userID, title)
}

func createCategory(ctx context.Context, q querier, boardID, userID uuid.UUID, title string) (*Category, error) {
	rows, err := q.Query(ctx, `
		INSERT INTO goal_categories AS c (board_id, user_id, title)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns, boardID, userID, title)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Category])
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// GetCategory returns the category if it is visible, or (nil, nil) otherwise.
func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM goal_categories c
		JOIN boards b ON b.id = c.board_id
		WHERE c.id = $1 AND `+visibleCategory, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Category])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// ListCategories returns the visible categories on boards userID participates
// in, by title. A non-zero boardID narrows the list to that board.
func (s *Store) ListCategories(ctx context.Context, userID, boardID uuid.UUID) ([]Category, error) {
	q := participantScope(psql.Select(categoryColumns).
		From("goal_categories c").
		Join("boards b ON b.id = c.board_id"), userID).
		Where(visibleCategory).
		OrderBy("c.title", "c.id")
	if boardID != uuid.Nil {
		q = q.Where("c.board_id = ?", boardID)
	}
	rows, err := s.queryList(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Category])
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// UpdateCategoryTitle renames a category. Returns (nil, nil) if it is not visible.
func (s *Store) UpdateCategoryTitle(ctx context.Context, id uuid.UUID, title string) (*Category, error) {
	return updateCategoryTitle(ctx, s.pool, id, title)
}

// UpdateCategoryTitle is Store.UpdateCategoryTitle on the transaction.
func (t *Tx) UpdateCategoryTitle(ctx context.Context, id uuid.UUID, title string) (*Category, error) {
	return updateCategoryTitle(ctx, t.q, id, title)
}

func updateCategoryTitle(ctx context.Context, q querier, id uuid.UUID, title string) (*Category, error) {
	rows, err := q.Query(ctx, `
		UPDATE goal_categories c SET title = $2, updated_at = now()
		FROM boards b
		WHERE c.id = $1 AND b.id = c.board_id AND `+visibleCategory+`
		RETURNING `+categoryColumns, id, title)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Category])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}
