// ABOUTME: Store methods for goal comments. Comments are removed physically;
// ABOUTME: a comment is visible exactly when its goal is.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Comment is a row of the goal_comments table.
type Comment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	GoalID    uuid.UUID `db:"goal_id" json:"goal_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const commentColumns = `m.id, m.goal_id, m.user_id, m.text, m.created_at, m.updated_at`

// CreateComment inserts a comment on goalID authored by userID.
func (s *Store) CreateComment(ctx context.Context, goalID, userID uuid.UUID, text string) (*Comment, error) {
	return createComment(ctx, s.pool, goalID, userID, text)
}

// CreateComment is Store.CreateComment on the transaction.
func (t *Tx) CreateComment(ctx context.Context, goalID, userID uuid.UUID, text string) (*Comment, error) {
	return createComment(ctx, t.q, goalID, userID, text)
}

func createComment(ctx context.Context, q querier, goalID, userID uuid.UUID, text string) (*Comment, error) {
	rows, err := q.Query(ctx, `
		INSERT INTO goal_comments AS m (goal_id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING `+commentColumns, goalID, userID, text)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Comment])
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// GetComment returns the comment if its goal is visible, or (nil, nil) otherwise.
func (s *Store) GetComment(ctx context.Context, id uuid.UUID) (*Comment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+commentColumns+`
		FROM goal_comments m
		JOIN goals g ON g.id = m.goal_id
		JOIN goal_categories c ON c.id = g.category_id
		JOIN boards b ON b.id = c.board_id
		WHERE m.id = $1 AND `+visibleGoal, id)
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Comment])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

// ListComments returns visible comments on boards userID participates in,
// oldest first. A non-zero goalID narrows the list to that goal.
func (s *Store) ListComments(ctx context.Context, userID, goalID uuid.UUID) ([]Comment, error) {
	q := participantScope(psql.Select(commentColumns).
		From("goal_comments m").
		Join("goals g ON g.id = m.goal_id").
		Join("goal_categories c ON c.id = g.category_id").
		Join("boards b ON b.id = c.board_id"), userID).
		Where(visibleGoal).
		OrderBy("m.created_at", "m.id")
	if goalID != uuid.Nil {
		q = q.Where("m.goal_id = ?", goalID)
	}
	rows, err := s.queryList(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Comment])
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

// UpdateCommentText edits a comment. Returns (nil, nil) if it is not visible.
func (s *Store) UpdateCommentText(ctx context.Context, id uuid.UUID, text string) (*Comment, error) {
	return updateCommentText(ctx, s.pool, id, text)
}

// UpdateCommentText is Store.UpdateCommentText on the transaction.
func (t *Tx) UpdateCommentText(ctx context.Context, id uuid.UUID, text string) (*Comment, error) {
	return updateCommentText(ctx, t.q, id, text)
}

func updateCommentText(ctx context.Context, q querier, id uuid.UUID, text string) (*Comment, error) {
	rows, err := q.Query(ctx, `
		UPDATE goal_comments m SET text = $2, updated_at = now()
		FROM goals g
		JOIN goal_categories c ON c.id = g.category_id
		JOIN boards b ON b.id = c.board_id
		WHERE m.id = $1 AND g.id = m.goal_id AND `+visibleGoal+`
		RETURNING `+commentColumns, id, text)
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Comment])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return c, nil
}

// DeleteComment removes a comment row. Returns false if no row was deleted.
func (s *Store) DeleteComment(ctx context.Context, id uuid.UUID) (bool, error) {
	return deleteComment(ctx, s.pool, id)
}

// DeleteComment is Store.DeleteComment on the transaction.
func (t *Tx) DeleteComment(ctx context.Context, id uuid.UUID) (bool, error) {
	return deleteComment(ctx, t.q, id)
}

func deleteComment(ctx context.Context, q querier, id uuid.UUID) (bool, error) {
	tag, err := q.Exec(ctx, `DELETE FROM goal_comments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
