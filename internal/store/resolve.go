// ABOUTME: Target resolution and membership lookup backing the Authorization Engine.
// ABOUTME: Walks comment → goal → category → board in one join and reports soft-delete state.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scarson/taskboard/internal/board"
)

// Visibility rule shared by every reader query. Aliases: b boards,
// c goal_categories, g goals.
const (
	visibleBoard    = `NOT b.is_deleted`
	visibleCategory = `NOT c.is_deleted AND NOT b.is_deleted`
	visibleGoal     = `g.status <> 'archived' AND NOT c.is_deleted AND NOT b.is_deleted`
)

func resolveTarget(ctx context.Context, q querier, t board.Target) (*board.Subject, error) {
	subj := &board.Subject{Target: t}
	var (
		selfDeleted, catDeleted, boardDeleted bool
		err                                   error
	)
	switch t.Kind {
	case board.KindBoard:
		subj.BoardID = t.ID
		err = q.QueryRow(ctx,
			`SELECT is_deleted FROM boards WHERE id = $1`, t.ID,
		).Scan(&boardDeleted)
		selfDeleted = boardDeleted
	case board.KindCategory:
		err = q.QueryRow(ctx, `
			SELECT c.board_id, c.user_id, c.is_deleted, b.is_deleted
			FROM goal_categories c
			JOIN boards b ON b.id = c.board_id
			WHERE c.id = $1`, t.ID,
		).Scan(&subj.BoardID, &subj.CreatorID, &catDeleted, &boardDeleted)
		selfDeleted = catDeleted
	case board.KindGoal:
		err = q.QueryRow(ctx, `
			SELECT c.board_id, g.user_id, g.status = 'archived', c.is_deleted, b.is_deleted
			FROM goals g
			JOIN goal_categories c ON c.id = g.category_id
			JOIN boards b ON b.id = c.board_id
			WHERE g.id = $1`, t.ID,
		).Scan(&subj.BoardID, &subj.CreatorID, &selfDeleted, &catDeleted, &boardDeleted)
	case board.KindComment:
		var goalArchived bool
		err = q.QueryRow(ctx, `
			SELECT c.board_id, m.user_id, g.status = 'archived', c.is_deleted, b.is_deleted
			FROM goal_comments m
			JOIN goals g ON g.id = m.goal_id
			JOIN goal_categories c ON c.id = g.category_id
			JOIN boards b ON b.id = c.board_id
			WHERE m.id = $1`, t.ID,
		).Scan(&subj.BoardID, &subj.CreatorID, &goalArchived, &catDeleted, &boardDeleted)
		catDeleted = catDeleted || goalArchived
	default:
		return nil, fmt.Errorf("resolve target: unknown kind %d", t.Kind)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", t.Kind, err)
	}
	subj.Deleted = selfDeleted
	subj.Hidden = selfDeleted || catDeleted || boardDeleted
	return subj, nil
}

func membershipOf(ctx context.Context, q querier, boardID, userID uuid.UUID) (*board.Role, error) {
	var roleStr string
	err := q.QueryRow(ctx,
		`SELECT role FROM board_participants WHERE board_id = $1 AND user_id = $2`,
		boardID, userID,
	).Scan(&roleStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get board participant role: %w", err)
	}
	role, err := board.ParseRole(roleStr)
	if err != nil {
		return nil, fmt.Errorf("get board participant role: %w", err)
	}
	return &role, nil
}
