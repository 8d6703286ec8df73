// ABOUTME: Tx, the transaction-scoped board.Tx: row locks, membership diffs, cascade batches.
// ABOUTME: Cascade plans are applied as one set-based UPDATE per transition kind.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scarson/taskboard/internal/board"
)

// Tx is a store handle bound to one pgx transaction. It implements board.Tx
// and carries the single-row entity writes, so a handler can authorize with
// board.Guard and write on the same transaction.
type Tx struct {
	q pgx.Tx
}

var _ board.Tx = (*Tx)(nil)

func (t *Tx) ResolveTarget(ctx context.Context, target board.Target) (*board.Subject, error) {
	return resolveTarget(ctx, t.q, target)
}

func (t *Tx) MembershipOf(ctx context.Context, boardID, userID uuid.UUID) (*board.Role, error) {
	return membershipOf(ctx, t.q, boardID, userID)
}

// LockBoard takes FOR UPDATE on the board row. Concurrent reconciliations and
// cascades on the same board queue behind it until commit or rollback.
func (t *Tx) LockBoard(ctx context.Context, boardID uuid.UUID) error {
	var id uuid.UUID
	err := t.q.QueryRow(ctx, `SELECT id FROM boards WHERE id = $1 FOR UPDATE`, boardID).Scan(&id)
	if err != nil {
		return fmt.Errorf("lock board %s: %w", boardID, err)
	}
	return nil
}

func (t *Tx) MembersOf(ctx context.Context, boardID uuid.UUID) ([]board.Participant, error) {
	rows, err := t.q.Query(ctx,
		`SELECT user_id, role FROM board_participants WHERE board_id = $1 ORDER BY created_at, user_id`,
		boardID)
	if err != nil {
		return nil, fmt.Errorf("list board members: %w", err)
	}
	defer rows.Close()
	var out []board.Participant
	for rows.Next() {
		var (
			p       board.Participant
			roleStr string
		)
		if err := rows.Scan(&p.UserID, &roleStr); err != nil {
			return nil, fmt.Errorf("scan board member: %w", err)
		}
		if p.Role, err = board.ParseRole(roleStr); err != nil {
			return nil, fmt.Errorf("scan board member: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (t *Tx) CategoriesOfBoard(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	return collectIDs(ctx, t.q,
		`SELECT id FROM goal_categories WHERE board_id = $1 AND NOT is_deleted ORDER BY id`, boardID)
}

func (t *Tx) GoalsOfBoard(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	return collectIDs(ctx, t.q, `
		SELECT g.id FROM goals g
		JOIN goal_categories c ON c.id = g.category_id
		WHERE c.board_id = $1 AND g.status <> 'archived'
		ORDER BY g.id`, boardID)
}

func (t *Tx) GoalsOfCategory(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	return collectIDs(ctx, t.q,
		`SELECT id FROM goals WHERE category_id = $1 AND status <> 'archived' ORDER BY id`, categoryID)
}

func (t *Tx) UpdateBoardTitle(ctx context.Context, boardID uuid.UUID, title string) error {
	if _, err := t.q.Exec(ctx,
		`UPDATE boards SET title = $2, updated_at = now() WHERE id = $1`, boardID, title,
	); err != nil {
		return fmt.Errorf("update board title: %w", err)
	}
	return nil
}

// ApplyMembershipDiff applies ops in order. Each op must touch exactly one
// row; anything else aborts the transaction. Owner rows are never deleted
// here, which the WHERE clause enforces independently of the reconciler.
func (t *Tx) ApplyMembershipDiff(ctx context.Context, boardID uuid.UUID, ops []board.MembershipOp) error {
	for _, op := range ops {
		var (
			sql  string
			args []any
		)
		switch op.Kind {
		case board.OpAdd:
			sql = `INSERT INTO board_participants (board_id, user_id, role) VALUES ($1, $2, $3)`
			args = []any{boardID, op.UserID, op.Role.String()}
		case board.OpChangeRole:
			sql = `UPDATE board_participants SET role = $3, updated_at = now()
				WHERE board_id = $1 AND user_id = $2`
			args = []any{boardID, op.UserID, op.Role.String()}
		case board.OpRemove:
			sql = `DELETE FROM board_participants
				WHERE board_id = $1 AND user_id = $2 AND role <> 'owner'`
			args = []any{boardID, op.UserID}
		default:
			return fmt.Errorf("apply membership diff: unknown op %d", op.Kind)
		}
		tag, err := t.q.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("apply membership %s for %s: %w", op.Kind, op.UserID, err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("apply membership %s for %s: %d rows affected", op.Kind, op.UserID, tag.RowsAffected())
		}
	}
	return nil
}

// ApplyCascade writes the plan as one UPDATE per transition kind.
func (t *Tx) ApplyCascade(ctx context.Context, plan board.Plan) error {
	stmts := []struct {
		kind board.TransitionKind
		sql  string
	}{
		{board.SoftDeleteBoard, `UPDATE boards SET is_deleted = true, updated_at = now() WHERE id = ANY($1::text::uuid[])`},
		{board.SoftDeleteCategory, `UPDATE goal_categories SET is_deleted = true, updated_at = now() WHERE id = ANY($1::text::uuid[])`},
		{board.ArchiveGoal, `UPDATE goals SET status = 'archived', updated_at = now() WHERE id = ANY($1::text::uuid[])`},
	}
	for _, st := range stmts {
		ids := plan.IDs(st.kind)
		if len(ids) == 0 {
			continue
		}
		tag, err := t.q.Exec(ctx, st.sql, uuidArray(ids))
		if err != nil {
			return fmt.Errorf("apply %s: %w", st.kind, err)
		}
		if tag.RowsAffected() != int64(len(ids)) {
			return fmt.Errorf("apply %s: %d of %d rows updated", st.kind, tag.RowsAffected(), len(ids))
		}
	}
	return nil
}

func collectIDs(ctx context.Context, q querier, sql string, args ...any) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("collect ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect ids: %w", err)
	}
	return ids, nil
}
