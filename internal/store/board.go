// ABOUTME: Store methods for boards and their participant lists.
// ABOUTME: Reads are restricted to visible boards the user participates in.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Board is a row of the boards table.
type Board struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BoardParticipant is one membership row joined with its username.
type BoardParticipant struct {
	UserID   uuid.UUID `db:"user_id" json:"user_id"`
	Username string    `db:"username" json:"username"`
	Role     string    `db:"role" json:"role"`
}

const boardColumns = `b.id, b.title, b.is_deleted, b.created_at, b.updated_at`

// CreateBoardWithOwner atomically creates a board and adds ownerID as its owner.
func (s *Store) CreateBoardWithOwner(ctx context.Context, title string, ownerID uuid.UUID) (*Board, error) {
	var out *Board
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`INSERT INTO boards AS b (title) VALUES ($1) RETURNING `+boardColumns, title)
		if err != nil {
			return fmt.Errorf("create board: %w", err)
		}
		out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Board])
		if err != nil {
			return fmt.Errorf("create board: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO board_participants (board_id, user_id, role) VALUES ($1, $2, 'owner')`,
			out.ID, ownerID,
		); err != nil {
			return fmt.Errorf("create board owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetBoard returns the board if it is visible, or (nil, nil) otherwise.
func (s *Store) GetBoard(ctx context.Context, id uuid.UUID) (*Board, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+boardColumns+` FROM boards b WHERE b.id = $1 AND `+visibleBoard, id)
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Board])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

// ListBoards returns the visible boards userID participates in, by title.
func (s *Store) ListBoards(ctx context.Context, userID uuid.UUID) ([]Board, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+boardColumns+`
		FROM boards b
		JOIN board_participants p ON p.board_id = b.id
		WHERE p.user_id = $1 AND `+visibleBoard+`
		ORDER BY b.title, b.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Board])
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return out, nil
}

// ListParticipants returns the board's participants, owner first.
func (s *Store) ListParticipants(ctx context.Context, boardID uuid.UUID) ([]BoardParticipant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.user_id, u.username, p.role
		FROM board_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.board_id = $1
		ORDER BY p.role = 'owner' DESC, u.username`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[BoardParticipant])
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return out, nil
}
