// ABOUTME: Store methods for goals. Archival is owned by the board cascade;
// ABOUTME: UpdateGoal refuses to archive and only touches visible goals.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GoalStatus is the workflow state of a goal.
type GoalStatus string

const (
	GoalToDo       GoalStatus = "to_do"
	GoalInProgress GoalStatus = "in_progress"
	GoalDone       GoalStatus = "done"
	GoalArchived   GoalStatus = "archived"
)

// ErrArchivedStatus is returned when a caller tries to set GoalArchived directly.
var ErrArchivedStatus = errors.New("status archived is set only by deletion")

// ParseGoalStatus validates a client-supplied status. GoalArchived is
// rejected: goals are archived only by deleting them or an ancestor.
func ParseGoalStatus(s string) (GoalStatus, error) {
	switch GoalStatus(s) {
	case GoalToDo, GoalInProgress, GoalDone:
		return GoalStatus(s), nil
	case GoalArchived:
		return "", ErrArchivedStatus
	default:
		return "", fmt.Errorf("unknown goal status %q", s)
	}
}

// Goal is a row of the goals table.
type Goal struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	CategoryID  uuid.UUID  `db:"category_id" json:"category_id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Status      GoalStatus `db:"status" json:"status"`
	DueDate     *time.Time `db:"due_date" json:"due_date"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// NewGoal holds the client-settable fields of a goal at creation.
type NewGoal struct {
	CategoryID  uuid.UUID
	Title       string
	Description string
	Status      GoalStatus // zero means GoalToDo
	DueDate     *time.Time
}

// GoalPatch is a partial goal update. Nil fields are left alone;
// ClearDueDate removes the due date.
type GoalPatch struct {
	Title        *string
	Description  *string
	Status       *GoalStatus
	DueDate      *time.Time
	ClearDueDate bool
}

const goalColumns = `g.id, g.category_id, g.user_id, g.title, g.description, g.status, g.due_date, g.created_at, g.updated_at`

// CreateGoal inserts a goal authored by userID.
func (s *Store) CreateGoal(ctx context.Context, userID uuid.UUID, in NewGoal) (*Goal, error) {
	return createGoal(ctx, s.pool, userID, in)
}

// CreateGoal is Store.CreateGoal on the transaction.
func (t *Tx) CreateGoal(ctx context.Context, userID uuid.UUID, in NewGoal) (*Goal, error) {
	return createGoal(ctx, t.q, userID, in)
}

func createGoal(ctx context.Context, q querier, userID uuid.UUID, in NewGoal) (*Goal, error) {
	status := in.Status
	if status == "" {
		status = GoalToDo
	}
	if status == GoalArchived {
		return nil, ErrArchivedStatus
	}
	rows, err := q.Query(ctx, `
		INSERT INTO goals AS g (category_id, user_id, title, description, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+goalColumns,
		in.CategoryID, userID, in.Title, in.Description, string(status), in.DueDate)
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	g, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Goal])
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

// GetGoal returns the goal if it is visible, or (nil, nil) otherwise.
func (s *Store) GetGoal(ctx context.Context, id uuid.UUID) (*Goal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+goalColumns+`
		FROM goals g
		JOIN goal_categories c ON c.id = g.category_id
		JOIN boards b ON b.id = c.board_id
		WHERE g.id = $1 AND `+visibleGoal, id)
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	g, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Goal])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// ListGoals returns the visible goals on boards userID participates in, by
// title. A non-zero categoryID narrows the list to that category.
func (s *Store) ListGoals(ctx context.Context, userID, categoryID uuid.UUID) ([]Goal, error) {
	q := participantScope(psql.Select(goalColumns).
		From("goals g").
		Join("goal_categories c ON c.id = g.category_id").
		Join("boards b ON b.id = c.board_id"), userID).
		Where(visibleGoal).
		OrderBy("g.title", "g.id")
	if categoryID != uuid.Nil {
		q = q.Where("g.category_id = ?", categoryID)
	}
	rows, err := s.queryList(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Goal])
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return out, nil
}

// UpdateGoal applies p to a visible goal. Returns (nil, nil) if the goal is
// not visible.
func (s *Store) UpdateGoal(ctx context.Context, id uuid.UUID, p GoalPatch) (*Goal, error) {
	return updateGoal(ctx, s.pool, id, p)
}

// UpdateGoal is Store.UpdateGoal on the transaction.
func (t *Tx) UpdateGoal(ctx context.Context, id uuid.UUID, p GoalPatch) (*Goal, error) {
	return updateGoal(ctx, t.q, id, p)
}

func updateGoal(ctx context.Context, q querier, id uuid.UUID, p GoalPatch) (*Goal, error) {
	var status *string
	if p.Status != nil {
		if *p.Status == GoalArchived {
			return nil, ErrArchivedStatus
		}
		v := string(*p.Status)
		status = &v
	}
	rows, err := q.Query(ctx, `
		UPDATE goals g SET
			title       = COALESCE($2, g.title),
			description = COALESCE($3, g.description),
			status      = COALESCE($4, g.status),
			due_date    = CASE WHEN $6 THEN NULL ELSE COALESCE($5, g.due_date) END,
			updated_at  = now()
		FROM goal_categories c
		JOIN boards b ON b.id = c.board_id
		WHERE g.id = $1 AND c.id = g.category_id AND `+visibleGoal+`
		RETURNING `+goalColumns,
		id, p.Title, p.Description, status, p.DueDate, p.ClearDueDate)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	g, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Goal])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return g, nil
}
