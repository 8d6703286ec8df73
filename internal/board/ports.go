// ABOUTME: Store contract consumed by the board engines: membership reads, target resolution,
// ABOUTME: and transaction-scoped writes (membership diffs, cascade plans).
package board

import (
	"context"

	"github.com/google/uuid"
)

// Target names the entity a request acts on.
type Target struct {
	Kind Kind
	ID   uuid.UUID
}

// Subject is a resolved Target: its effective board and recorded creator.
type Subject struct {
	Target
	// BoardID is the effective board (transitively, for goals and comments).
	BoardID uuid.UUID
	// CreatorID is the creating/authoring user; uuid.Nil for boards.
	CreatorID uuid.UUID
	// Deleted reports that the entity itself is already soft-deleted
	// (boards, categories) or archived (goals).
	Deleted bool
	// Hidden reports that the entity is excluded by the reader visibility
	// rule: it or any ancestor is soft-deleted or archived.
	Hidden bool
}

// Participant is one (user, role) membership on a board.
type Participant struct {
	UserID uuid.UUID
	Role   Role
}

// Reader is the read side of the store. Every call reflects the latest
// committed state; implementations must not cache.
type Reader interface {
	// ResolveTarget returns the subject for t, or (nil, nil) if no row exists.
	// Soft-deleted rows are returned with Deleted/Hidden set.
	ResolveTarget(ctx context.Context, t Target) (*Subject, error)
	// MembershipOf returns userID's role on boardID, or (nil, nil) if the
	// user is not a participant.
	MembershipOf(ctx context.Context, boardID, userID uuid.UUID) (*Role, error)
}

// Tx is a store handle scoped to one atomic transaction.
type Tx interface {
	Reader
	// LockBoard takes a row lock on the board for the rest of the
	// transaction, serializing concurrent mutations of the same board.
	LockBoard(ctx context.Context, boardID uuid.UUID) error
	// MembersOf returns every participant of the board.
	MembersOf(ctx context.Context, boardID uuid.UUID) ([]Participant, error)
	// CategoriesOfBoard returns the ids of the board's categories that are
	// not yet soft-deleted.
	CategoriesOfBoard(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
	// GoalsOfBoard returns the ids of every non-archived goal in any category
	// of the board, including categories soft-deleted earlier.
	GoalsOfBoard(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
	// GoalsOfCategory returns the ids of the category's non-archived goals.
	GoalsOfCategory(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error)
	// UpdateBoardTitle changes the board title.
	UpdateBoardTitle(ctx context.Context, boardID uuid.UUID, title string) error
	// ApplyMembershipDiff applies ops to the board's participants.
	ApplyMembershipDiff(ctx context.Context, boardID uuid.UUID, ops []MembershipOp) error
	// ApplyCascade applies every transition of the plan.
	ApplyCascade(ctx context.Context, plan Plan) error
}

// Store is the full collaborator contract: fresh reads plus transactions.
type Store interface {
	Reader
	// InTx runs fn inside one transaction with at least read-committed
	// isolation. The transaction commits if fn returns nil and rolls back
	// otherwise; the handle is released on every exit path.
	InTx(ctx context.Context, fn func(Tx) error) error
}
