// ABOUTME: Transaction guards: authorize, lock the effective board, authorize again on the same Tx.
// ABOUTME: Callers run their write on that Tx after the guard returns nil.
package board

import (
	"context"

	"github.com/google/uuid"
)

// Guard authorizes actor for m on t inside tx and leaves the effective board
// locked until tx ends. A write issued on tx after Guard returns nil sees the
// same membership and visibility the decision was made on.
//
// The first check is a plain read, so rejected actors never wait on or hold
// the board lock. The second check runs after the lock is granted and
// observes any membership change or cascade that committed while waiting.
func Guard(ctx context.Context, tx Tx, actor uuid.UUID, m Method, t Target) error {
	_, err := guard(ctx, tx, actor, m, t, false)
	return err
}

// GuardCreate is Guard for creating a k under parentID. It locks the board
// the parent lives on. Boards have no parent and are never locked.
func GuardCreate(ctx context.Context, tx Tx, actor uuid.UUID, k Kind, parentID uuid.UUID) error {
	parent, err := authorizeCreate(ctx, tx, actor, k, parentID)
	if err != nil || parent == nil {
		return err
	}
	if err := tx.LockBoard(ctx, parent.BoardID); err != nil {
		return err
	}
	_, err = authorizeCreate(ctx, tx, actor, k, parentID)
	return err
}

func guard(ctx context.Context, tx Tx, actor uuid.UUID, m Method, t Target, allowHidden bool) (*Subject, error) {
	subj, err := authorize(ctx, tx, actor, m, t, allowHidden)
	if err != nil {
		return nil, err
	}
	if err := tx.LockBoard(ctx, subj.BoardID); err != nil {
		return nil, err
	}
	return authorize(ctx, tx, actor, m, t, allowHidden)
}
