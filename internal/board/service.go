// Package board is the authorization and cascading state-transition core of
// Taskboard. It decides whether an actor may act on a board, category, goal
// or comment; reconciles board membership under the single-owner invariant;
// and turns board/category/goal deletions into one atomic batch of
// soft-delete and archive transitions.
//
// The package owns no storage. It consumes a [Store] whose transactions give
// the mutating operations their all-or-nothing guarantee. Every mutating
// operation re-checks authorization inside its own transaction, after taking
// a row lock on the board, so a concurrent membership change cannot slip
// between the check and the write. [Guard] and [GuardCreate] give callers
// outside this package the same check for their own single-row writes.
package board

import (
	"context"

	"github.com/google/uuid"
)

// Service bundles the engines over one store.
type Service struct {
	store Store
	authz *Authorizer
}

// NewService returns a Service backed by s.
func NewService(s Store) *Service {
	return &Service{store: s, authz: NewAuthorizer(s)}
}

// Authorize is a fresh-read authorization check outside any transaction.
// Use it to reject requests early; mutating operations check again.
func (s *Service) Authorize(ctx context.Context, actor uuid.UUID, m Method, t Target) error {
	return s.authz.Authorize(ctx, actor, m, t)
}

// AuthorizeCreate checks whether actor may create a k under parentID.
func (s *Service) AuthorizeCreate(ctx context.Context, actor uuid.UUID, k Kind, parentID uuid.UUID) error {
	return s.authz.AuthorizeCreate(ctx, actor, k, parentID)
}

// BoardUpdate describes a board PATCH. Nil/false fields are left alone.
type BoardUpdate struct {
	Title *string
	// Participants is the full desired membership. Only consulted when
	// ReplaceParticipants is set, so "no participants key" and "empty list"
	// stay distinguishable.
	Participants        []Participant
	ReplaceParticipants bool
}

// UpdateBoard applies a title change and/or a participant reconciliation in
// one transaction. It returns the membership ops that were applied.
func (s *Service) UpdateBoard(ctx context.Context, actor, boardID uuid.UUID, u BoardUpdate) ([]MembershipOp, error) {
	if actor == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	var applied []MembershipOp
	target := Target{Kind: KindBoard, ID: boardID}
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := guard(ctx, tx, actor, Unsafe, target, false); err != nil {
			return err
		}
		if u.ReplaceParticipants {
			current, err := tx.MembersOf(ctx, boardID)
			if err != nil {
				return err
			}
			ops, err := Reconcile(actor, current, u.Participants)
			if err != nil {
				return err
			}
			if len(ops) > 0 {
				if err := tx.ApplyMembershipDiff(ctx, boardID, ops); err != nil {
					return err
				}
			}
			applied = ops
		}
		if u.Title != nil {
			if err := tx.UpdateBoardTitle(ctx, boardID, *u.Title); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// DeleteBoard soft-deletes the board, its categories and archives every goal
// under it. Deleting an already-deleted board succeeds with an empty plan.
func (s *Service) DeleteBoard(ctx context.Context, actor, boardID uuid.UUID) (Plan, error) {
	return s.delete(ctx, actor, Target{Kind: KindBoard, ID: boardID})
}

// DeleteCategory soft-deletes the category and archives its goals.
func (s *Service) DeleteCategory(ctx context.Context, actor, categoryID uuid.UUID) (Plan, error) {
	return s.delete(ctx, actor, Target{Kind: KindCategory, ID: categoryID})
}

// DeleteGoal archives the goal. Nothing else changes.
func (s *Service) DeleteGoal(ctx context.Context, actor, goalID uuid.UUID) (Plan, error) {
	return s.delete(ctx, actor, Target{Kind: KindGoal, ID: goalID})
}

func (s *Service) delete(ctx context.Context, actor uuid.UUID, target Target) (Plan, error) {
	if actor == uuid.Nil {
		return Plan{}, ErrUnauthenticated
	}
	var plan Plan
	err := s.store.InTx(ctx, func(tx Tx) error {
		subj, err := guard(ctx, tx, actor, Unsafe, target, true)
		if err != nil {
			return err
		}
		if subj.Deleted {
			plan = Plan{Root: target}
			return nil
		}
		plan, err = PlanDeletion(ctx, tx, target)
		if err != nil {
			return err
		}
		return tx.ApplyCascade(ctx, plan)
	})
	if err != nil {
		return Plan{}, err
	}
	return plan, nil
}
