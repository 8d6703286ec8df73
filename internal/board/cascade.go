// ABOUTME: Cascade Engine: computes the typed soft-delete/archive transitions for a deletion.
// ABOUTME: The plan is computed once inside the transaction and applied as data by the store.
package board

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// TransitionKind tags one row-level state change.
type TransitionKind int

const (
	// SoftDeleteBoard sets boards.is_deleted.
	SoftDeleteBoard TransitionKind = iota
	// SoftDeleteCategory sets goal_categories.is_deleted.
	SoftDeleteCategory
	// ArchiveGoal sets goals.status to archived.
	ArchiveGoal
)

func (k TransitionKind) String() string {
	switch k {
	case SoftDeleteBoard:
		return "soft_delete_board"
	case SoftDeleteCategory:
		return "soft_delete_category"
	case ArchiveGoal:
		return "archive_goal"
	default:
		return "unknown"
	}
}

// Transition is one state change on one row.
type Transition struct {
	Kind TransitionKind
	ID   uuid.UUID
}

// Plan is the full set of transitions caused by deleting Root.
type Plan struct {
	Root        Target
	Transitions []Transition
}

// IDs returns the ids of every transition of kind k, in plan order.
func (p Plan) IDs(k TransitionKind) []uuid.UUID {
	var ids []uuid.UUID
	for _, t := range p.Transitions {
		if t.Kind == k {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool { return len(p.Transitions) == 0 }

// CascadeReader lists the dependents a deletion reaches.
type CascadeReader interface {
	CategoriesOfBoard(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
	GoalsOfBoard(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
	GoalsOfCategory(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error)
}

// PlanDeletion computes the transitions for deleting root:
//
//	board    → the board, its live categories, every non-archived goal under it
//	category → the category and its non-archived goals
//	goal     → the goal only
//
// Comments are never part of a plan.
func PlanDeletion(ctx context.Context, r CascadeReader, root Target) (Plan, error) {
	plan := Plan{Root: root}
	switch root.Kind {
	case KindBoard:
		plan.Transitions = append(plan.Transitions, Transition{Kind: SoftDeleteBoard, ID: root.ID})
		cats, err := r.CategoriesOfBoard(ctx, root.ID)
		if err != nil {
			return Plan{}, fmt.Errorf("categories of board %s: %w", root.ID, err)
		}
		for _, id := range cats {
			plan.Transitions = append(plan.Transitions, Transition{Kind: SoftDeleteCategory, ID: id})
		}
		goals, err := r.GoalsOfBoard(ctx, root.ID)
		if err != nil {
			return Plan{}, fmt.Errorf("goals of board %s: %w", root.ID, err)
		}
		for _, id := range goals {
			plan.Transitions = append(plan.Transitions, Transition{Kind: ArchiveGoal, ID: id})
		}
	case KindCategory:
		plan.Transitions = append(plan.Transitions, Transition{Kind: SoftDeleteCategory, ID: root.ID})
		goals, err := r.GoalsOfCategory(ctx, root.ID)
		if err != nil {
			return Plan{}, fmt.Errorf("goals of category %s: %w", root.ID, err)
		}
		for _, id := range goals {
			plan.Transitions = append(plan.Transitions, Transition{Kind: ArchiveGoal, ID: id})
		}
	case KindGoal:
		plan.Transitions = append(plan.Transitions, Transition{Kind: ArchiveGoal, ID: root.ID})
	default:
		return Plan{}, fmt.Errorf("no cascade for %s", root.Kind)
	}
	return plan, nil
}
