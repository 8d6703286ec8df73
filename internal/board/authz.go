// ABOUTME: Authorization Engine: decides allow/deny for (actor, method, target) against live membership.
// ABOUTME: One function parameterized by the per-kind Policy table; no per-entity types.
package board

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Decide applies the policy for an entity to an actor's board role.
// role is nil when the actor is not a participant of the effective board.
// creator is the entity's recorded creator or author (uuid.Nil for boards).
//
// Non-participants get ErrNotFound, the same answer as for a missing or
// hidden target. ErrForbidden is only returned to participants whose role
// is too low.
//
// Decide is pure; Authorizer wraps it with the store lookups.
func Decide(p Policy, m Method, role *Role, actor, creator uuid.UUID) error {
	if role == nil {
		return ErrNotFound
	}
	if m == Safe {
		return nil
	}
	isCreator := creator != uuid.Nil && actor == creator
	if p.AuthorOnly {
		if isCreator {
			return nil
		}
		return ErrForbidden
	}
	if role.AtLeast(p.MutateMin) {
		return nil
	}
	if p.CreatorMayMutate && isCreator {
		return nil
	}
	return ErrForbidden
}

// Authorizer answers authorization questions by reading the current
// membership state on every call.
type Authorizer struct {
	r Reader
}

// NewAuthorizer returns an Authorizer reading from r.
func NewAuthorizer(r Reader) *Authorizer {
	return &Authorizer{r: r}
}

// Authorize returns nil when actor may perform a method of class m on t.
// Hidden (soft-deleted) targets and targets on boards the actor does not
// participate in are reported as ErrNotFound.
func (a *Authorizer) Authorize(ctx context.Context, actor uuid.UUID, m Method, t Target) error {
	_, err := authorize(ctx, a.r, actor, m, t, false)
	return err
}

// AuthorizeCreate returns nil when actor may create an entity of kind k under
// the given parent (the board for a category, the category for a goal, the
// goal for a comment). Creating a board needs only an identity.
func (a *Authorizer) AuthorizeCreate(ctx context.Context, actor uuid.UUID, k Kind, parentID uuid.UUID) error {
	_, err := authorizeCreate(ctx, a.r, actor, k, parentID)
	return err
}

// authorize resolves t, reads the actor's membership on its effective board
// and applies the policy. With allowHidden set, soft-deleted targets are
// returned instead of rejected so deletes can stay idempotent.
func authorize(ctx context.Context, r Reader, actor uuid.UUID, m Method, t Target, allowHidden bool) (*Subject, error) {
	if actor == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	p, ok := PolicyFor(t.Kind)
	if !ok {
		return nil, fmt.Errorf("authorize: no policy for kind %d", t.Kind)
	}
	subj, err := r.ResolveTarget(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("resolve %s %s: %w", t.Kind, t.ID, err)
	}
	if subj == nil || (subj.Hidden && !allowHidden) {
		return nil, ErrNotFound
	}
	role, err := r.MembershipOf(ctx, subj.BoardID, actor)
	if err != nil {
		return nil, fmt.Errorf("membership of %s on board %s: %w", actor, subj.BoardID, err)
	}
	if err := Decide(p, m, role, actor, subj.CreatorID); err != nil {
		return nil, err
	}
	return subj, nil
}

// authorizeCreate returns the resolved parent, or nil for kinds without one.
func authorizeCreate(ctx context.Context, r Reader, actor uuid.UUID, k Kind, parentID uuid.UUID) (*Subject, error) {
	if actor == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	pk, hasParent := parentKind(k)
	if !hasParent {
		return nil, nil
	}
	p, ok := PolicyFor(k)
	if !ok {
		return nil, fmt.Errorf("authorize create: no policy for kind %d", k)
	}
	parent, err := r.ResolveTarget(ctx, Target{Kind: pk, ID: parentID})
	if err != nil {
		return nil, fmt.Errorf("resolve %s %s: %w", pk, parentID, err)
	}
	if parent == nil || parent.Hidden {
		return nil, ErrNotFound
	}
	role, err := r.MembershipOf(ctx, parent.BoardID, actor)
	if err != nil {
		return nil, fmt.Errorf("membership of %s on board %s: %w", actor, parent.BoardID, err)
	}
	if role == nil {
		return nil, ErrNotFound
	}
	if !role.AtLeast(p.CreateMin) {
		return nil, ErrForbidden
	}
	return parent, nil
}
