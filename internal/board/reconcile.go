// ABOUTME: Participant Reconciler: turns a desired participant list into one membership diff.
// ABOUTME: Enforces the single-owner invariant: no second owner, no owner demotion or removal.
package board

import "github.com/google/uuid"

// OpKind is the kind of a membership change.
type OpKind int

const (
	OpAdd OpKind = iota
	OpChangeRole
	OpRemove
)

func (k OpKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpChangeRole:
		return "change_role"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// MembershipOp is one change in a membership diff. Role is unused for OpRemove.
type MembershipOp struct {
	Kind   OpKind
	UserID uuid.UUID
	Role   Role
}

// OwnerOf returns the owner among participants, if any.
func OwnerOf(participants []Participant) (uuid.UUID, bool) {
	for _, p := range participants {
		if p.Role == RoleOwner {
			return p.UserID, true
		}
	}
	return uuid.Nil, false
}

// Reconcile computes the membership diff that moves a board from current to
// desired. desired is the full target membership; the existing owner is kept
// even when absent from it, so an empty list removes everyone but the owner.
//
// actor is the user issuing the update. Reconcile is pure: nothing is
// applied, and on error no ops are returned.
func Reconcile(actor uuid.UUID, current, desired []Participant) ([]MembershipOp, error) {
	owner, hasOwner := OwnerOf(current)

	owners := 0
	for _, d := range desired {
		if d.Role == RoleOwner {
			owners++
		}
	}
	if owners > 1 {
		return nil, ErrMultipleOwners
	}

	seen := make(map[uuid.UUID]struct{}, len(desired))
	for _, d := range desired {
		if d.Role != RoleOwner && (d.UserID == actor || (hasOwner && d.UserID == owner)) {
			return nil, ErrSelfDemotion
		}
		if d.Role == RoleOwner && hasOwner && d.UserID != owner {
			return nil, ErrMultipleOwners
		}
		if _, dup := seen[d.UserID]; dup {
			return nil, ErrDuplicateParticipant
		}
		seen[d.UserID] = struct{}{}
	}

	currentRole := make(map[uuid.UUID]Role, len(current))
	for _, c := range current {
		currentRole[c.UserID] = c.Role
	}

	var ops []MembershipOp
	for _, d := range desired {
		role, exists := currentRole[d.UserID]
		switch {
		case !exists:
			ops = append(ops, MembershipOp{Kind: OpAdd, UserID: d.UserID, Role: d.Role})
		case role != d.Role:
			ops = append(ops, MembershipOp{Kind: OpChangeRole, UserID: d.UserID, Role: d.Role})
		}
	}
	for _, c := range current {
		if hasOwner && c.UserID == owner {
			continue
		}
		if _, keep := seen[c.UserID]; !keep {
			ops = append(ops, MembershipOp{Kind: OpRemove, UserID: c.UserID})
		}
	}
	return ops, nil
}

// Apply returns the membership that results from applying ops to current.
// The input slice is not modified; order of surviving participants is kept
// and additions are appended.
func Apply(current []Participant, ops []MembershipOp) []Participant {
	out := make([]Participant, len(current))
	copy(out, current)
	for _, op := range ops {
		switch op.Kind {
		case OpAdd:
			out = append(out, Participant{UserID: op.UserID, Role: op.Role})
		case OpChangeRole:
			for i := range out {
				if out[i].UserID == op.UserID {
					out[i].Role = op.Role
				}
			}
		case OpRemove:
			kept := out[:0]
			for _, p := range out {
				if p.UserID != op.UserID {
					kept = append(kept, p)
				}
			}
			out = kept
		}
	}
	return out
}
