// ABOUTME: Declarative per-entity authorization table (entity Kind → Policy) and method classification.
// ABOUTME: The Authorization Engine is one function parameterized by this table.
package board

import "net/http"

// Kind tags the entity a request targets.
type Kind int

// Entity kinds, ordered by containment: a board owns categories, a category
// owns goals, a goal owns comments.
const (
	KindBoard Kind = iota
	KindCategory
	KindGoal
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindBoard:
		return "board"
	case KindCategory:
		return "category"
	case KindGoal:
		return "goal"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Method classifies a request as read-only or mutating.
type Method int

const (
	// Safe covers retrieve and list.
	Safe Method = iota
	// Unsafe covers create, update and delete.
	Unsafe
)

func (m Method) String() string {
	if m == Safe {
		return "safe"
	}
	return "unsafe"
}

// ClassifyHTTPMethod maps an HTTP method to Safe or Unsafe. Anything that is
// not GET, HEAD or OPTIONS is treated as mutating.
func ClassifyHTTPMethod(method string) Method {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return Safe
	default:
		return Unsafe
	}
}

// Policy is one row of the authorization table.
type Policy struct {
	// MutateMin is the minimum board role for update/delete. Ignored when
	// AuthorOnly is set.
	MutateMin Role
	// CreatorMayMutate lets the recorded creator update/delete regardless of
	// their board role (membership is still required).
	CreatorMayMutate bool
	// AuthorOnly restricts update/delete to the recorded author; the board
	// role is irrelevant.
	AuthorOnly bool
	// CreateMin is the minimum role on the parent's board to create an entity
	// of this kind. Boards have no parent: any authenticated user may create one.
	CreateMin Role
}

var policies = map[Kind]Policy{
	KindBoard:    {MutateMin: RoleOwner},
	KindCategory: {MutateMin: RoleWriter, CreatorMayMutate: true, CreateMin: RoleWriter},
	KindGoal:     {MutateMin: RoleWriter, CreatorMayMutate: true, CreateMin: RoleWriter},
	KindComment:  {AuthorOnly: true, CreateMin: RoleReader},
}

// PolicyFor returns the policy row for k.
func PolicyFor(k Kind) (Policy, bool) {
	p, ok := policies[k]
	return p, ok
}

// Kinds lists every entity kind in containment order.
func Kinds() []Kind {
	return []Kind{KindBoard, KindCategory, KindGoal, KindComment}
}

// parentKind returns the kind that owns k. Boards have no parent.
func parentKind(k Kind) (Kind, bool) {
	switch k {
	case KindCategory:
		return KindBoard, true
	case KindGoal:
		return KindCategory, true
	case KindComment:
		return KindGoal, true
	default:
		return 0, false
	}
}
