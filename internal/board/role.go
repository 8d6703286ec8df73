// ABOUTME: Board participant Role type with ordered integer constants for privilege comparison.
// ABOUTME: ParseRole converts the stored role name to a Role value.
package board

import "fmt"

// Role is a board participant's privilege level. Higher values grant more.
type Role int

// Role constants, ordered from least to most privileged.
const (
	RoleReader Role = 0 // read-only access to the board and everything under it
	RoleWriter Role = 1 // may create and edit categories and goals
	RoleOwner  Role = 2 // full control; exactly one per board
)

// String returns the stored name of the role.
func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleWriter:
		return "writer"
	case RoleReader:
		return "reader"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole converts a role name to a Role. Unknown names are an error, so a
// typo in a participant list never becomes a reader.
func ParseRole(s string) (Role, error) {
	switch s {
	case "owner":
		return RoleOwner, nil
	case "writer":
		return RoleWriter, nil
	case "reader":
		return RoleReader, nil
	default:
		return RoleReader, fmt.Errorf("unknown role %q", s)
	}
}

// AtLeast reports whether r grants at least the privileges of floor.
func (r Role) AtLeast(floor Role) bool { return r >= floor }
