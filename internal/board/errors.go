// ABOUTME: Sentinel errors returned by the authorization, reconciliation and cascade engines.
// ABOUTME: All are detected before any write; callers match them with errors.Is.
package board

import "errors"

var (
	// ErrUnauthenticated means no actor identity was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the actor lacks the role or ownership the action needs.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means the target does not exist, is hidden by soft-delete,
	// or lives on a board the actor does not participate in.
	ErrNotFound = errors.New("not found")
	// ErrMultipleOwners means the desired participant list would leave the
	// board with more than one owner.
	ErrMultipleOwners = errors.New("a board can have only one owner")
	// ErrSelfDemotion means the desired participant list would strip the
	// current owner of ownership.
	ErrSelfDemotion = errors.New("the board owner cannot change their own role")
	// ErrDuplicateParticipant means the same user appears twice in the
	// desired participant list.
	ErrDuplicateParticipant = errors.New("participant listed more than once")
	// ErrUnknownUser means a participant reference did not resolve to a user.
	ErrUnknownUser = errors.New("unknown user")
)

// IsRejection reports whether err is one of the recoverable request
// rejections above rather than a storage failure.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrUnauthenticated, ErrForbidden, ErrNotFound,
		ErrMultipleOwners, ErrSelfDemotion, ErrDuplicateParticipant, ErrUnknownUser,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
