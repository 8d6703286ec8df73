// ABOUTME: Request context key types and constants for the api package.
// ABOUTME: Used by middleware to inject auth state and by handlers to read it.
package api

import (
	"net/http"

	"github.com/google/uuid"
)

type contextKey int

const (
	ctxUserID   contextKey = iota // uuid.UUID: authenticated user
	ctxTargetID                   // uuid.UUID: entity id from the URL path, already authorized
)

// userIDFrom returns the authenticated user, or uuid.Nil when the request
// did not pass RequireAuthenticated.
func userIDFrom(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(ctxUserID).(uuid.UUID)
	return id
}

// targetIDFrom returns the entity id injected by RequireAccess.
func targetIDFrom(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(ctxTargetID).(uuid.UUID)
	return id, ok
}
