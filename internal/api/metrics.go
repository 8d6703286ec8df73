// ABOUTME: Prometheus collectors for authorization decisions, membership diffs and cascades.
// ABOUTME: Registered on the default registry and served by /metrics.
package api

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scarson/taskboard/internal/board"
)

var (
	authzDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_authz_decisions_total",
		Help: "Authorization decisions by entity kind and outcome.",
	}, []string{"kind", "outcome"})

	membershipOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_membership_ops_total",
		Help: "Applied board membership operations by kind.",
	}, []string{"op"})

	cascadeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_cascade_transitions_total",
		Help: "Applied soft-delete and archive transitions by kind.",
	}, []string{"transition"})
)

// observeAuthz records one authorization outcome for kind k.
func observeAuthz(k board.Kind, err error) {
	authzDecisions.WithLabelValues(k.String(), outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "allowed"
	case errors.Is(err, board.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, board.ErrForbidden):
		return "forbidden"
	case errors.Is(err, board.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func observeMembership(ops []board.MembershipOp) {
	for _, op := range ops {
		membershipOps.WithLabelValues(op.Kind.String()).Inc()
	}
}

func observeCascade(p board.Plan) {
	for _, t := range p.Transitions {
		cascadeTransitions.WithLabelValues(t.Kind.String()).Inc()
	}
}
