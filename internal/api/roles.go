// ABOUTME: Public huma endpoint describing roles and the per-entity authorization table.
// ABOUTME: Read-only; built from board.PolicyFor, the table the engine enforces.
package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scarson/taskboard/internal/board"
)

// PolicyItem is one row of the authorization table.
type PolicyItem struct {
	Kind             string `json:"kind" doc:"Entity kind"`
	MutateMinRole    string `json:"mutate_min_role,omitempty" doc:"Minimum board role to update or delete"`
	CreatorMayMutate bool   `json:"creator_may_mutate" doc:"The creator may update or delete regardless of role"`
	AuthorOnly       bool   `json:"author_only" doc:"Only the author may update or delete"`
	CreateMinRole    string `json:"create_min_role,omitempty" doc:"Minimum role on the parent board to create"`
}

// RolesOutput is the response for GET /roles.
type RolesOutput struct {
	Body struct {
		Roles    []string     `json:"roles" doc:"Board roles, least to most privileged"`
		Policies []PolicyItem `json:"policies"`
	}
}

func registerRoleRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-roles",
		Method:      http.MethodGet,
		Path:        "/roles",
		Summary:     "Describe roles and permissions",
		Description: "Returns the board roles and, per entity kind, who may create, update and delete.",
		Tags:        []string{"Meta"},
	}, func(_ context.Context, _ *struct{}) (*RolesOutput, error) {
		out := &RolesOutput{}
		for _, r := range []board.Role{board.RoleReader, board.RoleWriter, board.RoleOwner} {
			out.Body.Roles = append(out.Body.Roles, r.String())
		}
		for _, k := range board.Kinds() {
			p, ok := board.PolicyFor(k)
			if !ok {
				continue
			}
			item := PolicyItem{
				Kind:             k.String(),
				CreatorMayMutate: p.CreatorMayMutate,
				AuthorOnly:       p.AuthorOnly,
			}
			if !p.AuthorOnly {
				item.MutateMinRole = p.MutateMin.String()
			}
			if k != board.KindBoard {
				item.CreateMinRole = p.CreateMin.String()
			}
			out.Body.Policies = append(out.Body.Policies, item)
		}
		return out, nil
	})
}
