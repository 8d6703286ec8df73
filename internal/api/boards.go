// ABOUTME: HTTP handlers for boards: create, list, read, update (title + participants), delete.
// ABOUTME: Updates and deletes run through board.Service so they re-authorize inside their transaction.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/scarson/taskboard/internal/board"
	"github.com/scarson/taskboard/internal/store"
)

// createBoardBody is the JSON request body for POST /api/v1/boards.
// Any is_deleted field in the body is ignored.
type createBoardBody struct {
	Title string `json:"title"`
}

// participantBody is one entry of a board's participant list. Requests may
// name the user by user_id or username; responses carry both.
type participantBody struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
}

// updateBoardBody is the JSON request body for PATCH /api/v1/boards/{board_id}.
// A nil Participants leaves membership alone; an empty list removes everyone
// except the owner.
type updateBoardBody struct {
	Title        *string            `json:"title"`
	Participants *[]participantBody `json:"participants"`
}

// boardResponseBody is the JSON response body for a single board.
type boardResponseBody struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
	Participants []participantBody `json:"participants,omitempty"`
}

func toBoardResponse(b *store.Board, ps []store.BoardParticipant) boardResponseBody {
	out := boardResponseBody{
		ID:        b.ID.String(),
		Title:     b.Title,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
	}
	for _, p := range ps {
		out.Participants = append(out.Participants, participantBody{
			UserID:   p.UserID.String(),
			Username: p.Username,
			Role:     p.Role,
		})
	}
	return out
}

// createBoardHandler handles POST /api/v1/boards. Any authenticated user may
// create a board and becomes its owner.
func (srv *Server) createBoardHandler(w http.ResponseWriter, r *http.Request) {
	var req createBoardBody
	if !decodeBody(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	userID := userIDFrom(r)
	if err := srv.authorizeCreate(r, board.KindBoard, uuid.Nil); err != nil {
		writeBoardError(w, r, "create board", err)
		return
	}

	b, err := srv.store.CreateBoardWithOwner(r.Context(), req.Title, userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "create board", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	ps, err := srv.store.ListParticipants(r.Context(), b.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "list participants", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toBoardResponse(b, ps))
}

// listBoardsHandler handles GET /api/v1/boards: visible boards the user participates in.
func (srv *Server) listBoardsHandler(w http.ResponseWriter, r *http.Request) {
	boards, err := srv.store.ListBoards(r.Context(), userIDFrom(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "list boards", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]boardResponseBody, 0, len(boards))
	for i := range boards {
		out = append(out, toBoardResponse(&boards[i], nil))
	}
	writeJSON(w, http.StatusOK, out)
}

// getBoardHandler handles GET /api/v1/boards/{board_id}.
func (srv *Server) getBoardHandler(w http.ResponseWriter, r *http.Request) {
	boardID, _ := targetIDFrom(r)
	srv.writeBoard(w, r, boardID, http.StatusOK)
}

func (srv *Server) writeBoard(w http.ResponseWriter, r *http.Request, boardID uuid.UUID, status int) {
	b, err := srv.store.GetBoard(r.Context(), boardID)
	if err != nil {
		slog.ErrorContext(r.Context(), "get board", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if b == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	ps, err := srv.store.ListParticipants(r.Context(), boardID)
	if err != nil {
		slog.ErrorContext(r.Context(), "list participants", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, toBoardResponse(b, ps))
}

// updateBoardHandler handles PATCH /api/v1/boards/{board_id}. Owner only.
func (srv *Server) updateBoardHandler(w http.ResponseWriter, r *http.Request) {
	boardID, _ := targetIDFrom(r)
	var req updateBoardBody
	if !decodeBody(w, r, &req) {
		return
	}

	var u board.BoardUpdate
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			http.Error(w, "title must not be empty", http.StatusBadRequest)
			return
		}
		u.Title = &title
	}
	if req.Participants != nil {
		desired, err := srv.resolveParticipants(r, *req.Participants)
		if err != nil {
			writeBoardError(w, r, "resolve participants", err)
			return
		}
		u.Participants = desired
		u.ReplaceParticipants = true
	}

	ops, err := srv.board.UpdateBoard(r.Context(), userIDFrom(r), boardID, u)
	if err != nil {
		writeBoardError(w, r, "update board", err)
		return
	}
	observeMembership(ops)
	if len(ops) > 0 {
		slog.InfoContext(r.Context(), "board membership updated",
			"board_id", boardID, "actor", userIDFrom(r), "ops", len(ops))
	}
	srv.writeBoard(w, r, boardID, http.StatusOK)
}

// resolveParticipants parses a participant list and checks every user exists.
// Each entry names its user by user_id or, failing that, by username.
// Unresolvable users fail with a wrapped board.ErrUnknownUser.
func (srv *Server) resolveParticipants(r *http.Request, in []participantBody) ([]board.Participant, error) {
	out := make([]board.Participant, 0, len(in))
	var byID []uuid.UUID
	for _, p := range in {
		role, err := board.ParseRole(p.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidInput, err)
		}
		var id uuid.UUID
		switch {
		case p.UserID != "":
			if id, err = uuid.Parse(p.UserID); err != nil {
				return nil, fmt.Errorf("%w: invalid user_id %q", board.ErrUnknownUser, p.UserID)
			}
			byID = append(byID, id)
		case p.Username != "":
			u, err := srv.store.GetUserByUsername(r.Context(), p.Username)
			if err != nil {
				return nil, err
			}
			if u == nil {
				return nil, fmt.Errorf("%w: %s", board.ErrUnknownUser, p.Username)
			}
			id = u.ID
		default:
			return nil, fmt.Errorf("%w: participant needs user_id or username", errInvalidInput)
		}
		out = append(out, board.Participant{UserID: id, Role: role})
	}
	if len(byID) > 0 {
		exist, err := srv.store.UsersExist(r.Context(), byID)
		if err != nil {
			return nil, err
		}
		for _, id := range byID {
			if !exist[id] {
				return nil, fmt.Errorf("%w: %s", board.ErrUnknownUser, id)
			}
		}
	}
	return out, nil
}

// deleteBoardHandler handles DELETE /api/v1/boards/{board_id}. Owner only;
// soft-deletes the board and cascades to its categories and goals. Deleting
// an already deleted board succeeds without changes.
func (srv *Server) deleteBoardHandler(w http.ResponseWriter, r *http.Request) {
	srv.deleteWith(w, r, board.KindBoard, "board_id", srv.board.DeleteBoard)
}

// deleteWith runs one of the cascading deletes for the entity in URL param.
func (srv *Server) deleteWith(w http.ResponseWriter, r *http.Request, k board.Kind, param string,
	del func(ctx context.Context, actor, id uuid.UUID) (board.Plan, error),
) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		http.Error(w, "invalid "+param, http.StatusBadRequest)
		return
	}
	plan, err := del(r.Context(), userIDFrom(r), id)
	observeAuthz(k, err)
	if err != nil {
		writeBoardError(w, r, "delete "+k.String(), err)
		return
	}
	observeCascade(plan)
	if !plan.Empty() {
		slog.InfoContext(r.Context(), "cascade applied",
			"root_kind", k.String(), "root_id", id, "transitions", len(plan.Transitions))
	}
	w.WriteHeader(http.StatusNoContent)
}
