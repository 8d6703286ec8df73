// ABOUTME: HTTP handlers for goal comments: create, list, read, edit, delete.
// ABOUTME: Any participant may comment; only the author may edit or delete.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scarson/taskboard/internal/board"
	"github.com/scarson/taskboard/internal/store"
)

// createCommentBody is the JSON request body for POST /api/v1/comments.
type createCommentBody struct {
	GoalID string `json:"goal_id"`
	Text   string `json:"text"`
}

// updateCommentBody is the JSON request body for PATCH /api/v1/comments/{comment_id}.
type updateCommentBody struct {
	Text string `json:"text"`
}

// commentResponseBody is the JSON response body for a comment.
type commentResponseBody struct {
	ID        string `json:"id"`
	GoalID    string `json:"goal_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toCommentResponse(c *store.Comment) commentResponseBody {
	return commentResponseBody{
		ID:        c.ID.String(),
		GoalID:    c.GoalID.String(),
		UserID:    c.UserID.String(),
		Text:      c.Text,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

// createCommentHandler handles POST /api/v1/comments.
func (srv *Server) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	var req createCommentBody
	if !decodeBody(w, r, &req) {
		return
	}
	goalID, err := uuid.Parse(req.GoalID)
	if err != nil {
		http.Error(w, "invalid goal_id", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	var c *store.Comment
	err = srv.guardedCreate(r, board.KindComment, goalID, func(tx *store.Tx) error {
		var err error
		c, err = tx.CreateComment(r.Context(), goalID, userIDFrom(r), req.Text)
		return err
	})
	if err != nil {
		writeBoardError(w, r, "create comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(c))
}

// listCommentsHandler handles GET /api/v1/comments[?goal_id=].
func (srv *Server) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	goalID, ok := srv.parentFilter(w, r, "goal_id", board.KindGoal)
	if !ok {
		return
	}
	comments, err := srv.store.ListComments(r.Context(), userIDFrom(r), goalID)
	if err != nil {
		slog.ErrorContext(r.Context(), "list comments", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]commentResponseBody, 0, len(comments))
	for i := range comments {
		out = append(out, toCommentResponse(&comments[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// getCommentHandler handles GET /api/v1/comments/{comment_id}.
func (srv *Server) getCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := targetIDFrom(r)
	c, err := srv.store.GetComment(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "get comment", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponse(c))
}

// updateCommentHandler handles PATCH /api/v1/comments/{comment_id}. Author only.
func (srv *Server) updateCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := targetIDFrom(r)
	var req updateCommentBody
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	var c *store.Comment
	err := srv.guardedWrite(r, board.Target{Kind: board.KindComment, ID: id}, func(tx *store.Tx) error {
		var err error
		c, err = tx.UpdateCommentText(r.Context(), id, req.Text)
		if err == nil && c == nil {
			return board.ErrNotFound
		}
		return err
	})
	if err != nil {
		writeBoardError(w, r, "update comment", err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponse(c))
}

// deleteCommentHandler handles DELETE /api/v1/comments/{comment_id}. Author only;
// the row is removed.
func (srv *Server) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := targetIDFrom(r)
	err := srv.guardedWrite(r, board.Target{Kind: board.KindComment, ID: id}, func(tx *store.Tx) error {
		ok, err := tx.DeleteComment(r.Context(), id)
		if err == nil && !ok {
			return board.ErrNotFound
		}
		return err
	})
	if err != nil {
		writeBoardError(w, r, "delete comment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
