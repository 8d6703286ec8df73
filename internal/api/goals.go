// ABOUTME: HTTP handlers for goals: create, list, read, update, delete (archive).
// ABOUTME: Status "archived" is reachable only through delete, never through create or PATCH.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scarson/taskboard/internal/board"
	"github.com/scarson/taskboard/internal/store"
)

// dateLayout is the wire format of due_date.
const dateLayout = "2006-01-02"

// createGoalBody is the JSON request body for POST /api/v1/goals.
type createGoalBody struct {
	CategoryID  string  `json:"category_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	DueDate     *string `json:"due_date"`
}

// updateGoalBody is the JSON request body for PATCH /api/v1/goals/{goal_id}.
// due_date: absent leaves it alone, null clears it.
type updateGoalBody struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	DueDate     json.RawMessage `json:"due_date"`
}

// goalResponseBody is the JSON response body for a goal.
type goalResponseBody struct {
	ID          string  `json:"id"`
	CategoryID  string  `json:"category_id"`
	UserID      string  `json:"user_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	DueDate     *string `json:"due_date"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toGoalResponse(g *store.Goal) goalResponseBody {
	out := goalResponseBody{
		ID:          g.ID.String(),
		CategoryID:  g.CategoryID.String(),
		UserID:      g.UserID.String(),
		Title:       g.Title,
		Description: g.Description,
		Status:      string(g.Status),
		CreatedAt:   g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   g.UpdatedAt.Format(time.RFC3339),
	}
	if g.DueDate != nil {
		d := g.DueDate.Format(dateLayout)
		out.DueDate = &d
	}
	return out
}

func parseDueDate(s string) (*time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, errors.New("due_date must be YYYY-MM-DD")
	}
	return &d, nil
}

// createGoalHandler handles POST /api/v1/goals. Requires writer on the category's board.
func (srv *Server) createGoalHandler(w http.ResponseWriter, r *http.Request) {
	var req createGoalBody
	if !decodeBody(w, r, &req) {
		return
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		http.Error(w, "invalid category_id", http.StatusBadRequest)
		return
	}
	in := store.NewGoal{
		CategoryID:  categoryID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	}
	if in.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	if req.Status != "" {
		if in.Status, err = store.ParseGoalStatus(req.Status); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.DueDate != nil {
		if in.DueDate, err = parseDueDate(*req.DueDate); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	var g *store.Goal
	err = srv.guardedCreate(r, board.KindGoal, categoryID, func(tx *store.Tx) error {
		var err error
		g, err = tx.CreateGoal(r.Context(), userIDFrom(r), in)
		return err
	})
	if err != nil {
		writeBoardError(w, r, "create goal", err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(g))
}

// listGoalsHandler handles GET /api/v1/goals[?category_id=].
func (srv *Server) listGoalsHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := srv.parentFilter(w, r, "category_id", board.KindCategory)
	if !ok {
		return
	}
	goals, err := srv.store.ListGoals(r.Context(), userIDFrom(r), categoryID)
	if err != nil {
		slog.ErrorContext(r.Context(), "list goals", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]goalResponseBody, 0, len(goals))
	for i := range goals {
		out = append(out, toGoalResponse(&goals[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// getGoalHandler handles GET /api/v1/goals/{goal_id}.
func (srv *Server) getGoalHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := targetIDFrom(r)
	g, err := srv.store.GetGoal(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "get goal", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if g == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

// updateGoalHandler handles PATCH /api/v1/goals/{goal_id}.
// Writers and the goal's creator may edit it.
func (srv *Server) updateGoalHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := targetIDFrom(r)
	var req updateGoalBody
	if !decodeBody(w, r, &req) {
		return
	}

	var p store.GoalPatch
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			http.Error(w, "title must not be empty", http.StatusBadRequest)
			return
		}
		p.Title = &title
	}
	p.Description = req.Description
	if req.Status != nil {
		status, err := store.ParseGoalStatus(*req.Status)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.Status = &status
	}
	if len(req.DueDate) > 0 {
		if string(req.DueDate) == "null" {
			p.ClearDueDate = true
		} else {
			var s string
			if err := json.Unmarshal(req.DueDate, &s); err != nil {
				http.Error(w, "due_date must be a string or null", http.StatusBadRequest)
				return
			}
			d, err := parseDueDate(s)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			p.DueDate = d
		}
	}

	var g *store.Goal
	err := srv.guardedWrite(r, board.Target{Kind: board.KindGoal, ID: id}, func(tx *store.Tx) error {
		var err error
		g, err = tx.UpdateGoal(r.Context(), id, p)
		if err == nil && g == nil {
			return board.ErrNotFound
		}
		return err
	})
	if err != nil {
		writeBoardError(w, r, "update goal", err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

// deleteGoalHandler handles DELETE /api/v1/goals/{goal_id}: archives the goal.
func (srv *Server) deleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	srv.deleteWith(w, r, board.KindGoal, "goal_id", srv.board.DeleteGoal)
}
