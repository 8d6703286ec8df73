// ABOUTME: HTTP handlers for goal categories: create, list, read, rename, delete.
// ABOUTME: Deleting a category archives its goals through the cascade engine.
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

// createCategoryBody is the JSON request body for POST /api/v1/categories.
type createCategoryBody struct {
	BoardID string `json:"board_id"`
	Title   string `json:"title"`
}

// updateCategoryBody is the JSON request body for PATCH /api/v1/categories/{category_id}.
type updateCategoryBody struct {
	Title string `json:"title"`
}

// categoryResponseBody is the JSON response body for a category.
type categoryResponseBody struct {
	ID        string `json:"id"`
	BoardID   string `json:"board_id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toCategoryResponse(c *store.Category) categoryResponseBody {
	return categoryResponseBody{
		ID:        c.ID.String(),
		BoardID:   c.BoardID.String(),
		UserID:    c.UserID.String(),
		Title:     c.Title,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

// createCategoryHandler handles POST /api/v1/categories. Requires writer on the board.
func (srv *Server) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req createCategoryBody
	if !decodeBody(w, r, &req) {
		return
	}
	boardID, err := uuid.Parse(req.BoardID)
	if err != nil {
		http.Error(w, "invalid board_id", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	var c *store.Category
	err = srv.guardedCreate(r, board.KindCategory, boardID, func(tx *store.Tx) error {
		var err error
		c, err = tx.CreateCategory(r.Context(), boardID, userIDFrom(r), req.Title)
		return err
	})
	if err != nil {
		writeBoardError(w, r, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(c))
}

// listCategoriesHandler handles GET /api/v1/categories[?board_id=].
func (srv *Server) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	boardID, ok := srv.parentFilter(w, r, "board_id", board.KindBoard)
	if !ok {
		return
	}
	cats, err := srv.store.ListCategories(r.Context(), userIDFrom(r), boardID)
	if err != nil {
		slog.ErrorContext(r.Context(), "list categories", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]categoryResponseBody, 0, len(cats))
	for i := range cats {
		out = append(out, toCategoryResponse(&cats[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// getCategoryHandler handles GET /api/v1/categories/{category_id}.
func (srv *Server) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := targetIDFrom(r)
	c, err := srv.store.GetCategory(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "get category", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

// updateCategoryHandler handles PATCH /api/v1/categories/{category_id}.
// Writers and the category's creator may rename it.
func (srv *Server) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := targetIDFrom(r)
	var req updateCategoryBody
	if !decodeBody(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	var c *store.Category
	err := srv.guardedWrite(r, board.Target{Kind: board.KindCategory, ID: id}, func(tx *store.Tx) error {
		var err error
		c, err = tx.UpdateCategoryTitle(r.Context(), id, req.Title)
		if err == nil && c == nil {
			return board.ErrNotFound
		}
		return err
	})
	if err != nil {
		writeBoardError(w, r, "update category", err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

// deleteCategoryHandler handles DELETE /api/v1/categories/{category_id}.
func (srv *Server) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	srv.deleteWith(w, r, board.KindCategory, "category_id", srv.board.DeleteCategory)
}

// parentFilter parses an optional parent id query parameter. When present the
// user must be able to read the parent; the returned id is uuid.Nil otherwise.
func (srv *Server) parentFilter(w http.ResponseWriter, r *http.Request, param string, k board.Kind) (uuid.UUID, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "invalid "+param, http.StatusBadRequest)
		return uuid.Nil, false
	}
	if err := srv.authorize(r, board.Safe, board.Target{Kind: k, ID: id}); err != nil {
		writeBoardError(w, r, "authorize "+k.String(), err)
		return uuid.Nil, false
	}
	return id, true
}
