// ABOUTME: HTTP server struct, constructor, and handler wiring for Taskboard.
// ABOUTME: Holds the store, the board engine service, config, and the write rate limiter.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/scarson/taskboard/internal/board"
	"github.com/scarson/taskboard/internal/config"
	"github.com/scarson/taskboard/internal/store"
)

// Server holds the dependencies for the HTTP layer.
type Server struct {
	store        *store.Store
	board        *board.Service
	cfg          *config.Config
	writeLimiter *keyedRateLimiter
}

// NewServer creates a Server. s may be nil only in tests that exercise
// middleware without a database.
func NewServer(s *store.Store, cfg *config.Config) *Server {
	evictTTL := cfg.RateLimitEvictTTL
	if evictTTL == 0 {
		evictTTL = 15 * time.Minute
	}
	limit, burst := rate.Limit(cfg.WriteRateLimit), cfg.WriteRateBurst
	if limit <= 0 || burst <= 0 {
		limit, burst = 5, 20
	}
	srv := &Server{
		store:        s,
		cfg:          cfg,
		writeLimiter: newKeyedRateLimiter(limit, burst, evictTTL),
	}
	if s != nil {
		srv.board = board.NewService(s)
	}
	return srv
}

// Close releases background resources held by the server.
func (srv *Server) Close() {
	srv.writeLimiter.Stop()
}

// Handler builds and returns the http.Handler.
func (srv *Server) Handler() http.Handler {
	var db *pgxpool.Pool
	if srv.store != nil {
		db = srv.store.Pool()
	}
	r := chi.NewRouter()

	// Security headers first so they appear on every response including errors.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestSize(1 << 20))
	r.Use(middleware.Recoverer)
	if len(srv.cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   srv.cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Requested-By"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// ── Infrastructure endpoints ──────────────────────────────────────────────
	r.Get("/healthz", healthzHandler(db))
	r.Handle("/metrics", promhttp.Handler())

	// ── API v1 sub-router; huma serves the public, read-only policy docs ─────
	apiRouter := chi.NewRouter()
	humaConfig := huma.DefaultConfig("Taskboard API", "0.1.0")
	humaConfig.Info.Description = "Collaborative goal boards with role-based access"
	registerRoleRoutes(humachi.New(apiRouter, humaConfig))

	// ── Board resources (chi, for per-entity authorization middleware) ───────
	apiRouter.Group(func(r chi.Router) {
		r.Use(srv.RequireAuthenticated())
		r.Use(csrfProtect)
		r.Use(srv.writeRateLimit())

		r.Route("/boards", func(r chi.Router) {
			r.Post("/", srv.createBoardHandler)
			r.Get("/", srv.listBoardsHandler)
			r.Route("/{board_id}", func(r chi.Router) {
				// Deletes authorize inside their own transaction.
				r.Delete("/", srv.deleteBoardHandler)
				r.With(srv.RequireAccess(board.KindBoard, "board_id")).Get("/", srv.getBoardHandler)
				r.With(srv.RequireAccess(board.KindBoard, "board_id")).Patch("/", srv.updateBoardHandler)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", srv.createCategoryHandler)
			r.Get("/", srv.listCategoriesHandler)
			r.Route("/{category_id}", func(r chi.Router) {
				r.Delete("/", srv.deleteCategoryHandler)
				r.With(srv.RequireAccess(board.KindCategory, "category_id")).Get("/", srv.getCategoryHandler)
				r.With(srv.RequireAccess(board.KindCategory, "category_id")).Patch("/", srv.updateCategoryHandler)
			})
		})

		r.Route("/goals", func(r chi.Router) {
			r.Post("/", srv.createGoalHandler)
			r.Get("/", srv.listGoalsHandler)
			r.Route("/{goal_id}", func(r chi.Router) {
				r.Delete("/", srv.deleteGoalHandler)
				r.With(srv.RequireAccess(board.KindGoal, "goal_id")).Get("/", srv.getGoalHandler)
				r.With(srv.RequireAccess(board.KindGoal, "goal_id")).Patch("/", srv.updateGoalHandler)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Post("/", srv.createCommentHandler)
			r.Get("/", srv.listCommentsHandler)
			r.Route("/{comment_id}", func(r chi.Router) {
				r.Use(srv.RequireAccess(board.KindComment, "comment_id"))
				r.Get("/", srv.getCommentHandler)
				r.Patch("/", srv.updateCommentHandler)
				r.Delete("/", srv.deleteCommentHandler)
			})
		})
	})

	r.Mount("/api/v1", apiRouter)

	return r
}

// healthResponse is the JSON body for /healthz.
type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db,omitempty"`
}

// healthzHandler returns 200 {"status":"ok"} when the DB is reachable,
// or 503 {"status":"degraded","db":"unavailable"} when it is not.
func healthzHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		statusCode := http.StatusOK

		if db == nil {
			resp.Status = "degraded"
			resp.DB = "unavailable"
			statusCode = http.StatusServiceUnavailable
		} else if err := db.Ping(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "healthz: db ping failed", "error", err)
			resp.Status = "degraded"
			resp.DB = "unavailable"
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.ErrorContext(r.Context(), "healthz: failed to encode response", "error", err)
		}
	}
}
