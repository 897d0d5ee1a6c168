package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/promptcraft/promptcraft/internal/api/handlers"
	"github.com/promptcraft/promptcraft/internal/api/middleware"
)

// Router wraps the HTTP multiplexer with middleware and handlers
type Router struct {
	mux        *http.ServeMux
	app        *App
	worlds     *handlers.WorldHandler
	quests     *handlers.QuestHandler
	challenges *handlers.ChallengeHandler
	boards     *handlers.LeaderboardHandler
	profile    *handlers.ProfileHandler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(app *App) http.Handler {
	r := &Router{
		mux: http.NewServeMux(),
		app: app,
	}

	r.worlds = handlers.NewWorldHandler(app.Progression)
	r.quests = handlers.NewQuestHandler(app.Progression)
	r.challenges = handlers.NewChallengeHandler(app.Progression)
	r.boards = handlers.NewLeaderboardHandler(app.Leaderboard)
	r.profile = handlers.NewProfileHandler(app.Progression)

	r.registerRoutes()

	return r.buildMiddlewareChain(r.mux, app)
}

func (r *Router) registerRoutes() {
	// Health checks
	r.mux.HandleFunc("GET /health", r.handleHealth)
	r.mux.HandleFunc("GET /ready", r.handleReady)

	// Worlds and quests
	r.mux.HandleFunc("GET /api/v1/worlds", r.worlds.List)
	r.mux.HandleFunc("GET /api/v1/worlds/{id}/quests", r.worlds.Quests)
	r.mux.HandleFunc("GET /api/v1/quests/{id}", r.quests.Get)
	r.mux.HandleFunc("POST /api/v1/quests/{id}/submissions", r.scoringLimited(r.quests.Submit))

	// Challenges
	r.mux.HandleFunc("GET /api/v1/challenges", r.challenges.List)
	r.mux.HandleFunc("POST /api/v1/challenges/{id}/submissions", r.scoringLimited(r.challenges.Submit))
	r.mux.HandleFunc("POST /api/v1/challenges/{id}/finalize", r.challenges.Finalize)

	// Leaderboards
	r.mux.HandleFunc("GET /api/v1/leaderboard", r.boards.Global)
	r.mux.HandleFunc("GET /api/v1/leaderboard/rank", r.boards.Rank)
	r.mux.HandleFunc("GET /api/v1/worlds/{id}/leaderboard", r.boards.World)
	r.mux.HandleFunc("GET /api/v1/challenges/{id}/leaderboard", r.boards.Challenge)

	// Profile and achievements
	r.mux.HandleFunc("GET /api/v1/profile", r.profile.Get)
	r.mux.HandleFunc("GET /api/v1/achievements", r.profile.Achievements)
}

func (r *Router) buildMiddlewareChain(handler http.Handler, app *App) http.Handler {
	// Apply middleware in reverse order (last applied = first executed)
	handler = middleware.Recovery(handler)
	handler = middleware.Logger(handler)

	// Apply rate limiting (skip in debug mode for easier development)
	if !app.Config.Debug {
		handler = middleware.RateLimitMiddleware(middleware.DefaultRateLimitConfig())(handler)
	}

	handler = middleware.RequestID(handler)
	handler = middleware.Identity(handler)
	handler = middleware.CORS(handler)

	return handler
}

// scoringLimited applies the stricter per-user budget for endpoints
// that invoke the scorer.
func (r *Router) scoringLimited(next http.HandlerFunc) http.HandlerFunc {
	if r.app.Config.Debug {
		return next
	}
	limited := middleware.ScoringRateLimitMiddleware(middleware.DefaultRateLimitConfig())(next)
	return limited.ServeHTTP
}

// Health check handlers
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	r.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	if err := r.app.Ping(req.Context()); err != nil {
		slog.Error("storage health check failed",
			"error", err,
			"request_id", middleware.GetRequestID(req.Context()),
		)
		r.jsonResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": map[string]string{
				"storage": "unhealthy",
			},
		})
		return
	}

	r.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": map[string]string{
			"storage": "healthy",
		},
	})
}

// Helper for JSON responses
func (r *Router) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
