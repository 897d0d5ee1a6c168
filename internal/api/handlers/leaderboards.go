package handlers

import (
	"net/http"
	"strconv"

	"github.com/promptcraft/promptcraft/internal/leaderboard"
)

// defaultBoardLimit caps leaderboard responses unless the client asks
// for fewer rows
const defaultBoardLimit = 20

// LeaderboardHandler handles leaderboard endpoints
type LeaderboardHandler struct {
	svc *leaderboard.Service
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(svc *leaderboard.Service) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc}
}

// Global returns the global ranking by total XP
func (h *LeaderboardHandler) Global(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Global(r.Context(), boardLimit(r))
	if err != nil {
		domainError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"scope":   "global",
		"entries": entries,
		"total":   len(entries),
	})
}

// World returns one world's ranking by summed best quest scores
func (h *LeaderboardHandler) World(w http.ResponseWriter, r *http.Request) {
	worldID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "BAD_REQUEST", "world id must be an integer")
		return
	}

	entries, err := h.svc.World(r.Context(), worldID, boardLimit(r))
	if err != nil {
		domainError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"scope":    "world",
		"world_id": worldID,
		"entries":  entries,
		"total":    len(entries),
	})
}

// Challenge returns one challenge's ranking by best submission score
func (h *LeaderboardHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	challengeID := r.PathValue("id")

	entries, err := h.svc.Challenge(r.Context(), challengeID, boardLimit(r))
	if err != nil {
		domainError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"scope":        "challenge",
		"challenge_id": challengeID,
		"entries":      entries,
		"total":        len(entries),
	})
}

// Rank returns the requesting user's global rank
func (h *LeaderboardHandler) Rank(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rank, err := h.svc.GlobalRank(r.Context(), userID)
	if err != nil {
		domainError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"rank":    rank,
	})
}

func boardLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			return limit
		}
	}
	return defaultBoardLimit
}
