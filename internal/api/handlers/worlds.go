package handlers

import (
	"net/http"
	"strconv"

	"github.com/promptcraft/promptcraft/internal/progression"
)

// WorldHandler handles world endpoints
type WorldHandler struct {
	svc *progression.Service
}

// NewWorldHandler creates a new world handler
func NewWorldHandler(svc *progression.Service) *WorldHandler {
	return &WorldHandler{svc: svc}
}

// WorldResponse represents a world in API responses
type WorldResponse struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UnlockLevel int    `json:"unlock_level"`
	QuestCount  int    `json:"quest_count"`
	Unlocked    bool   `json:"unlocked"`
	Completed   bool   `json:"completed"`
	Progress    int    `json:"progress"`
	QuestsDone  int    `json:"quests_done"`
}

// QuestSummaryResponse represents a quest summary in API responses
type QuestSummaryResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Attempts    int    `json:"attempts"`
	BestScore   int    `json:"best_score"`
	Progress    int    `json:"progress"`
	XP          int    `json:"xp"`
}

// List returns every world with the user's lock and completion state
func (h *WorldHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	summaries, err := h.svc.WorldSummaries(r.Context(), userID)
	if err != nil {
		domainError(w, r, err)
		return
	}

	response := make([]WorldResponse, 0, len(summaries))
	for _, s := range summaries {
		response = append(response, WorldResponse{
			ID:          s.World.ID,
			Name:        s.World.Name,
			Title:       s.World.Title,
			Description: s.World.Description,
			UnlockLevel: s.World.UnlockLevel,
			QuestCount:  len(s.World.QuestIDs),
			Unlocked:    s.Unlocked,
			Completed:   s.Completed,
			Progress:    s.Progress,
			QuestsDone:  s.QuestsDone,
		})
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"worlds": response,
		"total":  len(response),
	})
}

// Quests returns one world's quests with per-user status
func (h *WorldHandler) Quests(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	worldID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "BAD_REQUEST", "world id must be an integer")
		return
	}

	summaries, err := h.svc.QuestSummaries(r.Context(), userID, worldID)
	if err != nil {
		domainError(w, r, err)
		return
	}

	response := make([]QuestSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		response = append(response, QuestSummaryResponse{
			ID:          s.Quest.ID,
			Title:       s.Quest.Title,
			Description: s.Quest.Description,
			Difficulty:  string(s.Quest.Difficulty),
			Type:        string(s.Quest.Type),
			Status:      string(s.Status),
			Attempts:    s.Attempts,
			BestScore:   s.BestScore,
			Progress:    s.Progress,
			XP:          s.Quest.Rewards.XP,
		})
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"world_id": worldID,
		"quests":   response,
		"total":    len(response),
	})
}
