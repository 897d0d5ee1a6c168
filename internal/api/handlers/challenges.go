package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/promptcraft/promptcraft/internal/progression"
)

// ChallengeHandler handles challenge endpoints
type ChallengeHandler struct {
	svc *progression.Service
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(svc *progression.Service) *ChallengeHandler {
	return &ChallengeHandler{svc: svc}
}

// ChallengeResponse represents an active challenge in API responses
type ChallengeResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Difficulty  string    `json:"difficulty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Submissions int       `json:"submissions"`
	BestScore   int       `json:"best_score"`
}

// List returns the currently active challenges with the user's entries
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	summaries, err := h.svc.ChallengeSummaries(r.Context(), userID)
	if err != nil {
		domainError(w, r, err)
		return
	}

	response := make([]ChallengeResponse, 0, len(summaries))
	for _, s := range summaries {
		response = append(response, ChallengeResponse{
			ID:          s.Challenge.ID,
			Title:       s.Challenge.Title,
			Description: s.Challenge.Description,
			Type:        string(s.Challenge.Type),
			Difficulty:  string(s.Challenge.Difficulty),
			StartDate:   s.Challenge.StartDate,
			EndDate:     s.Challenge.EndDate,
			Submissions: s.Submissions,
			BestScore:   s.BestScore,
		})
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"challenges": response,
		"total":      len(response),
	})
}

// Submit scores a prompt against an active challenge
func (h *ChallengeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		jsonError(w, http.StatusBadRequest, "BAD_REQUEST", "prompt is required")
		return
	}

	result, err := h.svc.SubmitChallenge(r.Context(), userID, r.PathValue("id"), req.Prompt)
	if err != nil {
		domainError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"submission_id":    result.Submission.ID.String(),
		"score":            result.Submission.Score,
		"criterion_scores": result.Scores,
		"xp_awarded":       result.XPAwarded,
		"level":            result.Ledger.Level,
		"total_xp":         result.Ledger.TotalXP,
	})
}

// Finalize ranks a closed challenge and pays out rank rewards
func (h *ChallengeHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.svc.FinalizeChallenge(r.Context(), r.PathValue("id"))
	if err != nil {
		domainError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"challenge_id": r.PathValue("id"),
		"standings":    ranked,
		"total":        len(ranked),
	})
}
