package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/promptcraft/promptcraft/internal/domain"
	"github.com/promptcraft/promptcraft/internal/progression"
)

// QuestHandler handles quest endpoints
type QuestHandler struct {
	svc *progression.Service
}

// NewQuestHandler creates a new quest handler
func NewQuestHandler(svc *progression.Service) *QuestHandler {
	return &QuestHandler{svc: svc}
}

// ObjectiveResponse pairs a catalog objective with the user's advancement
type ObjectiveResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Target      int    `json:"target"`
	Current     int    `json:"current"`
	Completed   bool   `json:"completed"`
}

// CriterionResponse represents an evaluation criterion
type CriterionResponse struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// QuestDetailResponse is the full quest view
type QuestDetailResponse struct {
	ID                string              `json:"id"`
	WorldID           int                 `json:"world_id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Difficulty        string              `json:"difficulty"`
	Type              string              `json:"type"`
	Status            string              `json:"status"`
	PassThreshold     int                 `json:"pass_threshold"`
	Attempts          int                 `json:"attempts"`
	AttemptsRemaining int                 `json:"attempts_remaining"`
	BestScore         int                 `json:"best_score"`
	Progress          int                 `json:"progress"`
	XP                int                 `json:"xp"`
	Criteria          []CriterionResponse `json:"criteria"`
	Objectives        []ObjectiveResponse `json:"objectives"`
}

// SubmitRequest is the body of a submission
type SubmitRequest struct {
	Prompt string `json:"prompt"`
}

// VerdictResponse is the scored outcome of a submission
type VerdictResponse struct {
	OverallScore    int                `json:"overall_score"`
	Passed          bool               `json:"passed"`
	XPAwarded       int                `json:"xp_awarded"`
	CriterionScores domain.ScoreVector `json:"criterion_scores"`
}

// Get returns one quest with the user's progress
func (h *QuestHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	detail, err := h.svc.QuestDetail(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		domainError(w, r, err)
		return
	}

	criteria := make([]CriterionResponse, 0, len(detail.Quest.Criteria))
	for _, c := range detail.Quest.Criteria {
		criteria = append(criteria, CriterionResponse{
			Name:        c.Name,
			Description: c.Description,
			Weight:      c.Weight,
		})
	}

	objectives := make([]ObjectiveResponse, 0, len(detail.Quest.Objectives))
	for _, obj := range detail.Quest.Objectives {
		resp := ObjectiveResponse{
			ID:          obj.ID,
			Description: obj.Description,
			Target:      obj.Target,
		}
		for _, state := range detail.Objectives {
			if state.ObjectiveID == obj.ID {
				resp.Current = state.Current
				resp.Completed = state.Completed
			}
		}
		objectives = append(objectives, resp)
	}

	jsonResponse(w, http.StatusOK, QuestDetailResponse{
		ID:                detail.Quest.ID,
		WorldID:           detail.Quest.WorldID,
		Title:             detail.Quest.Title,
		Description:       detail.Quest.Description,
		Difficulty:        string(detail.Quest.Difficulty),
		Type:              string(detail.Quest.Type),
		Status:            string(detail.Status),
		PassThreshold:     detail.Quest.EffectivePassThreshold(),
		Attempts:          detail.Attempts,
		AttemptsRemaining: detail.AttemptsRemaining,
		BestScore:         detail.BestScore,
		Progress:          detail.Progress,
		XP:                detail.Quest.Rewards.XP,
		Criteria:          criteria,
		Objectives:        objectives,
	})
}

// Submit scores a prompt against a quest
func (h *QuestHandler) Submit(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.svc.SubmitQuest(r.Context(), userID, r.PathValue("id"), req.Prompt)
	if err != nil {
		domainError(w, r, err)
		return
	}

	achievements := make([]string, 0, len(result.Achievements))
	for _, a := range result.Achievements {
		achievements = append(achievements, a.ID)
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"verdict": VerdictResponse{
			OverallScore:    result.Verdict.OverallScore,
			Passed:          result.Verdict.Passed,
			XPAwarded:       result.Verdict.XPAwarded,
			CriterionScores: result.Verdict.CriterionScores,
		},
		"quest_status":          string(result.Progress.Status),
		"attempts":              result.Progress.Attempts,
		"best_score":            result.Progress.BestScore,
		"review_mode":           result.ReviewMode,
		"leveled_up":            result.LeveledUp,
		"level":                 result.Ledger.Level,
		"total_xp":              result.Ledger.TotalXP,
		"unlocked_achievements": achievements,
	})
}
