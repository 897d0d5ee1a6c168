package handlers

import (
	"net/http"
	"time"

	"github.com/promptcraft/promptcraft/internal/progression"
)

// ProfileHandler handles profile and achievement endpoints
type ProfileHandler struct {
	svc *progression.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(svc *progression.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// ProfileResponse is the user's progression ledger projection
type ProfileResponse struct {
	UserID          string    `json:"user_id"`
	Level           int       `json:"level"`
	XP              int       `json:"xp"`
	TotalXP         int       `json:"total_xp"`
	XPToNextLevel   int       `json:"xp_to_next_level"`
	CurrentWorld    int       `json:"current_world"`
	Badges          []string  `json:"badges"`
	CompletedQuests []string  `json:"completed_quests"`
	QuestsCompleted int       `json:"quests_completed"`
	ChallengesWon   int       `json:"challenges_won"`
	Streak          int       `json:"streak"`
	LongestStreak   int       `json:"longest_streak"`
	AccuracyRate    float64   `json:"accuracy_rate"`
	AverageScore    float64   `json:"average_score"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AchievementResponse pairs a catalog achievement with its unlock state
type AchievementResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Rarity      string `json:"rarity"`
	Category    string `json:"category"`
	XPReward    int    `json:"xp_reward"`
	Unlocked    bool   `json:"unlocked"`
}

// Get returns the user's progression ledger
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ledger, err := h.svc.GetLedger(r.Context(), userID)
	if err != nil {
		domainError(w, r, err)
		return
	}

	badges := ledger.Badges
	if badges == nil {
		badges = []string{}
	}
	quests := ledger.CompletedQuests
	if quests == nil {
		quests = []string{}
	}

	jsonResponse(w, http.StatusOK, ProfileResponse{
		UserID:          ledger.UserID,
		Level:           ledger.Level,
		XP:              ledger.XP,
		TotalXP:         ledger.TotalXP,
		XPToNextLevel:   ledger.XPToNextLevel,
		CurrentWorld:    ledger.CurrentWorld,
		Badges:          badges,
		CompletedQuests: quests,
		QuestsCompleted: ledger.Stats.QuestsCompleted,
		ChallengesWon:   ledger.Stats.ChallengesWon,
		Streak:          ledger.Stats.Streak,
		LongestStreak:   ledger.Stats.LongestStreak,
		AccuracyRate:    ledger.Stats.AccuracyRate,
		AverageScore:    ledger.Stats.AverageScore,
		CreatedAt:       ledger.CreatedAt,
		UpdatedAt:       ledger.UpdatedAt,
	})
}

// Achievements returns the achievement catalog with unlock state
func (h *ProfileHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	summaries, err := h.svc.AchievementSummaries(r.Context(), userID)
	if err != nil {
		domainError(w, r, err)
		return
	}

	response := make([]AchievementResponse, 0, len(summaries))
	unlocked := 0
	for _, s := range summaries {
		if s.Unlocked {
			unlocked++
		}
		response = append(response, AchievementResponse{
			ID:          s.Achievement.ID,
			Title:       s.Achievement.Title,
			Description: s.Achievement.Description,
			Rarity:      string(s.Achievement.Rarity),
			Category:    string(s.Achievement.Category),
			XPReward:    s.Achievement.XPReward,
			Unlocked:    s.Unlocked,
		})
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"achievements": response,
		"unlocked":     unlocked,
		"total":        len(response),
	})
}
