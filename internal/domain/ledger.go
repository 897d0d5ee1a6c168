package domain

import (
	"slices"
	"time"
)

// Stats holds aggregate activity counters for a ledger
type Stats struct {
	QuestsCompleted int     `json:"quests_completed"`
	ChallengesWon   int     `json:"challenges_won"`
	Streak          int     `json:"streak"`
	LongestStreak   int     `json:"longest_streak"`
	AccuracyRate    float64 `json:"accuracy_rate"`
	AverageScore    float64 `json:"average_score"`
}

// StatsPatch describes a partial stats update. Nil pointer fields are left
// untouched; Streak and the rate fields replace, the two counters increment.
type StatsPatch struct {
	QuestsCompletedDelta int
	ChallengesWonDelta   int
	Streak               *int
	LongestStreak        *int
	AccuracyRate         *float64
	AverageScore         *float64
}

// Ledger is a user's progression record: level, XP, completed quests,
// badges and stats. All mutation operations are pure transformations
// returning a new value; the surrounding system persists the result and
// serializes writes per user.
type Ledger struct {
	UserID          string
	Level           int
	XP              int // progress within the current level
	TotalXP         int // cumulative, monotonically non-decreasing
	XPToNextLevel   int
	Badges          []string // append-only
	CompletedQuests []string // append-only
	CurrentWorld    int
	Stats           Stats
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewLedger creates a fresh level-1 ledger for a user
func NewLedger(userID string) Ledger {
	required, _ := XPRequiredForLevel(1)
	now := time.Now()
	return Ledger{
		UserID:        userID,
		Level:         1,
		XPToNextLevel: required,
		CurrentWorld:  1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// clone returns a copy with its own slice backing, so operations never
// alias the input ledger's state.
func (l Ledger) clone() Ledger {
	out := l
	out.Badges = slices.Clone(l.Badges)
	out.CompletedQuests = slices.Clone(l.CompletedQuests)
	return out
}

// HasBadge reports whether the ledger already holds a badge
func (l Ledger) HasBadge(badgeID string) bool {
	return slices.Contains(l.Badges, badgeID)
}

// HasCompletedQuest reports whether a quest is in the completed set
func (l Ledger) HasCompletedQuest(questID string) bool {
	return slices.Contains(l.CompletedQuests, questID)
}

// AwardXP adds amount to the cumulative total and recomputes level, XP into
// level and XP to next level from the level curve. A LevelUp event is
// returned when the recomputed level exceeds the previous one. Levels never
// decrease; amount must be non-negative.
func (l Ledger) AwardXP(amount int) (Ledger, []Event, error) {
	if amount < 0 {
		return Ledger{}, nil, ErrInvalidArgument
	}

	out := l.clone()
	out.TotalXP += amount

	level, err := LevelForTotalXP(out.TotalXP)
	if err != nil {
		return Ledger{}, nil, err
	}
	xp, err := XPIntoLevel(out.TotalXP)
	if err != nil {
		return Ledger{}, nil, err
	}
	required, err := XPRequiredForLevel(level)
	if err != nil {
		return Ledger{}, nil, err
	}

	out.Level = level
	out.XP = xp
	out.XPToNextLevel = required
	out.UpdatedAt = time.Now()

	var events []Event
	if level > l.Level {
		events = append(events, NewLevelUp(l.UserID, l.Level, level))
	}
	return out, events, nil
}

// MarkQuestCompleted adds a quest to the completed set. Marking an already
// completed quest is a no-op returning the unchanged ledger, which makes
// retries safe.
func (l Ledger) MarkQuestCompleted(questID string) Ledger {
	if l.HasCompletedQuest(questID) {
		return l
	}
	out := l.clone()
	out.CompletedQuests = append(out.CompletedQuests, questID)
	out.UpdatedAt = time.Now()
	return out
}

// AddBadge appends a badge to the ledger. Duplicate badge ids are not
// re-added.
func (l Ledger) AddBadge(badgeID string) Ledger {
	if l.HasBadge(badgeID) {
		return l
	}
	out := l.clone()
	out.Badges = append(out.Badges, badgeID)
	out.UpdatedAt = time.Now()
	return out
}

// UpdateStats merges a partial stats update into the ledger
func (l Ledger) UpdateStats(patch StatsPatch) Ledger {
	out := l.clone()
	out.Stats.QuestsCompleted += patch.QuestsCompletedDelta
	out.Stats.ChallengesWon += patch.ChallengesWonDelta
	if patch.Streak != nil {
		out.Stats.Streak = *patch.Streak
	}
	if patch.LongestStreak != nil {
		out.Stats.LongestStreak = *patch.LongestStreak
	}
	if patch.AccuracyRate != nil {
		out.Stats.AccuracyRate = *patch.AccuracyRate
	}
	if patch.AverageScore != nil {
		out.Stats.AverageScore = *patch.AverageScore
	}
	out.UpdatedAt = time.Now()
	return out
}
