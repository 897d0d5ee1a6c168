package domain

// AchievementRarity grades how hard an achievement is to earn
type AchievementRarity string

const (
	RarityCommon    AchievementRarity = "common"
	RarityRare      AchievementRarity = "rare"
	RarityEpic      AchievementRarity = "epic"
	RarityLegendary AchievementRarity = "legendary"
)

// AchievementCategory groups achievements for presentation
type AchievementCategory string

const (
	CategoryProgress AchievementCategory = "progress"
	CategorySkill    AchievementCategory = "skill"
	CategoryStreak   AchievementCategory = "streak"
	CategorySpecial  AchievementCategory = "special"
)

// ConditionType names the ledger field an achievement condition watches
type ConditionType string

const (
	ConditionQuestsCompleted ConditionType = "quests_completed"
	ConditionLevelReached    ConditionType = "level_reached"
	ConditionStreakDays      ConditionType = "streak_days"
	ConditionScoreAchieved   ConditionType = "score_achieved"
	ConditionWorldCompleted  ConditionType = "world_completed"
)

// AchievementCondition is the threshold test for unlocking. WorldID is only
// meaningful for world_completed conditions.
type AchievementCondition struct {
	Type    ConditionType
	Target  int
	WorldID int
}

// Achievement is an immutable catalog entry. The achievement's ID doubles
// as the badge id recorded on the ledger once earned.
type Achievement struct {
	ID          string
	Name        string
	Title       string
	Description string
	Rarity      AchievementRarity
	Category    AchievementCategory
	Condition   AchievementCondition
	XPReward    int
}

// ProgressSnapshot is the evaluator's view of a user's state after a
// mutation. LastScore carries the most recent submission's overall score
// for score_achieved conditions, which are not stored on the ledger.
type ProgressSnapshot struct {
	Ledger    Ledger
	Worlds    []World
	LastScore int
}

// NewlyUnlocked scans the snapshot against the achievement catalog and
// returns every achievement whose condition is satisfied and whose badge is
// not yet on the ledger. The scan is stateless and idempotent: evaluating
// the same snapshot twice returns the same result, and already-held badges
// are never returned.
func NewlyUnlocked(catalog []Achievement, snap ProgressSnapshot) []Achievement {
	var unlocked []Achievement
	for _, achievement := range catalog {
		if snap.Ledger.HasBadge(achievement.ID) {
			continue
		}
		if conditionSatisfied(achievement.Condition, snap) {
			unlocked = append(unlocked, achievement)
		}
	}
	return unlocked
}

func conditionSatisfied(cond AchievementCondition, snap ProgressSnapshot) bool {
	switch cond.Type {
	case ConditionQuestsCompleted:
		return len(snap.Ledger.CompletedQuests) >= cond.Target
	case ConditionLevelReached:
		return snap.Ledger.Level >= cond.Target
	case ConditionStreakDays:
		return snap.Ledger.Stats.Streak >= cond.Target
	case ConditionScoreAchieved:
		return snap.LastScore >= cond.Target
	case ConditionWorldCompleted:
		for _, world := range snap.Worlds {
			if world.ID == cond.WorldID {
				return WorldCompleted(world, snap.Ledger)
			}
		}
		return false
	default:
		return false
	}
}
