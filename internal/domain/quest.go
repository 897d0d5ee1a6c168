package domain

// Difficulty tiers for quests. The tier feeds a fixed XP multiplier.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

// Multiplier returns the XP multiplier for the difficulty tier. Unknown
// tiers fall back to the beginner multiplier.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case DifficultyIntermediate:
		return 1.5
	case DifficultyAdvanced:
		return 2.0
	case DifficultyExpert:
		return 3.0
	default:
		return 1.0
	}
}

// QuestType categorizes quests
type QuestType string

const (
	QuestTypeTutorial  QuestType = "tutorial"
	QuestTypePractice  QuestType = "practice"
	QuestTypeChallenge QuestType = "challenge"
	QuestTypeBoss      QuestType = "boss"
)

// Defaults applied when the catalog leaves quest knobs unset
const (
	DefaultPassThreshold = 70
	DefaultMaxAttempts   = 3
)

// EvaluationCriterion is one named dimension a submission is scored on.
// Weights across a quest's criteria must sum to 1.0.
type EvaluationCriterion struct {
	Name        string
	Description string
	Weight      float64
}

// Objective is a catalog-defined goal within a quest. Target is immutable
// here; per-user advancement lives in ObjectiveState.
type Objective struct {
	ID          string
	Description string
	Type        string
	Criterion   string // criterion whose score advances this objective; empty means overall score
	Target      int
}

// QuestRewards describes what completing a quest grants
type QuestRewards struct {
	XP      int
	Badges  []string
	Unlocks []string
}

// Quest is an immutable catalog entry describing one learning task
type Quest struct {
	ID            string
	WorldID       int
	Name          string
	Title         string
	Description   string
	Difficulty    Difficulty
	Type          QuestType
	Prerequisites []string
	Objectives    []Objective
	Criteria      []EvaluationCriterion
	Rewards       QuestRewards
	UnlockLevel   int
	PassThreshold int // 0 means DefaultPassThreshold
	MaxAttempts   int // 0 means DefaultMaxAttempts
	Tags          []string
}

// EffectivePassThreshold returns the quest's pass threshold or the default
func (q *Quest) EffectivePassThreshold() int {
	if q.PassThreshold <= 0 {
		return DefaultPassThreshold
	}
	return q.PassThreshold
}

// EffectiveMaxAttempts returns the quest's attempt limit or the default
func (q *Quest) EffectiveMaxAttempts() int {
	if q.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return q.MaxAttempts
}

// Criterion looks up a criterion by name
func (q *Quest) Criterion(name string) (EvaluationCriterion, bool) {
	for _, c := range q.Criteria {
		if c.Name == name {
			return c, true
		}
	}
	return EvaluationCriterion{}, false
}

// WorldRewards describes what completing a world grants
type WorldRewards struct {
	XP    int
	Badge string
	Title string
}

// World is an immutable catalog entry grouping an ordered sequence of quests
type World struct {
	ID          int
	Name        string
	Title       string
	Description string
	UnlockLevel int
	QuestIDs    []string // ordered
	Rewards     WorldRewards
}
