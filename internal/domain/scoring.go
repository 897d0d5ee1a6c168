package domain

import (
	"fmt"
	"math"
)

// ScoreVector maps criterion names to raw scores in [0,100]. It is produced
// by the submission scorer collaborator; the engine here only validates and
// aggregates it.
type ScoreVector map[string]float64

// Verdict is the outcome of scoring one submission
type Verdict struct {
	OverallScore    int
	Passed          bool
	XPAwarded       int
	CriterionScores ScoreVector
}

// weightTolerance allows for float drift when checking that criterion
// weights sum to 1.0.
const weightTolerance = 1e-6

// effortCreditRatio is the share of base XP granted for a failed attempt
const effortCreditRatio = 0.3

// streakTier pairs a day threshold with its XP bonus multiplier
type streakTier struct {
	days  int
	bonus float64
}

// Ordered descending so the first matching tier is the highest applicable.
var streakTiers = []streakTier{
	{30, 1.5},
	{14, 1.3},
	{7, 1.2},
	{3, 1.1},
}

// StreakMultiplier returns the bonus multiplier for a streak of consecutive
// active days. Only the highest applicable tier counts.
func StreakMultiplier(streak int) float64 {
	for _, tier := range streakTiers {
		if streak >= tier.days {
			return tier.bonus
		}
	}
	return 1.0
}

// performanceMultiplier is a step function of the overall score
func performanceMultiplier(overallScore int) float64 {
	switch {
	case overallScore >= 90:
		return 1.5
	case overallScore >= 80:
		return 1.2
	case overallScore >= 70:
		return 1.0
	default:
		return 0.5
	}
}

// ScoreSubmission converts a score vector into an overall score, a
// pass/fail verdict, and an XP award for the quest's criteria, difficulty
// and base XP. The streak is the submitting user's current consecutive-day
// streak.
//
// A failed attempt earns a flat effort credit of 30% of base XP instead of
// the multiplier chain.
func ScoreSubmission(quest *Quest, vector ScoreVector, streak int) (Verdict, error) {
	if err := validateVector(quest, vector); err != nil {
		return Verdict{}, err
	}

	var weighted float64
	for _, criterion := range quest.Criteria {
		weighted += vector[criterion.Name] * criterion.Weight
	}
	overall := int(math.Round(weighted))

	passed := overall >= quest.EffectivePassThreshold()

	var xp int
	if passed {
		award := float64(quest.Rewards.XP) *
			quest.Difficulty.Multiplier() *
			performanceMultiplier(overall) *
			StreakMultiplier(streak)
		xp = int(math.Floor(award))
	} else {
		xp = int(math.Floor(float64(quest.Rewards.XP) * effortCreditRatio))
	}

	scores := make(ScoreVector, len(vector))
	for name, score := range vector {
		scores[name] = score
	}

	return Verdict{
		OverallScore:    overall,
		Passed:          passed,
		XPAwarded:       xp,
		CriterionScores: scores,
	}, nil
}

// validateVector checks weight coverage and score ranges
func validateVector(quest *Quest, vector ScoreVector) error {
	var sum float64
	for _, criterion := range quest.Criteria {
		sum += criterion.Weight
		if _, ok := vector[criterion.Name]; !ok {
			return fmt.Errorf("%w: missing criterion %q", ErrInvalidScoreVector, criterion.Name)
		}
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: got %g", ErrInvalidWeights, sum)
	}

	for name, score := range vector {
		if _, ok := quest.Criterion(name); !ok {
			return fmt.Errorf("%w: unknown criterion %q", ErrInvalidScoreVector, name)
		}
		if score < 0 || score > 100 {
			return fmt.Errorf("%w: criterion %q score %g outside [0,100]", ErrInvalidScoreVector, name, score)
		}
	}
	return nil
}
