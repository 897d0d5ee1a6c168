package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChallengeType is the cadence of a timed challenge
type ChallengeType string

const (
	ChallengeDaily   ChallengeType = "daily"
	ChallengeWeekly  ChallengeType = "weekly"
	ChallengeMonthly ChallengeType = "monthly"
	ChallengeSpecial ChallengeType = "special"
)

// ChallengeReward is one rank band's payout
type ChallengeReward struct {
	XP     int
	Badges []string
	Titles []string
}

// ChallengeRewards maps finishing position to payout. Participation applies
// to every scored submission regardless of rank.
type ChallengeRewards struct {
	First         ChallengeReward
	Second        ChallengeReward
	Third         ChallengeReward
	Participation ChallengeReward
}

// ForRank returns the reward band for a final rank (1-based). Ranks past
// third get an empty band; participation is paid per submission, not here.
func (r ChallengeRewards) ForRank(rank int) ChallengeReward {
	switch rank {
	case 1:
		return r.First
	case 2:
		return r.Second
	case 3:
		return r.Third
	default:
		return ChallengeReward{}
	}
}

// Challenge is a time-boxed competitive catalog entry. It is active iff
// startDate <= now <= endDate; activity is a pure predicate, never a timer.
type Challenge struct {
	ID           string
	Name         string
	Title        string
	Description  string
	Type         ChallengeType
	Difficulty   Difficulty
	StartDate    time.Time
	EndDate      time.Time
	Criteria     []EvaluationCriterion
	Rewards      ChallengeRewards
	Requirements []string
	BaseXP       int
}

// Active reports whether the challenge window contains now
func (c *Challenge) Active(now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// ChallengeSubmission is one scored entry in a challenge
type ChallengeSubmission struct {
	ID          uuid.UUID
	UserID      string
	ChallengeID string
	Prompt      string
	Score       int
	SubmittedAt time.Time
}

// NewChallengeSubmission records a scored challenge entry
func NewChallengeSubmission(userID, challengeID, prompt string, score int) ChallengeSubmission {
	return ChallengeSubmission{
		ID:          uuid.New(),
		UserID:      userID,
		ChallengeID: challengeID,
		Prompt:      prompt,
		Score:       score,
		SubmittedAt: time.Now(),
	}
}
