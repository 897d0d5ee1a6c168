package domain

import (
	"errors"
	"testing"
)

func basicsQuest() *Quest {
	return &Quest{
		ID:         "basics-1",
		WorldID:    1,
		Title:      "Your First Prompt",
		Difficulty: DifficultyBeginner,
		Type:       QuestTypeTutorial,
		Criteria: []EvaluationCriterion{
			{Name: "Clarity", Weight: 0.3},
			{Name: "Specificity", Weight: 0.3},
			{Name: "Audience Awareness", Weight: 0.4},
		},
		Rewards:     QuestRewards{XP: 100},
		UnlockLevel: 1,
	}
}

func TestScoreSubmission(t *testing.T) {
	t.Run("weighted scores round to overall", func(t *testing.T) {
		quest := basicsQuest()
		vector := ScoreVector{"Clarity": 90, "Specificity": 85, "Audience Awareness": 95}

		verdict, err := ScoreSubmission(quest, vector, 0)
		if err != nil {
			t.Fatalf("ScoreSubmission() error = %v", err)
		}

		// 90*0.3 + 85*0.3 + 95*0.4 = 90.5 -> 91
		if verdict.OverallScore != 91 {
			t.Errorf("OverallScore = %d, want 91", verdict.OverallScore)
		}
		if !verdict.Passed {
			t.Error("Passed = false, want true")
		}
		// beginner x1.0, >=90 performance x1.5
		if verdict.XPAwarded != 150 {
			t.Errorf("XPAwarded = %d, want 150", verdict.XPAwarded)
		}
	})

	t.Run("perfect scores with full weight coverage yield 100", func(t *testing.T) {
		quest := basicsQuest()
		vector := ScoreVector{"Clarity": 100, "Specificity": 100, "Audience Awareness": 100}

		verdict, err := ScoreSubmission(quest, vector, 0)
		if err != nil {
			t.Fatalf("ScoreSubmission() error = %v", err)
		}
		if verdict.OverallScore != 100 {
			t.Errorf("OverallScore = %d, want 100", verdict.OverallScore)
		}
	})

	t.Run("exactly at pass threshold passes", func(t *testing.T) {
		quest := basicsQuest()
		vector := ScoreVector{"Clarity": 70, "Specificity": 70, "Audience Awareness": 70}

		verdict, err := ScoreSubmission(quest, vector, 0)
		if err != nil {
			t.Fatalf("ScoreSubmission() error = %v", err)
		}
		if verdict.OverallScore != 70 {
			t.Errorf("OverallScore = %d, want 70", verdict.OverallScore)
		}
		if !verdict.Passed {
			t.Error("Passed = false at exact threshold, want true")
		}
		if verdict.XPAwarded != 100 {
			t.Errorf("XPAwarded = %d, want 100", verdict.XPAwarded)
		}
	})

	t.Run("failed attempt earns effort credit", func(t *testing.T) {
		quest := basicsQuest()
		quest.Difficulty = DifficultyExpert // must not inflate the credit
		vector := ScoreVector{"Clarity": 40, "Specificity": 40, "Audience Awareness": 40}

		verdict, err := ScoreSubmission(quest, vector, 0)
		if err != nil {
			t.Fatalf("ScoreSubmission() error = %v", err)
		}
		if verdict.Passed {
			t.Error("Passed = true, want false")
		}
		if verdict.XPAwarded != 30 {
			t.Errorf("XPAwarded = %d, want floor(100*0.3) = 30", verdict.XPAwarded)
		}
	})

	t.Run("difficulty multiplier", func(t *testing.T) {
		quest := basicsQuest()
		quest.Difficulty = DifficultyAdvanced
		vector := ScoreVector{"Clarity": 85, "Specificity": 85, "Audience Awareness": 85}

		verdict, err := ScoreSubmission(quest, vector, 0)
		if err != nil {
			t.Fatalf("ScoreSubmission() error = %v", err)
		}
		// 100 * 2.0 (advanced) * 1.2 (>=80)
		if verdict.XPAwarded != 240 {
			t.Errorf("XPAwarded = %d, want 240", verdict.XPAwarded)
		}
	})

	t.Run("streak bonus uses highest applicable tier", func(t *testing.T) {
		quest := basicsQuest()
		vector := ScoreVector{"Clarity": 95, "Specificity": 95, "Audience Awareness": 95}

		verdict, err := ScoreSubmission(quest, vector, 14)
		if err != nil {
			t.Fatalf("ScoreSubmission() error = %v", err)
		}
		// 100 * 1.0 * 1.5 * 1.3 = 195
		if verdict.XPAwarded != 195 {
			t.Errorf("XPAwarded = %d, want 195", verdict.XPAwarded)
		}
	})
}

func TestScoreSubmission_Validation(t *testing.T) {
	t.Run("weights not summing to one", func(t *testing.T) {
		quest := basicsQuest()
		quest.Criteria[2].Weight = 0.5

		vector := ScoreVector{"Clarity": 90, "Specificity": 90, "Audience Awareness": 90}
		_, err := ScoreSubmission(quest, vector, 0)
		if !errors.Is(err, ErrInvalidWeights) {
			t.Errorf("error = %v, want ErrInvalidWeights", err)
		}
	})

	t.Run("weights within tolerance accepted", func(t *testing.T) {
		quest := basicsQuest()
		quest.Criteria[0].Weight = 0.3 + 1e-9

		vector := ScoreVector{"Clarity": 90, "Specificity": 90, "Audience Awareness": 90}
		if _, err := ScoreSubmission(quest, vector, 0); err != nil {
			t.Errorf("ScoreSubmission() error = %v, want nil", err)
		}
	})

	t.Run("score out of range", func(t *testing.T) {
		quest := basicsQuest()
		vector := ScoreVector{"Clarity": 101, "Specificity": 90, "Audience Awareness": 90}
		_, err := ScoreSubmission(quest, vector, 0)
		if !errors.Is(err, ErrInvalidScoreVector) {
			t.Errorf("error = %v, want ErrInvalidScoreVector", err)
		}
	})

	t.Run("unknown criterion", func(t *testing.T) {
		quest := basicsQuest()
		vector := ScoreVector{
			"Clarity": 90, "Specificity": 90, "Audience Awareness": 90,
			"Creativity": 90,
		}
		_, err := ScoreSubmission(quest, vector, 0)
		if !errors.Is(err, ErrInvalidScoreVector) {
			t.Errorf("error = %v, want ErrInvalidScoreVector", err)
		}
	})

	t.Run("missing criterion", func(t *testing.T) {
		quest := basicsQuest()
		vector := ScoreVector{"Clarity": 90, "Specificity": 90}
		_, err := ScoreSubmission(quest, vector, 0)
		if !errors.Is(err, ErrInvalidScoreVector) {
			t.Errorf("error = %v, want ErrInvalidScoreVector", err)
		}
	})
}

func TestStreakMultiplier(t *testing.T) {
	tests := []struct {
		streak int
		want   float64
	}{
		{0, 1.0},
		{2, 1.0},
		{3, 1.1},
		{6, 1.1},
		{7, 1.2},
		{14, 1.3},
		{29, 1.3},
		{30, 1.5},
		{365, 1.5},
	}

	for _, tt := range tests {
		if got := StreakMultiplier(tt.streak); got != tt.want {
			t.Errorf("StreakMultiplier(%d) = %g, want %g", tt.streak, got, tt.want)
		}
	}
}
