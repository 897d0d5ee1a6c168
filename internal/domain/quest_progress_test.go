package domain

import (
	"errors"
	"testing"
)

func questWithObjectives() *Quest {
	quest := basicsQuest()
	quest.Objectives = []Objective{
		{ID: "obj-1", Criterion: "Clarity", Target: 100},
		{ID: "obj-2", Criterion: "Specificity", Target: 150},
	}
	return quest
}

func TestQuestUnlocked(t *testing.T) {
	quest := basicsQuest()
	quest.UnlockLevel = 3
	quest.Prerequisites = []string{"intro-1"}

	t.Run("locked below unlock level", func(t *testing.T) {
		ledger := NewLedger("user-1")
		ledger = ledger.MarkQuestCompleted("intro-1")
		if QuestUnlocked(quest, ledger) {
			t.Error("unlocked at level 1, want locked until level 3")
		}
	})

	t.Run("locked with missing prerequisite", func(t *testing.T) {
		ledger := NewLedger("user-1")
		ledger, _, _ = ledger.AwardXP(250) // level 3
		if QuestUnlocked(quest, ledger) {
			t.Error("unlocked without prerequisite, want locked")
		}
	})

	t.Run("unlocked with level and prerequisites", func(t *testing.T) {
		ledger := NewLedger("user-1")
		ledger, _, _ = ledger.AwardXP(250)
		ledger = ledger.MarkQuestCompleted("intro-1")
		if !QuestUnlocked(quest, ledger) {
			t.Error("locked, want unlocked")
		}
	})
}

func TestDeriveQuestStatus(t *testing.T) {
	quest := basicsQuest()
	quest.UnlockLevel = 5
	ledger := NewLedger("user-1")

	t.Run("no progress and locked", func(t *testing.T) {
		if got := DeriveQuestStatus(quest, ledger, nil); got != QuestStatusLocked {
			t.Errorf("status = %s, want locked", got)
		}
	})

	t.Run("no progress and unlocked", func(t *testing.T) {
		open := basicsQuest()
		if got := DeriveQuestStatus(open, ledger, nil); got != QuestStatusAvailable {
			t.Errorf("status = %s, want available", got)
		}
	})

	t.Run("stored terminal status wins", func(t *testing.T) {
		progress := NewQuestProgress("user-1", quest)
		progress.Status = QuestStatusCompleted
		if got := DeriveQuestStatus(quest, ledger, progress); got != QuestStatusCompleted {
			t.Errorf("status = %s, want completed", got)
		}
	})
}

func TestQuestProgress_BeginAttempt(t *testing.T) {
	t.Run("first attempt starts the quest", func(t *testing.T) {
		quest := basicsQuest()
		progress := NewQuestProgress("user-1", quest)

		if err := progress.BeginAttempt(quest.EffectiveMaxAttempts()); err != nil {
			t.Fatalf("BeginAttempt() error = %v", err)
		}
		if progress.Status != QuestStatusInProgress {
			t.Errorf("Status = %s, want in_progress", progress.Status)
		}
		if progress.Attempts != 1 {
			t.Errorf("Attempts = %d, want 1", progress.Attempts)
		}
		if progress.StartedAt == nil {
			t.Error("StartedAt not set")
		}
	})

	t.Run("attempts exhausted", func(t *testing.T) {
		quest := basicsQuest()
		progress := NewQuestProgress("user-1", quest)
		progress.Attempts = quest.EffectiveMaxAttempts()
		progress.Status = QuestStatusFailed

		err := progress.BeginAttempt(quest.EffectiveMaxAttempts())
		if !errors.Is(err, ErrAttemptsExceeded) {
			t.Errorf("error = %v, want ErrAttemptsExceeded", err)
		}
		if progress.Status != QuestStatusFailed {
			t.Errorf("Status = %s, want failed (unchanged)", progress.Status)
		}
	})

	t.Run("completed quest allows review without consuming attempts", func(t *testing.T) {
		quest := basicsQuest()
		progress := NewQuestProgress("user-1", quest)
		progress.Status = QuestStatusCompleted
		progress.Attempts = quest.EffectiveMaxAttempts()

		if err := progress.BeginAttempt(quest.EffectiveMaxAttempts()); err != nil {
			t.Fatalf("BeginAttempt() error = %v", err)
		}
		if progress.Status != QuestStatusCompleted {
			t.Errorf("Status = %s, want completed", progress.Status)
		}
		if progress.Attempts != quest.EffectiveMaxAttempts() {
			t.Errorf("Attempts = %d, review must not consume attempts", progress.Attempts)
		}
	})
}

func TestQuestProgress_ApplyVerdict(t *testing.T) {
	t.Run("pass completes the quest", func(t *testing.T) {
		quest := questWithObjectives()
		progress := NewQuestProgress("user-1", quest)
		_ = progress.BeginAttempt(quest.EffectiveMaxAttempts())

		verdict := Verdict{
			OverallScore:    91,
			Passed:          true,
			CriterionScores: ScoreVector{"Clarity": 90, "Specificity": 85, "Audience Awareness": 95},
		}
		progress.ApplyVerdict(quest, verdict)

		if progress.Status != QuestStatusCompleted {
			t.Errorf("Status = %s, want completed", progress.Status)
		}
		if progress.Progress != 100 {
			t.Errorf("Progress = %d, want 100", progress.Progress)
		}
		if progress.BestScore != 91 {
			t.Errorf("BestScore = %d, want 91", progress.BestScore)
		}
		if progress.CompletedAt == nil {
			t.Error("CompletedAt not set")
		}
	})

	t.Run("objective current clamps at target", func(t *testing.T) {
		quest := questWithObjectives()
		progress := NewQuestProgress("user-1", quest)
		_ = progress.BeginAttempt(quest.EffectiveMaxAttempts())

		verdict := Verdict{
			OverallScore:    95,
			Passed:          true,
			CriterionScores: ScoreVector{"Clarity": 120, "Specificity": 90},
		}
		// Clarity is clamped to obj-1's target of 100.
		progress.ApplyVerdict(quest, verdict)

		if progress.Objectives[0].Current != 100 {
			t.Errorf("obj-1 Current = %d, want clamped to 100", progress.Objectives[0].Current)
		}
		if !progress.Objectives[0].Completed {
			t.Error("obj-1 should be completed at target")
		}
		if progress.Objectives[1].Current != 90 {
			t.Errorf("obj-2 Current = %d, want 90", progress.Objectives[1].Current)
		}
		if progress.Objectives[1].Completed {
			t.Error("obj-2 completed below target")
		}
	})

	t.Run("fail with attempts remaining returns to available", func(t *testing.T) {
		quest := basicsQuest()
		progress := NewQuestProgress("user-1", quest)
		_ = progress.BeginAttempt(quest.EffectiveMaxAttempts())

		verdict := Verdict{OverallScore: 40, Passed: false}
		progress.ApplyVerdict(quest, verdict)

		if progress.Status != QuestStatusAvailable {
			t.Errorf("Status = %s, want available for retry", progress.Status)
		}
		if progress.BestScore != 40 {
			t.Errorf("BestScore = %d, want 40", progress.BestScore)
		}
	})

	t.Run("fail on final attempt transitions to failed", func(t *testing.T) {
		quest := basicsQuest()
		progress := NewQuestProgress("user-1", quest)
		progress.Attempts = quest.EffectiveMaxAttempts() - 1
		_ = progress.BeginAttempt(quest.EffectiveMaxAttempts())

		verdict := Verdict{OverallScore: 40, Passed: false}
		progress.ApplyVerdict(quest, verdict)

		if progress.Status != QuestStatusFailed {
			t.Errorf("Status = %s, want failed", progress.Status)
		}
	})

	t.Run("verdict after completion only raises best score", func(t *testing.T) {
		quest := basicsQuest()
		progress := NewQuestProgress("user-1", quest)
		progress.Status = QuestStatusCompleted
		progress.BestScore = 85
		progress.Progress = 100

		progress.ApplyVerdict(quest, Verdict{OverallScore: 60, Passed: false})
		if progress.Status != QuestStatusCompleted || progress.BestScore != 85 {
			t.Errorf("review fail changed state: status=%s best=%d", progress.Status, progress.BestScore)
		}

		progress.ApplyVerdict(quest, Verdict{OverallScore: 97, Passed: true})
		if progress.BestScore != 97 {
			t.Errorf("BestScore = %d, want 97", progress.BestScore)
		}
		if progress.Status != QuestStatusCompleted {
			t.Errorf("Status = %s, want completed", progress.Status)
		}
	})
}
