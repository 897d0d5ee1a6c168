package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/promptcraft/promptcraft/internal/domain"
)

func testQuest() *domain.Quest {
	return &domain.Quest{
		ID:         "first-prompt",
		WorldID:    1,
		Difficulty: domain.DifficultyBeginner,
		Type:       domain.QuestTypeTutorial,
		Objectives: []domain.Objective{
			{ID: "obj-clarity", Criterion: "Clarity", Target: 80},
		},
		Criteria: []domain.EvaluationCriterion{
			{Name: "Clarity", Weight: 1.0},
		},
		Rewards: domain.QuestRewards{XP: 100},
	}
}

func TestProgressStore_Save_Get(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)
	ctx := context.Background()

	progress := domain.NewQuestProgress("user-1", testQuest())
	started := time.Now().UTC().Truncate(time.Second)
	progress.Status = domain.QuestStatusInProgress
	progress.Attempts = 1
	progress.BestScore = 75
	progress.StartedAt = &started
	progress.Objectives[0].Current = 75

	if err := store.Save(ctx, *progress); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Get(ctx, "user-1", "first-prompt")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if loaded.Status != domain.QuestStatusInProgress {
		t.Errorf("Status = %q; want %q", loaded.Status, domain.QuestStatusInProgress)
	}
	if loaded.Attempts != 1 {
		t.Errorf("Attempts = %d; want 1", loaded.Attempts)
	}
	if loaded.BestScore != 75 {
		t.Errorf("BestScore = %d; want 75", loaded.BestScore)
	}
	if loaded.StartedAt == nil {
		t.Fatal("StartedAt = nil; want value")
	}
	if loaded.CompletedAt != nil {
		t.Errorf("CompletedAt = %v; want nil", loaded.CompletedAt)
	}
	if len(loaded.Objectives) != 1 || loaded.Objectives[0].Current != 75 {
		t.Errorf("Objectives = %+v", loaded.Objectives)
	}
}

func TestProgressStore_Get_NotFound(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)

	_, err := store.Get(context.Background(), "user-1", "nope")
	if !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("Get() error = %v; want ErrProgressNotFound", err)
	}
}

func TestProgressStore_ListByUser(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)
	ctx := context.Background()

	quest := testQuest()
	first := domain.NewQuestProgress("user-1", quest)
	other := domain.NewQuestProgress("user-2", quest)

	if err := store.Save(ctx, *first); err != nil {
		t.Fatalf("Save(first) error = %v", err)
	}
	if err := store.Save(ctx, *other); err != nil {
		t.Fatalf("Save(other) error = %v", err)
	}

	records, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d; want 1", len(records))
	}
	if records[0].UserID != "user-1" {
		t.Errorf("UserID = %q; want user-1", records[0].UserID)
	}
}

func TestProgressStore_ListByQuests(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)
	ctx := context.Background()

	quest := testQuest()
	for _, user := range []string{"a", "b", "c"} {
		progress := domain.NewQuestProgress(user, quest)
		if err := store.Save(ctx, *progress); err != nil {
			t.Fatalf("Save(%s) error = %v", user, err)
		}
	}

	records, err := store.ListByQuests(ctx, []string{"first-prompt"})
	if err != nil {
		t.Fatalf("ListByQuests() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("len(records) = %d; want 3", len(records))
	}

	records, err = store.ListByQuests(ctx, nil)
	if err != nil {
		t.Fatalf("ListByQuests(nil) error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d; want 0 for empty quest list", len(records))
	}
}
