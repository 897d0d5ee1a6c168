package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/promptcraft/promptcraft/internal/domain"
)

const worldsYAML = `worlds:
  - id: 1
    name: prompt-basics
    title: "Prompt Basics"
    description: "Learn the fundamentals of prompt writing"
    unlock_level: 1
    quests:
      - first-prompt
    rewards:
      xp: 200
      badge: basics-graduate
      title: "Apprentice"
  - id: 2
    name: context-craft
    title: "Context Craft"
    description: "Shape model behavior with context"
    unlock_level: 3
    quests: []
    rewards:
      xp: 350
      badge: context-graduate
`

const questYAML = `id: first-prompt
world_id: 1
name: first-prompt
title: "Your First Prompt"
description: "Write a clear instruction for a simple task"
difficulty: beginner
type: tutorial
unlock_level: 1
pass_threshold: 70
max_attempts: 3
tags: [basics, clarity]
objectives:
  - id: obj-clarity
    description: "Reach a clarity score of 80"
    type: score
    criterion: Clarity
    target: 80
criteria:
  - name: Clarity
    description: "Instructions are unambiguous"
    weight: 0.5
  - name: Specificity
    description: "Details constrain the output"
    weight: 0.5
rewards:
  xp: 100
  badges: [first-steps]
  unlocks: [second-prompt]
`

func writeCatalog(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "quests"), 0o755); err != nil {
		t.Fatalf("mkdir quests: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "worlds.yaml"), []byte(worldsYAML), 0o644); err != nil {
		t.Fatalf("write worlds.yaml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "quests", "first-prompt.yaml"), []byte(questYAML), 0o644); err != nil {
		t.Fatalf("write quest: %v", err)
	}
}

func TestLoader_LoadWorlds(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir)

	loader := NewLoader(dir)
	worlds, err := loader.LoadWorlds()
	if err != nil {
		t.Fatalf("LoadWorlds() error = %v", err)
	}
	if len(worlds) != 2 {
		t.Fatalf("len(worlds) = %d, want 2", len(worlds))
	}

	w := worlds[0]
	if w.ID != 1 {
		t.Errorf("ID = %d, want 1", w.ID)
	}
	if w.Name != "prompt-basics" {
		t.Errorf("Name = %q, want %q", w.Name, "prompt-basics")
	}
	if w.UnlockLevel != 1 {
		t.Errorf("UnlockLevel = %d, want 1", w.UnlockLevel)
	}
	if len(w.QuestIDs) != 1 || w.QuestIDs[0] != "first-prompt" {
		t.Errorf("QuestIDs = %v, want [first-prompt]", w.QuestIDs)
	}
	if w.Rewards.XP != 200 {
		t.Errorf("Rewards.XP = %d, want 200", w.Rewards.XP)
	}
	if w.Rewards.Badge != "basics-graduate" {
		t.Errorf("Rewards.Badge = %q, want %q", w.Rewards.Badge, "basics-graduate")
	}
	if worlds[1].UnlockLevel != 3 {
		t.Errorf("worlds[1].UnlockLevel = %d, want 3", worlds[1].UnlockLevel)
	}
}

func TestLoader_LoadQuest(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir)

	loader := NewLoader(dir)
	quest, err := loader.LoadQuest("first-prompt")
	if err != nil {
		t.Fatalf("LoadQuest() error = %v", err)
	}

	if quest.ID != "first-prompt" {
		t.Errorf("ID = %q, want %q", quest.ID, "first-prompt")
	}
	if quest.WorldID != 1 {
		t.Errorf("WorldID = %d, want 1", quest.WorldID)
	}
	if quest.Difficulty != domain.DifficultyBeginner {
		t.Errorf("Difficulty = %q, want %q", quest.Difficulty, domain.DifficultyBeginner)
	}
	if quest.Type != domain.QuestTypeTutorial {
		t.Errorf("Type = %q, want %q", quest.Type, domain.QuestTypeTutorial)
	}
	if len(quest.Criteria) != 2 {
		t.Fatalf("len(Criteria) = %d, want 2", len(quest.Criteria))
	}
	if quest.Criteria[0].Name != "Clarity" || quest.Criteria[0].Weight != 0.5 {
		t.Errorf("Criteria[0] = %+v, want Clarity/0.5", quest.Criteria[0])
	}
	if len(quest.Objectives) != 1 {
		t.Fatalf("len(Objectives) = %d, want 1", len(quest.Objectives))
	}
	if quest.Objectives[0].Criterion != "Clarity" || quest.Objectives[0].Target != 80 {
		t.Errorf("Objectives[0] = %+v, want Clarity/80", quest.Objectives[0])
	}
	if quest.Rewards.XP != 100 {
		t.Errorf("Rewards.XP = %d, want 100", quest.Rewards.XP)
	}
	if len(quest.Rewards.Unlocks) != 1 || quest.Rewards.Unlocks[0] != "second-prompt" {
		t.Errorf("Rewards.Unlocks = %v, want [second-prompt]", quest.Rewards.Unlocks)
	}
}

func TestLoader_LoadQuest_Missing(t *testing.T) {
	loader := NewLoader(t.TempDir())
	if _, err := loader.LoadQuest("nope"); err == nil {
		t.Fatal("LoadQuest() expected error for missing file")
	}
}

func TestLoader_LoadAchievements_MissingFileIsEmpty(t *testing.T) {
	loader := NewLoader(t.TempDir())
	achievements, err := loader.LoadAchievements()
	if err != nil {
		t.Fatalf("LoadAchievements() error = %v", err)
	}
	if len(achievements) != 0 {
		t.Errorf("len(achievements) = %d, want 0", len(achievements))
	}
}

func TestLoader_LoadAchievements(t *testing.T) {
	dir := t.TempDir()
	data := `achievements:
  - id: first-quest
    name: first-quest
    title: "First Steps"
    description: "Complete your first quest"
    rarity: common
    category: progress
    xp_reward: 50
    condition:
      type: quests_completed
      target: 1
`
	if err := os.WriteFile(filepath.Join(dir, "achievements.yaml"), []byte(data), 0o644); err != nil {
		t.Fatalf("write achievements.yaml: %v", err)
	}

	loader := NewLoader(dir)
	achievements, err := loader.LoadAchievements()
	if err != nil {
		t.Fatalf("LoadAchievements() error = %v", err)
	}
	if len(achievements) != 1 {
		t.Fatalf("len(achievements) = %d, want 1", len(achievements))
	}
	a := achievements[0]
	if a.ID != "first-quest" {
		t.Errorf("ID = %q, want %q", a.ID, "first-quest")
	}
	if a.Rarity != domain.RarityCommon {
		t.Errorf("Rarity = %q, want %q", a.Rarity, domain.RarityCommon)
	}
	if a.Condition.Type != domain.ConditionQuestsCompleted {
		t.Errorf("Condition.Type = %q, want %q", a.Condition.Type, domain.ConditionQuestsCompleted)
	}
	if a.Condition.Target != 1 {
		t.Errorf("Condition.Target = %d, want 1", a.Condition.Target)
	}
	if a.XPReward != 50 {
		t.Errorf("XPReward = %d, want 50", a.XPReward)
	}
}

func TestLoader_LoadChallenges(t *testing.T) {
	dir := t.TempDir()
	data := `challenges:
  - id: weekly-haiku
    name: weekly-haiku
    title: "Haiku Prompt Week"
    description: "Craft the most elegant minimal prompt"
    type: weekly
    difficulty: intermediate
    start_date: 2026-08-24T00:00:00Z
    end_date: 2026-08-31T00:00:00Z
    base_xp: 150
    criteria:
      - name: Elegance
        weight: 1.0
    rewards:
      first:
        xp: 500
        badges: [haiku-champion]
      participation:
        xp: 25
`
	if err := os.WriteFile(filepath.Join(dir, "challenges.yaml"), []byte(data), 0o644); err != nil {
		t.Fatalf("write challenges.yaml: %v", err)
	}

	loader := NewLoader(dir)
	challenges, err := loader.LoadChallenges()
	if err != nil {
		t.Fatalf("LoadChallenges() error = %v", err)
	}
	if len(challenges) != 1 {
		t.Fatalf("len(challenges) = %d, want 1", len(challenges))
	}
	c := challenges[0]
	if c.Type != domain.ChallengeWeekly {
		t.Errorf("Type = %q, want %q", c.Type, domain.ChallengeWeekly)
	}
	if !c.StartDate.Equal(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartDate = %v", c.StartDate)
	}
	if c.BaseXP != 150 {
		t.Errorf("BaseXP = %d, want 150", c.BaseXP)
	}
	if c.Rewards.First.XP != 500 {
		t.Errorf("Rewards.First.XP = %d, want 500", c.Rewards.First.XP)
	}
	if len(c.Rewards.First.Badges) != 1 || c.Rewards.First.Badges[0] != "haiku-champion" {
		t.Errorf("Rewards.First.Badges = %v", c.Rewards.First.Badges)
	}
	if c.Rewards.Participation.XP != 25 {
		t.Errorf("Rewards.Participation.XP = %d, want 25", c.Rewards.Participation.XP)
	}
}
