package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/promptcraft/promptcraft/internal/domain"
	"gopkg.in/yaml.v3"
)

// WorldsFile represents the YAML structure of worlds.yaml
type WorldsFile struct {
	Worlds []struct {
		ID          int    `yaml:"id"`
		Name        string `yaml:"name"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		UnlockLevel int    `yaml:"unlock_level"`
		Quests      []string `yaml:"quests"`
		Rewards     struct {
			XP    int    `yaml:"xp"`
			Badge string `yaml:"badge"`
			Title string `yaml:"title"`
		} `yaml:"rewards"`
	} `yaml:"worlds"`
}

// QuestFile represents the YAML structure of one quest definition
type QuestFile struct {
	ID            string   `yaml:"id"`
	WorldID       int      `yaml:"world_id"`
	Name          string   `yaml:"name"`
	Title         string   `yaml:"title"`
	Description   string   `yaml:"description"`
	Difficulty    string   `yaml:"difficulty"`
	Type          string   `yaml:"type"`
	Prerequisites []string `yaml:"prerequisites"`
	UnlockLevel   int      `yaml:"unlock_level"`
	PassThreshold int      `yaml:"pass_threshold"`
	MaxAttempts   int      `yaml:"max_attempts"`
	Tags          []string `yaml:"tags"`
	Objectives    []struct {
		ID          string `yaml:"id"`
		Description string `yaml:"description"`
		Type        string `yaml:"type"`
		Criterion   string `yaml:"criterion"`
		Target      int    `yaml:"target"`
	} `yaml:"objectives"`
	Criteria []struct {
		Name        string  `yaml:"name"`
		Description string  `yaml:"description"`
		Weight      float64 `yaml:"weight"`
	} `yaml:"criteria"`
	Rewards struct {
		XP      int      `yaml:"xp"`
		Badges  []string `yaml:"badges"`
		Unlocks []string `yaml:"unlocks"`
	} `yaml:"rewards"`
}

// AchievementsFile represents the YAML structure of achievements.yaml
type AchievementsFile struct {
	Achievements []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Rarity      string `yaml:"rarity"`
		Category    string `yaml:"category"`
		XPReward    int    `yaml:"xp_reward"`
		Condition   struct {
			Type    string `yaml:"type"`
			Target  int    `yaml:"target"`
			WorldID int    `yaml:"world_id"`
		} `yaml:"condition"`
	} `yaml:"achievements"`
}

// ChallengesFile represents the YAML structure of challenges.yaml
type ChallengesFile struct {
	Challenges []struct {
		ID           string    `yaml:"id"`
		Name         string    `yaml:"name"`
		Title        string    `yaml:"title"`
		Description  string    `yaml:"description"`
		Type         string    `yaml:"type"`
		Difficulty   string    `yaml:"difficulty"`
		StartDate    time.Time `yaml:"start_date"`
		EndDate      time.Time `yaml:"end_date"`
		BaseXP       int       `yaml:"base_xp"`
		Requirements []string  `yaml:"requirements"`
		Criteria     []struct {
			Name        string  `yaml:"name"`
			Description string  `yaml:"description"`
			Weight      float64 `yaml:"weight"`
		} `yaml:"criteria"`
		Rewards struct {
			First         rewardEntry `yaml:"first"`
			Second        rewardEntry `yaml:"second"`
			Third         rewardEntry `yaml:"third"`
			Participation rewardEntry `yaml:"participation"`
		} `yaml:"rewards"`
	} `yaml:"challenges"`
}

type rewardEntry struct {
	XP     int      `yaml:"xp"`
	Badges []string `yaml:"badges"`
	Titles []string `yaml:"titles"`
}

// Loader reads catalog definitions from YAML files under a base directory:
// worlds.yaml, achievements.yaml, challenges.yaml, and quests/<id>.yaml.
type Loader struct {
	basePath string
}

// NewLoader creates a new catalog loader
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// BasePath returns the loader's base directory
func (l *Loader) BasePath() string {
	return l.basePath
}

// LoadWorlds loads the ordered world list from worlds.yaml
func (l *Loader) LoadWorlds() ([]domain.World, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, "worlds.yaml"))
	if err != nil {
		return nil, fmt.Errorf("read worlds file: %w", err)
	}

	var file WorldsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse worlds file: %w", err)
	}

	worlds := make([]domain.World, len(file.Worlds))
	for i, w := range file.Worlds {
		worlds[i] = domain.World{
			ID:          w.ID,
			Name:        w.Name,
			Title:       w.Title,
			Description: w.Description,
			UnlockLevel: w.UnlockLevel,
			QuestIDs:    w.Quests,
			Rewards: domain.WorldRewards{
				XP:    w.Rewards.XP,
				Badge: w.Rewards.Badge,
				Title: w.Rewards.Title,
			},
		}
	}
	return worlds, nil
}

// LoadQuest loads a single quest from quests/<id>.yaml
func (l *Loader) LoadQuest(id string) (*domain.Quest, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, "quests", id+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("read quest file %s: %w", id, err)
	}

	var file QuestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse quest file %s: %w", id, err)
	}

	quest := &domain.Quest{
		ID:            file.ID,
		WorldID:       file.WorldID,
		Name:          file.Name,
		Title:         file.Title,
		Description:   file.Description,
		Difficulty:    domain.Difficulty(file.Difficulty),
		Type:          domain.QuestType(file.Type),
		Prerequisites: file.Prerequisites,
		UnlockLevel:   file.UnlockLevel,
		PassThreshold: file.PassThreshold,
		MaxAttempts:   file.MaxAttempts,
		Tags:          file.Tags,
		Rewards: domain.QuestRewards{
			XP:      file.Rewards.XP,
			Badges:  file.Rewards.Badges,
			Unlocks: file.Rewards.Unlocks,
		},
	}

	quest.Objectives = make([]domain.Objective, len(file.Objectives))
	for i, obj := range file.Objectives {
		quest.Objectives[i] = domain.Objective{
			ID:          obj.ID,
			Description: obj.Description,
			Type:        obj.Type,
			Criterion:   obj.Criterion,
			Target:      obj.Target,
		}
	}

	quest.Criteria = make([]domain.EvaluationCriterion, len(file.Criteria))
	for i, c := range file.Criteria {
		quest.Criteria[i] = domain.EvaluationCriterion{
			Name:        c.Name,
			Description: c.Description,
			Weight:      c.Weight,
		}
	}

	return quest, nil
}

// LoadAchievements loads the achievement catalog from achievements.yaml.
// A missing file is not an error; the catalog is simply empty.
func (l *Loader) LoadAchievements() ([]domain.Achievement, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, "achievements.yaml"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read achievements file: %w", err)
	}

	var file AchievementsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse achievements file: %w", err)
	}

	achievements := make([]domain.Achievement, len(file.Achievements))
	for i, a := range file.Achievements {
		achievements[i] = domain.Achievement{
			ID:          a.ID,
			Name:        a.Name,
			Title:       a.Title,
			Description: a.Description,
			Rarity:      domain.AchievementRarity(a.Rarity),
			Category:    domain.AchievementCategory(a.Category),
			XPReward:    a.XPReward,
			Condition: domain.AchievementCondition{
				Type:    domain.ConditionType(a.Condition.Type),
				Target:  a.Condition.Target,
				WorldID: a.Condition.WorldID,
			},
		}
	}
	return achievements, nil
}

// LoadChallenges loads the challenge catalog from challenges.yaml.
// A missing file is not an error; the catalog is simply empty.
func (l *Loader) LoadChallenges() ([]domain.Challenge, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, "challenges.yaml"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read challenges file: %w", err)
	}

	var file ChallengesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse challenges file: %w", err)
	}

	challenges := make([]domain.Challenge, len(file.Challenges))
	for i, c := range file.Challenges {
		challenge := domain.Challenge{
			ID:           c.ID,
			Name:         c.Name,
			Title:        c.Title,
			Description:  c.Description,
			Type:         domain.ChallengeType(c.Type),
			Difficulty:   domain.Difficulty(c.Difficulty),
			StartDate:    c.StartDate,
			EndDate:      c.EndDate,
			BaseXP:       c.BaseXP,
			Requirements: c.Requirements,
			Rewards: domain.ChallengeRewards{
				First:         toReward(c.Rewards.First),
				Second:        toReward(c.Rewards.Second),
				Third:         toReward(c.Rewards.Third),
				Participation: toReward(c.Rewards.Participation),
			},
		}
		challenge.Criteria = make([]domain.EvaluationCriterion, len(c.Criteria))
		for j, crit := range c.Criteria {
			challenge.Criteria[j] = domain.EvaluationCriterion{
				Name:        crit.Name,
				Description: crit.Description,
				Weight:      crit.Weight,
			}
		}
		challenges[i] = challenge
	}
	return challenges, nil
}

func toReward(e rewardEntry) domain.ChallengeReward {
	return domain.ChallengeReward{XP: e.XP, Badges: e.Badges, Titles: e.Titles}
}
