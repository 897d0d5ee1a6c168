package catalog

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/promptcraft/promptcraft/internal/domain"
)

const weightTolerance = 1e-6

// Registry holds the loaded catalog in memory and serves lookups.
// All accessors are safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	worlds       []domain.World
	worldsByID   map[int]domain.World
	quests       map[string]domain.Quest
	achievements []domain.Achievement
	challenges   map[string]domain.Challenge
	loader       *Loader
}

// NewRegistry creates an empty registry backed by the given loader
func NewRegistry(loader *Loader) *Registry {
	return &Registry{
		worldsByID: make(map[int]domain.World),
		quests:     make(map[string]domain.Quest),
		challenges: make(map[string]domain.Challenge),
		loader:     loader,
	}
}

// Load reads the full catalog from disk, validates it, and swaps it in
// atomically. On error the previous catalog stays in place.
func (r *Registry) Load() error {
	worlds, err := r.loader.LoadWorlds()
	if err != nil {
		return fmt.Errorf("load worlds: %w", err)
	}

	quests := make(map[string]domain.Quest)
	for _, w := range worlds {
		for _, questID := range w.QuestIDs {
			quest, err := r.loader.LoadQuest(questID)
			if err != nil {
				return fmt.Errorf("load quest %s: %w", questID, err)
			}
			quests[questID] = *quest
		}
	}

	achievements, err := r.loader.LoadAchievements()
	if err != nil {
		return fmt.Errorf("load achievements: %w", err)
	}

	challengeList, err := r.loader.LoadChallenges()
	if err != nil {
		return fmt.Errorf("load challenges: %w", err)
	}
	challenges := make(map[string]domain.Challenge, len(challengeList))
	for _, c := range challengeList {
		challenges[c.ID] = c
	}

	if err := validate(worlds, quests, challenges); err != nil {
		return err
	}

	worldsByID := make(map[int]domain.World, len(worlds))
	for _, w := range worlds {
		worldsByID[w.ID] = w
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.worlds = worlds
	r.worldsByID = worldsByID
	r.quests = quests
	r.achievements = achievements
	r.challenges = challenges
	return nil
}

func validate(worlds []domain.World, quests map[string]domain.Quest, challenges map[string]domain.Challenge) error {
	worldIDs := make(map[int]bool, len(worlds))
	for _, w := range worlds {
		if worldIDs[w.ID] {
			return fmt.Errorf("duplicate world id %d", w.ID)
		}
		worldIDs[w.ID] = true
	}

	for id, q := range quests {
		if q.ID != id {
			return fmt.Errorf("quest file %s declares id %q", id, q.ID)
		}
		if !worldIDs[q.WorldID] {
			return fmt.Errorf("quest %s references unknown world %d", id, q.WorldID)
		}
		if err := validateCriteria(q.Criteria); err != nil {
			return fmt.Errorf("quest %s: %w", id, err)
		}
		for _, prereq := range q.Prerequisites {
			if _, ok := quests[prereq]; !ok {
				return fmt.Errorf("quest %s requires unknown quest %s", id, prereq)
			}
		}
		criteria := make(map[string]bool, len(q.Criteria))
		for _, c := range q.Criteria {
			criteria[c.Name] = true
		}
		for _, obj := range q.Objectives {
			if obj.Criterion != "" && !criteria[obj.Criterion] {
				return fmt.Errorf("quest %s objective %s references unknown criterion %q", id, obj.ID, obj.Criterion)
			}
		}
	}

	for id, c := range challenges {
		if err := validateCriteria(c.Criteria); err != nil {
			return fmt.Errorf("challenge %s: %w", id, err)
		}
		if c.EndDate.Before(c.StartDate) {
			return fmt.Errorf("challenge %s ends before it starts", id)
		}
	}

	return nil
}

func validateCriteria(criteria []domain.EvaluationCriterion) error {
	if len(criteria) == 0 {
		return fmt.Errorf("no evaluation criteria")
	}
	var sum float64
	for _, c := range criteria {
		if c.Weight < 0 {
			return fmt.Errorf("criterion %q has negative weight", c.Name)
		}
		sum += c.Weight
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("criteria weights sum to %.4f: %w", sum, domain.ErrInvalidWeights)
	}
	return nil
}

// Worlds returns all worlds in catalog order
func (r *Registry) Worlds() []domain.World {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.World, len(r.worlds))
	copy(out, r.worlds)
	return out
}

// World returns a world by id
func (r *Registry) World(id int) (domain.World, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.worldsByID[id]
	if !ok {
		return domain.World{}, fmt.Errorf("world %d: %w", id, domain.ErrWorldNotFound)
	}
	return w, nil
}

// PreviousWorld returns the world preceding the given one in catalog
// order, or nil if it is the first world.
func (r *Registry) PreviousWorld(id int) (*domain.World, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, w := range r.worlds {
		if w.ID == id {
			if i == 0 {
				return nil, nil
			}
			prev := r.worlds[i-1]
			return &prev, nil
		}
	}
	return nil, fmt.Errorf("world %d: %w", id, domain.ErrWorldNotFound)
}

// Quest returns a quest by id
func (r *Registry) Quest(id string) (domain.Quest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quests[id]
	if !ok {
		return domain.Quest{}, fmt.Errorf("quest %s: %w", id, domain.ErrQuestNotFound)
	}
	return q, nil
}

// QuestsForWorld returns a world's quests in catalog order
func (r *Registry) QuestsForWorld(worldID int) ([]domain.Quest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.worldsByID[worldID]
	if !ok {
		return nil, fmt.Errorf("world %d: %w", worldID, domain.ErrWorldNotFound)
	}
	quests := make([]domain.Quest, 0, len(w.QuestIDs))
	for _, id := range w.QuestIDs {
		if q, ok := r.quests[id]; ok {
			quests = append(quests, q)
		}
	}
	return quests, nil
}

// Achievements returns the full achievement catalog
func (r *Registry) Achievements() []domain.Achievement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Achievement, len(r.achievements))
	copy(out, r.achievements)
	return out
}

// Challenge returns a challenge by id
func (r *Registry) Challenge(id string) (domain.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.challenges[id]
	if !ok {
		return domain.Challenge{}, fmt.Errorf("challenge %s: %w", id, domain.ErrChallengeNotFound)
	}
	return c, nil
}

// Challenges returns all challenges sorted by start date, then id
func (r *Registry) Challenges() []domain.Challenge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Challenge, 0, len(r.challenges))
	for _, c := range r.challenges {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ActiveChallenges returns the challenges whose window contains now
func (r *Registry) ActiveChallenges(now time.Time) []domain.Challenge {
	all := r.Challenges()
	active := all[:0]
	for _, c := range all {
		if c.Active(now) {
			active = append(active, c)
		}
	}
	return active
}

// Stats reports catalog sizes
func (r *Registry) Stats() (worlds, quests, achievements, challenges int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.worlds), len(r.quests), len(r.achievements), len(r.challenges)
}
