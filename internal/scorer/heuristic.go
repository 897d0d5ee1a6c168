package scorer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/promptcraft/promptcraft/internal/domain"
)

// HeuristicScorer scores prompts with deterministic text analysis.
// It is the default scorer and the fallback when no LLM is configured;
// the same prompt always yields the same vector.
type HeuristicScorer struct{}

// NewHeuristicScorer creates a heuristic scorer
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

func (s *HeuristicScorer) Name() string {
	return "heuristic"
}

var (
	numberPattern  = regexp.MustCompile(`\d`)
	exampleWords   = []string{"for example", "e.g.", "such as", "like this", "example:"}
	formatWords    = []string{"format", "json", "markdown", "bullet", "list", "table", "structure", "sections"}
	audienceWords  = []string{"audience", "reader", "for a ", "explain to", "beginner", "expert", "customer", "student"}
	roleWords      = []string{"you are", "act as", "as a ", "role"}
	constraintWord = []string{"must", "should", "only", "exactly", "at least", "at most", "no more than", "limit", "avoid", "do not", "don't", "within"}
	stepWords      = []string{"first", "then", "next", "finally", "step"}
)

func (s *HeuristicScorer) Score(ctx context.Context, req *Request) (domain.ScoreVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("empty prompt: %w", domain.ErrInvalidArgument)
	}

	f := analyze(req.Prompt)

	vector := make(domain.ScoreVector, len(req.Criteria))
	for _, c := range req.Criteria {
		vector[c.Name] = scoreCriterion(c.Name, f)
	}
	return vector, nil
}

// features captures the measurable properties of a prompt that the
// criterion rules score against.
type features struct {
	wordCount      int
	sentenceCount  int
	hasNumbers     bool
	hasExamples    bool
	hasFormat      bool
	hasAudience    bool
	hasRole        bool
	constraintHits int
	stepHits       int
	hasStructure   bool
}

func analyze(prompt string) features {
	lower := strings.ToLower(prompt)
	words := strings.Fields(prompt)

	f := features{
		wordCount:  len(words),
		hasNumbers: numberPattern.MatchString(prompt),
	}
	f.sentenceCount = strings.Count(prompt, ".") + strings.Count(prompt, "?") + strings.Count(prompt, "!")
	if f.sentenceCount == 0 {
		f.sentenceCount = 1
	}
	f.hasExamples = containsAny(lower, exampleWords)
	f.hasFormat = containsAny(lower, formatWords)
	f.hasAudience = containsAny(lower, audienceWords)
	f.hasRole = containsAny(lower, roleWords)
	for _, w := range constraintWord {
		if strings.Contains(lower, w) {
			f.constraintHits++
		}
	}
	for _, w := range stepWords {
		if strings.Contains(lower, w) {
			f.stepHits++
		}
	}
	f.hasStructure = strings.Contains(prompt, "\n-") || strings.Contains(prompt, "\n1.") ||
		strings.Count(prompt, "\n\n") >= 1

	return f
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// scoreCriterion maps a criterion name onto the feature set. Unknown
// criteria fall back to a general quality score.
func scoreCriterion(name string, f features) float64 {
	key := strings.ToLower(name)

	switch {
	case strings.Contains(key, "clarity") || strings.Contains(key, "clear"):
		return clamp(lengthScore(f) + boolScore(f.sentenceCount >= 2, 10) + boolScore(f.hasStructure, 15) + boolScore(f.stepHits >= 2, 10))
	case strings.Contains(key, "specific"):
		return clamp(lengthScore(f) + boolScore(f.hasNumbers, 15) + float64(min(f.constraintHits, 3))*8 + boolScore(f.hasExamples, 10))
	case strings.Contains(key, "audience"):
		return clamp(baseScore(f) + boolScore(f.hasAudience, 30) + boolScore(f.hasRole, 15))
	case strings.Contains(key, "format") || strings.Contains(key, "structure"):
		return clamp(baseScore(f) + boolScore(f.hasFormat, 25) + boolScore(f.hasStructure, 20))
	case strings.Contains(key, "context"):
		return clamp(lengthScore(f) + boolScore(f.hasRole, 15) + boolScore(f.hasExamples, 15))
	case strings.Contains(key, "constraint"):
		return clamp(baseScore(f) + float64(min(f.constraintHits, 4))*12)
	case strings.Contains(key, "example"):
		return clamp(baseScore(f) + boolScore(f.hasExamples, 40))
	default:
		return clamp(baseScore(f) + boolScore(f.hasStructure, 10) + boolScore(f.constraintHits > 0, 10))
	}
}

// baseScore rewards prompts long enough to carry intent without
// rewarding sheer length.
func baseScore(f features) float64 {
	switch {
	case f.wordCount < 5:
		return 20
	case f.wordCount < 15:
		return 40
	case f.wordCount < 40:
		return 50
	default:
		return 55
	}
}

func lengthScore(f features) float64 {
	return baseScore(f) + 10
}

func boolScore(ok bool, points float64) float64 {
	if ok {
		return points
	}
	return 0
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
