// Package scorer evaluates submitted prompts against a quest's
// evaluation criteria, producing a per-criterion score vector.
package scorer

import (
	"context"

	"github.com/promptcraft/promptcraft/internal/domain"
)

// Request carries a submission to be scored
type Request struct {
	// Prompt is the user's submitted prompt text
	Prompt string

	// Task describes what the prompt was supposed to accomplish
	Task string

	// Criteria are the dimensions to score, each 0-100
	Criteria []domain.EvaluationCriterion
}

// Scorer produces a score vector for a submission. Implementations
// must return a score for every criterion in the request.
type Scorer interface {
	// Name returns the scorer identifier
	Name() string

	// Score evaluates the submission against the request criteria
	Score(ctx context.Context, req *Request) (domain.ScoreVector, error)
}
