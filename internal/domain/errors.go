package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures. The request layer maps them
// to user-visible responses; the core never returns partial state alongside
// a non-nil error.
// -----------------------------------------------------------------------------

// Validation errors
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidWeights     = errors.New("criteria weights must sum to 1.0")
	ErrInvalidScoreVector = errors.New("invalid score vector")
)

// Progression errors
var (
	ErrAttemptsExceeded   = errors.New("quest attempts exceeded")
	ErrPrerequisiteNotMet = errors.New("prerequisite not met")
	ErrChallengeInactive  = errors.New("challenge is not active")
)

// Not-found errors
var (
	ErrLedgerNotFound    = errors.New("ledger not found")
	ErrQuestNotFound     = errors.New("quest not found")
	ErrWorldNotFound     = errors.New("world not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrProgressNotFound  = errors.New("quest progress not found")
)
