package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promptcraft/promptcraft/internal/domain"
)

var testCriteria = []domain.EvaluationCriterion{
	{Name: "Clarity", Description: "Instructions are unambiguous", Weight: 0.4},
	{Name: "Specificity", Description: "Details constrain the output", Weight: 0.3},
	{Name: "Audience Awareness", Description: "Prompt names its reader", Weight: 0.3},
}

const strongPrompt = `You are a technical writer. Explain how DNS resolution works ` +
	"to a beginner audience in exactly 3 paragraphs.\n\n" +
	"- First, describe what a domain name is.\n" +
	"- Then, walk through the lookup step by step.\n" +
	"- Finally, give an example such as resolving example.com.\n\n" +
	"You must avoid jargon and should keep each paragraph under 100 words."

func TestHeuristicScorer_CoversAllCriteria(t *testing.T) {
	s := NewHeuristicScorer()

	vector, err := s.Score(context.Background(), &Request{
		Prompt:   strongPrompt,
		Task:     "Write an explainer prompt",
		Criteria: testCriteria,
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if len(vector) != len(testCriteria) {
		t.Fatalf("len(vector) = %d, want %d", len(vector), len(testCriteria))
	}
	for _, c := range testCriteria {
		score, ok := vector[c.Name]
		if !ok {
			t.Errorf("missing score for %q", c.Name)
			continue
		}
		if score < 0 || score > 100 {
			t.Errorf("score for %q = %.1f, out of range", c.Name, score)
		}
	}
}

func TestHeuristicScorer_Deterministic(t *testing.T) {
	s := NewHeuristicScorer()
	req := &Request{Prompt: strongPrompt, Criteria: testCriteria}

	first, err := s.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	second, err := s.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	for name, score := range first {
		if second[name] != score {
			t.Errorf("score for %q changed between runs: %.1f vs %.1f", name, score, second[name])
		}
	}
}

func TestHeuristicScorer_RewardsDetail(t *testing.T) {
	s := NewHeuristicScorer()

	strong, err := s.Score(context.Background(), &Request{Prompt: strongPrompt, Criteria: testCriteria})
	if err != nil {
		t.Fatalf("Score(strong) error = %v", err)
	}
	weak, err := s.Score(context.Background(), &Request{Prompt: "write about dns", Criteria: testCriteria})
	if err != nil {
		t.Fatalf("Score(weak) error = %v", err)
	}

	for _, c := range testCriteria {
		if strong[c.Name] <= weak[c.Name] {
			t.Errorf("%s: strong prompt scored %.1f, weak scored %.1f", c.Name, strong[c.Name], weak[c.Name])
		}
	}
}

func TestHeuristicScorer_EmptyPrompt(t *testing.T) {
	s := NewHeuristicScorer()

	_, err := s.Score(context.Background(), &Request{Prompt: "   ", Criteria: testCriteria})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("Score() error = %v, want ErrInvalidArgument", err)
	}
}

func TestLLMScorer_Score(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("len(messages) = %d, want 2", len(req.Messages))
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"content": `{"Clarity": 88, "Specificity": 75, "Audience Awareness": 92}`,
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	s := NewLLMScorer(LLMConfig{APIKey: "test-key", BaseURL: server.URL})
	vector, err := s.Score(context.Background(), &Request{
		Prompt:   strongPrompt,
		Task:     "Write an explainer prompt",
		Criteria: testCriteria,
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if vector["Clarity"] != 88 {
		t.Errorf("Clarity = %.1f, want 88", vector["Clarity"])
	}
	if vector["Audience Awareness"] != 92 {
		t.Errorf("Audience Awareness = %.1f, want 92", vector["Audience Awareness"])
	}
}

func TestLLMScorer_CodeFencedReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"content": "```json\n{\"Clarity\": 70, \"Specificity\": 70, \"Audience Awareness\": 70}\n```",
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	s := NewLLMScorer(LLMConfig{APIKey: "k", BaseURL: server.URL})
	vector, err := s.Score(context.Background(), &Request{Prompt: "p", Criteria: testCriteria})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if vector["Clarity"] != 70 {
		t.Errorf("Clarity = %.1f, want 70", vector["Clarity"])
	}
}

func TestLLMScorer_MissingCriterion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"Clarity": 80}`}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	s := NewLLMScorer(LLMConfig{APIKey: "k", BaseURL: server.URL})
	_, err := s.Score(context.Background(), &Request{Prompt: "p", Criteria: testCriteria})
	if !errors.Is(err, domain.ErrInvalidScoreVector) {
		t.Fatalf("Score() error = %v, want ErrInvalidScoreVector", err)
	}
}

func TestLLMScorer_OutOfRangeScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"content": `{"Clarity": 130, "Specificity": 70, "Audience Awareness": 70}`,
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	s := NewLLMScorer(LLMConfig{APIKey: "k", BaseURL: server.URL})
	_, err := s.Score(context.Background(), &Request{Prompt: "p", Criteria: testCriteria})
	if !errors.Is(err, domain.ErrInvalidScoreVector) {
		t.Fatalf("Score() error = %v, want ErrInvalidScoreVector", err)
	}
}

func TestLLMScorer_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewLLMScorer(LLMConfig{APIKey: "k", BaseURL: server.URL})
	if _, err := s.Score(context.Background(), &Request{Prompt: "p", Criteria: testCriteria}); err == nil {
		t.Fatal("Score() expected error for 500 response")
	}
}

func TestResilientScorer_PassThrough(t *testing.T) {
	inner := NewHeuristicScorer()
	rs := NewResilientScorer(inner, ResilientConfig{})
	defer rs.Close()

	if rs.Name() != "heuristic" {
		t.Errorf("Name() = %q, want %q", rs.Name(), "heuristic")
	}

	vector, err := rs.Score(context.Background(), &Request{Prompt: strongPrompt, Criteria: testCriteria})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(vector) != len(testCriteria) {
		t.Errorf("len(vector) = %d, want %d", len(vector), len(testCriteria))
	}
}

func TestIsRetryableHTTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", errors.New("API error (status 429): slow down"), true},
		{"server error", errors.New("API error (status 500): boom"), true},
		{"bad request", errors.New("API error (status 400): nope"), false},
		{"unrelated", errors.New("parse scores: unexpected token"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableHTTPError(tt.err); got != tt.want {
				t.Errorf("isRetryableHTTPError() = %v, want %v", got, tt.want)
			}
		})
	}
}
