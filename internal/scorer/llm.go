package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/promptcraft/promptcraft/internal/domain"
)

// LLMScorer asks a chat-completion API to grade the submission and
// return one score per criterion as JSON.
type LLMScorer struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// LLMConfig holds configuration for the LLM scorer
type LLMConfig struct {
	APIKey  string
	BaseURL string // default: https://api.openai.com
	Model   string // default: gpt-4o-mini
	Timeout time.Duration
}

// NewLLMScorer creates an LLM-backed scorer
func NewLLMScorer(cfg LLMConfig) *LLMScorer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &LLMScorer{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *LLMScorer) Name() string {
	return "llm"
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const gradingSystem = `You grade prompt-engineering submissions. ` +
	`Given a task, a submitted prompt, and scoring criteria, respond with a JSON object ` +
	`mapping each criterion name to an integer score from 0 to 100. Respond with JSON only.`

func (s *LLMScorer) Score(ctx context.Context, req *Request) (domain.ScoreVector, error) {
	userMsg := s.buildUserMessage(req)

	chatReq := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: gradingSystem},
			{Role: "user", Content: userMsg},
		},
		Temperature:    0,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion")
	}

	return s.parseVector(chatResp.Choices[0].Message.Content, req.Criteria)
}

func (s *LLMScorer) buildUserMessage(req *Request) string {
	var b strings.Builder
	b.WriteString("Task:\n")
	b.WriteString(req.Task)
	b.WriteString("\n\nSubmitted prompt:\n")
	b.WriteString(req.Prompt)
	b.WriteString("\n\nCriteria:\n")
	for _, c := range req.Criteria {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}
	return b.String()
}

// parseVector decodes the model's JSON reply and checks every
// criterion received an in-range score.
func (s *LLMScorer) parseVector(content string, criteria []domain.EvaluationCriterion) (domain.ScoreVector, error) {
	// Some models wrap JSON in a code fence despite instructions.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw map[string]float64
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parse scores: %w", err)
	}

	vector := make(domain.ScoreVector, len(criteria))
	for _, c := range criteria {
		score, ok := raw[c.Name]
		if !ok {
			return nil, fmt.Errorf("missing score for criterion %q: %w", c.Name, domain.ErrInvalidScoreVector)
		}
		if score < 0 || score > 100 {
			return nil, fmt.Errorf("score %.1f for criterion %q out of range: %w", score, c.Name, domain.ErrInvalidScoreVector)
		}
		vector[c.Name] = score
	}
	return vector, nil
}
