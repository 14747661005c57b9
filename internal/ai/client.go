// Package ai binds to an OpenAI-compatible chat-completions endpoint to
// turn free-form text into task proposals. The model's output is
// consumed as opaque JSON; nothing here second-guesses its categories.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dayplan/internal/domain"
)

// Provider presets. All of them speak the same chat-completions wire
// format; only the endpoint and default model differ.
type Provider string

const (
	ProviderOpenAI      Provider = "openai"
	ProviderDeepSeek    Provider = "deepseek"
	ProviderSiliconFlow Provider = "siliconflow"
)

type preset struct {
	baseURL string
	model   string
}

var presets = map[Provider]preset{
	ProviderOpenAI:      {baseURL: "https://api.openai.com/v1", model: "gpt-4o-mini"},
	ProviderDeepSeek:    {baseURL: "https://api.deepseek.com/v1", model: "deepseek-chat"},
	ProviderSiliconFlow: {baseURL: "https://api.siliconflow.cn/v1", model: "Qwen/Qwen2.5-7B-Instruct"},
}

type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Now        func() time.Time
}

// New builds a client for a known provider; base URL and model fall
// back to the provider preset when left empty.
func New(provider Provider, apiKey, baseURL, model string) (*Client, error) {
	p, ok := presets[provider]
	if !ok {
		return nil, fmt.Errorf("unknown ai provider %q", provider)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no api key configured for provider %q", provider)
	}
	if baseURL == "" {
		baseURL = p.baseURL
	}
	if model == "" {
		model = p.model
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Now:        time.Now,
	}, nil
}

// Plan is a structured planning result: a short analysis plus proposed
// tasks.
type Plan struct {
	Analysis string            `json:"analysis"`
	Items    []domain.Proposal `json:"items"`
}

const systemPrompt = "You are a task management assistant. Always reply with strict JSON."

// ParseText extracts task proposals from free-form text. Relative date
// words are resolved against today by the model itself; the prompt only
// anchors the calendar.
func (c *Client) ParseText(ctx context.Context, text string) ([]domain.Proposal, error) {
	today := c.Now()
	prompt := fmt.Sprintf(`Today is %s (%s).

User input: %q

Extract tasks from the input and resolve date words to concrete dates:
- "today" means %s
- "tomorrow" means %s
- "the day after tomorrow" means %s
- explicit dates become YYYY-MM-DD
- no date mentioned means today

Rules:
1. text: task content only, temporal markers removed
2. dueDate: YYYY-MM-DD
3. category: by dueDate - 'history' (past) / 'today' / 'future2' (1-2 days out) / 'later' (further)
4. isArchived: true only when the input clearly describes a finished action; a past dueDate alone does not make it true

Return strict JSON:
{"items": [{"text": "...", "dueDate": "YYYY-MM-DD", "category": "today", "isArchived": false}]}`,
		today.Format("Monday, January 2"), domain.Today(today),
		domain.Today(today),
		domain.Today(today.AddDate(0, 0, 1)),
		domain.Today(today.AddDate(0, 0, 2)),
		text)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Items []domain.Proposal `json:"items"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	return resp.Items, nil
}

// PlanTasks asks the model for a structured plan for a broader request.
func (c *Client) PlanTasks(ctx context.Context, input string) (Plan, error) {
	today := c.Now()
	prompt := fmt.Sprintf(`Today: %s (%s).

User's request: %q

You are a productivity assistant. Create a structured task plan.

Return strict JSON:
{"analysis": "brief analysis", "items": [{"text": "Task", "dueDate": "YYYY-MM-DD", "category": "today|future2|later", "isArchived": false}]}`,
		today.Format("Monday, January 2"), domain.Today(today), input)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return Plan{}, err
	}
	var plan Plan
	if err := json.Unmarshal([]byte(stripFences(raw)), &plan); err != nil {
		return Plan{}, fmt.Errorf("parse model output: %w", err)
	}
	return plan, nil
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
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
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", err
	}
	u := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ai api error: status=%d body=%s", resp.StatusCode, string(b))
	}
	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai api returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// stripFences removes a markdown code fence wrapper that some models
// emit despite the json response format hint.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
