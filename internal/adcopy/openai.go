package adcopy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ignite/adpilot/internal/config"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIGenerator generates ad copy through the chat completions API.
type OpenAIGenerator struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIGenerator creates the OpenAI backend.
func NewOpenAIGenerator(cfg config.AdCopyConfig) *OpenAIGenerator {
	return &OpenAIGenerator{
		apiKey:     cfg.OpenAIKey,
		model:      cfg.OpenAIModel,
		baseURL:    defaultOpenAIBaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate renders the prompt, calls the model, and parses the ranked
// variants out of the response.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) ([]Variant, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	prompt, err := renderPrompt(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.8,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(g.baseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model API status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("model API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}
	return parseVariants(parsed.Choices[0].Message.Content)
}
