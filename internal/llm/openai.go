package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	openaiURL   = "https://api.openai.com/v1/chat/completions"
	openaiModel = "gpt-4o"
)

type openAI struct {
	opts   Options
	url    string
	client *http.Client
}

func newOpenAI(opts Options) Provider {
	if opts.Model == "" {
		opts.Model = openaiModel
	}
	return &openAI{opts: opts, url: openaiURL, client: newHTTPClient(opts.Timeout)}
}

func (o *openAI) Name() string { return "openai" }

type openaiRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_completion_tokens,omitempty"`
	Messages  []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (o *openAI) Complete(ctx context.Context, system, user string) (Result, error) {
	body, err := json.Marshal(openaiRequest{
		Model:     o.opts.Model,
		MaxTokens: o.opts.MaxTokens,
		Messages: []openaiMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.opts.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}

	var parsed openaiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Result{}, fmt.Errorf("openai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return Result{}, fmt.Errorf("openai API %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return Result{}, fmt.Errorf("openai API %d: %s", resp.StatusCode, string(data))
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("openai API returned no choices")
	}

	return Result{
		Text:         parsed.Choices[0].Message.Content,
		Model:        parsed.Model,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}
