// Package llm sends assembled bundles to a completion service.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

var (
	ErrEmptyPrompt   = errors.New("llm: prompt is empty")
	ErrEmptyResponse = errors.New("llm: model returned no text")
	ErrNoAPIKey      = errors.New("llm: api key is not set")
)

// Client completes a text prompt
type Client interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Gemini is a thin wrapper around the official genai client.
type Gemini struct {
	cli   *genai.Client
	model string
}

// NewGemini creates a Gemini API client for model
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{cli: cli, model: model}, nil
}

func (g *Gemini) Name() string { return "Gemini:" + g.model }

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Ask sends prompt through client and returns the trimmed answer.
func Ask(ctx context.Context, client Client, prompt string, logger *slog.Logger) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("model", client.Name())

	started := time.Now()
	out, err := client.Complete(ctx, prompt)
	if err != nil {
		logger.Warn("completion failed", "error", err)
		return "", fmt.Errorf("completion failed: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyResponse
	}
	logger.Debug("completion finished", "prompt_bytes", len(prompt), "elapsed", time.Since(started).Round(time.Millisecond))
	return out, nil
}
