// Package openai polishes rendered asteroid reports through an
// OpenAI-compatible chat completion endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You rewrite short factual reports about near-Earth asteroids " +
	"into clear, engaging prose. Keep every number and fact exactly as given. " +
	"Do not add information. Answer with the rewritten report only."

// Summarizer implements report.Polisher over the OpenAI chat API.
type Summarizer struct {
	client *goopenai.Client
	model  string
	logger *slog.Logger
}

// NewSummarizer creates a Summarizer. baseURL is overridable for tests and
// OpenAI-compatible endpoints; pass an empty string for the default API.
func NewSummarizer(apiKey, model, baseURL string, timeout time.Duration, logger *slog.Logger) *Summarizer {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Summarizer{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// Polish rewrites the rendered report text.
func (s *Summarizer) Polish(ctx context.Context, text string) (string, error) {
	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: s.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	s.logger.Debug("report polished",
		"model", s.model,
		"elapsed", time.Since(start),
		"input_len", len(text),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
