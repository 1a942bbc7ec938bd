// Package llm asks a chat-completion model whether a sample of channel
// posts looks like drug trade.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
	"github.com/lueurxax/telegrasper/internal/core/ports"
	"github.com/lueurxax/telegrasper/internal/platform/config"
	"github.com/lueurxax/telegrasper/internal/platform/observability"
)

type verdict struct {
	Suspicious *bool `json:"suspicious"`
}

type openaiClassifier struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	breaker *breaker
	logger  *zerolog.Logger
}

// NewClassifier returns the OpenAI-backed classifier. LLM_API_KEY=mock
// selects a classifier that never flags anything, for local runs.
func NewClassifier(cfg *config.Config, logger *zerolog.Logger) ports.Classifier {
	if cfg.LLMAPIKey == llmAPIKeyMock {
		logger.Warn().Msg("LLM_API_KEY is mock, screening will report every channel as clean")

		return mockClassifier{}
	}

	clientCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		clientCfg.BaseURL = cfg.LLMBaseURL
	}

	return newOpenAIClassifier(openai.NewClientWithConfig(clientCfg), cfg.LLMModel, cfg.LLMRateLimitRPS, logger)
}

func newOpenAIClassifier(client *openai.Client, model string, rps float64, logger *zerolog.Logger) *openaiClassifier {
	return &openaiClassifier{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), rateLimiterBurst),
		breaker: newBreaker(circuitBreakerThreshold, circuitBreakerTimeout, logger),
		logger:  logger,
	}
}

// Classify returns the model's verdict for sample.
func (c *openaiClassifier) Classify(ctx context.Context, sample string) (bool, error) {
	if err := c.breaker.allow(time.Now()); err != nil {
		return false, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf(errRateLimiter, err)
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: screeningPrompt},
			{Role: openai.ChatMessageRoleUser, Content: truncate(sample, maxSampleRunes)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})

	observability.ClassifierRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())

	c.breaker.record(err, time.Now())

	if err != nil {
		return false, fmt.Errorf(errOpenAIChatCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return false, coreerrors.ErrEmptyResponse
	}

	return parseVerdict(resp.Choices[0].Message.Content)
}

func parseVerdict(content string) (bool, error) {
	var v verdict

	if err := json.Unmarshal([]byte(extractObject(content)), &v); err != nil {
		return false, fmt.Errorf(errParseResponse, err)
	}

	if v.Suspicious == nil {
		return false, fmt.Errorf(errParseResponse, coreerrors.ErrEmptyResponse)
	}

	return *v.Suspicious, nil
}

// extractObject trims prose or code fences around a JSON object.
func extractObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start != -1 && end > start {
		return text[start : end+1]
	}

	return text
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}

	return string(r[:maxRunes])
}

type mockClassifier struct{}

func (mockClassifier) Classify(context.Context, string) (bool, error) {
	return false, nil
}
