package llm

import "time"

// Error message templates
const (
	errRateLimiter          = "rate limiter error: %w"
	errOpenAIChatCompletion = "openai chat completion error: %w"
	errParseResponse        = "failed to parse response: %w"
)

const (
	llmAPIKeyMock    = "mock"
	rateLimiterBurst = 2

	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute

	// maxSampleRunes caps the text sent for one classification.
	maxSampleRunes = 12000
)

// screeningPrompt asks for a strict JSON verdict.
const screeningPrompt = `You review samples of public Telegram channel posts for a drug-trafficking investigation.
Decide whether the channel appears to advertise or sell illegal drugs: price lists, slang names for substances,
dead-drop or delivery instructions, contact handles for orders.
Respond with JSON only: {"suspicious": true} or {"suspicious": false}.`
