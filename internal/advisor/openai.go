package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

// OpenAIAdvisor is the concrete Advisor backed by an OpenAI-compatible
// chat completion endpoint, wrapped in a circuit breaker so a flaky or
// rate-limited advisor degrades the caller's cascade rather than hanging
// it, the way the teacher's pack wraps outbound LLM calls defensively.
type OpenAIAdvisor struct {
	client  *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
}

// NewOpenAIAdvisor constructs an advisor against an OpenAI-compatible API.
// A non-empty baseURL overrides the default endpoint (local/self-hosted
// models, proxies).
func NewOpenAIAdvisor(apiKey, model, baseURL string) *OpenAIAdvisor {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "advisor-openai",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &OpenAIAdvisor{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		breaker: breaker,
	}
}

// advisorSystemPrompt is templated with the depth instruction at call time.
const advisorSystemPromptTemplate = `You are the reasoning advisor for a command governance pipeline. %s
Respond with a single JSON object of the form:
{"intent": "<canonical_intent>", "confidence": <0..1>, "needs_confirmation": <bool>, "reasoning": "<short text>"}
Never include parameters or entities; the caller extracts those separately.`

// Advise sends req to the OpenAI chat completion endpoint through the
// circuit breaker and parses the response into a Recommendation. A
// response that isn't valid JSON in the expected shape is reported as
// Response{Malformed: true}, not an error — the caller decides how to
// react to a malformed advisor.
func (a *OpenAIAdvisor) Advise(ctx context.Context, req Request) (Response, error) {
	systemPrompt := fmt.Sprintf(advisorSystemPromptTemplate, req.DepthInstruction)

	userContent := fmt.Sprintf("Utterance: %s\nBest guess so far: %s\nSession language: %s\nHistory:\n%s",
		req.Utterance, req.BestGuess, req.LanguageCode, req.History)

	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userContent},
			},
			Temperature: 0.2,
		})
	})
	if err != nil {
		return Response{}, err
	}

	completion := result.(openai.ChatCompletionResponse)
	if len(completion.Choices) == 0 {
		return Response{Malformed: true}, nil
	}

	raw := completion.Choices[0].Message.Content
	rec, ok := parseRecommendation(raw)
	if !ok {
		return Response{Malformed: true, RawText: raw}, nil
	}
	return Response{Ok: true, Recommendation: rec, RawText: raw}, nil
}

type wireRecommendation struct {
	Intent            string  `json:"intent"`
	Confidence        float64 `json:"confidence"`
	NeedsConfirmation bool    `json:"needs_confirmation"`
	Reasoning         string  `json:"reasoning"`
}

// parseRecommendation decodes raw as a wireRecommendation, rejecting an
// empty intent or an out-of-range confidence as malformed.
func parseRecommendation(raw string) (Recommendation, bool) {
	var wire wireRecommendation
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Recommendation{}, false
	}
	if wire.Intent == "" || wire.Confidence < 0 || wire.Confidence > 1 {
		return Recommendation{}, false
	}
	return Recommendation{
		Intent:            wire.Intent,
		Confidence:        wire.Confidence,
		NeedsConfirmation: wire.NeedsConfirmation,
		Reasoning:         wire.Reasoning,
	}, true
}
