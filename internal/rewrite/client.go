// Package rewrite provides the LLM cleanup pass of the narration pipeline.
//
// Chapter text is routed chunk by chunk through an OpenAI-compatible chat
// completion API (a local Ollama instance in the default deployment), which
// normalizes punctuation, repairs formatting artifacts, and prepares the
// prose for narration.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are a professional text formatter preparing content for audiobook narration.

Clean and normalize the text: fix typos, normalize punctuation, ensure proper
sentence structure, format dialogue clearly, and remove formatting artifacts
that would not be read aloud. Keep the meaning and content exactly the same.
Do not add content, remove story content, or insert narrator notes. Output
only the formatted text, with no explanations.`

// Static errors.
var (
	// ErrNoChoices indicates the model returned no completion choices.
	ErrNoChoices = errors.New("model returned no choices")
	// ErrEmptyCompletion indicates the model returned an empty rewrite.
	ErrEmptyCompletion = errors.New("model returned an empty completion")
	// ErrModelNotAvailable indicates the configured model is not served.
	ErrModelNotAvailable = errors.New("configured model not available")
)

// OpenAIRewriter rewrites text chunks through an OpenAI-compatible API.
type OpenAIRewriter struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIRewriter creates a rewriter against the given base URL. The API
// key may be any non-empty placeholder for engines that do not check it.
func NewOpenAIRewriter(baseURL, apiKey, model string, temperature float64) *OpenAIRewriter {
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = baseURL

	return &OpenAIRewriter{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: float32(temperature),
	}
}

// Rewrite sends one chunk of chapter text to the model and returns the
// cleaned text. Whitespace-only input is returned unchanged without a model
// call.
func (r *OpenAIRewriter) Rewrite(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	response, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: r.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Text to format:\n" + text,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", ErrNoChoices
	}

	rewritten := strings.TrimSpace(response.Choices[0].Message.Content)
	if rewritten == "" {
		return "", ErrEmptyCompletion
	}

	return rewritten, nil
}

// HealthCheck verifies the API is reachable and the configured model is
// among the served models.
func (r *OpenAIRewriter) HealthCheck(ctx context.Context) error {
	models, err := r.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	for _, model := range models.Models {
		if model.ID == r.model {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrModelNotAvailable, r.model)
}
