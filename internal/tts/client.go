// Package tts provides the speech synthesis pass of the narration pipeline.
//
// Cleaned chapter text is synthesized chunk by chunk through a standalone
// TTS HTTP engine that accepts text and returns WAV audio.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book-expert/narration-service/internal/core"
)

// API endpoints.
const (
	apiSpeech = "/v1/audio/speech"
	apiVoices = "/voices"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
)

// Engine-level synthesis defaults, forwarded with every request.
const (
	defaultExaggeration = 0.8
	defaultCFGWeight    = 0.3
	defaultTemperature  = 0.9
)

// Static errors.
var (
	// ErrTextEmpty indicates an empty synthesis input.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrEmptyAudio indicates the engine returned no audio bytes.
	ErrEmptyAudio = errors.New("received empty audio data")
)

// speechRequest is the JSON payload for a synthesis request.
type speechRequest struct {
	Input        string  `json:"input"`
	Voice        string  `json:"voice,omitempty"`
	Language     string  `json:"language,omitempty"`
	Exaggeration float64 `json:"exaggeration"`
	CFGWeight    float64 `json:"cfg_weight"`
	Temperature  float64 `json:"temperature"`
}

// errorResponse is the structured error body the engine returns on failure.
type errorResponse struct {
	Detail string `json:"detail"`
}

// Voice describes one entry of the engine's voice library.
type Voice struct {
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
}

// Client is an HTTP client for the TTS engine.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the engine at baseURL. The timeout applies
// to every request; synthesis of a full chunk can take minutes, so callers
// should configure it generously.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize converts one chunk of text into WAV audio.
func (c *Client) Synthesize(
	ctx context.Context,
	text string,
	params core.VoiceParams,
) ([]byte, error) {
	if text == "" {
		return nil, ErrTextEmpty
	}

	payload := speechRequest{
		Input:        text,
		Voice:        params.Voice,
		Language:     params.Language,
		Exaggeration: defaultExaggeration,
		CFGWeight:    defaultCFGWeight,
		Temperature:  params.Temperature,
	}
	if payload.Temperature == 0 {
		payload.Temperature = defaultTemperature
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiSpeech,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}

	request.Header.Set(headerContentType, contentTypeJSON)
	request.Header.Set(headerAccept, contentTypeWAV)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to reach TTS engine at %s: %w", c.baseURL, err,
		)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(response)
	}

	audioData, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// ListVoices returns the engine's voice library.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	request, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+apiVoices, http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create voices request: %w", err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to reach TTS engine at %s: %w", c.baseURL, err,
		)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(response)
	}

	var voices []Voice

	err = json.NewDecoder(response.Body).Decode(&voices)
	if err != nil {
		return nil, fmt.Errorf("failed to decode voices response: %w", err)
	}

	return voices, nil
}

// HealthCheck verifies the engine is reachable. The voice library endpoint
// doubles as the health probe.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ListVoices(ctx)
	if err != nil {
		return fmt.Errorf("TTS engine health check failed: %w", err)
	}

	return nil
}

// parseErrorResponse decodes a structured engine error, falling back to the
// raw body so diagnostics are never lost.
func (c *Client) parseErrorResponse(response *http.Response) error {
	body, _ := io.ReadAll(response.Body)

	var engineError errorResponse

	err := json.Unmarshal(body, &engineError)
	if err == nil && engineError.Detail != "" {
		return fmt.Errorf("TTS engine error (%s): %s", response.Status, engineError.Detail)
	}

	return fmt.Errorf(
		"TTS engine returned non-OK status: %s, body: %s",
		response.Status, string(body),
	)
}
