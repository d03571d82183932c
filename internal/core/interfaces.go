// Package core defines the interfaces and shared value types the narration
// pipeline is wired together with.
package core

import "context"

// ObjectStore is a key-value blob store holding chapter text and generated
// audio chunks.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// Rewriter cleans a single chunk of chapter text for narration. It is the
// LLM collaborator: implementations call an external model and return the
// rewritten text.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) (string, error)
}

// VoiceParams holds the per-job synthesis parameters forwarded to the TTS
// engine.
type VoiceParams struct {
	Voice       string
	Language    string
	Temperature float64
}

// Synthesizer converts a single chunk of cleaned text into audio. It is the
// TTS collaborator: implementations call an external engine and return raw
// audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, params VoiceParams) ([]byte, error)
}

// Formatter runs the LLM cleanup pass over a whole chapter and returns the
// reassembled text.
type Formatter interface {
	FormatChapter(ctx context.Context, text string) (string, error)
}

// Narrator synthesizes a whole chapter and returns one audio buffer per
// chunk, in chunk order.
type Narrator interface {
	Narrate(ctx context.Context, text string, params VoiceParams) ([][]byte, error)
}
