// Package config provides the configuration structure for the
// narration-service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                      string `toml:"url"`
	TextProcessedSubject     string `toml:"text_processed_subject"`
	AudioChunkCreatedSubject string `toml:"audio_chunk_created_subject"`
	TextObjectStoreBucket    string `toml:"text_object_store_bucket"`
	AudioObjectStoreBucket   string `toml:"audio_object_store_bucket"`
}

// LLMConfig holds the configuration for the text rewrite pass.
type LLMConfig struct {
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	MaxRetries     int     `toml:"max_retries"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// TTSConfig holds the configuration for the speech synthesis engine.
type TTSConfig struct {
	BaseURL        string  `toml:"base_url"`
	Voice          string  `toml:"voice"`
	Language       string  `toml:"language"`
	Temperature    float64 `toml:"temperature"`
	Workers        int     `toml:"workers"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// ChunkingConfig holds the chunk size limits for both pipeline passes.
type ChunkingConfig struct {
	LLMMaxChars     int `toml:"llm_max_chars"`
	LLMOverlapChars int `toml:"llm_overlap_chars"`
	TTSMaxChars     int `toml:"tts_max_chars"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS     NATSConfig     `toml:"nats"`
	LLM      LLMConfig      `toml:"llm"`
	TTS      TTSConfig      `toml:"tts"`
	Chunking ChunkingConfig `toml:"chunking"`
	Paths    PathsConfig    `toml:"paths"`
}

// Load loads the configuration for the narration-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}
