// main package for the narration-client, a small CLI for inspecting how
// chapter text will be chunked and for probing the TTS engine.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/book-expert/narration-service/internal/chunker"
	"github.com/book-expert/narration-service/internal/tts"
)

// Flag descriptions.
const (
	flagTextDesc    = "Path to a text file to chunk"
	flagModeDesc    = "Chunking mode: llm or tts"
	flagMaxDesc     = "Maximum characters per chunk (0 uses the mode default)"
	flagOverlapDesc = "Overlap characters between LLM chunks"
	flagOutputDesc  = "Output path for the chunks JSON array (default: stdout)"
	flagHealthDesc  = "Check TTS engine health and exit"
	flagTTSURLDesc  = "Base URL of the TTS engine (for --health)"
)

const (
	modeLLM = "llm"
	modeTTS = "tts"

	healthCheckTimeout = 10 * time.Second
	outputPermissions  = 0o600
)

// Static errors.
var (
	ErrTextFlagRequired = errors.New("--text must be provided")
	ErrUnknownMode      = errors.New("unknown chunking mode")
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	text    string
	mode    string
	max     int
	overlap int
	output  string
	health  bool
	ttsURL  string
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	if flags.health {
		return handleHealthCheck(flags.ttsURL)
	}

	if flags.text == "" {
		flag.Usage()

		return ErrTextFlagRequired
	}

	chunks, err := chunkFile(flags)
	if err != nil {
		return err
	}

	return writeChunks(chunks, flags.output)
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.text, "text", "", flagTextDesc)
	flag.StringVar(&flags.mode, "mode", modeTTS, flagModeDesc)
	flag.IntVar(&flags.max, "max", 0, flagMaxDesc)
	flag.IntVar(&flags.overlap, "overlap", chunker.DefaultLLMOverlapChars, flagOverlapDesc)
	flag.StringVar(&flags.output, "output", "", flagOutputDesc)
	flag.BoolVar(&flags.health, "health", false, flagHealthDesc)
	flag.StringVar(&flags.ttsURL, "tts-url", "http://127.0.0.1:8004", flagTTSURLDesc)
	flag.Parse()

	return flags
}

func handleHealthCheck(ttsURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	client := tts.NewClient(ttsURL, healthCheckTimeout)

	err := client.HealthCheck(ctx)
	if err != nil {
		fmt.Printf("TTS engine is not healthy: %v\n", err)

		return err
	}

	fmt.Println("TTS engine is healthy")

	return nil
}

func chunkFile(flags appFlags) ([]string, error) {
	data, err := os.ReadFile(flags.text)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	textChunker := chunker.New()

	switch flags.mode {
	case modeLLM:
		maxChars := flags.max
		if maxChars <= 0 {
			maxChars = chunker.DefaultLLMMaxChars
		}

		chunks, chunkErr := textChunker.ChunkForLLM(string(data), maxChars, flags.overlap)
		if chunkErr != nil {
			return nil, fmt.Errorf("failed to chunk for llm: %w", chunkErr)
		}

		return chunks, nil
	case modeTTS:
		maxChars := flags.max
		if maxChars <= 0 {
			maxChars = chunker.DefaultTTSMaxChars
		}

		chunks, chunkErr := textChunker.ChunkForTTS(string(data), maxChars)
		if chunkErr != nil {
			return nil, fmt.Errorf("failed to chunk for tts: %w", chunkErr)
		}

		return chunks, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, flags.mode)
	}
}

func writeChunks(chunks []string, outputPath string) error {
	encoded, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode chunks: %w", err)
	}

	if outputPath == "" {
		fmt.Println(string(encoded))
		fmt.Fprintf(os.Stderr, "%d chunks\n", len(chunks))

		return nil
	}

	err = os.WriteFile(outputPath, encoded, outputPermissions)
	if err != nil {
		return fmt.Errorf("failed to write chunks file: %w", err)
	}

	fmt.Printf("Wrote %d chunks to %s\n", len(chunks), outputPath)

	return nil
}
