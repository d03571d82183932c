// main package for the narration-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/narration-service/internal/chunker"
	"github.com/book-expert/narration-service/internal/config"
	"github.com/book-expert/narration-service/internal/core"
	"github.com/book-expert/narration-service/internal/objectstore"
	"github.com/book-expert/narration-service/internal/rewrite"
	"github.com/book-expert/narration-service/internal/tts"
	"github.com/book-expert/narration-service/internal/worker"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "narration-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	return runWorker(ctx, cfg, log)
}

// runWorker wires the pipeline together and blocks until shutdown.
func runWorker(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	textStore, err := objectstore.New(jetstreamContext, cfg.NATS.TextObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to open text object store: %w", err)
	}

	audioStore, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to open audio object store: %w", err)
	}

	textChunker := chunker.New()

	rewriter := rewrite.NewOpenAIRewriter(
		cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature,
	)
	formatter := rewrite.NewFormatter(
		textChunker,
		rewriter,
		chunkLimit(cfg.Chunking.LLMMaxChars, chunker.DefaultLLMMaxChars),
		chunkLimit(cfg.Chunking.LLMOverlapChars, chunker.DefaultLLMOverlapChars),
		cfg.LLM.MaxRetries,
		log,
	)

	ttsClient := tts.NewClient(
		cfg.TTS.BaseURL, time.Duration(cfg.TTS.TimeoutSeconds)*time.Second,
	)
	engine := tts.NewEngine(
		textChunker,
		ttsClient,
		chunkLimit(cfg.Chunking.TTSMaxChars, chunker.DefaultTTSMaxChars),
		cfg.TTS.Workers,
		log,
	)

	voiceDefaults := core.VoiceParams{
		Voice:       cfg.TTS.Voice,
		Language:    cfg.TTS.Language,
		Temperature: cfg.TTS.Temperature,
	}

	natsWorker, err := worker.NewNatsWorker(
		natsConnection,
		jetstreamContext,
		cfg.NATS.TextProcessedSubject,
		cfg.NATS.AudioChunkCreatedSubject,
		textStore,
		audioStore,
		formatter,
		engine,
		voiceDefaults,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	log.System("Narration service listening for jobs on subject: %s",
		cfg.NATS.TextProcessedSubject)

	runErr := natsWorker.Run(ctx)
	if runErr != nil {
		return fmt.Errorf("worker stopped with error: %w", runErr)
	}

	return nil
}

// chunkLimit falls back to the packaged default when the configuration
// leaves a limit unset.
func chunkLimit(configured, fallback int) int {
	if configured <= 0 {
		return fallback
	}

	return configured
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
