package tts

import (
	"context"
	"fmt"
	"sync"

	"github.com/book-expert/logger"
	"github.com/book-expert/narration-service/internal/chunker"
	"github.com/book-expert/narration-service/internal/core"
)

// Engine narrates a chapter: it splits cleaned text into sentence-aligned
// chunks and synthesizes each chunk through the configured synthesizer.
//
// Chunks are independent units of work, so synthesis runs on a bounded
// worker pool; the returned audio buffers keep source chunk order.
type Engine struct {
	chunker     *chunker.Chunker
	synthesizer core.Synthesizer
	maxChars    int
	workers     int
	log         *logger.Logger
}

// NewEngine creates a narration engine. A workers value below one is raised
// to one.
func NewEngine(
	textChunker *chunker.Chunker,
	synthesizer core.Synthesizer,
	maxChars, workers int,
	log *logger.Logger,
) *Engine {
	if workers < 1 {
		workers = 1
	}

	return &Engine{
		chunker:     textChunker,
		synthesizer: synthesizer,
		maxChars:    maxChars,
		workers:     workers,
		log:         log,
	}
}

// Narrate synthesizes the whole text and returns one audio buffer per
// chunk, in chunk order. A failed chunk does not stop the remaining chunks,
// but any failure makes the whole narration fail: a chapter with missing
// audio segments is useless.
func (e *Engine) Narrate(
	ctx context.Context,
	text string,
	params core.VoiceParams,
) ([][]byte, error) {
	chunks, err := e.chunker.ChunkForTTS(text, e.maxChars)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk text for synthesis: %w", err)
	}

	if len(chunks) == 0 {
		return nil, nil
	}

	e.log.Info("Synthesizing %d chunks with %d workers (max %d chars)",
		len(chunks), e.workers, e.maxChars)

	var (
		waitGroup sync.WaitGroup
		mutex     sync.Mutex
		lastError error
	)

	results := make([][]byte, len(chunks))
	workerPool := make(chan struct{}, e.workers)

	for chunkIndex, chunk := range chunks {
		waitGroup.Add(1)

		go func(index int, chunkText string) {
			defer waitGroup.Done()

			workerPool <- struct{}{}

			defer func() { <-workerPool }()

			audioData, synthErr := e.synthesizer.Synthesize(ctx, chunkText, params)
			if synthErr != nil {
				mutex.Lock()

				lastError = fmt.Errorf(
					"chunk %d/%d failed: %w", index+1, len(chunks), synthErr,
				)

				mutex.Unlock()
				e.log.Error("Failed to synthesize chunk %d/%d: %v",
					index+1, len(chunks), synthErr)

				return
			}

			results[index] = audioData

			e.log.Info("Synthesized chunk %d/%d (%d bytes)",
				index+1, len(chunks), len(audioData))
		}(chunkIndex, chunk)
	}

	waitGroup.Wait()
	close(workerPool)

	if lastError != nil {
		return nil, lastError
	}

	return results, nil
}
