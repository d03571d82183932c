package rewrite

import (
	"context"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/narration-service/internal/chunker"
	"github.com/book-expert/narration-service/internal/core"
)

// Formatter runs the LLM cleanup pass over a whole chapter: chunk, rewrite
// each chunk in order, reassemble with overlap removal.
type Formatter struct {
	chunker      *chunker.Chunker
	rewriter     core.Rewriter
	maxChars     int
	overlapChars int
	maxRetries   int
	log          *logger.Logger
}

// NewFormatter creates a chapter formatter. Chunk limits are validated on
// the first FormatChapter call.
func NewFormatter(
	textChunker *chunker.Chunker,
	rewriter core.Rewriter,
	maxChars, overlapChars, maxRetries int,
	log *logger.Logger,
) *Formatter {
	return &Formatter{
		chunker:      textChunker,
		rewriter:     rewriter,
		maxChars:     maxChars,
		overlapChars: overlapChars,
		maxRetries:   maxRetries,
		log:          log,
	}
}

// FormatChapter rewrites chapter text chunk by chunk and reassembles the
// results into continuous text.
//
// Chunks are processed sequentially to bound the load on the model server.
// Each chunk is retried up to the configured limit; a chunk that still fails
// aborts the chapter with its index in the error, so the caller can
// attribute the failure.
func (f *Formatter) FormatChapter(ctx context.Context, text string) (string, error) {
	chunks, err := f.chunker.ChunkForLLM(text, f.maxChars, f.overlapChars)
	if err != nil {
		return "", fmt.Errorf("failed to chunk chapter for rewrite: %w", err)
	}

	if len(chunks) == 0 {
		return "", nil
	}

	f.log.Info("Rewriting chapter in %d chunks (max %d chars, overlap %d)",
		len(chunks), f.maxChars, f.overlapChars)

	rewritten := make([]string, 0, len(chunks))

	for index, chunk := range chunks {
		cleaned, rewriteErr := f.rewriteWithRetry(ctx, chunk)
		if rewriteErr != nil {
			return "", fmt.Errorf(
				"failed to rewrite chunk %d/%d: %w",
				index+1, len(chunks), rewriteErr,
			)
		}

		rewritten = append(rewritten, cleaned)
		f.log.Info("Rewrote chunk %d/%d", index+1, len(chunks))
	}

	return f.chunker.Reassemble(rewritten, true), nil
}

func (f *Formatter) rewriteWithRetry(ctx context.Context, chunk string) (string, error) {
	var lastErr error

	attempts := f.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		cleaned, err := f.rewriter.Rewrite(ctx, chunk)
		if err == nil {
			return cleaned, nil
		}

		lastErr = err
		f.log.Warn("Rewrite attempt %d/%d failed: %v", attempt, attempts, err)

		if ctx.Err() != nil {
			break
		}
	}

	return "", lastErr
}
