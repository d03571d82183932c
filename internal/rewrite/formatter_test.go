package rewrite_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/narration-service/internal/chunker"
	"github.com/book-expert/narration-service/internal/rewrite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockRewrite = errors.New("mock rewrite error")

// mockRewriter is a mock implementation of the core.Rewriter interface.
type mockRewriter struct {
	failuresRemaining int
	calls             []string
}

func (m *mockRewriter) Rewrite(_ context.Context, text string) (string, error) {
	m.calls = append(m.calls, text)

	if m.failuresRemaining > 0 {
		m.failuresRemaining--

		return "", errMockRewrite
	}

	return "CLEAN " + text, nil
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test-log.log")
	require.NoError(t, err)

	return log
}

func TestFormatter_FormatChapter_SingleChunk(t *testing.T) {
	t.Parallel()

	rewriter := &mockRewriter{failuresRemaining: 0, calls: nil}
	formatter := rewrite.NewFormatter(
		chunker.New(), rewriter, 100, 20, 3, newTestLogger(t),
	)

	result, err := formatter.FormatChapter(context.Background(), "A short chapter.")
	require.NoError(t, err)
	assert.Equal(t, "CLEAN A short chapter.", result)
	assert.Len(t, rewriter.calls, 1)
}

func TestFormatter_FormatChapter_EmptyChapter(t *testing.T) {
	t.Parallel()

	rewriter := &mockRewriter{failuresRemaining: 0, calls: nil}
	formatter := rewrite.NewFormatter(
		chunker.New(), rewriter, 100, 20, 3, newTestLogger(t),
	)

	result, err := formatter.FormatChapter(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Empty(t, rewriter.calls)
}

func TestFormatter_FormatChapter_MultipleChunksInOrder(t *testing.T) {
	t.Parallel()

	var builder strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&builder, "Sentence number %d. ", i)
	}

	rewriter := &mockRewriter{failuresRemaining: 0, calls: nil}
	formatter := rewrite.NewFormatter(
		chunker.New(), rewriter, 100, 20, 3, newTestLogger(t),
	)

	result, err := formatter.FormatChapter(context.Background(), builder.String())
	require.NoError(t, err)
	require.Greater(t, len(rewriter.calls), 1)

	// Chunks must be submitted in source order.
	assert.Contains(t, rewriter.calls[0], "Sentence number 0.")
	assert.Contains(t, rewriter.calls[len(rewriter.calls)-1], "Sentence number 19.")
	assert.Contains(t, result, "Sentence number 19.")
}

func TestFormatter_FormatChapter_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	rewriter := &mockRewriter{failuresRemaining: 2, calls: nil}
	formatter := rewrite.NewFormatter(
		chunker.New(), rewriter, 100, 20, 3, newTestLogger(t),
	)

	result, err := formatter.FormatChapter(context.Background(), "A short chapter.")
	require.NoError(t, err)
	assert.Equal(t, "CLEAN A short chapter.", result)
	assert.Len(t, rewriter.calls, 3)
}

func TestFormatter_FormatChapter_FailsAfterRetries(t *testing.T) {
	t.Parallel()

	rewriter := &mockRewriter{failuresRemaining: 10, calls: nil}
	formatter := rewrite.NewFormatter(
		chunker.New(), rewriter, 100, 20, 3, newTestLogger(t),
	)

	_, err := formatter.FormatChapter(context.Background(), "A short chapter.")
	require.ErrorIs(t, err, errMockRewrite)
	assert.Contains(t, err.Error(), "chunk 1/1")
	assert.Len(t, rewriter.calls, 3)
}

func TestFormatter_FormatChapter_InvalidLimits(t *testing.T) {
	t.Parallel()

	rewriter := &mockRewriter{failuresRemaining: 0, calls: nil}
	formatter := rewrite.NewFormatter(
		chunker.New(), rewriter, 100, 100, 3, newTestLogger(t),
	)

	_, err := formatter.FormatChapter(context.Background(), "A short chapter.")
	require.ErrorIs(t, err, chunker.ErrOverlapTooLarge)
	assert.Empty(t, rewriter.calls)
}
