package tts_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/narration-service/internal/chunker"
	"github.com/book-expert/narration-service/internal/core"
	"github.com/book-expert/narration-service/internal/tts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockSynthesize = errors.New("mock synthesize error")

// mockSynthesizer is a mock implementation of the core.Synthesizer
// interface.
type mockSynthesizer struct {
	mutex      sync.Mutex
	callCount  int
	shouldFail bool
}

func (m *mockSynthesizer) Synthesize(
	_ context.Context,
	text string,
	_ core.VoiceParams,
) ([]byte, error) {
	m.mutex.Lock()
	m.callCount++
	m.mutex.Unlock()

	if m.shouldFail {
		return nil, errMockSynthesize
	}

	return []byte("AUDIO[" + text + "]"), nil
}

func newEngineTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test-log.log")
	require.NoError(t, err)

	return log
}

func TestEngine_Narrate_OrderPreserved(t *testing.T) {
	t.Parallel()

	var builder strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&builder, "This is sentence %d. ", i)
	}

	synthesizer := &mockSynthesizer{mutex: sync.Mutex{}, callCount: 0, shouldFail: false}
	engine := tts.NewEngine(
		chunker.New(), synthesizer, 60, 4, newEngineTestLogger(t),
	)

	results, err := engine.Narrate(context.Background(), builder.String(), core.VoiceParams{
		Voice:       "narrator",
		Language:    "en",
		Temperature: 0.9,
	})
	require.NoError(t, err)
	require.Greater(t, len(results), 1)
	assert.Equal(t, synthesizer.callCount, len(results))

	// Audio buffers must follow source chunk order even with parallel
	// synthesis.
	position := -1

	for index, audioData := range results {
		require.NotEmptyf(t, audioData, "chunk %d produced no audio", index)

		text := string(audioData)
		marker := strings.Index(text, "sentence ")
		require.GreaterOrEqual(t, marker, 0)

		var first int
		_, scanErr := fmt.Sscanf(text[marker:], "sentence %d.", &first)
		require.NoError(t, scanErr)
		assert.Greater(t, first, position)

		position = first
	}
}

func TestEngine_Narrate_ShortText(t *testing.T) {
	t.Parallel()

	synthesizer := &mockSynthesizer{mutex: sync.Mutex{}, callCount: 0, shouldFail: false}
	engine := tts.NewEngine(
		chunker.New(), synthesizer, 5000, 2, newEngineTestLogger(t),
	)

	results, err := engine.Narrate(context.Background(), "One short chapter.", core.VoiceParams{
		Voice:       "",
		Language:    "",
		Temperature: 0,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []byte("AUDIO[One short chapter.]"), results[0])
}

func TestEngine_Narrate_EmptyText(t *testing.T) {
	t.Parallel()

	synthesizer := &mockSynthesizer{mutex: sync.Mutex{}, callCount: 0, shouldFail: false}
	engine := tts.NewEngine(
		chunker.New(), synthesizer, 5000, 2, newEngineTestLogger(t),
	)

	results, err := engine.Narrate(context.Background(), "", core.VoiceParams{
		Voice:       "",
		Language:    "",
		Temperature: 0,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, synthesizer.callCount)
}

func TestEngine_Narrate_SynthesisFailure(t *testing.T) {
	t.Parallel()

	synthesizer := &mockSynthesizer{mutex: sync.Mutex{}, callCount: 0, shouldFail: true}
	engine := tts.NewEngine(
		chunker.New(), synthesizer, 5000, 2, newEngineTestLogger(t),
	)

	_, err := engine.Narrate(context.Background(), "One short chapter.", core.VoiceParams{
		Voice:       "",
		Language:    "",
		Temperature: 0,
	})
	require.ErrorIs(t, err, errMockSynthesize)
}

func TestEngine_Narrate_InvalidLimit(t *testing.T) {
	t.Parallel()

	synthesizer := &mockSynthesizer{mutex: sync.Mutex{}, callCount: 0, shouldFail: false}
	engine := tts.NewEngine(
		chunker.New(), synthesizer, 0, 2, newEngineTestLogger(t),
	)

	_, err := engine.Narrate(context.Background(), "One short chapter.", core.VoiceParams{
		Voice:       "",
		Language:    "",
		Temperature: 0,
	})
	require.ErrorIs(t, err, chunker.ErrMaxCharsNotPositive)
}
