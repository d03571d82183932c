package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// Default chunk sizes. The LLM limit keeps a chunk comfortably inside a
// small local model's context window; the TTS limit matches the synthesis
// engine's per-request input cap.
const (
	DefaultLLMMaxChars     = 3800
	DefaultLLMOverlapChars = 200
	DefaultTTSMaxChars     = 5000
)

// Separators used when accumulating units into a chunk.
const (
	paragraphSeparator = "\n\n"
	sentenceSeparator  = " "
)

// Overlap detection window for reassembly. Candidate overlap lengths are
// probed from maxOverlapProbe down to just above minOverlapProbe in steps of
// overlapProbeStep; overlaps shorter than minOverlapProbe are never detected.
const (
	maxOverlapProbe  = 200
	minOverlapProbe  = 10
	overlapProbeStep = 10
)

// Static validation errors.
var (
	// ErrMaxCharsNotPositive indicates a zero or negative chunk size limit.
	ErrMaxCharsNotPositive = errors.New("max chars must be positive")
	// ErrOverlapNegative indicates a negative overlap size.
	ErrOverlapNegative = errors.New("overlap chars must be non-negative")
	// ErrOverlapTooLarge indicates an overlap that would leave the
	// force-split stride at zero or below.
	ErrOverlapTooLarge = errors.New("overlap chars must be smaller than max chars")
)

// Chunker splits text into bounded-size chunks and reassembles processed
// chunks. It holds no mutable state and may be shared freely.
type Chunker struct {
	splitter SentenceSplitter
}

// New creates a chunker backed by the default regex splitter.
func New() *Chunker {
	return &Chunker{
		splitter: NewSplitter(),
	}
}

// NewWithSplitter creates a chunker backed by a caller-provided splitter.
func NewWithSplitter(splitter SentenceSplitter) *Chunker {
	return &Chunker{
		splitter: splitter,
	}
}

// ChunkForLLM splits text into chunks of at most maxChars characters for an
// LLM rewrite pass. Consecutive chunks share an overlap of up to
// overlapChars characters taken from the tail of the previous chunk, so the
// model keeps enough preceding context across a cut.
//
// Paragraphs are accumulated first; a paragraph that alone exceeds maxChars
// is split into sentences, and a sentence that alone exceeds maxChars is
// force-split into fixed-size slices with character-level overlap.
func (c *Chunker) ChunkForLLM(text string, maxChars, overlapChars int) ([]string, error) {
	err := validateLLMLimits(maxChars, overlapChars)
	if err != nil {
		return nil, err
	}

	if text == "" {
		return nil, nil
	}

	if len(text) <= maxChars {
		return []string{text}, nil
	}

	var (
		chunks  []string
		current string
	)

	for _, paragraph := range c.splitter.SplitParagraphs(text) {
		if len(paragraph) > maxChars {
			chunks, current = c.accumulateSentences(
				chunks, current, paragraph, maxChars, overlapChars,
			)

			continue
		}

		chunks, current = accumulateUnit(
			chunks, current, paragraph, paragraphSeparator, maxChars, overlapChars,
		)
	}

	return flushChunk(chunks, current), nil
}

// ChunkForTTS splits text into chunks of at most maxChars characters for
// speech synthesis. Sentences are grouped up to the limit with no overlap:
// audio chunks are synthesized independently and never merged back into
// text, so the split favors natural prosody over context preservation.
func (c *Chunker) ChunkForTTS(text string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrMaxCharsNotPositive, maxChars)
	}

	if text == "" {
		return nil, nil
	}

	if len(text) <= maxChars {
		return []string{text}, nil
	}

	var (
		chunks  []string
		current string
	)

	for _, sentence := range c.splitter.SplitSentences(text) {
		if len(sentence) > maxChars {
			// Flush the pending buffer before force-splitting so the
			// oversized sentence's slices stay contiguous.
			chunks = flushChunk(chunks, current)
			current = ""

			chunks = append(chunks, forceSplit(sentence, maxChars, maxChars)...)

			continue
		}

		if len(current)+len(sentence)+len(sentenceSeparator) > maxChars {
			chunks = flushChunk(chunks, current)
			current = sentence

			continue
		}

		if current != "" {
			current += sentenceSeparator
		}

		current += sentence
	}

	return flushChunk(chunks, current), nil
}

// Reassemble joins processed chunks back into a single text.
//
// Without overlap removal the chunks are joined with newlines. With overlap
// removal, consecutive chunks are merged by probing decreasing candidate
// overlap lengths for an exact duplicated boundary region; when none is
// found the next chunk is appended after a newline. The probe is a
// best-effort heuristic, not an exact inverse of ChunkForLLM.
func (c *Chunker) Reassemble(chunks []string, removeOverlap bool) string {
	if len(chunks) == 0 {
		return ""
	}

	if len(chunks) == 1 {
		return chunks[0]
	}

	if !removeOverlap {
		return strings.Join(chunks, "\n")
	}

	result := chunks[0]
	for _, next := range chunks[1:] {
		result = mergeWithOverlap(result, next)
	}

	return result
}

// accumulateSentences applies the accumulate/flush/overlap-seed logic at
// sentence granularity for a paragraph too large to keep whole.
func (c *Chunker) accumulateSentences(
	chunks []string,
	current, paragraph string,
	maxChars, overlapChars int,
) ([]string, string) {
	for _, sentence := range c.splitter.SplitSentences(paragraph) {
		if len(sentence) > maxChars {
			chunks = append(
				chunks,
				forceSplit(sentence, maxChars, maxChars-overlapChars)...,
			)

			continue
		}

		chunks, current = accumulateUnit(
			chunks, current, sentence, sentenceSeparator, maxChars, overlapChars,
		)
	}

	return chunks, current
}

// accumulateUnit appends one paragraph or sentence to the current buffer.
// When the unit does not fit, the buffer is flushed as a chunk and the next
// buffer is seeded with the tail of the flushed one.
func accumulateUnit(
	chunks []string,
	current, unit, separator string,
	maxChars, overlapChars int,
) ([]string, string) {
	if len(current)+len(unit)+len(separator) > maxChars {
		if current == "" {
			return chunks, unit
		}

		chunks = append(chunks, strings.TrimSpace(current))

		return chunks, tailChars(current, overlapChars) + separator + unit
	}

	if current != "" {
		current += separator
	}

	return chunks, current + unit
}

// flushChunk appends the trimmed buffer as a chunk if it is non-empty.
func flushChunk(chunks []string, current string) []string {
	trimmed := strings.TrimSpace(current)
	if trimmed != "" {
		chunks = append(chunks, trimmed)
	}

	return chunks
}

// forceSplit slices an oversized sentence into pieces of at most size
// characters, advancing by stride. A stride smaller than size yields
// deliberate character-level overlap between consecutive slices.
func forceSplit(sentence string, size, stride int) []string {
	var pieces []string

	runes := []rune(sentence)
	for start := 0; start < len(runes); start += stride {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			pieces = append(pieces, piece)
		}
	}

	return pieces
}

// mergeWithOverlap appends next to result, stripping a duplicated boundary
// region when one is found within the probe window.
func mergeWithOverlap(result, next string) string {
	tailRunes := []rune(tailChars(result, maxOverlapProbe))
	nextRunes := []rune(next)

	limit := len(tailRunes)
	if len(nextRunes) < limit {
		limit = len(nextRunes)
	}

	for length := limit; length > minOverlapProbe; length -= overlapProbeStep {
		suffix := strings.TrimSpace(string(tailRunes[len(tailRunes)-length:]))
		prefix := strings.TrimSpace(string(nextRunes[:length]))

		if suffix == prefix {
			return result + string(nextRunes[length:])
		}
	}

	return result + "\n" + next
}

// tailChars returns the last count characters of text, or all of text when
// it is shorter than count.
func tailChars(text string, count int) string {
	runes := []rune(text)
	if len(runes) <= count {
		return text
	}

	return string(runes[len(runes)-count:])
}

func validateLLMLimits(maxChars, overlapChars int) error {
	if maxChars <= 0 {
		return fmt.Errorf("%w: got %d", ErrMaxCharsNotPositive, maxChars)
	}

	if overlapChars < 0 {
		return fmt.Errorf("%w: got %d", ErrOverlapNegative, overlapChars)
	}

	if overlapChars >= maxChars {
		return fmt.Errorf(
			"%w: overlap %d, max %d",
			ErrOverlapTooLarge, overlapChars, maxChars,
		)
	}

	return nil
}
