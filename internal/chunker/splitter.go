// Package chunker splits long-form text into bounded-size chunks for LLM
// cleanup and TTS synthesis, and reassembles processed chunks back into
// continuous text.
//
// All operations are pure string transformations: the types in this package
// hold no mutable state and are safe to share across concurrent callers.
package chunker

import (
	"regexp"
	"strings"
)

// Regex patterns for boundary detection.
//
// A sentence boundary is one or more terminal punctuation marks, optionally
// followed by a single closing quote or parenthesis, followed by whitespace.
// A paragraph boundary is a run of whitespace containing at least two
// newlines (one or more blank lines).
const (
	sentenceBoundaryPattern  = `[.!?]+["'”’)]?\s+`
	paragraphBoundaryPattern = `\n\s*\n`
)

// Splitter provides regex-driven sentence and paragraph splitting.
//
// The heuristics are deliberately approximate: abbreviations such as "Mr."
// and decimal numbers are treated as sentence ends. Callers that need a
// smarter tokenizer can provide their own SentenceSplitter implementation.
type Splitter struct {
	sentenceBoundary  *regexp.Regexp
	paragraphBoundary *regexp.Regexp
}

// SentenceSplitter is the capability the chunking algorithms depend on.
// Splitter is the default implementation.
type SentenceSplitter interface {
	SplitSentences(text string) []string
	SplitParagraphs(text string) []string
}

// NewSplitter creates a splitter with precompiled boundary patterns.
func NewSplitter() *Splitter {
	return &Splitter{
		sentenceBoundary:  regexp.MustCompile(sentenceBoundaryPattern),
		paragraphBoundary: regexp.MustCompile(paragraphBoundaryPattern),
	}
}

// SplitSentences splits text into sentences at terminal punctuation
// boundaries. Each returned sentence is trimmed and keeps its terminal
// punctuation. A trailing fragment without terminal punctuation is returned
// as a final sentence. Text with no boundaries at all yields a single
// sentence equal to the trimmed input.
func (s *Splitter) SplitSentences(text string) []string {
	var sentences []string

	previousEnd := 0

	for _, match := range s.sentenceBoundary.FindAllStringIndex(text, -1) {
		sentence := strings.TrimSpace(text[previousEnd:match[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}

		previousEnd = match[1]
	}

	tail := strings.TrimSpace(text[previousEnd:])
	if tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}

// SplitParagraphs splits text on runs of one or more blank lines. Each
// paragraph is trimmed; segments that are empty after trimming are dropped.
func (s *Splitter) SplitParagraphs(text string) []string {
	var paragraphs []string

	for _, segment := range s.paragraphBoundary.Split(text, -1) {
		paragraph := strings.TrimSpace(segment)
		if paragraph != "" {
			paragraphs = append(paragraphs, paragraph)
		}
	}

	return paragraphs
}
