// Package splitter divides extracted document text into bounded, overlapping
// segments suitable for embedding and retrieval.
package splitter

import (
	"errors"
	"strings"
)

// ErrEmptyDocument is returned when the input text is empty or whitespace
// only. Ingestion of a document that yields no segments must fail loudly
// rather than silently storing nothing.
var ErrEmptyDocument = errors.New("splitter: document text is empty")

const (
	// DefaultMaxSegmentSize is the default segment bound in characters.
	DefaultMaxSegmentSize = 500

	// DefaultMaxOverlap is the default overlap between consecutive
	// segments in characters.
	DefaultMaxOverlap = 50
)

// Segment is a bounded chunk of a source document. Segments are immutable
// once produced.
type Segment struct {
	// Text is the segment content, at most MaxSegmentSize characters.
	Text string

	// SourceOffset is the rune offset of the segment start in the
	// original text.
	SourceOffset int

	// OverlapWithPrevious is the number of leading characters shared with
	// the previous segment's tail (0 for the first segment).
	OverlapWithPrevious int
}

// Splitter breaks text recursively at the largest available structural
// boundary (paragraph, then line, then sentence, then word) before falling
// back to a hard cut. Splitting is deterministic for a given text and
// configuration.
type Splitter struct {
	maxSegmentSize int
	maxOverlap     int
}

// separators in decreasing structural significance. A hard cut applies when
// none occurs inside the segment window.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// New creates a Splitter. Non-positive arguments fall back to the defaults;
// the overlap is clamped below the segment size so progress is guaranteed.
func New(maxSegmentSize, maxOverlap int) *Splitter {
	if maxSegmentSize <= 0 {
		maxSegmentSize = DefaultMaxSegmentSize
	}
	if maxOverlap < 0 {
		maxOverlap = DefaultMaxOverlap
	}
	if maxOverlap >= maxSegmentSize {
		maxOverlap = maxSegmentSize / 2
	}
	return &Splitter{maxSegmentSize: maxSegmentSize, maxOverlap: maxOverlap}
}

// Split divides text into ordered segments of at most maxSegmentSize
// characters, consecutive segments sharing exactly maxOverlap characters of
// trailing/leading text. Empty or whitespace-only input returns
// ErrEmptyDocument.
func (s *Splitter) Split(text string) ([]Segment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	runes := []rune(text)
	var segments []Segment

	start := 0
	for {
		remaining := len(runes) - start
		if remaining <= s.maxSegmentSize {
			segments = append(segments, s.segment(runes, start, len(runes), len(segments) > 0))
			break
		}

		end := s.cutPoint(runes, start)
		segments = append(segments, s.segment(runes, start, end, len(segments) > 0))

		next := end - s.maxOverlap
		if next <= start {
			// Overlap would swallow the whole segment; step past it.
			next = end
		}
		start = next
	}

	return segments, nil
}

// cutPoint finds the end of the segment starting at start: the last
// structural boundary inside the window, or a hard cut at the size bound.
func (s *Splitter) cutPoint(runes []rune, start int) int {
	limit := start + s.maxSegmentSize
	window := string(runes[start:limit])

	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx > 0 {
			// Cut after the separator so the boundary text stays with
			// the earlier segment.
			return start + len([]rune(window[:idx+len(sep)]))
		}
	}
	return limit
}

func (s *Splitter) segment(runes []rune, start, end int, hasPrevious bool) Segment {
	overlap := 0
	if hasPrevious {
		overlap = s.maxOverlap
		if overlap > end-start {
			overlap = end - start
		}
	}
	return Segment{
		Text:                string(runes[start:end]),
		SourceOffset:        start,
		OverlapWithPrevious: overlap,
	}
}
