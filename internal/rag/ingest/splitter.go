package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
)

// separators ordered from the most to the least meaningful boundary; "" splits between characters
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter is a recursive character splitter. Lengths are counted in characters (runes).
// Every chunk is at most size characters long and consecutive chunks of one segment
// share up to overlap characters.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

func NewSplitter(size int, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Splitter{size: size, overlap: overlap, separators: defaultSeparators}, nil
}

// ChunkSegments splits every segment on its own so a chunk never spans two pages.
// ChunkIndex runs 0..N-1 across all segments in order.
func (s *Splitter) ChunkSegments(segments []commonModels.Segment) []commonModels.DocumentChunk {
	var chunks []commonModels.DocumentChunk
	for _, segment := range segments {
		for _, text := range s.SplitText(segment.Text) {
			chunks = append(chunks, commonModels.DocumentChunk{
				ChunkText:  text,
				ChunkIndex: len(chunks),
				PageNumber: segment.Metadata.Page,
				Metadata:   segment.Metadata,
			})
		}
	}
	return chunks
}

func (s *Splitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	var final []string

	separator := separators[len(separators)-1]
	var next []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	var small []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if runeLen(piece) < s.size {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			final = append(final, s.merge(small)...)
			small = nil
		}
		if len(next) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, next)...)
		}
	}
	if len(small) > 0 {
		final = append(final, s.merge(small)...)
	}
	return final
}

// merge packs pieces into windows of at most size characters. After a window is emitted,
// pieces are dropped from its front until what remains fits in the overlap.
func (s *Splitter) merge(pieces []string) []string {
	var docs []string
	var current []string
	total := 0

	for _, piece := range pieces {
		l := runeLen(piece)
		if total+l > s.size && len(current) > 0 {
			if doc := joinTrimmed(current); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.overlap || (total+l > s.size && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += l
	}

	if doc := joinTrimmed(current); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeepingSeparator keeps each separator at the start of the piece that follows it.
func splitKeepingSeparator(text string, separator string) []string {
	if separator == "" {
		pieces := make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, separator)
	pieces := make([]string, 0, len(parts))
	if parts[0] != "" {
		pieces = append(pieces, parts[0])
	}
	for _, p := range parts[1:] {
		pieces = append(pieces, separator+p)
	}
	return pieces
}

func joinTrimmed(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
