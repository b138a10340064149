// Package chunker splits raw text into bounded, overlapping segments for
// embedding. Splitting is layered: paragraph boundaries are preferred, then
// sentence, word, and finally raw character boundaries, so that chunks stay
// under the size target while keeping semantic units intact.
package chunker

import "strings"

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1200
	// DefaultOverlap is the number of characters shared between
	// consecutive chunks.
	DefaultOverlap = 200
)

// defaultSeparators are tried in order; the empty separator is a hard
// character split and always matches.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter is a deterministic, stateless text splitter. The zero value is
// not usable; construct with New.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// New creates a Splitter with the given chunk size and overlap.
// Non-positive values fall back to the defaults.
func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split breaks text into chunks of at most the configured size. Empty or
// whitespace-only input yields nil; input shorter than the chunk size
// yields exactly one trimmed chunk. No empty chunks are emitted.
func (s *Splitter) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) <= s.chunkSize {
		return []string{trimmed}
	}
	return s.split(trimmed, s.separators)
}

// split recursively partitions text using the first separator that occurs
// in it, descending to finer separators for pieces that are still too big.
func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var remaining []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			remaining = separators[i+1:]
			break
		}
	}

	var parts []string
	if sep == "" {
		parts = splitRunes(text, s.chunkSize)
	} else {
		parts = strings.Split(text, sep)
	}

	var chunks []string
	var small []string
	for _, part := range parts {
		if len(part) <= s.chunkSize {
			small = append(small, part)
			continue
		}
		chunks = append(chunks, s.merge(small, sep)...)
		small = nil
		if len(remaining) > 0 {
			chunks = append(chunks, s.split(part, remaining)...)
		} else {
			chunks = append(chunks, part)
		}
	}
	chunks = append(chunks, s.merge(small, sep)...)
	return chunks
}

// merge greedily packs adjacent pieces into chunks up to the size target,
// carrying roughly overlap characters from the tail of one chunk into the
// head of the next.
func (s *Splitter) merge(pieces []string, sep string) []string {
	if len(pieces) == 0 {
		return nil
	}
	sepLen := len(sep)

	var chunks []string
	var window []string
	total := 0
	for _, piece := range pieces {
		extra := len(piece)
		if len(window) > 0 {
			extra += sepLen
		}
		if total+extra > s.chunkSize && len(window) > 0 {
			if chunk := strings.TrimSpace(strings.Join(window, sep)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			// Slide the window forward until the retained tail fits
			// the overlap budget and leaves room for the next piece.
			for len(window) > 0 && (total > s.overlap || total+extra > s.chunkSize) {
				total -= len(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += len(piece)
		if len(window) > 1 {
			total += sepLen
		}
	}
	if chunk := strings.TrimSpace(strings.Join(window, sep)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitRunes hard-splits text into rune groups of at most size characters.
func splitRunes(text string, size int) []string {
	runes := []rune(text)
	var parts []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
