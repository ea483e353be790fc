package segmenter

import (
	"strings"
	"unicode"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
)

// Segmenter splits page text into overlapping windows measured in runes.
type Segmenter struct {
	chunkSize int
	overlap   int
}

type Option func(*Segmenter)

func WithChunkSize(size int) Option {
	return func(s *Segmenter) {
		s.chunkSize = size
	}
}

func WithOverlap(overlap int) Option {
	return func(s *Segmenter) {
		s.overlap = overlap
	}
}

func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		chunkSize: config.DefaultChunkSize,
		overlap:   config.DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Segmenter) ChunkSize() int { return s.chunkSize }
func (s *Segmenter) Overlap() int   { return s.overlap }

func (s *Segmenter) Segment(text string) ([]string, error) {
	return Segment(text, s.chunkSize, s.overlap)
}

// Segment walks text in windows of maxSize runes. A window that does not reach
// the end is cut after the last break rune when that rune sits past half the
// window; the next window starts overlap runes before the cut.
func Segment(text string, maxSize int, overlap int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ragErrors.Newf(ragErrors.ErrInvalidInput, "segment", "text is empty")
	}
	if maxSize <= 0 || overlap < 0 || overlap >= maxSize {
		return nil, ragErrors.Newf(ragErrors.ErrInvalidInput, "segment",
			"need 0 <= overlap < max size, got max=%d overlap=%d", maxSize, overlap)
	}

	runes := []rune(text)
	n := len(runes)
	var chunks []string

	for start := 0; start < n; {
		end := start + maxSize
		if end >= n {
			end = n
		} else if split := lastBreak(runes[start:end]); float64(split) > float64(maxSize)*0.5 {
			end = start + split + 1
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == n {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks, nil
}

// lastBreak returns the index of the last sentence terminator, newline or space, or -1.
func lastBreak(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if isBreak(window[i]) {
			return i
		}
	}
	return -1
}

func isBreak(r rune) bool {
	switch r {
	case '。', '.', '!', '?', '！', '？':
		return true
	}
	// newlines and every unicode space, including the ideographic space
	return unicode.IsSpace(r)
}
