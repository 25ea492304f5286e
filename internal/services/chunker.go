package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
)

// TextChunker splits guidance documents into overlapping pieces sized for
// embedding.
type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// chunkAccumulator collects units into chunks of at most size runes, seeding
// each new chunk with the tail of the previous one.
type chunkAccumulator struct {
	size    int
	overlap int
	chunks  []string
	current strings.Builder
}

func (a *chunkAccumulator) add(unit, sep string) {
	if a.current.Len() > 0 && utf8.RuneCountInString(a.current.String())+len(sep)+utf8.RuneCountInString(unit) > a.size {
		a.flush(sep)
	}
	if a.current.Len() > 0 {
		a.current.WriteString(sep)
	}
	a.current.WriteString(unit)
}

func (a *chunkAccumulator) flush(sep string) {
	prev := a.current.String()
	a.chunks = append(a.chunks, prev)
	a.current.Reset()

	if tail := overlapTail(prev, a.overlap); tail != "" {
		a.current.WriteString(tail)
		a.current.WriteString(sep)
	}
}

func (a *chunkAccumulator) result() []string {
	if a.current.Len() > 0 {
		a.chunks = append(a.chunks, a.current.String())
	}
	return a.chunks
}

// ChunkText implements TextChunker. Paragraphs are kept whole when they fit;
// longer ones are split at sentence boundaries.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	acc := &chunkAccumulator{size: maxChunkSize, overlap: overlap}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChunkSize {
			acc.add(para, "\n\n")
			continue
		}

		for _, sentence := range splitIntoSentences(para) {
			acc.add(sentence, " ")
		}
	}

	return acc.result()
}

// splitIntoSentences splits after '.', '!' or '?' followed by whitespace,
// keeping the punctuation.
func splitIntoSentences(text string) []string {
	var result []string
	start := 0
	runes := []rune(text)

	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			result = append(result, s)
		}
		start = i + 1
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		result = append(result, s)
	}
	return result
}

// overlapTail returns up to n trailing runes of text, starting at a word
// boundary.
func overlapTail(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return strings.TrimSpace(text)
	}

	tail := runes[len(runes)-n:]
	for i, r := range tail {
		if unicode.IsSpace(r) {
			return strings.TrimSpace(string(tail[i:]))
		}
	}
	return strings.TrimSpace(string(tail))
}
