package textsplitter

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// TokenSplitter cuts text into windows of ChunkSize tokens with
// ChunkOverlap tokens of overlap, using a tiktoken encoding.
type TokenSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	enc          *tiktoken.Tiktoken
}

func newTokenSplitter(size, overlap int, encoding string) (*TokenSplitter, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s failed, err: %w", encoding, err)
	}
	return &TokenSplitter{ChunkSize: size, ChunkOverlap: overlap, enc: enc}, nil
}

func (t *TokenSplitter) SplitText(text string) ([]string, error) {
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil, nil
	}
	step := t.ChunkSize - t.ChunkOverlap
	if step <= 0 {
		step = t.ChunkSize
	}
	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + t.ChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, t.enc.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}
	return chunks, nil
}
