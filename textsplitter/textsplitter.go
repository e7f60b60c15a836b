package textsplitter

import (
	"fmt"

	"github.com/themonkai/scripture-rag/config"
)

// Splitter cuts a source text into overlapping chunks sized for
// embedding.
type Splitter interface {
	SplitText(text string) ([]string, error)
}

// NewSplitter builds a splitter from configuration.
func NewSplitter(cfg config.SplitterConfig) (Splitter, error) {
	size := cfg.ChunkSize
	if size <= 0 {
		size = 700
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}
	switch cfg.Provider {
	case "", "recursive":
		return &RecursiveCharacterSplitter{ChunkSize: size, ChunkOverlap: overlap}, nil
	case "token":
		return newTokenSplitter(size, overlap, cfg.Encoding)
	default:
		return nil, fmt.Errorf("unsupported splitter provider: %s", cfg.Provider)
	}
}
