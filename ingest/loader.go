package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/themonkai/scripture-rag/common/logger"
	"github.com/themonkai/scripture-rag/embedding"
	"github.com/themonkai/scripture-rag/schema"
	"github.com/themonkai/scripture-rag/textsplitter"
	"github.com/themonkai/scripture-rag/vectordb"
)

// Source describes one scripture text to load.
type Source struct {
	Text     string
	BookName string
	Chapter  string
	Section  string
}

// Loader splits scripture text, embeds the chunks in batches, and writes
// them to the vector store.
type Loader struct {
	Splitter  textsplitter.Splitter
	Embed     embedding.Provider
	Store     vectordb.VectorStoreProvider
	BatchSize int
}

// LoadText ingests one source and returns the stored chunk ids.
func (l *Loader) LoadText(ctx context.Context, src Source) ([]string, error) {
	if src.Text == "" {
		return nil, fmt.Errorf("empty source text")
	}
	chunks, err := l.Splitter.SplitText(src.Text)
	if err != nil {
		return nil, fmt.Errorf("split text failed, err: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	batch := l.BatchSize
	if batch <= 0 {
		batch = 100
	}
	ids := make([]string, 0, len(chunks))
	for start := 0; start < len(chunks); start += batch {
		end := start + batch
		if end > len(chunks) {
			end = len(chunks)
		}
		part := chunks[start:end]
		vectors, err := l.Embed.GetEmbeddings(ctx, part)
		if err != nil {
			return nil, schema.NewPipelineError(schema.ErrKindEmbedding, "ingest", err)
		}
		docs := make([]schema.Document, len(part))
		for i, content := range part {
			id := uuid.New().String()
			docs[i] = schema.Document{
				ID:      id,
				Content: content,
				Metadata: map[string]interface{}{
					schema.MetaBookName:   src.BookName,
					schema.MetaChapter:    src.Chapter,
					schema.MetaSection:    src.Section,
					schema.MetaChunkIndex: start + i,
				},
				Vector:    vectors[i],
				CreatedAt: time.Now().UTC(),
			}
			ids = append(ids, id)
		}
		if err := l.Store.AddDocs(ctx, docs); err != nil {
			return nil, fmt.Errorf("store chunks failed, err: %w", err)
		}
	}
	logger.Infof("ingest: loaded %d chunks from %s", len(ids), src.BookName)
	return ids, nil
}
