package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themonkai/scripture-rag/schema"
	"github.com/themonkai/scripture-rag/textsplitter"
	"github.com/themonkai/scripture-rag/vectordb"
)

type batchEmbedder struct {
	calls [][]string
	err   error
}

func (b *batchEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	vecs, err := b.GetEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (b *batchEmbedder) GetEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.calls = append(b.calls, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func TestLoadText(t *testing.T) {
	store := vectordb.NewMemoryProvider("test")
	loader := &Loader{
		Splitter:  &textsplitter.RecursiveCharacterSplitter{ChunkSize: 60, ChunkOverlap: 0},
		Embed:     &batchEmbedder{},
		Store:     store,
		BatchSize: 2,
	}

	ids, err := loader.LoadText(context.Background(), Source{
		Text:     strings.Repeat("Verse about the eternal self. ", 10),
		BookName: "Bhagavad Gita",
		Chapter:  "2",
	})
	require.NoError(t, err)
	require.NotEmpty(t, ids)

	docs, err := store.ListDocs(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, docs, len(ids))
	assert.Equal(t, "Bhagavad Gita", docs[0].MetaString(schema.MetaBookName))
	assert.Equal(t, "2", docs[0].MetaString(schema.MetaChapter))
	assert.Equal(t, 0, docs[0].Metadata[schema.MetaChunkIndex])
	assert.NotEmpty(t, docs[0].Vector)
}

func TestLoadTextBatching(t *testing.T) {
	emb := &batchEmbedder{}
	loader := &Loader{
		Splitter:  &textsplitter.RecursiveCharacterSplitter{ChunkSize: 40, ChunkOverlap: 0},
		Embed:     emb,
		Store:     vectordb.NewMemoryProvider("test"),
		BatchSize: 2,
	}

	_, err := loader.LoadText(context.Background(), Source{
		Text:     "One verse here.\n\nAnother verse there.\n\nThird verse now.\n\nFourth verse too.\n\nFifth verse ends.",
		BookName: "Upanishads",
	})
	require.NoError(t, err)
	require.NotEmpty(t, emb.calls)
	for _, call := range emb.calls {
		assert.LessOrEqual(t, len(call), 2)
	}
}

func TestLoadTextEmbeddingError(t *testing.T) {
	loader := &Loader{
		Splitter: &textsplitter.RecursiveCharacterSplitter{ChunkSize: 100, ChunkOverlap: 0},
		Embed:    &batchEmbedder{err: errors.New("provider down")},
		Store:    vectordb.NewMemoryProvider("test"),
	}
	_, err := loader.LoadText(context.Background(), Source{Text: "some verse", BookName: "Gita"})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrKindEmbedding))
}

func TestLoadTextEmpty(t *testing.T) {
	loader := &Loader{}
	_, err := loader.LoadText(context.Background(), Source{})
	assert.Error(t, err)
}
