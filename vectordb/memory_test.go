package vectordb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themonkai/scripture-rag/schema"
)

func seedDocs() []schema.Document {
	return []schema.Document{
		{ID: "a", Content: "karma yoga chapter", Vector: []float32{1, 0, 0}},
		{ID: "b", Content: "bhakti yoga chapter", Vector: []float32{0, 1, 0}},
		{ID: "c", Content: "jnana yoga chapter", Vector: []float32{0.9, 0.1, 0}},
	}
}

func TestMemoryProviderSearchOrder(t *testing.T) {
	m := NewMemoryProvider("test")
	require.NoError(t, m.AddDocs(context.Background(), seedDocs()))

	results, err := m.SearchDocs(context.Background(), []float32{1, 0, 0}, &schema.SearchOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.Equal(t, "c", results[1].Document.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryProviderSmallCorpus(t *testing.T) {
	m := NewMemoryProvider("test")
	require.NoError(t, m.AddDocs(context.Background(), seedDocs()[:1]))

	results, err := m.SearchDocs(context.Background(), []float32{1, 0, 0}, &schema.SearchOptions{TopK: 5})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestMemoryProviderThreshold(t *testing.T) {
	m := NewMemoryProvider("test")
	require.NoError(t, m.AddDocs(context.Background(), seedDocs()))

	results, err := m.SearchDocs(context.Background(), []float32{1, 0, 0}, &schema.SearchOptions{TopK: 5, Threshold: 0.5})
	require.NoError(t, err)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.5)
	}
	assert.Len(t, results, 2) // "b" is orthogonal to the query
}

func TestMemoryProviderDeleteAndStats(t *testing.T) {
	m := NewMemoryProvider("scriptures")
	require.NoError(t, m.AddDocs(context.Background(), seedDocs()))
	require.NoError(t, m.DeleteDocs(context.Background(), []string{"b", "missing"}))

	stats, err := m.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Count)
	assert.Equal(t, "scriptures", stats.CollectionName)

	docs, err := m.ListDocs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "c", docs[1].ID)
}

func TestMemoryProviderUpsert(t *testing.T) {
	m := NewMemoryProvider("test")
	require.NoError(t, m.AddDocs(context.Background(), seedDocs()))
	require.NoError(t, m.AddDocs(context.Background(), []schema.Document{
		{ID: "a", Content: "revised", Vector: []float32{1, 0, 0}},
	}))

	stats, err := m.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)

	docs, err := m.ListDocs(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "revised", docs[0].Content)
}
