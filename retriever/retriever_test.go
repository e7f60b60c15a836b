package retriever

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themonkai/scripture-rag/schema"
	"github.com/themonkai/scripture-rag/vectordb"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) GetEmbedding(context.Context, string) ([]float32, error) {
	return f.vec, f.err
}

func (f *fakeEmbedder) GetEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, f.err
}

type fakeScorer struct {
	scores map[string]float64
	err    error
}

func (f *fakeScorer) ScoreBatch(_ context.Context, _ string, texts []string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = f.scores[t]
	}
	return out, nil
}

func seededStore(t *testing.T, n int) *vectordb.MemoryProvider {
	t.Helper()
	store := vectordb.NewMemoryProvider("test")
	docs := make([]schema.Document, n)
	for i := range docs {
		docs[i] = schema.Document{
			ID:      fmt.Sprintf("doc-%d", i),
			Content: fmt.Sprintf("chunk %d", i),
			// descending similarity to the unit query vector
			Vector: []float32{1, float32(i) * 0.2, 0},
		}
	}
	require.NoError(t, store.AddDocs(context.Background(), docs))
	return store
}

func TestRetrieveRerankReordersCandidates(t *testing.T) {
	store := seededStore(t, 5)
	stage := &Stage{
		Embed: &fakeEmbedder{vec: []float32{1, 0, 0}},
		Store: store,
		Scorer: &fakeScorer{scores: map[string]float64{
			"chunk 0": 0.1,
			"chunk 1": 0.2,
			"chunk 2": 0.95,
			"chunk 3": 0.3,
			"chunk 4": 0.9,
		}},
		KCandidates: 5,
		KFinal:      3,
	}

	out, err := stage.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "doc-2", out[0].Document.ID)
	assert.Equal(t, "doc-4", out[1].Document.ID)
	assert.Equal(t, "doc-3", out[2].Document.ID)
	assert.Equal(t, 0.95, out[0].Score)
}

func TestRetrieveTieKeepsApproximateRank(t *testing.T) {
	store := seededStore(t, 3)
	stage := &Stage{
		Embed: &fakeEmbedder{vec: []float32{1, 0, 0}},
		Store: store,
		Scorer: &fakeScorer{scores: map[string]float64{
			"chunk 0": 0.5, "chunk 1": 0.5, "chunk 2": 0.5,
		}},
		KCandidates: 3,
		KFinal:      3,
	}

	out, err := stage.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, out, 3)
	// identical rerank scores: approximate (vector) order stands
	assert.Equal(t, "doc-0", out[0].Document.ID)
	assert.Equal(t, "doc-1", out[1].Document.ID)
	assert.Equal(t, "doc-2", out[2].Document.ID)
}

func TestRetrieveScorerFailureKeepsVectorOrder(t *testing.T) {
	store := seededStore(t, 5)
	stage := &Stage{
		Embed:       &fakeEmbedder{vec: []float32{1, 0, 0}},
		Store:       store,
		Scorer:      &fakeScorer{err: errors.New("rerank down")},
		KCandidates: 5,
		KFinal:      3,
	}

	out, err := stage.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "doc-0", out[0].Document.ID)
	assert.Equal(t, "doc-1", out[1].Document.ID)
	assert.Equal(t, "doc-2", out[2].Document.ID)
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	stage := &Stage{
		Embed:       &fakeEmbedder{vec: []float32{1, 0, 0}},
		Store:       vectordb.NewMemoryProvider("empty"),
		KCandidates: 15,
		KFinal:      3,
	}

	out, err := stage.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRetrieveSmallCorpus(t *testing.T) {
	store := seededStore(t, 2)
	stage := &Stage{
		Embed:       &fakeEmbedder{vec: []float32{1, 0, 0}},
		Store:       store,
		KCandidates: 15,
		KFinal:      3,
	}

	out, err := stage.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestRetrieveEmbeddingError(t *testing.T) {
	stage := &Stage{
		Embed:       &fakeEmbedder{err: errors.New("provider unreachable")},
		Store:       vectordb.NewMemoryProvider("test"),
		KCandidates: 15,
		KFinal:      3,
	}

	_, err := stage.Retrieve(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrKindEmbedding))
}
