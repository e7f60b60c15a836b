package vectordb

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/themonkai/scripture-rag/schema"
)

// MemoryProvider is an in-process store used for tests and small corpora.
// Scores are cosine similarity regardless of the configured metric.
type MemoryProvider struct {
	mu         sync.RWMutex
	docs       map[string]schema.Document
	order      []string // insertion order, for stable listing
	collection string
}

func NewMemoryProvider(collection string) *MemoryProvider {
	return &MemoryProvider{
		docs:       make(map[string]schema.Document),
		collection: collection,
	}
}

func (m *MemoryProvider) AddDocs(_ context.Context, docs []schema.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document missing id")
		}
		if _, exists := m.docs[doc.ID]; !exists {
			m.order = append(m.order, doc.ID)
		}
		m.docs[doc.ID] = doc
	}
	return nil
}

func (m *MemoryProvider) SearchDocs(_ context.Context, vector []float32, opts *schema.SearchOptions) ([]schema.SearchResult, error) {
	topK := 10
	var threshold float64
	if opts != nil {
		if opts.TopK > 0 {
			topK = opts.TopK
		}
		threshold = opts.Threshold
	}
	m.mu.RLock()
	results := make([]schema.SearchResult, 0, len(m.docs))
	for _, id := range m.order {
		doc := m.docs[id]
		score := cosineSimilarity(vector, doc.Vector)
		if threshold > 0 && score < threshold {
			continue
		}
		results = append(results, schema.SearchResult{Document: doc, Score: score})
	}
	m.mu.RUnlock()
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return schema.CloneResults(results), nil
}

func (m *MemoryProvider) ListDocs(_ context.Context, limit int) ([]schema.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.order)
	if limit > 0 && limit < n {
		n = limit
	}
	docs := make([]schema.Document, 0, n)
	for _, id := range m.order[:n] {
		docs = append(docs, m.docs[id])
	}
	return docs, nil
}

func (m *MemoryProvider) DeleteDocs(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.docs[id]; !ok {
			continue
		}
		delete(m.docs, id)
		for i, oid := range m.order {
			if oid == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (m *MemoryProvider) Stats(_ context.Context) (schema.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return schema.Stats{Count: int64(len(m.docs)), CollectionName: m.collection}, nil
}

func (m *MemoryProvider) Close() error { return nil }

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
