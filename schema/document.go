package schema

import "time"

// Metadata keys attached to corpus chunks at ingestion time.
const (
	MetaBookName    = "book_name"
	MetaChapter     = "chapter"
	MetaSection     = "section"
	MetaVerseNumber = "verse_number"
	MetaChunkIndex  = "chunk_index"
)

// Document is one immutable corpus chunk together with its embedding vector.
type Document struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Vector    []float32              `json:"vector,omitempty"`
	CreatedAt time.Time              `json:"created_at,omitempty"`
}

// MetaString returns a string metadata value, or "" when absent.
func (d Document) MetaString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	if s, ok := d.Metadata[key].(string); ok {
		return s
	}
	return ""
}

// SearchResult pairs a document with a score. After the vector stage the
// score is an approximate similarity; after reranking it is the
// cross-encoder relevance score. Scores are only comparable within one query.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// SearchOptions carries per-search knobs for a vector store.
type SearchOptions struct {
	TopK      int
	Threshold float64
}

// Stats describes a vector store collection.
type Stats struct {
	Count          int64  `json:"count"`
	CollectionName string `json:"collection_name"`
}

// CloneResults deep-copies a result slice so ranked evidence never aliases
// store-owned documents.
func CloneResults(results []SearchResult) []SearchResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]SearchResult, len(results))
	for i, res := range results {
		out[i].Score = res.Score
		out[i].Document = cloneDocument(res.Document)
	}
	return out
}

func cloneDocument(doc Document) Document {
	cloned := doc
	if doc.Metadata != nil {
		cloned.Metadata = make(map[string]interface{}, len(doc.Metadata))
		for k, v := range doc.Metadata {
			cloned.Metadata[k] = v
		}
	}
	if doc.Vector != nil {
		cloned.Vector = make([]float32, len(doc.Vector))
		copy(cloned.Vector, doc.Vector)
	}
	return cloned
}
