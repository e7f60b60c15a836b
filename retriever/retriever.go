package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/themonkai/scripture-rag/common/logger"
	"github.com/themonkai/scripture-rag/embedding"
	"github.com/themonkai/scripture-rag/rerank"
	"github.com/themonkai/scripture-rag/schema"
	"github.com/themonkai/scripture-rag/vectordb"
)

// Stage runs the retrieval half of a query: embed, over-fetch candidates
// from the vector store, rerank with a cross-encoder, truncate.
type Stage struct {
	Embed       embedding.Provider
	Store       vectordb.VectorStoreProvider
	Scorer      rerank.Scorer
	KCandidates int
	KFinal      int
	Threshold   float64
}

// Retrieve returns at most KFinal evidence chunks for the query, best
// first. An empty result with a nil error means the corpus had nothing
// relevant; callers take the fallback path.
//
// Reranking is best-effort: if the scorer fails, the approximate
// vector-store order stands.
func (s *Stage) Retrieve(ctx context.Context, query string) ([]schema.SearchResult, error) {
	vec, err := s.Embed.GetEmbedding(ctx, query)
	if err != nil {
		return nil, schema.NewPipelineError(schema.ErrKindEmbedding, "retrieve", err)
	}
	candidates, err := s.Store.SearchDocs(ctx, vec, &schema.SearchOptions{
		TopK:      s.KCandidates,
		Threshold: s.Threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed, err: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	ranked := s.rerankCandidates(ctx, query, candidates)
	if s.KFinal > 0 && len(ranked) > s.KFinal {
		ranked = ranked[:s.KFinal]
	}
	return ranked, nil
}

func (s *Stage) rerankCandidates(ctx context.Context, query string, in []schema.SearchResult) []schema.SearchResult {
	if s.Scorer == nil {
		return in
	}
	texts := make([]string, len(in))
	for i, c := range in {
		texts[i] = c.Document.Content
	}
	scores, err := s.Scorer.ScoreBatch(ctx, query, texts)
	if err != nil || len(scores) != len(in) {
		logger.Warnf("retriever: rerank unavailable, keeping vector order: %v", err)
		return in
	}
	out := make([]schema.SearchResult, len(in))
	for i, c := range in {
		c.Score = scores[i]
		out[i] = c
	}
	// Stable: equal rerank scores keep their approximate rank.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
