package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themonkai/scripture-rag/common/httpx"
	"github.com/themonkai/scripture-rag/config"
)

func newTestScorer(url string) *ModelScorer {
	return NewModelScorer(config.RerankConfig{
		Endpoint: url,
		Model:    "bge-reranker-large",
		APIKey:   "test-key",
	}, httpx.NewFromConfig(nil))
}

func TestModelScorerScoresInInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req scoreReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is dharma", req.Query)
		require.Len(t, req.Documents, 3)
		// respond out of order on purpose
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"index": 2, "relevance_score": 0.9},
				{"index": 0, "relevance_score": 0.4},
				{"index": 1, "relevance_score": 0.7},
			},
		})
	}))
	defer srv.Close()

	scores, err := newTestScorer(srv.URL).ScoreBatch(context.Background(),
		"what is dharma", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.4, 0.7, 0.9}, scores)
}

func TestModelScorerServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestScorer(srv.URL).ScoreBatch(context.Background(), "q", []string{"a"})
	assert.Error(t, err)
}

func TestModelScorerEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	_, err := newTestScorer(srv.URL).ScoreBatch(context.Background(), "q", []string{"a"})
	assert.Error(t, err)
}

func TestModelScorerNoEndpoint(t *testing.T) {
	s := NewModelScorer(config.RerankConfig{}, nil)
	_, err := s.ScoreBatch(context.Background(), "q", []string{"a"})
	assert.Error(t, err)
}

func TestModelScorerNoTexts(t *testing.T) {
	s := NewModelScorer(config.RerankConfig{Endpoint: "http://localhost:1"}, nil)
	scores, err := s.ScoreBatch(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Nil(t, scores)
}
