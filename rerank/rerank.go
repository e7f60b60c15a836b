package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/themonkai/scripture-rag/common/httpx"
	"github.com/themonkai/scripture-rag/config"
)

// Scorer assigns a relevance score to each candidate text for a query.
// Scores are returned in input order; higher means more relevant.
type Scorer interface {
	ScoreBatch(ctx context.Context, query string, texts []string) ([]float64, error)
}

// ModelScorer calls a cross-encoder reranking service (e.g. BGE-reranker,
// Cohere rerank). The whole candidate set goes out in one request.
type ModelScorer struct {
	Endpoint string
	Model    string
	APIKey   string
	Client   *httpx.Client
}

func NewModelScorer(cfg config.RerankConfig, client *httpx.Client) *ModelScorer {
	if client == nil {
		client = httpx.NewFromConfig(nil)
	}
	return &ModelScorer{
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		Client:   client,
	}
}

type scoreReq struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model,omitempty"`
	TopN      int      `json:"top_n,omitempty"`
}

type scoreResp struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (m *ModelScorer) ScoreBatch(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if m.Endpoint == "" {
		return nil, fmt.Errorf("rerank endpoint not configured")
	}
	body := scoreReq{Query: query, Documents: texts, Model: m.Model, TopN: len(texts)}
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request failed, err: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build rerank request failed, err: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.APIKey)
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed, err: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rerank server returned status %d", resp.StatusCode)
	}
	var sr scoreResp
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode rerank response failed, err: %w", err)
	}
	if len(sr.Results) == 0 {
		return nil, fmt.Errorf("rerank response empty")
	}
	scores := make([]float64, len(texts))
	seen := 0
	for _, r := range sr.Results {
		if r.Index >= 0 && r.Index < len(texts) {
			scores[r.Index] = r.RelevanceScore
			seen++
		}
	}
	if seen == 0 {
		return nil, fmt.Errorf("rerank response carried no usable indices")
	}
	return scores, nil
}
