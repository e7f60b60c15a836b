package glossary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/themonkai/scripture-rag/common/httpx"
	"github.com/themonkai/scripture-rag/common/logger"
	"github.com/themonkai/scripture-rag/config"
	"github.com/themonkai/scripture-rag/llm"
	"github.com/themonkai/scripture-rag/schema"
)

// Explainer extracts unfamiliar spiritual terms from an answer and
// resolves a short definition for each. Used in beginner mode only.
type Explainer interface {
	ExplainKeywords(ctx context.Context, text string) ([]schema.KeywordExplanation, error)
}

// Service extracts terms with the generation model and looks up each
// definition against a dictionary endpoint:
// GET {endpoint}?q={term} -> {"definition":"..."}.
type Service struct {
	LLM      llm.Provider
	Endpoint string
	APIKey   string
	MaxTerms int
	Client   *httpx.Client
}

func NewService(cfg config.GlossaryConfig, provider llm.Provider, client *httpx.Client) *Service {
	if client == nil {
		client = httpx.NewFromConfig(nil)
	}
	maxTerms := cfg.MaxTerms
	if maxTerms <= 0 {
		maxTerms = 3
	}
	return &Service{
		LLM:      provider,
		Endpoint: cfg.Endpoint,
		APIKey:   cfg.APIKey,
		MaxTerms: maxTerms,
		Client:   client,
	}
}

const extractPromptFmt = `From the following text, identify a maximum of %d key spiritual or Sanskrit terms that a beginner might not understand. List only the terms, separated by commas.

Text: "%s"

Terms:`

func (s *Service) ExplainKeywords(ctx context.Context, text string) ([]schema.KeywordExplanation, error) {
	if s.LLM == nil || s.Endpoint == "" {
		return nil, nil
	}
	raw, err := s.LLM.GenerateCompletion(ctx, fmt.Sprintf(extractPromptFmt, s.MaxTerms, text))
	if err != nil {
		return nil, fmt.Errorf("keyword extraction failed, err: %w", err)
	}
	terms := parseTerms(raw, s.MaxTerms)
	if len(terms) == 0 {
		return nil, nil
	}
	out := make([]schema.KeywordExplanation, 0, len(terms))
	for _, term := range terms {
		def, err := s.lookup(ctx, term)
		if err != nil {
			// one bad term never sinks the rest
			logger.Warnf("glossary: lookup for %q failed: %v", term, err)
			continue
		}
		out = append(out, schema.KeywordExplanation{Term: term, Definition: def})
	}
	return out, nil
}

func (s *Service) lookup(ctx context.Context, term string) (string, error) {
	u := s.Endpoint + "?q=" + url.QueryEscape(term)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("dictionary returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	def := gjson.GetBytes(body, "definition").String()
	if def == "" {
		return "", fmt.Errorf("no definition for %q", term)
	}
	return def, nil
}

// parseTerms splits a comma-separated model reply, title-cases each term,
// dedupes, and caps the count.
func parseTerms(raw string, max int) []string {
	seen := make(map[string]bool)
	terms := make([]string, 0, max)
	for _, part := range strings.Split(raw, ",") {
		term := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `"'.`))
		if term == "" {
			continue
		}
		term = titleCase(term)
		if seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
		if len(terms) == max {
			break
		}
	}
	return terms
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
