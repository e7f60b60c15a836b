package composer

import (
	"context"
	"strings"
	"time"

	"github.com/themonkai/scripture-rag/common/logger"
	"github.com/themonkai/scripture-rag/glossary"
	"github.com/themonkai/scripture-rag/llm"
	"github.com/themonkai/scripture-rag/schema"
	"github.com/themonkai/scripture-rag/translate"
)

const (
	citationPreviewLen = 100
	maxRecommendations = 3
)

// Composer turns ranked evidence into a grounded, enriched exchange.
// Generation failures are fatal; every enrichment step degrades its own
// field and nothing else.
type Composer struct {
	LLM            llm.Provider
	Translator     translate.Translator
	Glossary       glossary.Explainer
	FallbackAnswer string
	// TranslationOn and GlossaryOn gate the optional enrichment steps.
	TranslationOn bool
	GlossaryOn    bool
}

// Compose builds the exchange for one turn. Empty evidence takes the
// fallback branch: the configured answer with no citations and no
// generation call.
func (c *Composer) Compose(ctx context.Context, query string, evidence []schema.SearchResult, mode schema.Mode, history []schema.Exchange) (*schema.Exchange, error) {
	ex := &schema.Exchange{
		Query:     query,
		Mode:      mode,
		CreatedAt: time.Now().UTC(),
		Evidence:  []schema.EvidenceRef{},
		Citations: []schema.Citation{},
	}
	if len(evidence) == 0 {
		ex.Answer = c.FallbackAnswer
		ex.BookRecommendations = []string{}
		c.translateAnswer(ctx, ex)
		return ex, nil
	}

	prompt := llm.BuildAnswerPrompt(query, evidence, mode, history)
	answer, err := c.LLM.GenerateCompletion(ctx, prompt)
	if err != nil {
		return nil, schema.NewPipelineError(schema.ErrKindGeneration, "compose", err)
	}
	ex.Answer = answer
	ex.Evidence = evidenceRefs(evidence)
	ex.Citations = extractCitations(evidence)
	ex.BookRecommendations = bookRecommendations(evidence)

	if c.GlossaryOn && mode == schema.ModeBeginner && c.Glossary != nil {
		explanations, err := c.Glossary.ExplainKeywords(ctx, answer)
		if err != nil {
			logger.Warnf("composer: keyword explanation failed: %v", err)
		} else {
			ex.KeywordExplanations = explanations
		}
	}
	c.translateAnswer(ctx, ex)
	return ex, nil
}

func (c *Composer) translateAnswer(ctx context.Context, ex *schema.Exchange) {
	if !c.TranslationOn || c.Translator == nil {
		return
	}
	translated, err := c.Translator.Translate(ctx, ex.Answer)
	if err != nil {
		logger.Warnf("composer: translation failed: %v", err)
		return
	}
	ex.TranslatedAnswer = &translated
}

// extractCitations derives citations from the evidence actually shown to
// the model, never from the model's own output.
func extractCitations(evidence []schema.SearchResult) []schema.Citation {
	citations := make([]schema.Citation, 0, len(evidence))
	for _, ev := range evidence {
		book := ev.Document.MetaString(schema.MetaBookName)
		if book == "" {
			book = "Unknown Source"
		}
		citations = append(citations, schema.Citation{
			Book:           book,
			Chapter:        ev.Document.MetaString(schema.MetaChapter),
			Section:        ev.Document.MetaString(schema.MetaSection),
			Verse:          ev.Document.MetaString(schema.MetaVerseNumber),
			ContentPreview: preview(ev.Document.Content),
		})
	}
	return citations
}

func evidenceRefs(evidence []schema.SearchResult) []schema.EvidenceRef {
	refs := make([]schema.EvidenceRef, 0, len(evidence))
	for _, ev := range evidence {
		parts := []string{}
		if book := ev.Document.MetaString(schema.MetaBookName); book != "" {
			parts = append(parts, book)
		}
		if ch := ev.Document.MetaString(schema.MetaChapter); ch != "" {
			parts = append(parts, ch)
		}
		if sec := ev.Document.MetaString(schema.MetaSection); sec != "" {
			parts = append(parts, sec)
		}
		source := strings.Join(parts, " ")
		if source == "" {
			source = ev.Document.ID
		}
		refs = append(refs, schema.EvidenceRef{Source: source, Score: ev.Score})
	}
	return refs
}

// bookRecommendations lists the distinct source books behind the evidence,
// in first-seen rank order.
func bookRecommendations(evidence []schema.SearchResult) []string {
	seen := make(map[string]bool)
	books := make([]string, 0, maxRecommendations)
	for _, ev := range evidence {
		book := ev.Document.MetaString(schema.MetaBookName)
		if book == "" || seen[book] {
			continue
		}
		seen[book] = true
		books = append(books, book)
		if len(books) == maxRecommendations {
			break
		}
	}
	return books
}

func preview(content string) string {
	if len(content) <= citationPreviewLen {
		return content
	}
	return content[:citationPreviewLen] + "..."
}
