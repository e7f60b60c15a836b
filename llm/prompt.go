package llm

import (
	"fmt"
	"strings"

	"github.com/themonkai/scripture-rag/schema"
)

// promptTemplates keys the answer prompt by presentation mode. %s slots:
// evidence block, history block, query.
var promptTemplates = map[schema.Mode]string{
	schema.ModeBeginner: `You are The Monk AI, a helpful guide to Hindu philosophy for beginners.
Use the following context from Hindu scriptures to answer the user's question.
Your answer must be clear, simple, and directly based on the provided context.
Explain any complex spiritual terms for a beginner.
Always cite the sources you used from the context.
Context from Hindu scriptures:
---
%s
---
%sUser Question: %s
Please provide a clear, direct answer. Be concise and educational for someone new to these concepts.`,
	schema.ModeExpert: `You are The Monk AI, an advanced scholarly assistant for Hindu philosophy.
Use the provided context from Hindu scriptures to give a detailed and nuanced answer to the user's question.
Your analysis should be in-depth, referencing multiple sources from the context where applicable and discussing philosophical perspectives.
Use appropriate Sanskrit terminology.
Always cite the specific sources used from the context.
Context from Hindu scriptures:
---
%s
---
%sUser Question: %s
Provide a comprehensive and scholarly response based on the context.`,
}

// BuildAnswerPrompt renders the mode-specific prompt. Evidence appears in
// rank order with its source identifiers; history holds the most recent
// prior turns, oldest first.
func BuildAnswerPrompt(query string, evidence []schema.SearchResult, mode schema.Mode, history []schema.Exchange) string {
	tmpl, ok := promptTemplates[mode]
	if !ok {
		tmpl = promptTemplates[schema.ModeBeginner]
	}
	return fmt.Sprintf(tmpl, evidenceBlock(evidence), historyBlock(history), query)
}

func evidenceBlock(evidence []schema.SearchResult) string {
	parts := make([]string, 0, len(evidence))
	for _, ev := range evidence {
		book := ev.Document.MetaString(schema.MetaBookName)
		if book == "" {
			book = "Unknown"
		}
		source := fmt.Sprintf("Source: %s - %s %s",
			book,
			ev.Document.MetaString(schema.MetaChapter),
			ev.Document.MetaString(schema.MetaSection))
		parts = append(parts, source+"\nContent: "+ev.Document.Content)
	}
	return strings.Join(parts, "\n\n")
}

func historyBlock(history []schema.Exchange) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Earlier in this conversation:\n")
	for _, ex := range history {
		b.WriteString("Q: ")
		b.WriteString(ex.Query)
		b.WriteString("\nA: ")
		b.WriteString(ex.Answer)
		b.WriteString("\n")
	}
	b.WriteString("---\n")
	return b.String()
}
