package schema

import (
	"strings"
	"time"
)

// Mode selects the prompt register and which enrichment steps run.
type Mode string

const (
	ModeBeginner Mode = "beginner"
	ModeExpert   Mode = "expert"
)

// ParseMode normalizes a user-supplied mode string, defaulting to beginner.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModeExpert):
		return ModeExpert
	default:
		return ModeBeginner
	}
}

// Citation points at the source of one piece of evidence shown to the
// generation model.
type Citation struct {
	Book           string `json:"book"`
	Chapter        string `json:"chapter,omitempty"`
	Section        string `json:"section,omitempty"`
	Verse          string `json:"verse,omitempty"`
	ContentPreview string `json:"content_preview,omitempty"`
}

// KeywordExplanation resolves one domain term found in an answer.
type KeywordExplanation struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// EvidenceRef is the per-result source/score pair surfaced in responses.
type EvidenceRef struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Exchange is one query/answer turn plus enrichment payloads. Each
// enrichment field is independently nullable; a failed step leaves its field
// empty without invalidating the exchange.
type Exchange struct {
	Query               string               `json:"query"`
	Answer              string               `json:"answer"`
	Mode                Mode                 `json:"mode"`
	Evidence            []EvidenceRef        `json:"evidence"`
	Citations           []Citation           `json:"citations"`
	TranslatedAnswer    *string              `json:"translated_answer"`
	KeywordExplanations []KeywordExplanation `json:"keyword_explanations,omitempty"`
	BookRecommendations []string             `json:"book_recommendations"`
	CreatedAt           time.Time            `json:"created_at"`
}
