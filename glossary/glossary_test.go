package glossary

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themonkai/scripture-rag/config"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) GenerateCompletion(context.Context, string) (string, error) {
	return f.reply, f.err
}

func TestExplainKeywords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		term := r.URL.Query().Get("q")
		if term == "Moksha" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"definition":"definition of %s"}`, term)
	}))
	defer srv.Close()

	svc := NewService(config.GlossaryConfig{Endpoint: srv.URL, MaxTerms: 3},
		&fakeLLM{reply: "dharma, moksha, karma"}, nil)

	out, err := svc.ExplainKeywords(context.Background(), "some answer text")
	require.NoError(t, err)
	// the failed lookup is dropped, the rest survive
	require.Len(t, out, 2)
	assert.Equal(t, "Dharma", out[0].Term)
	assert.Equal(t, "definition of Dharma", out[0].Definition)
	assert.Equal(t, "Karma", out[1].Term)
}

func TestExplainKeywordsExtractionError(t *testing.T) {
	svc := NewService(config.GlossaryConfig{Endpoint: "http://localhost:1"},
		&fakeLLM{err: fmt.Errorf("model down")}, nil)
	_, err := svc.ExplainKeywords(context.Background(), "text")
	assert.Error(t, err)
}

func TestExplainKeywordsNoEndpoint(t *testing.T) {
	svc := NewService(config.GlossaryConfig{}, &fakeLLM{reply: "dharma"}, nil)
	out, err := svc.ExplainKeywords(context.Background(), "text")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestParseTerms(t *testing.T) {
	terms := parseTerms(` dharma, "Karma",  DHARMA, moksha, atman `, 3)
	assert.Equal(t, []string{"Dharma", "Karma", "Moksha"}, terms)
}

func TestParseTermsEmpty(t *testing.T) {
	assert.Empty(t, parseTerms("  ,  , ", 3))
}
