package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themonkai/scripture-rag/config"
)

func TestHTTPTranslator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hi", req["target"])
		assert.Equal(t, "auto", req["source"])
		_, _ = w.Write([]byte(`{"translatedText":"आत्मा शाश्वत है"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranslator(config.TranslationConfig{Endpoint: srv.URL, TargetLang: "hi"}, nil)
	out, err := tr.Translate(context.Background(), "The soul is eternal")
	require.NoError(t, err)
	assert.Equal(t, "आत्मा शाश्वत है", out)
}

func TestHTTPTranslatorEmptyInput(t *testing.T) {
	tr := NewHTTPTranslator(config.TranslationConfig{Endpoint: "http://localhost:1"}, nil)
	out, err := tr.Translate(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestHTTPTranslatorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := NewHTTPTranslator(config.TranslationConfig{Endpoint: srv.URL}, nil)
	_, err := tr.Translate(context.Background(), "text")
	assert.Error(t, err)
}

func TestHTTPTranslatorMissingField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"detail":"unexpected"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranslator(config.TranslationConfig{Endpoint: srv.URL}, nil)
	_, err := tr.Translate(context.Background(), "text")
	assert.Error(t, err)
}
