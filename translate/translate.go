package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/themonkai/scripture-rag/common/httpx"
	"github.com/themonkai/scripture-rag/config"
)

// Translator renders an answer into the secondary display language.
// Callers treat failures as "translation unavailable", never as fatal.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// HTTPTranslator posts to a LibreTranslate-style endpoint:
// request {"q":"...","source":"auto","target":"hi"},
// response {"translatedText":"..."}.
type HTTPTranslator struct {
	Endpoint   string
	APIKey     string
	TargetLang string
	Client     *httpx.Client
}

func NewHTTPTranslator(cfg config.TranslationConfig, client *httpx.Client) *HTTPTranslator {
	if client == nil {
		client = httpx.NewFromConfig(nil)
	}
	target := cfg.TargetLang
	if target == "" {
		target = "hi"
	}
	return &HTTPTranslator{
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		TargetLang: target,
		Client:     client,
	}
}

func (t *HTTPTranslator) Translate(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}
	if t.Endpoint == "" {
		return "", fmt.Errorf("translation endpoint not configured")
	}
	body, err := json.Marshal(map[string]string{
		"q":      text,
		"source": "auto",
		"target": t.TargetLang,
	})
	if err != nil {
		return "", fmt.Errorf("marshal translation request failed, err: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build translation request failed, err: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed, err: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("translation server returned status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read translation response failed, err: %w", err)
	}
	translated := gjson.GetBytes(raw, "translatedText").String()
	if translated == "" {
		return "", fmt.Errorf("translation response missing translatedText")
	}
	return translated, nil
}
