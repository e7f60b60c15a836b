package transcribe

import (
	"context"
	"fmt"
	"os"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/themonkai/scripture-rag/config"
)

// Provider turns a recorded audio file into query text.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// NewTranscriptionProvider builds a provider from configuration.
func NewTranscriptionProvider(cfg config.TranscriptionConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "groq":
		return newWhisperProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s", cfg.Provider)
	}
}

// whisperProvider calls an OpenAI-compatible Whisper endpoint.
type whisperProvider struct {
	client openai.Client
	model  string
}

func newWhisperProvider(cfg config.TranscriptionConfig) *whisperProvider {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &whisperProvider{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (p *whisperProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file failed, err: %w", err)
	}
	defer f.Close()
	resp, err := p.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(p.model),
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed, err: %w", err)
	}
	return resp.Text, nil
}
