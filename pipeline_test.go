package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themonkai/scripture-rag/composer"
	"github.com/themonkai/scripture-rag/retriever"
	"github.com/themonkai/scripture-rag/schema"
	"github.com/themonkai/scripture-rag/vectordb"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) GetEmbedding(context.Context, string) ([]float32, error) {
	return s.vec, s.err
}

func (s *stubEmbedder) GetEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, s.err
}

type stubLLM struct {
	answer string
	err    error
	delay  time.Duration
}

func (s *stubLLM) GenerateCompletion(ctx context.Context, _ string) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.answer, s.err
}

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(context.Context, string) (string, error) {
	return s.text, s.err
}

func seededPipeline(t *testing.T, llmErr error) (*Pipeline, *MemSessionStore) {
	t.Helper()
	store := vectordb.NewMemoryProvider("test")
	require.NoError(t, store.AddDocs(context.Background(), []schema.Document{
		{ID: "d1", Content: "The self is never born and never dies.", Vector: []float32{1, 0, 0},
			Metadata: map[string]interface{}{schema.MetaBookName: "Bhagavad Gita"}},
		{ID: "d2", Content: "As a man discards worn garments.", Vector: []float32{0.9, 0.1, 0},
			Metadata: map[string]interface{}{schema.MetaBookName: "Bhagavad Gita"}},
	}))
	sessions := NewMemSessionStore(0)
	return &Pipeline{
		Retriever: &retriever.Stage{
			Embed:       &stubEmbedder{vec: []float32{1, 0, 0}},
			Store:       store,
			KCandidates: 15,
			KFinal:      3,
		},
		Composer: &composer.Composer{
			LLM:            &stubLLM{answer: "The soul is eternal.", err: llmErr},
			FallbackAnswer: "Nothing found.",
		},
		Transcriber:  &stubTranscriber{text: "what is the soul"},
		Sessions:     sessions,
		HistoryTurns: 3,
	}, sessions
}

func TestQueryCreatesSessionOnFirstTurn(t *testing.T) {
	p, sessions := seededPipeline(t, nil)

	resp, err := p.Query(context.Background(), QueryRequest{UserID: "u1", Query: "what is the soul"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "The soul is eternal.", resp.Answer)
	assert.NotEmpty(t, resp.Citations)

	sess, err := sessions.Get(context.Background(), resp.SessionID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "what is the soul", sess.Title)
	require.Len(t, sess.Exchanges, 1)
	assert.Equal(t, "what is the soul", sess.Exchanges[0].Query)
}

func TestQueryAppendsToExistingSession(t *testing.T) {
	p, sessions := seededPipeline(t, nil)

	first, err := p.Query(context.Background(), QueryRequest{UserID: "u1", Query: "first question"})
	require.NoError(t, err)
	second, err := p.Query(context.Background(), QueryRequest{
		UserID: "u1", SessionID: first.SessionID, Query: "second question",
	})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	sess, err := sessions.Get(context.Background(), first.SessionID, "u1")
	require.NoError(t, err)
	assert.Len(t, sess.Exchanges, 2)
}

func TestQueryCrossUserSessionAborts(t *testing.T) {
	p, sessions := seededPipeline(t, nil)

	owner, err := p.Query(context.Background(), QueryRequest{UserID: "u1", Query: "owner question"})
	require.NoError(t, err)

	_, err = p.Query(context.Background(), QueryRequest{
		UserID: "intruder", SessionID: owner.SessionID, Query: "stolen question",
	})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrKindAuthorization))

	// target session untouched
	sess, err := sessions.Get(context.Background(), owner.SessionID, "u1")
	require.NoError(t, err)
	assert.Len(t, sess.Exchanges, 1)
}

func TestQueryGenerationFailureNoPersistence(t *testing.T) {
	p, sessions := seededPipeline(t, errors.New("model down"))

	_, err := p.Query(context.Background(), QueryRequest{UserID: "u1", Query: "q"})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrKindGeneration))

	list, err := sessions.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestQueryEmptyCorpusFallback(t *testing.T) {
	p, _ := seededPipeline(t, nil)
	p.Retriever.Store = vectordb.NewMemoryProvider("empty")

	resp, err := p.Query(context.Background(), QueryRequest{UserID: "u1", Query: "unanswerable"})
	require.NoError(t, err)
	assert.Equal(t, "Nothing found.", resp.Answer)
	assert.Empty(t, resp.Citations)
	assert.NotEmpty(t, resp.SessionID)
}

func TestQueryEmbeddingFailure(t *testing.T) {
	p, _ := seededPipeline(t, nil)
	p.Retriever.Embed = &stubEmbedder{err: errors.New("unreachable")}

	_, err := p.Query(context.Background(), QueryRequest{UserID: "u1", Query: "q"})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrKindEmbedding))
}

func TestQueryStageTimeout(t *testing.T) {
	p, sessions := seededPipeline(t, nil)
	p.StageTimeout = 20 * time.Millisecond
	p.Composer.LLM = &stubLLM{answer: "late", delay: 500 * time.Millisecond}

	_, err := p.Query(context.Background(), QueryRequest{UserID: "u1", Query: "q"})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrKindTimeout))

	list, err := sessions.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestVoiceQueryCleansUpAudio(t *testing.T) {
	p, _ := seededPipeline(t, nil)
	audio := filepath.Join(t.TempDir(), "query.wav")
	require.NoError(t, os.WriteFile(audio, []byte("riff"), 0o600))

	resp, err := p.VoiceQuery(context.Background(), VoiceQueryRequest{UserID: "u1", AudioPath: audio})
	require.NoError(t, err)
	assert.Equal(t, "what is the soul", resp.Query)
	_, statErr := os.Stat(audio)
	assert.True(t, os.IsNotExist(statErr))
}

func TestVoiceQueryCleansUpOnTranscriptionFailure(t *testing.T) {
	p, _ := seededPipeline(t, nil)
	p.Transcriber = &stubTranscriber{err: errors.New("whisper down")}
	audio := filepath.Join(t.TempDir(), "query.wav")
	require.NoError(t, os.WriteFile(audio, []byte("riff"), 0o600))

	_, err := p.VoiceQuery(context.Background(), VoiceQueryRequest{UserID: "u1", AudioPath: audio})
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrKindTranscription))
	_, statErr := os.Stat(audio)
	assert.True(t, os.IsNotExist(statErr))
}

func TestVoiceQueryEmptyTranscription(t *testing.T) {
	p, sessions := seededPipeline(t, nil)
	p.Transcriber = &stubTranscriber{text: "   \n"}
	audio := filepath.Join(t.TempDir(), "query.wav")
	require.NoError(t, os.WriteFile(audio, []byte("riff"), 0o600))

	resp, err := p.VoiceQuery(context.Background(), VoiceQueryRequest{UserID: "u1", AudioPath: audio})
	require.NoError(t, err)
	assert.Equal(t, EmptyTranscriptionAnswer, resp.Answer)

	list, err := sessions.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTitleFromQuery(t *testing.T) {
	assert.Equal(t, "short question", titleFromQuery("short question"))
	long := "this is a very long opening question that keeps going well past the title limit"
	title := titleFromQuery(long)
	assert.True(t, len(title) <= titleMaxLen+3)
	assert.Contains(t, title, "...")
	// never cuts mid-word
	assert.NotContains(t, title, "lim...")
}
