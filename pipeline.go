package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/themonkai/scripture-rag/common/logger"
	"github.com/themonkai/scripture-rag/composer"
	"github.com/themonkai/scripture-rag/retriever"
	"github.com/themonkai/scripture-rag/schema"
	"github.com/themonkai/scripture-rag/transcribe"
)

// State names the phase a query is in. Transitions run strictly forward;
// any failure moves to StateErrored and nothing is persisted.
type State string

const (
	StateReceived   State = "received"
	StateRetrieving State = "retrieving"
	StateComposing  State = "composing"
	StatePersisting State = "persisting"
	StateDone       State = "done"
	StateErrored    State = "errored"
)

// EmptyTranscriptionAnswer is returned when a voice recording contains no
// recognizable speech. The turn is not persisted.
const EmptyTranscriptionAnswer = "I could not hear anything in the recording. Please try asking your question again."

// QueryRequest is one text turn.
type QueryRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	Query     string `json:"query"`
	Mode      string `json:"mode,omitempty"`
}

// VoiceQueryRequest is one voice turn; AudioPath names a temporary file
// that the pipeline deletes after transcription.
type VoiceQueryRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	AudioPath string `json:"audio_path"`
	Mode      string `json:"mode,omitempty"`
}

// QueryResponse is the enriched answer surface.
type QueryResponse struct {
	SessionID           string                      `json:"session_id"`
	Query               string                      `json:"query"`
	Answer              string                      `json:"answer"`
	Mode                schema.Mode                 `json:"mode"`
	Evidence            []schema.EvidenceRef        `json:"evidence"`
	Citations           []schema.Citation           `json:"citations"`
	TranslatedAnswer    *string                     `json:"translated_answer"`
	KeywordExplanations []schema.KeywordExplanation `json:"keyword_explanations,omitempty"`
	BookRecommendations []string                    `json:"book_recommendations"`
}

// Pipeline drives one query through retrieval, composition, and
// persistence.
type Pipeline struct {
	Retriever    *retriever.Stage
	Composer     *composer.Composer
	Transcriber  transcribe.Provider
	Sessions     SessionStore
	StageTimeout time.Duration
	HistoryTurns int
}

// Query answers one text turn and attaches the exchange to the user's
// session, creating the session on the first turn.
func (p *Pipeline) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("empty query")
	}
	mode := schema.ParseMode(req.Mode)
	state := StateReceived
	fail := func(next error) error {
		logger.Warnf("pipeline: %s failed for user %s: %v", state, req.UserID, next)
		state = StateErrored
		return next
	}

	// Resolve the session before any model call so that cross-user access
	// dies before we spend tokens or persist anything.
	var history []schema.Exchange
	if req.SessionID != "" {
		sess, err := p.Sessions.Get(ctx, req.SessionID, req.UserID)
		if err != nil {
			return nil, fail(err)
		}
		history = tailExchanges(sess.Exchanges, p.HistoryTurns)
	}

	state = StateRetrieving
	evidence, err := p.retrieveStage(ctx, req.Query)
	if err != nil {
		return nil, fail(err)
	}

	state = StateComposing
	ex, err := p.composeStage(ctx, req.Query, evidence, mode, history)
	if err != nil {
		return nil, fail(err)
	}

	state = StatePersisting
	sessionID, err := p.persistStage(ctx, req.UserID, req.SessionID, *ex)
	if err != nil {
		return nil, fail(err)
	}

	state = StateDone
	logger.Debugf("pipeline: %s for user %s session %s", state, req.UserID, sessionID)
	return responseFrom(sessionID, ex), nil
}

// VoiceQuery transcribes the recording and runs the text path. The audio
// file is removed regardless of outcome.
func (p *Pipeline) VoiceQuery(ctx context.Context, req VoiceQueryRequest) (*QueryResponse, error) {
	defer func() {
		if err := os.Remove(req.AudioPath); err != nil && !os.IsNotExist(err) {
			logger.Warnf("pipeline: remove audio file %s failed: %v", req.AudioPath, err)
		}
	}()
	if p.Transcriber == nil {
		return nil, schema.NewPipelineError(schema.ErrKindTranscription, "transcribe",
			fmt.Errorf("transcription not configured"))
	}
	stageCtx, cancel := p.stageContext(ctx)
	text, err := p.Transcriber.Transcribe(stageCtx, req.AudioPath)
	cancel()
	if err != nil {
		return nil, p.wrapTimeout(schema.NewPipelineError(schema.ErrKindTranscription, "transcribe", err), "transcribe")
	}
	if isBlank(text) {
		return &QueryResponse{
			SessionID: req.SessionID,
			Answer:    EmptyTranscriptionAnswer,
			Mode:      schema.ParseMode(req.Mode),
			Evidence:  []schema.EvidenceRef{},
			Citations: []schema.Citation{},
		}, nil
	}
	return p.Query(ctx, QueryRequest{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Query:     text,
		Mode:      req.Mode,
	})
}

func (p *Pipeline) retrieveStage(ctx context.Context, query string) ([]schema.SearchResult, error) {
	stageCtx, cancel := p.stageContext(ctx)
	defer cancel()
	evidence, err := p.Retriever.Retrieve(stageCtx, query)
	if err != nil {
		return nil, p.wrapTimeout(err, "retrieve")
	}
	return evidence, nil
}

func (p *Pipeline) composeStage(ctx context.Context, query string, evidence []schema.SearchResult, mode schema.Mode, history []schema.Exchange) (*schema.Exchange, error) {
	stageCtx, cancel := p.stageContext(ctx)
	defer cancel()
	ex, err := p.Composer.Compose(stageCtx, query, evidence, mode, history)
	if err != nil {
		return nil, p.wrapTimeout(err, "compose")
	}
	return ex, nil
}

// persistStage attaches the exchange, creating the session first when
// this is the opening turn. A failed append on a freshly created session
// removes the empty shell so no half-written conversation survives.
func (p *Pipeline) persistStage(ctx context.Context, userID, sessionID string, ex schema.Exchange) (string, error) {
	stageCtx, cancel := p.stageContext(ctx)
	defer cancel()

	created := false
	if sessionID == "" {
		sess, err := p.Sessions.Create(stageCtx, userID, titleFromQuery(ex.Query))
		if err != nil {
			return "", p.wrapTimeout(schema.NewPipelineError(schema.ErrKindPersistence, "persist", err), "persist")
		}
		sessionID = sess.ID
		created = true
	}
	if err := p.Sessions.AppendExchange(stageCtx, sessionID, userID, ex); err != nil {
		if created {
			_ = p.Sessions.Delete(ctx, sessionID, userID)
		}
		if schema.KindOf(err) != "" {
			return "", err
		}
		return "", p.wrapTimeout(schema.NewPipelineError(schema.ErrKindPersistence, "persist", err), "persist")
	}
	return sessionID, nil
}

func (p *Pipeline) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.StageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.StageTimeout)
}

// wrapTimeout converts a deadline hit into the timeout kind; other errors
// pass through untouched.
func (p *Pipeline) wrapTimeout(err error, stage string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return schema.NewPipelineError(schema.ErrKindTimeout, stage, err)
	}
	return err
}

func tailExchanges(exchanges []schema.Exchange, n int) []schema.Exchange {
	if n <= 0 || len(exchanges) == 0 {
		return nil
	}
	if len(exchanges) > n {
		exchanges = exchanges[len(exchanges)-n:]
	}
	return exchanges
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

func responseFrom(sessionID string, ex *schema.Exchange) *QueryResponse {
	return &QueryResponse{
		SessionID:           sessionID,
		Query:               ex.Query,
		Answer:              ex.Answer,
		Mode:                ex.Mode,
		Evidence:            ex.Evidence,
		Citations:           ex.Citations,
		TranslatedAnswer:    ex.TranslatedAnswer,
		KeywordExplanations: ex.KeywordExplanations,
		BookRecommendations: ex.BookRecommendations,
	}
}
