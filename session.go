package rag

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/themonkai/scripture-rag/schema"
)

// ErrSessionNotFound reports a lookup for an id the store does not hold
// (or one that expired).
var ErrSessionNotFound = errors.New("session not found")

const titleMaxLen = 50

// Session is one user's conversation: an ordered sequence of exchanges
// under a title derived from the first query.
type Session struct {
	ID        string            `json:"session_id"`
	UserID    string            `json:"user_id"`
	Title     string            `json:"title"`
	Exchanges []schema.Exchange `json:"exchanges"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SessionStore persists conversations. Every method that reads or mutates
// a session takes the caller's userID and fails with an authorization
// error when the session belongs to someone else.
type SessionStore interface {
	Create(ctx context.Context, userID, title string) (*Session, error)
	Get(ctx context.Context, id, userID string) (*Session, error)
	// AppendExchange attaches one finished exchange. The append is
	// all-or-nothing: on any error the session is unchanged.
	AppendExchange(ctx context.Context, id, userID string, ex schema.Exchange) error
	Delete(ctx context.Context, id, userID string) error
	// List returns the user's sessions, most recently updated first.
	List(ctx context.Context, userID string) ([]*Session, error)
	ListRange(ctx context.Context, userID string, offset, limit int) ([]*Session, error)
	// Search matches term case-insensitively against titles and queries.
	Search(ctx context.Context, userID, term string) ([]*Session, error)
	// Clean keeps at most max sessions per user, newest first.
	Clean(ctx context.Context, max int) error
	Close() error
}

// authzError marks a cross-user access attempt.
func authzError(id string) error {
	return schema.NewPipelineError(schema.ErrKindAuthorization, "session",
		fmt.Errorf("session %s belongs to another user", id))
}

// titleFromQuery seeds a session title from its first query, truncated on
// a word boundary.
func titleFromQuery(query string) string {
	q := strings.TrimSpace(query)
	if len(q) <= titleMaxLen {
		return q
	}
	cut := q[:titleMaxLen]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// MemSessionStore keeps sessions in process memory. The default store;
// suitable for a single instance.
type MemSessionStore struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	maxHistory int
}

func NewMemSessionStore(maxHistory int) *MemSessionStore {
	return &MemSessionStore{
		sessions:   make(map[string]*Session),
		maxHistory: maxHistory,
	}
}

func (m *MemSessionStore) Create(_ context.Context, userID, title string) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Exchanges: []schema.Exchange{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return cloneSession(s), nil
}

func (m *MemSessionStore) Get(_ context.Context, id, userID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.UserID != userID {
		return nil, authzError(id)
	}
	return cloneSession(s), nil
}

func (m *MemSessionStore) AppendExchange(_ context.Context, id, userID string, ex schema.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if s.UserID != userID {
		return authzError(id)
	}
	s.Exchanges = append(s.Exchanges, ex)
	if m.maxHistory > 0 && len(s.Exchanges) > m.maxHistory {
		s.Exchanges = s.Exchanges[len(s.Exchanges)-m.maxHistory:]
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemSessionStore) Delete(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if s.UserID != userID {
		return authzError(id)
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemSessionStore) List(ctx context.Context, userID string) ([]*Session, error) {
	return m.ListRange(ctx, userID, 0, 100)
}

func (m *MemSessionStore) ListRange(_ context.Context, userID string, offset, limit int) ([]*Session, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return []*Session{}, nil
	}
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, cloneSession(s))
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if offset >= len(out) {
		return []*Session{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (m *MemSessionStore) Search(ctx context.Context, userID, term string) ([]*Session, error) {
	all, err := m.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return filterSessions(all, term), nil
}

func (m *MemSessionStore) Clean(_ context.Context, max int) error {
	if max <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byUser := make(map[string][]*Session)
	for _, s := range m.sessions {
		byUser[s.UserID] = append(byUser[s.UserID], s)
	}
	for _, list := range byUser {
		if len(list) <= max {
			continue
		}
		sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
		for _, s := range list[max:] {
			delete(m.sessions, s.ID)
		}
	}
	return nil
}

func (m *MemSessionStore) Close() error { return nil }

func filterSessions(sessions []*Session, term string) []*Session {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return sessions
	}
	out := make([]*Session, 0, len(sessions))
	for _, s := range sessions {
		if sessionMatches(s, needle) {
			out = append(out, s)
		}
	}
	return out
}

func sessionMatches(s *Session, needle string) bool {
	if strings.Contains(strings.ToLower(s.Title), needle) {
		return true
	}
	for _, ex := range s.Exchanges {
		if strings.Contains(strings.ToLower(ex.Query), needle) {
			return true
		}
	}
	return false
}

func cloneSession(s *Session) *Session {
	cp := *s
	cp.Exchanges = append([]schema.Exchange(nil), s.Exchanges...)
	return &cp
}
