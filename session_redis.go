package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/themonkai/scripture-rag/config"
	"github.com/themonkai/scripture-rag/schema"
)

// RedisSessionStore persists sessions in Redis.
// Data model:
//   - prefix+"session:"+id  => JSON(Session) with TTL
//   - prefix+"idx:"+userID  => ZSET of ids scored by last update time
type RedisSessionStore struct {
	rdb        *redis.Client
	prefix     string
	ttl        time.Duration
	maxHistory int
}

func NewRedisSessionStore(cfg *config.SessionConfig) (*RedisSessionStore, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s failed, err: %w", cfg.Redis.Address, err)
	}
	return &RedisSessionStore{
		rdb:        rdb,
		prefix:     "rag:sess:",
		ttl:        ttl,
		maxHistory: cfg.MaxHistory,
	}, nil
}

func (s *RedisSessionStore) sessKey(id string) string { return s.prefix + "session:" + id }
func (s *RedisSessionStore) idxKey(userID string) string {
	return s.prefix + "idx:" + userID
}

// saveScript sets the session JSON with TTL and refreshes the user's
// recency index in one round trip.
var saveScript = redis.NewScript(`
redis.call('SET', KEYS[1], ARGV[1], 'EX', tonumber(ARGV[2]))
redis.call('ZADD', KEYS[2], tonumber(ARGV[3]), ARGV[4])
return 1`)

var deleteScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('ZREM', KEYS[2], ARGV[1])
return 1`)

func (s *RedisSessionStore) save(ctx context.Context, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session failed, err: %w", err)
	}
	keys := []string{s.sessKey(sess.ID), s.idxKey(sess.UserID)}
	args := []interface{}{string(b), int64(s.ttl / time.Second), sess.UpdatedAt.Unix(), sess.ID}
	if err := saveScript.Run(ctx, s.rdb, keys, args...).Err(); err != nil {
		return fmt.Errorf("save session failed, err: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) load(ctx context.Context, id string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, s.sessKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session failed, err: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session failed, err: %w", err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Create(ctx context.Context, userID, title string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Exchanges: []schema.Exchange{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id, userID string) (*Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, authzError(id)
	}
	return sess, nil
}

func (s *RedisSessionStore) AppendExchange(ctx context.Context, id, userID string, ex schema.Exchange) error {
	sess, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	sess.Exchanges = append(sess.Exchanges, ex)
	if s.maxHistory > 0 && len(sess.Exchanges) > s.maxHistory {
		sess.Exchanges = sess.Exchanges[len(sess.Exchanges)-s.maxHistory:]
	}
	sess.UpdatedAt = time.Now().UTC()
	return s.save(ctx, sess)
}

func (s *RedisSessionStore) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	keys := []string{s.sessKey(id), s.idxKey(userID)}
	if err := deleteScript.Run(ctx, s.rdb, keys, id).Err(); err != nil {
		return fmt.Errorf("delete session failed, err: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) List(ctx context.Context, userID string) ([]*Session, error) {
	return s.ListRange(ctx, userID, 0, 100)
}

func (s *RedisSessionStore) ListRange(ctx context.Context, userID string, offset, limit int) ([]*Session, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return []*Session{}, nil
	}
	ids, err := s.rdb.ZRevRange(ctx, s.idxKey(userID), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions failed, err: %w", err)
	}
	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.load(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			// expired value, drop the stale index entry
			_ = s.rdb.ZRem(ctx, s.idxKey(userID), id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *RedisSessionStore) Search(ctx context.Context, userID, term string) ([]*Session, error) {
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return filterSessions(all, term), nil
}

// Clean trims each known user index to max entries by recency.
var cleanScript = redis.NewScript(`
local keep = tonumber(ARGV[1])
local prefix = ARGV[2]
local total = redis.call('ZCARD', KEYS[1])
if total <= keep then return 0 end
local rem = total - keep
local ids = redis.call('ZRANGE', KEYS[1], 0, rem-1)
for i, id in ipairs(ids) do
  redis.call('ZREM', KEYS[1], id)
  redis.call('DEL', prefix .. 'session:' .. id)
end
return rem`)

func (s *RedisSessionStore) Clean(ctx context.Context, max int) error {
	if max <= 0 {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.prefix+"idx:*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan session indexes failed, err: %w", err)
		}
		for _, key := range keys {
			if err := cleanScript.Run(ctx, s.rdb, []string{key}, max, s.prefix).Err(); err != nil {
				return fmt.Errorf("clean sessions failed, err: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *RedisSessionStore) Close() error { return s.rdb.Close() }
