package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
)

// navigationSession captures everything needed to reconstruct the query a
// result came from, so a later next/previous-result flow can re-run it
// without re-encoding the query in the URL.
type navigationSession struct {
	Token          string     `json:"token"`
	Path           string     `json:"path"`
	Query          string     `json:"query"`
	QueryInternal  string     `json:"query_internal"`
	Limit          int        `json:"limit"`
	Params         url.Values `json:"params,omitempty"`
	InternalParams url.Values `json:"internal_params,omitempty"`
	Offset         int        `json:"offset"`
}

type sessionStore interface {
	put(token string, session navigationSession) error
	get(token string) (*navigationSession, error)
}

// newNavigationToken produces the opaque key a session is stored under.
// uuids come from crypto/rand, which is all the freshness the navigation
// flow needs.
func newNavigationToken() string {
	return uuid.NewString()
}

// memorySessionStore is the fallback when no Redis address is configured.
type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]navigationSession
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{
		sessions: make(map[string]navigationSession),
	}
}

func (m *memorySessionStore) put(token string, session navigationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[token] = session

	return nil
}

func (m *memorySessionStore) get(token string) (*navigationSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[token]
	if ok == false {
		return nil, fmt.Errorf("session not found: [%s]", token)
	}

	return &session, nil
}

// redisSessionStore keeps sessions in Redis with a TTL, so navigation state
// survives service restarts and is shared across instances.
type redisSessionStore struct {
	client rueidis.Client
	ttl    time.Duration
}

func newRedisSessionStore(cfg searchConfigSession) (*redisSessionStore, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{cfg.RedisAddr},
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		SelectDB:     cfg.RedisDB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %s", err.Error())
	}

	return &redisSessionStore{
		client: client,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}, nil
}

func sessionKey(token string) string {
	return "search-nav:" + token
}

func (r *redisSessionStore) put(token string, session navigationSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %s", err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := r.client.B().Set().Key(sessionKey(token)).Value(string(data)).Ex(r.ttl).Build()

	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to store session: %s", err.Error())
	}

	return nil
}

func (r *redisSessionStore) get(token string) (*navigationSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := r.client.B().Get().Key(sessionKey(token)).Build()

	data, err := r.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, fmt.Errorf("session not found: [%s]", token)
		}
		return nil, fmt.Errorf("failed to fetch session: %s", err.Error())
	}

	var session navigationSession

	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %s", err.Error())
	}

	return &session, nil
}
