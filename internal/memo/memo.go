// Package memo caches derived tables and reports keyed by the content of
// their inputs and the transformation applied to them.
package memo

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"

	"github.com/KaramelBytes/surveyboard/internal/metrics"
)

// Key identifies one derived value.
type Key struct {
	Content   uint64
	Transform string
}

// Hash returns the content hash of one input.
func Hash(b []byte) uint64 { return xxh3.Hash(b) }

// HashAll hashes several inputs in order. Each input's length is mixed in
// so that splitting the same bytes differently changes the hash.
func HashAll(parts ...[]byte) uint64 {
	h := xxh3.New()
	var n [8]byte
	for _, p := range parts {
		l := uint64(len(p))
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		_, _ = h.Write(n[:])
		_, _ = h.Write(p)
	}
	return h.Sum64()
}

// NewKey builds a key for a transform over some inputs.
func NewKey(transform string, parts ...[]byte) Key {
	return Key{Content: HashAll(parts...), Transform: transform}
}

func (k Key) String() string { return fmt.Sprintf("%s@%016x", k.Transform, k.Content) }

// Cache is a bounded memo table. Values are treated as immutable once stored.
type Cache struct {
	entries *lru.Cache[Key, any]
}

// NewCache returns a cache holding at most size entries.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = 1
	}
	c, err := lru.New[Key, any](size)
	if err != nil {
		return nil, fmt.Errorf("memo: new cache: %w", err)
	}
	return &Cache{entries: c}, nil
}

// Len is the number of cached values.
func (c *Cache) Len() int { return c.entries.Len() }

// Get returns the cached value for key, computing and storing it on a miss.
// Errors are not cached.
func Get[T any](c *Cache, key Key, compute func() (T, error)) (T, error) {
	if v, ok := c.entries.Get(key); ok {
		if t, ok := v.(T); ok {
			metrics.CacheLookup(true)
			return t, nil
		}
	}
	metrics.CacheLookup(false)
	t, err := compute()
	if err != nil {
		return t, err
	}
	c.entries.Add(key, t)
	return t, nil
}

// Sessions keeps one private Cache per session; least recently used
// sessions are evicted beyond the limit.
type Sessions struct {
	mu       sync.Mutex
	perCache int
	sessions *lru.Cache[string, *Session]
}

// Session is one isolated workspace: its own memo table plus whatever
// inputs the caller keeps alongside it.
type Session struct {
	ID    string
	Cache *Cache

	mu    sync.Mutex
	state map[string]any
}

// NewSessions builds a registry holding up to limit sessions, each with a
// cache of cacheSize entries.
func NewSessions(limit, cacheSize int) (*Sessions, error) {
	if limit <= 0 {
		limit = 1
	}
	reg, err := lru.New[string, *Session](limit)
	if err != nil {
		return nil, fmt.Errorf("memo: new session registry: %w", err)
	}
	return &Sessions{perCache: cacheSize, sessions: reg}, nil
}

// Create starts a new session with a fresh id.
func (s *Sessions) Create() (*Session, error) {
	c, err := NewCache(s.perCache)
	if err != nil {
		return nil, err
	}
	sess := &Session{ID: uuid.NewString(), Cache: c, state: map[string]any{}}
	s.mu.Lock()
	s.sessions.Add(sess.ID, sess)
	s.mu.Unlock()
	metrics.SessionCreated()
	return sess, nil
}

// Lookup finds a live session.
func (s *Sessions) Lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Get(id)
}

// Len is the number of live sessions.
func (s *Sessions) Len() int { return s.sessions.Len() }

// Put stores session state under name, replacing the previous generation.
func (s *Session) Put(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[name] = v
}

// Load returns session state stored under name.
func (s *Session) Load(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state[name]
	return v, ok
}

// Names lists stored state names matching prefix, sorted.
func (s *Session) Names(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.state {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
