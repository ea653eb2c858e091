// Package session owns the lifetime and concurrency guarantees around
// spec.SkillSession: creation, lookup, mutation, and LRU+TTL eviction.
package session

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kaija/agent-skills-runtime/spec"
)

const (
	defaultTTL         = 24 * time.Hour
	defaultMaxSessions = 4096
)

// StoreConfig tunes eviction. Zero values fall back to the package defaults.
type StoreConfig struct {
	TTL         time.Duration
	MaxSessions int
}

// Store owns every live SkillSession, evicting the least-recently-used entry
// once MaxSessions is exceeded and anything past TTL on next access.
type Store struct {
	mu sync.Mutex

	ttl         time.Duration
	maxSessions int

	lru *list.List               // front = most recently used
	m   map[string]*list.Element // session id -> element(Value=*entry)
}

type entry struct {
	s        *spec.SkillSession
	lastUsed time.Time
}

// New constructs an empty Store.
func New(cfg StoreConfig) *Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	return &Store{
		ttl:         ttl,
		maxSessions: maxSessions,
		lru:         list.New(),
		m:           map[string]*list.Element{},
	}
}

// Create allocates a fresh session in StateDiscovered and returns it.
func (st *Store) Create() *spec.SkillSession {
	now := time.Now()

	st.mu.Lock()
	defer st.mu.Unlock()

	st.evictExpiredLocked(now)

	id := uuid.Must(uuid.NewV7()).String()
	s := spec.NewSkillSession(id, now)

	e := st.lru.PushFront(&entry{s: s, lastUsed: now})
	st.m[id] = e

	st.evictOverLimitLocked()
	return s
}

// Get returns the session for id, touching its LRU position, or false if it
// does not exist, has expired, or was closed.
func (st *Store) Get(id string) (*spec.SkillSession, bool) {
	now := time.Now()

	st.mu.Lock()
	defer st.mu.Unlock()

	st.evictExpiredLocked(now)

	e := st.m[id]
	if e == nil {
		return nil, false
	}
	en := e.Value.(*entry)
	if en.s.Closed {
		st.deleteElemLocked(e)
		return nil, false
	}
	en.lastUsed = now
	st.lru.MoveToFront(e)
	return en.s, true
}

// Transition validates and applies a state transition under the store's
// lock, so a caller never races another goroutine mutating the same session.
func (st *Store) Transition(id string, next spec.SessionState) (*spec.SkillSession, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e := st.m[id]
	if e == nil {
		return nil, spec.ErrSessionNotFound
	}
	en := e.Value.(*entry)
	if en.s.Closed {
		return nil, spec.ErrSessionClosed
	}
	if !spec.CanTransition(en.s.State, next) {
		return nil, spec.ErrInvalidTransition
	}
	en.s.State = next
	en.s.UpdatedAt = time.Now()
	en.lastUsed = en.s.UpdatedAt
	st.lru.MoveToFront(e)
	return en.s, nil
}

// Mutate runs fn against the live session under the store's lock and bumps
// its LRU position and UpdatedAt timestamp. fn must not retain s beyond the
// call.
func (st *Store) Mutate(id string, fn func(s *spec.SkillSession) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	e := st.m[id]
	if e == nil {
		return spec.ErrSessionNotFound
	}
	en := e.Value.(*entry)
	if en.s.Closed {
		return spec.ErrSessionClosed
	}
	if err := fn(en.s); err != nil {
		return err
	}
	en.s.UpdatedAt = time.Now()
	en.lastUsed = en.s.UpdatedAt
	st.lru.MoveToFront(e)
	return nil
}

// Delete removes a session outright, regardless of its state.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if e := st.m[id]; e != nil {
		st.deleteElemLocked(e)
	}
}

// List returns a snapshot of every live session id, most-recently-used
// first.
func (st *Store) List() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.evictExpiredLocked(time.Now())

	ids := make([]string, 0, st.lru.Len())
	for e := st.lru.Front(); e != nil; e = e.Next() {
		ids = append(ids, e.Value.(*entry).s.SessionID)
	}
	return ids
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lru.Len()
}

func (st *Store) evictExpiredLocked(now time.Time) {
	if st.ttl <= 0 {
		return
	}
	for e := st.lru.Back(); e != nil; {
		prev := e.Prev()
		en := e.Value.(*entry)
		if now.Sub(en.lastUsed) <= st.ttl {
			break
		}
		st.deleteElemLocked(e)
		e = prev
	}
}

func (st *Store) evictOverLimitLocked() {
	for st.lru.Len() > st.maxSessions {
		e := st.lru.Back()
		if e == nil {
			return
		}
		st.deleteElemLocked(e)
	}
}

func (st *Store) deleteElemLocked(e *list.Element) {
	en := e.Value.(*entry)
	en.s.Closed = true
	delete(st.m, en.s.SessionID)
	st.lru.Remove(e)
}
