package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/matst80/slask-browse/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slaskbrowse_sessions_active",
		Help: "Browsing sessions currently held in memory",
	})
	expiredSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskbrowse_sessions_expired_total",
		Help: "Browsing sessions closed after being idle",
	})
)

// BrowserFactory builds the browser for a session. The session id is used
// as instance id so a returning visitor gets its persisted state back.
type BrowserFactory func(sessionId string, results *ResultSnapshot) *browser.Browser

type Session struct {
	Id       string
	Browser  *browser.Browser
	Results  *ResultSnapshot
	lastSeen time.Time
}

type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  BrowserFactory
	ttl      time.Duration
	clock    clock.Clock
}

func NewSessionStore(factory BrowserFactory, ttl time.Duration, clk clock.Clock) *SessionStore {
	if clk == nil {
		clk = clock.New()
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		factory:  factory,
		ttl:      ttl,
		clock:    clk,
	}
}

// Get returns the session for id, creating it and loading its first
// results when it is not held yet.
func (s *SessionStore) Get(id string) *Session {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		session.lastSeen = s.clock.Now()
		s.mu.Unlock()
		return session
	}
	results := NewResultSnapshot()
	session = &Session{
		Id:       id,
		Browser:  s.factory(id, results),
		Results:  results,
		lastSeen: s.clock.Now(),
	}
	s.sessions[id] = session
	activeSessions.Inc()
	s.mu.Unlock()

	session.Browser.Refresh()
	return session
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) Each(fn func(*Session)) {
	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		all = append(all, session)
	}
	s.mu.Unlock()
	for _, session := range all {
		fn(session)
	}
}

// Expire closes sessions idle for longer than the ttl. Their persisted
// state stays in the store.
func (s *SessionStore) Expire() int {
	now := s.clock.Now()
	s.mu.Lock()
	var expired []*Session
	for id, session := range s.sessions {
		if now.Sub(session.lastSeen) > s.ttl {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.Browser.Close()
		activeSessions.Dec()
		expiredSessions.Inc()
	}
	if len(expired) > 0 {
		log.Printf("expired %d idle sessions", len(expired))
	}
	return len(expired)
}

// Run expires idle sessions until ctx is done.
func (s *SessionStore) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := s.clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Expire()
		}
	}
}

func (s *SessionStore) Close() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	for _, session := range all {
		session.Browser.Close()
		activeSessions.Dec()
	}
}
