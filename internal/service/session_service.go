package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jengzang/records-hexbin/internal/config"
	"github.com/jengzang/records-hexbin/internal/hexagonal"
	"github.com/jengzang/records-hexbin/internal/metrics"
	"github.com/jengzang/records-hexbin/internal/models"
	"github.com/jengzang/records-hexbin/internal/spatial"
	"github.com/jengzang/records-hexbin/internal/thumbs"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

// Session is one engine with the viewport it draws over
type Session struct {
	ID        string
	Engine    *hexagonal.Engine
	CreatedAt time.Time

	mu       sync.Mutex
	view     spatial.Viewport
	lastUsed time.Time
}

// Viewport returns the current viewport
func (s *Session) Viewport() spatial.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Info describes the session
func (s *Session) Info() models.SessionInfo {
	s.mu.Lock()
	info := models.SessionInfo{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		LastUsed:  s.lastUsed,
		Viewport:  s.view,
	}
	s.mu.Unlock()
	info.Totals = s.Engine.Totals()
	return info
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// SessionService keeps the live engine sessions. Sessions idle for longer
// than the TTL are evicted.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*Session

	engine      hexagonal.Options
	viewport    spatial.Viewport
	maxSessions int
	ttl         time.Duration
	loader      thumbs.Loader
	now         func() time.Time
}

// NewSessionService creates a session registry using the engine and
// viewport defaults of cfg
func NewSessionService(cfg *config.Config) *SessionService {
	return &SessionService{
		sessions:    make(map[string]*Session),
		engine:      cfg.Engine,
		viewport:    cfg.Viewport,
		maxSessions: cfg.Server.MaxSessions,
		ttl:         cfg.Server.SessionTTL,
		loader:      thumbs.RemoteLoader(cfg.Server.ThumbHosts),
		now:         time.Now,
	}
}

// Create starts a session. Options in req are decoded over the defaults.
func (s *SessionService) Create(req models.CreateSessionRequest) (*Session, error) {
	view := s.viewport
	if req.Viewport != nil {
		view = *req.Viewport
	}
	if err := view.Validate(); err != nil {
		return nil, fmt.Errorf("invalid viewport: %w", err)
	}

	opts := s.engine
	opts.ClusterColors = append([]interface{}(nil), s.engine.ClusterColors...)
	if len(req.Options) > 0 {
		if err := json.Unmarshal(req.Options, &opts); err != nil {
			return nil, fmt.Errorf("invalid options: %w", err)
		}
	}
	// sessions redraw on request
	opts.RefreshDelay = -1

	engine, err := hexagonal.New(view, opts)
	if err != nil {
		return nil, err
	}
	// marker sources come from clients, never read server files
	engine.Thumbs().SetLoader(s.loader)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	if len(s.sessions) >= s.maxSessions {
		return nil, ErrTooManySessions
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Engine:    engine,
		CreatedAt: now,
		view:      view,
		lastUsed:  now,
	}
	s.sessions[sess.ID] = sess
	metrics.Sessions.Set(float64(len(s.sessions)))
	log.Printf("[Session] created %s (%d live)", sess.ID, len(s.sessions))
	return sess, nil
}

// Get returns a live session and marks it used
func (s *SessionService) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Delete ends a session
func (s *SessionService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	metrics.Sessions.Set(float64(len(s.sessions)))
	log.Printf("[Session] deleted %s", id)
	return nil
}

// List describes the live sessions, oldest first
func (s *SessionService) List() []models.SessionInfo {
	s.mu.Lock()
	s.sweepLocked()
	list := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	out := make([]models.SessionInfo, 0, len(list))
	for _, sess := range list {
		out = append(out, sess.Info())
	}
	return out
}

// SetViewport moves the session's view and hands it to the engine
func (s *SessionService) SetViewport(id string, view spatial.Viewport) (*Session, error) {
	if err := view.Validate(); err != nil {
		return nil, fmt.Errorf("invalid viewport: %w", err)
	}
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	sess.view = view
	sess.mu.Unlock()
	sess.Engine.SetView(view)
	return sess, nil
}

// Sweep evicts idle sessions and returns how many were removed
func (s *SessionService) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *SessionService) sweepLocked() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.Sessions.Set(float64(len(s.sessions)))
		log.Printf("[Session] evicted %d idle sessions", removed)
	}
	return removed
}

// RunJanitor sweeps idle sessions every interval until stop is closed
func (s *SessionService) RunJanitor(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-stop:
			return
		}
	}
}
