// Package session keeps one search coordinator per browser session and
// expires sessions that have gone idle.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cloo-solutions/tastyfind/internal/service"
)

// CookieName carries the session id.
const CookieName = "tastyfind_session"

// Session is one browser's search state.
type Session struct {
	ID          string
	Coordinator *service.Coordinator

	mu              sync.Mutex
	lastSeen        time.Time
	countries       []string
	countriesLoaded bool
	notice          string
	tab             string
}

// SetNotice records a message shown once on the next page render, used for
// input that never reached the backend.
func (s *Session) SetNotice(msg string) {
	s.mu.Lock()
	s.notice = msg
	s.mu.Unlock()
}

// TakeNotice returns and clears the pending notice.
func (s *Session) TakeNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.notice
	s.notice = ""
	return msg
}

// SetTab remembers the tab the user last worked in.
func (s *Session) SetTab(tab string) {
	s.mu.Lock()
	s.tab = tab
	s.mu.Unlock()
}

// Tab returns the remembered tab, or "" when none was set.
func (s *Session) Tab() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// Countries returns the country options, fetching them on first use.
// A failed fetch leaves the options empty and is not retried.
func (s *Session) Countries(ctx context.Context, logger *zap.Logger) []string {
	s.mu.Lock()
	if s.countriesLoaded {
		out := s.countries
		s.mu.Unlock()
		return out
	}
	s.mu.Unlock()

	countries, err := s.Coordinator.Countries(ctx)
	if err != nil {
		logger.Warn("failed to load countries", zap.String("session_id", s.ID), zap.Error(err))
		countries = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.countriesLoaded {
		s.countries = countries
		s.countriesLoaded = true
	}
	return s.countries
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Factory builds the coordinator for a new session.
type Factory func() *service.Coordinator

// Registry maps session ids to sessions.
type Registry struct {
	factory     Factory
	idleTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time
	active      prometheus.Gauge

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry. reg may be nil to skip metrics.
func NewRegistry(factory Factory, idleTimeout time.Duration, logger *zap.Logger, reg prometheus.Registerer) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tastyfind",
		Subsystem: "sessions",
		Name:      "active",
		Help:      "Number of live search sessions.",
	})
	if reg != nil {
		if err := reg.Register(active); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				if g, ok := are.ExistingCollector.(prometheus.Gauge); ok {
					active = g
				}
			} else {
				logger.Warn("failed to register session gauge", zap.Error(err))
			}
		}
	}

	return &Registry{
		factory:     factory,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
		active:      active,
		sessions:    make(map[string]*Session),
	}
}

// Get returns a live session and marks it as used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.touch(r.now())
	return s, true
}

// GetOrCreate returns the session for id, creating a fresh one under a new id
// when it is unknown or expired. created reports whether a new session was made.
func (r *Registry) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := r.Get(id); ok {
			return s, false
		}
	}
	return r.Create(), true
}

// Create starts a new session.
func (r *Registry) Create() *Session {
	s := &Session{
		ID:          uuid.NewString(),
		Coordinator: r.factory(),
		lastSeen:    r.now(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.active.Set(float64(n))
	r.logger.Debug("session created", zap.String("session_id", s.ID))
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the idle timeout.
func (r *Registry) Sweep(ctx context.Context) error {
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	var expired []string
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			expired = append(expired, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	r.active.Set(float64(n))
	if len(expired) > 0 {
		r.logger.Info("expired idle sessions",
			zap.Int("expired", len(expired)),
			zap.Int("active", n),
		)
	}
	return ctx.Err()
}
