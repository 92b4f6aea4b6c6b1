// Package session keeps the live shopper sessions in memory.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/brunorcoelho/storefront/internal/checkout"
	"github.com/google/uuid"
)

// CleanupInterval is how often idle sessions are looked for.
const CleanupInterval = 30 * time.Second

var ErrNotFound = errors.New("session not found")

type Factory interface {
	NewSession(id string) *checkout.Session
}

type entry struct {
	session  *checkout.Session
	lastSeen time.Time
}

// Registry maps session ids to sessions and drops the ones idle for longer
// than the TTL.
type Registry struct {
	factory Factory
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewRegistry(factory Factory, ttl time.Duration, logger *slog.Logger) *Registry {
	return newRegistry(factory, ttl, CleanupInterval, logger)
}

func newRegistry(factory Factory, ttl, interval time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		factory:     factory,
		ttl:         ttl,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*entry),
		stopCleanup: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.cleanupLoop(interval)
	return r
}

func (r *Registry) cleanupLoop(interval time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.expireIdle()
		case <-r.stopCleanup:
			return
		}
	}
}

// expireIdle drops sessions past their TTL. A session waiting on an order
// response is kept until the response arrives.
func (r *Registry) expireIdle() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) && !e.session.SubmitPending() {
			delete(r.sessions, id)
			r.logger.Info("session expired", "session_id", id)
		}
	}
}

// Create registers a new session under a fresh id.
func (r *Registry) Create() *checkout.Session {
	s := r.factory.NewSession(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = &entry{session: s, lastSeen: r.now()}
	return s
}

// Get returns the session and marks it as active.
func (r *Registry) Get(id string) (*checkout.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = r.now()
	return e.session, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the cleanup goroutine.
func (r *Registry) Close() error {
	r.stopOnce.Do(func() { close(r.stopCleanup) })
	r.wg.Wait()
	return nil
}
