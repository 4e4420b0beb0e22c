package viewstate

import (
	"autodash/internal/logger"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry gives every client session its own Controller. Controllers share
// the reporter (and so the immutable dataset) but no mutable state.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session

	years        []int
	reporter     Reporter
	publisherFor func(id string) Publisher
	ttl          time.Duration
	now          func() time.Time
}

// NewRegistry creates an empty registry. ttl <= 0 disables idle eviction.
// publisherFor may be nil.
func NewRegistry(years []int, reporter Reporter, ttl time.Duration, publisherFor func(id string) Publisher) *Registry {
	return &Registry{
		sessions:     make(map[string]*session),
		years:        years,
		reporter:     reporter,
		publisherFor: publisherFor,
		ttl:          ttl,
		now:          time.Now,
	}
}

// Create starts a new session and returns its id and controller.
func (r *Registry) Create() (string, *Controller, error) {
	id := uuid.NewString()
	var pub Publisher
	if r.publisherFor != nil {
		pub = r.publisherFor(id)
	}
	ctrl, err := New(r.years, r.reporter, pub)
	if err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	r.sessions[id] = &session{ctrl: ctrl, lastSeen: r.now()}
	r.mu.Unlock()

	logger.Debug("Session %s created", id)
	return id, ctrl, nil
}

// Get returns the session's controller and marks it as active.
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.now()
	return s.ctrl, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the ttl and returns how many went.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.Info("Evicted %d idle sessions (%d active)", n, r.Len())
			}
		}
	}
}
