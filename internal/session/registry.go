package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/pagepulse/pagepulse/internal/collector"
	"github.com/pagepulse/pagepulse/internal/metrics"
	"github.com/pagepulse/pagepulse/internal/score"
	"github.com/pagepulse/pagepulse/internal/state"
	"github.com/pagepulse/pagepulse/internal/timing"
)

// Session is one monitored page view: a feed, the monitor reading from it,
// and a debounced settled snapshot that drives budget evaluation once the
// burst of timing entries quiets down.
type Session struct {
	ID        string
	Page      string
	UserAgent string
	StartedAt time.Time

	feed    *timing.Feed
	monitor *collector.Monitor
	settled *state.Debounced[metrics.Snapshot]
	unsub   func()

	mu       sync.Mutex
	lastSeen time.Time
}

// Feed returns the timing feed the ingest layer delivers into.
func (s *Session) Feed() *timing.Feed { return s.feed }

// Snapshot returns the current merged snapshot.
func (s *Session) Snapshot() metrics.Snapshot { return s.monitor.Snapshot() }

// Settled returns the last settled snapshot (may lag Snapshot by up to the
// settle window).
func (s *Session) Settled() metrics.Snapshot { return s.settled.Settled() }

// Score computes the health score of the current snapshot.
func (s *Session) Score() int { return score.Score(s.monitor.Snapshot()) }

// Touch records activity so TTL eviction keeps the session alive.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the most recent activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// close tears the session down: releases the aggregator subscription, every
// observer registration, the settle timer, and the feed, in that order.
func (s *Session) close() {
	s.unsub()
	s.monitor.Close()
	s.settled.Close()
	s.feed.Close()
}

// Registry owns all live sessions, keyed by a generated UUID. A background
// loop (Run) evicts sessions idle longer than the TTL, tearing each one down
// so no observer or timer outlives its page view.
type Registry struct {
	opts         collector.Options
	ttl          time.Duration
	settleWindow time.Duration
	clk          clock.Clock

	onSettle func(id string, snap metrics.Snapshot)
	onUpdate func(id string)

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates a Registry. Sessions idle for longer than ttl are evicted;
// settleWindow is the debounce window for the settled snapshot.
func New(ttl, settleWindow time.Duration, opts collector.Options) *Registry {
	return &Registry{
		opts:         opts,
		ttl:          ttl,
		settleWindow: settleWindow,
		clk:          clock.New(),
		sessions:     make(map[string]*Session),
	}
}

// OnSettle registers fn to run when a session's snapshot settles after a
// quiet window. Set before the first Create.
func (r *Registry) OnSettle(fn func(id string, snap metrics.Snapshot)) { r.onSettle = fn }

// OnUpdate registers fn to run on every snapshot merge of any session.
// Set before the first Create.
func (r *Registry) OnUpdate(fn func(id string)) { r.onUpdate = fn }

// Create builds a session for one page view. supported lists the entry kinds
// the page's beacon declared; kinds outside the list stay unsupported for the
// session's lifetime.
func (r *Registry) Create(page, userAgent string, supported []timing.Kind) *Session {
	now := r.clk.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Page:      page,
		UserAgent: userAgent,
		StartedAt: now,
		lastSeen:  now,
		feed:      timing.NewFeed(supported),
	}
	s.monitor = collector.NewMonitor(s.feed, r.opts)
	s.settled = state.NewDebounced[metrics.Snapshot](r.settleWindow)

	id := s.ID
	if r.onSettle != nil {
		fn := r.onSettle
		s.settled.OnSettle(func(snap metrics.Snapshot) { fn(id, snap) })
	}
	s.unsub = s.monitor.Subscribe(func(snap metrics.Snapshot) {
		s.settled.Set(snap)
		s.Touch(r.clk.Now())
		if r.onUpdate != nil {
			r.onUpdate(id)
		}
	})
	s.monitor.Start()

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	slog.Info("session: created",
		"session_id", id, "page", page, "supported", len(supported))
	return s
}

// Get returns the session with the given ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// List returns all live sessions, newest first.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Remove tears down and removes the session with the given ID.
// Returns false if no such session exists.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.close()
	slog.Info("session: removed", "session_id", id)
	return true
}

// Evict tears down sessions whose last activity is older than now minus TTL.
// Returns the number of sessions removed.
func (r *Registry) Evict(now time.Time) int {
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if !s.LastSeen().After(cutoff) {
			delete(r.sessions, id)
			stale = append(stale, s)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.close()
	}
	return len(stale)
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// interval (minimum 1 second) so idle sessions are torn down promptly.
// Run blocks until ctx is cancelled, then closes all remaining sessions.
func (r *Registry) Run(ctx context.Context) {
	interval := r.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := r.clk.Ticker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case now := <-t.C:
			if n := r.Evict(now); n > 0 {
				slog.Debug("session: evicted idle sessions", "count", n)
			}
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}
