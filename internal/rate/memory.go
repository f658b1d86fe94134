package rate

import (
	"sync"
	"time"
)

const (
	sweepEvery = time.Minute
	sweepGrace = 5 * time.Minute
)

// Limiter is a fixed-window in-memory limiter keyed by caller-chosen
// strings (route + client IP in practice). Each key carries a hit count
// and a deadline; once the deadline passes, the next request opens a
// fresh window.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	sweptAt time.Time
}

type window struct {
	hits    int
	resetAt time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{windows: map[string]*window{}, sweptAt: time.Now().UTC()}
}

// Allow records one hit against key and reports whether it stays within
// limit hits per span.
func (l *Limiter) Allow(key string, limit int, span time.Duration) bool {
	now := time.Now().UTC()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)
	w := l.windows[key]
	if w == nil || now.After(w.resetAt) {
		l.windows[key] = &window{hits: 1, resetAt: now.Add(span)}
		return true
	}
	if w.hits >= limit {
		return false
	}
	w.hits++
	return true
}

// Reset forgets a key. Called after a successful login so earlier failed
// attempts stop counting against the client.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// sweep drops windows whose deadline is long past so the map does not
// grow with one-off clients. Caller holds l.mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.sweptAt) < sweepEvery {
		return
	}
	for k, w := range l.windows {
		if now.Sub(w.resetAt) > sweepGrace {
			delete(l.windows, k)
		}
	}
	l.sweptAt = now
}
