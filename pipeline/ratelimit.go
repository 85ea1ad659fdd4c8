package pipeline

import (
	"sync"
	"time"
)

const (
	// RequestLimit is the number of calls a caller may make per window.
	RequestLimit = 100
	// Window is the sliding window the limit applies to.
	Window = 60 * time.Second

	unknownCaller = "unknown"
)

type callerWindow struct {
	mu    sync.Mutex
	times []time.Time
	// swept is set once Sweep has removed the window from the map.
	swept bool
}

// prune drops timestamps at or before cutoff. w.mu must be held.
func (w *callerWindow) prune(cutoff time.Time) {
	kept := w.times[:0]
	for _, t := range w.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.times = kept
}

// RateLimiter admits at most limit calls per caller in any window-long span.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	callers map[string]*callerWindow
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithClock(RequestLimit, Window, time.Now)
}

func NewRateLimiterWithClock(limit int, window time.Duration, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     now,
		callers: make(map[string]*callerWindow),
	}
}

func (l *RateLimiter) callerWindow(caller string) *callerWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.callers[caller]
	if !ok {
		w = &callerWindow{}
		l.callers[caller] = w
	}
	return w
}

// Admit records the call and reports true when the caller is under the limit.
// Rejected calls are not recorded. An empty caller shares the "unknown" bucket.
func (l *RateLimiter) Admit(caller string) bool {
	if caller == "" {
		caller = unknownCaller
	}
	for {
		w := l.callerWindow(caller)
		w.mu.Lock()
		if w.swept {
			w.mu.Unlock()
			continue
		}
		admitted := l.admitLocked(w)
		w.mu.Unlock()
		return admitted
	}
}

// admitLocked applies the limit to one window. w.mu must be held.
func (l *RateLimiter) admitLocked(w *callerWindow) bool {
	now := l.now()
	w.prune(now.Add(-l.window))
	if len(w.times) >= l.limit {
		return false
	}
	w.times = append(w.times, now)
	return true
}

// Sweep forgets callers with no calls left in the window.
func (l *RateLimiter) Sweep() int {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for caller, w := range l.callers {
		w.mu.Lock()
		w.prune(cutoff)
		empty := len(w.times) == 0
		w.swept = empty
		w.mu.Unlock()
		if empty {
			delete(l.callers, caller)
			removed++
		}
	}
	return removed
}

// Callers is the number of callers currently tracked.
func (l *RateLimiter) Callers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.callers)
}
