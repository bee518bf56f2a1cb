package virustotal

import (
	"sync"
	"time"
)

// Window is a fixed one-period request budget. The counter resets on the first
// call made a full period after the window opened.
type Window struct {
	mu     sync.Mutex
	limit  int
	period time.Duration
	count  int
	start  time.Time
	now    func() time.Time
}

func NewWindow(limit int, period time.Duration, now func() time.Time) *Window {
	if now == nil {
		now = time.Now
	}
	return &Window{limit: limit, period: period, now: now, start: now()}
}

// Allow consumes one request from the budget if any remains.
func (w *Window) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rollLocked()
	if w.count >= w.limit {
		return false
	}
	w.count++
	return true
}

// Used reports the requests consumed in the current window.
func (w *Window) Used() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rollLocked()
	return w.count
}

func (w *Window) Limit() int { return w.limit }

func (w *Window) rollLocked() {
	if now := w.now(); now.Sub(w.start) >= w.period {
		w.count = 0
		w.start = now
	}
}
