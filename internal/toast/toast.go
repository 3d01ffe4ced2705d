// Package toast implements the ephemeral status-message queue. Toasts
// are append-only and self-expiring; removal is idempotent.
package toast

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Severity classifies a toast for presentation.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// Toast is one queued status message.
type Toast struct {
	ID       string
	Message  string
	Severity Severity
}

// DefaultTTL is how long a toast stays visible unless dismissed.
const DefaultTTL = 3000 * time.Millisecond

// Queue holds the active toasts. Expiry timers call back into the
// queue, so all mutation is serialized behind the mutex.
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
	ttl    time.Duration
	seq    atomic.Int64
	// onChange, when set, is invoked after every mutation with a
	// snapshot of the active toasts.
	onChange func([]Toast)
}

// NewQueue creates a Queue with the given TTL; ttl <= 0 uses
// DefaultTTL.
func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{ttl: ttl}
}

// OnChange registers a snapshot callback fired after every add or
// remove.
func (q *Queue) OnChange(fn func([]Toast)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = fn
}

// Add appends a toast and schedules its expiry. The returned id is
// time-derived, made unique within the session by a sequence suffix.
func (q *Queue) Add(message string, severity Severity) string {
	id := strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + strconv.FormatInt(q.seq.Add(1), 10)

	q.mu.Lock()
	q.toasts = append(q.toasts, Toast{ID: id, Message: message, Severity: severity})
	q.notifyLocked()
	q.mu.Unlock()

	time.AfterFunc(q.ttl, func() { q.Remove(id) })
	return id
}

// Remove dismisses the toast with the given id. Removing an id that is
// already gone is a no-op.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			q.notifyLocked()
			return
		}
	}
}

// Active returns a snapshot of the queued toasts in arrival order.
func (q *Queue) Active() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Toast, len(q.toasts))
	copy(out, q.toasts)
	return out
}

func (q *Queue) notifyLocked() {
	if q.onChange == nil {
		return
	}
	snapshot := make([]Toast, len(q.toasts))
	copy(snapshot, q.toasts)
	q.onChange(snapshot)
}
