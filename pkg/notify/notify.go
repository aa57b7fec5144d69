package notify

import (
	"sync"
	"time"
)

// Severity classifies a user-visible notification.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Notification is a single user-visible message. Sticky notifications stay
// until replaced; everything else auto-dismisses after a fixed delay.
type Notification struct {
	Message  string
	Severity Severity
	Sticky   bool
}

// Notifier receives user-visible notifications from the core components.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a plain function into a Notifier.
type Func func(n Notification)

func (f Func) Notify(n Notification) { f(n) }

const defaultDismissAfter = 4 * time.Second

// Center holds at most one active notification and dismisses non-sticky
// entries after a fixed delay.
type Center struct {
	mu           sync.Mutex
	current      *Notification
	timer        *time.Timer
	dismissAfter time.Duration
}

// NewCenter builds a notification center. A non-positive dismissAfter uses
// the default delay.
func NewCenter(dismissAfter time.Duration) *Center {
	if dismissAfter <= 0 {
		dismissAfter = defaultDismissAfter
	}
	return &Center{dismissAfter: dismissAfter}
}

// Notify replaces the active notification. A sticky notification cancels any
// pending dismissal and persists until the next Notify call.
func (c *Center) Notify(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	entry := n
	c.current = &entry
	if entry.Sticky {
		return
	}
	c.timer = time.AfterFunc(c.dismissAfter, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.current != nil && *c.current == entry {
			c.current = nil
		}
	})
}

// Current returns the active notification, if any.
func (c *Center) Current() *Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	cpy := *c.current
	return &cpy
}

// Dismiss clears the active notification immediately.
func (c *Center) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.current = nil
}

// Recorder collects notifications for tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, n)
}

// All returns a copy of the recorded notifications in order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.entries))
	copy(out, r.entries)
	return out
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() *Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	cpy := r.entries[len(r.entries)-1]
	return &cpy
}

// Reset discards all recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
