// Package notify keeps the process wide toast notifications shown by the
// console shell. Toasts expire on their own; nothing has to tear them down.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTTL is how long a toast stays visible.
const DefaultTTL = 5 * time.Second

type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

type Toast struct {
	ID      string
	Level   Level
	Message string
	Created time.Time
}

// Center holds the toasts that have not expired yet.
type Center struct {
	mu     sync.Mutex
	toasts []Toast
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Center)

// WithTTL changes how long toasts live. Non-positive values are ignored.
func WithTTL(d time.Duration) Option {
	return func(c *Center) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Center) { c.now = now }
}

func New(opts ...Option) *Center {
	c := &Center{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Center) Info(msg string)    { c.push(Info, msg) }
func (c *Center) Success(msg string) { c.push(Success, msg) }
func (c *Center) Warning(msg string) { c.push(Warning, msg) }
func (c *Center) Error(msg string)   { c.push(Error, msg) }

func (c *Center) push(level Level, msg string) {
	t := Toast{ID: uuid.NewString(), Level: level, Message: msg}
	c.mu.Lock()
	t.Created = c.now()
	c.toasts = append(c.toasts, t)
	c.mu.Unlock()
	zap.L().Debug("toast", zap.String("level", level.String()), zap.String("message", msg))
}

// Active returns the live toasts, oldest first, and forgets expired ones.
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune()
	out := make([]Toast, len(c.toasts))
	copy(out, c.toasts)
	return out
}

// Dismiss removes the toast with the given id.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.toasts {
		if t.ID == id {
			c.toasts = append(c.toasts[:i], c.toasts[i+1:]...)
			return
		}
	}
}

func (c *Center) prune() {
	now := c.now()
	live := c.toasts[:0]
	for _, t := range c.toasts {
		if now.Sub(t.Created) < c.ttl {
			live = append(live, t)
		}
	}
	c.toasts = live
}

var (
	stdMu sync.Mutex
	std   *Center
)

// Init replaces the process wide center. The shell calls it when it mounts.
func Init(opts ...Option) *Center {
	c := New(opts...)
	stdMu.Lock()
	std = c
	stdMu.Unlock()
	return c
}

// Default returns the process wide center, creating it on first use.
func Default() *Center {
	stdMu.Lock()
	defer stdMu.Unlock()
	if std == nil {
		std = New()
	}
	return std
}
