package console

import (
	"context"
	"errors"
	"sort"
	"sync"

	"inventory.GO/console/notify"
)

const (
	PathDashboard = "/"
	PathInventory = "/inventory"
	PathAddItem   = "/add"
	PathScanner   = "/scan"
	PathUpload    = "/upload"
)

// ErrUnknownPath is returned when navigating to a path with no page.
var ErrUnknownPath = errors.New("console: unknown path")

// Page is a mounted controller.
type Page interface {
	Status() Status
	Err() error
	FieldError(field string) string
	Close()
}

// Factory mounts a page. Pages with data load it before returning.
type Factory func(ctx context.Context, api API, notes *notify.Center) Page

// Routes maps every shell path to its page.
func Routes() map[string]Factory {
	return map[string]Factory{
		PathDashboard: func(ctx context.Context, api API, notes *notify.Center) Page {
			d := NewDashboard(ctx, api, notes)
			d.Load()
			return d
		},
		PathInventory: func(ctx context.Context, api API, notes *notify.Center) Page {
			l := NewInventoryList(ctx, api, notes)
			l.Load()
			return l
		},
		PathAddItem: func(ctx context.Context, api API, notes *notify.Center) Page {
			return NewAddItem(ctx, api, notes)
		},
		PathScanner: func(ctx context.Context, api API, notes *notify.Center) Page {
			return NewScanner(ctx, api, notes)
		},
		PathUpload: func(ctx context.Context, api API, notes *notify.Center) Page {
			return NewImageUpload(ctx, api, notes)
		},
	}
}

// Shell owns the current page. Navigating closes it and mounts a new one;
// no state is carried between pages.
type Shell struct {
	mu      sync.Mutex
	ctx     context.Context
	api     API
	notes   *notify.Center
	routes  map[string]Factory
	path    string
	current Page
	shown   map[string]bool
	confirm func(prompt string) bool
}

// NewShell resets the process wide notifications and returns a shell with
// no page mounted.
func NewShell(ctx context.Context, api API) *Shell {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Shell{
		ctx:     ctx,
		api:     api,
		notes:   notify.Init(),
		routes:  Routes(),
		shown:   make(map[string]bool),
		confirm: func(string) bool { return true },
	}
}

// Paths lists the known paths in order.
func (s *Shell) Paths() []string {
	out := make([]string, 0, len(s.routes))
	for p := range s.routes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s *Shell) Navigate(path string) (Page, error) {
	f, ok := s.routes[path]
	if !ok {
		return nil, ErrUnknownPath
	}
	s.mu.Lock()
	prev := s.current
	s.current, s.path = nil, path
	s.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	p := f(s.ctx, s.api, s.notes)
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	return p, nil
}

func (s *Shell) Current() (string, Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path, s.current
}

func (s *Shell) Notes() *notify.Center {
	return s.notes
}

// SetConfirm replaces the prompt used before destructive actions.
func (s *Shell) SetConfirm(f func(prompt string) bool) {
	s.mu.Lock()
	s.confirm = f
	s.mu.Unlock()
}

// freshToasts returns the live toasts not returned before.
func (s *Shell) freshToasts() []notify.Toast {
	var out []notify.Toast
	s.mu.Lock()
	defer s.mu.Unlock()
	live := make(map[string]bool)
	for _, t := range s.notes.Active() {
		live[t.ID] = true
		if !s.shown[t.ID] {
			s.shown[t.ID] = true
			out = append(out, t)
		}
	}
	for id := range s.shown {
		if !live[id] {
			delete(s.shown, id)
		}
	}
	return out
}

// Close tears down the current page.
func (s *Shell) Close() {
	s.mu.Lock()
	p := s.current
	s.current = nil
	s.mu.Unlock()
	if p != nil {
		p.Close()
	}
}
