package executor

import (
	"sort"
	"sync"
)

// SessionTracker records files created or modified during one run so repeat
// writes to our own outputs never need confirmation.
type SessionTracker struct {
	mu       sync.Mutex
	created  map[string]struct{}
	modified map[string]struct{}
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		created:  make(map[string]struct{}),
		modified: make(map[string]struct{}),
	}
}

func (t *SessionTracker) TrackCreated(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.created[path] = struct{}{}
}

func (t *SessionTracker) TrackModified(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modified[path] = struct{}{}
}

// Owns reports whether this session created or modified the path.
func (t *SessionTracker) Owns(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.created[path]; ok {
		return true
	}
	_, ok := t.modified[path]
	return ok
}

// CreatedFiles returns the created paths in insertion-independent sorted order.
func (t *SessionTracker) CreatedFiles() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.created))
	for p := range t.created {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (t *SessionTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.created = make(map[string]struct{})
	t.modified = make(map[string]struct{})
}
