package suggest

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tracker is the server side of the sequence check. Each page load picks a
// random id and numbers its queries; requests older than the newest one
// seen for that page are dropped before and after the upstream call.
// Tabs sharing a browser never share a page id.
type Tracker struct {
	mu     sync.Mutex
	pages  map[string]*page
	ttl    time.Duration
	now    func() time.Time
	lastGC time.Time
}

type page struct {
	latest   uint64
	lastSeen time.Time
}

// NewTracker creates a tracker that forgets pages idle for ttl.
func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{
		pages: make(map[string]*page),
		ttl:   ttl,
		now:   time.Now,
	}
}

// ValidPageID reports whether id is a UUID, the form pages generate.
func ValidPageID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Begin registers query seq for a page. It returns false if a query with
// the same or a higher number was already seen.
func (t *Tracker) Begin(id string, seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.collect(now)

	p, ok := t.pages[id]
	if !ok {
		t.pages[id] = &page{latest: seq, lastSeen: now}
		return true
	}
	p.lastSeen = now
	if seq <= p.latest {
		return false
	}
	p.latest = seq
	return true
}

// Current reports whether seq is still the newest query of the page.
func (t *Tracker) Current(id string, seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.pages[id]
	return ok && p.latest == seq
}

func (t *Tracker) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pages)
}

// collect drops idle pages at most once per ttl. Callers hold mu.
func (t *Tracker) collect(now time.Time) {
	if t.ttl <= 0 || now.Sub(t.lastGC) < t.ttl {
		return
	}
	t.lastGC = now
	for id, p := range t.pages {
		if now.Sub(p.lastSeen) > t.ttl {
			delete(t.pages, id)
		}
	}
}
