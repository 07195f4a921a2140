package sessions

import (
	"sort"
	"sync"
	"time"
)

// SelectionStore holds the user-visible file selection of a session.
//
// Mutations apply to a working set immediately. Toggles are published to
// the consumer at most once per debounce window; bulk operations publish
// right away. While locked every user mutator is a no-op.
type SelectionStore struct {
	mu          sync.Mutex
	pubMu       sync.Mutex
	locked      bool
	closed      bool
	order       []string
	known       map[string]struct{}
	highlighted []string
	working     map[string]struct{}
	published   []string
	debounce    time.Duration
	timer       *time.Timer
	pending     bool
	publish     func([]string)
}

// NewSelectionStore creates an empty store. publish receives every
// published selection and may be nil.
func NewSelectionStore(debounce time.Duration, locked bool, publish func([]string)) *SelectionStore {
	return &SelectionStore{
		locked:   locked,
		known:    make(map[string]struct{}),
		working:  make(map[string]struct{}),
		debounce: debounce,
		publish:  publish,
	}
}

// Locked reports whether user mutations are disabled
func (s *SelectionStore) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Toggle flips path in or out of the selection
func (s *SelectionStore) Toggle(path string) bool {
	s.mu.Lock()
	if s.locked || s.closed {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.known[path]; !ok {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.working[path]; ok {
		delete(s.working, path)
	} else {
		s.working[path] = struct{}{}
	}
	s.scheduleLocked()
	s.mu.Unlock()
	return true
}

// SelectAll selects every file of the snapshot
func (s *SelectionStore) SelectAll() bool {
	return s.bulk(func() {
		for _, p := range s.order {
			s.working[p] = struct{}{}
		}
	})
}

// DeselectAll clears the selection
func (s *SelectionStore) DeselectAll() bool {
	return s.bulk(func() {
		s.working = make(map[string]struct{})
	})
}

// SelectHighlighted adds the primary and secondary highlights
func (s *SelectionStore) SelectHighlighted() bool {
	return s.bulk(func() {
		for _, p := range s.highlighted {
			s.working[p] = struct{}{}
		}
	})
}

// AddImportant adds the given paths that exist in the snapshot
func (s *SelectionStore) AddImportant(paths []string) bool {
	return s.bulk(func() {
		for _, p := range paths {
			if _, ok := s.known[p]; ok {
				s.working[p] = struct{}{}
			}
		}
	})
}

func (s *SelectionStore) bulk(mutate func()) bool {
	s.mu.Lock()
	if s.locked || s.closed {
		s.mu.Unlock()
		return false
	}
	mutate()
	s.mu.Unlock()
	s.Flush()
	return true
}

// Visible returns the working selection in path order
func (s *SelectionStore) Visible() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedSet(s.working)
}

// Has reports whether path is in the working selection
func (s *SelectionStore) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.working[path]
	return ok
}

// Published returns the last selection handed to the consumer
func (s *SelectionStore) Published() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.published...)
}

// Flush publishes the working selection now, cancelling a pending publish.
func (s *SelectionStore) Flush() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	if s.closed {
		s.mu.Unlock()
		return
	}
	snapshot := sortedSet(s.working)
	s.published = snapshot
	publish := s.publish
	s.mu.Unlock()

	if publish != nil {
		publish(append([]string(nil), snapshot...))
	}
}

// reset replaces the snapshot the store works against. Selected paths that
// are not part of order are dropped. The result is published immediately.
func (s *SelectionStore) reset(order, highlighted, selected []string) {
	s.mu.Lock()
	s.order = append([]string(nil), order...)
	s.known = make(map[string]struct{}, len(order))
	for _, p := range order {
		s.known[p] = struct{}{}
	}
	s.highlighted = s.highlighted[:0]
	for _, p := range highlighted {
		if _, ok := s.known[p]; ok {
			s.highlighted = append(s.highlighted, p)
		}
	}
	s.working = make(map[string]struct{}, len(selected))
	for _, p := range selected {
		if _, ok := s.known[p]; ok {
			s.working[p] = struct{}{}
		}
	}
	s.mu.Unlock()
	s.Flush()
}

// union adds paths regardless of the lock; used by the session itself.
func (s *SelectionStore) union(paths []string) int {
	s.mu.Lock()
	added := 0
	for _, p := range paths {
		if _, ok := s.known[p]; !ok {
			continue
		}
		if _, ok := s.working[p]; !ok {
			s.working[p] = struct{}{}
			added++
		}
	}
	s.mu.Unlock()
	if added > 0 {
		s.Flush()
	}
	return added
}

func (s *SelectionStore) scheduleLocked() {
	if s.debounce <= 0 {
		s.pending = true
		go s.Flush()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = true
	s.timer = time.AfterFunc(s.debounce, s.flushPending)
}

func (s *SelectionStore) flushPending() {
	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()
	if pending {
		s.Flush()
	}
}

// close stops pending publishes and detaches the consumer
func (s *SelectionStore) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.closed = true
	s.pending = false
	s.publish = nil
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
