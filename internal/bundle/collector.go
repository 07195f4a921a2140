package bundle

import (
	"sync"

	"github.com/strrl/repo-context/internal/sessions"
	"github.com/strrl/repo-context/pkg/models"
)

// Collector is a session consumer that keeps the latest fetch result and
// selection, and can render them as a bundle at any time.
type Collector struct {
	mu        sync.Mutex
	snapshot  *models.Snapshot
	result    sessions.FetchResult
	selection []string
	fetches   int
	publishes int
	onChange  func()
}

// NewCollector creates a collector. onChange, when set, runs after every
// update outside the collector lock.
func NewCollector(onChange func()) *Collector {
	return &Collector{onChange: onChange}
}

func (c *Collector) FilesFetched(result sessions.FetchResult) {
	c.mu.Lock()
	c.result = result
	c.snapshot = models.NewSnapshot(result.Files)
	c.fetches++
	c.mu.Unlock()
	c.changed()
}

func (c *Collector) SelectionChanged(paths []string) {
	c.mu.Lock()
	c.selection = append([]string(nil), paths...)
	c.publishes++
	c.mu.Unlock()
	c.changed()
}

// Selection returns the last published selection
func (c *Collector) Selection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.selection...)
}

// Result returns the last fetch result
func (c *Collector) Result() (sessions.FetchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.fetches > 0
}

// Counts returns how many fetch results and selections were received
func (c *Collector) Counts() (fetches, publishes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches, c.publishes
}

// Bundle assembles the last selection with task
func (c *Collector) Bundle(task string) string {
	c.mu.Lock()
	snap, selection := c.snapshot, c.selection
	c.mu.Unlock()
	return Assemble(task, snap, selection)
}

func (c *Collector) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

var _ sessions.Consumer = (*Collector)(nil)
