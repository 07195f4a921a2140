package sessions

import (
	"sync"
	"time"
)

const progressCap = 95.0

// progressTracker is a cosmetic linear estimate of fetch progress.
// It never gates anything.
type progressTracker struct {
	mu       sync.Mutex
	value    float64
	expected time.Duration
	interval time.Duration
	stop     chan struct{}
}

func newProgressTracker(expected, interval time.Duration) *progressTracker {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	if expected < interval {
		expected = interval
	}
	return &progressTracker{expected: expected, interval: interval}
}

// Start resets the estimate to zero and begins ticking towards the cap.
func (p *progressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.haltLocked()
	p.value = 0
	stop := make(chan struct{})
	p.stop = stop
	increment := 100 / (float64(p.expected) / float64(p.interval))

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.mu.Lock()
				if p.stop != stop {
					p.mu.Unlock()
					return
				}
				p.value += increment
				capped := p.value >= progressCap
				if capped {
					p.value = progressCap
					p.haltLocked()
				}
				p.mu.Unlock()
				if capped {
					return
				}
			}
		}
	}()
}

// Finish stops ticking and pins the value to 100 or 0.
func (p *progressTracker) Finish(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.haltLocked()
	if ok {
		p.value = 100
	} else {
		p.value = 0
	}
}

// Stop halts ticking and keeps the current value.
func (p *progressTracker) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.haltLocked()
}

func (p *progressTracker) Value() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

func (p *progressTracker) haltLocked() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}
