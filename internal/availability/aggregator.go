// Package availability keeps the cumulative UP/DOWN counters per domain and
// derives availability percentages from them.
//
// Counters live for the whole process and only ever grow. Domains are
// remembered in the order they were first seen, and every snapshot iterates
// them in that order.
package availability

import (
	"sync"

	"github.com/hamed0406/availability/internal/probe"
)

// Counters holds the cumulative results for one domain.
type Counters struct {
	Up   uint64 `json:"up"`
	Down uint64 `json:"down"`
}

func (c Counters) Total() uint64 { return c.Up + c.Down }

// Percent is Up/(Up+Down)*100, or 0 when nothing was observed yet.
func (c Counters) Percent() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Up) / float64(total) * 100
}

// Aggregator is the only shared mutable state of the monitor. It is safe for
// concurrent use.
type Aggregator struct {
	mu       sync.RWMutex
	order    []string
	counters map[string]*Counters
}

func New() *Aggregator {
	return &Aggregator{
		counters: make(map[string]*Counters),
	}
}

// Observe registers domain with zero counters if it has not been seen yet.
// It reports whether the domain is new.
func (a *Aggregator) Observe(domain string) bool {
	if domain == "" {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, created := a.lookup(domain)
	return created
}

// Update increments the counter matching status for domain.
func (a *Aggregator) Update(domain string, status probe.Status) {
	if domain == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	c, _ := a.lookup(domain)
	if status == probe.StatusUp {
		c.Up++
	} else {
		c.Down++
	}
}

// lookup must be called with mu held for writing.
func (a *Aggregator) lookup(domain string) (*Counters, bool) {
	if c, ok := a.counters[domain]; ok {
		return c, false
	}
	c := &Counters{}
	a.counters[domain] = c
	a.order = append(a.order, domain)
	return c, true
}

// Counters returns a copy of the counters for domain.
func (a *Aggregator) Counters(domain string) (Counters, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.counters[domain]
	if !ok {
		return Counters{}, false
	}
	return *c, true
}

// Len is the number of domains seen so far.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}

// Snapshot computes a point-in-time view of every known domain in
// first-sighting order.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := Snapshot{Domains: make([]DomainAvailability, 0, len(a.order))}
	for _, d := range a.order {
		c := *a.counters[d]
		snap.TotalProbes += c.Total()
		snap.Domains = append(snap.Domains, DomainAvailability{
			Domain:   d,
			Counters: c,
			Percent:  c.Percent(),
		})
	}
	return snap
}
