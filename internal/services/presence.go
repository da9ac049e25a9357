package services

import (
	"sync"
	"time"
)

// Presence counts accounts seen within the TTL.
type Presence struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	ttl   time.Duration
	clock Clock
}

func NewPresence(ttl time.Duration, clock Clock) *Presence {
	return &Presence{seen: make(map[string]time.Time), ttl: ttl, clock: clock}
}

func (p *Presence) Touch(accountID string) {
	p.mu.Lock()
	p.seen[accountID] = p.clock.Now()
	p.mu.Unlock()
}

func (p *Presence) Online() int {
	cutoff := p.clock.Now().Add(-p.ttl)
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, at := range p.seen {
		if at.After(cutoff) {
			n++
		}
	}
	return n
}

// Sweep forgets stale accounts and returns how many were removed.
func (p *Presence) Sweep() int {
	cutoff := p.clock.Now().Add(-p.ttl)
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := 0
	for id, at := range p.seen {
		if !at.After(cutoff) {
			delete(p.seen, id)
			removed++
		}
	}
	return removed
}
