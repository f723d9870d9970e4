package wargame

import (
	"maps"
	"slices"
	"sync"

	"github.com/nfrund/eventbus/internal/modules/wargame/events"
)

// Scoreboard tallies hits and kills.
type Scoreboard struct {
	mu        sync.Mutex
	hits      map[string]int
	taken     map[string]int
	destroyed []events.Destruction
}

var (
	_ DamageListener    = (*Scoreboard)(nil)
	_ DestroyedListener = (*Scoreboard)(nil)
)

// NewScoreboard creates an empty scoreboard.
func NewScoreboard() *Scoreboard {
	return &Scoreboard{
		hits:  make(map[string]int),
		taken: make(map[string]int),
	}
}

// OnDamaged counts the hit for its attacker and the damage for its target.
func (s *Scoreboard) OnDamaged(d events.Damage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits[d.Attacker]++
	s.taken[d.Target] += d.Amount
	return nil
}

// OnDestroyed records the kill.
func (s *Scoreboard) OnDestroyed(d events.Destruction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.destroyed = append(s.destroyed, d)
	return nil
}

// Reset clears the tallies.
func (s *Scoreboard) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.hits)
	clear(s.taken)
	s.destroyed = nil
}

// Summary is a point-in-time copy of the scoreboard.
type Summary struct {
	HitsByAttacker map[string]int       `json:"hitsByAttacker"`
	DamageTaken    map[string]int       `json:"damageTaken"`
	Destroyed      []events.Destruction `json:"destroyed"`
}

// Summary returns a copy of the current tallies.
func (s *Scoreboard) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Summary{
		HitsByAttacker: maps.Clone(s.hits),
		DamageTaken:    maps.Clone(s.taken),
		Destroyed:      slices.Clone(s.destroyed),
	}
}
