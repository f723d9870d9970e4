package wargame

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nfrund/eventbus/internal/eventbus"
	"github.com/nfrund/eventbus/internal/modules/wargame/events"
)

// Unit is a combatant on the field. It listens for damage and turn changes
// and leaves the bus entirely once destroyed.
type Unit struct {
	id     string
	name   string
	bus    *eventbus.Bus
	logger *slog.Logger

	mu     sync.Mutex
	hp     int
	rounds int
}

var (
	_ DamageListener = (*Unit)(nil)
	_ TurnListener   = (*Unit)(nil)
)

// NewUnit creates a unit from its scenario definition. It does not subscribe
// until Deploy is called.
func NewUnit(bus *eventbus.Bus, spec UnitSpec, logger *slog.Logger) *Unit {
	if logger == nil {
		logger = slog.Default()
	}
	return &Unit{
		id:     spec.ID,
		name:   spec.Name,
		hp:     spec.HP,
		bus:    bus,
		logger: logger.With("unit", spec.ID),
	}
}

// Deploy subscribes the unit to damage and turn notifications.
func (u *Unit) Deploy() {
	eventbus.Subscribe[DamageListener](u.bus, Damaged, u)
	eventbus.Subscribe[TurnListener](u.bus, TurnChanged, u)
}

// ID returns the unit identifier.
func (u *Unit) ID() string { return u.id }

// Name returns the display name.
func (u *Unit) Name() string { return u.name }

// HP returns the remaining hit points.
func (u *Unit) HP() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hp
}

// Alive reports whether the unit still has hit points.
func (u *Unit) Alive() bool {
	return u.HP() > 0
}

// RoundsSeen returns how many turn changes reached the unit.
func (u *Unit) RoundsSeen() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rounds
}

// OnDamaged applies damage aimed at this unit and ignores the rest. A lethal
// hit unsubscribes the unit from every kind and announces its destruction.
func (u *Unit) OnDamaged(d events.Damage) error {
	if d.Target != u.id {
		return nil
	}
	if d.Amount < 0 {
		return fmt.Errorf("unit %s: negative damage %d from %s", u.id, d.Amount, d.Attacker)
	}

	u.mu.Lock()
	if u.hp <= 0 {
		u.mu.Unlock()
		return nil
	}
	u.hp -= d.Amount
	hp := u.hp
	u.mu.Unlock()

	u.logger.Info("Unit hit", "attacker", d.Attacker, "damage", d.Amount, "hp", hp, "round", d.Round)
	if hp > 0 {
		return nil
	}

	u.bus.UnsubscribeAll(u)
	destruction := events.Destruction{
		UnitID:      u.id,
		UnitName:    u.name,
		DestroyedBy: d.Attacker,
		Round:       d.Round,
	}
	eventbus.Publish(u.bus, Destroyed, func(l DestroyedListener) error {
		return l.OnDestroyed(destruction)
	})
	u.logger.Info("Unit destroyed", "attacker", d.Attacker, "round", d.Round)
	return nil
}

// OnTurnChanged records the new round.
func (u *Unit) OnTurnChanged(t events.TurnChange) error {
	u.mu.Lock()
	u.rounds++
	u.mu.Unlock()

	u.logger.Debug("Unit ready", "round", t.Round)
	return nil
}
