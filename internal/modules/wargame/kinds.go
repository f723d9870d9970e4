package wargame

import (
	"github.com/nfrund/eventbus/internal/eventbus"
	"github.com/nfrund/eventbus/internal/modules/wargame/events"
)

// DamageListener is notified of every damage dealt on the field.
type DamageListener interface {
	OnDamaged(d events.Damage) error
}

// DestroyedListener is notified when a unit is destroyed.
type DestroyedListener interface {
	OnDestroyed(d events.Destruction) error
}

// TurnListener is notified when a new round starts.
type TurnListener interface {
	OnTurnChanged(t events.TurnChange) error
}

var (
	Damaged     = eventbus.NewKind[DamageListener]("wargame.unit.damaged", "A unit took damage")
	Destroyed   = eventbus.NewKind[DestroyedListener]("wargame.unit.destroyed", "A unit was destroyed")
	TurnChanged = eventbus.NewKind[TurnListener]("wargame.turn.changed", "A new round started")
)

// Catalog describes the kinds the wargame module publishes.
func Catalog() []eventbus.KindInfo {
	return []eventbus.KindInfo{Damaged.Info(), Destroyed.Info(), TurnChanged.Info()}
}
