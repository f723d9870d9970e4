// Package eventbus provides an in-process, kind-keyed publish/subscribe registry.
//
// A Bus maps message kinds to sets of subscribers. Components exchange
// notifications through it without holding references to each other:
//
//	var Damaged = eventbus.NewKind[DamageListener]("wargame.unit.damaged", "A unit took damage")
//
//	bus := eventbus.New(eventbus.WithLogger(logger))
//	eventbus.Subscribe(bus, Damaged, unit)
//
//	heard := eventbus.Publish(bus, Damaged, func(l DamageListener) error {
//		return l.OnDamaged(hit)
//	})
//	if !heard {
//		// nobody was listening
//	}
//
// Publish is a synchronous fan-out on the caller's goroutine. A subscriber that
// returns an error or panics is reported to the bus Sink and the remaining
// subscribers are still notified. Subscribers may subscribe or unsubscribe
// (themselves or others) from inside a notification.
//
// Subscribers are compared with ==, so pointer subscribers are identified by
// reference. Subscribing a value whose dynamic type is not comparable panics.
package eventbus
