package wargame

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nfrund/eventbus/internal/eventbus"
	"github.com/nfrund/eventbus/internal/modules/wargame/events"
	"github.com/nfrund/eventbus/internal/modules/wargame/topics"
	"github.com/nfrund/eventbus/internal/pubsub"
)

// Relay moves hits from the pubsub ingress onto the event bus as damage
// notifications.
type Relay struct {
	bus        *eventbus.Bus
	subscriber pubsub.Subscriber
	logger     *slog.Logger

	startOnce sync.Once
	startErr  error
	unheard   atomic.Int64
}

// NewRelay creates a relay. Call Start to begin consuming hits.
func NewRelay(bus *eventbus.Bus, sub pubsub.Subscriber, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		bus:        bus,
		subscriber: sub,
		logger:     logger.With("component", "wargame.relay"),
	}
}

// Start subscribes to the hit topic. Only the first call subscribes; later
// calls return its result. Delivery outlives ctx and ends when the subscriber
// is closed.
func (r *Relay) Start(ctx context.Context) error {
	r.startOnce.Do(func() {
		r.logger.Info("Starting wargame relay", "topic", topics.TopicHit.Name())
		r.startErr = pubsub.Subscribe(context.WithoutCancel(ctx), r.subscriber, topics.TopicHit, r.handleHit)
	})
	return r.startErr
}

// Unheard returns how many hits found no damage listener.
func (r *Relay) Unheard() int64 {
	return r.unheard.Load()
}

func (r *Relay) handleHit(ctx context.Context, hit events.Hit) error {
	damage := events.Damage{
		HitID:    hit.ID,
		Round:    hit.Round,
		Target:   hit.Target,
		Attacker: hit.Attacker,
		Amount:   hit.Amount,
	}

	heard := eventbus.Publish(r.bus, Damaged, func(l DamageListener) error {
		return l.OnDamaged(damage)
	})
	if !heard {
		r.unheard.Add(1)
		r.logger.Warn("Hit landed with nobody listening", "hit_id", hit.ID, "target", hit.Target)
	}
	return nil
}
