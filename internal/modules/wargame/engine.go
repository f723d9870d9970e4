package wargame

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nfrund/eventbus/internal/eventbus"
	"github.com/nfrund/eventbus/internal/modules/wargame/events"
	"github.com/nfrund/eventbus/internal/modules/wargame/topics"
	"github.com/nfrund/eventbus/internal/pubsub"
)

// Engine drives a scenario: it announces each round on the bus and fires one
// hit per round through the pubsub publisher.
type Engine struct {
	bus       *eventbus.Bus
	publisher pubsub.Publisher
	logger    *slog.Logger

	mu      sync.Mutex
	targets []string
}

var _ DestroyedListener = (*Engine)(nil)

func NewEngine(bus *eventbus.Bus, pub pubsub.Publisher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		bus:       bus,
		publisher: pub,
		logger:    logger.With("component", "wargame.engine"),
	}
}

// OnDestroyed drops the unit from the target pool.
func (e *Engine) OnDestroyed(d events.Destruction) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.targets = slices.DeleteFunc(e.targets, func(id string) bool { return id == d.UnitID })
	return nil
}

// Run plays up to sc.Rounds rounds and returns how many were played. It stops
// early once every target is destroyed or ctx is canceled.
func (e *Engine) Run(ctx context.Context, sc *Scenario) (int, error) {
	rng := rand.New(rand.NewSource(sc.Seed))

	e.mu.Lock()
	e.targets = sc.UnitIDs()
	e.mu.Unlock()

	eventbus.Subscribe[DestroyedListener](e.bus, Destroyed, e)
	defer e.bus.UnsubscribeAll(e)

	played := 0
	for round := 1; round <= sc.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return played, err
		}

		targets := e.livingTargets()
		if len(targets) == 0 {
			e.logger.Info("No targets left", "round", round)
			break
		}

		turn := events.TurnChange{Round: round, Timestamp: now()}
		if heard := eventbus.Publish(e.bus, TurnChanged, func(l TurnListener) error {
			return l.OnTurnChanged(turn)
		}); !heard {
			e.logger.Warn("Nobody answered the turn change", "round", round)
		}

		hit := events.Hit{
			ID:        uuid.NewString(),
			Round:     round,
			Target:    targets[rng.Intn(len(targets))],
			Attacker:  sc.Attackers[rng.Intn(len(sc.Attackers))],
			Amount:    rng.Intn(30) + 5,
			Timestamp: now(),
		}
		if err := pubsub.Publish(ctx, e.publisher, topics.TopicHit, hit); err != nil {
			return played, fmt.Errorf("publish hit for round %d: %w", round, err)
		}
		played++
	}

	return played, nil
}

func (e *Engine) livingTargets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.targets)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
