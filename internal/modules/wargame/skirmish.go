package wargame

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/nfrund/eventbus/internal/eventbus"
)

// UnitStatus is a unit's state at the end of a skirmish.
type UnitStatus struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	HP    int    `json:"hp"`
	Alive bool   `json:"alive"`
}

// Result reports a finished skirmish.
type Result struct {
	Scenario     string         `json:"scenario"`
	RoundsPlayed int            `json:"roundsPlayed"`
	Units        []UnitStatus   `json:"units"`
	Score        Summary        `json:"score"`
	UnheardHits  int64          `json:"unheardHits"`
	Bus          eventbus.Stats `json:"bus"`
}

// Skirmish wires the engine, relay, scoreboard and units of one scenario
// around a shared bus.
type Skirmish struct {
	bus        *eventbus.Bus
	engine     *Engine
	relay      *Relay
	scoreboard *Scoreboard
	logger     *slog.Logger
}

// NewSkirmish creates a skirmish from its collaborators.
func NewSkirmish(bus *eventbus.Bus, engine *Engine, relay *Relay, scoreboard *Scoreboard, logger *slog.Logger) *Skirmish {
	if logger == nil {
		logger = slog.Default()
	}
	return &Skirmish{
		bus:        bus,
		engine:     engine,
		relay:      relay,
		scoreboard: scoreboard,
		logger:     logger.With("component", "wargame.skirmish"),
	}
}

// Play deploys the scenario's units and runs the engine to completion. Hits
// travel through the pubsub ingress; a publisher that blocks until handlers
// ack makes the result complete as soon as Play returns. Play may be called
// again once it has returned; each call starts from a fresh scoreboard.
func (s *Skirmish) Play(ctx context.Context, sc *Scenario) (*Result, error) {
	s.logger.Info("Starting skirmish", "scenario", sc.Name, "units", len(sc.Units), "rounds", sc.Rounds)

	if err := s.relay.Start(ctx); err != nil {
		return nil, fmt.Errorf("start relay: %w", err)
	}

	s.scoreboard.Reset()
	units, withdraw := s.deploy(sc)
	defer withdraw()

	played, err := s.engine.Run(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("run scenario %q: %w", sc.Name, err)
	}

	result := &Result{
		Scenario:     sc.Name,
		RoundsPlayed: played,
		Score:        s.scoreboard.Summary(),
		UnheardHits:  s.relay.Unheard(),
		Bus:          s.bus.Stats(),
	}
	for _, u := range units {
		result.Units = append(result.Units, UnitStatus{ID: u.ID(), Name: u.Name(), HP: u.HP(), Alive: u.Alive()})
	}

	s.logger.Info("Skirmish finished", "rounds", played, "destroyed", len(result.Score.Destroyed))
	return result, nil
}

// Kinds deploys the scenario without playing it and reports every wargame
// kind with the number of subscribers it has at the start of a battle,
// sorted by name.
func (s *Skirmish) Kinds(sc *Scenario) []eventbus.KindInfo {
	_, withdraw := s.deploy(sc)
	defer withdraw()

	kinds := s.bus.Kinds()
	for _, info := range Catalog() {
		if !slices.ContainsFunc(kinds, func(k eventbus.KindInfo) bool { return k.Name == info.Name }) {
			kinds = append(kinds, info)
		}
	}
	slices.SortFunc(kinds, func(a, b eventbus.KindInfo) int { return strings.Compare(a.Name, b.Name) })
	return kinds
}

// deploy subscribes the scoreboard and one unit per definition. withdraw
// takes all of them off the bus again.
func (s *Skirmish) deploy(sc *Scenario) (units []*Unit, withdraw func()) {
	eventbus.Subscribe[DamageListener](s.bus, Damaged, s.scoreboard)
	eventbus.Subscribe[DestroyedListener](s.bus, Destroyed, s.scoreboard)

	units = make([]*Unit, 0, len(sc.Units))
	for _, def := range sc.Units {
		u := NewUnit(s.bus, def, s.logger)
		u.Deploy()
		units = append(units, u)
	}

	return units, func() {
		s.bus.UnsubscribeAll(s.scoreboard)
		for _, u := range units {
			s.bus.UnsubscribeAll(u)
		}
	}
}
