package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"

	"github.com/nfrund/eventbus/internal/config"
	"github.com/nfrund/eventbus/internal/eventbus"
	"github.com/nfrund/eventbus/internal/modules/wargame"
	"github.com/nfrund/eventbus/internal/pubsub"
)

// NewContainer wires the services needed for a skirmish run. The pubsub bridge
// blocks publishers until handlers ack, so a run's effects are complete when
// the engine returns.
func NewContainer(cfg *config.Config, fs afero.Fs, logger *slog.Logger) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, fs)
	do.ProvideValue(injector, logger)

	do.Provide(injector, func(i do.Injector) (*eventbus.Bus, error) {
		return eventbus.New(eventbus.WithLogger(do.MustInvoke[*slog.Logger](i))), nil
	})
	do.Provide(injector, func(i do.Injector) (*pubsub.WatermillBridge, error) {
		return pubsub.NewWatermillBridge(pubsub.BridgeConfig{
			BlockPublishUntilAck: true,
			Logger:               do.MustInvoke[*slog.Logger](i),
		}), nil
	})
	do.Provide(injector, func(i do.Injector) (*wargame.Engine, error) {
		return wargame.NewEngine(
			do.MustInvoke[*eventbus.Bus](i),
			do.MustInvoke[*pubsub.WatermillBridge](i),
			do.MustInvoke[*slog.Logger](i),
		), nil
	})
	do.Provide(injector, func(i do.Injector) (*wargame.Relay, error) {
		return wargame.NewRelay(
			do.MustInvoke[*eventbus.Bus](i),
			do.MustInvoke[*pubsub.WatermillBridge](i),
			do.MustInvoke[*slog.Logger](i),
		), nil
	})
	do.Provide(injector, func(i do.Injector) (*wargame.Scoreboard, error) {
		return wargame.NewScoreboard(), nil
	})
	do.Provide(injector, func(i do.Injector) (*wargame.Skirmish, error) {
		return wargame.NewSkirmish(
			do.MustInvoke[*eventbus.Bus](i),
			do.MustInvoke[*wargame.Engine](i),
			do.MustInvoke[*wargame.Relay](i),
			do.MustInvoke[*wargame.Scoreboard](i),
			do.MustInvoke[*slog.Logger](i),
		), nil
	})

	return injector
}

// RunScenario loads the scenario at path and plays it.
func RunScenario(ctx context.Context, injector do.Injector, path string) (*wargame.Result, error) {
	sc, skirmish, err := prepare(injector, path)
	if err != nil {
		return nil, err
	}
	return skirmish.Play(ctx, sc)
}

// ListKinds loads the scenario at path and reports the wargame kinds with
// the subscribers its deployment puts on the bus.
func ListKinds(injector do.Injector, path string) ([]eventbus.KindInfo, error) {
	sc, skirmish, err := prepare(injector, path)
	if err != nil {
		return nil, err
	}
	return skirmish.Kinds(sc), nil
}

func prepare(injector do.Injector, path string) (*wargame.Scenario, *wargame.Skirmish, error) {
	fs, err := do.Invoke[afero.Fs](injector)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve filesystem: %w", err)
	}
	sc, err := wargame.LoadScenario(fs, path)
	if err != nil {
		return nil, nil, err
	}

	skirmish, err := do.Invoke[*wargame.Skirmish](injector)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve skirmish: %w", err)
	}
	return sc, skirmish, nil
}

// Shutdown closes the pubsub bridge and the container.
func Shutdown(injector *do.RootScope) {
	if bridge, err := do.Invoke[*pubsub.WatermillBridge](injector); err == nil {
		if err := bridge.Close(); err != nil {
			slog.Warn("Failed to close pubsub bridge", "error", err)
		}
	}
	injector.Shutdown()
}
