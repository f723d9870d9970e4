package eventbus_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/eventbus/internal/eventbus"
)

// listener is the capability behind the test kinds.
type listener interface {
	ID() string
}

type watcher struct {
	id string
}

func (p *watcher) ID() string { return p.id }

// auditor is a second capability used to prove kinds with equal names but
// different capabilities stay apart.
type auditor interface {
	Audit() string
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Report(err error) {
	m.Called(err)
}

func newBus(t *testing.T) (*eventbus.Bus, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	return eventbus.New(eventbus.WithSink(sink)), sink
}

type recordingSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *recordingSink) Report(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *recordingSink) reported() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

var (
	damaged = eventbus.NewKind[listener]("wargame.unit.damaged", "A unit took damage")
	healed  = eventbus.NewKind[listener]("wargame.unit.healed", "A unit was healed")
)

// collect publishes kind and returns the ids of the subscribers reached.
func collect(b *eventbus.Bus, kind eventbus.Kind[listener]) ([]string, bool) {
	var ids []string
	heard := eventbus.Publish(b, kind, func(l listener) error {
		ids = append(ids, l.ID())
		return nil
	})
	return ids, heard
}

func TestPublish(t *testing.T) {
	t.Run("Delivers once to a subscriber", func(t *testing.T) {
		bus, _ := newBus(t)
		eventbus.Subscribe[listener](bus, damaged, &watcher{id: "s1"})

		ids, heard := collect(bus, damaged)
		assert.True(t, heard)
		assert.Equal(t, []string{"s1"}, ids)
	})

	t.Run("Duplicate subscription is stored once", func(t *testing.T) {
		bus, _ := newBus(t)
		s1 := &watcher{id: "s1"}
		eventbus.Subscribe[listener](bus, damaged, s1)
		eventbus.Subscribe[listener](bus, damaged, s1)

		ids, _ := collect(bus, damaged)
		assert.Equal(t, []string{"s1"}, ids)
		assert.Equal(t, 1, eventbus.Count(bus, damaged))
	})

	t.Run("No subscribers reports no recipients", func(t *testing.T) {
		bus, _ := newBus(t)
		calls := 0
		heard := eventbus.Publish(bus, damaged, func(listener) error {
			calls++
			return nil
		})
		assert.False(t, heard)
		assert.Zero(t, calls)
	})

	t.Run("Emptied kind reports no recipients", func(t *testing.T) {
		bus, _ := newBus(t)
		s1 := &watcher{id: "s1"}
		eventbus.Subscribe[listener](bus, damaged, s1)
		eventbus.Unsubscribe[listener](bus, damaged, s1)

		ids, heard := collect(bus, damaged)
		assert.False(t, heard)
		assert.Empty(t, ids)
	})

	t.Run("Damaged scenario", func(t *testing.T) {
		bus, _ := newBus(t)
		s1 := &watcher{id: "s1"}
		s2 := &watcher{id: "s2"}
		eventbus.Subscribe[listener](bus, damaged, s1)
		eventbus.Subscribe[listener](bus, damaged, s2)

		ids, heard := collect(bus, damaged)
		assert.True(t, heard)
		assert.ElementsMatch(t, []string{"s1", "s2"}, ids)

		eventbus.Unsubscribe[listener](bus, damaged, s1)
		ids, heard = collect(bus, damaged)
		assert.True(t, heard)
		assert.Equal(t, []string{"s2"}, ids)
	})

	t.Run("Kinds are independent", func(t *testing.T) {
		bus, _ := newBus(t)
		eventbus.Subscribe[listener](bus, damaged, &watcher{id: "s1"})

		ids, heard := collect(bus, healed)
		assert.False(t, heard)
		assert.Empty(t, ids)
	})

	t.Run("Nil invoker panics", func(t *testing.T) {
		bus, _ := newBus(t)
		assert.Panics(t, func() {
			eventbus.Publish(bus, damaged, nil)
		})
	})
}

func TestUnsubscribe(t *testing.T) {
	t.Run("Unknown kind and subscriber are ignored", func(t *testing.T) {
		bus, _ := newBus(t)
		assert.NotPanics(t, func() {
			eventbus.Unsubscribe[listener](bus, damaged, &watcher{id: "ghost"})
		})

		eventbus.Subscribe[listener](bus, damaged, &watcher{id: "s1"})
		eventbus.Unsubscribe[listener](bus, damaged, &watcher{id: "s1"})
		assert.Equal(t, 1, eventbus.Count(bus, damaged), "a different pointer is a different subscriber")
	})

	t.Run("UnsubscribeAll removes from every kind", func(t *testing.T) {
		bus, _ := newBus(t)
		s1 := &watcher{id: "s1"}
		s2 := &watcher{id: "s2"}
		eventbus.Subscribe[listener](bus, damaged, s1)
		eventbus.Subscribe[listener](bus, healed, s1)
		eventbus.Subscribe[listener](bus, healed, s2)

		bus.UnsubscribeAll(s1)

		ids, heard := collect(bus, damaged)
		assert.False(t, heard)
		assert.Empty(t, ids)

		ids, heard = collect(bus, healed)
		assert.True(t, heard)
		assert.Equal(t, []string{"s2"}, ids)
	})

	t.Run("UnsubscribeAll nil panics", func(t *testing.T) {
		bus, _ := newBus(t)
		assert.Panics(t, func() { bus.UnsubscribeAll(nil) })
	})
}

func TestClear(t *testing.T) {
	bus, _ := newBus(t)
	eventbus.Subscribe[listener](bus, damaged, &watcher{id: "s1"})
	eventbus.Subscribe[listener](bus, healed, &watcher{id: "s2"})
	collect(bus, damaged)

	bus.Clear()

	_, heard := collect(bus, damaged)
	assert.False(t, heard)
	_, heard = collect(bus, healed)
	assert.False(t, heard)
	assert.Empty(t, bus.Kinds())

	fresh := eventbus.New()
	assert.Equal(t, fresh.Stats().Kinds, bus.Stats().Kinds)
	assert.Zero(t, bus.Stats().Subscriptions)
}

func TestFaultIsolation(t *testing.T) {
	t.Run("Errors reach the sink once each and delivery continues", func(t *testing.T) {
		sink := &mockSink{}
		bus := eventbus.New(eventbus.WithSink(sink))
		boom := errors.New("boom")

		for _, id := range []string{"bad1", "ok1", "bad2", "ok2"} {
			eventbus.Subscribe[listener](bus, damaged, &watcher{id: id})
		}

		sink.On("Report", mock.MatchedBy(func(err error) bool {
			return errors.Is(err, boom)
		})).Twice()

		var reached []string
		heard := eventbus.Publish(bus, damaged, func(l listener) error {
			reached = append(reached, l.ID())
			if l.ID() == "bad1" || l.ID() == "bad2" {
				return boom
			}
			return nil
		})

		assert.True(t, heard)
		assert.ElementsMatch(t, []string{"bad1", "ok1", "bad2", "ok2"}, reached)
		sink.AssertExpectations(t)
		sink.AssertNumberOfCalls(t, "Report", 2)
	})

	t.Run("Panics are recovered and reported", func(t *testing.T) {
		bus, sink := newBus(t)
		eventbus.Subscribe[listener](bus, damaged, &watcher{id: "panicky"})
		eventbus.Subscribe[listener](bus, damaged, &watcher{id: "steady"})

		var reached []string
		assert.NotPanics(t, func() {
			eventbus.Publish(bus, damaged, func(l listener) error {
				reached = append(reached, l.ID())
				if l.ID() == "panicky" {
					panic("lost the plot")
				}
				return nil
			})
		})

		assert.ElementsMatch(t, []string{"panicky", "steady"}, reached)
		errs := sink.reported()
		require.Len(t, errs, 1)

		var dispatchErr *eventbus.DispatchError
		require.ErrorAs(t, errs[0], &dispatchErr)
		assert.True(t, dispatchErr.Recovered())
		assert.Equal(t, "lost the plot", dispatchErr.Panic)
		assert.Equal(t, damaged.Name(), dispatchErr.Kind)
		assert.Equal(t, "panicky", dispatchErr.Subscriber.(listener).ID())
		assert.NotEmpty(t, dispatchErr.Stack)
		assert.Contains(t, dispatchErr.Error(), "panicked")
	})

	t.Run("Panics with an error unwrap to it", func(t *testing.T) {
		bus, sink := newBus(t)
		boom := errors.New("boom")
		eventbus.Subscribe[listener](bus, damaged, &watcher{id: "s1"})

		eventbus.Publish(bus, damaged, func(listener) error { panic(boom) })

		errs := sink.reported()
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], boom)
	})
}

func TestReentrantDispatch(t *testing.T) {
	t.Run("Subscribers unsubscribing themselves", func(t *testing.T) {
		bus, sink := newBus(t)
		for _, id := range []string{"a", "b", "c"} {
			eventbus.Subscribe[listener](bus, damaged, &watcher{id: id})
		}

		visits := map[string]int{}
		heard := eventbus.Publish(bus, damaged, func(l listener) error {
			visits[l.ID()]++
			eventbus.Unsubscribe(bus, damaged, l)
			return nil
		})

		assert.True(t, heard)
		assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, visits)
		assert.Zero(t, eventbus.Count(bus, damaged))
		assert.Empty(t, sink.reported())
	})

	t.Run("Subscriber removing another is never visited twice", func(t *testing.T) {
		bus, _ := newBus(t)
		hunter := &watcher{id: "hunter"}
		prey := &watcher{id: "prey"}
		eventbus.Subscribe[listener](bus, damaged, hunter)
		eventbus.Subscribe[listener](bus, damaged, prey)

		visits := map[string]int{}
		eventbus.Publish(bus, damaged, func(l listener) error {
			visits[l.ID()]++
			if l == listener(hunter) {
				bus.UnsubscribeAll(prey)
			}
			return nil
		})

		assert.Equal(t, 1, visits["hunter"])
		assert.LessOrEqual(t, visits["prey"], 1)

		ids, _ := collect(bus, damaged)
		assert.Equal(t, []string{"hunter"}, ids)
	})

	t.Run("Removed before its turn is skipped", func(t *testing.T) {
		bus, _ := newBus(t)
		subs := []*watcher{{id: "a"}, {id: "b"}, {id: "c"}, {id: "d"}}
		for _, s := range subs {
			eventbus.Subscribe[listener](bus, damaged, s)
		}

		// The first visited subscriber removes everyone else.
		var visited []string
		eventbus.Publish(bus, damaged, func(l listener) error {
			visited = append(visited, l.ID())
			for _, s := range subs {
				if listener(s) != l {
					eventbus.Unsubscribe[listener](bus, damaged, s)
				}
			}
			return nil
		})

		assert.Len(t, visited, 1)
	})

	t.Run("Subscriber added mid-pass waits for the next publish", func(t *testing.T) {
		bus, _ := newBus(t)
		late := &watcher{id: "late"}
		eventbus.Subscribe[listener](bus, damaged, &watcher{id: "early"})

		ids := []string{}
		eventbus.Publish(bus, damaged, func(l listener) error {
			ids = append(ids, l.ID())
			eventbus.Subscribe[listener](bus, damaged, late)
			return nil
		})
		assert.Equal(t, []string{"early"}, ids)

		ids, _ = collect(bus, damaged)
		assert.ElementsMatch(t, []string{"early", "late"}, ids)
	})

	t.Run("Clear mid-pass stops remaining deliveries", func(t *testing.T) {
		bus, _ := newBus(t)
		for _, id := range []string{"a", "b", "c"} {
			eventbus.Subscribe[listener](bus, damaged, &watcher{id: id})
		}

		calls := 0
		heard := eventbus.Publish(bus, damaged, func(listener) error {
			calls++
			bus.Clear()
			return nil
		})
		assert.True(t, heard)
		assert.Equal(t, 1, calls)
	})

	t.Run("Clear mid-pass leaves the counters of a new bus", func(t *testing.T) {
		bus, sink := newBus(t)
		eventbus.Subscribe[listener](bus, damaged, &watcher{id: "s1"})

		heard := eventbus.Publish(bus, damaged, func(listener) error {
			bus.Clear()
			return errors.New("failed after clear")
		})
		assert.True(t, heard)
		assert.Len(t, sink.reported(), 1, "the fault is still reported")
		assert.Equal(t, eventbus.New().Stats(), bus.Stats())
	})
}

func TestKinds(t *testing.T) {
	t.Run("Empty name panics", func(t *testing.T) {
		assert.Panics(t, func() { eventbus.NewKind[listener](" ", "blank") })
	})

	t.Run("Zero kind panics", func(t *testing.T) {
		bus, _ := newBus(t)
		var zero eventbus.Kind[listener]
		assert.Panics(t, func() { eventbus.Subscribe[listener](bus, zero, &watcher{id: "s1"}) })
	})

	t.Run("Nil subscriber panics", func(t *testing.T) {
		bus, _ := newBus(t)
		assert.Panics(t, func() { eventbus.Subscribe[listener](bus, damaged, nil) })
	})

	t.Run("Typed nil subscriber panics", func(t *testing.T) {
		bus, sink := newBus(t)
		var missing *watcher
		assert.PanicsWithValue(t, "eventbus: cannot subscribe nil to wargame.unit.damaged", func() {
			eventbus.Subscribe[listener](bus, damaged, missing)
		})
		assert.Zero(t, eventbus.Count(bus, damaged))

		_, heard := collect(bus, damaged)
		assert.False(t, heard)
		assert.Empty(t, sink.reported())

		assert.Panics(t, func() { bus.UnsubscribeAll(missing) })
		assert.NotPanics(t, func() { eventbus.Unsubscribe[listener](bus, damaged, missing) })
	})

	t.Run("Same name and capability share a bucket", func(t *testing.T) {
		bus, _ := newBus(t)
		again := eventbus.NewKind[listener](damaged.Name(), "redeclared")
		eventbus.Subscribe[listener](bus, damaged, &watcher{id: "s1"})

		ids, heard := collect(bus, again)
		assert.True(t, heard)
		assert.Equal(t, []string{"s1"}, ids)
	})

	t.Run("Same name with another capability does not collide", func(t *testing.T) {
		bus, _ := newBus(t)
		audited := eventbus.NewKind[auditor](damaged.Name(), "audit trail")
		eventbus.Subscribe[listener](bus, damaged, &watcher{id: "s1"})

		heard := eventbus.Publish(bus, audited, func(auditor) error { return nil })
		assert.False(t, heard)
		assert.Len(t, bus.Kinds(), 1)
	})

	t.Run("Catalog lists kinds sorted with counts", func(t *testing.T) {
		bus, _ := newBus(t)
		s1 := &watcher{id: "s1"}
		eventbus.Subscribe[listener](bus, healed, s1)
		eventbus.Subscribe[listener](bus, damaged, s1)
		eventbus.Subscribe[listener](bus, damaged, &watcher{id: "s2"})
		eventbus.Unsubscribe[listener](bus, healed, s1)

		kinds := bus.Kinds()
		require.Len(t, kinds, 2)
		assert.Equal(t, eventbus.KindInfo{
			Name:        "wargame.unit.damaged",
			Module:      "wargame",
			Description: "A unit took damage",
			Subscribers: 2,
		}, kinds[0])
		assert.Equal(t, "wargame.unit.healed", kinds[1].Name)
		assert.Zero(t, kinds[1].Subscribers, "emptied kinds stay known")
	})

	t.Run("Module is empty without a dot", func(t *testing.T) {
		assert.Equal(t, "", eventbus.NewKind[listener]("tick", "").Module())
		assert.Equal(t, "wargame", damaged.Module())
	})
}

func TestStats(t *testing.T) {
	bus, _ := newBus(t)
	eventbus.Subscribe[listener](bus, damaged, &watcher{id: "s1"})
	eventbus.Subscribe[listener](bus, damaged, &watcher{id: "s2"})
	eventbus.Subscribe[listener](bus, healed, &watcher{id: "s3"})

	eventbus.Publish(bus, damaged, func(l listener) error {
		if l.ID() == "s1" {
			return errors.New("nope")
		}
		return nil
	})
	bus.UnsubscribeAll(&watcher{id: "stranger"})
	eventbus.Publish(bus, eventbus.NewKind[listener]("wargame.unit.moved", ""), func(listener) error { return nil })

	assert.Equal(t, eventbus.Stats{
		Kinds:         2,
		Subscriptions: 3,
		Publishes:     2,
		Deliveries:    2,
		Faults:        1,
		Unheard:       1,
	}, bus.Stats())

	bus.Clear()
	assert.Equal(t, eventbus.Stats{}, bus.Stats())
}

func TestConcurrentUse(t *testing.T) {
	bus, sink := newBus(t)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := &watcher{id: "worker"}
			for j := 0; j < 100; j++ {
				eventbus.Subscribe[listener](bus, damaged, p)
				eventbus.Publish(bus, damaged, func(listener) error { return nil })
				bus.UnsubscribeAll(p)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, eventbus.Count(bus, damaged))
	assert.Empty(t, sink.reported())
}
