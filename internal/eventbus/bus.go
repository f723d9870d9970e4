package eventbus

import (
	"log/slog"
	"reflect"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
)

// bucket is the kind-independent view of a subscriber set, used by operations
// that span every kind.
type bucket interface {
	info() KindInfo
	remove(sub any)
	size() int
}

// subscriberSet holds the subscribers of one kind, keyed by the subscriber
// value itself so duplicates collapse.
type subscriberSet[S any] struct {
	name        string
	description string
	members     map[any]S
}

func (s *subscriberSet[S]) info() KindInfo {
	return KindInfo{
		Name:        s.name,
		Module:      moduleOf(s.name),
		Description: s.description,
		Subscribers: len(s.members),
	}
}

func (s *subscriberSet[S]) remove(sub any) {
	delete(s.members, sub)
}

func (s *subscriberSet[S]) size() int {
	return len(s.members)
}

// Bus is a kind-keyed subscriber registry. The zero value is not usable; create
// one with New. A Bus is safe for concurrent use, and its lock is never held
// while subscriber code runs.
type Bus struct {
	mu      sync.RWMutex
	buckets map[any]bucket
	sink    Sink
	logger  *slog.Logger
	// gen counts Clears. Counter updates from a Publish that started before
	// the latest Clear are dropped.
	gen uint64

	publishes  atomic.Int64
	deliveries atomic.Int64
	faults     atomic.Int64
	unheard    atomic.Int64
}

// Option is a function that configures a Bus.
type Option func(*Bus)

// WithSink routes subscriber faults to s instead of the logger.
func WithSink(s Sink) Option {
	return func(b *Bus) {
		b.sink = s
	}
}

// WithLogger sets the logger used for debug output and, unless WithSink is
// also given, for fault reports.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates an empty Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		buckets: make(map[any]bucket),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.sink == nil {
		b.sink = NewLogSink(b.logger)
	}
	return b
}

// Subscribe adds sub to kind. Subscribing the same subscriber twice has no
// further effect. It panics if sub is nil, including a nil pointer, map, func
// or chan behind the interface, or if sub is not comparable.
func Subscribe[S any](b *Bus, kind Kind[S], sub S) {
	key := kind.key()
	if isNil(sub) {
		panic("eventbus: cannot subscribe nil to " + kind.name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	set := lookup(b, key)
	if set == nil {
		set = &subscriberSet[S]{
			name:        kind.name,
			description: kind.description,
			members:     make(map[any]S),
		}
		b.buckets[key] = set
	}
	set.members[any(sub)] = sub
}

// Unsubscribe removes sub from kind. Unknown kinds and subscribers are ignored.
func Unsubscribe[S any](b *Bus, kind Kind[S], sub S) {
	key := kind.key()
	if isNil(sub) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if set := lookup(b, key); set != nil {
		set.remove(any(sub))
	}
}

// UnsubscribeAll removes sub from every kind it is subscribed to. It is meant
// for tearing down a component without knowing which kinds it joined. It
// panics if sub is nil.
func (b *Bus) UnsubscribeAll(sub any) {
	if isNil(sub) {
		panic("eventbus: cannot unsubscribe nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, set := range b.buckets {
		set.remove(sub)
	}
}

// Clear drops every kind, subscriber and counter. Afterwards the Bus behaves
// like a new one, even when Clear runs inside a subscriber: the interrupted
// Publish stops delivering and no longer counts.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.buckets = make(map[any]bucket)
	b.gen++
	b.publishes.Store(0)
	b.deliveries.Store(0)
	b.faults.Store(0)
	b.unheard.Store(0)
	b.mu.Unlock()

	b.logger.Debug("Event bus cleared")
}

// member pairs a subscriber with its set key for the liveness check during
// dispatch.
type member[S any] struct {
	id  any
	sub S
}

// Publish calls invoke once for every current subscriber of kind and reports
// whether there were any. It returns false without calling invoke when nobody
// is subscribed.
//
// Subscribers are visited in no particular order. An error returned by invoke,
// or a panic inside it, is wrapped in a *DispatchError, handed to the Sink and
// does not stop delivery to the others. Dispatch runs over the subscribers
// present when Publish started; one removed before its turn is skipped and one
// added during the pass waits for the next Publish.
func Publish[S any](b *Bus, kind Kind[S], invoke func(S) error) bool {
	key := kind.key()
	if invoke == nil {
		panic("eventbus: nil invoker for " + kind.name)
	}

	snapshot, gen := snapshotOf(b, key)
	if len(snapshot) == 0 {
		return false
	}

	b.logger.Debug("Publishing event", "kind", kind.name, "recipient_count", len(snapshot))
	for _, m := range snapshot {
		if !deliverable(b, key, m.id, gen) {
			continue
		}
		if err := invokeSafely(kind.name, m.sub, invoke); err != nil {
			b.tally(gen, &b.faults)
			b.sink.Report(err)
		}
	}
	return true
}

// Count returns the number of subscribers of kind.
func Count[S any](b *Bus, kind Kind[S]) int {
	key := kind.key()

	b.mu.RLock()
	defer b.mu.RUnlock()

	if set := lookup(b, key); set != nil {
		return set.size()
	}
	return 0
}

// Kinds lists every kind that has had a subscriber since the last Clear,
// sorted by name. Kinds whose sets have since emptied are included.
func (b *Bus) Kinds() []KindInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	kinds := make([]KindInfo, 0, len(b.buckets))
	for _, set := range b.buckets {
		kinds = append(kinds, set.info())
	}
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i].Name < kinds[j].Name
	})
	return kinds
}

// Stats summarises the bus since construction or the last Clear.
type Stats struct {
	Kinds         int   `json:"kinds"`
	Subscriptions int   `json:"subscriptions"`
	Publishes     int64 `json:"publishes"`
	Deliveries    int64 `json:"deliveries"`
	Faults        int64 `json:"faults"`
	Unheard       int64 `json:"unheard"`
}

// Stats returns current counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	stats := Stats{Kinds: len(b.buckets)}
	for _, set := range b.buckets {
		stats.Subscriptions += set.size()
	}
	b.mu.RUnlock()

	stats.Publishes = b.publishes.Load()
	stats.Deliveries = b.deliveries.Load()
	stats.Faults = b.faults.Load()
	stats.Unheard = b.unheard.Load()
	return stats
}

// lookup returns the typed set for key. Callers hold b.mu. The key carries S,
// so the stored bucket is always a *subscriberSet[S].
func lookup[S any](b *Bus, key kindKey[S]) *subscriberSet[S] {
	set, ok := b.buckets[key]
	if !ok {
		return nil
	}
	return set.(*subscriberSet[S])
}

// snapshotOf copies the subscribers of key and counts the publish. The
// returned generation ties later counter updates to this snapshot.
func snapshotOf[S any](b *Bus, key kindKey[S]) ([]member[S], uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.publishes.Add(1)
	set := lookup(b, key)
	if set == nil || len(set.members) == 0 {
		b.unheard.Add(1)
		return nil, b.gen
	}
	snapshot := make([]member[S], 0, len(set.members))
	for id, sub := range set.members {
		snapshot = append(snapshot, member[S]{id: id, sub: sub})
	}
	return snapshot, b.gen
}

// deliverable reports whether id is still subscribed to key in generation gen,
// counting the delivery if so.
func deliverable[S any](b *Bus, key kindKey[S], id any, gen uint64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.gen != gen {
		return false
	}
	set := lookup(b, key)
	if set == nil {
		return false
	}
	if _, ok := set.members[id]; !ok {
		return false
	}
	b.deliveries.Add(1)
	return true
}

func (b *Bus) tally(gen uint64, counter *atomic.Int64) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.gen == gen {
		counter.Add(1)
	}
}

// isNil reports whether v is nil or a nil value of a nilable kind.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

func invokeSafely[S any](kind string, sub S, invoke func(S) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			dispatchErr := &DispatchError{
				Kind:       kind,
				Subscriber: sub,
				Panic:      r,
				Stack:      debug.Stack(),
			}
			if cause, ok := r.(error); ok {
				dispatchErr.Err = cause
			}
			err = dispatchErr
		}
	}()

	if cause := invoke(sub); cause != nil {
		return &DispatchError{Kind: kind, Subscriber: sub, Err: cause}
	}
	return nil
}
