package events

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/astroviz/orrery/pkg/healthcheck"
)

// Listener handles a delivered event. Errors and panics are caught by the
// bus, counted, and never propagated to the emitter or to sibling listeners.
type Listener func(ctx context.Context, ev Event) error

// SubscribeOptions control delivery for one subscription.
type SubscribeOptions struct {
	// Priority orders delivery: higher priorities run first. Default 0.
	Priority int
	// Once removes the subscription after its first delivery.
	Once bool
	// Async moves the listener into the asynchronous group: the sync group
	// completes first, then all async listeners run concurrently and are
	// awaited together.
	Async bool
}

// Thresholds define when the bus reports itself unhealthy.
type Thresholds struct {
	MaxSubscribers   int
	MaxAvgProcessing time.Duration
	MaxErrorRate     float64
}

// DefaultThresholds are conservative limits for an interactive viewer.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxSubscribers:   256,
		MaxAvgProcessing: 100 * time.Millisecond,
		MaxErrorRate:     0.1,
	}
}

// Statistics is a snapshot of bus activity.
type Statistics struct {
	EventsProcessed   uint64        `json:"eventsProcessed"`
	SubscriberCount   int           `json:"subscriberCount"`
	ErrorCount        uint64        `json:"errorCount"`
	AverageProcessing time.Duration `json:"averageProcessing"`
	QueuedEvents      int           `json:"queuedEvents"`
}

type subscription struct {
	id        uint64
	eventType EventType
	catchAll  bool
	listener  Listener
	opts      SubscribeOptions
}

// Bus is a synchronous publish/subscribe dispatcher. Events are delivered
// one at a time: an Emit issued from inside a listener is queued and runs
// after the current event's full listener set, never interleaved with it.
type Bus struct {
	mu       sync.Mutex
	subs     map[EventType][]*subscription
	catchAll []*subscription
	nextID   uint64

	// dispatchMu serializes top-level emits; queueMu guards the re-entrant
	// queue, which is appended to while dispatchMu is held.
	dispatchMu sync.Mutex
	queueMu    sync.Mutex
	queue      []Event

	logger     *zap.Logger
	thresholds Thresholds

	statsMu         sync.Mutex
	eventsProcessed uint64
	errorCount      uint64
	totalProcessing time.Duration
}

type ctxKey int

// dispatchKey marks contexts handed to listeners, so a nested Emit can be
// detected and queued instead of deadlocking on the dispatch lock.
const dispatchKey ctxKey = iota

// NewBus creates an event bus.
func NewBus(logger *zap.Logger, thresholds Thresholds) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	return &Bus{
		subs:       make(map[EventType][]*subscription),
		logger:     logger.With(zap.String("component", "event_bus")),
		thresholds: thresholds,
	}
}

// Subscribe registers a listener for one event type. The returned function
// removes the subscription and is safe to call from inside a listener.
func (b *Bus) Subscribe(eventType EventType, listener Listener, opts SubscribeOptions) func() {
	return b.add(&subscription{eventType: eventType, listener: listener, opts: opts})
}

// SubscribeAll registers a catch-all listener receiving every event,
// intended for cross-cutting concerns such as logging or the diagnostics
// bridge.
func (b *Bus) SubscribeAll(listener Listener, opts SubscribeOptions) func() {
	return b.add(&subscription{catchAll: true, listener: listener, opts: opts})
}

func (b *Bus) add(sub *subscription) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub.id = b.nextID
	if sub.catchAll {
		b.catchAll = append(b.catchAll, sub)
	} else {
		b.subs[sub.eventType] = append(b.subs[sub.eventType], sub)
	}
	return func() { b.remove(sub) }
}

func (b *Bus) remove(sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub.catchAll {
		b.catchAll = deleteSub(b.catchAll, sub.id)
		return
	}
	b.subs[sub.eventType] = deleteSub(b.subs[sub.eventType], sub.id)
}

func deleteSub(subs []*subscription, id uint64) []*subscription {
	out := subs[:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// Emit delivers an event to every matching listener and returns once all of
// them have run. Listener failures are absorbed into the bus statistics.
// When called from inside a listener the event is queued behind the one
// currently dispatching and Emit returns immediately.
func (b *Bus) Emit(ctx context.Context, ev Event) error {
	if ctx.Value(dispatchKey) != nil {
		b.queueMu.Lock()
		b.queue = append(b.queue, ev)
		b.queueMu.Unlock()
		return nil
	}

	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()

	b.dispatch(ctx, ev)

	// Drain events queued by re-entrant emits, in arrival order. Each
	// queued event may queue more.
	for {
		b.queueMu.Lock()
		if len(b.queue) == 0 {
			b.queueMu.Unlock()
			return nil
		}
		next := b.queue[0]
		b.queue = b.queue[1:]
		b.queueMu.Unlock()
		b.dispatch(ctx, next)
	}
}

// dispatch runs one event's full listener set: sync group in priority order,
// then the async group awaited together.
func (b *Bus) dispatch(ctx context.Context, ev Event) {
	start := time.Now()
	listenerCtx := context.WithValue(ctx, dispatchKey, true)

	matched := b.snapshot(ev.Type)

	var syncSubs, asyncSubs []*subscription
	for _, sub := range matched {
		if sub.opts.Async {
			asyncSubs = append(asyncSubs, sub)
		} else {
			syncSubs = append(syncSubs, sub)
		}
	}

	for _, sub := range syncSubs {
		b.invoke(listenerCtx, sub, ev)
	}

	var wg sync.WaitGroup
	for _, sub := range asyncSubs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			b.invoke(listenerCtx, s, ev)
		}(sub)
	}
	wg.Wait()

	b.statsMu.Lock()
	b.eventsProcessed++
	b.totalProcessing += time.Since(start)
	b.statsMu.Unlock()
}

// snapshot copies and orders the matching subscriptions so listeners can
// subscribe or unsubscribe while delivery is in progress.
func (b *Bus) snapshot(eventType EventType) []*subscription {
	b.mu.Lock()
	matched := make([]*subscription, 0, len(b.subs[eventType])+len(b.catchAll))
	matched = append(matched, b.subs[eventType]...)
	matched = append(matched, b.catchAll...)
	b.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].opts.Priority != matched[j].opts.Priority {
			return matched[i].opts.Priority > matched[j].opts.Priority
		}
		return matched[i].id < matched[j].id
	})
	return matched
}

func (b *Bus) invoke(ctx context.Context, sub *subscription, ev Event) {
	if sub.opts.Once {
		b.remove(sub)
	}

	defer func() {
		if r := recover(); r != nil {
			b.recordError(ev, fmt.Errorf("listener panic: %v", r))
		}
	}()

	if err := sub.listener(ctx, ev); err != nil {
		b.recordError(ev, err)
	}
}

func (b *Bus) recordError(ev Event, err error) {
	b.statsMu.Lock()
	b.errorCount++
	b.statsMu.Unlock()
	b.logger.Error("Event listener failed",
		zap.String("event_type", string(ev.Type)),
		zap.String("event_id", ev.ID),
		zap.Error(err))
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.catchAll)
	for _, subs := range b.subs {
		n += len(subs)
	}
	return n
}

// Statistics returns a snapshot of bus activity.
func (b *Bus) Statistics() Statistics {
	b.statsMu.Lock()
	processed := b.eventsProcessed
	errs := b.errorCount
	total := b.totalProcessing
	b.statsMu.Unlock()

	var avg time.Duration
	if processed > 0 {
		avg = total / time.Duration(processed)
	}

	b.queueMu.Lock()
	queued := len(b.queue)
	b.queueMu.Unlock()

	return Statistics{
		EventsProcessed:   processed,
		SubscriberCount:   b.SubscriberCount(),
		ErrorCount:        errs,
		AverageProcessing: avg,
		QueuedEvents:      queued,
	}
}

// Name implements healthcheck.Checker.
func (b *Bus) Name() string { return "event_bus" }

// Check implements healthcheck.Checker using the configured thresholds.
func (b *Bus) Check(ctx context.Context) *healthcheck.Result {
	stats := b.Statistics()
	status := healthcheck.StatusHealthy
	message := "event bus operational"
	switch {
	case stats.SubscriberCount > b.thresholds.MaxSubscribers:
		status = healthcheck.StatusDegraded
		message = "subscriber count above threshold, possible listener leak"
	case stats.AverageProcessing > b.thresholds.MaxAvgProcessing:
		status = healthcheck.StatusDegraded
		message = "average event processing time above threshold"
	case stats.EventsProcessed > 0 &&
		float64(stats.ErrorCount)/float64(stats.EventsProcessed) > b.thresholds.MaxErrorRate:
		status = healthcheck.StatusUnhealthy
		message = "listener error rate above threshold"
	}
	return &healthcheck.Result{
		ComponentName: b.Name(),
		Status:        status,
		Message:       message,
		Timestamp:     time.Now().UTC(),
		Details: map[string]any{
			"events_processed": stats.EventsProcessed,
			"subscribers":      stats.SubscriberCount,
			"errors":           stats.ErrorCount,
			"queued":           stats.QueuedEvents,
		},
	}
}

// Healthy reports whether the bus is within its configured thresholds.
func (b *Bus) Healthy() bool {
	stats := b.Statistics()
	if stats.SubscriberCount > b.thresholds.MaxSubscribers {
		return false
	}
	if stats.AverageProcessing > b.thresholds.MaxAvgProcessing {
		return false
	}
	if stats.EventsProcessed > 0 {
		rate := float64(stats.ErrorCount) / float64(stats.EventsProcessed)
		if rate > b.thresholds.MaxErrorRate {
			return false
		}
	}
	return true
}
