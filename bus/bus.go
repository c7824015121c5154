package bus

import (
	"sync"
	"time"

	"github.com/hupe1980/agentkernel/event"
	"github.com/hupe1980/agentkernel/logging"
)

// Options configures the event bus.
type Options struct {
	// Logger is the logger used by the bus. Defaults to NoOpLogger.
	Logger logging.Logger

	// HistorySize is the maximum number of events kept in the history ring.
	HistorySize int

	// BufferSize is the per-subscriber channel capacity.
	BufferSize int
}

// Bus routes events between agents and the kernel.
//
// Delivery is non-blocking: a subscriber whose channel is full misses the
// event rather than stalling the publisher. Taps receive every event that
// passes the TTL check, regardless of target, and are how kernel services
// such as the trigger engine observe traffic.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string]*subscriber
	taps    []chan event.Event
	history []event.Event
	opts    Options
}

type subscriber struct {
	agentID string
	name    string
	ch      chan event.Event
}

// New creates a new event bus.
func New(optFns ...func(o *Options)) *Bus {
	opts := Options{
		Logger:      logging.NoOpLogger{},
		HistorySize: 256,
		BufferSize:  64,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Bus{
		subs: make(map[string]*subscriber),
		opts: opts,
	}
}

// Subscribe registers an agent with the bus and returns its receive channel.
// Subscribing twice with the same agent ID replaces the previous channel.
func (b *Bus) Subscribe(agentID, name string) <-chan event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber{
		agentID: agentID,
		name:    name,
		ch:      make(chan event.Event, b.opts.BufferSize),
	}

	if prev, ok := b.subs[agentID]; ok {
		close(prev.ch)
	}

	b.subs[agentID] = sub

	return sub.ch
}

// Unsubscribe removes an agent from the bus and closes its channel.
func (b *Bus) Unsubscribe(agentID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[agentID]; ok {
		close(sub.ch)
		delete(b.subs, agentID)
	}
}

// Tap returns a channel receiving every event published to the bus.
// Taps cannot be removed; they live for the lifetime of the bus.
func (b *Bus) Tap() <-chan event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan event.Event, b.opts.BufferSize)
	b.taps = append(b.taps, ch)

	return ch
}

// Publish routes an event to its target and returns the number of
// subscribers it was delivered to. Expired events are dropped.
func (b *Bus) Publish(e event.Event) int {
	if e.Expired(time.Now()) {
		b.opts.Logger.Debug("Dropping expired event", "event_id", e.ID, "source", e.Source)
		return 0
	}

	b.mu.Lock()
	b.record(e)

	for _, tap := range b.taps {
		select {
		case tap <- e:
		default:
			b.opts.Logger.Warn("Tap channel full, event missed", "event_id", e.ID)
		}
	}

	var targets []*subscriber

	switch e.Target.Kind {
	case event.TargetAgent:
		if sub, ok := b.subs[e.Target.Value]; ok {
			targets = append(targets, sub)
		}
	case event.TargetBroadcast:
		for _, sub := range b.subs {
			if sub.agentID != e.Source {
				targets = append(targets, sub)
			}
		}
	case event.TargetPattern:
		for _, sub := range b.subs {
			if globMatch(e.Target.Value, sub.name) {
				targets = append(targets, sub)
			}
		}
	case event.TargetSystem:
		// System events stay on the taps.
	}
	b.mu.Unlock()

	delivered := 0

	for _, sub := range targets {
		select {
		case sub.ch <- e:
			delivered++
		default:
			b.opts.Logger.Warn("Subscriber channel full, event dropped", "agent_id", sub.agentID, "event_id", e.ID)
		}
	}

	return delivered
}

// History returns up to n of the most recent events, oldest first.
// If n <= 0 the full retained history is returned.
func (b *Bus) History(n int) []event.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > len(b.history) {
		n = len(b.history)
	}

	out := make([]event.Event, n)
	copy(out, b.history[len(b.history)-n:])

	return out
}

// SubscriberCount returns the number of registered agents.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}

// record appends to the history ring. Caller must hold b.mu.
func (b *Bus) record(e event.Event) {
	b.history = append(b.history, e)
	if len(b.history) > b.opts.HistorySize {
		b.history = b.history[len(b.history)-b.opts.HistorySize:]
	}
}

// globMatch supports a single '*' wildcard as prefix, suffix or infix.
func globMatch(pattern, s string) bool {
	if pattern == "*" {
		return true
	}

	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '*' {
			prefix, suffix := pattern[:i], pattern[i+1:]
			return len(s) >= len(prefix)+len(suffix) &&
				s[:len(prefix)] == prefix &&
				s[len(s)-len(suffix):] == suffix
		}
	}

	return pattern == s
}
