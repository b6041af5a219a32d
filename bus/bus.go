// Package bus broadcasts advisory data-change events between instances
// sharing one record store. Delivery fans out over two paths: an AMQP
// fanout exchange when a broker is reachable, and a rotating marker row in
// the store that every other instance polls. Consumers may see the same
// logical change twice; handlers are re-query triggers, not an event log.
package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pfos/core"
	"pfos/storage"
)

const defaultPollInterval = 2 * time.Second

// Handler receives change events from either delivery path.
type Handler func(core.Event)

// Options configures the bus. An empty URL disables the AMQP path and the
// bus runs marker-only.
type Options struct {
	URL          string
	Exchange     string
	PollInterval time.Duration
}

// Bus is one instance's endpoint on the change channel.
type Bus struct {
	store  *storage.Store
	client *amqpClient // nil when the broker path is unavailable
	poll   time.Duration
	origin string

	mu       sync.Mutex
	handlers []Handler
	lastAt   int64
	started  bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// New builds a bus over the given store. A broker that cannot be dialed is
// logged and skipped; the marker path alone still satisfies delivery.
func New(store *storage.Store, opts Options) *Bus {
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	b := &Bus{
		store:  store,
		poll:   poll,
		origin: uuid.NewString(),
		stop:   make(chan struct{}),
	}

	if opts.URL != "" {
		client, err := dialAMQP(opts.URL, opts.Exchange)
		if err != nil {
			slog.Warn("Change bus broker unavailable, falling back to marker polling",
				"error", err, "url", opts.URL)
		} else {
			b.client = client
		}
	}

	return b
}

// Publish broadcasts a change for the given scope. Notification is
// advisory: every failure is swallowed after logging, and the triggering
// mutation never fails because of it.
func (b *Bus) Publish(ctx context.Context, scope string) {
	ev := core.Event{Scope: scope, At: time.Now().UnixMilli()}

	if b.client != nil {
		if err := b.client.publish(ctx, envelope{Scope: ev.Scope, At: ev.At, Origin: b.origin}); err != nil {
			slog.WarnContext(ctx, "Change bus broker publish failed", "scope", scope, "error", err)
		}
	}

	marker := storage.ChangeMarker{Scope: ev.Scope, At: ev.At, Origin: b.origin}
	if err := b.store.WriteChangeMarker(ctx, marker); err != nil {
		slog.WarnContext(ctx, "Change marker write failed", "scope", scope, "error", err)
	}

	// Our own marker must not bounce back through the poller.
	b.mu.Lock()
	if ev.At > b.lastAt {
		b.lastAt = ev.At
	}
	b.mu.Unlock()
}

// Subscribe registers a handler for events from both paths. The first
// subscription starts the delivery goroutines; events published before it
// are not replayed beyond the marker's last value.
func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	start := !b.started
	b.started = true
	b.mu.Unlock()

	if !start {
		return
	}

	// Later marker updates are detected relative to the value at
	// subscribe time.
	if m, err := b.store.ReadChangeMarker(context.Background()); err == nil && m != nil {
		b.mu.Lock()
		if m.At > b.lastAt {
			b.lastAt = m.At
		}
		b.mu.Unlock()
	}

	b.wg.Add(1)
	go b.pollMarker()

	if b.client != nil {
		b.wg.Add(1)
		go b.consumeBroker()
	}
}

// Close stops delivery and releases the broker connection.
func (b *Bus) Close() error {
	close(b.stop)
	b.wg.Wait()
	if b.client != nil {
		return b.client.close()
	}
	return nil
}

func (b *Bus) pollMarker() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.checkMarker()
		}
	}
}

func (b *Bus) checkMarker() {
	ctx, cancel := context.WithTimeout(context.Background(), b.poll)
	defer cancel()

	m, err := b.store.ReadChangeMarker(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Change marker read failed", "error", err)
		return
	}
	if m == nil {
		return
	}

	b.mu.Lock()
	fresh := m.At > b.lastAt
	if fresh {
		b.lastAt = m.At
	}
	b.mu.Unlock()

	if fresh && m.Origin != b.origin {
		b.dispatch(core.Event{Scope: m.Scope, At: m.At})
	}
}

func (b *Bus) consumeBroker() {
	defer b.wg.Done()

	err := b.client.consume(b.stop, func(env envelope) {
		if env.Origin == b.origin {
			return
		}
		b.dispatch(core.Event{Scope: env.Scope, At: env.At})
	})
	if err != nil {
		slog.Warn("Change bus broker consumer stopped", "error", err)
	}
}

func (b *Bus) dispatch(ev core.Event) {
	b.mu.Lock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
