package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/observability"
)

// ErrDispatcherClosed is returned by Publish after Close.
var ErrDispatcherClosed = errors.New("event dispatcher closed")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// QueueDispatcher hands events to a fixed pool of workers through a bounded
// queue. Publish returns once the event is queued; handlers run later and their
// errors are logged, never returned to the publisher.
type QueueDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	queue     chan Event
	workers   int
	logger    *zap.Logger
	metrics   *observability.Metrics

	closeMu sync.RWMutex
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// NewQueueDispatcher creates a dispatcher instance. Call Start before publishing.
func NewQueueDispatcher(workers, queueSize int, logger *zap.Logger, metrics *observability.Metrics) *QueueDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &QueueDispatcher{
		listeners: make(map[EventType][]EventHandler),
		queue:     make(chan Event, queueSize),
		workers:   workers,
		logger:    logger,
		metrics:   metrics,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the workers.
func (d *QueueDispatcher) Start() {
	d.once.Do(d.spawn)
}

func (d *QueueDispatcher) spawn() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

// Publish queues the event, blocking while the queue is full.
func (d *QueueDispatcher) Publish(ctx context.Context, event Event) error {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.ctx.Done():
		return ErrDispatcherClosed
	}
}

// Subscribe registers a handler for the given event type.
func (d *QueueDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Close stops accepting events and lets the workers drain the queue, starting
// them if Start was never called. When ctx expires first, the handler context
// is cancelled and ctx.Err is returned.
func (d *QueueDispatcher) Close(ctx context.Context) error {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.closeMu.Unlock()

	if pending := len(d.queue); pending > 0 {
		d.logger.Info("draining event queue", zap.Int("pending", pending))
	}
	d.once.Do(d.spawn)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}

func (d *QueueDispatcher) work() {
	defer d.wg.Done()
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *QueueDispatcher) deliver(event Event) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := d.invoke(handler, event); err != nil {
			d.metrics.RecordEvent(string(event.Type), "failed")
			d.logger.Error("event handler failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.String("tenant_id", event.Context.TenantID),
				zap.Error(err))
			continue
		}
		d.metrics.RecordEvent(string(event.Type), "handled")
	}
}

func (d *QueueDispatcher) invoke(handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(d.ctx, event)
}
