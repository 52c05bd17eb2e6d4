package tokenAuth

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples request paths from the sink. A single worker
// goroutine delivers events in order; Close drains what is already queued.
type auditDispatcher struct {
	cfg    AuditConfig
	sink   AuditSink
	logger *slog.Logger

	queue chan AuditEvent
	stop  chan struct{}
	wg    sync.WaitGroup

	dropped  atomic.Uint64
	panicked atomic.Uint64
	closed   atomic.Bool
	once     sync.Once
}

// newAuditDispatcher returns nil when auditing is disabled; a nil dispatcher
// accepts and ignores every call.
func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger *slog.Logger) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &auditDispatcher{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		queue:  make(chan AuditEvent, max(cfg.BufferSize, 1)),
		stop:   make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stop:
			for {
				select {
				case event := <-d.queue:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// deliver hands one event to the sink. A panicking sink loses that event
// only; the worker keeps running.
func (d *auditDispatcher) deliver(event AuditEvent) {
	ctx := context.Background()
	if d.cfg.SinkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.SinkTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			d.panicked.Add(1)
			d.logger.Error("tokenAuth: audit sink panicked", "event_type", event.EventType, "panic", r)
		}
	}()

	d.sink.Emit(ctx, event)
}

// Emit queues event for the sink. With DropIfFull a full buffer drops the event
// and counts it; otherwise Emit blocks until there is room or ctx is done.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stop:
	}
}

// Close stops accepting events and drains the buffer into the sink.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.wg.Wait()
	})
}

// Dropped returns how many events never reached the queue.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Panicked returns how many deliveries ended in a sink panic.
func (d *auditDispatcher) Panicked() uint64 {
	if d == nil {
		return 0
	}
	return d.panicked.Load()
}
