package notify

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/btapmd/internal/logger"
	"codeberg.org/mutker/btapmd/internal/metrics"
)

const (
	defaultQueueSize   = 16
	defaultShowTimeout = 5 * time.Second
)

type request struct {
	user int
	kind Kind
}

// Dispatcher is an asynchronous Notifier. Notify enqueues and returns; a
// single goroutine drains the queue into the Sink. When the queue is full
// the request is dropped.
type Dispatcher struct {
	sink    Sink
	logger  logger.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan request
	done   chan struct{}
}

func NewDispatcher(sink Sink, queueSize int, log logger.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	d := &Dispatcher{
		sink:    sink,
		logger:  log,
		timeout: defaultShowTimeout,
		queue:   make(chan request, queueSize),
		done:    make(chan struct{}),
	}
	go d.run()

	return d
}

func (d *Dispatcher) Notify(user int, kind Kind) {
	if kind == None {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(kind, "Dispatcher closed, dropping notification")
		return
	}

	select {
	case d.queue <- request{user: user, kind: kind}:
	default:
		d.drop(kind, "Notification queue full, dropping notification")
	}
}

// Close stops accepting requests and waits until queued ones are shown.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for req := range d.queue {
		d.show(req)
	}
}

func (d *Dispatcher) show(req request) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sink.Show(ctx, req.user, req.kind, Message(req.kind)); err != nil {
		d.logger.Warn().Err(err).
			Int("user", req.user).
			Str("kind", string(req.kind)).
			Msg("Failed to show notification")
		metrics.NotificationsTotal.WithLabelValues(string(req.kind), metrics.ResultFailed).Inc()
		return
	}

	d.logger.Debug().Int("user", req.user).Str("kind", string(req.kind)).Msg("Displayed notification")
	metrics.NotificationsTotal.WithLabelValues(string(req.kind), metrics.ResultSent).Inc()
}

func (d *Dispatcher) drop(kind Kind, msg string) {
	d.logger.Warn().Str("kind", string(kind)).Msg(msg)
	metrics.NotificationsTotal.WithLabelValues(string(kind), metrics.ResultDropped).Inc()
}
