package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"appointment-service/internal/scheduling"
)

var ErrClosed = errors.New("event emitter is shut down")

const publishTimeout = 5 * time.Second

type queued struct {
	name    string
	payload any
}

// AsyncEmitter hands events to a background worker so callers never wait on
// the broker. When the buffer is full the event is dropped with a warning.
type AsyncEmitter struct {
	next   scheduling.Emitter
	log    *zap.Logger
	onDrop func()

	mu     sync.RWMutex
	closed bool
	queue  chan queued
	done   chan struct{}
}

// NewAsyncEmitter starts the delivery goroutine. onDrop, if set, is called for
// every event discarded because the buffer was full.
func NewAsyncEmitter(next scheduling.Emitter, bufferSize int, log *zap.Logger, onDrop func()) *AsyncEmitter {
	if log == nil {
		log = zap.NewNop()
	}
	if onDrop == nil {
		onDrop = func() {}
	}
	e := &AsyncEmitter{
		next:   next,
		log:    log,
		onDrop: onDrop,
		queue:  make(chan queued, bufferSize),
		done:   make(chan struct{}),
	}
	go e.worker()
	return e
}

func (e *AsyncEmitter) Emit(_ context.Context, name string, payload any) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	select {
	case e.queue <- queued{name: name, payload: payload}:
		return nil
	default:
		e.onDrop()
		e.log.Warn("event buffer full, dropping event", zap.String("event", name))
		return nil
	}
}

// Shutdown stops accepting events and waits for queued ones to be published
// until ctx expires.
func (e *AsyncEmitter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		e.log.Warn("event emitter shutdown timed out; some events may be lost")
		return ctx.Err()
	}
}

func (e *AsyncEmitter) worker() {
	defer close(e.done)
	for ev := range e.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := e.next.Emit(ctx, ev.name, ev.payload); err != nil {
			e.log.Error("failed to publish event", zap.String("event", ev.name), zap.Error(err))
		}
		cancel()
	}
}
