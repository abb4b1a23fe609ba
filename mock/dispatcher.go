package mock

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// dispatcher delivers callbacks and observer events in order on a
// dedicated goroutine, each after a simulated stack latency.
type dispatcher struct {
	latency time.Duration

	mu     sync.Mutex
	queue  []func()
	closed bool
	notify chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

func newDispatcher(latency time.Duration) *dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	d := &dispatcher{
		latency: latency,
		notify:  make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		group:   group,
	}

	group.Go(d.run)

	return d
}

// post queues fn for delivery. It never blocks.
func (d *dispatcher) post(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}

	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// after queues fn once delay has elapsed. The returned function cancels
// the delivery if it has not been queued yet.
func (d *dispatcher) after(delay time.Duration, fn func()) (stop func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return func() {}
	}

	stopCh := make(chan struct{})
	once := sync.Once{}

	d.group.Go(func() error {
		t := time.NewTimer(delay)
		defer t.Stop()

		select {
		case <-t.C:
			d.post(fn)
		case <-stopCh:
		case <-d.ctx.Done():
		}

		return nil
	})

	return func() {
		once.Do(func() { close(stopCh) })
	}
}

// close drops undelivered events and waits for the delivery goroutines.
func (d *dispatcher) close() error {
	d.mu.Lock()
	d.closed = true
	d.queue = nil
	d.mu.Unlock()

	d.cancel()

	return d.group.Wait()
}

func (d *dispatcher) run() error {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.mu.Unlock()

			select {
			case <-d.notify:
				continue
			case <-d.ctx.Done():
				return nil
			}
		}

		fn := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if d.latency > 0 {
			select {
			case <-time.After(d.latency):
			case <-d.ctx.Done():
				return nil
			}
		}

		fn()
	}
}
