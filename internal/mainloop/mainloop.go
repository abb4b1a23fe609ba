// Package mainloop provides a single-threaded cooperative event loop.
//
// Callbacks registered with a Loop are dispatched one at a time on the
// goroutine that calls Run. Sources may be added from any goroutine; Invoke
// is the way to move work from a foreign goroutine onto the loop.
package mainloop

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// SourceID identifies a scheduled source. The zero value is no source.
type SourceID uint64

// SourceFunc is a source callback. Returning true keeps the source
// scheduled, returning false removes it.
type SourceFunc func() bool

type source struct {
	id       SourceID
	fn       SourceFunc
	interval time.Duration
	due      time.Time
	idle     bool
}

// Loop is a cooperative event loop.
type Loop struct {
	mu      sync.Mutex
	sources map[SourceID]*source
	lastID  SourceID

	wake    chan struct{}
	quit    atomic.Bool
	running atomic.Bool
}

// New returns a new event loop.
func New() *Loop {
	return &Loop{
		sources: make(map[SourceID]*source),
		wake:    make(chan struct{}, 1),
	}
}

// IdleAdd schedules fn to run as soon as the loop is idle.
func (l *Loop) IdleAdd(fn SourceFunc) SourceID {
	return l.add(&source{fn: fn, idle: true})
}

// TimeoutAdd schedules fn to run every interval until it returns false.
func (l *Loop) TimeoutAdd(interval time.Duration, fn SourceFunc) SourceID {
	return l.add(&source{fn: fn, interval: interval, due: time.Now().Add(interval)})
}

// Invoke runs fn once on the loop goroutine. It is safe to call from any
// goroutine.
func (l *Loop) Invoke(fn func()) {
	l.IdleAdd(func() bool {
		fn()
		return false
	})
}

// Remove removes the source referenced by id and zeroes the handle.
// A removed source never fires again, even if it is already due.
func (l *Loop) Remove(id *SourceID) {
	if id == nil || *id == 0 {
		return
	}

	l.mu.Lock()
	delete(l.sources, *id)
	l.mu.Unlock()

	*id = 0
}

// Has reports whether the source is still scheduled.
func (l *Loop) Has(id SourceID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.sources[id]

	return ok
}

// Pending returns the number of scheduled sources.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.sources)
}

// Reset removes all sources and clears a pending quit request.
func (l *Loop) Reset() {
	l.mu.Lock()
	clear(l.sources)
	l.mu.Unlock()

	l.quit.Store(false)
}

// Quit makes the current or next Run return after the running callback.
func (l *Loop) Quit() {
	l.quit.Store(true)
	l.signal()
}

// IsRunning reports whether Run is active.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Run dispatches sources until Quit is called.
func (l *Loop) Run() {
	_ = l.RunContext(context.Background())
}

// RunContext dispatches sources until Quit is called or ctx is done.
func (l *Loop) RunContext(ctx context.Context) error {
	l.running.Store(true)
	defer l.running.Store(false)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		if l.quit.CompareAndSwap(true, false) {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		src, wait := l.next(time.Now())
		if src != nil {
			l.dispatch(src)
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-l.wake:
		case <-timer.C:
		case <-ctx.Done():
		}
	}
}

// next returns the source to dispatch, or the time to wait for one.
// Idle sources run before due timers; ties are broken by creation order.
func (l *Loop) next(now time.Time) (*source, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var idle, timer *source

	wait := time.Hour
	for _, s := range l.sources {
		if s.idle {
			if idle == nil || s.id < idle.id {
				idle = s
			}

			continue
		}

		if d := s.due.Sub(now); d > 0 {
			wait = min(wait, d)
			continue
		}

		if timer == nil || s.due.Before(timer.due) || (s.due.Equal(timer.due) && s.id < timer.id) {
			timer = s
		}
	}

	if idle != nil {
		return idle, 0
	}

	return timer, wait
}

// dispatch runs a source and reschedules or removes it.
func (l *Loop) dispatch(s *source) {
	keep := s.fn()

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.sources[s.id]; !ok {
		return
	}

	if !keep {
		delete(l.sources, s.id)
		return
	}

	if !s.idle {
		s.due = time.Now().Add(s.interval)
	}
}

func (l *Loop) add(s *source) SourceID {
	l.mu.Lock()
	l.lastID++
	s.id = l.lastID
	l.sources[s.id] = s
	l.mu.Unlock()

	l.signal()

	return s.id
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
