package tester

import (
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/internal/mainloop"
)

// fatal unwinds a test after Fatalf. It is recovered by the runner.
type fatal struct{}

// T is the handle passed to a running test.
type T struct {
	ctx    *Context
	path   string
	logger *log.Entry

	failed   bool
	finished bool
	messages []string

	// Observer is the adapter observer installed by the adapter fixture.
	Observer *AdapterObserver
}

func newT(ctx *Context, path string) *T {
	return &T{
		ctx:    ctx,
		path:   path,
		logger: log.WithField("test", path),
	}
}

// Path returns the test path.
func (t *T) Path() string {
	return t.path
}

// Context returns the run context.
func (t *T) Context() *Context {
	return t.ctx
}

// Adapter returns the default adapter.
func (t *T) Adapter() bluetooth.Adapter {
	return t.ctx.Adapter
}

// Loop returns the event loop.
func (t *T) Loop() *mainloop.Loop {
	return t.ctx.Loop
}

// Logf logs a debug message.
func (t *T) Logf(format string, args ...any) {
	t.logger.Debugf(format, args...)
}

// Errorf marks the test as failed and continues.
func (t *T) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	t.failed = true
	t.messages = append(t.messages, msg)
	t.logger.Error(msg)
}

// Fatalf marks the test as failed and stops it.
func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)

	panic(fatal{})
}

// Failed reports whether the test has failed.
func (t *T) Failed() bool {
	return t.failed
}

// Assert stops the test if cond is false.
func (t *T) Assert(cond bool, format string, args ...any) {
	if !cond {
		t.Fatalf(format, args...)
	}
}

// Equal stops the test if got differs from want.
func (t *T) Equal(want, got any, what string) {
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", what, diff)
	}
}

// ExpectResult stops the test if an operation did not end with want.
func (t *T) ExpectResult(op string, want, got bluetooth.Error) {
	if got != want {
		t.Fatalf("%s: expected %s, got %s", op, want, got)
	}
}

// Run runs the event loop until Done is called.
func (t *T) Run() {
	t.ctx.Loop.Run()
}

// Done stops the event loop.
func (t *T) Done() {
	t.ctx.Loop.Quit()
}

// Invoke runs fn on the event loop. Plugin callbacks use it to reach the
// harness from the goroutine they are delivered on.
func (t *T) Invoke(fn func()) {
	t.ctx.Loop.Invoke(func() {
		if !t.finished {
			fn()
		}
	})
}

// finish detaches the test from deliveries that arrive after it ended.
func (t *T) finish() {
	t.finished = true

	if t.Observer != nil {
		t.Observer.Close()
	}
}

// After runs fn once on the event loop after d.
func (t *T) After(d time.Duration, fn func()) mainloop.SourceID {
	return t.ctx.Loop.TimeoutAdd(d, func() bool {
		fn()
		return false
	})
}

// Every runs fn on the event loop every d until it returns false.
func (t *T) Every(d time.Duration, fn func() bool) mainloop.SourceID {
	return t.ctx.Loop.TimeoutAdd(d, fn)
}

// Result returns a callback that delivers the outcome of an operation to
// fn on the event loop.
func (t *T) Result(fn func(bluetooth.Error)) bluetooth.ResultCallback {
	return func(err bluetooth.Error) {
		t.Invoke(func() { fn(err) })
	}
}

// Expect returns a callback that stops the test unless the operation
// ends with want, then calls next on the event loop.
func (t *T) Expect(op string, want bluetooth.Error, next func()) bluetooth.ResultCallback {
	return t.Result(func(err bluetooth.Error) {
		t.ExpectResult(op, want, err)

		if next != nil {
			next()
		}
	})
}

// Wait runs the loop until done is called or timeout elapses, which
// fails the test.
func (t *T) Wait(timeout time.Duration, what string, start func(done func())) {
	var timer mainloop.SourceID

	finished := false
	done := func() {
		if finished {
			return
		}

		finished = true
		t.ctx.Loop.Remove(&timer)
		t.Done()
	}

	timer = t.ctx.Loop.TimeoutAdd(timeout, func() bool {
		timer = 0
		t.Fatalf("timed out after %s waiting for %s", timeout, what)

		return false
	})

	t.ctx.Loop.IdleAdd(func() bool {
		start(done)
		return false
	})

	t.Run()
}

// Poll checks cond every interval until it holds. Not holding within
// timeout fails the test. Both watches are removed on every exit.
func (t *T) Poll(interval, timeout time.Duration, what string, cond func() bool) {
	var poll, timer mainloop.SourceID

	stop := func() {
		t.ctx.Loop.Remove(&poll)
		t.ctx.Loop.Remove(&timer)
	}

	poll = t.ctx.Loop.TimeoutAdd(interval, func() bool {
		if !cond() {
			return true
		}

		stop()
		t.Done()

		return false
	})

	timer = t.ctx.Loop.TimeoutAdd(timeout, func() bool {
		stop()
		t.Fatalf("timed out after %s waiting for %s", timeout, what)

		return false
	})

	t.Run()
}

// Sleep runs the event loop for d.
func (t *T) Sleep(d time.Duration) {
	t.After(d, t.Done)
	t.Run()
}

// Await calls an operation and runs the loop until its result arrives.
func (t *T) Await(op string, timeout time.Duration, call func(bluetooth.ResultCallback)) bluetooth.Error {
	result := bluetooth.ErrorFail

	t.Wait(timeout, op, func(done func()) {
		call(t.Result(func(err bluetooth.Error) {
			result = err
			done()
		}))
	})

	return result
}
