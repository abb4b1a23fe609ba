// Package tester drives a SIL plugin through conformance tests on a
// single-threaded event loop.
package tester

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
	"github.com/webosose/bluetooth-sil-api/internal/mainloop"
)

// Timings holds the delays and timeouts used by the tests.
type Timings struct {
	// PairingPoll is the liveness check interval of a pairing attempt,
	// PairingTimeout its overall limit.
	PairingPoll    time.Duration
	PairingTimeout time.Duration

	// OutgoingDelay is waited before an outgoing pairing starts.
	OutgoingDelay time.Duration

	DiscoveryPoll    time.Duration
	DiscoveryTimeout time.Duration

	UUIDSearchPoll    time.Duration
	UUIDSearchTimeout time.Duration

	// Settle is waited before checking the state an operation produced.
	Settle         time.Duration
	PropertySettle time.Duration

	// PowerOnDelay is waited after powering on before discovery.
	PowerOnDelay time.Duration

	// AdapterWait bounds the wait for the default adapter to appear.
	AdapterWait time.Duration

	// OperationTimeout bounds waiting for an operation result.
	OperationTimeout time.Duration

	// ProfileTimeout bounds profile connections.
	ProfileTimeout time.Duration
}

// DefaultTimings returns the timings used against real stacks.
func DefaultTimings() Timings {
	return Timings{
		PairingPoll:       1000 * time.Millisecond,
		PairingTimeout:    15000 * time.Millisecond,
		OutgoingDelay:     1000 * time.Millisecond,
		DiscoveryPoll:     100 * time.Millisecond,
		DiscoveryTimeout:  5000 * time.Millisecond,
		UUIDSearchPoll:    2000 * time.Millisecond,
		UUIDSearchTimeout: 10000 * time.Millisecond,
		Settle:            1000 * time.Millisecond,
		PropertySettle:    100 * time.Millisecond,
		PowerOnDelay:      1000 * time.Millisecond,
		AdapterWait:       2000 * time.Millisecond,
		OperationTimeout:  5000 * time.Millisecond,
		ProfileTimeout:    10000 * time.Millisecond,
	}
}

// RemoteDevice is what the harness knows in advance about a remote device.
type RemoteDevice struct {
	Capability bluetooth.IOCapability
	Legacy     bool
}

// Options configures a Context.
type Options struct {
	SIL  bluetooth.SIL
	Name string

	// Mock enables the checks that need a reference plugin.
	Mock bool

	Capability bluetooth.IOCapability
	Partner    string
	Profiles   []bluetooth.ProfileID
	Timings    Timings

	// Remotes lists the remote devices whose pairing behavior is known.
	Remotes map[string]RemoteDevice
}

// Context is the state shared by all tests of a run.
type Context struct {
	SIL     bluetooth.SIL
	Name    string
	Mock    bool
	Adapter bluetooth.Adapter

	Capability bluetooth.IOCapability
	Partner    string
	Timings    Timings

	Loop *mainloop.Loop

	profiles map[bluetooth.ProfileID]bluetooth.Profile
	remotes  map[string]RemoteDevice
}

// NewContext validates the options and acquires the default adapter.
func NewContext(opts Options) (*Context, error) {
	if opts.SIL == nil {
		return nil, errors.Wrap(errorkinds.ErrAdapterUnavailable, "no SIL")
	}

	partner, err := bluetooth.NormalizeAddress(opts.Partner)
	if err != nil {
		return nil, errors.Wrap(err, "partner address")
	}

	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}

	c := &Context{
		SIL:        opts.SIL,
		Name:       opts.Name,
		Mock:       opts.Mock,
		Capability: opts.Capability,
		Partner:    partner,
		Timings:    opts.Timings,
		Loop:       mainloop.New(),
		profiles:   make(map[bluetooth.ProfileID]bluetooth.Profile),
		remotes:    make(map[string]RemoteDevice),
	}

	for address, remote := range opts.Remotes {
		if key, err := bluetooth.NormalizeAddress(address); err == nil {
			c.remotes[key] = remote
		}
	}

	c.Adapter = c.acquireDefaultAdapter()
	if c.Adapter == nil {
		return nil, errors.Wrapf(errorkinds.ErrAdapterUnavailable, "%s", c.Name)
	}

	for _, id := range opts.Profiles {
		profile := c.Adapter.Profile(id)
		if profile == nil {
			log.WithError(errorkinds.ErrProfileUnavailable).WithField("profile", id).Warn("Skipping profile")
			continue
		}

		c.profiles[id] = profile
	}

	return c, nil
}

// acquireDefaultAdapter asks the SIL for its default adapter. If it is not
// available yet, it waits for the SIL to announce adapter changes.
func (c *Context) acquireDefaultAdapter() bluetooth.Adapter {
	var adapter bluetooth.Adapter
	var timeout mainloop.SourceID

	c.Loop.IdleAdd(func() bool {
		if adapter = c.SIL.DefaultAdapter(); adapter != nil {
			c.Loop.Quit()
			return false
		}

		log.WithField("wait", c.Timings.AdapterWait).Debug("Waiting for the default adapter")

		c.SIL.RegisterObserver(bluetooth.SILObserverFunc(func() {
			c.Loop.Invoke(func() {
				if adapter = c.SIL.DefaultAdapter(); adapter != nil {
					c.Loop.Remove(&timeout)
					c.Loop.Quit()
				}
			})
		}))

		timeout = c.Loop.TimeoutAdd(c.Timings.AdapterWait, func() bool {
			adapter = c.SIL.DefaultAdapter()
			timeout = 0
			c.Loop.Quit()

			return false
		})

		return false
	})

	c.Loop.Run()
	c.Loop.Reset()
	c.SIL.RegisterObserver(nil)

	return adapter
}

// Profile returns an enabled profile, or nil.
func (c *Context) Profile(id bluetooth.ProfileID) bluetooth.Profile {
	return c.profiles[id]
}

// ProfileEnabled reports whether tests of the profile should run.
func (c *Context) ProfileEnabled(id bluetooth.ProfileID) bool {
	_, ok := c.profiles[id]

	return ok
}

// Remote returns what is known about a remote device.
func (c *Context) Remote(address string) (RemoteDevice, bool) {
	key, err := bluetooth.NormalizeAddress(address)
	if err != nil {
		return RemoteDevice{}, false
	}

	remote, ok := c.remotes[key]

	return remote, ok
}

// Close releases the SIL.
func (c *Context) Close() error {
	return c.SIL.Close()
}
