// Package mock implements a reference SIL that simulates a Bluetooth stack
// and a fixed set of remote devices.
package mock

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
)

// DefaultLatency is the simulated delay before each delivered event.
const DefaultLatency = 10 * time.Millisecond

// Option configures the mock SIL.
type Option func(*options)

type options struct {
	latency      time.Duration
	devices      []Device
	adapterDelay time.Duration
}

// WithLatency sets the simulated delivery latency.
func WithLatency(d time.Duration) Option {
	return func(o *options) { o.latency = d }
}

// WithDevices replaces the simulated remote devices.
func WithDevices(devices ...Device) Option {
	return func(o *options) { o.devices = devices }
}

// WithAdapterDelay makes the default adapter appear only after d,
// announced through SILObserver.AdaptersChanged.
func WithAdapterDelay(d time.Duration) Option {
	return func(o *options) { o.adapterDelay = d }
}

// SIL is the mock stack integration layer.
type SIL struct {
	dispatch *dispatcher
	adapter  *Adapter

	mu       sync.Mutex
	ready    bool
	observer bluetooth.SILObserver
}

// CreateBluetoothSIL is the plugin factory of the mock SIL.
func CreateBluetoothSIL(version int, capability bluetooth.IOCapability) bluetooth.SIL {
	s := New(version, capability)
	if s == nil {
		return nil
	}

	return s
}

// New returns a mock SIL, or nil if the API version is not supported.
func New(version int, capability bluetooth.IOCapability, opts ...Option) *SIL {
	if version != bluetooth.APIVersion {
		log.WithField("version", version).Warn("mock: unsupported SIL API version")
		return nil
	}

	o := options{latency: DefaultLatency, devices: DefaultDevices()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &SIL{dispatch: newDispatcher(o.latency)}
	s.adapter = newAdapter(s.dispatch, capability, o.devices)

	if o.adapterDelay <= 0 {
		s.ready = true
		return s
	}

	s.dispatch.after(o.adapterDelay, func() {
		s.mu.Lock()
		s.ready = true
		observer := s.observer
		s.mu.Unlock()

		if observer != nil {
			observer.AdaptersChanged()
		}
	})

	return s
}

// RegisterObserver sets the SIL observer.
func (s *SIL) RegisterObserver(observer bluetooth.SILObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observer = observer
}

// DefaultAdapter returns the mock adapter once it is available.
func (s *SIL) DefaultAdapter() bluetooth.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil
	}

	return s.adapter
}

// Adapters returns the available adapters.
func (s *SIL) Adapters() []bluetooth.Adapter {
	if a := s.DefaultAdapter(); a != nil {
		return []bluetooth.Adapter{a}
	}

	return nil
}

// MockAdapter returns the concrete adapter regardless of availability.
func (s *SIL) MockAdapter() *Adapter {
	return s.adapter
}

// Close stops the simulation.
func (s *SIL) Close() error {
	s.adapter.stopDiscoveryTimer()

	return s.dispatch.close()
}
