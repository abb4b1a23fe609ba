package tester

import (
	"fmt"

	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/internal/mainloop"
)

// PairingEventKind is the kind of a pairing event reported by the plugin.
type PairingEventKind int

// The different pairing events.
const (
	ConfirmationRequested PairingEventKind = iota
	SecretDisplayRequested
	SecretRequested
	PairingCanceled
)

// String returns the name of the event kind.
func (k PairingEventKind) String() string {
	switch k {
	case ConfirmationRequested:
		return "ConfirmationRequested"
	case SecretDisplayRequested:
		return "SecretDisplayRequested"
	case SecretRequested:
		return "SecretRequested"
	case PairingCanceled:
		return "PairingCanceled"
	}

	return fmt.Sprintf("PairingEventKind(%d)", int(k))
}

// PairingEvent is a pairing event reported by the plugin.
type PairingEvent struct {
	Kind    PairingEventKind
	Address string

	// SecretType is the kind of secret displayed or requested.
	SecretType bluetooth.SecretType
	Passkey    bluetooth.Passkey
	Pin        string
}

// Request returns the pairing request the event answers to.
func (e PairingEvent) Request() bluetooth.PairingRequest {
	switch e.Kind {
	case ConfirmationRequested:
		return bluetooth.RequestConfirmation
	case SecretDisplayRequested:
		return bluetooth.RequestDisplaySecret
	case SecretRequested:
		return bluetooth.RequestSecret
	}

	return bluetooth.RequestUnsupported
}

// AdapterObserver records what the plugin reports to the adapter observer.
//
// Events are delivered from plugin goroutines and applied on the event
// loop, so the fields must only be read from the loop goroutine.
type AdapterObserver struct {
	loop   *mainloop.Loop
	closed bool

	onChange func()

	Powered       bool
	PoweredSeen   bool
	Discovering   bool
	DiscoverySeen bool

	// AdapterProperties accumulates changed adapter properties.
	AdapterProperties     bluetooth.PropertiesList
	AdapterPropertiesSeen bool

	// DeviceAddress and DeviceProperties hold the last device property
	// change.
	DeviceAddress        string
	DeviceProperties     bluetooth.PropertiesList
	DevicePropertiesSeen bool

	// Found holds the devices reported as found, by address.
	Found map[string]bluetooth.PropertiesList

	events     []PairingEvent
	violations []string
}

// NewAdapterObserver returns an observer that applies events on loop.
func NewAdapterObserver(loop *mainloop.Loop) *AdapterObserver {
	return &AdapterObserver{
		loop:  loop,
		Found: make(map[string]bluetooth.PropertiesList),
	}
}

// OnChange sets a function called on the loop after every event.
func (o *AdapterObserver) OnChange(fn func()) {
	o.onChange = fn
}

// Close stops applying events.
func (o *AdapterObserver) Close() {
	o.closed = true
	o.onChange = nil
}

func (o *AdapterObserver) apply(fn func()) {
	o.loop.Invoke(func() {
		if o.closed {
			return
		}

		fn()

		if o.onChange != nil {
			o.onChange()
		}
	})
}

// AdapterStateChanged records the power state.
func (o *AdapterObserver) AdapterStateChanged(powered bool) {
	o.apply(func() {
		o.Powered = powered
		o.PoweredSeen = true
	})
}

// AdapterPropertiesChanged records changed adapter properties.
func (o *AdapterObserver) AdapterPropertiesChanged(properties bluetooth.PropertiesList) {
	properties = properties.Clone()

	o.apply(func() {
		for _, p := range properties {
			o.AdapterProperties = o.AdapterProperties.Set(p)
		}
		o.AdapterPropertiesSeen = true
	})
}

// DeviceFound records a discovered device.
func (o *AdapterObserver) DeviceFound(properties bluetooth.PropertiesList) {
	properties = properties.Clone()

	o.apply(func() {
		if address, ok := properties.Find(bluetooth.PropertyBDAddr); ok {
			o.Found[address.AsString()] = properties
		}
	})
}

// DeviceRemoved forgets a discovered device.
func (o *AdapterObserver) DeviceRemoved(address string) {
	o.apply(func() {
		delete(o.Found, address)
	})
}

// DevicePropertiesChanged records the last device property change.
func (o *AdapterObserver) DevicePropertiesChanged(address string, properties bluetooth.PropertiesList) {
	properties = properties.Clone()

	o.apply(func() {
		o.DeviceAddress = address
		o.DeviceProperties = properties
		o.DevicePropertiesSeen = true
	})
}

// DiscoveryStateChanged records the discovery state.
func (o *AdapterObserver) DiscoveryStateChanged(discovering bool) {
	o.apply(func() {
		o.Discovering = discovering
		o.DiscoverySeen = true
	})
}

// DisplayPairingConfirmation queues a confirmation request.
func (o *AdapterObserver) DisplayPairingConfirmation(address string, passkey bluetooth.Passkey) {
	o.push(PairingEvent{
		Kind:       ConfirmationRequested,
		Address:    address,
		SecretType: bluetooth.SecretTypePasskey,
		Passkey:    passkey,
	})
}

// DisplayPairingPin queues a PIN display request.
func (o *AdapterObserver) DisplayPairingPin(address string, pin string) {
	o.push(PairingEvent{
		Kind:       SecretDisplayRequested,
		Address:    address,
		SecretType: bluetooth.SecretTypePin,
		Pin:        pin,
	})
}

// DisplayPairingPasskey queues a passkey display request.
func (o *AdapterObserver) DisplayPairingPasskey(address string, passkey bluetooth.Passkey) {
	o.push(PairingEvent{
		Kind:       SecretDisplayRequested,
		Address:    address,
		SecretType: bluetooth.SecretTypePasskey,
		Passkey:    passkey,
	})
}

// RequestPairingSecret queues a secret request.
func (o *AdapterObserver) RequestPairingSecret(address string, t bluetooth.SecretType) {
	o.push(PairingEvent{
		Kind:       SecretRequested,
		Address:    address,
		SecretType: t,
	})
}

// PairingCanceled queues a cancellation.
func (o *AdapterObserver) PairingCanceled() {
	o.push(PairingEvent{Kind: PairingCanceled})
}

// push queues a pairing event. A request arriving while another one has
// not been consumed is an overlap violation.
func (o *AdapterObserver) push(e PairingEvent) {
	o.apply(func() {
		if e.Kind != PairingCanceled {
			for _, pending := range o.events {
				if pending.Kind == PairingCanceled {
					continue
				}

				o.violations = append(o.violations,
					fmt.Sprintf("%s for %s arrived while %s for %s was pending",
						e.Kind, e.Address, pending.Kind, pending.Address,
					),
				)

				break
			}
		}

		o.events = append(o.events, e)
	})
}

// NextPairingEvent removes and returns the oldest queued pairing event.
func (o *AdapterObserver) NextPairingEvent() (PairingEvent, bool) {
	if len(o.events) == 0 {
		return PairingEvent{}, false
	}

	e := o.events[0]
	o.events = o.events[1:]

	return e, true
}

// PendingPairingEvents returns the number of queued pairing events.
func (o *AdapterObserver) PendingPairingEvents() int {
	return len(o.events)
}

// Violations returns the recorded overlap violations.
func (o *AdapterObserver) Violations() []string {
	return o.violations
}
