package suites

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
	"github.com/webosose/bluetooth-sil-api/internal/mainloop"
	"github.com/webosose/bluetooth-sil-api/tester"
)

// Direction tells which side initiates a pairing.
type Direction int

// The pairing directions.
const (
	Outgoing Direction = iota
	Incoming
)

// String returns the name of the direction.
func (d Direction) String() string {
	if d == Incoming {
		return "Incoming"
	}

	return "Outgoing"
}

// Secret is a pairing secret, either a passkey or a legacy PIN.
type Secret struct {
	Type    bluetooth.SecretType
	Passkey bluetooth.Passkey
	Pin     string
}

// PasskeySecret returns a passkey secret.
func PasskeySecret(passkey bluetooth.Passkey) Secret {
	return Secret{Type: bluetooth.SecretTypePasskey, Passkey: passkey}
}

// PinSecret returns a PIN secret.
func PinSecret(pin string) Secret {
	return Secret{Type: bluetooth.SecretTypePin, Pin: pin}
}

// String formats the secret.
func (s Secret) String() string {
	if s.Type == bluetooth.SecretTypePin {
		return fmt.Sprintf("PIN %q", s.Pin)
	}

	return "passkey " + s.Passkey.String()
}

// PairingAttempt describes one pairing to perform and its expected outcome.
type PairingAttempt struct {
	Address       string
	Direction     Direction
	ExpectSuccess bool
	Secret        Secret

	// Cancel cancels the pairing on the first request instead of
	// answering it.
	Cancel bool
}

// NewPairingAttempt validates and returns a pairing attempt. An empty
// address is accepted to exercise the plugin's argument checks.
func NewPairingAttempt(address string, direction Direction, expectSuccess bool, secret Secret) (PairingAttempt, error) {
	if address != "" {
		normalized, err := bluetooth.NormalizeAddress(address)
		if err != nil {
			return PairingAttempt{}, err
		}

		address = normalized
	}

	var err error
	switch secret.Type {
	case bluetooth.SecretTypePasskey:
		err = bluetooth.ValidatePasskey(secret.Passkey)
	case bluetooth.SecretTypePin:
		err = bluetooth.ValidatePin(secret.Pin)
	default:
		err = errors.Wrapf(errorkinds.ErrInvalidSecret, "unknown secret type %d", int(secret.Type))
	}

	if err != nil {
		return PairingAttempt{}, err
	}

	return PairingAttempt{
		Address:       address,
		Direction:     direction,
		ExpectSuccess: expectSuccess,
		Secret:        secret,
	}, nil
}

// MustPairingAttempt is like NewPairingAttempt but panics on invalid input.
func MustPairingAttempt(address string, direction Direction, expectSuccess bool, secret Secret) PairingAttempt {
	attempt, err := NewPairingAttempt(address, direction, expectSuccess, secret)
	if err != nil {
		panic(err)
	}

	return attempt
}

// pairingRun is the state of one pairing handshake. It is only touched
// on the event loop.
type pairingRun struct {
	t       *tester.T
	attempt PairingAttempt

	preamble mainloop.SourceID
	poll     mainloop.SourceID
	timeout  mainloop.SourceID

	// expected is the request the capability matrix predicts, if the
	// remote device is known.
	expected *bluetooth.PairingRequest
	request  *bluetooth.PairingRequest

	canceled bool
	done     bool
}

// RunPairing performs the pairing handshake of attempt and fails the test
// if the outcome differs from the expected one. It needs the observer of
// tester.AdapterFixture.
func RunPairing(t *tester.T, attempt PairingAttempt) {
	t.Assert(t.Observer != nil, "pairing needs an adapter observer")

	r := &pairingRun{t: t, attempt: attempt}

	ctx := t.Context()
	if remote, ok := ctx.Remote(attempt.Address); ok {
		expected := bluetooth.ExpectedPairingRequest(
			ctx.Capability, remote.Capability, remote.Legacy, attempt.Direction == Outgoing,
		)
		r.expected = &expected
	}

	t.Observer.OnChange(r.pump)

	r.preamble = t.Loop().TimeoutAdd(ctx.Timings.PairingTimeout, func() bool {
		r.preamble = 0
		r.fail("pairing with %s did not start within %s", attempt.Address, ctx.Timings.PairingTimeout)

		return false
	})

	switch attempt.Direction {
	case Outgoing:
		t.After(ctx.Timings.OutgoingDelay, r.startOutgoing)
	case Incoming:
		t.Loop().IdleAdd(func() bool {
			r.startIncoming()
			return false
		})
	}

	t.Run()
}

func (r *pairingRun) startOutgoing() {
	adapter := r.t.Adapter()

	adapter.CancelDiscovery(r.t.Result(func(err bluetooth.Error) {
		if err != bluetooth.ErrorNone {
			r.fail("CancelDiscovery: expected %s, got %s", bluetooth.ErrorNone, err)
		}

		adapter.Unpair(r.attempt.Address, r.t.Result(func(err bluetooth.Error) {
			r.t.Logf("Unpair %s: %s", r.attempt.Address, err)
			r.initiate(adapter.Pair)
		}))
	}))
}

func (r *pairingRun) startIncoming() {
	adapter := r.t.Adapter()

	if !r.t.Context().Mock {
		r.fail("incoming pairing can only be triggered by a reference plugin")
	}

	trigger, ok := adapter.(bluetooth.IncomingPairingTrigger)
	if !ok {
		r.fail("adapter cannot simulate an incoming pairing")
	}

	adapter.Unpair(r.attempt.Address, r.t.Result(func(err bluetooth.Error) {
		r.t.Logf("Unpair %s: %s", r.attempt.Address, err)
		r.initiate(trigger.TestRequestIncomingPair)
	}))
}

// initiate starts the pairing. The watches are only armed if the
// outcome was not reported before start returned.
func (r *pairingRun) initiate(start func(string, bluetooth.ResultCallback)) {
	r.t.Loop().Remove(&r.preamble)

	var (
		mu     sync.Mutex
		window = true
		early  *bluetooth.Error
	)

	start(r.attempt.Address, func(err bluetooth.Error) {
		mu.Lock()
		if window {
			early = &err
			mu.Unlock()

			return
		}
		mu.Unlock()

		r.t.Invoke(func() { r.complete(err) })
	})

	mu.Lock()
	window = false
	result := early
	mu.Unlock()

	if result != nil {
		r.t.Logf("Pairing with %s ended immediately: %s", r.attempt.Address, *result)
		r.complete(*result)

		return
	}

	timings := r.t.Context().Timings

	r.poll = r.t.Every(timings.PairingPoll, func() bool {
		r.t.Logf("Waiting for pairing with %s", r.attempt.Address)
		r.pump()

		return !r.done
	})

	r.timeout = r.t.Loop().TimeoutAdd(timings.PairingTimeout, func() bool {
		r.timeout = 0
		r.fail("pairing with %s timed out after %s", r.attempt.Address, timings.PairingTimeout)

		return false
	})
}

// pump handles the queued pairing events.
func (r *pairingRun) pump() {
	for !r.done {
		e, ok := r.t.Observer.NextPairingEvent()
		if !ok {
			return
		}

		r.handle(e)
	}
}

func (r *pairingRun) handle(e tester.PairingEvent) {
	r.t.Logf("Pairing event %s for %s", e.Kind, e.Address)

	if e.Kind == tester.PairingCanceled {
		if !r.attempt.Cancel {
			r.fail("pairing with %s was canceled unexpectedly", r.attempt.Address)
		}

		r.canceled = true

		return
	}

	if !bluetooth.SameAddress(e.Address, r.attempt.Address) {
		r.fail("%s for %s, expected %s", e.Kind, e.Address, r.attempt.Address)
	}

	request := e.Request()
	if r.request != nil {
		r.fail("%s for %s after %s in the same pairing", e.Kind, e.Address, *r.request)
	}
	if r.expected != nil && request != *r.expected {
		r.fail("local %s pairing with %s: expected %s, observed %s",
			r.t.Context().Capability, r.attempt.Address, *r.expected, request,
		)
	}
	r.request = &request

	if r.attempt.Cancel {
		r.t.Adapter().CancelPairing(r.attempt.Address, r.t.Result(func(err bluetooth.Error) {
			if err != bluetooth.ErrorNone {
				r.fail("CancelPairing: expected %s, got %s", bluetooth.ErrorNone, err)
			}
		}))

		return
	}

	switch e.Kind {
	case tester.ConfirmationRequested:
		r.confirm(e)
	case tester.SecretDisplayRequested:
		r.checkDisplayed(e)
	case tester.SecretRequested:
		r.supply(e)
	}
}

func (r *pairingRun) confirm(e tester.PairingEvent) {
	secret := r.attempt.Secret
	if r.t.Context().Mock && r.attempt.ExpectSuccess && secret.Type == bluetooth.SecretTypePasskey &&
		e.Passkey != secret.Passkey {
		r.fail("confirmation passkey for %s: expected %s, got %s", r.attempt.Address, secret.Passkey, e.Passkey)
	}

	if err := r.t.Adapter().SupplyPairingConfirmation(r.attempt.Address, r.attempt.ExpectSuccess); err != bluetooth.ErrorNone {
		r.fail("SupplyPairingConfirmation: %s", err)
	}
}

// checkDisplayed compares the displayed secret with the known one. Only
// a reference plugin reports secrets the harness can know in advance.
func (r *pairingRun) checkDisplayed(e tester.PairingEvent) {
	if !r.t.Context().Mock {
		return
	}

	secret := r.attempt.Secret
	if e.SecretType != secret.Type {
		r.fail("displayed secret for %s: expected %s, got %s", r.attempt.Address, secret.Type, e.SecretType)
	}

	switch secret.Type {
	case bluetooth.SecretTypePin:
		if e.Pin != secret.Pin {
			r.fail("displayed PIN for %s: expected %q, got %q", r.attempt.Address, secret.Pin, e.Pin)
		}

	case bluetooth.SecretTypePasskey:
		if e.Passkey != secret.Passkey {
			r.fail("displayed passkey for %s: expected %s, got %s", r.attempt.Address, secret.Passkey, e.Passkey)
		}
	}
}

func (r *pairingRun) supply(e tester.PairingEvent) {
	secret := r.attempt.Secret
	if r.t.Context().Mock && e.SecretType != secret.Type {
		r.fail("requested secret for %s: expected %s, got %s", r.attempt.Address, secret.Type, e.SecretType)
	}

	var err bluetooth.Error
	switch e.SecretType {
	case bluetooth.SecretTypePin:
		err = r.t.Adapter().SupplyPairingPin(r.attempt.Address, secret.Pin)
	case bluetooth.SecretTypePasskey:
		err = r.t.Adapter().SupplyPairingPasskey(r.attempt.Address, secret.Passkey)
	}

	if err != bluetooth.ErrorNone {
		r.fail("supplying %s for %s request: %s", secret, e.SecretType, err)
	}
}

// complete checks the outcome of the pairing and ends the handshake.
func (r *pairingRun) complete(err bluetooth.Error) {
	if r.done {
		return
	}

	r.pump()
	r.stop()

	r.t.Logf("Pairing with %s finished: %s", r.attempt.Address, err)

	if r.attempt.Cancel {
		if err != bluetooth.ErrorAuthenticationCanceled {
			r.t.Fatalf("canceled pairing with %s: expected %s, got %s",
				r.attempt.Address, bluetooth.ErrorAuthenticationCanceled, err,
			)
		}

		r.t.Assert(r.canceled, "pairing with %s was canceled without a PairingCanceled event", r.attempt.Address)
		r.t.Done()

		return
	}

	if succeeded := err == bluetooth.ErrorNone; succeeded != r.attempt.ExpectSuccess {
		expected := "failure"
		if r.attempt.ExpectSuccess {
			expected = "success"
		}

		r.t.Fatalf("%s pairing with %s using %s: expected %s, got %s",
			r.attempt.Direction, r.attempt.Address, r.attempt.Secret, expected, err,
		)
	}

	if err == bluetooth.ErrorNone && r.request == nil && r.expected != nil &&
		*r.expected != bluetooth.RequestNone {
		r.t.Fatalf("pairing with %s succeeded without the expected %s request", r.attempt.Address, *r.expected)
	}

	r.t.Done()
}

// stop removes every watch of the handshake.
func (r *pairingRun) stop() {
	r.done = true

	loop := r.t.Loop()
	loop.Remove(&r.preamble)
	loop.Remove(&r.poll)
	loop.Remove(&r.timeout)

	r.t.Observer.OnChange(nil)
}

// fail stops the handshake and the test.
func (r *pairingRun) fail(format string, args ...any) {
	r.stop()
	r.t.Fatalf(format, args...)
}
