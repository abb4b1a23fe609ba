package mock

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
)

const waitTimeout = 2 * time.Second

type eventObserver struct {
	bluetooth.NopAdapterObserver
	events chan string
}

func (e *eventObserver) AdapterStateChanged(powered bool) {
	e.events <- fmt.Sprintf("state %v", powered)
}

func (e *eventObserver) AdapterPropertiesChanged(props bluetooth.PropertiesList) {
	e.events <- fmt.Sprintf("adapter %v", props)
}

func (e *eventObserver) DeviceFound(props bluetooth.PropertiesList) {
	address, _ := props.Find(bluetooth.PropertyBDAddr)
	e.events <- "found " + address.AsString()
}

func (e *eventObserver) DevicePropertiesChanged(address string, props bluetooth.PropertiesList) {
	if p, ok := props.Find(bluetooth.PropertyPaired); ok {
		e.events <- fmt.Sprintf("paired %s %v", address, p.AsBool())
	}
}

func (e *eventObserver) DiscoveryStateChanged(discovering bool) {
	e.events <- fmt.Sprintf("discovering %v", discovering)
}

func (e *eventObserver) DisplayPairingConfirmation(address string, passkey bluetooth.Passkey) {
	e.events <- fmt.Sprintf("confirm %s %s", address, passkey)
}

func (e *eventObserver) DisplayPairingPin(address string, pin string) {
	e.events <- fmt.Sprintf("display pin %s %s", address, pin)
}

func (e *eventObserver) DisplayPairingPasskey(address string, passkey bluetooth.Passkey) {
	e.events <- fmt.Sprintf("display passkey %s %s", address, passkey)
}

func (e *eventObserver) RequestPairingSecret(address string, t bluetooth.SecretType) {
	e.events <- fmt.Sprintf("request %s %s", address, t)
}

func (e *eventObserver) PairingCanceled() {
	e.events <- "canceled"
}

func newTestAdapter(t *testing.T, capability bluetooth.IOCapability) (*Adapter, *eventObserver) {
	t.Helper()

	s := New(bluetooth.APIVersion, capability, WithLatency(time.Millisecond))
	require.NotNil(t, s)
	t.Cleanup(func() { _ = s.Close() })

	a := s.MockAdapter()
	obs := &eventObserver{events: make(chan string, 64)}
	a.RegisterObserver(obs)

	return a, obs
}

func expectEvent(t *testing.T, obs *eventObserver, want string) {
	t.Helper()

	deadline := time.After(waitTimeout)
	for {
		select {
		case got := <-obs.events:
			if got == want {
				return
			}

		case <-deadline:
			t.Fatalf("timed out waiting for event %q", want)
		}
	}
}

func result(t *testing.T) (bluetooth.ResultCallback, func() bluetooth.Error) {
	t.Helper()

	ch := make(chan bluetooth.Error, 1)
	cb := func(err bluetooth.Error) { ch <- err }

	return cb, func() bluetooth.Error {
		t.Helper()

		select {
		case err := <-ch:
			return err
		case <-time.After(waitTimeout):
			t.Fatal("timed out waiting for result")
		}

		return bluetooth.ErrorFail
	}
}

func enable(t *testing.T, a *Adapter, obs *eventObserver) {
	t.Helper()

	require.Equal(t, bluetooth.ErrorNone, a.Enable())
	expectEvent(t, obs, "state true")
}

func TestNewRejectsUnknownVersion(t *testing.T) {
	assert.Nil(t, New(bluetooth.APIVersion+1, bluetooth.DisplayYesNo))
	assert.Nil(t, CreateBluetoothSIL(0, bluetooth.DisplayYesNo))
}

func TestAdapterAppearsAfterDelay(t *testing.T) {
	s := New(bluetooth.APIVersion, bluetooth.DisplayYesNo,
		WithLatency(time.Millisecond), WithAdapterDelay(20*time.Millisecond),
	)
	defer s.Close()

	changed := make(chan struct{}, 1)
	s.RegisterObserver(bluetooth.SILObserverFunc(func() { changed <- struct{}{} }))

	assert.Nil(t, s.DefaultAdapter())
	assert.Empty(t, s.Adapters())

	select {
	case <-changed:
	case <-time.After(waitTimeout):
		t.Fatal("adapters never changed")
	}

	assert.NotNil(t, s.DefaultAdapter())
	assert.Len(t, s.Adapters(), 1)
}

func TestEnableDisableNotifiesOnChange(t *testing.T) {
	a, obs := newTestAdapter(t, bluetooth.DisplayYesNo)

	enable(t, a, obs)
	assert.True(t, a.Powered())

	require.Equal(t, bluetooth.ErrorNone, a.Disable())
	expectEvent(t, obs, "state false")
	assert.False(t, a.Powered())
}

func TestAdapterProperties(t *testing.T) {
	a, obs := newTestAdapter(t, bluetooth.DisplayYesNo)

	got := make(chan bluetooth.Property, 1)
	a.AdapterProperty(bluetooth.PropertyDiscoverable, func(err bluetooth.Error, p bluetooth.Property) {
		assert.Equal(t, bluetooth.ErrorNone, err)
		got <- p
	})
	assert.False(t, (<-got).AsBool())

	cb, wait := result(t)
	a.SetAdapterProperty(bluetooth.BoolProperty(bluetooth.PropertyDiscoverable, true), cb)
	assert.Equal(t, bluetooth.ErrorNone, wait())
	expectEvent(t, obs, "adapter [DISCOVERABLE=true]")

	cb, wait = result(t)
	a.SetAdapterProperty(bluetooth.StringProperty(bluetooth.PropertyBDAddr, "00:00:00:00:00:01"), cb)
	assert.Equal(t, bluetooth.ErrorParamInvalid, wait())

	a.AdapterProperty(bluetooth.PropertyRSSI, func(err bluetooth.Error, p bluetooth.Property) {
		assert.Equal(t, bluetooth.ErrorParamInvalid, err)
		got <- p
	})
	assert.True(t, (<-got).IsEmpty())
}

func TestDiscoveryReportsPartner(t *testing.T) {
	a, obs := newTestAdapter(t, bluetooth.DisplayYesNo)

	assert.Equal(t, bluetooth.ErrorNotReady, a.StartDiscovery())

	enable(t, a, obs)
	require.Equal(t, bluetooth.ErrorNone, a.StartDiscovery())
	expectEvent(t, obs, "discovering true")
	expectEvent(t, obs, "found "+DefaultPartnerAddress)
	assert.True(t, a.Discovering())

	cb, wait := result(t)
	a.CancelDiscovery(cb)
	assert.Equal(t, bluetooth.ErrorNone, wait())
	expectEvent(t, obs, "discovering false")

	cb, wait = result(t)
	a.CancelDiscovery(cb)
	assert.Equal(t, bluetooth.ErrorNone, wait())
}

func TestDiscoveryTimeout(t *testing.T) {
	a, obs := newTestAdapter(t, bluetooth.DisplayYesNo)
	enable(t, a, obs)

	cb, wait := result(t)
	a.SetAdapterProperty(bluetooth.Uint32Property(bluetooth.PropertyDiscoveryTimeout, 1), cb)
	require.Equal(t, bluetooth.ErrorNone, wait())

	require.Equal(t, bluetooth.ErrorNone, a.StartDiscovery())
	expectEvent(t, obs, "discovering true")
	expectEvent(t, obs, "discovering false")
	assert.False(t, a.Discovering())
}

func TestPairingRequests(t *testing.T) {
	tests := []struct {
		name       string
		capability bluetooth.IOCapability
		address    string
		event      string
		supply     func(a *Adapter, address string) bluetooth.Error
		want       bluetooth.Error
	}{
		{
			name:       "auto confirm",
			capability: bluetooth.KeyboardOnly,
			address:    "aa:bb:cc:dd:ee:00",
			want:       bluetooth.ErrorNone,
		},
		{
			name:       "no io confirmation",
			capability: bluetooth.DisplayYesNo,
			address:    "aa:bb:cc:dd:ee:00",
			event:      "confirm aa:bb:cc:dd:ee:00 999900",
			supply: func(a *Adapter, address string) bluetooth.Error {
				return a.SupplyPairingConfirmation(address, true)
			},
			want: bluetooth.ErrorNone,
		},
		{
			name:       "confirmation accepted",
			capability: bluetooth.DisplayYesNo,
			address:    "aa:bb:cc:dd:ee:22",
			event:      "confirm aa:bb:cc:dd:ee:22 999922",
			supply: func(a *Adapter, address string) bluetooth.Error {
				return a.SupplyPairingConfirmation(address, true)
			},
			want: bluetooth.ErrorNone,
		},
		{
			name:       "confirmation rejected",
			capability: bluetooth.DisplayYesNo,
			address:    "aa:bb:cc:dd:ee:22",
			event:      "confirm aa:bb:cc:dd:ee:22 999922",
			supply: func(a *Adapter, address string) bluetooth.Error {
				return a.SupplyPairingConfirmation(address, false)
			},
			want: bluetooth.ErrorAuthenticationRejected,
		},
		{
			name:       "passkey entered",
			capability: bluetooth.KeyboardOnly,
			address:    "aa:bb:cc:dd:ee:33",
			event:      "request aa:bb:cc:dd:ee:33 PASSKEY",
			supply: func(a *Adapter, address string) bluetooth.Error {
				return a.SupplyPairingPasskey(address, 999933)
			},
			want: bluetooth.ErrorNone,
		},
		{
			name:       "wrong PASSKEY",
			capability: bluetooth.KeyboardOnly,
			address:    "aa:bb:cc:dd:ee:33",
			event:      "request aa:bb:cc:dd:ee:33 PASSKEY",
			supply: func(a *Adapter, address string) bluetooth.Error {
				return a.SupplyPairingPasskey(address, 333333)
			},
			want: bluetooth.ErrorAuthenticationFailed,
		},
		{
			name:       "passkey displayed",
			capability: bluetooth.DisplayYesNo,
			address:    "aa:bb:cc:dd:ee:33",
			event:      "display passkey aa:bb:cc:dd:ee:33 999933",
			want:       bluetooth.ErrorNone,
		},
		{
			name:       "legacy pin entered",
			capability: bluetooth.KeyboardDisplay,
			address:    "aa:bb:cc:dd:ff:aa",
			event:      "request aa:bb:cc:dd:ff:aa PIN",
			supply: func(a *Adapter, address string) bluetooth.Error {
				return a.SupplyPairingPin(address, "aa123")
			},
			want: bluetooth.ErrorNone,
		},
		{
			name:       "legacy pin displayed",
			capability: bluetooth.DisplayOnly,
			address:    "aa:bb:cc:dd:ff:aa",
			event:      "display pin aa:bb:cc:dd:ff:aa aa123",
			want:       bluetooth.ErrorNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, obs := newTestAdapter(t, tt.capability)
			enable(t, a, obs)

			cb, wait := result(t)
			a.Pair(tt.address, cb)

			if tt.event != "" {
				expectEvent(t, obs, tt.event)
			}

			if tt.supply != nil {
				require.Equal(t, bluetooth.ErrorNone, tt.supply(a, tt.address))
			}

			assert.Equal(t, tt.want, wait())
			assert.Equal(t, tt.want == bluetooth.ErrorNone, a.IsPaired(tt.address))
		})
	}
}

func TestPairImmediateFailures(t *testing.T) {
	a, obs := newTestAdapter(t, bluetooth.KeyboardOnly)

	var got bluetooth.Error

	a.Pair("aa:bb:cc:dd:ee:00", func(err bluetooth.Error) { got = err })
	assert.Equal(t, bluetooth.ErrorNotReady, got)

	enable(t, a, obs)

	a.Pair("", func(err bluetooth.Error) { got = err })
	assert.Equal(t, bluetooth.ErrorParamInvalid, got)

	a.Pair("01:02:03:04:05:06", func(err bluetooth.Error) { got = err })
	assert.Equal(t, bluetooth.ErrorUnknownDeviceAddr, got)

	a.Pair("aa:bb:cc:dd:ff:aa", func(err bluetooth.Error) { got = err })
	assert.Equal(t, bluetooth.ErrorUnsupported, got)

	history := a.PairingHistory()
	require.Len(t, history, 1)
	assert.Equal(t, bluetooth.RequestUnsupported, history[0].Request)
	assert.True(t, history[0].Outgoing)
}

func TestPairWhilePendingIsBusy(t *testing.T) {
	a, obs := newTestAdapter(t, bluetooth.DisplayYesNo)
	enable(t, a, obs)

	cb, wait := result(t)
	a.Pair("aa:bb:cc:dd:ee:22", cb)

	var got bluetooth.Error
	a.Pair("aa:bb:cc:dd:ee:00", func(err bluetooth.Error) { got = err })
	assert.Equal(t, bluetooth.ErrorBusy, got)

	expectEvent(t, obs, "confirm aa:bb:cc:dd:ee:22 999922")
	assert.Equal(t, bluetooth.ErrorNotAllowed, a.SupplyPairingPasskey("aa:bb:cc:dd:ee:22", 1))
	require.Equal(t, bluetooth.ErrorNone, a.SupplyPairingConfirmation("aa:bb:cc:dd:ee:22", true))
	assert.Equal(t, bluetooth.ErrorBusy, a.SupplyPairingConfirmation("aa:bb:cc:dd:ee:22", true))
	assert.Equal(t, bluetooth.ErrorNone, wait())

	a.Pair("aa:bb:cc:dd:ee:22", func(err bluetooth.Error) { got = err })
	assert.Equal(t, bluetooth.ErrorDeviceAlreadyPaired, got)
}

func TestCancelPairing(t *testing.T) {
	a, obs := newTestAdapter(t, bluetooth.KeyboardOnly)
	enable(t, a, obs)

	pairCb, pairWait := result(t)
	a.Pair("aa:bb:cc:dd:ee:33", pairCb)
	expectEvent(t, obs, "request aa:bb:cc:dd:ee:33 PASSKEY")

	cb, wait := result(t)
	a.CancelPairing("aa:bb:cc:dd:ee:33", cb)

	assert.Equal(t, bluetooth.ErrorAuthenticationCanceled, pairWait())
	assert.Equal(t, bluetooth.ErrorNone, wait())
	assert.False(t, a.IsPaired("aa:bb:cc:dd:ee:33"))

	cb, wait = result(t)
	a.CancelPairing("aa:bb:cc:dd:ee:33", cb)
	assert.Equal(t, bluetooth.ErrorNotAllowed, wait())
}

func TestIncomingPairingAndUnpair(t *testing.T) {
	a, obs := newTestAdapter(t, bluetooth.KeyboardOnly)
	enable(t, a, obs)

	cb, wait := result(t)
	a.TestRequestIncomingPair("AA:BB:CC:DD:FF:AA", cb)
	expectEvent(t, obs, "request aa:bb:cc:dd:ff:aa PIN")
	require.Equal(t, bluetooth.ErrorNone, a.SupplyPairingPin("aa:bb:cc:dd:ff:aa", "aa123"))
	assert.Equal(t, bluetooth.ErrorNone, wait())
	expectEvent(t, obs, "paired aa:bb:cc:dd:ff:aa true")

	history := a.PairingHistory()
	require.Len(t, history, 1)
	assert.False(t, history[0].Outgoing)

	cb, wait = result(t)
	a.Unpair("aa:bb:cc:dd:ff:aa", cb)
	assert.Equal(t, bluetooth.ErrorNone, wait())
	expectEvent(t, obs, "paired aa:bb:cc:dd:ff:aa false")

	cb, wait = result(t)
	a.Unpair("aa:bb:cc:dd:ff:aa", cb)
	assert.Equal(t, bluetooth.ErrorDeviceNotPaired, wait())
}

func TestDisableAbortsPairing(t *testing.T) {
	a, obs := newTestAdapter(t, bluetooth.DisplayYesNo)
	enable(t, a, obs)

	cb, wait := result(t)
	a.Pair("aa:bb:cc:dd:ee:22", cb)
	expectEvent(t, obs, "confirm aa:bb:cc:dd:ee:22 999922")

	require.Equal(t, bluetooth.ErrorNone, a.Disable())
	assert.Equal(t, bluetooth.ErrorAborted, wait())
}

func TestDeviceProperties(t *testing.T) {
	a, _ := newTestAdapter(t, bluetooth.DisplayYesNo)

	got := make(chan bluetooth.PropertiesList, 1)
	a.DeviceProperties(DefaultPartnerAddress, func(err bluetooth.Error, props bluetooth.PropertiesList) {
		assert.Equal(t, bluetooth.ErrorNone, err)
		got <- props
	})

	props := <-got
	uuids, ok := props.Find(bluetooth.PropertyUUIDs)
	require.True(t, ok)
	assert.Contains(t, uuids.AsStrings(), SppServiceUUID)

	cb, wait := result(t)
	a.SetDeviceProperty(DefaultPartnerAddress, bluetooth.StringProperty(bluetooth.PropertyName, "x"), cb)
	assert.Equal(t, bluetooth.ErrorParamInvalid, wait())

	cb, wait = result(t)
	a.SetDeviceProperty("01:02:03:04:05:06", bluetooth.BoolProperty(bluetooth.PropertyTrusted, true), cb)
	assert.Equal(t, bluetooth.ErrorUnknownDeviceAddr, wait())
}
