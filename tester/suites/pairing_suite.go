package suites

import (
	"slices"

	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/mock"
	"github.com/webosose/bluetooth-sil-api/tester"
)

// The addresses of the reference plugin's remote devices.
const (
	noIOAddress         = "aa:bb:cc:dd:ee:00"
	displayYesNoAddress = "aa:bb:cc:dd:ee:22"
	keyboardOnlyAddress = "aa:bb:cc:dd:ee:33"
	legacyAddress       = "aa:bb:cc:dd:ff:aa"
)

// devicePin is the PIN offered when pairing with the partner device.
const devicePin = "0000"

type pairingCase struct {
	path    string
	locals  []bluetooth.IOCapability
	attempt PairingAttempt
}

var (
	sspCapabilities = []bluetooth.IOCapability{
		bluetooth.DisplayYesNo, bluetooth.KeyboardDisplay, bluetooth.KeyboardOnly,
	}
	displayCapabilities = []bluetooth.IOCapability{
		bluetooth.DisplayYesNo, bluetooth.KeyboardDisplay,
	}
	keyboardOnly    = []bluetooth.IOCapability{bluetooth.KeyboardOnly}
	keyboardDisplay = []bluetooth.IOCapability{bluetooth.KeyboardDisplay}
	pinDisplay      = []bluetooth.IOCapability{bluetooth.DisplayYesNo, bluetooth.DisplayOnly}
)

// pairingCases is the pairing matrix run against the reference plugin.
// Each case runs only for the local capabilities it lists.
var pairingCases = []pairingCase{
	{
		"/SIL/Adapter/Pairing/Passkey/Outgoing/NoInputNoOutput/Pass", sspCapabilities,
		MustPairingAttempt(noIOAddress, Outgoing, true, PasskeySecret(999900)),
	},
	{
		"/SIL/Adapter/Pairing/Passkey/Outgoing/NoInputNoOutput/Fail", displayCapabilities,
		MustPairingAttempt(noIOAddress, Outgoing, false, PasskeySecret(444444)),
	},
	{
		"/SIL/Adapter/Pairing/Passkey/Outgoing/KeyboardOnly/Pass", sspCapabilities,
		MustPairingAttempt(keyboardOnlyAddress, Outgoing, true, PasskeySecret(999933)),
	},
	{
		"/SIL/Adapter/Pairing/Passkey/Outgoing/KeyboardOnly/Fail", keyboardOnly,
		MustPairingAttempt(keyboardOnlyAddress, Outgoing, false, PasskeySecret(333333)),
	},
	{
		"/SIL/Adapter/Pairing/Passkey/Incoming/NoInputNoOutput/Pass", sspCapabilities,
		MustPairingAttempt(noIOAddress, Incoming, true, PasskeySecret(999900)),
	},
	{
		"/SIL/Adapter/Pairing/Passkey/Incoming/DisplayYesNo/Pass", sspCapabilities,
		MustPairingAttempt(displayYesNoAddress, Incoming, true, PasskeySecret(999922)),
	},
	{
		"/SIL/Adapter/Pairing/Passkey/Incoming/DisplayYesNo/Fail", sspCapabilities,
		MustPairingAttempt(displayYesNoAddress, Incoming, false, PasskeySecret(222222)),
	},
	{
		"/SIL/Adapter/Pairing/Passkey/Incoming/KeyboardOnly/Pass", sspCapabilities,
		MustPairingAttempt(keyboardOnlyAddress, Incoming, true, PasskeySecret(999933)),
	},

	{
		"/SIL/Adapter/Pairing/Pin/Outgoing/KeyboardDisplay/Legacy/Pass", keyboardDisplay,
		MustPairingAttempt(legacyAddress, Outgoing, true, PinSecret("aa123")),
	},
	{
		"/SIL/Adapter/Pairing/Pin/Outgoing/KeyboardDisplay/Legacy/Fail", keyboardDisplay,
		MustPairingAttempt(legacyAddress, Outgoing, false, PinSecret("xx123")),
	},
	{
		"/SIL/Adapter/Pairing/Pin/Incoming/KeyboardDisplay/Legacy/Pass", keyboardDisplay,
		MustPairingAttempt(legacyAddress, Incoming, true, PinSecret("aa123")),
	},
	{
		"/SIL/Adapter/Pairing/Pin/Incoming/KeyboardDisplay/Legacy/Fail", keyboardDisplay,
		MustPairingAttempt(legacyAddress, Incoming, false, PinSecret("xx123")),
	},
	{
		"/SIL/Adapter/Pairing/Pin/Outgoing/DisplayOnly/Legacy/Pass", pinDisplay,
		MustPairingAttempt(legacyAddress, Outgoing, true, PinSecret("aa123")),
	},
	{
		"/SIL/Adapter/Pairing/Pin/Incoming/DisplayOnly/Legacy/Pass", pinDisplay,
		MustPairingAttempt(legacyAddress, Incoming, true, PinSecret("aa123")),
	},
	{
		"/SIL/Adapter/Pairing/Pin/Outgoing/KeyboardOnly/Legacy/Fail", keyboardOnly,
		MustPairingAttempt(legacyAddress, Outgoing, false, PinSecret("xx123")),
	},
	{
		"/SIL/Adapter/Pairing/Pin/Incoming/KeyboardOnly/Legacy/Pass", keyboardOnly,
		MustPairingAttempt(legacyAddress, Incoming, true, PinSecret("aa123")),
	},
	{
		"/SIL/Adapter/Pairing/Pin/Incoming/KeyboardOnly/Legacy/Fail", keyboardOnly,
		MustPairingAttempt(legacyAddress, Incoming, false, PinSecret("xx123")),
	},
}

// MockRemotes returns the pairing behavior of the reference plugin's
// remote devices.
func MockRemotes() map[string]tester.RemoteDevice {
	remotes := make(map[string]tester.RemoteDevice)
	for _, dev := range mock.DefaultDevices() {
		remotes[dev.Address] = tester.RemoteDevice{
			Capability: dev.Capability,
			Legacy:     dev.Legacy,
		}
	}

	return remotes
}

// registerPairing adds the pairing tests. The capability matrix and the
// failure cases need the reference plugin.
func registerPairing(r *tester.Registry, ctx *tester.Context) {
	if ctx.Mock {
		for _, c := range pairingCases {
			if !slices.Contains(c.locals, ctx.Capability) {
				continue
			}

			attempt := c.attempt
			r.Add(c.path, tester.AdapterFixture, func(t *tester.T) {
				RunPairing(t, attempt)
			})
		}

		if address, ok := cancelTarget(ctx); ok {
			attempt := MustPairingAttempt(address, Outgoing, false, PasskeySecret(0))
			attempt.Cancel = true

			r.Add("/SIL/Adapter/Pairing/Passkey/Outgoing/Cancel", tester.AdapterFixture, func(t *tester.T) {
				RunPairing(t, attempt)
			})
		}

		if partnerRejectable(ctx) {
			rejected := MustPairingAttempt(ctx.Partner, Outgoing, false, PinSecret(devicePin))
			r.Add("/SIL/Adapter/Pairing/Device/Outgoing/Fail", tester.AdapterFixture, func(t *tester.T) {
				RunPairing(t, rejected)
			})
		}

		invalid := MustPairingAttempt("", Outgoing, false, PinSecret(devicePin))
		r.Add("/SIL/Adapter/Pairing/Device/Outgoing/InvalidAddress", tester.AdapterFixture, func(t *tester.T) {
			RunPairing(t, invalid)
		})
	}

	partner := MustPairingAttempt(ctx.Partner, Outgoing, true, PinSecret(devicePin))
	r.Add("/SIL/Adapter/Pairing/Device/Outgoing/Success", tester.ObserverFixture, func(t *tester.T) {
		RunPairing(t, partner)
	})

	r.Add("/SIL/Adapter/Device/UUID/search", tester.AdapterFixture, func(t *tester.T) {
		address := DiscoverDevice(t)

		props := DeviceProperties(t, address)
		uuids, _ := props.Find(bluetooth.PropertyUUIDs)
		t.Assert(len(uuids.AsStrings()) > 0, "device %s reports no UUIDs", address)
	})
}

// partnerRejectable reports whether pairing with the partner asks the
// local side for an answer it can refuse.
func partnerRejectable(ctx *tester.Context) bool {
	remote, ok := ctx.Remote(ctx.Partner)
	if !ok {
		return false
	}

	return bluetooth.ExpectedPairingRequest(ctx.Capability, remote.Capability, remote.Legacy, true) ==
		bluetooth.RequestConfirmation
}

// cancelTarget returns a remote device whose pairing asks the local side
// for an answer, so that it can be canceled.
func cancelTarget(ctx *tester.Context) (string, bool) {
	for _, address := range []string{displayYesNoAddress, keyboardOnlyAddress} {
		remote, ok := ctx.Remote(address)
		if !ok {
			continue
		}

		switch bluetooth.ExpectedPairingRequest(ctx.Capability, remote.Capability, remote.Legacy, true) {
		case bluetooth.RequestConfirmation, bluetooth.RequestSecret:
			return address, true
		}
	}

	return "", false
}
