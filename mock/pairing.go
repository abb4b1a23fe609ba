package mock

import (
	"slices"

	log "github.com/sirupsen/logrus"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
)

// PairingRecord describes a pairing procedure started by the mock adapter.
type PairingRecord struct {
	Address  string
	Outgoing bool
	Request  bluetooth.PairingRequest
}

// pairing is the pairing procedure in progress.
type pairing struct {
	device   Device
	record   PairingRecord
	cb       bluetooth.ResultCallback
	answered bool
}

// Pair starts an outgoing pairing with a remote device.
func (a *Adapter) Pair(address string, cb bluetooth.ResultCallback) {
	a.startPairing(address, true, cb)
}

// TestRequestIncomingPair simulates a remote device initiating pairing.
// The callback receives the final outcome.
func (a *Adapter) TestRequestIncomingPair(address string, cb bluetooth.ResultCallback) {
	a.startPairing(address, false, cb)
}

// PairingHistory returns the pairing procedures started so far.
func (a *Adapter) PairingHistory() []PairingRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	return slices.Clone(a.pairingHistory)
}

// startPairing reports argument and state errors through cb before
// returning. Everything else is delivered later.
func (a *Adapter) startPairing(address string, outgoing bool, cb bluetooth.ResultCallback) {
	if cb == nil {
		cb = func(bluetooth.Error) {}
	}

	if address == "" {
		cb(bluetooth.ErrorParamInvalid)
		return
	}

	key := lookupKey(address)

	a.mu.Lock()
	dev, known := a.devices[key]

	var err bluetooth.Error

	switch {
	case !a.powered:
		err = bluetooth.ErrorNotReady
	case !known:
		err = bluetooth.ErrorUnknownDeviceAddr
	case a.paired[key]:
		err = bluetooth.ErrorDeviceAlreadyPaired
	case a.pending != nil:
		err = bluetooth.ErrorBusy
	}

	if err != bluetooth.ErrorNone {
		a.mu.Unlock()
		cb(err)

		return
	}

	p := &pairing{
		device: dev,
		cb:     cb,
		record: PairingRecord{
			Address:  key,
			Outgoing: outgoing,
			Request:  bluetooth.ExpectedPairingRequest(a.capability, dev.Capability, dev.Legacy, outgoing),
		},
	}
	a.pairingHistory = append(a.pairingHistory, p.record)

	if p.record.Request == bluetooth.RequestUnsupported {
		a.mu.Unlock()
		cb(bluetooth.ErrorUnsupported)

		return
	}

	a.pending = p
	a.mu.Unlock()

	log.WithFields(log.Fields{
		"address":  key,
		"outgoing": outgoing,
		"request":  p.record.Request,
	}).Debug("mock: pairing started")

	switch p.record.Request {
	case bluetooth.RequestNone:
		a.dispatch.post(func() { a.complete(p, bluetooth.ErrorNone) })

	case bluetooth.RequestConfirmation:
		a.notify(func(o bluetooth.AdapterObserver) {
			o.DisplayPairingConfirmation(key, dev.Passkey)
		})

	case bluetooth.RequestDisplaySecret:
		a.notify(func(o bluetooth.AdapterObserver) {
			if dev.Legacy {
				o.DisplayPairingPin(key, dev.Pin)
				return
			}

			o.DisplayPairingPasskey(key, dev.Passkey)
		})

		// The remote side types the displayed secret.
		a.dispatch.post(func() { a.complete(p, bluetooth.ErrorNone) })

	case bluetooth.RequestSecret:
		a.notify(func(o bluetooth.AdapterObserver) {
			o.RequestPairingSecret(key, dev.SecretType())
		})
	}
}

// awaiting returns the pending pairing with address if it waits for req.
func (a *Adapter) awaiting(address string, req bluetooth.PairingRequest) (*pairing, bluetooth.Error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p := a.pending
	if p == nil || p.record.Address != lookupKey(address) || p.record.Request != req {
		return nil, bluetooth.ErrorNotAllowed
	}

	if p.answered {
		return nil, bluetooth.ErrorBusy
	}

	p.answered = true

	return p, bluetooth.ErrorNone
}

// SupplyPairingConfirmation answers a confirmation request.
func (a *Adapter) SupplyPairingConfirmation(address string, accept bool) bluetooth.Error {
	p, err := a.awaiting(address, bluetooth.RequestConfirmation)
	if err != bluetooth.ErrorNone {
		return err
	}

	result := bluetooth.ErrorNone
	if !accept {
		result = bluetooth.ErrorAuthenticationRejected
	}

	a.dispatch.post(func() { a.complete(p, result) })

	return bluetooth.ErrorNone
}

// SupplyPairingPin answers a PIN request.
func (a *Adapter) SupplyPairingPin(address string, pin string) bluetooth.Error {
	if bluetooth.ValidatePin(pin) != nil {
		return bluetooth.ErrorParamInvalid
	}

	if !a.wantsSecret(address, bluetooth.SecretTypePin) {
		return bluetooth.ErrorNotAllowed
	}

	p, err := a.awaiting(address, bluetooth.RequestSecret)
	if err != bluetooth.ErrorNone {
		return err
	}

	result := bluetooth.ErrorNone
	if pin != p.device.Pin {
		result = bluetooth.ErrorAuthenticationFailed
	}

	a.dispatch.post(func() { a.complete(p, result) })

	return bluetooth.ErrorNone
}

// SupplyPairingPasskey answers a passkey request.
func (a *Adapter) SupplyPairingPasskey(address string, passkey bluetooth.Passkey) bluetooth.Error {
	if bluetooth.ValidatePasskey(passkey) != nil {
		return bluetooth.ErrorParamInvalid
	}

	if !a.wantsSecret(address, bluetooth.SecretTypePasskey) {
		return bluetooth.ErrorNotAllowed
	}

	p, err := a.awaiting(address, bluetooth.RequestSecret)
	if err != bluetooth.ErrorNone {
		return err
	}

	result := bluetooth.ErrorNone
	if passkey != p.device.Passkey {
		result = bluetooth.ErrorAuthenticationFailed
	}

	a.dispatch.post(func() { a.complete(p, result) })

	return bluetooth.ErrorNone
}

func (a *Adapter) wantsSecret(address string, t bluetooth.SecretType) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	p := a.pending

	return p != nil && p.record.Address == lookupKey(address) && p.device.SecretType() == t
}

// CancelPairing aborts the pairing in progress with a device.
func (a *Adapter) CancelPairing(address string, cb bluetooth.ResultCallback) {
	a.mu.Lock()
	p := a.pending
	if p == nil || p.record.Address != lookupKey(address) {
		a.mu.Unlock()
		a.reply(cb, bluetooth.ErrorNotAllowed)

		return
	}

	a.pending = nil
	a.mu.Unlock()

	log.WithField("address", p.record.Address).Debug("mock: pairing canceled")

	a.notify(func(o bluetooth.AdapterObserver) { o.PairingCanceled() })
	a.dispatch.post(func() { p.cb(bluetooth.ErrorAuthenticationCanceled) })
	a.reply(cb, bluetooth.ErrorNone)
}

// Unpair removes the pairing with a device.
func (a *Adapter) Unpair(address string, cb bluetooth.ResultCallback) {
	key := lookupKey(address)

	a.mu.Lock()
	_, known := a.devices[key]
	paired := a.paired[key]
	if paired {
		delete(a.paired, key)
	}
	a.mu.Unlock()

	switch {
	case address == "":
		a.reply(cb, bluetooth.ErrorParamInvalid)
	case !known:
		a.reply(cb, bluetooth.ErrorUnknownDeviceAddr)
	case !paired:
		a.reply(cb, bluetooth.ErrorDeviceNotPaired)
	default:
		a.updateDevice(key, bluetooth.BoolProperty(bluetooth.PropertyPaired, false))
		a.reply(cb, bluetooth.ErrorNone)
	}
}

// complete finishes p unless it was canceled or superseded.
func (a *Adapter) complete(p *pairing, err bluetooth.Error) {
	a.mu.Lock()
	if a.pending != p {
		a.mu.Unlock()
		return
	}

	a.pending = nil
	if err == bluetooth.ErrorNone {
		a.paired[p.record.Address] = true
	}
	a.mu.Unlock()

	log.WithFields(log.Fields{
		"address": p.record.Address,
		"result":  err,
	}).Debug("mock: pairing finished")

	if err == bluetooth.ErrorNone {
		a.updateDevice(p.record.Address, bluetooth.BoolProperty(bluetooth.PropertyPaired, true))
	}

	a.dispatch.post(func() { p.cb(err) })
}

// cancelPending fails the pairing in progress with err.
func (a *Adapter) cancelPending(err bluetooth.Error) {
	a.mu.Lock()
	p := a.pending
	a.pending = nil
	a.mu.Unlock()

	if p != nil {
		a.dispatch.post(func() { p.cb(err) })
	}
}
