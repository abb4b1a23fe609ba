package mock

import (
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
)

// indicatorCommand is sent by the remote gateway while establishing the
// service level connection.
var indicatorCommand = bluetooth.HfpAtCommand{Type: bluetooth.AtCommandTest, Command: "+CIND"}

// HfpProfile is the mock Hands-Free Profile. Connecting waits until the
// indicator query from the remote gateway has been answered.
type HfpProfile struct {
	bluetooth.UnsupportedProfile

	adapter *Adapter

	mu          sync.Mutex
	observer    bluetooth.ProfileObserver
	hfpObserver bluetooth.HfpObserver
	connected   map[string]bool
	sco         map[string]bool
	connecting  map[string]bluetooth.ResultCallback
}

func newHfpProfile(a *Adapter) *HfpProfile {
	return &HfpProfile{
		adapter:    a,
		connected:  make(map[string]bool),
		sco:        make(map[string]bool),
		connecting: make(map[string]bluetooth.ResultCallback),
	}
}

// ID returns the HFP profile identifier.
func (h *HfpProfile) ID() bluetooth.ProfileID {
	return bluetooth.ProfileHFP
}

// RegisterObserver sets the profile observer.
func (h *HfpProfile) RegisterObserver(observer bluetooth.ProfileObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.observer = observer
}

// RegisterHfpObserver sets the HFP observer.
func (h *HfpProfile) RegisterHfpObserver(observer bluetooth.HfpObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hfpObserver = observer
}

func (h *HfpProfile) notify(fn func(bluetooth.HfpObserver)) {
	h.adapter.dispatch.post(func() {
		h.mu.Lock()
		observer := h.hfpObserver
		h.mu.Unlock()

		if observer != nil {
			fn(observer)
		}
	})
}

func (h *HfpProfile) notifyProperties(address string, connected bool) {
	props := bluetooth.PropertiesList{bluetooth.BoolProperty(bluetooth.PropertyConnected, connected)}

	h.adapter.dispatch.post(func() {
		h.mu.Lock()
		observer := h.observer
		h.mu.Unlock()

		if observer != nil {
			observer.PropertiesChanged(address, props)
		}
	})
}

// Properties delivers the connection state of a device.
func (h *HfpProfile) Properties(address string, cb bluetooth.PropertiesResultCallback) {
	key := lookupKey(address)
	if _, ok := h.adapter.Device(key); !ok {
		h.adapter.dispatch.post(func() { cb(bluetooth.ErrorUnknownDeviceAddr, nil) })
		return
	}

	h.mu.Lock()
	props := bluetooth.PropertiesList{bluetooth.BoolProperty(bluetooth.PropertyConnected, h.connected[key])}
	h.mu.Unlock()

	h.adapter.dispatch.post(func() { cb(bluetooth.ErrorNone, props) })
}

// Property delivers one profile property of a device.
func (h *HfpProfile) Property(address string, t bluetooth.PropertyType, cb bluetooth.PropertyResultCallback) {
	h.Properties(address, func(err bluetooth.Error, props bluetooth.PropertiesList) {
		p, ok := props.Find(t)
		if err == bluetooth.ErrorNone && !ok {
			err = bluetooth.ErrorParamInvalid
		}

		cb(err, p)
	})
}

// Connect establishes the service level connection with a gateway.
func (h *HfpProfile) Connect(address string, cb bluetooth.ResultCallback) {
	key := lookupKey(address)
	if _, ok := h.adapter.Device(key); !ok {
		h.adapter.reply(cb, bluetooth.ErrorUnknownDeviceAddr)
		return
	}

	if !h.adapter.Powered() {
		h.adapter.reply(cb, bluetooth.ErrorNotReady)
		return
	}

	h.mu.Lock()
	switch {
	case h.connected[key]:
		h.mu.Unlock()
		h.adapter.reply(cb, bluetooth.ErrorDeviceAlreadyConnected)

		return

	case h.connecting[key] != nil:
		h.mu.Unlock()
		h.adapter.reply(cb, bluetooth.ErrorBusy)

		return
	}

	if cb == nil {
		cb = func(bluetooth.Error) {}
	}

	observed := h.hfpObserver != nil
	if observed {
		h.connecting[key] = cb
	}
	h.mu.Unlock()

	if !observed {
		h.finishConnect(key, cb)
		return
	}

	log.WithField("address", key).Debug("mock: hfp waiting for indicators")

	h.notify(func(o bluetooth.HfpObserver) { o.AtCommandReceived(key, indicatorCommand) })
}

func (h *HfpProfile) finishConnect(address string, cb bluetooth.ResultCallback) {
	h.mu.Lock()
	h.connected[address] = true
	h.mu.Unlock()

	log.WithField("address", address).Debug("mock: hfp connected")

	h.notifyProperties(address, true)
	h.adapter.reply(cb, bluetooth.ErrorNone)
}

// Disconnect closes the service level connection and any audio link.
func (h *HfpProfile) Disconnect(address string, cb bluetooth.ResultCallback) {
	key := lookupKey(address)

	h.mu.Lock()
	if !h.connected[key] {
		h.mu.Unlock()
		h.adapter.reply(cb, bluetooth.ErrorDeviceNotConnected)

		return
	}

	sco := h.sco[key]
	delete(h.sco, key)
	delete(h.connected, key)
	h.mu.Unlock()

	if sco {
		h.notify(func(o bluetooth.HfpObserver) { o.ScoStateChanged(key, false) })
	}

	h.notifyProperties(key, false)
	h.adapter.reply(cb, bluetooth.ErrorNone)
}

// OpenSCO opens the audio link.
func (h *HfpProfile) OpenSCO(address string, cb bluetooth.ResultCallback) {
	h.setSco(address, true, cb)
}

// CloseSCO closes the audio link.
func (h *HfpProfile) CloseSCO(address string, cb bluetooth.ResultCallback) {
	h.setSco(address, false, cb)
}

func (h *HfpProfile) setSco(address string, open bool, cb bluetooth.ResultCallback) {
	key := lookupKey(address)

	h.mu.Lock()
	if !h.connected[key] {
		h.mu.Unlock()
		h.adapter.reply(cb, bluetooth.ErrorDeviceNotConnected)

		return
	}

	changed := h.sco[key] != open
	h.sco[key] = open
	h.mu.Unlock()

	if changed {
		h.notify(func(o bluetooth.HfpObserver) { o.ScoStateChanged(key, open) })
	}

	h.adapter.reply(cb, bluetooth.ErrorNone)
}

// SendResultCode answers an AT command of the gateway.
func (h *HfpProfile) SendResultCode(address, resultCode string) bluetooth.Error {
	key := lookupKey(address)
	if _, ok := h.adapter.Device(key); !ok {
		return bluetooth.ErrorUnknownDeviceAddr
	}

	h.mu.Lock()
	cb, connecting := h.connecting[key]
	if connecting && strings.HasPrefix(resultCode, indicatorCommand.Command) {
		delete(h.connecting, key)
		h.mu.Unlock()
		h.finishConnect(key, cb)

		return bluetooth.ErrorNone
	}

	connected := h.connected[key]
	h.mu.Unlock()

	if !connected && !connecting {
		return bluetooth.ErrorDeviceNotConnected
	}

	return bluetooth.ErrorNone
}

// SendAtCommand sends an AT command to the gateway, which answers OK.
func (h *HfpProfile) SendAtCommand(address string, command bluetooth.HfpAtCommand) bluetooth.Error {
	key := lookupKey(address)

	h.mu.Lock()
	connected := h.connected[key]
	h.mu.Unlock()

	if !connected {
		return bluetooth.ErrorDeviceNotConnected
	}

	log.WithFields(log.Fields{"address": key, "command": command}).Debug("mock: hfp at command")

	h.notify(func(o bluetooth.HfpObserver) { o.ResultCodeReceived(key, "OK") })

	return bluetooth.ErrorNone
}
