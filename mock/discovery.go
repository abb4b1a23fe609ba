package mock

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
)

// Discovering reports whether discovery is active.
func (a *Adapter) Discovering() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.discovering
}

// StartDiscovery starts discovery and reports the discoverable devices.
// Discovery stops by itself after DISCOVERY_TIMEOUT seconds, if set.
func (a *Adapter) StartDiscovery() bluetooth.Error {
	a.mu.Lock()
	if !a.powered {
		a.mu.Unlock()
		return bluetooth.ErrorNotReady
	}

	if a.discovering {
		a.mu.Unlock()
		return bluetooth.ErrorNone
	}

	a.discovering = true

	timeoutProp, _ := a.properties.Find(bluetooth.PropertyDiscoveryTimeout)
	timeout := time.Duration(timeoutProp.AsUint32()) * time.Second

	var found []bluetooth.PropertiesList
	for _, address := range a.order {
		if a.devices[address].Discoverable {
			found = append(found, a.deviceProps[address].Clone())
		}
	}
	a.mu.Unlock()

	log.WithField("timeout", timeout).Debug("mock: discovery started")

	a.notify(func(o bluetooth.AdapterObserver) { o.DiscoveryStateChanged(true) })

	for _, props := range found {
		address, _ := props.Find(bluetooth.PropertyBDAddr)

		a.notify(func(o bluetooth.AdapterObserver) { o.DeviceFound(props.Clone()) })
		a.notify(func(o bluetooth.AdapterObserver) {
			o.DevicePropertiesChanged(address.AsString(), props.Clone())
		})
	}

	if timeout > 0 {
		stop := a.dispatch.after(timeout, func() { a.finishDiscovery() })

		a.mu.Lock()
		a.stopDiscovery = stop
		a.mu.Unlock()
	}

	return bluetooth.ErrorNone
}

// CancelDiscovery stops discovery. It succeeds if discovery is not active.
func (a *Adapter) CancelDiscovery(cb bluetooth.ResultCallback) {
	a.stopDiscoveryTimer()
	a.finishDiscovery()
	a.reply(cb, bluetooth.ErrorNone)
}

func (a *Adapter) finishDiscovery() {
	a.mu.Lock()
	wasDiscovering := a.discovering
	a.discovering = false
	a.stopDiscovery = nil
	a.mu.Unlock()

	if wasDiscovering {
		log.Debug("mock: discovery stopped")
		a.notify(func(o bluetooth.AdapterObserver) { o.DiscoveryStateChanged(false) })
	}
}

func (a *Adapter) stopDiscoveryTimer() {
	a.mu.Lock()
	stop := a.stopDiscovery
	a.stopDiscovery = nil
	a.mu.Unlock()

	if stop != nil {
		stop()
	}
}
