package mock

import (
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
)

// AdapterAddress is the address of the simulated local adapter.
const AdapterAddress = "00:00:5e:00:53:01"

// Adapter is the mock adapter.
type Adapter struct {
	dispatch   *dispatcher
	capability bluetooth.IOCapability

	mu             sync.Mutex
	observer       bluetooth.AdapterObserver
	powered        bool
	discovering    bool
	stopDiscovery  func()
	properties     bluetooth.PropertiesList
	devices        map[string]Device
	order          []string
	deviceProps    map[string]bluetooth.PropertiesList
	paired         map[string]bool
	pending        *pairing
	pairingHistory []PairingRecord

	spp *SppProfile
	hfp *HfpProfile
}

func newAdapter(d *dispatcher, capability bluetooth.IOCapability, devices []Device) *Adapter {
	a := &Adapter{
		dispatch:   d,
		capability: capability,
		properties: bluetooth.PropertiesList{
			bluetooth.StringProperty(bluetooth.PropertyName, "mock"),
			bluetooth.StringProperty(bluetooth.PropertyAlias, "mock"),
			bluetooth.StringProperty(bluetooth.PropertyBDAddr, AdapterAddress),
			bluetooth.StringProperty(bluetooth.PropertyStackName, "mock"),
			bluetooth.StringProperty(bluetooth.PropertyStackVersion, "1.0"),
			bluetooth.StringProperty(bluetooth.PropertyFirmwareVersion, "1.0"),
			bluetooth.UUIDsProperty(
				bluetooth.UUIDFromUint16(0x1200).Long(),
				bluetooth.UUIDFromUint16(0x1800).Long(),
			),
			bluetooth.Uint32Property(bluetooth.PropertyClassOfDevice, 0x0c010c),
			bluetooth.Uint32Property(bluetooth.PropertyDiscoveryTimeout, 0),
			bluetooth.BoolProperty(bluetooth.PropertyDiscoverable, false),
			bluetooth.Uint32Property(bluetooth.PropertyDiscoverableTimeout, 180),
			bluetooth.BoolProperty(bluetooth.PropertyPairable, true),
			bluetooth.Uint32Property(bluetooth.PropertyPairableTimeout, 0),
		},
		devices:     make(map[string]Device),
		deviceProps: make(map[string]bluetooth.PropertiesList),
		paired:      make(map[string]bool),
	}

	for _, dev := range devices {
		address, err := bluetooth.NormalizeAddress(dev.Address)
		if err != nil {
			log.WithField("address", dev.Address).Warn("mock: skipping device with invalid address")
			continue
		}

		dev.Address = address
		a.devices[address] = dev
		a.order = append(a.order, address)
		a.deviceProps[address] = dev.properties(false)
	}

	a.spp = newSppProfile(a)
	a.hfp = newHfpProfile(a)

	return a
}

// RegisterObserver sets the adapter observer.
func (a *Adapter) RegisterObserver(observer bluetooth.AdapterObserver) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.observer = observer
}

// notify delivers an event to the observer registered at delivery time.
func (a *Adapter) notify(fn func(bluetooth.AdapterObserver)) {
	a.dispatch.post(func() {
		a.mu.Lock()
		observer := a.observer
		a.mu.Unlock()

		if observer != nil {
			fn(observer)
		}
	})
}

// reply delivers a result callback.
func (a *Adapter) reply(cb bluetooth.ResultCallback, err bluetooth.Error) {
	if cb == nil {
		return
	}

	a.dispatch.post(func() { cb(err) })
}

// Capability returns the local pairing capability.
func (a *Adapter) Capability() bluetooth.IOCapability {
	return a.capability
}

// Powered reports whether the adapter is enabled.
func (a *Adapter) Powered() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.powered
}

// IsPaired reports whether the device is paired.
func (a *Adapter) IsPaired(address string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.paired[lookupKey(address)]
}

// Device returns a simulated remote device.
func (a *Adapter) Device(address string) (Device, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	dev, ok := a.devices[lookupKey(address)]

	return dev, ok
}

// AdapterProperties delivers all adapter properties.
func (a *Adapter) AdapterProperties(cb bluetooth.PropertiesResultCallback) {
	a.mu.Lock()
	props := a.properties.Clone()
	a.mu.Unlock()

	a.dispatch.post(func() { cb(bluetooth.ErrorNone, props) })
}

// AdapterProperty delivers one adapter property.
func (a *Adapter) AdapterProperty(t bluetooth.PropertyType, cb bluetooth.PropertyResultCallback) {
	a.mu.Lock()
	p, ok := a.properties.Find(t)
	a.mu.Unlock()

	err := bluetooth.ErrorNone
	if !ok {
		err = bluetooth.ErrorParamInvalid
	}

	a.dispatch.post(func() { cb(err, p) })
}

// writableAdapterProperties lists the properties that can be set.
var writableAdapterProperties = []bluetooth.PropertyType{
	bluetooth.PropertyName,
	bluetooth.PropertyAlias,
	bluetooth.PropertyClassOfDevice,
	bluetooth.PropertyDiscoveryTimeout,
	bluetooth.PropertyDiscoverable,
	bluetooth.PropertyDiscoverableTimeout,
	bluetooth.PropertyPairable,
	bluetooth.PropertyPairableTimeout,
}

// SetAdapterProperty sets one adapter property.
func (a *Adapter) SetAdapterProperty(property bluetooth.Property, cb bluetooth.ResultCallback) {
	a.SetAdapterProperties(bluetooth.PropertiesList{property}, cb)
}

// SetAdapterProperties sets adapter properties atomically.
func (a *Adapter) SetAdapterProperties(properties bluetooth.PropertiesList, cb bluetooth.ResultCallback) {
	for _, p := range properties {
		if !slices.Contains(writableAdapterProperties, p.Type()) {
			a.reply(cb, bluetooth.ErrorParamInvalid)
			return
		}
	}

	a.mu.Lock()
	var changed bluetooth.PropertiesList
	for _, p := range properties {
		if old, ok := a.properties.Find(p.Type()); ok && old.Equal(p) {
			continue
		}

		a.properties = a.properties.Set(p)
		changed = append(changed, p)
	}
	a.mu.Unlock()

	if len(changed) > 0 {
		a.notify(func(o bluetooth.AdapterObserver) { o.AdapterPropertiesChanged(changed) })
	}

	a.reply(cb, bluetooth.ErrorNone)
}

// Enable powers the adapter on.
func (a *Adapter) Enable() bluetooth.Error {
	a.setPowered(true)

	return bluetooth.ErrorNone
}

// Disable powers the adapter off, stopping discovery and pairing.
func (a *Adapter) Disable() bluetooth.Error {
	a.stopDiscoveryTimer()
	a.finishDiscovery()
	a.cancelPending(bluetooth.ErrorAborted)
	a.setPowered(false)

	return bluetooth.ErrorNone
}

func (a *Adapter) setPowered(powered bool) {
	a.mu.Lock()
	changed := a.powered != powered
	a.powered = powered
	a.mu.Unlock()

	if changed {
		log.WithField("powered", powered).Debug("mock: adapter state changed")
		a.notify(func(o bluetooth.AdapterObserver) { o.AdapterStateChanged(powered) })
	}
}

// DeviceProperties delivers the properties of a remote device.
func (a *Adapter) DeviceProperties(address string, cb bluetooth.PropertiesResultCallback) {
	a.mu.Lock()
	props, ok := a.deviceProps[lookupKey(address)]
	props = props.Clone()
	a.mu.Unlock()

	err := bluetooth.ErrorNone
	if !ok {
		err = bluetooth.ErrorUnknownDeviceAddr
	}

	a.dispatch.post(func() { cb(err, props) })
}

// SetDeviceProperty sets one property of a remote device.
func (a *Adapter) SetDeviceProperty(address string, property bluetooth.Property, cb bluetooth.ResultCallback) {
	a.SetDeviceProperties(address, bluetooth.PropertiesList{property}, cb)
}

// SetDeviceProperties sets the alias, trusted and blocked properties of a
// remote device.
func (a *Adapter) SetDeviceProperties(address string, properties bluetooth.PropertiesList, cb bluetooth.ResultCallback) {
	key := lookupKey(address)

	for _, p := range properties {
		switch p.Type() {
		case bluetooth.PropertyAlias, bluetooth.PropertyTrusted, bluetooth.PropertyBlocked:
		default:
			a.reply(cb, bluetooth.ErrorParamInvalid)
			return
		}
	}

	a.mu.Lock()
	props, ok := a.deviceProps[key]
	if ok {
		for _, p := range properties {
			props = props.Set(p)
		}
		a.deviceProps[key] = props
	}
	a.mu.Unlock()

	if !ok {
		a.reply(cb, bluetooth.ErrorUnknownDeviceAddr)
		return
	}

	changed := properties.Clone()
	a.notify(func(o bluetooth.AdapterObserver) { o.DevicePropertiesChanged(key, changed) })
	a.reply(cb, bluetooth.ErrorNone)
}

// Profile returns the SPP and HFP profiles.
func (a *Adapter) Profile(id bluetooth.ProfileID) bluetooth.Profile {
	switch id {
	case bluetooth.ProfileSPP:
		return a.spp
	case bluetooth.ProfileHFP:
		return a.hfp
	}

	return nil
}

// updateDevice replaces properties of a remote device and notifies observers.
func (a *Adapter) updateDevice(address string, properties ...bluetooth.Property) {
	a.mu.Lock()
	props := a.deviceProps[address]
	for _, p := range properties {
		props = props.Set(p)
	}
	a.deviceProps[address] = props
	a.mu.Unlock()

	changed := bluetooth.PropertiesList(properties).Clone()
	a.notify(func(o bluetooth.AdapterObserver) { o.DevicePropertiesChanged(address, changed) })
}

// setAdapterUUID adds or removes a local service UUID.
func (a *Adapter) setAdapterUUID(uuid string, present bool) {
	a.mu.Lock()
	p, _ := a.properties.Find(bluetooth.PropertyUUIDs)
	uuids := p.AsStrings()

	idx := slices.Index(uuids, uuid)
	switch {
	case present && idx < 0:
		uuids = append(uuids, uuid)
	case !present && idx >= 0:
		uuids = slices.Delete(uuids, idx, idx+1)
	default:
		a.mu.Unlock()
		return
	}

	updated := bluetooth.UUIDsProperty(uuids...)
	a.properties = a.properties.Set(updated)
	a.mu.Unlock()

	a.notify(func(o bluetooth.AdapterObserver) {
		o.AdapterPropertiesChanged(bluetooth.PropertiesList{updated})
	})
}

// lookupKey returns the canonical map key for an address.
func lookupKey(address string) string {
	key, err := bluetooth.NormalizeAddress(address)
	if err != nil {
		return address
	}

	return key
}
