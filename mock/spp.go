package mock

import (
	"slices"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
)

type sppConnection struct {
	address string
	uuid    string
}

// SppProfile is the mock Serial Port Profile. Data written to a channel
// is echoed back by the remote device.
type SppProfile struct {
	bluetooth.UnsupportedProfile

	adapter *Adapter

	mu          sync.Mutex
	observer    bluetooth.ProfileObserver
	sppObserver bluetooth.SppObserver
	channels    map[string]string
	connections map[bluetooth.SppChannelID]sppConnection
	lastID      bluetooth.SppChannelID
}

func newSppProfile(a *Adapter) *SppProfile {
	return &SppProfile{
		adapter:     a,
		channels:    make(map[string]string),
		connections: make(map[bluetooth.SppChannelID]sppConnection),
	}
}

// ID returns the SPP profile identifier.
func (s *SppProfile) ID() bluetooth.ProfileID {
	return bluetooth.ProfileSPP
}

// RegisterObserver sets the profile observer.
func (s *SppProfile) RegisterObserver(observer bluetooth.ProfileObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observer = observer
}

// RegisterSppObserver sets the SPP observer.
func (s *SppProfile) RegisterSppObserver(observer bluetooth.SppObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sppObserver = observer
}

func (s *SppProfile) notify(fn func(bluetooth.SppObserver)) {
	s.adapter.dispatch.post(func() {
		s.mu.Lock()
		observer := s.sppObserver
		s.mu.Unlock()

		if observer != nil {
			fn(observer)
		}
	})
}

func (s *SppProfile) notifyConnected(address string) {
	props := s.connectionProperties(address)

	s.adapter.dispatch.post(func() {
		s.mu.Lock()
		observer := s.observer
		s.mu.Unlock()

		if observer != nil {
			observer.PropertiesChanged(address, props)
		}
	})
}

func (s *SppProfile) connectionProperties(address string) bluetooth.PropertiesList {
	s.mu.Lock()
	defer s.mu.Unlock()

	connected := false
	for _, c := range s.connections {
		if c.address == address {
			connected = true
			break
		}
	}

	return bluetooth.PropertiesList{bluetooth.BoolProperty(bluetooth.PropertyConnected, connected)}
}

// Properties delivers the connection state of a device.
func (s *SppProfile) Properties(address string, cb bluetooth.PropertiesResultCallback) {
	key := lookupKey(address)
	if _, ok := s.adapter.Device(key); !ok {
		s.adapter.dispatch.post(func() { cb(bluetooth.ErrorUnknownDeviceAddr, nil) })
		return
	}

	props := s.connectionProperties(key)
	s.adapter.dispatch.post(func() { cb(bluetooth.ErrorNone, props) })
}

// Property delivers one profile property of a device.
func (s *SppProfile) Property(address string, t bluetooth.PropertyType, cb bluetooth.PropertyResultCallback) {
	s.Properties(address, func(err bluetooth.Error, props bluetooth.PropertiesList) {
		p, ok := props.Find(t)
		if err == bluetooth.ErrorNone && !ok {
			err = bluetooth.ErrorParamInvalid
		}

		cb(err, p)
	})
}

// Connect opens a channel to the standard serial port service.
func (s *SppProfile) Connect(address string, cb bluetooth.ResultCallback) {
	s.ConnectUUID(address, SppServiceUUID, func(err bluetooth.Error, _ bluetooth.SppChannelID) {
		if cb != nil {
			cb(err)
		}
	})
}

// Disconnect closes all channels to a device.
func (s *SppProfile) Disconnect(address string, cb bluetooth.ResultCallback) {
	key := lookupKey(address)

	s.mu.Lock()
	var closed []bluetooth.SppChannelID
	for id, c := range s.connections {
		if c.address == key {
			closed = append(closed, id)
		}
	}
	s.mu.Unlock()

	if len(closed) == 0 {
		s.adapter.reply(cb, bluetooth.ErrorDeviceNotConnected)
		return
	}

	slices.Sort(closed)
	for _, id := range closed {
		s.DisconnectUUID(id, nil)
	}

	s.adapter.reply(cb, bluetooth.ErrorNone)
}

// ChannelState delivers whether a channel to address and uuid is open.
func (s *SppProfile) ChannelState(address, uuid string, cb bluetooth.SppChannelStateResultCallback) {
	key := lookupKey(address)

	s.mu.Lock()
	connected := false
	for _, c := range s.connections {
		if c.address == key && strings.EqualFold(c.uuid, uuid) {
			connected = true
			break
		}
	}
	s.mu.Unlock()

	s.adapter.dispatch.post(func() { cb(bluetooth.ErrorNone, connected) })
}

// ConnectUUID opens a channel to the service uuid of a device.
func (s *SppProfile) ConnectUUID(address, uuid string, cb bluetooth.SppChannelResultCallback) {
	fail := func(err bluetooth.Error) {
		s.adapter.dispatch.post(func() { cb(err, 0) })
	}

	key := lookupKey(address)
	if _, ok := s.adapter.Device(key); !ok {
		fail(bluetooth.ErrorUnknownDeviceAddr)
		return
	}

	if !bluetooth.NewUUID(uuid).IsValid() {
		fail(bluetooth.ErrorParamInvalid)
		return
	}

	if !s.adapter.Powered() {
		fail(bluetooth.ErrorNotReady)
		return
	}

	s.mu.Lock()
	for _, c := range s.connections {
		if c.address == key && strings.EqualFold(c.uuid, uuid) {
			s.mu.Unlock()
			fail(bluetooth.ErrorDeviceAlreadyConnected)

			return
		}
	}

	if len(s.connections) > 0xfe {
		s.mu.Unlock()
		fail(bluetooth.ErrorNoMem)

		return
	}

	id := s.nextChannel()
	s.connections[id] = sppConnection{address: key, uuid: uuid}
	s.mu.Unlock()

	log.WithFields(log.Fields{"address": key, "uuid": uuid, "channel": id}).Debug("mock: spp channel connected")

	s.notify(func(o bluetooth.SppObserver) { o.ChannelStateChanged(key, uuid, id, true) })
	s.notifyConnected(key)
	s.adapter.dispatch.post(func() { cb(bluetooth.ErrorNone, id) })
}

// nextChannel returns an unused non zero channel identifier.
func (s *SppProfile) nextChannel() bluetooth.SppChannelID {
	for {
		s.lastID++
		if s.lastID == 0 {
			continue
		}

		if _, used := s.connections[s.lastID]; !used {
			return s.lastID
		}
	}
}

// DisconnectUUID closes a channel.
func (s *SppProfile) DisconnectUUID(channel bluetooth.SppChannelID, cb bluetooth.ResultCallback) {
	s.mu.Lock()
	c, ok := s.connections[channel]
	delete(s.connections, channel)
	s.mu.Unlock()

	if !ok {
		s.adapter.reply(cb, bluetooth.ErrorDeviceNotConnected)
		return
	}

	log.WithField("channel", channel).Debug("mock: spp channel disconnected")

	s.notify(func(o bluetooth.SppObserver) { o.ChannelStateChanged(c.address, c.uuid, channel, false) })
	s.notifyConnected(c.address)
	s.adapter.reply(cb, bluetooth.ErrorNone)
}

// WriteData sends data on a channel.
func (s *SppProfile) WriteData(channel bluetooth.SppChannelID, data []byte, cb bluetooth.ResultCallback) {
	s.mu.Lock()
	_, ok := s.connections[channel]
	s.mu.Unlock()

	switch {
	case !ok:
		s.adapter.reply(cb, bluetooth.ErrorDeviceNotConnected)

	case len(data) == 0:
		s.adapter.reply(cb, bluetooth.ErrorParamInvalid)

	default:
		echo := slices.Clone(data)

		s.adapter.reply(cb, bluetooth.ErrorNone)
		s.notify(func(o bluetooth.SppObserver) { o.DataReceived(channel, echo) })
	}
}

// CreateChannel registers a local serial port service.
func (s *SppProfile) CreateChannel(name, uuid string) bluetooth.Error {
	if name == "" || !bluetooth.NewUUID(uuid).IsValid() {
		return bluetooth.ErrorParamInvalid
	}

	key := strings.ToLower(uuid)

	s.mu.Lock()
	if _, exists := s.channels[key]; exists {
		s.mu.Unlock()
		return bluetooth.ErrorBusy
	}

	s.channels[key] = name
	s.mu.Unlock()

	s.adapter.setAdapterUUID(key, true)

	return bluetooth.ErrorNone
}

// RemoveChannel removes a local serial port service.
func (s *SppProfile) RemoveChannel(uuid string) bluetooth.Error {
	key := strings.ToLower(uuid)

	s.mu.Lock()
	_, exists := s.channels[key]
	delete(s.channels, key)
	s.mu.Unlock()

	if !exists {
		return bluetooth.ErrorParamInvalid
	}

	s.adapter.setAdapterUUID(key, false)

	return bluetooth.ErrorNone
}
