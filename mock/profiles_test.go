package mock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
)

type sppEvents struct {
	state chan bool
	data  chan []byte
}

func (s *sppEvents) ChannelStateChanged(_, _ string, _ bluetooth.SppChannelID, connected bool) {
	s.state <- connected
}

func (s *sppEvents) DataReceived(_ bluetooth.SppChannelID, data []byte) {
	s.data <- data
}

type hfpEvents struct {
	profile  *HfpProfile
	sco      chan bool
	commands chan bluetooth.HfpAtCommand
	results  chan string
}

func (h *hfpEvents) ScoStateChanged(_ string, connected bool) {
	h.sco <- connected
}

func (h *hfpEvents) AtCommandReceived(address string, command bluetooth.HfpAtCommand) {
	h.commands <- command
	h.profile.SendResultCode(address, "+CIND:0,0,0,6,0,5,0,7")
}

func (h *hfpEvents) ResultCodeReceived(_ string, code string) {
	h.results <- code
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatal("timed out")
	}

	var zero T

	return zero
}

func TestProfileLookup(t *testing.T) {
	a, _ := newTestAdapter(t, bluetooth.DisplayYesNo)

	assert.Equal(t, bluetooth.ProfileSPP, a.Profile(bluetooth.ProfileSPP).ID())
	assert.Equal(t, bluetooth.ProfileHFP, a.Profile(bluetooth.ProfileHFP).ID())
	assert.Nil(t, a.Profile(bluetooth.ProfileA2DP))

	var got bluetooth.Error
	a.Profile(bluetooth.ProfileSPP).Enable(SppServiceUUID, func(err bluetooth.Error) { got = err })
	assert.Equal(t, bluetooth.ErrorUnsupported, got)
}

func TestSppChannelLifecycle(t *testing.T) {
	const uuid = "10001101-0000-1000-8000-00805f9b34fb"

	a, obs := newTestAdapter(t, bluetooth.DisplayYesNo)
	enable(t, a, obs)

	spp, ok := a.Profile(bluetooth.ProfileSPP).(bluetooth.SppProfile)
	require.True(t, ok)

	events := &sppEvents{state: make(chan bool, 4), data: make(chan []byte, 4)}
	spp.RegisterSppObserver(events)

	channels := make(chan bluetooth.SppChannelID, 1)
	spp.ConnectUUID(DefaultPartnerAddress, uuid, func(err bluetooth.Error, id bluetooth.SppChannelID) {
		assert.Equal(t, bluetooth.ErrorNone, err)
		channels <- id
	})
	channel := receive(t, channels)
	assert.NotZero(t, channel)
	assert.True(t, receive(t, events.state))

	states := make(chan bool, 1)
	spp.ChannelState(DefaultPartnerAddress, uuid, func(err bluetooth.Error, connected bool) {
		assert.Equal(t, bluetooth.ErrorNone, err)
		states <- connected
	})
	assert.True(t, receive(t, states))

	payload := []byte{10, 110, 0, 5, 93, 4, 100, 30}
	cb, wait := result(t)
	spp.WriteData(channel, payload, cb)
	assert.Equal(t, bluetooth.ErrorNone, wait())
	assert.Equal(t, payload, receive(t, events.data))

	require.Equal(t, bluetooth.ErrorNone, spp.CreateChannel("SPP_CHANNEL", uuid))
	assert.Equal(t, bluetooth.ErrorBusy, spp.CreateChannel("SPP_CHANNEL", uuid))
	expectEvent(t, obs, "adapter [UUIDS=[00001200-0000-1000-8000-00805f9b34fb 00001800-0000-1000-8000-00805f9b34fb "+uuid+"]]")

	cb, wait = result(t)
	spp.DisconnectUUID(channel, cb)
	assert.Equal(t, bluetooth.ErrorNone, wait())
	assert.False(t, receive(t, events.state))

	cb, wait = result(t)
	spp.WriteData(channel, payload, cb)
	assert.Equal(t, bluetooth.ErrorDeviceNotConnected, wait())

	assert.Equal(t, bluetooth.ErrorNone, spp.RemoveChannel(uuid))
	assert.Equal(t, bluetooth.ErrorParamInvalid, spp.RemoveChannel(uuid))
	assert.Equal(t, bluetooth.ErrorParamInvalid, spp.CreateChannel("bad", "not-a-uuid"))
}

func TestSppConnectUnknownDevice(t *testing.T) {
	a, obs := newTestAdapter(t, bluetooth.DisplayYesNo)
	enable(t, a, obs)

	spp := a.Profile(bluetooth.ProfileSPP).(bluetooth.SppProfile)

	errs := make(chan bluetooth.Error, 1)
	spp.ConnectUUID("01:02:03:04:05:06", SppServiceUUID, func(err bluetooth.Error, _ bluetooth.SppChannelID) {
		errs <- err
	})
	assert.Equal(t, bluetooth.ErrorUnknownDeviceAddr, receive(t, errs))
}

func TestHfpConnectAnswersIndicators(t *testing.T) {
	a, obs := newTestAdapter(t, bluetooth.DisplayYesNo)
	enable(t, a, obs)

	hfp, ok := a.Profile(bluetooth.ProfileHFP).(*HfpProfile)
	require.True(t, ok)

	events := &hfpEvents{
		profile:  hfp,
		sco:      make(chan bool, 4),
		commands: make(chan bluetooth.HfpAtCommand, 4),
		results:  make(chan string, 4),
	}
	hfp.RegisterHfpObserver(events)

	cb, wait := result(t)
	hfp.Connect(DefaultPartnerAddress, cb)
	assert.Equal(t, "AT+CIND=?", receive(t, events.commands).String())
	assert.Equal(t, bluetooth.ErrorNone, wait())

	cb, wait = result(t)
	hfp.Connect(DefaultPartnerAddress, cb)
	assert.Equal(t, bluetooth.ErrorDeviceAlreadyConnected, wait())

	cb, wait = result(t)
	hfp.OpenSCO(DefaultPartnerAddress, cb)
	assert.Equal(t, bluetooth.ErrorNone, wait())
	assert.True(t, receive(t, events.sco))

	require.Equal(t, bluetooth.ErrorNone, hfp.SendAtCommand(DefaultPartnerAddress, bluetooth.ParseHfpAtCommand("AT+CLCC")))
	assert.Equal(t, "OK", receive(t, events.results))

	cb, wait = result(t)
	hfp.CloseSCO(DefaultPartnerAddress, cb)
	assert.Equal(t, bluetooth.ErrorNone, wait())
	assert.False(t, receive(t, events.sco))

	cb, wait = result(t)
	hfp.Disconnect(DefaultPartnerAddress, cb)
	assert.Equal(t, bluetooth.ErrorNone, wait())

	cb, wait = result(t)
	hfp.OpenSCO(DefaultPartnerAddress, cb)
	assert.Equal(t, bluetooth.ErrorDeviceNotConnected, wait())
}
