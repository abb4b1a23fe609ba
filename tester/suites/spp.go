package suites

import (
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/internal/mainloop"
	"github.com/webosose/bluetooth-sil-api/tester"
)

const (
	sppUUID        = "10001101-0000-1000-8000-00805f9b34fb"
	sppChannelName = "SPP_CHANNEL"
)

var sppPayload = []byte{10, 110, 0, 5, 93, 4, 100, 30}

// sppObserver records SPP events on the event loop.
type sppObserver struct {
	loop *mainloop.Loop

	connected bool
	stateSeen bool
	received  []byte
}

func (o *sppObserver) ChannelStateChanged(_, _ string, _ bluetooth.SppChannelID, connected bool) {
	o.loop.Invoke(func() {
		o.connected = connected
		o.stateSeen = true
	})
}

func (o *sppObserver) DataReceived(_ bluetooth.SppChannelID, data []byte) {
	data = append([]byte(nil), data...)

	o.loop.Invoke(func() {
		o.received = append(o.received, data...)
	})
}

// sppSuite holds the state the SPP tests share. They run in order.
type sppSuite struct {
	profile  bluetooth.SppProfile
	observer *sppObserver
	channel  bluetooth.SppChannelID
}

func registerSpp(r *tester.Registry, ctx *tester.Context) {
	profile, ok := ctx.Profile(bluetooth.ProfileSPP).(bluetooth.SppProfile)
	if !ok {
		r.Add("/SIL/SPP/SPPInitialize", tester.Fixture{}, func(t *tester.T) {
			t.Fatalf("the SPP profile does not implement the SPP operations")
		})

		return
	}

	s := &sppSuite{
		profile:  profile,
		observer: &sppObserver{loop: ctx.Loop},
	}

	r.Add("/SIL/SPP/SPPInitialize", tester.Fixture{}, s.initialize)
	r.Add("/SIL/SPP/ConnectUUID", tester.Fixture{}, s.connect)
	r.Add("/SIL/SPP/GetChannelState", tester.Fixture{}, s.channelState)
	r.Add("/SIL/SPP/WriteData", tester.Fixture{}, s.writeData)
	r.Add("/SIL/SPP/Disconnect", tester.Fixture{}, s.disconnect)
	r.Add("/SIL/SPP/CreateChannelUUID", tester.Fixture{}, s.createChannel)
	r.Add("/SIL/SPP/RemovalUUID", tester.Fixture{}, s.removeChannel)
	r.Add("/SIL/SPP/SPPDeinitialize", tester.Fixture{}, s.deinitialize)
}

func (s *sppSuite) initialize(t *tester.T) {
	t.ExpectResult("Enable", bluetooth.ErrorNone, t.Adapter().Enable())
	s.profile.RegisterSppObserver(s.observer)
}

func (s *sppSuite) connect(t *tester.T) {
	var result bluetooth.Error

	t.Wait(t.Context().Timings.ProfileTimeout, "SPP connection", func(done func()) {
		s.profile.ConnectUUID(t.Context().Partner, sppUUID, func(err bluetooth.Error, channel bluetooth.SppChannelID) {
			t.Invoke(func() {
				result, s.channel = err, channel
				done()
			})
		})
	})

	t.ExpectResult("ConnectUUID", bluetooth.ErrorNone, result)
	t.Logf("Connected SPP channel %d", s.channel)
}

func (s *sppSuite) channelState(t *tester.T) {
	var (
		result    bluetooth.Error
		connected bool
	)

	t.Wait(t.Context().Timings.OperationTimeout, "SPP channel state", func(done func()) {
		s.profile.ChannelState(t.Context().Partner, sppUUID, func(err bluetooth.Error, state bool) {
			t.Invoke(func() {
				result, connected = err, state
				done()
			})
		})
	})

	t.ExpectResult("ChannelState", bluetooth.ErrorNone, result)
	t.Assert(connected, "the SPP channel to %s is not connected", t.Context().Partner)
}

func (s *sppSuite) writeData(t *tester.T) {
	timings := t.Context().Timings
	s.observer.received = nil

	err := t.Await("WriteData", timings.OperationTimeout, func(cb bluetooth.ResultCallback) {
		s.profile.WriteData(s.channel, sppPayload, cb)
	})
	t.ExpectResult("WriteData", bluetooth.ErrorNone, err)

	// The reference plugin echoes written data.
	if t.Context().Mock {
		t.Poll(timings.PropertySettle, timings.OperationTimeout, "echoed data", func() bool {
			return len(s.observer.received) >= len(sppPayload)
		})
		t.Equal(sppPayload, s.observer.received, "echoed data")
	}
}

func (s *sppSuite) disconnect(t *tester.T) {
	err := t.Await("DisconnectUUID", t.Context().Timings.ProfileTimeout, func(cb bluetooth.ResultCallback) {
		s.profile.DisconnectUUID(s.channel, cb)
	})
	t.ExpectResult("DisconnectUUID", bluetooth.ErrorNone, err)
}

func (s *sppSuite) createChannel(t *tester.T) {
	t.ExpectResult("CreateChannel", bluetooth.ErrorNone, s.profile.CreateChannel(sppChannelName, sppUUID))
}

func (s *sppSuite) removeChannel(t *tester.T) {
	t.ExpectResult("RemoveChannel", bluetooth.ErrorNone, s.profile.RemoveChannel(sppUUID))
}

func (s *sppSuite) deinitialize(t *tester.T) {
	s.profile.RegisterSppObserver(nil)
	t.ExpectResult("Disable", bluetooth.ErrorNone, t.Adapter().Disable())
}
