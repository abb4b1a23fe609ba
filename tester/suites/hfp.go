package suites

import (
	log "github.com/sirupsen/logrus"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/internal/mainloop"
	"github.com/webosose/bluetooth-sil-api/tester"
)

// indicatorResult answers the gateway's indicator query.
const indicatorResult = "+CIND:0,0,0,6,0,5,0,7"

// hfpObserver answers the indicator query and records the audio state on
// the event loop.
type hfpObserver struct {
	loop    *mainloop.Loop
	profile bluetooth.HfpProfile

	sco     bool
	scoSeen bool
}

func (o *hfpObserver) ScoStateChanged(_ string, connected bool) {
	o.loop.Invoke(func() {
		o.sco = connected
		o.scoSeen = true
	})
}

func (o *hfpObserver) AtCommandReceived(address string, command bluetooth.HfpAtCommand) {
	if command.Command != "+CIND" {
		return
	}

	if err := o.profile.SendResultCode(address, indicatorResult); err != bluetooth.ErrorNone {
		log.WithField("address", address).Errorf("SendResultCode: %s", err)
	}
}

func (o *hfpObserver) ResultCodeReceived(string, string) {}

type hfpSuite struct {
	profile  bluetooth.HfpProfile
	observer *hfpObserver
}

func registerHfp(r *tester.Registry, ctx *tester.Context) {
	profile, ok := ctx.Profile(bluetooth.ProfileHFP).(bluetooth.HfpProfile)
	if !ok {
		r.Add("/SIL/Profile/Hfp/initialize", tester.Fixture{}, func(t *tester.T) {
			t.Fatalf("the HFP profile does not implement the HFP operations")
		})

		return
	}

	s := &hfpSuite{
		profile:  profile,
		observer: &hfpObserver{loop: ctx.Loop, profile: profile},
	}

	r.Add("/SIL/Profile/Hfp/initialize", tester.Fixture{}, s.initialize)
	r.Add("/SIL/Profile/Hfp/connect", tester.Fixture{}, s.connect)
	r.Add("/SIL/Profile/Hfp/openSCO", tester.Fixture{}, s.openSCO)
	r.Add("/SIL/Profile/Hfp/closeSCO", tester.Fixture{}, s.closeSCO)
	r.Add("/SIL/Profile/Hfp/disconnect", tester.Fixture{}, s.disconnect)
	r.Add("/SIL/Profile/Hfp/deinitialize", tester.Fixture{}, s.deinitialize)
}

func (s *hfpSuite) initialize(t *tester.T) {
	t.ExpectResult("Enable", bluetooth.ErrorNone, t.Adapter().Enable())
	s.profile.RegisterHfpObserver(s.observer)
}

func (s *hfpSuite) connect(t *tester.T) {
	CancelDiscovery(t)

	err := t.Await("HFP Connect", t.Context().Timings.ProfileTimeout, func(cb bluetooth.ResultCallback) {
		s.profile.Connect(t.Context().Partner, cb)
	})
	t.ExpectResult("HFP Connect", bluetooth.ErrorNone, err)
}

func (s *hfpSuite) openSCO(t *tester.T) {
	timings := t.Context().Timings

	t.Sleep(timings.Settle)

	err := t.Await("OpenSCO", timings.ProfileTimeout, func(cb bluetooth.ResultCallback) {
		s.profile.OpenSCO(t.Context().Partner, cb)
	})
	t.ExpectResult("OpenSCO", bluetooth.ErrorNone, err)

	if t.Context().Mock {
		t.Poll(timings.PropertySettle, timings.OperationTimeout, "the audio link", func() bool {
			return s.observer.scoSeen && s.observer.sco
		})
	}
}

func (s *hfpSuite) closeSCO(t *tester.T) {
	err := t.Await("CloseSCO", t.Context().Timings.ProfileTimeout, func(cb bluetooth.ResultCallback) {
		s.profile.CloseSCO(t.Context().Partner, cb)
	})
	t.ExpectResult("CloseSCO", bluetooth.ErrorNone, err)
}

func (s *hfpSuite) disconnect(t *tester.T) {
	err := t.Await("HFP Disconnect", t.Context().Timings.ProfileTimeout/2, func(cb bluetooth.ResultCallback) {
		s.profile.Disconnect(t.Context().Partner, cb)
	})
	t.ExpectResult("HFP Disconnect", bluetooth.ErrorNone, err)
}

func (s *hfpSuite) deinitialize(t *tester.T) {
	s.profile.RegisterHfpObserver(nil)
	t.ExpectResult("Disable", bluetooth.ErrorNone, t.Adapter().Disable())
}
