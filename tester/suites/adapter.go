package suites

import (
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/tester"
)

func registerAdapter(r *tester.Registry, _ *tester.Context) {
	r.Add("/SIL/Adapter/getAdapters", tester.Fixture{}, func(t *tester.T) {
		adapters := t.Context().SIL.Adapters()
		t.Assert(len(adapters) > 0, "the SIL reports no adapters")
	})
}

func registerPower(r *tester.Registry, _ *tester.Context) {
	r.Add("/SIL/Adapter/Enable/adapterEnableTest", tester.AdapterFixture, func(t *tester.T) {
		t.ExpectResult("Disable", bluetooth.ErrorNone, t.Adapter().Disable())
		t.ExpectResult("Enable", bluetooth.ErrorNone, t.Adapter().Enable())

		t.Sleep(t.Context().Timings.Settle)

		t.Assert(t.Observer.PoweredSeen, "no adapter state change was reported")
		t.Assert(t.Observer.Powered, "the adapter reports being powered off after Enable")
	})

	r.Add("/SIL/Adapter/Enable/adapterDisableTest", tester.AdapterFixture, func(t *tester.T) {
		t.ExpectResult("Disable", bluetooth.ErrorNone, t.Adapter().Disable())

		t.Sleep(t.Context().Timings.Settle)

		t.Assert(t.Observer.PoweredSeen, "no adapter state change was reported")
		t.Assert(!t.Observer.Powered, "the adapter reports being powered on after Disable")

		t.ExpectResult("Enable", bluetooth.ErrorNone, t.Adapter().Enable())
	})
}

func registerProperties(r *tester.Registry, _ *tester.Context) {
	r.Add("/SIL/Adapter/Properties/getAdapterProperty", tester.AdapterFixture, func(t *tester.T) {
		AdapterProperty(t, bluetooth.PropertyDiscoverable)
	})

	r.Add("/SIL/Adapter/Properties/getAdapterProperties", tester.AdapterFixture, func(t *tester.T) {
		props := AdapterProperties(t)
		t.Assert(len(props) > 0, "the adapter reports no properties")

		for _, p := range props {
			t.Assert(!p.IsEmpty(), "the adapter reports an EMPTY property")
		}
	})

	r.Add("/SIL/Adapter/Properties/getAdapterUuids", tester.AdapterFixture, func(t *tester.T) {
		uuids := AdapterProperty(t, bluetooth.PropertyUUIDs).AsStrings()
		t.Assert(len(uuids) > 0, "the adapter reports no UUIDs")
	})

	r.Add("/SIL/Adapter/Properties/setAdapterProperty", tester.AdapterFixture, func(t *tester.T) {
		discoverable := AdapterProperty(t, bluetooth.PropertyDiscoverable).AsBool()
		want := bluetooth.BoolProperty(bluetooth.PropertyDiscoverable, !discoverable)

		SetAdapterProperties(t, want)
		t.Sleep(t.Context().Timings.PropertySettle)

		t.Assert(t.Observer.AdapterPropertiesSeen, "no adapter property change was reported")

		changed, ok := t.Observer.AdapterProperties.Find(bluetooth.PropertyDiscoverable)
		t.Assert(ok, "the change of %s was not reported", bluetooth.PropertyDiscoverable)
		t.Equal(!discoverable, changed.AsBool(), "reported DISCOVERABLE")
		t.Equal(!discoverable, AdapterProperty(t, bluetooth.PropertyDiscoverable).AsBool(), "DISCOVERABLE")

		SetAdapterProperties(t, bluetooth.BoolProperty(bluetooth.PropertyDiscoverable, discoverable))
	})

	r.Add("/SIL/Adapter/Properties/setAdapterProperties", tester.AdapterFixture, func(t *tester.T) {
		discoverable := AdapterProperty(t, bluetooth.PropertyDiscoverable)
		timeout := AdapterProperty(t, bluetooth.PropertyDiscoverableTimeout)

		SetAdapterProperties(t,
			bluetooth.BoolProperty(bluetooth.PropertyDiscoverable, true),
			bluetooth.Uint32Property(bluetooth.PropertyDiscoverableTimeout, 100),
		)

		t.Equal(true, AdapterProperty(t, bluetooth.PropertyDiscoverable).AsBool(), "DISCOVERABLE")
		t.Equal(uint32(100), AdapterProperty(t, bluetooth.PropertyDiscoverableTimeout).AsUint32(), "DISCOVERABLE_TIMEOUT")

		SetAdapterProperties(t, discoverable, timeout)
	})
}
