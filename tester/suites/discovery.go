package suites

import (
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/tester"
)

// uuidSearchDiscoveryTimeout is the DISCOVERY_TIMEOUT, in seconds, used
// while searching a device for its UUIDs.
const uuidSearchDiscoveryTimeout = 7

func registerDiscovery(r *tester.Registry, _ *tester.Context) {
	r.Add("/SIL/Adapter/Discovery/startDiscovery", tester.AdapterFixture, func(t *tester.T) {
		timings := t.Context().Timings

		t.Sleep(timings.PowerOnDelay)
		t.ExpectResult("StartDiscovery", bluetooth.ErrorNone, t.Adapter().StartDiscovery())

		t.Poll(timings.DiscoveryPoll, timings.DiscoveryTimeout, "discovery to start", func() bool {
			return t.Observer.DiscoverySeen && t.Observer.Discovering
		})
	})

	r.Add("/SIL/Adapter/Discovery/cancelDiscovery", tester.AdapterFixture, func(t *tester.T) {
		timings := t.Context().Timings

		t.ExpectResult("StartDiscovery", bluetooth.ErrorNone, t.Adapter().StartDiscovery())
		t.Poll(timings.DiscoveryPoll, timings.DiscoveryTimeout, "discovery to start", func() bool {
			return t.Observer.DiscoverySeen && t.Observer.Discovering
		})

		CancelDiscovery(t)
		t.Poll(timings.DiscoveryPoll, timings.DiscoveryTimeout, "discovery to stop", func() bool {
			return !t.Observer.Discovering
		})
	})

	r.Add("/SIL/Adapter/Discovery/getDevice", tester.AdapterFixture, func(t *tester.T) {
		timings := t.Context().Timings

		CancelDiscovery(t)
		t.ExpectResult("StartDiscovery", bluetooth.ErrorNone, t.Adapter().StartDiscovery())

		t.Poll(timings.DiscoveryPoll, timings.DiscoveryTimeout, "a device", reportedDevice(t))

		address, _ := t.Observer.DeviceProperties.Find(bluetooth.PropertyBDAddr)
		t.Assert(address.AsString() != "", "the device has an empty BDADDR")

		rssi, ok := t.Observer.DeviceProperties.Find(bluetooth.PropertyRSSI)
		t.Assert(ok && rssi.AsInt() != 0, "device %s reports no RSSI", address.AsString())
	})
}

// reportedDevice returns a condition that holds once a device property
// change carrying a BDADDR was reported.
func reportedDevice(t *tester.T) func() bool {
	return func() bool {
		if !t.Observer.DevicePropertiesSeen {
			return false
		}

		_, ok := t.Observer.DeviceProperties.Find(bluetooth.PropertyBDAddr)

		return ok
	}
}

// DiscoverDevice discovers devices until one reports its properties and
// returns its address.
func DiscoverDevice(t *tester.T) string {
	timings := t.Context().Timings

	discoveryTimeout := AdapterProperty(t, bluetooth.PropertyDiscoveryTimeout)
	SetAdapterProperties(t, bluetooth.Uint32Property(bluetooth.PropertyDiscoveryTimeout, uuidSearchDiscoveryTimeout))
	t.ExpectResult("StartDiscovery", bluetooth.ErrorNone, t.Adapter().StartDiscovery())

	t.Poll(timings.UUIDSearchPoll, timings.UUIDSearchTimeout, "a device", reportedDevice(t))
	SetAdapterProperties(t, discoveryTimeout)

	props := t.Observer.DeviceProperties
	for _, p := range props {
		t.Assert(!p.IsEmpty(), "device %s reports an EMPTY property", t.Observer.DeviceAddress)
	}

	bdaddr, _ := props.Find(bluetooth.PropertyBDAddr)
	address := bdaddr.AsString()

	t.Assert(address != "", "the discovered device has an empty BDADDR")
	t.Assert(bluetooth.SameAddress(address, t.Observer.DeviceAddress),
		"the discovered device reports BDADDR %s for %s", address, t.Observer.DeviceAddress,
	)

	return address
}
