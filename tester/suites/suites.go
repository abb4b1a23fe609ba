// Package suites holds the conformance tests run against a SIL plugin.
package suites

import (
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/tester"
)

// RegisterAll registers every suite, in the order the tests run.
func RegisterAll(r *tester.Registry) {
	r.RegisterModule("adapter", registerAdapter)
	r.RegisterModule("power", registerPower)
	r.RegisterModule("properties", registerProperties)
	r.RegisterModule("discovery", registerDiscovery)
	r.RegisterModule("pairing", registerPairing)
	r.RegisterProfileModule(bluetooth.ProfileSPP, "spp", registerSpp)
	r.RegisterProfileModule(bluetooth.ProfileHFP, "hfp", registerHfp)
}

// AdapterProperties returns all adapter properties.
func AdapterProperties(t *tester.T) bluetooth.PropertiesList {
	var (
		result bluetooth.Error
		props  bluetooth.PropertiesList
	)

	t.Wait(t.Context().Timings.OperationTimeout, "adapter properties", func(done func()) {
		t.Adapter().AdapterProperties(func(err bluetooth.Error, p bluetooth.PropertiesList) {
			t.Invoke(func() {
				result, props = err, p
				done()
			})
		})
	})

	t.ExpectResult("GetAdapterProperties", bluetooth.ErrorNone, result)

	return props
}

// AdapterProperty returns one adapter property.
func AdapterProperty(t *tester.T, pt bluetooth.PropertyType) bluetooth.Property {
	var (
		result bluetooth.Error
		prop   bluetooth.Property
	)

	t.Wait(t.Context().Timings.OperationTimeout, "adapter property "+pt.String(), func(done func()) {
		t.Adapter().AdapterProperty(pt, func(err bluetooth.Error, p bluetooth.Property) {
			t.Invoke(func() {
				result, prop = err, p
				done()
			})
		})
	})

	t.ExpectResult("GetAdapterProperty "+pt.String(), bluetooth.ErrorNone, result)
	t.Equal(pt, prop.Type(), "property type")

	return prop
}

// SetAdapterProperties sets adapter properties and waits for the result.
func SetAdapterProperties(t *tester.T, props ...bluetooth.Property) {
	err := t.Await("SetAdapterProperties", t.Context().Timings.OperationTimeout, func(cb bluetooth.ResultCallback) {
		t.Adapter().SetAdapterProperties(props, cb)
	})

	t.ExpectResult("SetAdapterProperties", bluetooth.ErrorNone, err)
}

// DeviceProperties returns the properties of a remote device.
func DeviceProperties(t *tester.T, address string) bluetooth.PropertiesList {
	var (
		result bluetooth.Error
		props  bluetooth.PropertiesList
	)

	t.Wait(t.Context().Timings.OperationTimeout, "device properties of "+address, func(done func()) {
		t.Adapter().DeviceProperties(address, func(err bluetooth.Error, p bluetooth.PropertiesList) {
			t.Invoke(func() {
				result, props = err, p
				done()
			})
		})
	})

	t.ExpectResult("GetDeviceProperties "+address, bluetooth.ErrorNone, result)

	return props
}

// CancelDiscovery stops discovery and expects success.
func CancelDiscovery(t *tester.T) {
	err := t.Await("CancelDiscovery", t.Context().Timings.OperationTimeout, t.Adapter().CancelDiscovery)

	t.ExpectResult("CancelDiscovery", bluetooth.ErrorNone, err)
}
