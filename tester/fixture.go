package tester

import "github.com/webosose/bluetooth-sil-api/api/bluetooth"

// AdapterFixture installs a fresh adapter observer and powers the adapter
// on before the test, and removes the observer and powers the adapter off
// after it.
var AdapterFixture = Fixture{
	Setup:    AdapterSetup,
	Teardown: AdapterTeardown,
}

// ObserverFixture is AdapterFixture without the teardown.
var ObserverFixture = Fixture{
	Setup: AdapterSetup,
}

// AdapterSetup installs a fresh observer and enables the adapter.
func AdapterSetup(t *T) {
	t.Observer = NewAdapterObserver(t.Loop())
	t.Adapter().RegisterObserver(t.Observer)

	t.ExpectResult("Enable", bluetooth.ErrorNone, t.Adapter().Enable())
}

// AdapterTeardown unregisters the observer and disables the adapter.
func AdapterTeardown(t *T) {
	t.Adapter().RegisterObserver(nil)

	if err := t.Adapter().Disable(); err != bluetooth.ErrorNone {
		t.Logf("Disable: %s", err)
	}
}
