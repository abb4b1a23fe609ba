package bluetooth

// AdapterObserver receives unsolicited events from an adapter.
// A plugin may invoke these methods from any goroutine.
type AdapterObserver interface {
	AdapterStateChanged(powered bool)
	AdapterPropertiesChanged(properties PropertiesList)
	DeviceFound(properties PropertiesList)
	DeviceRemoved(address string)
	DevicePropertiesChanged(address string, properties PropertiesList)
	DiscoveryStateChanged(active bool)

	// DisplayPairingConfirmation asks the local side to confirm that the
	// passkey matches the one shown on the remote device.
	DisplayPairingConfirmation(address string, passkey Passkey)

	// DisplayPairingPin and DisplayPairingPasskey show a secret that has to
	// be entered on the remote device.
	DisplayPairingPin(address string, pin string)
	DisplayPairingPasskey(address string, passkey Passkey)

	// RequestPairingSecret asks the local side to supply a secret of the
	// given type with Adapter.SupplyPairingPin or Adapter.SupplyPairingPasskey.
	RequestPairingSecret(address string, secretType SecretType)

	PairingCanceled()
}

// NopAdapterObserver ignores all adapter events. It can be embedded to
// implement only a subset of AdapterObserver.
type NopAdapterObserver struct{}

// AdapterStateChanged ignores the event.
func (NopAdapterObserver) AdapterStateChanged(bool) {}

// AdapterPropertiesChanged ignores the event.
func (NopAdapterObserver) AdapterPropertiesChanged(PropertiesList) {}

// DeviceFound ignores the event.
func (NopAdapterObserver) DeviceFound(PropertiesList) {}

// DeviceRemoved ignores the event.
func (NopAdapterObserver) DeviceRemoved(string) {}

// DevicePropertiesChanged ignores the event.
func (NopAdapterObserver) DevicePropertiesChanged(string, PropertiesList) {}

// DiscoveryStateChanged ignores the event.
func (NopAdapterObserver) DiscoveryStateChanged(bool) {}

// DisplayPairingConfirmation ignores the event.
func (NopAdapterObserver) DisplayPairingConfirmation(string, Passkey) {}

// DisplayPairingPin ignores the event.
func (NopAdapterObserver) DisplayPairingPin(string, string) {}

// DisplayPairingPasskey ignores the event.
func (NopAdapterObserver) DisplayPairingPasskey(string, Passkey) {}

// RequestPairingSecret ignores the event.
func (NopAdapterObserver) RequestPairingSecret(string, SecretType) {}

// PairingCanceled ignores the event.
func (NopAdapterObserver) PairingCanceled() {}
