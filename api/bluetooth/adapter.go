package bluetooth

// Adapter is a local Bluetooth adapter provided by a SIL plugin.
//
// Methods taking a callback return immediately; the outcome is delivered
// exactly once, possibly before the method returns and possibly from
// another goroutine.
type Adapter interface {
	// RegisterObserver replaces the adapter observer. A nil observer
	// unregisters the current one.
	RegisterObserver(observer AdapterObserver)

	AdapterProperties(cb PropertiesResultCallback)
	AdapterProperty(t PropertyType, cb PropertyResultCallback)
	SetAdapterProperty(property Property, cb ResultCallback)
	SetAdapterProperties(properties PropertiesList, cb ResultCallback)

	Enable() Error
	Disable() Error

	StartDiscovery() Error
	CancelDiscovery(cb ResultCallback)

	DeviceProperties(address string, cb PropertiesResultCallback)
	SetDeviceProperty(address string, property Property, cb ResultCallback)
	SetDeviceProperties(address string, properties PropertiesList, cb ResultCallback)

	// Profile returns the profile with the given identifier, or nil.
	Profile(id ProfileID) Profile

	Pair(address string, cb ResultCallback)
	SupplyPairingConfirmation(address string, accept bool) Error
	SupplyPairingPin(address string, pin string) Error
	SupplyPairingPasskey(address string, passkey Passkey) Error
	Unpair(address string, cb ResultCallback)
	CancelPairing(address string, cb ResultCallback)
}

// IncomingPairingTrigger is implemented by reference plugins that can
// simulate a remote device initiating pairing. The callback receives the
// final pairing outcome.
type IncomingPairingTrigger interface {
	TestRequestIncomingPair(address string, cb ResultCallback)
}
