package bluetooth

// APIVersion is the SIL API version requested from plugins.
const APIVersion = 1

// FactorySymbol is the name of the factory a plugin exports.
const FactorySymbol = "CreateBluetoothSIL"

// Factory creates a SIL for the requested API version and local pairing
// capability. It returns nil when the version is not supported.
type Factory func(version int, capability IOCapability) SIL

// SIL is the entry point of a Bluetooth stack integration layer.
type SIL interface {
	RegisterObserver(observer SILObserver)

	// DefaultAdapter returns the default adapter, or nil if none is
	// available yet.
	DefaultAdapter() Adapter
	Adapters() []Adapter

	// Close releases the resources held by the SIL.
	Close() error
}

// SILObserver is notified when the set of adapters changes.
type SILObserver interface {
	AdaptersChanged()
}

// SILObserverFunc adapts a function to a SILObserver.
type SILObserverFunc func()

// AdaptersChanged calls f.
func (f SILObserverFunc) AdaptersChanged() {
	f()
}
