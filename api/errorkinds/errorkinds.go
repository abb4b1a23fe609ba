package errorkinds

import "errors"

// The different general error types.
var (
	ErrPluginOpen         = errors.New("cannot open SIL plugin")
	ErrPluginSymbol       = errors.New("SIL plugin does not export a usable createBluetoothSIL")
	ErrPluginVersion      = errors.New("SIL plugin rejected the requested API version")
	ErrAdapterUnavailable = errors.New("no default adapter is available")
	ErrProfileUnavailable = errors.New("profile is not provided by the adapter")

	ErrInvalidAddress    = errors.New("invalid Bluetooth address")
	ErrInvalidCapability = errors.New("invalid pairing capability")
	ErrInvalidSecret     = errors.New("invalid pairing secret")
	ErrInvalidUUID       = errors.New("invalid Bluetooth UUID")

	ErrPropertyDataParse = errors.New("error parsing property data")

	ErrTestsFailed   = errors.New("one or more tests failed")
	ErrNoTestsMatch  = errors.New("no tests match the selected paths")
	ErrDuplicateTest = errors.New("test path is registered twice")
)

// GenericError represents a standard error message.
type GenericError struct {
	// Errors stores all associated errors.
	Errors error
}

// Error returns the formatted error as string.
func (e GenericError) Error() string {
	return e.Errors.Error()
}

// Unwrap unwraps all errors associated with this error.
func (e GenericError) Unwrap() error {
	return e.Errors
}
