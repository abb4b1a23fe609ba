package bluetooth

import "fmt"

// Error describes the outcome of an operation delivered by a SIL plugin.
// ErrorNone is the only successful value.
type Error int

// The different SIL operation outcomes.
const (
	ErrorNone Error = iota
	ErrorFail
	ErrorNotReady
	ErrorNoMem
	ErrorBusy
	ErrorUnsupported
	ErrorParamInvalid
	ErrorUnhandled
	ErrorUnknownDeviceAddr
	ErrorAuthenticationCanceled
	ErrorAuthenticationFailed
	ErrorAuthenticationRejected
	ErrorAuthenticationTimeout
	ErrorDeviceAlreadyPaired
	ErrorDeviceNotPaired
	ErrorDeviceAlreadyConnected
	ErrorDeviceNotConnected
	ErrorNotAllowed
	ErrorAborted
	ErrorTetheringAlreadyEnabled
	ErrorTetheringAlreadyDisabled
	ErrorFirmwareUpdating
	ErrorAlreadyConnectedOneDevice
	ErrorPbapCallSelectFolderType
	ErrorAvrcpItemNotPlayable
	ErrorAvrcpNotAFolder
	ErrorMapFolderNotFound
)

var errorNames = [...]string{
	ErrorNone:                      "NONE",
	ErrorFail:                      "FAIL",
	ErrorNotReady:                  "NOT_READY",
	ErrorNoMem:                     "NOMEM",
	ErrorBusy:                      "BUSY",
	ErrorUnsupported:               "UNSUPPORTED",
	ErrorParamInvalid:              "PARAM_INVALID",
	ErrorUnhandled:                 "UNHANDLED",
	ErrorUnknownDeviceAddr:         "UNKNOWN_DEVICE_ADDR",
	ErrorAuthenticationCanceled:    "AUTHENTICATION_CANCELED",
	ErrorAuthenticationFailed:      "AUTHENTICATION_FAILED",
	ErrorAuthenticationRejected:    "AUTHENTICATION_REJECTED",
	ErrorAuthenticationTimeout:     "AUTHENTICATION_TIMEOUT",
	ErrorDeviceAlreadyPaired:       "DEVICE_ALREADY_PAIRED",
	ErrorDeviceNotPaired:           "DEVICE_NOT_PAIRED",
	ErrorDeviceAlreadyConnected:    "DEVICE_ALREADY_CONNECTED",
	ErrorDeviceNotConnected:        "DEVICE_NOT_CONNECTED",
	ErrorNotAllowed:                "NOT_ALLOWED",
	ErrorAborted:                   "ABORTED",
	ErrorTetheringAlreadyEnabled:   "TETHERING_ALREADY_ENABLED",
	ErrorTetheringAlreadyDisabled:  "TETHERING_ALREADY_DISABLED",
	ErrorFirmwareUpdating:          "FIRMWARE_UPDATING",
	ErrorAlreadyConnectedOneDevice: "ALREADY_CONNECTED_ONE_DEVICE",
	ErrorPbapCallSelectFolderType:  "PBAP_CALL_SELECT_FOLDER_TYPE",
	ErrorAvrcpItemNotPlayable:      "AVRCP_ITEM_NOT_PLAYABLE",
	ErrorAvrcpNotAFolder:           "AVRCP_NOT_A_FOLDER",
	ErrorMapFolderNotFound:         "MAP_FOLDER_NOT_FOUND",
}

// String returns the name of the outcome.
func (e Error) String() string {
	if e < 0 || int(e) >= len(errorNames) {
		return fmt.Sprintf("UNKNOWN_ERROR(%d)", int(e))
	}

	return errorNames[e]
}

// Valid reports whether e is a member of the outcome set.
func (e Error) Valid() bool {
	return e >= ErrorNone && int(e) < len(errorNames)
}

// Err converts the outcome to a Go error. ErrorNone yields nil.
func (e Error) Err() error {
	if e == ErrorNone {
		return nil
	}

	return &OperationError{Code: e}
}

// OperationError wraps a failed SIL outcome.
type OperationError struct {
	Code Error
}

// Error returns the formatted error as string.
func (o *OperationError) Error() string {
	return "bluetooth operation failed: " + o.Code.String()
}

// Is matches another OperationError carrying the same code.
func (o *OperationError) Is(target error) bool {
	t, ok := target.(*OperationError)

	return ok && t.Code == o.Code
}

// ResultCallback receives the outcome of an asynchronous operation.
type ResultCallback func(Error)
