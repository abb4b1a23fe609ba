package bluetooth

import (
	"fmt"
	"strings"

	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
	"golang.org/x/text/cases"
)

// IOCapability describes the input/output capability a device advertises
// during pairing.
type IOCapability int

// The different pairing IO capabilities.
const (
	NoInputNoOutput IOCapability = iota
	DisplayOnly
	DisplayYesNo
	KeyboardOnly
	KeyboardDisplay
)

// DefaultIOCapability is used when no capability is configured.
const DefaultIOCapability = DisplayYesNo

var ioCapabilityNames = [...]string{
	NoInputNoOutput: "NoInputNoOutput",
	DisplayOnly:     "DisplayOnly",
	DisplayYesNo:    "DisplayYesNo",
	KeyboardOnly:    "KeyboardOnly",
	KeyboardDisplay: "KeyboardDisplay",
}

// String returns the name of the capability.
func (c IOCapability) String() string {
	if c < 0 || int(c) >= len(ioCapabilityNames) {
		return fmt.Sprintf("IOCapability(%d)", int(c))
	}

	return ioCapabilityNames[c]
}

// IOCapabilities returns all capabilities in declaration order.
func IOCapabilities() []IOCapability {
	return []IOCapability{NoInputNoOutput, DisplayOnly, DisplayYesNo, KeyboardOnly, KeyboardDisplay}
}

// ParseIOCapability parses a capability name, ignoring case.
func ParseIOCapability(s string) (IOCapability, error) {
	fold := cases.Fold()

	name := fold.String(strings.TrimSpace(s))
	for i, n := range ioCapabilityNames {
		if fold.String(n) == name {
			return IOCapability(i), nil
		}
	}

	return -1, fmt.Errorf("%w: '%s' (valid values are %s)",
		errorkinds.ErrInvalidCapability, s, strings.Join(ioCapabilityNames[:], ", "),
	)
}

// SecretType is the kind of secret exchanged during pairing.
type SecretType int

// The different pairing secret types.
const (
	SecretTypePin SecretType = iota
	SecretTypePasskey
)

// String returns the name of the secret type.
func (s SecretType) String() string {
	switch s {
	case SecretTypePin:
		return "PIN"
	case SecretTypePasskey:
		return "PASSKEY"
	}

	return fmt.Sprintf("SecretType(%d)", int(s))
}

// Passkey is a six-digit numeric pairing secret.
type Passkey uint32

// MaxPasskey is the largest valid passkey.
const MaxPasskey Passkey = 999999

// MaxPinLength is the longest valid legacy PIN.
const MaxPinLength = 16

// String returns the zero-padded passkey.
func (p Passkey) String() string {
	return fmt.Sprintf("%06d", uint32(p))
}

// ValidatePasskey checks that a passkey is within range.
func ValidatePasskey(p Passkey) error {
	if p > MaxPasskey {
		return fmt.Errorf("%w: passkey %d is out of range", errorkinds.ErrInvalidSecret, p)
	}

	return nil
}

// ValidatePin checks that a legacy PIN has a valid length.
func ValidatePin(pin string) error {
	if pin == "" || len(pin) > MaxPinLength {
		return fmt.Errorf("%w: pin must have 1 to %d characters", errorkinds.ErrInvalidSecret, MaxPinLength)
	}

	return nil
}

// PairingRequest is the kind of user interaction a pairing procedure asks for.
type PairingRequest int

// The different pairing requests.
const (
	// RequestNone means the pairing is confirmed automatically.
	RequestNone PairingRequest = iota
	RequestConfirmation
	RequestDisplaySecret
	RequestSecret
	// RequestUnsupported means the pairing cannot be performed.
	RequestUnsupported
)

// String returns the name of the request.
func (r PairingRequest) String() string {
	switch r {
	case RequestNone:
		return "AutoConfirm"
	case RequestConfirmation:
		return "Confirmation"
	case RequestDisplaySecret:
		return "DisplaySecret"
	case RequestSecret:
		return "RequestSecret"
	case RequestUnsupported:
		return "Unsupported"
	}

	return fmt.Sprintf("PairingRequest(%d)", int(r))
}

// ExpectedPairingRequest returns the request the local side should observe
// when pairing with a remote device. Legacy remotes pair with a PIN,
// all others with Secure Simple Pairing. KeyboardDisplay behaves as
// DisplayYesNo for Secure Simple Pairing.
func ExpectedPairingRequest(local, remote IOCapability, legacy, outgoing bool) PairingRequest {
	if legacy {
		switch local {
		case KeyboardDisplay:
			return RequestSecret

		case DisplayYesNo, DisplayOnly:
			return RequestDisplaySecret

		case KeyboardOnly:
			if outgoing {
				return RequestUnsupported
			}

			return RequestSecret
		}

		return RequestUnsupported
	}

	if local == KeyboardDisplay {
		local = DisplayYesNo
	}

	switch local {
	case DisplayYesNo:
		if remote == KeyboardOnly {
			return RequestDisplaySecret
		}

		return RequestConfirmation

	case KeyboardOnly:
		if remote == NoInputNoOutput {
			return RequestNone
		}

		return RequestSecret

	case DisplayOnly:
		if remote == KeyboardOnly {
			return RequestDisplaySecret
		}
	}

	return RequestNone
}
