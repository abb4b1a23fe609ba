package bluetooth

import (
	"strings"

	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
)

// MacAddress is a Bluetooth device address, most significant byte first.
type MacAddress [6]byte

// AddressStringLength is the length of an address in aa:bb:cc:dd:ee:ff form.
const AddressStringLength = 17

// ParseMAC parses an address in aa:bb:cc:dd:ee:ff form, in any case.
func ParseMAC(s string) (MacAddress, error) {
	var mac MacAddress

	if len(s) != AddressStringLength {
		return mac, errorkinds.ErrInvalidAddress
	}

	for i := range mac {
		if i > 0 && s[i*3-1] != ':' {
			return mac, errorkinds.ErrInvalidAddress
		}

		hi, ok1 := hexNibble(s[i*3])
		lo, ok2 := hexNibble(s[i*3+1])
		if !ok1 || !ok2 {
			return mac, errorkinds.ErrInvalidAddress
		}

		mac[i] = hi<<4 | lo
	}

	return mac, nil
}

// String returns the address in the lowercase form used by the SIL API.
func (m MacAddress) String() string {
	const digits = "0123456789abcdef"

	var sb strings.Builder
	sb.Grow(AddressStringLength)

	for i, b := range m {
		if i > 0 {
			sb.WriteByte(':')
		}

		sb.WriteByte(digits[b>>4])
		sb.WriteByte(digits[b&0x0f])
	}

	return sb.String()
}

// IsNil checks if the address is all zeros.
func (m MacAddress) IsNil() bool {
	return m == MacAddress{}
}

// NormalizeAddress returns the canonical lowercase form of an address.
func NormalizeAddress(s string) (string, error) {
	mac, err := ParseMAC(s)
	if err != nil {
		return "", err
	}

	return mac.String(), nil
}

// SameAddress reports whether two address strings name the same device.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}

	return 0, false
}
