package bluetooth

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// UUIDType describes the width of a Bluetooth UUID.
type UUIDType int

// The different UUID widths.
const (
	UUIDUnknown UUIDType = iota
	UUID16
	UUID32
	UUID128
)

// The string lengths of the UUID forms.
const (
	UUID16Length  = 4
	UUID32Length  = 8
	UUID128Length = 36
)

// BaseUUID is the Bluetooth base UUID that short UUIDs are expanded into.
var BaseUUID = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

// UUID is a Bluetooth UUID in its textual form.
// Two UUIDs are equal when their strings are equal.
type UUID struct {
	value string
	typ   UUIDType
}

// NewUUID creates a UUID, detecting its type from the string form.
func NewUUID(s string) UUID {
	return UUID{value: s, typ: detectUUIDType(s)}
}

// NewUUIDWithType creates a UUID with an explicit type.
func NewUUIDWithType(s string, typ UUIDType) UUID {
	return UUID{value: s, typ: typ}
}

// UUIDFromUint16 creates a 16-bit UUID.
func UUIDFromUint16(v uint16) UUID {
	return UUID{value: leftPadHex(uint64(v), UUID16Length), typ: UUID16}
}

// String returns the UUID string.
func (u UUID) String() string {
	return u.value
}

// Type returns the UUID type.
func (u UUID) Type() UUIDType {
	return u.typ
}

// IsValid reports whether the UUID type could be determined.
func (u UUID) IsValid() bool {
	return u.typ != UUIDUnknown
}

// Equal reports whether two UUIDs have the same string form.
func (u UUID) Equal(o UUID) bool {
	return u.value == o.value
}

// ToUint16 returns the low 16 bits of a short UUID, or 0 for 128-bit and
// invalid UUIDs.
func (u UUID) ToUint16() uint16 {
	return uint16(u.ToUint32())
}

// ToUint32 returns the value of a short UUID, or 0 for 128-bit and
// invalid UUIDs.
func (u UUID) ToUint32() uint32 {
	if !u.IsValid() || u.typ == UUID128 {
		return 0
	}

	v, err := strconv.ParseUint(u.value, 16, 32)
	if err != nil {
		return 0
	}

	return uint32(v)
}

// ToUint128 returns the 16 bytes of the UUID in network order.
// Short UUIDs are expanded against the base UUID.
func (u UUID) ToUint128() [16]byte {
	switch u.typ {
	case UUID16, UUID32:
		id := BaseUUID
		binary.BigEndian.PutUint32(id[0:4], u.ToUint32())

		return id

	case UUID128:
		id, err := uuid.Parse(u.value)
		if err != nil {
			return [16]byte{}
		}

		return id
	}

	return [16]byte{}
}

// Long returns the 128-bit string form of the UUID.
func (u UUID) Long() string {
	if !u.IsValid() {
		return ""
	}

	return uuid.UUID(u.ToUint128()).String()
}

// detectUUIDType determines the type of a UUID string.
func detectUUIDType(s string) UUIDType {
	alnum := strings.IndexFunc(s, func(r rune) bool { return !isAlnum(r) }) < 0
	if alnum {
		switch len(s) {
		case UUID16Length:
			return UUID16
		case UUID32Length:
			return UUID32
		}

		return UUIDUnknown
	}

	if len(s) != UUID128Length {
		return UUIDUnknown
	}

	for i, r := range s {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return UUIDUnknown
			}

		default:
			if !isAlnum(r) {
				return UUIDUnknown
			}
		}
	}

	return UUID128
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func leftPadHex(v uint64, width int) string {
	s := strconv.FormatUint(v, 16)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}

	return s
}
