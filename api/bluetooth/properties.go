package bluetooth

import (
	"fmt"
	"slices"

	"github.com/google/go-cmp/cmp"
	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
)

// PropertyType identifies an adapter or device property.
type PropertyType int

// The different property types.
const (
	PropertyEmpty PropertyType = iota
	PropertyName
	PropertyAlias
	PropertyBDAddr
	PropertyStackName
	PropertyStackVersion
	PropertyFirmwareVersion
	PropertyUUIDs
	PropertyClassOfDevice
	PropertyTypeOfDevice
	PropertyDiscoveryTimeout
	PropertyDiscoverable
	PropertyDiscoverableTimeout
	PropertyPairable
	PropertyPairableTimeout
	PropertyPaired
	PropertyConnected
	PropertyTrusted
	PropertyBlocked
	PropertyRSSI
	PropertyTxPower
	PropertyRole
	PropertyManufacturerData
	PropertyInquiryAccessCode
	PropertyScanRecord
)

// valueKind is the Go representation held by a property.
type valueKind int

const (
	kindNone valueKind = iota
	kindString
	kindStrings
	kindUint32
	kindBool
	kindInt
	kindDeviceType
	kindDeviceRole
	kindBytes
)

var propertyInfo = [...]struct {
	name string
	kind valueKind
}{
	PropertyEmpty:               {"EMPTY", kindNone},
	PropertyName:                {"NAME", kindString},
	PropertyAlias:               {"ALIAS", kindString},
	PropertyBDAddr:              {"BDADDR", kindString},
	PropertyStackName:           {"STACK_NAME", kindString},
	PropertyStackVersion:        {"STACK_VERSION", kindString},
	PropertyFirmwareVersion:     {"FIRMWARE_VERSION", kindString},
	PropertyUUIDs:               {"UUIDS", kindStrings},
	PropertyClassOfDevice:       {"CLASS_OF_DEVICE", kindUint32},
	PropertyTypeOfDevice:        {"TYPE_OF_DEVICE", kindDeviceType},
	PropertyDiscoveryTimeout:    {"DISCOVERY_TIMEOUT", kindUint32},
	PropertyDiscoverable:        {"DISCOVERABLE", kindBool},
	PropertyDiscoverableTimeout: {"DISCOVERABLE_TIMEOUT", kindUint32},
	PropertyPairable:            {"PAIRABLE", kindBool},
	PropertyPairableTimeout:     {"PAIRABLE_TIMEOUT", kindUint32},
	PropertyPaired:              {"PAIRED", kindBool},
	PropertyConnected:           {"CONNECTED", kindBool},
	PropertyTrusted:             {"TRUSTED", kindBool},
	PropertyBlocked:             {"BLOCKED", kindBool},
	PropertyRSSI:                {"RSSI", kindInt},
	PropertyTxPower:             {"TXPOWER", kindInt},
	PropertyRole:                {"ROLE", kindDeviceRole},
	PropertyManufacturerData:    {"MANUFACTURER_DATA", kindBytes},
	PropertyInquiryAccessCode:   {"INQUIRY_ACCESS_CODE", kindUint32},
	PropertyScanRecord:          {"SCAN_RECORD", kindBytes},
}

// String returns the name of the property type.
func (t PropertyType) String() string {
	if !t.valid() {
		return fmt.Sprintf("PropertyType(%d)", int(t))
	}

	return propertyInfo[t].name
}

func (t PropertyType) valid() bool {
	return t >= 0 && int(t) < len(propertyInfo)
}

// DeviceType describes the transport a remote device supports.
type DeviceType int

// The different device types.
const (
	DeviceTypeUnknown DeviceType = iota
	DeviceTypeBREDR
	DeviceTypeBLE
	DeviceTypeDual
)

// DeviceRole is a bit set of profile roles a device takes.
type DeviceRole uint32

// The different device roles.
const (
	DeviceRoleNone       DeviceRole = 0x0
	DeviceRoleHfpHF      DeviceRole = 0x1
	DeviceRoleHfpAG      DeviceRole = 0x2
	DeviceRoleA2dpSrc    DeviceRole = 0x4
	DeviceRoleA2dpSink   DeviceRole = 0x8
	DeviceRoleAvrcpRmt   DeviceRole = 0x10
	DeviceRoleAvrcpTgt   DeviceRole = 0x20
	DeviceRolePanPANU    DeviceRole = 0x40
	DeviceRolePanNAP     DeviceRole = 0x80
	DeviceRolePanGN      DeviceRole = 0x100
	DeviceRoleHdpSrc     DeviceRole = 0x200
	DeviceRoleHdpSink    DeviceRole = 0x400
	DeviceRoleHidHost    DeviceRole = 0x800
	DeviceRoleGattClient DeviceRole = 0x1000
	DeviceRoleGattServer DeviceRole = 0x2000
)

// Has reports whether all roles in r are set.
func (d DeviceRole) Has(r DeviceRole) bool {
	return d&r == r
}

// Property is a typed property value. The zero value is an EMPTY property.
type Property struct {
	typ   PropertyType
	value any
}

// PropertiesList is an ordered list of properties.
type PropertiesList []Property

// PropertiesResultCallback receives the outcome of a property query.
type PropertiesResultCallback func(Error, PropertiesList)

// PropertyResultCallback receives the outcome of a single property query.
type PropertyResultCallback func(Error, Property)

// NewProperty creates a property, checking that the value matches the type.
func NewProperty(t PropertyType, value any) (Property, error) {
	if !t.valid() {
		return Property{}, fmt.Errorf("%w: unknown property type %d", errorkinds.ErrPropertyDataParse, int(t))
	}

	var ok bool

	switch propertyInfo[t].kind {
	case kindNone:
		ok = value == nil

	case kindString:
		_, ok = value.(string)

	case kindStrings:
		var v []string
		if v, ok = value.([]string); ok {
			value = slices.Clone(v)
		}

	case kindUint32:
		_, ok = value.(uint32)

	case kindBool:
		_, ok = value.(bool)

	case kindInt:
		_, ok = value.(int)

	case kindDeviceType:
		_, ok = value.(DeviceType)

	case kindDeviceRole:
		_, ok = value.(DeviceRole)

	case kindBytes:
		var v []byte
		if v, ok = value.([]byte); ok {
			value = slices.Clone(v)
		}
	}

	if !ok {
		return Property{}, fmt.Errorf("%w: %s cannot hold a value of type %T",
			errorkinds.ErrPropertyDataParse, t, value,
		)
	}

	return Property{typ: t, value: value}, nil
}

// MustProperty is like NewProperty but panics on a type mismatch.
func MustProperty(t PropertyType, value any) Property {
	p, err := NewProperty(t, value)
	if err != nil {
		panic(err)
	}

	return p
}

// StringProperty creates a string valued property.
func StringProperty(t PropertyType, v string) Property { return MustProperty(t, v) }

// Uint32Property creates an unsigned valued property.
func Uint32Property(t PropertyType, v uint32) Property { return MustProperty(t, v) }

// BoolProperty creates a boolean valued property.
func BoolProperty(t PropertyType, v bool) Property { return MustProperty(t, v) }

// IntProperty creates a signed valued property.
func IntProperty(t PropertyType, v int) Property { return MustProperty(t, v) }

// UUIDsProperty creates a UUIDS property.
func UUIDsProperty(uuids ...string) Property {
	if uuids == nil {
		uuids = []string{}
	}

	return MustProperty(PropertyUUIDs, uuids)
}

// Type returns the type of the property.
func (p Property) Type() PropertyType {
	return p.typ
}

// IsEmpty reports whether the property is EMPTY.
func (p Property) IsEmpty() bool {
	return p.typ == PropertyEmpty
}

// Value returns the raw value of the property.
func (p Property) Value() any {
	return p.value
}

// String formats the property as TYPE=value.
func (p Property) String() string {
	if p.IsEmpty() {
		return p.typ.String()
	}

	return fmt.Sprintf("%s=%v", p.typ, p.value)
}

// Equal reports whether both properties have the same type and value.
func (p Property) Equal(o Property) bool {
	return p.typ == o.typ && cmp.Equal(p.value, o.value)
}

// PropertyValue returns the value of p as T.
func PropertyValue[T any](p Property) (T, bool) {
	v, ok := p.value.(T)

	return v, ok
}

// AsString returns the value of a string property.
func (p Property) AsString() string {
	v, _ := PropertyValue[string](p)

	return v
}

// AsUint32 returns the value of an unsigned property.
func (p Property) AsUint32() uint32 {
	v, _ := PropertyValue[uint32](p)

	return v
}

// AsBool returns the value of a boolean property.
func (p Property) AsBool() bool {
	v, _ := PropertyValue[bool](p)

	return v
}

// AsInt returns the value of a signed property.
func (p Property) AsInt() int {
	v, _ := PropertyValue[int](p)

	return v
}

// AsStrings returns a copy of the value of a UUIDS property.
func (p Property) AsStrings() []string {
	v, _ := PropertyValue[[]string](p)

	return slices.Clone(v)
}

// AsBytes returns a copy of the value of a byte array property.
func (p Property) AsBytes() []byte {
	v, _ := PropertyValue[[]byte](p)

	return slices.Clone(v)
}

// Find returns the first property of the given type.
func (l PropertiesList) Find(t PropertyType) (Property, bool) {
	for _, p := range l {
		if p.typ == t {
			return p, true
		}
	}

	return Property{}, false
}

// Set replaces the property of the same type, or appends it.
func (l PropertiesList) Set(p Property) PropertiesList {
	for i := range l {
		if l[i].typ == p.typ {
			l[i] = p
			return l
		}
	}

	return append(l, p)
}

// Clone returns a copy of the list.
func (l PropertiesList) Clone() PropertiesList {
	return slices.Clone(l)
}
