package mock

import (
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
)

// The UUIDs of the services the simulated partner device offers.
var (
	SppServiceUUID = bluetooth.UUIDFromUint16(0x1101).Long()
	HfpServiceUUID = bluetooth.UUIDFromUint16(0x111e).Long()
)

// DefaultPartnerAddress is the discoverable device the mock stack simulates.
const DefaultPartnerAddress = "00:11:22:33:44:55"

// Device is a remote device known to the mock stack.
type Device struct {
	Address    string
	Name       string
	Capability bluetooth.IOCapability

	// Legacy devices pair with Pin, all others with Passkey.
	Legacy  bool
	Pin     string
	Passkey bluetooth.Passkey

	UUIDs []string
	RSSI  int

	// Discoverable devices are reported during discovery.
	Discoverable bool
}

// SecretType returns the kind of secret the device pairs with.
func (d Device) SecretType() bluetooth.SecretType {
	if d.Legacy {
		return bluetooth.SecretTypePin
	}

	return bluetooth.SecretTypePasskey
}

// DefaultDevices returns the remote devices of the mock stack.
func DefaultDevices() []Device {
	return []Device{
		{Address: "aa:bb:cc:dd:ee:00", Name: "NoIO headset", Capability: bluetooth.NoInputNoOutput, Passkey: 999900},
		{Address: "aa:bb:cc:dd:ee:11", Name: "Display", Capability: bluetooth.DisplayOnly, Passkey: 999911},
		{Address: "aa:bb:cc:dd:ee:22", Name: "Phone", Capability: bluetooth.DisplayYesNo, Passkey: 999922},
		{Address: "aa:bb:cc:dd:ee:33", Name: "Keyboard", Capability: bluetooth.KeyboardOnly, Passkey: 999933},
		{Address: "aa:bb:cc:dd:ff:aa", Name: "Legacy", Capability: bluetooth.NoInputNoOutput, Legacy: true, Pin: "aa123"},
		{
			Address:      DefaultPartnerAddress,
			Name:         "Partner",
			Capability:   bluetooth.NoInputNoOutput,
			Passkey:      123456,
			UUIDs:        []string{SppServiceUUID, HfpServiceUUID},
			RSSI:         -48,
			Discoverable: true,
		},
	}
}

// properties returns the device properties as reported to observers.
func (d Device) properties(paired bool) bluetooth.PropertiesList {
	uuids := d.UUIDs
	if uuids == nil {
		uuids = []string{}
	}

	return bluetooth.PropertiesList{
		bluetooth.StringProperty(bluetooth.PropertyBDAddr, d.Address),
		bluetooth.StringProperty(bluetooth.PropertyName, d.Name),
		bluetooth.Uint32Property(bluetooth.PropertyClassOfDevice, 0x240404),
		bluetooth.MustProperty(bluetooth.PropertyTypeOfDevice, bluetooth.DeviceTypeBREDR),
		bluetooth.IntProperty(bluetooth.PropertyRSSI, d.RSSI),
		bluetooth.UUIDsProperty(uuids...),
		bluetooth.BoolProperty(bluetooth.PropertyPaired, paired),
		bluetooth.BoolProperty(bluetooth.PropertyConnected, false),
	}
}
