package bluetooth

import "strings"

// ProfileID identifies a Bluetooth profile.
type ProfileID string

// The different profiles a SIL may provide.
const (
	ProfileFTP   ProfileID = "FTP"
	ProfileOPP   ProfileID = "OPP"
	ProfileA2DP  ProfileID = "A2DP"
	ProfileGATT  ProfileID = "GATT"
	ProfileAVRCP ProfileID = "AVRCP"
	ProfileSPP   ProfileID = "SPP"
	ProfileHFP   ProfileID = "HFP"
	ProfilePAN   ProfileID = "PAN"
	ProfileHID   ProfileID = "HID"
	ProfileMAP   ProfileID = "MAP"
	ProfilePBAP  ProfileID = "PBAP"
	ProfileMesh  ProfileID = "MESH"
)

// ProfileIDs returns all known profile identifiers.
func ProfileIDs() []ProfileID {
	return []ProfileID{
		ProfileFTP, ProfileOPP, ProfileA2DP, ProfileGATT,
		ProfileAVRCP, ProfileSPP, ProfileHFP, ProfilePAN,
		ProfileHID, ProfileMAP, ProfilePBAP, ProfileMesh,
	}
}

// ParseProfileIDs parses a space or comma separated list of profile
// identifiers. Unknown identifiers are returned separately.
func ParseProfileIDs(s string) (ids []ProfileID, unknown []string) {
	known := make(map[string]ProfileID)
	for _, id := range ProfileIDs() {
		known[string(id)] = id
	}

	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' }) {
		id, ok := known[strings.ToUpper(field)]
		if !ok {
			unknown = append(unknown, field)
			continue
		}

		ids = append(ids, id)
	}

	return
}

// ProfileObserver receives property changes of a remote device's profile
// connection.
type ProfileObserver interface {
	PropertiesChanged(address string, properties PropertiesList)
}

// Profile is the set of operations common to all profiles.
type Profile interface {
	ID() ProfileID

	RegisterObserver(observer ProfileObserver)

	Properties(address string, cb PropertiesResultCallback)
	Property(address string, t PropertyType, cb PropertyResultCallback)

	Connect(address string, cb ResultCallback)
	Disconnect(address string, cb ResultCallback)

	// Enable and Disable register or remove a local service. The UUIDS
	// adapter property changes accordingly.
	Enable(uuid string, cb ResultCallback)
	Disable(uuid string, cb ResultCallback)
}

// UnsupportedProfile implements the optional Profile operations by
// reporting ErrorUnsupported. It can be embedded by plugins.
type UnsupportedProfile struct{}

// Enable reports ErrorUnsupported.
func (UnsupportedProfile) Enable(_ string, cb ResultCallback) {
	if cb != nil {
		cb(ErrorUnsupported)
	}
}

// Disable reports ErrorUnsupported.
func (UnsupportedProfile) Disable(_ string, cb ResultCallback) {
	if cb != nil {
		cb(ErrorUnsupported)
	}
}
