package bluetooth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
)

func TestParseIOCapability(t *testing.T) {
	for _, c := range IOCapabilities() {
		got, err := ParseIOCapability(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	got, err := ParseIOCapability("keyboarddisplay")
	require.NoError(t, err)
	assert.Equal(t, KeyboardDisplay, got)

	_, err = ParseIOCapability("Telepathy")
	assert.ErrorIs(t, err, errorkinds.ErrInvalidCapability)
}

func TestExpectedPairingRequest(t *testing.T) {
	tests := []struct {
		name     string
		local    IOCapability
		remote   IOCapability
		legacy   bool
		outgoing bool
		want     PairingRequest
	}{
		{"DisplayYesNo to KeyboardOnly", DisplayYesNo, KeyboardOnly, false, true, RequestDisplaySecret},
		{"DisplayYesNo to NoInputNoOutput", DisplayYesNo, NoInputNoOutput, false, true, RequestConfirmation},
		{"KeyboardOnly to KeyboardOnly", KeyboardOnly, KeyboardOnly, false, true, RequestSecret},
		{"KeyboardOnly to NoInputNoOutput", KeyboardOnly, NoInputNoOutput, false, true, RequestNone},
		{"DisplayYesNo from DisplayYesNo", DisplayYesNo, DisplayYesNo, false, false, RequestConfirmation},
		{"KeyboardOnly from DisplayYesNo", KeyboardOnly, DisplayYesNo, false, false, RequestSecret},
		{"KeyboardDisplay as DisplayYesNo", KeyboardDisplay, KeyboardOnly, false, false, RequestDisplaySecret},
		{"NoInputNoOutput always automatic", NoInputNoOutput, KeyboardOnly, false, true, RequestNone},
		{"legacy KeyboardDisplay", KeyboardDisplay, NoInputNoOutput, true, true, RequestSecret},
		{"legacy DisplayOnly", DisplayOnly, NoInputNoOutput, true, false, RequestDisplaySecret},
		{"legacy KeyboardOnly outgoing", KeyboardOnly, NoInputNoOutput, true, true, RequestUnsupported},
		{"legacy KeyboardOnly incoming", KeyboardOnly, NoInputNoOutput, true, false, RequestSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpectedPairingRequest(tt.local, tt.remote, tt.legacy, tt.outgoing))
		})
	}
}

func TestSecretValidation(t *testing.T) {
	assert.NoError(t, ValidatePasskey(999999))
	assert.ErrorIs(t, ValidatePasskey(1000000), errorkinds.ErrInvalidSecret)

	assert.NoError(t, ValidatePin("aa123"))
	assert.Error(t, ValidatePin(""))
	assert.Error(t, ValidatePin("0123456789abcdefg"))

	assert.Equal(t, "000042", Passkey(42).String())
}

func TestErrorConversion(t *testing.T) {
	assert.NoError(t, ErrorNone.Err())

	err := ErrorAuthenticationRejected.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrorAuthenticationRejected.Err()))
	assert.False(t, errors.Is(err, ErrorAuthenticationFailed.Err()))
	assert.Contains(t, err.Error(), "AUTHENTICATION_REJECTED")

	assert.Equal(t, "MAP_FOLDER_NOT_FOUND", ErrorMapFolderNotFound.String())
	assert.False(t, Error(99).Valid())
}

func TestParseMAC(t *testing.T) {
	mac, err := ParseMAC("AA:bb:CC:dd:EE:00")
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc:dd:ee:00", mac.String())
	assert.False(t, mac.IsNil())

	for _, s := range []string{"", "aa:bb:cc:dd:ee", "aa-bb-cc-dd-ee-00", "gg:bb:cc:dd:ee:00"} {
		_, err := ParseMAC(s)
		assert.ErrorIs(t, err, errorkinds.ErrInvalidAddress, s)
	}
}

func TestParseHfpAtCommand(t *testing.T) {
	assert.Equal(t, HfpAtCommand{Type: AtCommandTest, Command: "+CIND"}, ParseHfpAtCommand("AT+CIND=?"))
	assert.Equal(t, HfpAtCommand{Type: AtCommandRead, Command: "+CIND"}, ParseHfpAtCommand("AT+CIND?"))
	assert.Equal(t, HfpAtCommand{Type: AtCommandSet, Command: "+BRSF", Arguments: "127"}, ParseHfpAtCommand("AT+BRSF=127"))
	assert.Equal(t, HfpAtCommand{Type: AtCommandBasic, Command: "D1234"}, ParseHfpAtCommand("ATD1234"))
	assert.Equal(t, "AT+BRSF=127", ParseHfpAtCommand("AT+BRSF=127").String())
}

func TestParseProfileIDs(t *testing.T) {
	ids, unknown := ParseProfileIDs("spp HFP,gatt bogus")
	assert.Equal(t, []ProfileID{ProfileSPP, ProfileHFP, ProfileGATT}, ids)
	assert.Equal(t, []string{"bogus"}, unknown)
}
