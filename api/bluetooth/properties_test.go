package bluetooth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
)

func TestNewPropertyRejectsMismatchedValue(t *testing.T) {
	_, err := NewProperty(PropertyDiscoverable, "yes")
	require.ErrorIs(t, err, errorkinds.ErrPropertyDataParse)

	_, err = NewProperty(PropertyEmpty, uint32(1))
	require.ErrorIs(t, err, errorkinds.ErrPropertyDataParse)

	_, err = NewProperty(PropertyType(1000), nil)
	require.ErrorIs(t, err, errorkinds.ErrPropertyDataParse)

	p, err := NewProperty(PropertyDiscoveryTimeout, uint32(7))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), p.AsUint32())
}

func TestPropertyAccessors(t *testing.T) {
	name := StringProperty(PropertyName, "webOS")
	assert.Equal(t, PropertyName, name.Type())
	assert.Equal(t, "webOS", name.AsString())
	assert.Zero(t, name.AsUint32())

	uuids := UUIDsProperty("1101", "111e")
	got := uuids.AsStrings()
	assert.Equal(t, []string{"1101", "111e"}, got)

	got[0] = "changed"
	assert.Equal(t, "1101", uuids.AsStrings()[0])

	role := MustProperty(PropertyRole, DeviceRoleHfpAG|DeviceRoleA2dpSink)
	r, ok := PropertyValue[DeviceRole](role)
	require.True(t, ok)
	assert.True(t, r.Has(DeviceRoleA2dpSink))
	assert.False(t, r.Has(DeviceRoleHidHost))

	var empty Property
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, "EMPTY", empty.String())
}

func TestPropertiesListSetAndFind(t *testing.T) {
	var l PropertiesList

	l = l.Set(BoolProperty(PropertyDiscoverable, false))
	l = l.Set(Uint32Property(PropertyDiscoverableTimeout, 100))
	l = l.Set(BoolProperty(PropertyDiscoverable, true))
	require.Len(t, l, 2)

	p, ok := l.Find(PropertyDiscoverable)
	require.True(t, ok)
	assert.True(t, p.AsBool())

	_, ok = l.Find(PropertyRSSI)
	assert.False(t, ok)
}
