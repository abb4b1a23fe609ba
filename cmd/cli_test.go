package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
	"github.com/webosose/bluetooth-sil-api/config"
)

func mockValues() config.Values {
	return config.Values{
		Plugin:       "builtin:mock",
		IOCapability: bluetooth.DisplayYesNo,
		Partner:      config.DefaultPartnerAddress,
	}
}

func TestRunTestsList(t *testing.T) {
	require.NoError(t, runTests(mockValues(), true))
}

func TestRunTestsSelected(t *testing.T) {
	values := mockValues()
	values.RunPaths = []string{"/SIL/Adapter/getAdapters", "/SIL/Adapter/Properties"}
	values.SkipPaths = []string{"/SIL/Adapter/Properties/setAdapterProperties"}

	require.NoError(t, runTests(values, false))
}

func TestRunTestsErrors(t *testing.T) {
	values := mockValues()
	values.Plugin = "builtin:nope"
	assert.ErrorIs(t, runTests(values, false), errorkinds.ErrPluginOpen)

	values = mockValues()
	values.RunPaths = []string{"/SIL/HID"}
	assert.ErrorIs(t, runTests(values, true), errorkinds.ErrNoTestsMatch)
}

func TestAppRejectsInvalidCapability(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	app := newApp()
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run([]string{"bluetooth-sil-tester", "builtin:mock", "Telepathy"})
	assert.ErrorIs(t, err, errorkinds.ErrInvalidCapability)
}

func TestAppFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	for _, args := range [][]string{
		{"--list", "-v", "builtin:mock"},
		{"-l", "--profiles", "SPP", "builtin:mock", "KeyboardOnly"},
		{"-V"},
	} {
		app := newApp()
		app.ExitErrHandler = func(*cli.Context, error) {}

		assert.NotPanics(t, func() {
			assert.NoError(t, app.Run(append([]string{"bluetooth-sil-tester"}, args...)))
		}, "%v", args)
	}
}
