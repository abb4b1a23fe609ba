package suites

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
	"github.com/webosose/bluetooth-sil-api/mock"
	"github.com/webosose/bluetooth-sil-api/tester"
)

func fastTimings() tester.Timings {
	return tester.Timings{
		PairingPoll:       20 * time.Millisecond,
		PairingTimeout:    3 * time.Second,
		OutgoingDelay:     5 * time.Millisecond,
		DiscoveryPoll:     5 * time.Millisecond,
		DiscoveryTimeout:  3 * time.Second,
		UUIDSearchPoll:    5 * time.Millisecond,
		UUIDSearchTimeout: 3 * time.Second,
		Settle:            30 * time.Millisecond,
		PropertySettle:    30 * time.Millisecond,
		PowerOnDelay:      5 * time.Millisecond,
		AdapterWait:       time.Second,
		OperationTimeout:  3 * time.Second,
		ProfileTimeout:    3 * time.Second,
	}
}

func newMockContext(t *testing.T, capability bluetooth.IOCapability) *tester.Context {
	t.Helper()

	sil := mock.New(bluetooth.APIVersion, capability, mock.WithLatency(time.Millisecond))
	require.NotNil(t, sil)

	ctx, err := tester.NewContext(tester.Options{
		SIL:        sil,
		Name:       "mock",
		Mock:       true,
		Capability: capability,
		Partner:    mock.DefaultPartnerAddress,
		Profiles:   []bluetooth.ProfileID{bluetooth.ProfileSPP, bluetooth.ProfileHFP},
		Timings:    fastTimings(),
		Remotes:    MockRemotes(),
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = ctx.Close() })

	return ctx
}

func buildTests(t *testing.T, ctx *tester.Context) []tester.Test {
	t.Helper()

	r := tester.NewRegistry()
	RegisterAll(r)

	tests, err := r.Build(ctx)
	require.NoError(t, err)

	return tests
}

func TestRegisterAllMock(t *testing.T) {
	for _, capability := range []bluetooth.IOCapability{
		bluetooth.DisplayOnly,
		bluetooth.DisplayYesNo,
		bluetooth.KeyboardOnly,
		bluetooth.NoInputNoOutput,
		bluetooth.KeyboardDisplay,
	} {
		t.Run(capability.String(), func(t *testing.T) {
			ctx := newMockContext(t, capability)
			tests := buildTests(t, ctx)

			var out bytes.Buffer
			report, err := tester.NewRunner(ctx, tester.WithOutput(&out), tester.WithProgress(false)).Run(tests)

			for _, result := range report.Results {
				assert.False(t, result.Failed, "%s: %v", result.Path, result.Messages)
			}
			require.NoError(t, err, out.String())
		})
	}
}

func TestRegisterAllPaths(t *testing.T) {
	ctx := newMockContext(t, bluetooth.KeyboardOnly)
	paths := tester.Paths(buildTests(t, ctx))

	assert.Equal(t, "/SIL/Adapter/getAdapters", paths[0])
	assert.Contains(t, paths, "/SIL/Adapter/Pairing/Passkey/Outgoing/KeyboardOnly/Fail")
	assert.Contains(t, paths, "/SIL/Adapter/Pairing/Passkey/Outgoing/Cancel")
	assert.Contains(t, paths, "/SIL/Adapter/Pairing/Device/Outgoing/Success")
	assert.Contains(t, paths, "/SIL/Adapter/Pairing/Device/Outgoing/InvalidAddress")
	assert.NotContains(t, paths, "/SIL/Adapter/Pairing/Device/Outgoing/Fail")
	assert.NotContains(t, paths, "/SIL/Adapter/Pairing/Pin/Outgoing/KeyboardDisplay/Legacy/Pass")
	assert.Equal(t, "/SIL/Profile/Hfp/deinitialize", paths[len(paths)-1])

	selected, err := tester.Select(buildTests(t, ctx), []string{"/SIL/SPP"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/SIL/SPP/SPPInitialize",
		"/SIL/SPP/ConnectUUID",
		"/SIL/SPP/GetChannelState",
		"/SIL/SPP/WriteData",
		"/SIL/SPP/Disconnect",
		"/SIL/SPP/CreateChannelUUID",
		"/SIL/SPP/RemovalUUID",
		"/SIL/SPP/SPPDeinitialize",
	}, tester.Paths(selected))
}

func TestPartnerRejection(t *testing.T) {
	for capability, want := range map[bluetooth.IOCapability]bool{
		bluetooth.DisplayYesNo:    true,
		bluetooth.KeyboardDisplay: true,
		bluetooth.KeyboardOnly:    false,
		bluetooth.DisplayOnly:     false,
		bluetooth.NoInputNoOutput: false,
	} {
		ctx := newMockContext(t, capability)
		tests, err := tester.Select(buildTests(t, ctx), []string{"/SIL/Adapter/Pairing/Device/Outgoing/Fail"}, nil)
		if !want {
			assert.ErrorIs(t, err, errorkinds.ErrNoTestsMatch, "%s", capability)
			continue
		}

		require.NoError(t, err)

		var out bytes.Buffer
		report, err := tester.NewRunner(ctx, tester.WithOutput(&out), tester.WithProgress(false)).Run(tests)
		require.NoError(t, err, out.String())
		assert.Equal(t, 1, report.Passed(), "%s", capability)
	}
}

func TestSupplyFollowsRequestedSecret(t *testing.T) {
	sil := mock.New(bluetooth.APIVersion, bluetooth.KeyboardOnly, mock.WithLatency(time.Millisecond))
	require.NotNil(t, sil)

	// Without the reference checks a PIN attempt answers a passkey
	// request with a passkey, which the remote rejects.
	ctx, err := tester.NewContext(tester.Options{
		SIL:        sil,
		Capability: bluetooth.KeyboardOnly,
		Partner:    mock.DefaultPartnerAddress,
		Timings:    fastTimings(),
		Remotes:    MockRemotes(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })

	attempt := MustPairingAttempt(keyboardOnlyAddress, Outgoing, false, PinSecret(devicePin))

	var out bytes.Buffer
	report, err := tester.NewRunner(ctx, tester.WithOutput(&out), tester.WithProgress(false)).Run([]tester.Test{
		{
			Path:    "/pairing/pin-for-passkey",
			Fixture: tester.AdapterFixture,
			Body:    func(t *tester.T) { RunPairing(t, attempt) },
		},
	})
	require.NoError(t, err, out.String())
	assert.Equal(t, 1, report.Passed())
}

func TestDiscoverDeviceRestoresTimeout(t *testing.T) {
	ctx := newMockContext(t, bluetooth.DisplayYesNo)
	tests, err := tester.Select(buildTests(t, ctx), []string{"/SIL/Adapter/Device/UUID/search"}, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = tester.NewRunner(ctx, tester.WithOutput(&out), tester.WithProgress(false)).Run(tests)
	require.NoError(t, err, out.String())

	got := make(chan bluetooth.Property, 1)
	ctx.Adapter.AdapterProperty(bluetooth.PropertyDiscoveryTimeout, func(err bluetooth.Error, p bluetooth.Property) {
		assert.Equal(t, bluetooth.ErrorNone, err)
		got <- p
	})

	select {
	case p := <-got:
		assert.Equal(t, uint32(0), p.AsUint32())
	case <-time.After(time.Second):
		t.Fatal("no DISCOVERY_TIMEOUT reported")
	}
}

func TestRegisterAllWithoutReference(t *testing.T) {
	sil := mock.New(bluetooth.APIVersion, bluetooth.DisplayYesNo)
	require.NotNil(t, sil)

	ctx, err := tester.NewContext(tester.Options{
		SIL:        sil,
		Capability: bluetooth.DisplayYesNo,
		Partner:    mock.DefaultPartnerAddress,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })

	for _, path := range tester.Paths(buildTests(t, ctx)) {
		assert.NotContains(t, path, "/Incoming/")
		assert.NotContains(t, path, "/SIL/SPP/")
		assert.NotContains(t, path, "/Hfp/")
	}
}

func TestPairingFailureIsReported(t *testing.T) {
	ctx := newMockContext(t, bluetooth.DisplayYesNo)

	// Expecting success with a wrong passkey makes the run fail.
	attempt := MustPairingAttempt(displayYesNoAddress, Incoming, true, PasskeySecret(111111))

	var out bytes.Buffer
	report, err := tester.NewRunner(ctx, tester.WithOutput(&out), tester.WithProgress(false)).Run([]tester.Test{
		{
			Path:    "/wrong/passkey",
			Fixture: tester.AdapterFixture,
			Body:    func(t *tester.T) { RunPairing(t, attempt) },
		},
	})
	require.ErrorIs(t, err, errorkinds.ErrTestsFailed)
	assert.Equal(t, 1, report.Failed())
}

// faultyAdapter replaces the pairing start of the mock adapter.
type faultyAdapter struct {
	*mock.Adapter

	observer bluetooth.AdapterObserver
	pair     func(a *faultyAdapter, address string, cb bluetooth.ResultCallback)
}

func (a *faultyAdapter) RegisterObserver(observer bluetooth.AdapterObserver) {
	a.observer = observer
	a.Adapter.RegisterObserver(observer)
}

func (a *faultyAdapter) Pair(address string, cb bluetooth.ResultCallback) {
	a.pair(a, address, cb)
}

func TestPairingMisbehavior(t *testing.T) {
	for _, tc := range []struct {
		name    string
		attempt PairingAttempt
		pair    func(a *faultyAdapter, address string, cb bluetooth.ResultCallback)
		want    string
	}{
		{
			name:    "silent",
			attempt: MustPairingAttempt(noIOAddress, Outgoing, true, PasskeySecret(999900)),
			pair:    func(*faultyAdapter, string, bluetooth.ResultCallback) {},
			want:    "timed out after 200ms",
		},
		{
			name:    "wrong request",
			attempt: MustPairingAttempt(displayYesNoAddress, Outgoing, true, PasskeySecret(999922)),
			pair: func(a *faultyAdapter, address string, _ bluetooth.ResultCallback) {
				a.observer.RequestPairingSecret(address, bluetooth.SecretTypePasskey)
			},
			want: "expected Confirmation, observed RequestSecret",
		},
		{
			name:    "second request",
			attempt: MustPairingAttempt(keyboardOnlyAddress, Outgoing, true, PasskeySecret(999933)),
			pair: func(a *faultyAdapter, address string, cb bluetooth.ResultCallback) {
				a.Adapter.Pair(address, func(err bluetooth.Error) {
					a.observer.DisplayPairingConfirmation(address, 999933)
					cb(err)
				})
			},
			want: "ConfirmationRequested for aa:bb:cc:dd:ee:33 after DisplaySecret",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newMockContext(t, bluetooth.DisplayYesNo)
			ctx.Timings.PairingTimeout = 200 * time.Millisecond

			adapter, ok := ctx.Adapter.(*mock.Adapter)
			require.True(t, ok)
			ctx.Adapter = &faultyAdapter{Adapter: adapter, pair: tc.pair}

			var out bytes.Buffer
			report, err := tester.NewRunner(ctx, tester.WithOutput(&out), tester.WithProgress(false)).Run([]tester.Test{
				{
					Path:    "/pairing/" + tc.name,
					Fixture: tester.AdapterFixture,
					Body:    func(t *tester.T) { RunPairing(t, tc.attempt) },
				},
			})
			require.ErrorIs(t, err, errorkinds.ErrTestsFailed)
			require.Len(t, report.Results, 1)

			result := report.Results[0]
			assert.True(t, result.Failed)
			assert.Contains(t, strings.Join(result.Messages, "\n"), tc.want)
		})
	}
}

func TestNewPairingAttempt(t *testing.T) {
	attempt, err := NewPairingAttempt("AA:BB:CC:DD:EE:FF", Outgoing, true, PinSecret("0000"))
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", attempt.Address)
	assert.Equal(t, "Outgoing", attempt.Direction.String())

	attempt, err = NewPairingAttempt("", Incoming, false, PasskeySecret(0))
	require.NoError(t, err)
	assert.Empty(t, attempt.Address)

	for _, tc := range []struct {
		address string
		secret  Secret
		want    error
	}{
		{"aa:bb:cc", PinSecret("0000"), errorkinds.ErrInvalidAddress},
		{"", PinSecret(""), errorkinds.ErrInvalidSecret},
		{"", PinSecret("12345678901234567"), errorkinds.ErrInvalidSecret},
		{"", PasskeySecret(1000000), errorkinds.ErrInvalidSecret},
		{"", Secret{Type: bluetooth.SecretType(9)}, errorkinds.ErrInvalidSecret},
	} {
		_, err := NewPairingAttempt(tc.address, Outgoing, true, tc.secret)
		assert.ErrorIs(t, err, tc.want, "%q %s", tc.address, tc.secret)
	}

	assert.Panics(t, func() { MustPairingAttempt("nope", Outgoing, true, PinSecret("0000")) })
}
