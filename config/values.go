package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
	"github.com/webosose/bluetooth-sil-api/tester"
)

// DefaultPartnerAddress is the remote device used when none is configured.
const DefaultPartnerAddress = "00:11:22:33:44:55"

// Values describes the possible configuration values that a user can
// modify and supply to the tester.
type Values struct {
	Plugin           string        `koanf:"plugin"`
	Capability       string        `koanf:"capability"`
	PartnerAddress   string        `koanf:"partner-address"`
	Profiles         string        `koanf:"profiles"`
	Run              string        `koanf:"run"`
	Skip             string        `koanf:"skip"`
	Verbose          bool          `koanf:"verbose"`
	PairingTimeout   time.Duration `koanf:"pairing-timeout"`
	DiscoveryTimeout time.Duration `koanf:"discovery-timeout"`
	PollInterval     time.Duration `koanf:"poll-interval"`

	IOCapability bluetooth.IOCapability
	Partner      string
	ProfileIDs   []bluetooth.ProfileID
	RunPaths     []string
	SkipPaths    []string
}

// SetArgs applies the positional arguments
// <plugin> [capability] [partner-address] over the loaded values.
func (v *Values) SetArgs(args []string) error {
	if len(args) > 3 {
		return fmt.Errorf("too many arguments: %s", strings.Join(args[3:], " "))
	}

	for i, arg := range args {
		switch i {
		case 0:
			v.Plugin = arg
		case 1:
			v.Capability = arg
		case 2:
			v.PartnerAddress = arg
		}
	}

	return nil
}

// Timings returns the default timings with the configured overrides.
func (v *Values) Timings() tester.Timings {
	timings := tester.DefaultTimings()

	if v.PairingTimeout > 0 {
		timings.PairingTimeout = v.PairingTimeout
	}

	if v.DiscoveryTimeout > 0 {
		timings.DiscoveryTimeout = v.DiscoveryTimeout
	}

	if v.PollInterval > 0 {
		timings.PairingPoll = v.PollInterval
	}

	return timings
}

// validateValues validates all configuration values.
func (v *Values) validateValues() error {
	for _, validate := range []func() error{
		v.validatePlugin,
		v.validateCapability,
		v.validatePartner,
		v.validateProfiles,
		v.validatePaths,
		v.validateTimings,
	} {
		if err := validate(); err != nil {
			return err
		}
	}

	return nil
}

// validatePlugin checks that a plugin was given.
func (v *Values) validatePlugin() error {
	if v.Plugin == "" {
		return errors.Wrap(errorkinds.ErrPluginOpen, "no plugin was specified")
	}

	return nil
}

// validateCapability parses the local pairing capability.
func (v *Values) validateCapability() error {
	if v.Capability == "" {
		v.IOCapability = bluetooth.DefaultIOCapability
		return nil
	}

	capability, err := bluetooth.ParseIOCapability(v.Capability)
	if err != nil {
		return err
	}

	v.IOCapability = capability

	return nil
}

// validatePartner validates the address of the partner device.
func (v *Values) validatePartner() error {
	if v.PartnerAddress == "" {
		v.PartnerAddress = DefaultPartnerAddress
	}

	partner, err := bluetooth.NormalizeAddress(v.PartnerAddress)
	if err != nil {
		return errors.Wrapf(err, "partner address %s", v.PartnerAddress)
	}

	v.Partner = partner

	return nil
}

// validateProfiles parses the profiles whose tests should run.
func (v *Values) validateProfiles() error {
	ids, unknown := bluetooth.ParseProfileIDs(v.Profiles)
	if len(unknown) > 0 {
		return fmt.Errorf("unknown profiles '%s'.\nValid profiles are '%s'",
			strings.Join(unknown, ", "), joinProfiles(bluetooth.ProfileIDs()),
		)
	}

	v.ProfileIDs = ids

	return nil
}

// validatePaths splits the selected and skipped test paths.
func (v *Values) validatePaths() error {
	v.RunPaths = splitPaths(v.Run)
	v.SkipPaths = splitPaths(v.Skip)

	for _, path := range append(v.RunPaths, v.SkipPaths...) {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("test path '%s' must start with '/'", path)
		}
	}

	return nil
}

// validateTimings rejects negative timeouts.
func (v *Values) validateTimings() error {
	for name, d := range map[string]time.Duration{
		"pairing-timeout":   v.PairingTimeout,
		"discovery-timeout": v.DiscoveryTimeout,
		"poll-interval":     v.PollInterval,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative: %s", name, d)
		}
	}

	return nil
}

func splitPaths(s string) []string {
	var paths []string
	for _, path := range strings.Split(s, ",") {
		if path = strings.TrimSpace(path); path != "" {
			paths = append(paths, path)
		}
	}

	return paths
}

func joinProfiles(ids []bluetooth.ProfileID) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, string(id))
	}

	return strings.Join(names, ", ")
}
