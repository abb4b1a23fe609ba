package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/webosose/bluetooth-sil-api/config"
	"github.com/webosose/bluetooth-sil-api/internal/loader"
	"github.com/webosose/bluetooth-sil-api/mock"
	"github.com/webosose/bluetooth-sil-api/tester"
	"github.com/webosose/bluetooth-sil-api/tester/suites"
)

// These values are set at compile-time.
var (
	Version  = ""
	Revision = ""
)

func init() {
	loader.RegisterBuiltin("mock", mock.CreateBluetoothSIL)
}

// Run runs the commandline application.
func Run() error {
	return newApp().Run(os.Args)
}

// newApp returns a new commandline application.
func newApp() *cli.App {
	cli.VersionPrinter = func(cCtx *cli.Context) {
		fmt.Fprintf(cCtx.App.Writer, "%s (%s)\n", Version, Revision)
	}

	// -v is taken by --verbose.
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version",
		Aliases:            []string{"V"},
		Usage:              "print the version",
		DisableDefaultText: true,
	}

	return &cli.App{
		Name:                   "bluetooth-sil-tester",
		Usage:                  "Bluetooth SIL conformance tester.",
		UsageText:              "bluetooth-sil-tester [flags] <path-to-plugin.so> [pairingCapability] [partnerAddress]",
		Version:                Version + " (" + Revision + ")",
		Description:            "Loads a Bluetooth SIL plugin and runs the SIL API conformance tests against it.",
		Copyright:              "(c) webOS OSE.",
		Compiled:               time.Now(),
		EnableBashCompletion:   true,
		UseShortOptionHandling: true,
		Suggest:                true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "run",
				Aliases: []string{"p"},
				EnvVars: []string{"SILTESTER_RUN"},
				Usage:   "Run only the tests below these comma-separated paths. (For example, '/SIL/Adapter/Pairing')",
			},
			&cli.StringFlag{
				Name:    "skip",
				EnvVars: []string{"SILTESTER_SKIP"},
				Usage:   "Skip the tests below these comma-separated paths.",
			},
			&cli.BoolFlag{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "List the tests that would run.",
			},
			&cli.StringFlag{
				Name:    "profiles",
				EnvVars: []string{"SILTESTER_PROFILES"},
				Usage:   "Specify the profiles to test. (For example, 'SPP,HFP')",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				EnvVars: []string{"SILTESTER_VERBOSE"},
				Usage:   "Print debug messages and every test result.",
			},
			&cli.DurationFlag{
				Name:  "pairing-timeout",
				Usage: "Specify how long a pairing may take. (Default 15s)",
			},
			&cli.DurationFlag{
				Name:  "discovery-timeout",
				Usage: "Specify how long to wait for discovery. (Default 5s)",
			},
			&cli.DurationFlag{
				Name:  "poll-interval",
				Usage: "Specify the liveness check interval of a pairing. (Default 1s)",
			},
			&cli.BoolFlag{
				Name:    "generate",
				Aliases: []string{"g"},
				Usage:   "Generate configuration.",
				Action: func(cliCtx *cli.Context, _ bool) error {
					k := koanf.New(".")

					cliCtx.Command.Name = "global"

					conf := config.NewConfig()
					if err := conf.Load(k, cliCtx); err != nil {
						return err
					}

					return conf.GenerateAndSave(k)
				},
			},
		},
		Action: func(cliCtx *cli.Context) error {
			if cliCtx.Bool("generate") {
				return nil
			}

			// required for koanf to merge all global flags under the root namespace.
			cliCtx.Command.Name = "global"

			k, cfg := koanf.New("."), config.NewConfig()
			if err := cfg.Load(k, cliCtx); err != nil {
				return err
			}
			if err := cfg.Values.SetArgs(cliCtx.Args().Slice()); err != nil {
				return err
			}
			if err := cfg.ValidateValues(); err != nil {
				return err
			}

			setLogLevel(cfg.Values.Verbose)

			return runTests(cfg.Values, cliCtx.Bool("list"))
		},
		ExitErrHandler: func(_ *cli.Context, err error) {
			if err == nil {
				return
			}

			printError(err)
		},
	}
}

// runTests loads the plugin, builds the test list and runs it.
func runTests(values config.Values, list bool) error {
	plugin, err := loader.Open(values.Plugin, values.IOCapability)
	if err != nil {
		return err
	}
	defer plugin.Close()

	opts := tester.Options{
		SIL:        plugin.SIL,
		Name:       plugin.Name,
		Mock:       plugin.Mock,
		Capability: values.IOCapability,
		Partner:    values.Partner,
		Profiles:   values.ProfileIDs,
		Timings:    values.Timings(),
	}
	if plugin.Mock {
		opts.Remotes = suites.MockRemotes()
	} else {
		printWarn("the capability matrix and incoming pairing tests need the reference plugin and are skipped")
	}

	ctx, err := tester.NewContext(opts)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"plugin":     ctx.Name,
		"capability": ctx.Capability,
		"partner":    ctx.Partner,
	}).Debug("Testing plugin")

	registry := tester.NewRegistry()
	suites.RegisterAll(registry)

	tests, err := registry.Build(ctx)
	if err != nil {
		return errors.Wrap(err, "registering tests")
	}

	tests, err = tester.Select(tests, values.RunPaths, values.SkipPaths)
	if err != nil {
		return err
	}

	if list {
		printTests(tests)
		return nil
	}

	_, err = tester.NewRunner(ctx, tester.WithVerbose(values.Verbose)).Run(tests)

	return err
}

// setLogLevel shows debug messages in verbose mode and only problems otherwise.
func setLogLevel(verbose bool) {
	log.SetOutput(os.Stderr)

	if verbose {
		log.SetLevel(log.DebugLevel)
		return
	}

	log.SetLevel(log.WarnLevel)
}
