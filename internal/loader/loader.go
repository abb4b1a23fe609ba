// Package loader opens SIL plugins and creates their stack integration layer.
package loader

import (
	"path/filepath"
	"plugin"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
)

// BuiltinPrefix selects a factory linked into the binary instead of a
// shared object, for example "builtin:mock".
const BuiltinPrefix = "builtin:"

var (
	builtinMu sync.Mutex
	builtins  = make(map[string]bluetooth.Factory)
)

// RegisterBuiltin makes a statically linked factory available as
// "builtin:<name>".
func RegisterBuiltin(name string, factory bluetooth.Factory) {
	builtinMu.Lock()
	defer builtinMu.Unlock()

	builtins[name] = factory
}

// Builtins returns the names of the registered builtin factories.
func Builtins() []string {
	builtinMu.Lock()
	defer builtinMu.Unlock()

	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Plugin is a loaded SIL.
type Plugin struct {
	// Path is the location the plugin was loaded from.
	Path string

	// Name is the base name of the plugin without its extension.
	Name string

	// Mock is set for the reference plugin, which supports the
	// test-only operations and reports known secrets.
	Mock bool

	SIL bluetooth.SIL
}

// Open loads the plugin at path and creates a SIL for the current API
// version and the given local capability.
func Open(path string, capability bluetooth.IOCapability) (*Plugin, error) {
	factory, err := lookupFactory(path)
	if err != nil {
		return nil, err
	}

	p := &Plugin{
		Path: path,
		Name: PluginName(path),
		Mock: IsMock(path),
	}

	log.WithFields(log.Fields{
		"plugin":     p.Name,
		"version":    bluetooth.APIVersion,
		"capability": capability,
	}).Debug("Creating SIL")

	p.SIL = factory(bluetooth.APIVersion, capability)
	if p.SIL == nil {
		return nil, errors.Wrapf(errorkinds.ErrPluginVersion, "%s (version %d)", p.Name, bluetooth.APIVersion)
	}

	return p, nil
}

// Close releases the SIL.
func (p *Plugin) Close() error {
	if p == nil || p.SIL == nil {
		return nil
	}

	return p.SIL.Close()
}

// PluginName returns the name of the plugin at path.
func PluginName(path string) string {
	if name, ok := strings.CutPrefix(path, BuiltinPrefix); ok {
		return name
	}

	return strings.TrimSuffix(filepath.Base(path), ".so")
}

// IsMock reports whether path refers to the reference plugin.
func IsMock(path string) bool {
	return strings.Contains(path, "mock")
}

func lookupFactory(path string) (bluetooth.Factory, error) {
	if name, ok := strings.CutPrefix(path, BuiltinPrefix); ok {
		builtinMu.Lock()
		factory, exists := builtins[name]
		builtinMu.Unlock()

		if !exists {
			return nil, errors.Wrapf(errorkinds.ErrPluginOpen,
				"no builtin plugin named '%s' (available: %s)", name, strings.Join(Builtins(), ", "),
			)
		}

		return factory, nil
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errorkinds.ErrPluginOpen, "%s: %v", path, err)
	}

	sym, err := p.Lookup(bluetooth.FactorySymbol)
	if err != nil {
		return nil, errors.Wrapf(errorkinds.ErrPluginSymbol, "%s: %v", path, err)
	}

	return factoryFromSymbol(sym)
}

// factoryFromSymbol accepts an exported factory function or a variable
// holding one.
func factoryFromSymbol(sym plugin.Symbol) (bluetooth.Factory, error) {
	switch f := sym.(type) {
	case func(int, bluetooth.IOCapability) bluetooth.SIL:
		return f, nil

	case *func(int, bluetooth.IOCapability) bluetooth.SIL:
		if *f != nil {
			return *f, nil
		}

	case *bluetooth.Factory:
		if *f != nil {
			return *f, nil
		}
	}

	return nil, errors.Wrapf(errorkinds.ErrPluginSymbol, "%s has type %T", bluetooth.FactorySymbol, sym)
}
