package tester

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
)

// Fixture prepares and cleans up around a test body.
type Fixture struct {
	Setup    func(*T)
	Teardown func(*T)
}

// Test is a registered test.
type Test struct {
	Path    string
	Fixture Fixture
	Body    func(*T)
}

// Module registers the tests of a suite.
type Module func(r *Registry, ctx *Context)

type module struct {
	name    string
	profile bluetooth.ProfileID
	fn      Module
}

// Registry collects suite modules and builds the test list.
type Registry struct {
	modules []module

	tests []Test
	paths map[string]struct{}
	err   error
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterModule adds a suite that always runs.
func (r *Registry) RegisterModule(name string, fn Module) {
	r.modules = append(r.modules, module{name: name, fn: fn})
}

// RegisterProfileModule adds a suite that runs only if the profile is
// enabled.
func (r *Registry) RegisterProfileModule(profile bluetooth.ProfileID, name string, fn Module) {
	r.modules = append(r.modules, module{name: name, profile: profile, fn: fn})
}

// Add registers a test. It must be called from a Module.
func (r *Registry) Add(path string, fixture Fixture, body func(*T)) {
	if _, exists := r.paths[path]; exists {
		if r.err == nil {
			r.err = errors.Wrapf(errorkinds.ErrDuplicateTest, "%s", path)
		}

		return
	}

	r.paths[path] = struct{}{}
	r.tests = append(r.tests, Test{Path: path, Fixture: fixture, Body: body})
}

// Build invokes every module once, in registration order, and returns the
// tests they added.
func (r *Registry) Build(ctx *Context) ([]Test, error) {
	r.tests = nil
	r.paths = make(map[string]struct{})
	r.err = nil

	for _, m := range r.modules {
		if m.profile != "" && !ctx.ProfileEnabled(m.profile) {
			continue
		}

		m.fn(r, ctx)
	}

	if r.err != nil {
		return nil, r.err
	}

	return r.tests, nil
}

// Select returns the tests matching any of the run paths (all if none) and
// none of the skip paths. A path matches itself and the paths below it.
func Select(tests []Test, run, skip []string) ([]Test, error) {
	var selected []Test

	for _, test := range tests {
		if len(run) > 0 && !matchesAny(test.Path, run) {
			continue
		}

		if matchesAny(test.Path, skip) {
			continue
		}

		selected = append(selected, test)
	}

	if len(selected) == 0 && len(tests) > 0 {
		return nil, errors.Wrapf(errorkinds.ErrNoTestsMatch, "%s", strings.Join(run, ", "))
	}

	return selected, nil
}

func matchesAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimSuffix(prefix, "/")
		if prefix == "" || path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}

	return false
}

// Paths returns the test paths in registration order.
func Paths(tests []Test) []string {
	paths := make([]string, 0, len(tests))
	for _, test := range tests {
		paths = append(paths, test.Path)
	}

	return paths
}
