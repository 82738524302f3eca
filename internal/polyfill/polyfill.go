package polyfill

import (
	"context"
	"fmt"
	"path"

	"github.com/rnpack/packager/internal/graph"
	"github.com/rnpack/packager/internal/logger"
	"github.com/rnpack/packager/internal/resolution"
)

// These run ahead of all user code, in this order. Every entry depends on
// all of the entries before it.
var canonicalFiles = [...]string{
	"polyfills.js",
	"console.js",
	"error-guard.js",
	"String.prototype.es6.js",
	"Array.prototype.es6.js",
	"Array.es6.js",
	"Object.es7.js",
	"babelHelpers.js",
}

const DefaultDir = "polyfills"

// CanonicalFiles returns a copy of the built-in polyfill file list.
func CanonicalFiles() []string {
	return append([]string{}, canonicalFiles[:]...)
}

// Creator is the part of the graph adapter that turns a polyfill request
// into a module.
type Creator interface {
	CreatePolyfill(ctx context.Context, spec graph.PolyfillSpec) (graph.Module, error)
}

type Injector struct {
	specs []graph.PolyfillSpec
	log   logger.Log
}

// NewInjector builds the polyfill chain once. Canonical files are placed
// under "dir" to form their ids; custom polyfill names are used verbatim.
// Each spec depends on the ids of every spec declared before it.
func NewInjector(dir string, canonical []string, custom []string, log logger.Log) (*Injector, error) {
	specs := make([]graph.PolyfillSpec, 0, len(canonical)+len(custom))
	var ids []string

	add := func(id string) {
		specs = append(specs, graph.PolyfillSpec{
			ID:           id,
			File:         id,
			Dependencies: append([]string{}, ids...),
		})
		ids = append(ids, id)
	}

	for i, file := range canonical {
		if file == "" {
			return nil, fmt.Errorf("canonical polyfill %d has an empty file name", i)
		}
		add(path.Join(dir, file))
	}
	for i, name := range custom {
		if name == "" {
			return nil, fmt.Errorf("custom polyfill %d has an empty module name", i)
		}
		add(name)
	}

	return &Injector{specs: specs, log: log}, nil
}

// Specs returns the chain in declaration order.
func (in *Injector) Specs() []graph.PolyfillSpec {
	specs := make([]graph.PolyfillSpec, len(in.specs))
	for i, spec := range in.specs {
		spec.Dependencies = append([]string{}, spec.Dependencies...)
		specs[i] = spec
	}
	return specs
}

// Inject asks "creator" for every polyfill in declaration order and places
// the results at the front of "response" in that same order. Nothing is
// prepended unless every polyfill was created.
func (in *Injector) Inject(ctx context.Context, creator Creator, response *resolution.Response) error {
	modules := make([]graph.Module, len(in.specs))
	for i, spec := range in.Specs() {
		module, err := creator.CreatePolyfill(ctx, spec)
		if err != nil {
			return err
		}
		modules[i] = module
	}

	// Prepending in reverse leaves the first declared polyfill at the front
	for i := len(modules) - 1; i >= 0; i-- {
		if err := response.PrependDependency(modules[i]); err != nil {
			return err
		}
	}

	in.log.AddDebug(fmt.Sprintf("Injected %d polyfills ahead of %d discovered modules",
		len(modules), len(response.Dependencies)-len(modules)))
	return nil
}
