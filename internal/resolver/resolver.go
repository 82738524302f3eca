package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rnpack/packager/internal/config"
	"github.com/rnpack/packager/internal/graph"
	"github.com/rnpack/packager/internal/logger"
	"github.com/rnpack/packager/internal/polyfill"
	"github.com/rnpack/packager/internal/resolution"
	"github.com/rnpack/packager/internal/wrapper"
)

// Adapter is the dependency graph. It discovers modules starting from an
// entry point and creates polyfill modules on request. Its errors are
// returned to callers unchanged.
type Adapter interface {
	GetDependencies(ctx context.Context, query graph.Query) (*resolution.Response, error)
	CreatePolyfill(ctx context.Context, spec graph.PolyfillSpec) (graph.Module, error)
}

type DependencyOptions struct {
	Platform string

	// Development builds get the same polyfills as production builds. This
	// only matters to code further down the pipeline.
	Dev bool
}

type WrapModuleArgs struct {
	// Needed for ordinary and JSON modules that have references to rewrite.
	// It must have been finalized.
	ResolutionResponse *resolution.Response

	Module graph.Module
	Name   string
	Code   string
	Map    json.RawMessage

	// Produced by the upstream transform. Missing metadata means there are
	// no references to rewrite.
	Meta *graph.Meta

	Minify bool
}

type Resolver struct {
	adapter     Adapter
	injector    *polyfill.Injector
	transformer *wrapper.Transformer
	log         logger.Log
}

func NewResolver(options config.Options, adapter Adapter) (*Resolver, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if adapter == nil {
		return nil, &config.ConfigurationError{Field: "adapter", Reason: "is required"}
	}

	log := options.Log
	if log.AddMsg == nil {
		log = logger.NewDeferLog(logger.LevelSilent)
	}

	dir := options.PolyfillDir
	if dir == "" {
		dir = polyfill.DefaultDir
	}
	injector, err := polyfill.NewInjector(dir, polyfill.CanonicalFiles(), options.PolyfillModuleNames, log)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "PolyfillModuleNames", Reason: err.Error()}
	}

	return &Resolver{
		adapter:     adapter,
		injector:    injector,
		transformer: wrapper.New(options.MinifyCode, log),
		log:         log,
	}, nil
}

// GetDependencies returns the finalized module list for "entryPath": every
// polyfill first, then whatever the graph discovered.
func (r *Resolver) GetDependencies(
	ctx context.Context, entryPath string, options DependencyOptions, transformOptions interface{},
) (*resolution.Response, error) {
	r.log.AddVerbose(fmt.Sprintf("Resolving dependencies of %q (platform %q, dev %t)",
		entryPath, options.Platform, options.Dev))

	response, err := r.adapter.GetDependencies(ctx, graph.Query{
		EntryPath:        entryPath,
		Platform:         options.Platform,
		TransformOptions: transformOptions,
		Recursive:        true,
	})
	if err != nil {
		return nil, err
	}

	if err := r.injector.Inject(ctx, r.adapter, response); err != nil {
		return nil, err
	}
	return response.Finalize(ctx)
}

func (r *Resolver) WrapModule(ctx context.Context, args WrapModuleArgs) (wrapper.Result, error) {
	if args.Module == nil {
		return wrapper.Result{}, errors.New("cannot wrap a nil module")
	}

	input := wrapper.Input{
		Module: args.Module,
		Name:   args.Name,
		Code:   args.Code,
		Map:    args.Map,
		Minify: args.Minify,
	}

	// Pairs are only looked up when there is something to rewrite, so JSON
	// modules and modules without offsets never need a finalized response
	if graph.KindOf(args.Module) == graph.KindOrdinary {
		if args.Meta != nil {
			input.Offsets = args.Meta.DependencyOffsets
		}
		if args.ResolutionResponse != nil && len(input.Offsets) > 0 {
			pairs, err := args.ResolutionResponse.ResolvedDependencyPairs(args.Module)
			if err != nil {
				return wrapper.Result{}, err
			}
			input.Pairs = pairs
		}
	}

	return r.transformer.Wrap(ctx, input)
}
