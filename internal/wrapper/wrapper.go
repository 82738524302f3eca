package wrapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rnpack/packager/internal/graph"
	"github.com/rnpack/packager/internal/helpers"
	"github.com/rnpack/packager/internal/logger"
	"github.com/rnpack/packager/internal/minify"
	"github.com/rnpack/packager/internal/resolution"
)

var ErrNoMinifier = errors.New("minification was requested but no minifier is configured")

type NameResolutionError struct {
	Reference string
	Err       error
}

func (e *NameResolutionError) Error() string {
	return fmt.Sprintf("could not resolve the module referenced as %q: %v", e.Reference, e.Err)
}

func (e *NameResolutionError) Unwrap() error { return e.Err }

type MinificationError struct {
	Path string
	Err  error
}

func (e *MinificationError) Error() string {
	return fmt.Sprintf("could not minify %q: %v", e.Path, e.Err)
}

func (e *MinificationError) Unwrap() error { return e.Err }

type Input struct {
	Module graph.Module

	// The id the module is registered under at runtime. When empty it is
	// looked up from the module itself. Polyfills are never registered.
	Name string

	Code string
	Map  json.RawMessage

	// Pairs and offsets are matched up by position. Only the first
	// len(Pairs) offsets are rewritten.
	Pairs   []resolution.Pair
	Offsets []int

	Minify bool
}

type Result struct {
	Code string
	Map  json.RawMessage
}

type Transformer struct {
	minify minify.Func
	log    logger.Log
}

func New(minifyCode minify.Func, log logger.Log) *Transformer {
	if log.AddMsg == nil {
		log = logger.NewDeferLog(logger.LevelSilent)
	}
	return &Transformer{minify: minifyCode, log: log}
}

// Wrap turns one module into its runtime form. Nothing is returned unless
// every step succeeded: there is no partially rewritten or unminified
// fallback output.
func (t *Transformer) Wrap(ctx context.Context, input Input) (Result, error) {
	var code string
	name := input.Name

	if graph.KindOf(input.Module) == graph.KindPolyfill {
		code = wrapPolyfill(input.Code)
	} else {
		if name == "" {
			var err error
			if name, err = input.Module.Name(ctx); err != nil {
				return Result{}, err
			}
		}

		body := "module.exports = " + input.Code
		if graph.KindOf(input.Module) == graph.KindOrdinary {
			var err error
			if body, err = t.resolveReferences(ctx, name, input.Code, input.Pairs, input.Offsets); err != nil {
				return Result{}, err
			}
		}
		code = defineModule(name, body)
	}

	if !input.Minify {
		return Result{Code: code, Map: input.Map}, nil
	}
	return t.minifyModule(ctx, input, name, code)
}

func (t *Transformer) minifyModule(ctx context.Context, input Input, name string, code string) (Result, error) {
	origin := input.Module.Path()
	if origin == "" {
		origin = name
	}
	if origin == "" {
		var err error
		if origin, err = input.Module.Name(ctx); err != nil {
			return Result{}, err
		}
	}

	if t.minify == nil {
		return Result{}, &MinificationError{Path: origin, Err: ErrNoMinifier}
	}

	minified, err := t.minify(ctx, origin, code, input.Map)
	if err != nil {
		t.log.AddError(nil, logger.Range{}, fmt.Sprintf("Failed to minify %q: %s", origin, err.Error()))
		return Result{}, &MinificationError{Path: origin, Err: err}
	}
	return Result{Code: minified.Code, Map: minified.Map}, nil
}

func defineModule(name string, body string) string {
	j := helpers.Joiner{}
	j.AddString("__d(")
	j.AddString(helpers.QuoteForJSON(name, false))
	j.AddString(", function(global, require, module, exports) {")
	j.AddString(body)
	j.AddString("\n});")
	return j.Done()
}

func wrapPolyfill(body string) string {
	j := helpers.Joiner{}
	j.AddString("(function(global) {\n")
	j.AddString(body)
	j.AddString("\n})(typeof global !== 'undefined' ? global : typeof self !== 'undefined' ? self : this);")
	return j.Done()
}
