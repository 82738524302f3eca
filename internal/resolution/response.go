package resolution

import (
	"context"
	"errors"

	"github.com/rnpack/packager/internal/graph"
)

var ErrFinalized = errors.New("resolution response is already finalized")
var ErrNotFinalized = errors.New("resolution response has not been finalized")

// Pair is one reference written in an importing module's source together
// with the module it resolved to. Module is nil when the graph could not
// resolve the reference.
type Pair struct {
	Name   string
	Module graph.Module
}

// Response is the ordered list of modules for one entry point. It starts
// out open so the graph adapter and the polyfill injector can add modules,
// and becomes read-only once finalized.
//
// A response belongs to a single top-level request. It is not safe to mutate
// concurrently, but once finalized it may be read from many goroutines.
// Modules are used as map keys and must be comparable (usually pointers).
type Response struct {
	MainModuleID string
	Dependencies []graph.Module

	mainModule graph.Module
	mappings   map[graph.Module][]Pair
	finalized  bool
}

func New(mainModuleID string) *Response {
	return &Response{
		MainModuleID: mainModuleID,
		mappings:     make(map[graph.Module][]Pair),
	}
}

// The first module ever pushed is the main module of the response.
func (r *Response) PushDependency(module graph.Module) error {
	if r.finalized {
		return ErrFinalized
	}
	if len(r.Dependencies) == 0 && r.mainModule == nil {
		r.mainModule = module
	}
	r.Dependencies = append(r.Dependencies, module)
	return nil
}

// Modules are only reordered, never deduplicated.
func (r *Response) PrependDependency(module graph.Module) error {
	if r.finalized {
		return ErrFinalized
	}
	r.Dependencies = append(r.Dependencies, nil)
	copy(r.Dependencies[1:], r.Dependencies)
	r.Dependencies[0] = module
	return nil
}

func (r *Response) SetResolvedDependencyPairs(module graph.Module, pairs []Pair) error {
	if r.finalized {
		return ErrFinalized
	}
	if r.mappings == nil {
		r.mappings = make(map[graph.Module][]Pair)
	}
	r.mappings[module] = append([]Pair{}, pairs...)
	return nil
}

// Finalize freezes the response and resolves the main module id from the
// main module when one was pushed. Calling it again returns the same
// response without doing any work. A failed finalize leaves the response
// open.
func (r *Response) Finalize(ctx context.Context) (*Response, error) {
	if r.finalized {
		return r, nil
	}
	if r.mainModule != nil {
		id, err := r.mainModule.Name(ctx)
		if err != nil {
			return nil, err
		}
		r.MainModuleID = id
	}
	r.finalized = true
	return r, nil
}

func (r *Response) IsFinalized() bool {
	return r.finalized
}

// Returns the reference pairs recorded for "module" in source order. Modules
// without recorded references (polyfills, JSON files, leaves) have none.
func (r *Response) ResolvedDependencyPairs(module graph.Module) ([]Pair, error) {
	if !r.finalized {
		return nil, ErrNotFinalized
	}
	return append([]Pair{}, r.mappings[module]...), nil
}
