package graph

import (
	"context"
	"fmt"
)

// Module is everything this package needs from a discovered file. Names
// and dependency lists may need disk or cache access, so they take a context
// and can fail. Implementations must not be mutated after discovery.
type Module interface {
	Name(ctx context.Context) (string, error)
	Dependencies(ctx context.Context) ([]string, error)
	IsPolyfill() bool
	IsJSON() bool

	// Path is the file the module was read from, or "" for a module that
	// does not exist on disk
	Path() string
}

type Kind uint8

const (
	KindOrdinary Kind = iota
	KindPolyfill
	KindJSON
)

func (kind Kind) String() string {
	switch kind {
	case KindOrdinary:
		return "module"
	case KindPolyfill:
		return "polyfill"
	case KindJSON:
		return "json"
	default:
		panic("Internal error")
	}
}

// KindOf classifies a module. A module that claims to be both a polyfill and
// JSON is treated as a polyfill since polyfills are never registered by name.
func KindOf(module Module) Kind {
	if module.IsPolyfill() {
		return KindPolyfill
	}
	if module.IsJSON() {
		return KindJSON
	}
	return KindOrdinary
}

// StaticModule is a module whose name and dependencies are known up front.
// The graph adapter and the polyfill injector create these.
type StaticModule struct {
	ID              string
	FilePath        string
	DependencyNames []string
	kind            Kind
}

func NewModule(id string, path string, dependencies []string) *StaticModule {
	return &StaticModule{ID: id, FilePath: path, DependencyNames: dependencies, kind: KindOrdinary}
}

func NewJSONModule(id string, path string) *StaticModule {
	return &StaticModule{ID: id, FilePath: path, kind: KindJSON}
}

func NewPolyfill(spec PolyfillSpec, path string) *StaticModule {
	return &StaticModule{ID: spec.ID, FilePath: path, DependencyNames: spec.Dependencies, kind: KindPolyfill}
}

func (m *StaticModule) Name(context.Context) (string, error) {
	return m.ID, nil
}

func (m *StaticModule) Dependencies(context.Context) ([]string, error) {
	return append([]string{}, m.DependencyNames...), nil
}

func (m *StaticModule) IsPolyfill() bool { return m.kind == KindPolyfill }
func (m *StaticModule) IsJSON() bool     { return m.kind == KindJSON }
func (m *StaticModule) Path() string     { return m.FilePath }

func (m *StaticModule) String() string {
	return fmt.Sprintf("%s %q", m.kind, m.ID)
}
