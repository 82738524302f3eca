package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rnpack/packager/internal/graph"
	"github.com/rnpack/packager/internal/logger"
	"github.com/rnpack/packager/internal/resolution"
	"gopkg.in/yaml.v3"
)

// File is the on-disk manifest. It lists every module the graph knows
// about and, per module, which module each reference literal resolves to.
type File struct {
	Modules []Entry `yaml:"modules"`
}

type Entry struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
	JSON bool   `yaml:"json,omitempty"`

	// Empty means the module is available on every platform
	Platforms []string `yaml:"platforms,omitempty"`

	// Maps the text of a reference literal to the id of a module. The
	// module's dependency list keeps the order written here, which should be
	// the order the references appear in its source.
	Dependencies References `yaml:"dependencies,omitempty"`
}

type Reference struct {
	Name   string
	Module string
}

// References is a YAML mapping decoded without losing its key order.
type References []Reference

func (refs *References) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: dependencies must be a mapping", value.Line)
	}
	seen := make(map[string]bool, len(value.Content)/2)
	*refs = make(References, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var ref Reference
		if err := value.Content[i].Decode(&ref.Name); err != nil {
			return err
		}
		if err := value.Content[i+1].Decode(&ref.Module); err != nil {
			return err
		}
		if seen[ref.Name] {
			return fmt.Errorf("line %d: %q is mapped more than once", value.Content[i].Line, ref.Name)
		}
		seen[ref.Name] = true
		*refs = append(*refs, ref)
	}
	return nil
}

type node struct {
	module     *graph.StaticModule
	platforms  []string
	references map[string]*node
}

// Graph is a dependency graph described by a manifest. Reference literals
// are found by scanning module sources, so pairs and offsets always line up.
type Graph struct {
	root   string
	log    logger.Log
	byID   map[string]*node
	byPath map[string]*node

	metaMutex sync.Mutex
	meta      map[graph.Module]*graph.Meta
}

func Load(root string, path string, log logger.Log) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := Parse(root, data, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func Parse(root string, data []byte, log logger.Log) (*Graph, error) {
	var file File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if log.AddMsg == nil {
		log = logger.NewDeferLog(logger.LevelSilent)
	}
	g := &Graph{
		root:   root,
		log:    log,
		byID:   make(map[string]*node),
		byPath: make(map[string]*node),
		meta:   make(map[graph.Module]*graph.Meta),
	}

	for i, entry := range file.Modules {
		if entry.ID == "" {
			return nil, fmt.Errorf("module %d has no id", i)
		}
		if entry.Path == "" {
			return nil, fmt.Errorf("module %q has no path", entry.ID)
		}
		if _, ok := g.byID[entry.ID]; ok {
			return nil, fmt.Errorf("module %q is listed more than once", entry.ID)
		}

		path := g.absPath(entry.Path)
		var module *graph.StaticModule
		if entry.JSON {
			module = graph.NewJSONModule(entry.ID, path)
		} else {
			names := make([]string, len(entry.Dependencies))
			for i, ref := range entry.Dependencies {
				names[i] = ref.Name
			}
			module = graph.NewModule(entry.ID, path, names)
		}

		n := &node{module: module, platforms: entry.Platforms}
		g.byID[entry.ID] = n
		if _, ok := g.byPath[path]; !ok {
			g.byPath[path] = n
		}
	}

	// Link references once every id is known
	for _, entry := range file.Modules {
		n := g.byID[entry.ID]
		if entry.JSON && len(entry.Dependencies) > 0 {
			return nil, fmt.Errorf("JSON module %q cannot have dependencies", entry.ID)
		}
		n.references = make(map[string]*node, len(entry.Dependencies))
		for _, ref := range entry.Dependencies {
			target, ok := g.byID[ref.Module]
			if !ok {
				return nil, fmt.Errorf("module %q maps %q to the unknown module %q", entry.ID, ref.Name, ref.Module)
			}
			n.references[ref.Name] = target
		}
	}

	return g, nil
}

func (g *Graph) absPath(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, filepath.FromSlash(path))
	}
	return filepath.Clean(path)
}

func (n *node) availableOn(platform string) bool {
	if platform == "" || len(n.platforms) == 0 {
		return true
	}
	for _, p := range n.platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// GetDependencies walks the graph breadth-first from the module at the
// entry path. Every reached module is pushed once, the entry first. A
// reference that the manifest does not map, or that maps to a module not
// available on the platform, is recorded with no module and a warning.
func (g *Graph) GetDependencies(ctx context.Context, query graph.Query) (*resolution.Response, error) {
	entry, ok := g.byPath[g.absPath(query.EntryPath)]
	if !ok {
		return nil, fmt.Errorf("no module in the manifest has the path %q", query.EntryPath)
	}
	if !entry.availableOn(query.Platform) {
		return nil, fmt.Errorf("module %q is not available on platform %q", entry.module.ID, query.Platform)
	}

	response := resolution.New(entry.module.ID)
	visited := map[*node]bool{entry: true}
	queue := []*node{entry}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := queue[0]
		queue = queue[1:]

		if err := response.PushDependency(n.module); err != nil {
			return nil, err
		}
		if n.module.IsJSON() {
			continue
		}

		contents, err := os.ReadFile(n.module.FilePath)
		if err != nil {
			return nil, err
		}
		source := logger.Source{PrettyPath: n.module.ID, Contents: string(contents)}
		refs := scanReferences(source.Contents)

		pairs := make([]resolution.Pair, len(refs))
		offsets := make([]int, len(refs))
		for i, ref := range refs {
			pairs[i].Name = ref.name
			offsets[i] = ref.offset

			target, ok := n.references[ref.name]
			if !ok || !target.availableOn(query.Platform) {
				text := fmt.Sprintf("Could not resolve %q", ref.name)
				if ok {
					text = fmt.Sprintf("Could not resolve %q on platform %q", ref.name, query.Platform)
				}
				g.log.AddWarning(&source, source.RangeOfString(logger.Loc{Start: int32(ref.offset)}), text)
				continue
			}

			pairs[i].Module = target.module
			if query.Recursive && !visited[target] {
				visited[target] = true
				queue = append(queue, target)
			}
		}

		if err := response.SetResolvedDependencyPairs(n.module, pairs); err != nil {
			return nil, err
		}
		g.setMeta(n.module, offsets)
	}

	g.log.AddDebug(fmt.Sprintf("Discovered %d modules from %q", len(response.Dependencies), entry.module.ID))
	return response, nil
}

// CreatePolyfill places relative polyfill files under the project root.
// The file does not need to be listed in the manifest.
func (g *Graph) CreatePolyfill(ctx context.Context, spec graph.PolyfillSpec) (graph.Module, error) {
	if spec.ID == "" {
		return nil, errors.New("cannot create a polyfill without an id")
	}
	file := spec.File
	if file == "" {
		file = spec.ID
	}
	return graph.NewPolyfill(spec, g.absPath(file)), nil
}

// Meta returns the reference offsets found for "module" by the last walk
// that reached it, or nil for modules that were never scanned.
func (g *Graph) Meta(module graph.Module) *graph.Meta {
	g.metaMutex.Lock()
	defer g.metaMutex.Unlock()
	meta, ok := g.meta[module]
	if !ok {
		return nil
	}
	return &graph.Meta{DependencyOffsets: append([]int{}, meta.DependencyOffsets...)}
}

func (g *Graph) setMeta(module graph.Module, offsets []int) {
	g.metaMutex.Lock()
	defer g.metaMutex.Unlock()
	g.meta[module] = &graph.Meta{DependencyOffsets: offsets}
}
