package graph

// PolyfillSpec asks the graph adapter to create a polyfill module. It is a
// request descriptor only; the adapter decides what module comes back.
type PolyfillSpec struct {
	ID           string
	File         string
	Dependencies []string
}

// Query is what the resolver sends to the graph adapter to discover the
// dependencies of an entry point.
type Query struct {
	EntryPath        string
	Platform         string
	TransformOptions interface{}
	Recursive        bool
}

// Meta is the per-module metadata produced by the upstream transform.
type Meta struct {
	// Ascending byte offsets into the raw source. Each one points at the
	// opening quote of a module reference literal.
	DependencyOffsets []int
}
