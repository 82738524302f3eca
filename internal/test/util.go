package test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rnpack/packager/internal/graph"
)

// Modules are compared by identity. Two different modules with the same
// name are still different modules.
var moduleIdentity = cmp.Comparer(func(a graph.Module, b graph.Module) bool {
	return a == b
})

func AssertEqual(t *testing.T, observed interface{}, expected interface{}) {
	t.Helper()
	if observed != expected {
		t.Fatalf("%#v != %#v", observed, expected)
	}
}

// Use this for slices, structs and multi-line generated code where a plain
// "!=" message would be unreadable.
func AssertEqualWithDiff(t *testing.T, observed interface{}, expected interface{}, opts ...cmp.Option) {
	t.Helper()
	opts = append(opts, moduleIdentity)
	if diff := cmp.Diff(expected, observed, opts...); diff != "" {
		t.Fatalf("mismatch (-expected +observed):\n%s", diff)
	}
}
