package resource

import "fmt"

var Registry = map[string]*Descriptor{}

// Deps is the dependency graph over all registered descriptors.
// Immutable after InitRegistry.
var Deps = NewGraph()

func InitRegistry(dir string) error {
	if err := LoadResourcesFromDir(dir); err != nil {
		return fmt.Errorf("load error: %w", err)
	}
	if err := LinkResources(); err != nil {
		return fmt.Errorf("link error: %w", err)
	}
	graph, err := BuildGraph(Registry)
	if err != nil {
		return fmt.Errorf("graph error: %w", err)
	}
	Deps = graph
	return nil
}

// Lookup returns the descriptor for a resource name.
func Lookup(name string) (*Descriptor, bool) {
	d, ok := Registry[name]
	return d, ok
}
