package resource

import (
	"fmt"
	"sort"
)

// Edge is one resolved dependency: rows of Child reference rows of Parent
// via Column. The guard blocks deletes on any matching row, nullable or not.
type Edge struct {
	Parent   string
	Child    string
	Table    string // child table name, resolved at build time
	Field    string // declaring field on the child
	Column   string // SQL column, resolved through the field spec
	Nullable bool
}

// Graph is the static FK dependency graph. Built once at startup, read-only
// afterwards, safe for concurrent use without locking.
type Graph struct {
	byParent map[string][]Edge
	byChild  map[string][]Edge
}

func NewGraph() *Graph {
	return &Graph{
		byParent: map[string][]Edge{},
		byChild:  map[string][]Edge{},
	}
}

// Add registers an edge. Used directly by tests; production code goes
// through BuildGraph.
func (g *Graph) Add(e Edge) {
	g.byParent[e.Parent] = append(g.byParent[e.Parent], e)
	g.byChild[e.Child] = append(g.byChild[e.Child], e)
}

// DependentsOf returns the edges pointing into parent, in declaration order.
func (g *Graph) DependentsOf(parent string) []Edge {
	return g.byParent[parent]
}

// EdgesFrom returns the edges whose child is the given resource. Used to
// invalidate guard cache entries when a child row is written.
func (g *Graph) EdgesFrom(child string) []Edge {
	return g.byChild[child]
}

// BuildGraph assembles and validates the dependency graph from descriptor
// declarations. Self-edges are rejected unless the descriptor opts in.
func BuildGraph(registry map[string]*Descriptor) (*Graph, error) {
	g := NewGraph()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		desc := registry[name]
		for _, dep := range desc.Dependents {
			child, ok := registry[dep.Resource]
			if !ok {
				return nil, fmt.Errorf("dependency edge '%s' -> '%s': child resource not registered", name, dep.Resource)
			}
			if dep.Column == "" {
				return nil, fmt.Errorf("dependency edge '%s' -> '%s': missing column", name, dep.Resource)
			}
			field := child.Field(dep.Column)
			if field == nil {
				return nil, fmt.Errorf("dependency edge '%s' -> '%s': column '%s' not declared on child", name, dep.Resource, dep.Column)
			}
			if dep.Resource == name && !desc.AllowSelfEdges {
				return nil, fmt.Errorf("dependency edge '%s' -> itself via '%s' is not allowed (set allow_self_edges)", name, dep.Column)
			}
			g.Add(Edge{
				Parent:   name,
				Child:    dep.Resource,
				Table:    child.Table,
				Field:    field.Name,
				Column:   field.Col(),
				Nullable: dep.Nullable,
			})
		}
	}
	return g, nil
}
