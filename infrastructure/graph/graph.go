// Package graph builds the internal dependency graph of a workspace and
// provides the orderings the resolver and auditor need. Nodes live in an
// arena indexed by PackageID; edges carry ids, never pointers, so cycles in
// the data never become cycles in ownership.
package graph

import (
	"sort"

	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/workspace"
)

// PackageID indexes a node in the arena.
type PackageID = uint32

// Edge is one typed dependency relation between two internal packages.
// Parallel edges across dependency maps are preserved.
type Edge struct {
	From PackageID
	To   PackageID
	Kind domain.DependencyKind
	Spec string
}

// Node is one internal package in the arena.
type Node struct {
	ID   PackageID
	Name string
	Pkg  *domain.PackageInfo
}

// Graph is a directed multigraph over the internal packages. External
// dependencies never appear as nodes. Immutable after Build; safe to share.
type Graph struct {
	nodes  []Node
	byName map[string]PackageID
	out    [][]Edge
	in     [][]Edge
}

// Build constructs the graph from a discovered workspace. Edges exist only
// between workspace members; self-loops are kept (and later flagged by the
// cycle detector).
func Build(ws *workspace.Workspace) *Graph {
	pkgs := make([]*domain.PackageInfo, len(ws.Packages))
	copy(pkgs, ws.Packages)
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name() < pkgs[j].Name() })

	g := &Graph{byName: make(map[string]PackageID, len(pkgs))}
	for _, pkg := range pkgs {
		id := PackageID(len(g.nodes))
		g.nodes = append(g.nodes, Node{ID: id, Name: pkg.Name(), Pkg: pkg})
		g.byName[pkg.Name()] = id
	}
	g.out = make([][]Edge, len(g.nodes))
	g.in = make([][]Edge, len(g.nodes))

	for _, pkg := range pkgs {
		from := g.byName[pkg.Name()]
		for _, kind := range domain.AllDependencyKinds {
			for name, spec := range pkg.Manifest.DependenciesOf(kind) {
				to, internal := g.byName[name]
				if !internal {
					continue
				}
				edge := Edge{From: from, To: to, Kind: kind, Spec: spec}
				g.out[from] = append(g.out[from], edge)
				g.in[to] = append(g.in[to], edge)
			}
		}
		sortEdges(g.out[from], g)
	}
	for id := range g.in {
		sortEdges(g.in[id], g)
	}
	return g
}

func sortEdges(edges []Edge, g *Graph) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].To != edges[j].To {
			return g.nodes[edges[i].To].Name < g.nodes[edges[j].To].Name
		}
		return edges[i].Kind < edges[j].Kind
	})
}

// Len returns the number of internal packages.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns the arena in name order.
func (g *Graph) Nodes() []Node { return g.nodes }

// Lookup resolves a package name to its id.
func (g *Graph) Lookup(name string) (PackageID, bool) {
	id, ok := g.byName[name]
	return id, ok
}

// Node returns the arena entry for an id.
func (g *Graph) Node(id PackageID) Node { return g.nodes[id] }

// Name returns the package name for an id.
func (g *Graph) Name(id PackageID) string { return g.nodes[id].Name }

// OutEdges returns the dependencies declared by the package.
func (g *Graph) OutEdges(id PackageID) []Edge { return g.out[id] }

// InEdges returns the edges of packages depending on this one.
func (g *Graph) InEdges(id PackageID) []Edge { return g.in[id] }

// releaseEdge reports whether an edge participates in release ordering.
// Dev edges are excluded to reduce false cycles.
func releaseEdge(e Edge) bool { return e.Kind != domain.KindDev }
