package graph

import "github.com/monorel/monorel/domain"

// TopologicalOrder returns the packages ordered so that dependencies come
// before their dependents, computed by depth-first numbering over the
// runtime, peer and optional edges (dev edges are excluded). Nodes are
// visited alphabetically, which makes ties deterministic. Cycles are broken
// at the back edge; callers that care run Cycles first.
func (g *Graph) TopologicalOrder() []string {
	visited := make([]bool, g.Len())
	var order []string

	var visit func(id PackageID)
	visit = func(id PackageID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, e := range g.out[id] {
			if releaseEdge(e) && e.To != id {
				visit(e.To)
			}
		}
		order = append(order, g.Name(id))
	}

	// Arena order is alphabetical already.
	for id := range g.nodes {
		visit(PackageID(id))
	}
	return order
}

// Dependents returns the names of packages that depend on the given package
// through edges of the allowed kinds, in alphabetical order.
func (g *Graph) Dependents(name string, kinds map[domain.DependencyKind]bool) []string {
	id, ok := g.Lookup(name)
	if !ok {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, e := range g.in[id] {
		if !kinds[e.Kind] {
			continue
		}
		dependent := g.Name(e.From)
		if _, dup := seen[dependent]; dup {
			continue
		}
		seen[dependent] = struct{}{}
		out = append(out, dependent)
	}
	return out
}
