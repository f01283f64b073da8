package graph

import "sort"

// Cycles returns every strongly connected component of size two or more,
// plus every self-loop, as sorted name lists. Iteration order is the arena
// order (alphabetical), so output is deterministic.
func (g *Graph) Cycles() [][]string {
	t := &tarjanState{
		g:       g,
		index:   make([]int, g.Len()),
		lowlink: make([]int, g.Len()),
		onStack: make([]bool, g.Len()),
	}
	for i := range t.index {
		t.index[i] = -1
	}

	for id := range g.nodes {
		if t.index[id] == -1 {
			t.strongConnect(PackageID(id))
		}
	}

	sort.Slice(t.cycles, func(i, j int) bool { return t.cycles[i][0] < t.cycles[j][0] })
	return t.cycles
}

// HasSelfLoop reports whether the package declares a dependency on itself.
func (g *Graph) HasSelfLoop(id PackageID) bool {
	for _, e := range g.out[id] {
		if e.To == id {
			return true
		}
	}
	return false
}

type tarjanState struct {
	g       *Graph
	counter int
	index   []int
	lowlink []int
	onStack []bool
	stack   []PackageID
	cycles  [][]string
}

func (t *tarjanState) strongConnect(v PackageID) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, e := range t.g.out[v] {
		w := e.To
		switch {
		case t.index[w] == -1:
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		case t.onStack[w]:
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}

	// v roots a strongly connected component; pop it off the stack.
	var members []PackageID
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		members = append(members, w)
		if w == v {
			break
		}
	}

	if len(members) < 2 && !t.g.HasSelfLoop(members[0]) {
		return
	}

	names := make([]string, 0, len(members))
	for _, id := range members {
		names = append(names, t.g.Name(id))
	}
	sort.Strings(names)
	t.cycles = append(t.cycles, names)
}
