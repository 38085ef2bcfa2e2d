package app

import "fmt"

// Graph is the resolved, index-based dependency graph over a fixed set of
// specs. String names are resolved once at construction; the scheduler's
// hot path never compares strings.
type Graph struct {
	names    []string
	index    map[string]int
	forward  [][]int // forward[i] = apps that i depends on
	reverse  [][]int // reverse[i] = apps that depend on i
}

// NewGraph resolves DependsOn names against the given specs, in the order
// supplied, and detects cycles. The returned Graph's indices line up
// positionally with specs.
func NewGraph(specs []Spec) (*Graph, error) {
	g := &Graph{
		names:   make([]string, len(specs)),
		index:   make(map[string]int, len(specs)),
		forward: make([][]int, len(specs)),
		reverse: make([][]int, len(specs)),
	}
	for i, s := range specs {
		if _, dup := g.index[s.Name]; dup {
			return nil, fmt.Errorf("duplicate app name %q", s.Name)
		}
		g.names[i] = s.Name
		g.index[s.Name] = i
	}
	for i, s := range specs {
		for _, dep := range s.DependsOn {
			j, ok := g.index[dep]
			if !ok {
				return nil, fmt.Errorf("app %q depends on unknown app %q", s.Name, dep)
			}
			g.forward[i] = append(g.forward[i], j)
			g.reverse[j] = append(g.reverse[j], i)
		}
	}
	if cyc := g.findCycle(); cyc != "" {
		return nil, fmt.Errorf("dependency cycle detected: %s", cyc)
	}
	return g, nil
}

// Index returns the position of name, or -1 if unknown.
func (g *Graph) Index(name string) int {
	i, ok := g.index[name]
	if !ok {
		return -1
	}
	return i
}

// Name returns the app name at index i.
func (g *Graph) Name(i int) string { return g.names[i] }

// Len returns the number of apps in the graph.
func (g *Graph) Len() int { return len(g.names) }

// DependsOn returns the indices of apps that i directly depends on.
func (g *Graph) DependsOn(i int) []int { return g.forward[i] }

// Dependents returns the indices of apps that directly depend on i.
func (g *Graph) Dependents(i int) []int { return g.reverse[i] }

// StartOrder returns a topological order in which apps may be started so
// that every dependency precedes its dependents.
func (g *Graph) StartOrder() []int {
	return g.topoSort(g.forward)
}

// StopOrder returns a topological order in which apps may be stopped so
// that every dependent is stopped before its dependency.
func (g *Graph) StopOrder() []int {
	return g.topoSort(g.reverse)
}

// topoSort runs Kahn's algorithm over edges where edges[i] lists i's
// prerequisites; prerequisites are emitted before i.
func (g *Graph) topoSort(edges [][]int) []int {
	n := len(g.names)
	indeg := make([]int, n)
	for i := range edges {
		indeg[i] = len(edges[i])
	}
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	// dependents[i] = nodes whose prerequisite list contains i.
	dependents := make([][]int, n)
	for i, deps := range edges {
		for _, d := range deps {
			dependents[d] = append(dependents[d], i)
		}
	}
	order := make([]int, 0, n)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, next := range dependents[cur] {
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	return order
}

// findCycle returns a human-readable description of the first cycle found
// via DFS, or "" if the graph is acyclic.
func (g *Graph) findCycle() string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(g.names))
	var path []int
	var dfs func(i int) string
	dfs = func(i int) string {
		color[i] = gray
		path = append(path, i)
		for _, j := range g.forward[i] {
			switch color[j] {
			case gray:
				cycle := append(append([]int{}, path...), j)
				names := make([]string, len(cycle))
				for k, idx := range cycle {
					names[k] = g.names[idx]
				}
				return fmt.Sprint(names)
			case white:
				if s := dfs(j); s != "" {
					return s
				}
			}
		}
		path = path[:len(path)-1]
		color[i] = black
		return ""
	}
	for i := range g.names {
		if color[i] == white {
			if s := dfs(i); s != "" {
				return s
			}
		}
	}
	return ""
}
