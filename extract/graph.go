package extract

import (
	"maps"
	"slices"

	"github.com/omnicraft/sig"
)

// Graph is the static dependency graph of a component: which consumers
// (memos, effects, bindings) read which sources (signals, memos).
type Graph struct {
	sources    map[string]struct{}
	deps       map[string]map[string]struct{}
	dependents map[string]map[string]struct{}
}

func NewGraph() *Graph {
	return &Graph{
		sources:    make(map[string]struct{}),
		deps:       make(map[string]map[string]struct{}),
		dependents: make(map[string]map[string]struct{}),
	}
}

func (g *Graph) AddSource(name string) {
	g.sources[name] = struct{}{}
}

func (g *Graph) IsSource(name string) bool {
	_, ok := g.sources[name]
	return ok
}

func (g *Graph) AddDependency(consumer, source string) {
	if g.deps[consumer] == nil {
		g.deps[consumer] = make(map[string]struct{})
	}
	g.deps[consumer][source] = struct{}{}

	if g.dependents[source] == nil {
		g.dependents[source] = make(map[string]struct{})
	}
	g.dependents[source][consumer] = struct{}{}
}

// Dependencies returns the sources consumer reads, sorted.
func (g *Graph) Dependencies(consumer string) []string {
	return slices.Sorted(maps.Keys(g.deps[consumer]))
}

// Dependents returns the consumers reading source, sorted.
func (g *Graph) Dependents(source string) []string {
	return slices.Sorted(maps.Keys(g.dependents[source]))
}

func (g *Graph) Sources() []string {
	return slices.Sorted(maps.Keys(g.sources))
}

// Unused returns the sources nothing reads.
func (g *Graph) Unused() []string {
	var unused []string
	for _, s := range g.Sources() {
		if len(g.dependents[s]) == 0 {
			unused = append(unused, s)
		}
	}
	return unused
}

// UpdateOrder returns the sources ordered so that every memo comes after
// the sources it reads. Ties are broken by name.
func (g *Graph) UpdateOrder() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, len(g.sources))
	order := make([]string, 0, len(g.sources))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			start := slices.Index(stack, name)
			path := append(slices.Clone(stack[start:]), name)
			return &sig.CyclicDependencyError{Path: path}
		}

		state[name] = visiting
		stack = append(stack, name)

		for _, dep := range g.Dependencies(name) {
			if !g.IsSource(dep) {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, s := range g.Sources() {
		if err := visit(s); err != nil {
			return nil, err
		}
	}

	return order, nil
}
