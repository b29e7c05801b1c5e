package taskgraph

import (
	"strings"

	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
)

// Graph is a validated, acyclic set of tasks with a fixed execution order.
type Graph struct {
	specs []TaskSpec
	index map[string]int
	order []string
}

// NewGraph validates specs and computes the execution order.
func NewGraph(specs []TaskSpec) (*Graph, error) {
	g := &Graph{
		specs: make([]TaskSpec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}

	for _, spec := range specs {
		spec.ID = strings.TrimSpace(spec.ID)
		if spec.ID == "" {
			return nil, pcerrors.NewInvalidGraphError("", "task id is empty")
		}
		if _, exists := g.index[spec.ID]; exists {
			return nil, pcerrors.NewInvalidGraphError(spec.ID, "duplicate task id")
		}
		if strings.TrimSpace(spec.Description) == "" {
			return nil, pcerrors.NewInvalidGraphError(spec.ID, "description is empty")
		}
		var deps []string
		for _, dep := range spec.Dependencies {
			deps = append(deps, strings.TrimSpace(dep))
		}
		spec.Dependencies = deps
		g.index[spec.ID] = len(g.specs)
		g.specs = append(g.specs, spec)
	}

	if err := g.validateDependencies(); err != nil {
		return nil, err
	}

	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}
	g.order = order
	return g, nil
}

// validateDependencies ensures all dependencies reference existing tasks
func (g *Graph) validateDependencies() error {
	for _, spec := range g.specs {
		seen := make(map[string]bool, len(spec.Dependencies))
		for _, depID := range spec.Dependencies {
			if depID == spec.ID {
				return pcerrors.NewInvalidGraphError(spec.ID, "task depends on itself")
			}
			if _, exists := g.index[depID]; !exists {
				return pcerrors.NewInvalidGraphError(spec.ID, "depends on non-existent task '"+depID+"'")
			}
			if seen[depID] {
				return pcerrors.NewInvalidGraphError(spec.ID, "dependency '"+depID+"' listed twice")
			}
			seen[depID] = true
		}
	}
	return nil
}

// topologicalSort runs Kahn's algorithm. Among ready tasks the one declared
// first always goes next, so the order is deterministic.
func (g *Graph) topologicalSort() ([]string, error) {
	inDegree := make([]int, len(g.specs))
	dependents := make([][]int, len(g.specs))
	for i, spec := range g.specs {
		inDegree[i] = len(spec.Dependencies)
		for _, depID := range spec.Dependencies {
			d := g.index[depID]
			dependents[d] = append(dependents[d], i)
		}
	}

	done := make([]bool, len(g.specs))
	order := make([]string, 0, len(g.specs))
	for len(order) < len(g.specs) {
		next := -1
		for i := range g.specs {
			if !done[i] && inDegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, pcerrors.NewCycleDetectedError(g.findCycle(done))
		}

		done[next] = true
		order = append(order, g.specs[next].ID)
		for _, dep := range dependents[next] {
			inDegree[dep]--
		}
	}
	return order, nil
}

// findCycle walks dependencies among the unsorted tasks and returns the first
// cycle found, closed with its starting task.
func (g *Graph) findCycle(done []bool) []string {
	const (
		unvisited = iota
		onStack
		finished
	)
	state := make([]int, len(g.specs))
	var stack []int

	var visit func(i int) []string
	visit = func(i int) []string {
		state[i] = onStack
		stack = append(stack, i)
		for _, depID := range g.specs[i].Dependencies {
			d := g.index[depID]
			if done[d] {
				continue
			}
			switch state[d] {
			case onStack:
				var path []string
				start := 0
				for k, n := range stack {
					if n == d {
						start = k
						break
					}
				}
				for _, n := range stack[start:] {
					path = append(path, g.specs[n].ID)
				}
				return append(path, g.specs[d].ID)
			case unvisited:
				if path := visit(d); path != nil {
					return path
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[i] = finished
		return nil
	}

	for i := range g.specs {
		if !done[i] && state[i] == unvisited {
			if path := visit(i); path != nil {
				return path
			}
		}
	}
	return nil
}

// Order returns the execution order.
func (g *Graph) Order() []string {
	return append([]string(nil), g.order...)
}

// Task returns the spec for id.
func (g *Graph) Task(id string) (TaskSpec, bool) {
	i, ok := g.index[id]
	if !ok {
		return TaskSpec{}, false
	}
	return g.specs[i], true
}

// Tasks returns the specs in declaration order.
func (g *Graph) Tasks() []TaskSpec {
	return append([]TaskSpec(nil), g.specs...)
}

func (g *Graph) Len() int {
	return len(g.specs)
}
