package taskgraph

import pcerrors "github.com/maxkimambo/prodcrew/internal/errors"

// Builder assembles a Graph one task at a time
type Builder struct {
	specs []TaskSpec
	edges []edge
}

type edge struct {
	taskID       string
	dependencyID string
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AddTask adds a task to the graph being built
func (b *Builder) AddTask(spec TaskSpec) *Builder {
	b.specs = append(b.specs, spec)
	return b
}

// AddDependency defines a dependency between two tasks. Tasks may be added
// before or after their dependencies are declared.
func (b *Builder) AddDependency(taskID, dependencyID string) *Builder {
	b.edges = append(b.edges, edge{taskID: taskID, dependencyID: dependencyID})
	return b
}

// Build validates and constructs the final Graph
func (b *Builder) Build() (*Graph, error) {
	specs := make([]TaskSpec, len(b.specs))
	first := make(map[string]int, len(b.specs))
	for i, spec := range b.specs {
		spec.Dependencies = append([]string(nil), spec.Dependencies...)
		specs[i] = spec
		if _, ok := first[spec.ID]; !ok {
			first[spec.ID] = i
		}
	}

	for _, e := range b.edges {
		i, ok := first[e.taskID]
		if !ok {
			return nil, pcerrors.NewInvalidGraphError(e.taskID, "dependency declared for a task that was never added")
		}
		specs[i].Dependencies = append(specs[i].Dependencies, e.dependencyID)
	}

	return NewGraph(specs)
}

// ShowOrder returns the planned execution order without keeping the Graph
func (b *Builder) ShowOrder() ([]string, error) {
	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	return g.Order(), nil
}
