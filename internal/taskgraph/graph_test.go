package taskgraph

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
)

func spec(id string, deps ...string) TaskSpec {
	return TaskSpec{ID: id, Description: "do " + id, Executor: "agent", Dependencies: deps}
}

func TestNewGraph_LinearOrder(t *testing.T) {
	g, err := NewGraph([]TaskSpec{spec("A"), spec("B", "A"), spec("C", "B")})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []string{"A", "B", "C"}
	if !reflect.DeepEqual(g.Order(), expected) {
		t.Errorf("Expected order %v, got %v", expected, g.Order())
	}
	if g.Len() != 3 {
		t.Errorf("Expected 3 tasks, got %d", g.Len())
	}
}

func TestNewGraph_StableTieBreak(t *testing.T) {
	// D and B are both ready after A; declaration order decides
	g, err := NewGraph([]TaskSpec{
		spec("A"),
		spec("D", "A"),
		spec("B", "A"),
		spec("E"),
		spec("C", "B", "D"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []string{"A", "D", "B", "E", "C"}
	if !reflect.DeepEqual(g.Order(), expected) {
		t.Errorf("Expected order %v, got %v", expected, g.Order())
	}

	// repeated builds never reorder
	for i := 0; i < 20; i++ {
		again, _ := NewGraph(g.Tasks())
		if !reflect.DeepEqual(again.Order(), expected) {
			t.Fatalf("Order changed on rebuild %d: %v", i, again.Order())
		}
	}
}

func TestNewGraph_DependencyDeclaredLater(t *testing.T) {
	g, err := NewGraph([]TaskSpec{spec("report", "scan"), spec("scan")})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []string{"scan", "report"}
	if !reflect.DeepEqual(g.Order(), expected) {
		t.Errorf("Expected order %v, got %v", expected, g.Order())
	}
}

func TestNewGraph_OrderRespectsEveryEdge(t *testing.T) {
	specs := []TaskSpec{
		spec("t1"),
		spec("t2", "t1"),
		spec("t3", "t1"),
		spec("t4", "t2", "t3"),
		spec("t5"),
		spec("t6", "t5", "t4"),
		spec("t7", "t6", "t1"),
	}
	g, err := NewGraph(specs)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	position := make(map[string]int)
	for i, id := range g.Order() {
		position[id] = i
	}
	for _, s := range specs {
		for _, dep := range s.Dependencies {
			if position[dep] >= position[s.ID] {
				t.Errorf("Task %s scheduled before its dependency %s", s.ID, dep)
			}
		}
	}
}

func TestNewGraph_CycleDetected(t *testing.T) {
	_, err := NewGraph([]TaskSpec{spec("P", "Q"), spec("Q", "P")})
	if err == nil {
		t.Fatal("Expected error for cycle")
	}
	if !errors.Is(err, pcerrors.ErrCycleDetected) {
		t.Errorf("Expected ErrCycleDetected, got %v", err)
	}
	if !strings.Contains(err.Error(), "P -> Q -> P") {
		t.Errorf("Expected cycle path in error, got %q", err.Error())
	}
	if !pcerrors.IsFatal(err) {
		t.Error("Cycle errors must be fatal")
	}
}

func TestNewGraph_LongCyclePath(t *testing.T) {
	_, err := NewGraph([]TaskSpec{
		spec("start"),
		spec("a", "start", "c"),
		spec("b", "a"),
		spec("c", "b"),
	})
	if err == nil {
		t.Fatal("Expected error for cycle")
	}
	if !strings.Contains(err.Error(), "a -> c -> b -> a") {
		t.Errorf("Expected cycle path in error, got %q", err.Error())
	}
}

func TestNewGraph_InvalidDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		specs  []TaskSpec
		reason string
	}{
		{"empty id", []TaskSpec{{Description: "x"}}, "task id is empty"},
		{"duplicate id", []TaskSpec{spec("A"), spec("A")}, "duplicate task id"},
		{"empty description", []TaskSpec{{ID: "A"}}, "description is empty"},
		{"unknown dependency", []TaskSpec{spec("A", "B")}, "non-existent task 'B'"},
		{"self dependency", []TaskSpec{spec("A", "A")}, "depends on itself"},
		{"duplicate dependency", []TaskSpec{spec("A"), spec("B", "A", "A")}, "listed twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.specs)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !errors.Is(err, pcerrors.ErrInvalidGraph) {
				t.Errorf("Expected ErrInvalidGraph, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("Expected %q in error, got %q", tt.reason, err.Error())
			}
		})
	}
}

func TestGraph_TaskLookup(t *testing.T) {
	g, err := NewGraph([]TaskSpec{spec("A"), spec("B", "A")})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	b, ok := g.Task("B")
	if !ok || b.Dependencies[0] != "A" {
		t.Errorf("Expected B depending on A, got %+v", b)
	}
	if _, ok := g.Task("missing"); ok {
		t.Error("Expected lookup of unknown task to fail")
	}
}

func TestGraph_DoesNotAliasInput(t *testing.T) {
	specs := []TaskSpec{spec("A"), spec("B", "A")}
	g, err := NewGraph(specs)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	specs[1].Dependencies[0] = "changed"
	b, _ := g.Task("B")
	if b.Dependencies[0] != "A" {
		t.Errorf("Graph must not share dependency slices with callers, got %v", b.Dependencies)
	}
}

func TestNewGraph_TrimsDependencyIDs(t *testing.T) {
	g, err := NewGraph([]TaskSpec{spec(" A "), spec("B", " A", "A\t")})
	if err == nil {
		t.Fatalf("Expected duplicate dependency error after trimming, got order %v", g.Order())
	}

	g, err = NewGraph([]TaskSpec{spec(" A "), spec("B", " A")})
	if err != nil {
		t.Fatalf("Expected padded dependency to resolve, got: %v", err)
	}
	b, _ := g.Task("B")
	if b.Dependencies[0] != "A" {
		t.Errorf("Expected trimmed dependency A, got %q", b.Dependencies[0])
	}
	if got := g.Order(); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("Expected order [A B], got %v", got)
	}
}

func TestBuilder_ValidGraph(t *testing.T) {
	g, err := NewBuilder().
		AddTask(TaskSpec{ID: "A", Description: "first"}).
		AddTask(TaskSpec{ID: "B", Description: "second"}).
		AddTask(TaskSpec{ID: "C", Description: "third"}).
		AddDependency("B", "A").
		AddDependency("C", "B").
		Build()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []string{"A", "B", "C"}
	if !reflect.DeepEqual(g.Order(), expected) {
		t.Errorf("Expected order %v, got %v", expected, g.Order())
	}
}

func TestBuilder_DependencyForMissingTask(t *testing.T) {
	_, err := NewBuilder().
		AddTask(TaskSpec{ID: "A", Description: "first"}).
		AddDependency("Z", "A").
		Build()
	if err == nil {
		t.Fatal("Expected error for dependency on a task that was never added")
	}
	if !errors.Is(err, pcerrors.ErrInvalidGraph) {
		t.Errorf("Expected ErrInvalidGraph, got %v", err)
	}
}

func TestBuilder_ShowOrderCycle(t *testing.T) {
	order, err := NewBuilder().
		AddTask(TaskSpec{ID: "P", Description: "p"}).
		AddTask(TaskSpec{ID: "Q", Description: "q"}).
		AddDependency("P", "Q").
		AddDependency("Q", "P").
		ShowOrder()
	if err == nil {
		t.Fatalf("Expected cycle error, got order %v", order)
	}
	if !errors.Is(err, pcerrors.ErrCycleDetected) {
		t.Errorf("Expected ErrCycleDetected, got %v", err)
	}
}
