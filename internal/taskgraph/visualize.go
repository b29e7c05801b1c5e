package taskgraph

import (
	"fmt"
	"strings"
)

// NodeInfo describes one task for visualization.
type NodeInfo struct {
	ID       string     `json:"id"`
	Executor string     `json:"executor"`
	Status   TaskStatus `json:"status"`
	Duration string     `json:"duration,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// EdgeInfo points from a dependency to the task that consumes it.
type EdgeInfo struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphInfo is the graph structure plus whatever results ec holds.
type GraphInfo struct {
	Nodes []NodeInfo `json:"nodes"`
	Edges []EdgeInfo `json:"edges"`
}

// Describe builds the visualization model of g in execution order. ec may be
// nil, in which case every task is pending.
func Describe(g *Graph, ec *ExecutionContext) GraphInfo {
	info := GraphInfo{Nodes: []NodeInfo{}, Edges: []EdgeInfo{}}
	for _, id := range g.Order() {
		spec, _ := g.Task(id)
		node := NodeInfo{ID: id, Executor: spec.Executor, Status: StatusPending}
		if ec != nil {
			if result, ok := ec.Get(id); ok {
				node.Status = result.Status
				node.Duration = result.Duration().String()
				node.Error = result.Err
			}
		}
		info.Nodes = append(info.Nodes, node)
		for _, dep := range spec.Dependencies {
			info.Edges = append(info.Edges, EdgeInfo{From: dep, To: id})
		}
	}
	return info
}

// DOT renders g as a Graphviz digraph colored by task status.
func DOT(g *Graph, ec *ExecutionContext) string {
	info := Describe(g, ec)

	var sb strings.Builder
	sb.WriteString("digraph TaskGraph {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=filled];\n\n")

	for _, node := range info.Nodes {
		label := node.ID
		if node.Executor != "" {
			label += "\\n" + node.Executor
		}
		if node.Duration != "" {
			label += "\\n" + node.Duration
		}
		if node.Error != "" {
			msg := node.Error
			if len(msg) > 50 {
				msg = msg[:47] + "..."
			}
			label += "\\nError: " + strings.ReplaceAll(msg, `"`, `'`)
		}
		sb.WriteString(fmt.Sprintf("  %q [label=\"%s\", fillcolor=%q];\n", node.ID, label, statusColor(node.Status)))
	}

	if len(info.Edges) > 0 {
		sb.WriteString("\n")
	}
	for _, e := range info.Edges {
		sb.WriteString(fmt.Sprintf("  %q -> %q;\n", e.From, e.To))
	}
	sb.WriteString("}\n")
	return sb.String()
}

func statusColor(s TaskStatus) string {
	switch s {
	case StatusRunning:
		return "lightblue"
	case StatusSucceeded:
		return "lightgreen"
	case StatusFailed:
		return "salmon"
	case StatusEmptyOutput:
		return "orange"
	default:
		return "lightgrey"
	}
}
