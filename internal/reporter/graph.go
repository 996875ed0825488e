package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/planloom/internal/cpm"
	"github.com/joshharrison/planloom/internal/graph"
	"github.com/joshharrison/planloom/internal/model"
)

// GraphNode is one task in the exported dependency graph.
type GraphNode struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	IsCritical bool   `json:"is_critical"`
	WaveIndex  int    `json:"wave_index"`
	Slack      int    `json:"slack"`
}

// GraphEdge is one dependency in the exported graph.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Lag  int    `json:"lag,omitempty"`
}

// GraphMetadata describes the schedule a graph was taken from.
type GraphMetadata struct {
	ScheduleID    string `json:"schedule_id"`
	Name          string `json:"name"`
	TotalTasks    int    `json:"total_tasks"`
	TotalWaves    int    `json:"total_waves"`
	TotalDuration int    `json:"total_duration"`
}

// Graph is a normalised node/edge view of a schedule for external renderers.
type Graph struct {
	Nodes        []GraphNode   `json:"nodes"`
	Edges        []GraphEdge   `json:"edges"`
	CriticalPath []string      `json:"critical_path"`
	Metadata     GraphMetadata `json:"metadata"`
}

// ToGraph converts an analysed task graph into a Graph. Nodes follow
// schedule order and edges follow predecessor order.
func ToGraph(s *model.Schedule, g *graph.TaskGraph, result *cpm.Result) *Graph {
	out := &Graph{
		Nodes:        make([]GraphNode, 0, len(g.Order)),
		Edges:        []GraphEdge{},
		CriticalPath: result.CriticalPath,
		Metadata: GraphMetadata{
			ScheduleID:    s.ID,
			Name:          s.Name,
			TotalTasks:    g.TaskCount(),
			TotalWaves:    len(result.Waves),
			TotalDuration: result.TotalDuration,
		},
	}
	if out.CriticalPath == nil {
		out.CriticalPath = []string{}
	}

	for _, id := range g.Order {
		t := g.Tasks[id]
		n := GraphNode{ID: id, Name: t.Name, Status: string(t.Status)}
		if ts, ok := result.Tasks[id]; ok {
			n.IsCritical = ts.IsCritical
			n.WaveIndex = ts.Wave
			n.Slack = ts.Slack
		}
		out.Nodes = append(out.Nodes, n)
	}
	for _, from := range g.Order {
		for _, to := range g.Successors(from) {
			out.Edges = append(out.Edges, GraphEdge{From: from, To: to, Lag: g.Lag(from, to)})
		}
	}
	return out
}

// WriteGraphJSON writes ToGraph output as indented JSON.
func WriteGraphJSON(w io.Writer, s *model.Schedule, g *graph.TaskGraph, result *cpm.Result) error {
	data, err := json.MarshalIndent(ToGraph(s, g, result), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// dotEscape makes s safe inside a double-quoted DOT string.
func dotEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// PrintDOT writes the dependency graph in Graphviz DOT format with the
// critical path highlighted.
func PrintDOT(w io.Writer, g *graph.TaskGraph, result *cpm.Result) {
	fmt.Fprintln(w, "digraph planloom {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	critical := func(id string) bool {
		ts := result.Tasks[id]
		return ts != nil && ts.IsCritical
	}

	for _, id := range g.Order {
		t := g.Tasks[id]
		label := fmt.Sprintf(`%s\n%s`, dotEscape(id), dotEscape(t.Name))
		if ts := result.Tasks[id]; ts != nil {
			label += fmt.Sprintf(`\n%dd, slack %d`, ts.Duration, ts.Slack)
		}
		attrs := fmt.Sprintf(`label="%s"`, label)
		if critical(id) {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(w, "  %q [%s];\n", id, attrs)
	}

	fmt.Fprintln(w)

	for _, from := range g.Order {
		for _, to := range g.Successors(from) {
			var attrs []string
			if critical(from) && critical(to) {
				attrs = append(attrs, "color=red", "penwidth=2")
			}
			if lag := g.Lag(from, to); lag != 0 {
				attrs = append(attrs, fmt.Sprintf(`label="%+dd"`, lag))
			}
			style := ""
			if len(attrs) > 0 {
				style = " [" + strings.Join(attrs, ", ") + "]"
			}
			fmt.Fprintf(w, "  %q -> %q%s;\n", from, to, style)
		}
	}

	fmt.Fprintln(w, "}")
}
