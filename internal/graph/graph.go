package graph

import (
	"sort"

	"github.com/joshharrison/planloom/internal/model"
)

// Build indexes the tasks' dependencies and fails with a *model.CycleError
// if the result is not acyclic.
func Build(tasks []*model.Task) (*TaskGraph, error) {
	g := Index(tasks)
	if cycle := g.DetectCycle(); cycle != nil {
		return nil, model.NewCycleError(cycle)
	}
	return g, nil
}

// Index constructs a TaskGraph without checking for cycles.
// Edges that reference tasks outside the set are ignored.
func Index(tasks []*model.Task) *TaskGraph {
	g := &TaskGraph{
		Tasks:  make(map[string]*model.Task, len(tasks)),
		Order:  make([]string, 0, len(tasks)),
		Adj:    make(map[string][]string),
		RevAdj: make(map[string][]string),
		edges:  make(map[[2]string]model.Dependency),
	}

	for _, t := range tasks {
		g.Tasks[t.ID] = t
		g.Order = append(g.Order, t.ID)
	}

	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			pred, succ := dep.PredecessorID, t.ID
			if _, ok := g.Tasks[pred]; !ok {
				continue
			}
			key := [2]string{pred, succ}
			if _, dup := g.edges[key]; dup {
				continue
			}
			g.edges[key] = dep
			g.Adj[pred] = append(g.Adj[pred], succ)
			g.RevAdj[succ] = append(g.RevAdj[succ], pred)
		}
	}

	// Sort adjacency lists for deterministic ordering
	for k := range g.Adj {
		sort.Strings(g.Adj[k])
	}
	for k := range g.RevAdj {
		sort.Strings(g.RevAdj[k])
	}

	for _, id := range g.Order {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}
	sort.Strings(g.Roots)
	sort.Strings(g.Leaves)

	return g
}

// HasCycle reports whether the dependencies among tasks contain a cycle.
func HasCycle(tasks []*model.Task) bool {
	return Index(tasks).DetectCycle() != nil
}

// Predecessors returns the ids of tasks that id depends on.
func (g *TaskGraph) Predecessors(id string) []string {
	return g.RevAdj[id]
}

// Successors returns the ids of tasks that depend on id.
func (g *TaskGraph) Successors(id string) []string {
	return g.Adj[id]
}

// Lag returns the lag in days of the edge pred -> succ.
func (g *TaskGraph) Lag(pred, succ string) int {
	return g.edges[[2]string{pred, succ}].Lag
}

// Edge returns the dependency record for pred -> succ.
func (g *TaskGraph) Edge(pred, succ string) (model.Dependency, bool) {
	d, ok := g.edges[[2]string{pred, succ}]
	return d, ok
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
func (g *TaskGraph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range g.Adj[node] {
			if color[next] == gray {
				// Found a cycle, walk parents back to next
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	ids := make([]string, 0, len(g.Tasks))
	for id := range g.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// PathTo returns a successor path from one task to another, inclusive of
// both ends, or nil if to is not reachable from from.
func (g *TaskGraph) PathTo(from, to string) []string {
	if from == to {
		return []string{from}
	}
	parent := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range g.Adj[node] {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = node
			if next == to {
				var path []string
				for cur := to; cur != ""; cur = parent[cur] {
					path = append(path, cur)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// Reaches reports whether to is reachable from from along successor edges.
func (g *TaskGraph) Reaches(from, to string) bool {
	return g.PathTo(from, to) != nil
}

// CheckEdge refuses an edge pred -> succ that would close a cycle, returning
// a *model.CycleError naming the chain succ -> ... -> pred -> succ.
func (g *TaskGraph) CheckEdge(pred, succ string) error {
	if pred == succ {
		return model.NewCycleError([]string{pred, succ})
	}
	if path := g.PathTo(succ, pred); path != nil {
		return model.NewCycleError(append(path, succ))
	}
	return nil
}

// TaskCount returns the number of tasks in the graph.
func (g *TaskGraph) TaskCount() int {
	return len(g.Tasks)
}

// Filter returns a new TaskGraph containing only tasks matching the predicate.
// Edges touching filtered-out tasks are dropped.
func (g *TaskGraph) Filter(pred func(*model.Task) bool) *TaskGraph {
	var kept []*model.Task
	for _, id := range g.Order {
		if t := g.Tasks[id]; pred(t) {
			kept = append(kept, t)
		}
	}
	return Index(kept)
}
