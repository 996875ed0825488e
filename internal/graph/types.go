package graph

import "github.com/joshharrison/planloom/internal/model"

// TaskGraph is the dependency index over one schedule's tasks.
type TaskGraph struct {
	Tasks  map[string]*model.Task
	Order  []string            // task ids in schedule order
	Adj    map[string][]string // task -> tasks that depend on it
	RevAdj map[string][]string // task -> tasks it depends on
	Roots  []string            // tasks with no predecessors
	Leaves []string            // tasks with no successors

	edges map[[2]string]model.Dependency
}
