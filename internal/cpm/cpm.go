package cpm

import (
	"slices"
	"sort"

	"github.com/joshharrison/planloom/internal/graph"
	"github.com/joshharrison/planloom/internal/model"
)

// Analyze performs critical path method analysis on a task graph.
// Durations are the tasks' scheduled lengths in days; every dependency is
// treated as finish-to-start plus its lag.
func Analyze(g *graph.TaskGraph, opts Options) (*Result, error) {
	result := &Result{Tasks: make(map[string]*TaskSchedule)}
	if g.TaskCount() == 0 {
		return result, nil
	}

	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}
	result.TopoOrder = order

	origin := g.Tasks[g.Order[0]].StartDate
	for _, id := range g.Order {
		if s := g.Tasks[id].StartDate; s.Before(origin) {
			origin = s
		}
	}
	result.Origin = model.Day(origin)

	for _, id := range order {
		result.Tasks[id] = &TaskSchedule{TaskID: id, Duration: g.Tasks[id].Duration()}
	}

	// Forward pass: compute ES and EF
	for _, id := range order {
		ts := result.Tasks[id]
		preds := g.Predecessors(id)
		if len(preds) == 0 {
			ts.ES = model.DaysBetween(result.Origin, g.Tasks[id].StartDate)
		} else {
			ts.ES = result.Tasks[preds[0]].EF + g.Lag(preds[0], id)
			for _, pred := range preds[1:] {
				if es := result.Tasks[pred].EF + g.Lag(pred, id); es > ts.ES {
					ts.ES = es
				}
			}
		}
		ts.EF = ts.ES + ts.Duration
	}

	target := result.Tasks[order[0]].EF
	for _, ts := range result.Tasks {
		if ts.EF > target {
			target = ts.EF
		}
	}
	if !opts.TargetEnd.IsZero() {
		if declared := model.DaysBetween(result.Origin, opts.TargetEnd); declared > target {
			target = declared
		}
	}
	result.TotalDuration = target

	// Backward pass: compute LS and LF in reverse topological order
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		ts := result.Tasks[id]

		succs := g.Successors(id)
		if len(succs) == 0 {
			ts.LF = target
		} else {
			ts.LF = result.Tasks[succs[0]].LS - g.Lag(id, succs[0])
			for _, succ := range succs[1:] {
				if lf := result.Tasks[succ].LS - g.Lag(id, succ); lf < ts.LF {
					ts.LF = lf
				}
			}
			// Negative lag can push a successor constraint past the project end.
			ts.LF = min(ts.LF, target)
		}
		ts.LS = ts.LF - ts.Duration
		ts.Slack = ts.LS - ts.ES
		ts.IsCritical = ts.Slack == 0
	}

	result.CriticalPath = criticalPath(g, result)
	result.PathLength = pathLength(g, result)
	result.Waves = computeWaves(result)

	return result, nil
}

// Apply copies the computed fields of r onto the matching tasks.
func Apply(tasks []*model.Task, r *Result) {
	for _, t := range tasks {
		ts, ok := r.Tasks[t.ID]
		if !ok {
			continue
		}
		t.EarliestStart = ts.ES
		t.EarliestFinish = ts.EF
		t.LatestStart = ts.LS
		t.LatestFinish = ts.LF
		t.Slack = ts.Slack
		t.IsCritical = ts.IsCritical
	}
}

// topoSort performs Kahn's algorithm for topological sorting.
func topoSort(g *graph.TaskGraph) ([]string, error) {
	inDegree := make(map[string]int, len(g.Tasks))
	for id := range g.Tasks {
		inDegree[id] = len(g.RevAdj[id])
	}

	// Start with roots (in-degree 0), sorted for determinism
	queue := append([]string(nil), g.Roots...)

	var order []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []string
		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newReady = append(newReady, succ)
			}
		}
		sort.Strings(newReady)
		queue = append(queue, newReady...)
	}

	if len(order) != len(g.Tasks) {
		return nil, model.NewCycleError(g.DetectCycle())
	}

	return order, nil
}

type chain struct {
	ids      []string
	duration int
}

func (c chain) betterThan(o chain) bool {
	if c.duration != o.duration {
		return c.duration > o.duration
	}
	return slices.Compare(c.ids, o.ids) < 0
}

// criticalPath picks, among zero-slack chains running from a task without
// predecessors to a task finishing on the target end over tight edges, the
// one with the greatest total duration. Ties go to the lexicographically
// smallest id sequence.
func criticalPath(g *graph.TaskGraph, r *Result) []string {
	best := make(map[string]chain)

	for i := len(r.TopoOrder) - 1; i >= 0; i-- {
		id := r.TopoOrder[i]
		ts := r.Tasks[id]
		if !ts.IsCritical {
			continue
		}

		var tail chain
		found := false
		if ts.EF == r.TotalDuration {
			tail, found = chain{}, true
		}
		for _, succ := range g.Successors(id) {
			sc, ok := best[succ]
			if !ok || r.Tasks[succ].ES != ts.EF+g.Lag(id, succ) {
				continue
			}
			if !found || sc.betterThan(tail) {
				tail, found = sc, true
			}
		}
		if found {
			ids := make([]string, 0, len(tail.ids)+1)
			ids = append(ids, id)
			best[id] = chain{ids: append(ids, tail.ids...), duration: ts.Duration + tail.duration}
		}
	}

	var path chain
	found := false
	for _, root := range g.Roots {
		c, ok := best[root]
		if !ok {
			continue
		}
		if !found || c.betterThan(path) {
			path, found = c, true
		}
	}
	return path.ids
}

// pathLength returns the days covered by the critical path: task durations
// plus the lags of the edges between them. It equals TotalDuration minus the
// earliest start of the first critical task.
func pathLength(g *graph.TaskGraph, r *Result) int {
	n := 0
	for i, id := range r.CriticalPath {
		n += r.Tasks[id].Duration
		if i > 0 {
			n += g.Lag(r.CriticalPath[i-1], id)
		}
	}
	return n
}

// computeWaves groups tasks by their earliest start time.
func computeWaves(result *Result) []Wave {
	esGroups := make(map[int][]string)
	for _, id := range result.TopoOrder {
		es := result.Tasks[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	esValues := make([]int, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Ints(esValues)

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		taskIDs := esGroups[es]
		sort.Strings(taskIDs)

		hasCritical := false
		for _, id := range taskIDs {
			result.Tasks[id].Wave = i
			if result.Tasks[id].IsCritical {
				hasCritical = true
			}
		}

		// Critical tasks first within a wave
		sort.SliceStable(taskIDs, func(a, b int) bool {
			return result.Tasks[taskIDs[a]].IsCritical && !result.Tasks[taskIDs[b]].IsCritical
		})

		waves[i] = Wave{
			Index:      i,
			Start:      es,
			TaskIDs:    taskIDs,
			IsCritical: hasCritical,
		}
	}

	return waves
}
