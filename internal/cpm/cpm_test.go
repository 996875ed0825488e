package cpm

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/joshharrison/planloom/internal/graph"
	"github.com/joshharrison/planloom/internal/model"
)

var day0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// span builds a task running from day start to day end that depends on deps.
func span(id string, start, end int, deps ...string) *model.Task {
	t := &model.Task{
		ID:        id,
		Name:      id,
		StartDate: model.AddDays(day0, start),
		EndDate:   model.AddDays(day0, end),
		Status:    model.StatusNew,
	}
	for _, d := range deps {
		t.Dependencies = append(t.Dependencies, model.Dependency{
			ID: d + "-" + id, PredecessorID: d, SuccessorID: id, Type: model.FinishToStart,
		})
	}
	return t
}

func analyze(t *testing.T, tasks []*model.Task, opts Options) *Result {
	t.Helper()
	g, err := graph.Build(tasks)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	result, err := Analyze(g, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func TestAnalyze_FinishToStartPair(t *testing.T) {
	// A(day0-day3) -> B(day0-day2)
	result := analyze(t, []*model.Task{
		span("a", 0, 3),
		span("b", 0, 2, "a"),
	}, Options{})

	if result.TotalDuration != 5 {
		t.Errorf("expected total duration 5, got %d", result.TotalDuration)
	}
	assertSchedule(t, result.Tasks["a"], 0, 3, 0, 3, 0, true)
	assertSchedule(t, result.Tasks["b"], 3, 5, 3, 5, 0, true)

	if want := []string{"a", "b"}; !reflect.DeepEqual(result.CriticalPath, want) {
		t.Errorf("critical path = %v, want %v", result.CriticalPath, want)
	}
	if !result.Origin.Equal(day0) {
		t.Errorf("origin = %v, want %v", result.Origin, day0)
	}
}

func TestAnalyze_WithDurations(t *testing.T) {
	// A(5) -> B(1) -> D(1)
	// A(5) -> C(10) -> D(1)
	result := analyze(t, []*model.Task{
		span("a", 0, 5),
		span("b", 0, 1, "a"),
		span("c", 0, 10, "a"),
		span("d", 0, 1, "b", "c"),
	}, Options{})

	if result.TotalDuration != 16 {
		t.Errorf("expected total duration 16, got %d", result.TotalDuration)
	}
	assertSchedule(t, result.Tasks["b"], 5, 6, 14, 15, 9, false)
	assertSchedule(t, result.Tasks["c"], 5, 15, 5, 15, 0, true)
	assertSchedule(t, result.Tasks["d"], 15, 16, 15, 16, 0, true)

	if want := []string{"a", "c", "d"}; !reflect.DeepEqual(result.CriticalPath, want) {
		t.Errorf("critical path = %v, want %v", result.CriticalPath, want)
	}
}

func TestAnalyze_TieBrokenByIdentifier(t *testing.T) {
	result := analyze(t, []*model.Task{
		span("a", 0, 2),
		span("c", 0, 3, "a"),
		span("b", 0, 3, "a"),
		span("d", 0, 1, "b", "c"),
	}, Options{})

	if !result.Tasks["b"].IsCritical || !result.Tasks["c"].IsCritical {
		t.Fatal("expected both branches to be critical")
	}
	if want := []string{"a", "b", "d"}; !reflect.DeepEqual(result.CriticalPath, want) {
		t.Errorf("critical path = %v, want %v", result.CriticalPath, want)
	}
}

func TestAnalyze_LongestZeroSlackChainWins(t *testing.T) {
	// r runs day0-4; s starts late at day1 and also finishes at day4.
	result := analyze(t, []*model.Task{
		span("s", 1, 4),
		span("r", 0, 4),
	}, Options{})

	if !result.Tasks["s"].IsCritical || !result.Tasks["r"].IsCritical {
		t.Fatal("expected both tasks to have zero slack")
	}
	if want := []string{"r"}; !reflect.DeepEqual(result.CriticalPath, want) {
		t.Errorf("critical path = %v, want %v", result.CriticalPath, want)
	}
}

func TestAnalyze_IndependentTaskWithSlack(t *testing.T) {
	result := analyze(t, []*model.Task{
		span("x", 0, 4),
		span("y", 0, 2),
		span("z", 0, 1, "y"),
	}, Options{})

	assertSchedule(t, result.Tasks["x"], 0, 4, 0, 4, 0, true)
	assertSchedule(t, result.Tasks["y"], 0, 2, 1, 3, 1, false)
	assertSchedule(t, result.Tasks["z"], 2, 3, 3, 4, 1, false)
	if want := []string{"x"}; !reflect.DeepEqual(result.CriticalPath, want) {
		t.Errorf("critical path = %v, want %v", result.CriticalPath, want)
	}
}

func TestAnalyze_Lag(t *testing.T) {
	b := span("b", 0, 3, "a")
	b.Dependencies[0].Lag = 1
	result := analyze(t, []*model.Task{span("a", 0, 2), b}, Options{})

	assertSchedule(t, result.Tasks["a"], 0, 2, 0, 2, 0, true)
	assertSchedule(t, result.Tasks["b"], 3, 6, 3, 6, 0, true)
	if result.TotalDuration != 6 {
		t.Errorf("expected total duration 6, got %d", result.TotalDuration)
	}
}

func TestAnalyze_DeclaredTargetEnd(t *testing.T) {
	tasks := []*model.Task{span("a", 0, 3), span("b", 0, 2, "a")}

	result := analyze(t, tasks, Options{TargetEnd: model.AddDays(day0, 8)})
	if result.TotalDuration != 8 {
		t.Errorf("expected total duration 8, got %d", result.TotalDuration)
	}
	if result.Tasks["a"].Slack != 3 || result.Tasks["b"].Slack != 3 {
		t.Errorf("expected slack 3 for both, got a=%d b=%d", result.Tasks["a"].Slack, result.Tasks["b"].Slack)
	}
	if len(result.CriticalPath) != 0 {
		t.Errorf("expected empty critical path, got %v", result.CriticalPath)
	}

	// A declared end before the computed finish is ignored.
	result = analyze(t, tasks, Options{TargetEnd: model.AddDays(day0, 2)})
	if result.TotalDuration != 5 {
		t.Errorf("expected total duration 5, got %d", result.TotalDuration)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	result := analyze(t, nil, Options{})
	if len(result.CriticalPath) != 0 {
		t.Errorf("expected empty critical path, got %v", result.CriticalPath)
	}
	if result.TotalDuration != 0 {
		t.Errorf("expected total duration 0, got %d", result.TotalDuration)
	}
}

func TestAnalyze_Cycle(t *testing.T) {
	g := graph.Index([]*model.Task{span("a", 0, 1, "b"), span("b", 0, 1, "a")})
	_, err := Analyze(g, Options{})
	if !errors.Is(err, model.ErrCycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestAnalyze_WideDAG(t *testing.T) {
	//     A
	//   / | \
	//  B  C  D
	//   \ | /
	//     E
	result := analyze(t, []*model.Task{
		span("a", 0, 1),
		span("b", 0, 1, "a"),
		span("c", 0, 2, "a"),
		span("d", 0, 1, "a"),
		span("e", 0, 1, "b", "c", "d"),
	}, Options{})

	if len(result.Waves) != 3 {
		t.Fatalf("expected 3 waves, got %d", len(result.Waves))
	}
	if want := []string{"c", "b", "d"}; !reflect.DeepEqual(result.Waves[1].TaskIDs, want) {
		t.Errorf("wave 1 = %v, want critical first %v", result.Waves[1].TaskIDs, want)
	}
	if result.Tasks["e"].Wave != 2 {
		t.Errorf("expected e in wave 2, got %d", result.Tasks["e"].Wave)
	}
}

func TestAnalyze_NegativeLagKeepsProjectEndCritical(t *testing.T) {
	// B may start 5 days before A finishes, so A alone ends the project.
	b := span("b", 0, 2, "a")
	b.Dependencies[0].Lag = -5
	result := analyze(t, []*model.Task{span("a", 0, 3), b}, Options{})

	if result.TotalDuration != 3 {
		t.Errorf("expected total duration 3, got %d", result.TotalDuration)
	}
	assertSchedule(t, result.Tasks["a"], 0, 3, 0, 3, 0, true)
	assertSchedule(t, result.Tasks["b"], -2, 0, 1, 3, 3, false)
	if want := []string{"a"}; !reflect.DeepEqual(result.CriticalPath, want) {
		t.Errorf("critical path = %v, want %v", result.CriticalPath, want)
	}
	if result.PathLength != 3 {
		t.Errorf("expected path length 3, got %d", result.PathLength)
	}
}

func TestAnalyze_PathLength(t *testing.T) {
	tests := []struct {
		name       string
		tasks      func() []*model.Task
		wantPath   []string
		wantLength int
		wantTotal  int
	}{
		{
			name: "late root",
			tasks: func() []*model.Task {
				return []*model.Task{span("a", 0, 2), span("b", 5, 8)}
			},
			wantPath:   []string{"b"},
			wantLength: 3,
			wantTotal:  8,
		},
		{
			name: "lag on critical edge",
			tasks: func() []*model.Task {
				b := span("b", 0, 3, "a")
				b.Dependencies[0].Lag = 2
				return []*model.Task{span("a", 0, 2), b}
			},
			wantPath:   []string{"a", "b"},
			wantLength: 7,
			wantTotal:  7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyze(t, tt.tasks(), Options{})
			if !reflect.DeepEqual(result.CriticalPath, tt.wantPath) {
				t.Errorf("critical path = %v, want %v", result.CriticalPath, tt.wantPath)
			}
			if result.PathLength != tt.wantLength {
				t.Errorf("path length = %d, want %d", result.PathLength, tt.wantLength)
			}
			if result.TotalDuration != tt.wantTotal {
				t.Errorf("total duration = %d, want %d", result.TotalDuration, tt.wantTotal)
			}
		})
	}
}

func TestAnalyze_CriticalPathSpansSchedule(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		n := 2 + rng.Intn(12)
		tasks := make([]*model.Task, n)
		for i := range tasks {
			var deps []string
			for j := 0; j < i; j++ {
				if rng.Intn(3) == 0 {
					deps = append(deps, fmt.Sprintf("t%02d", j))
				}
			}
			start := rng.Intn(5)
			tasks[i] = span(fmt.Sprintf("t%02d", i), start, start+rng.Intn(6), deps...)
			for k := range tasks[i].Dependencies {
				tasks[i].Dependencies[k].Lag = rng.Intn(6) - 2
			}
		}

		g, err := graph.Build(tasks)
		if err != nil {
			t.Fatalf("round %d: build graph: %v", round, err)
		}
		result, err := Analyze(g, Options{})
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}

		for id, ts := range result.Tasks {
			if ts.Slack < 0 {
				t.Errorf("round %d: task %s has negative slack %d", round, id, ts.Slack)
			}
			if ts.LF > result.TotalDuration {
				t.Errorf("round %d: task %s finishes late at %d after target %d", round, id, ts.LF, result.TotalDuration)
			}
		}

		path := result.CriticalPath
		if len(path) == 0 {
			t.Fatalf("round %d: empty critical path", round)
		}
		if len(g.Predecessors(path[0])) != 0 {
			t.Errorf("round %d: critical path starts at %s which has predecessors", round, path[0])
		}
		for i, id := range path {
			ts := result.Tasks[id]
			if ts.Slack != 0 {
				t.Errorf("round %d: critical task %s has slack %d", round, id, ts.Slack)
			}
			if i > 0 {
				prev := result.Tasks[path[i-1]]
				if ts.ES != prev.EF+g.Lag(prev.TaskID, id) {
					t.Errorf("round %d: edge %s -> %s is not tight", round, prev.TaskID, id)
				}
			}
		}
		if last := result.Tasks[path[len(path)-1]]; last.EF != result.TotalDuration {
			t.Errorf("round %d: critical path ends at %d, target is %d", round, last.EF, result.TotalDuration)
		}
		if got := result.Tasks[path[0]].ES + result.PathLength; got != result.TotalDuration {
			t.Errorf("round %d: path starts at %d and covers %d days, span is %d",
				round, result.Tasks[path[0]].ES, result.PathLength, result.TotalDuration)
		}
	}
}

func TestApply(t *testing.T) {
	tasks := []*model.Task{span("a", 0, 3), span("b", 0, 2, "a")}
	result := analyze(t, tasks, Options{})
	Apply(tasks, result)

	b := tasks[1]
	if b.EarliestStart != 3 || b.EarliestFinish != 5 || b.LatestStart != 3 || b.LatestFinish != 5 {
		t.Errorf("unexpected computed fields on b: %+v", b)
	}
	if !b.IsCritical || b.Slack != 0 {
		t.Errorf("expected b critical with zero slack, got critical=%v slack=%d", b.IsCritical, b.Slack)
	}
}

func assertSchedule(t *testing.T, ts *TaskSchedule, es, ef, ls, lf, slack int, critical bool) {
	t.Helper()
	if ts.ES != es {
		t.Errorf("task %s: expected ES=%d, got %d", ts.TaskID, es, ts.ES)
	}
	if ts.EF != ef {
		t.Errorf("task %s: expected EF=%d, got %d", ts.TaskID, ef, ts.EF)
	}
	if ts.LS != ls {
		t.Errorf("task %s: expected LS=%d, got %d", ts.TaskID, ls, ts.LS)
	}
	if ts.LF != lf {
		t.Errorf("task %s: expected LF=%d, got %d", ts.TaskID, lf, ts.LF)
	}
	if ts.Slack != slack {
		t.Errorf("task %s: expected slack=%d, got %d", ts.TaskID, slack, ts.Slack)
	}
	if ts.IsCritical != critical {
		t.Errorf("task %s: expected critical=%v, got %v", ts.TaskID, critical, ts.IsCritical)
	}
}
