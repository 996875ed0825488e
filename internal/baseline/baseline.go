// Package baseline snapshots schedule dates and measures drift against them.
package baseline

import (
	"sort"

	"github.com/joshharrison/planloom/internal/model"
)

// Save replaces any existing baseline of s with its current dates.
func Save(s *model.Schedule) {
	b := &model.Baseline{
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		Tasks:     make([]model.BaselineTask, 0, len(s.Tasks)),
	}
	for _, t := range s.Tasks {
		b.Tasks = append(b.Tasks, model.BaselineTask{
			ID:        t.ID,
			StartDate: t.StartDate,
			EndDate:   t.EndDate,
		})
	}
	s.Baseline = b
}

// Revert restores schedule and task dates from the baseline and reports
// whether a baseline existed. Tasks created after the save keep their dates.
// Derived fields are left for the caller to recompute.
func Revert(s *model.Schedule) bool {
	if s.Baseline == nil {
		return false
	}
	s.StartDate = s.Baseline.StartDate
	s.EndDate = s.Baseline.EndDate

	saved := make(map[string]model.BaselineTask, len(s.Baseline.Tasks))
	for _, bt := range s.Baseline.Tasks {
		saved[bt.ID] = bt
	}
	for _, t := range s.Tasks {
		if bt, ok := saved[t.ID]; ok {
			t.StartDate = bt.StartDate
			t.EndDate = bt.EndDate
		}
	}
	return true
}

// TaskVariance is a task's drift from its baseline, in days. Positive means later.
type TaskVariance struct {
	TaskID         string `json:"task_id"`
	StartVariance  int    `json:"start_variance"`
	FinishVariance int    `json:"finish_variance"`
	DurationDelta  int    `json:"duration_delta"`
}

// Report summarises drift of a whole schedule against its baseline.
type Report struct {
	HasBaseline    bool           `json:"has_baseline"`
	StartVariance  int            `json:"start_variance"`
	FinishVariance int            `json:"finish_variance"`
	Tasks          []TaskVariance `json:"tasks"`
	Unbaselined    []string       `json:"unbaselined,omitempty"` // tasks added after the save
	Removed        []string       `json:"removed,omitempty"`     // baselined tasks no longer present
}

// Variance compares current dates with the baseline. Without a baseline the
// report is empty with HasBaseline false.
func Variance(s *model.Schedule) Report {
	if s.Baseline == nil {
		return Report{}
	}
	r := Report{
		HasBaseline:    true,
		StartVariance:  model.DaysBetween(s.Baseline.StartDate, s.StartDate),
		FinishVariance: model.DaysBetween(s.Baseline.EndDate, s.EndDate),
	}

	saved := make(map[string]model.BaselineTask, len(s.Baseline.Tasks))
	for _, bt := range s.Baseline.Tasks {
		saved[bt.ID] = bt
	}
	present := make(map[string]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		present[t.ID] = true
		bt, ok := saved[t.ID]
		if !ok {
			r.Unbaselined = append(r.Unbaselined, t.ID)
			continue
		}
		r.Tasks = append(r.Tasks, TaskVariance{
			TaskID:         t.ID,
			StartVariance:  model.DaysBetween(bt.StartDate, t.StartDate),
			FinishVariance: model.DaysBetween(bt.EndDate, t.EndDate),
			DurationDelta:  t.Duration() - model.DaysBetween(bt.StartDate, bt.EndDate),
		})
	}
	for id := range saved {
		if !present[id] {
			r.Removed = append(r.Removed, id)
		}
	}
	sort.Strings(r.Removed)
	return r
}
