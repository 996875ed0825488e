package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/joshharrison/planloom/internal/baseline"
	"github.com/joshharrison/planloom/internal/conflict"
	"github.com/joshharrison/planloom/internal/cpm"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/progress"
)

// CalculateCriticalPath recomputes CPM fields and the critical path. It is idempotent.
func (e *Engine) CalculateCriticalPath(scheduleID string) (*model.Schedule, error) {
	return e.mutate(scheduleID, "calculate_critical_path", recomputeCriticalPath, func(*model.Schedule) error {
		return nil
	})
}

// CalculateProgress recomputes and stores schedule progress. It is idempotent.
func (e *Engine) CalculateProgress(scheduleID string) (float64, error) {
	s, err := e.mutate(scheduleID, "calculate_progress", recomputeNone, func(s *model.Schedule) error {
		s.Progress = progress.Compute(s.Tasks, e.settings.Progress)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return s.Progress, nil
}

// CriticalPathAnalysis returns the full CPM result, including parallel waves,
// without changing stored state.
func (e *Engine) CriticalPathAnalysis(scheduleID string) (*cpm.Result, error) {
	s, ok := e.schedules[scheduleID]
	if !ok {
		return nil, model.NewNotFoundError("schedule", scheduleID)
	}
	return Analyze(s, e.settings)
}

// DetectResourceConflicts reports unsatisfiable resource assignments.
func (e *Engine) DetectResourceConflicts(scheduleID string) ([]model.Conflict, error) {
	s, ok := e.schedules[scheduleID]
	if !ok {
		return nil, model.NewNotFoundError("schedule", scheduleID)
	}
	conflicts := conflict.Detect(s)
	if len(conflicts) > 0 {
		e.log.Info("resource conflicts detected",
			zap.String("schedule_id", scheduleID), zap.Int("count", len(conflicts)))
	}
	return conflicts, nil
}

// SaveBaseline snapshots current dates, replacing any previous baseline.
func (e *Engine) SaveBaseline(scheduleID string) (*model.Schedule, error) {
	return e.mutate(scheduleID, "save_baseline", recomputeNone, func(s *model.Schedule) error {
		baseline.Save(s)
		return nil
	})
}

// RevertToBaseline restores baselined dates. Without a baseline it is a
// no-op. Derived fields are not recomputed; call CalculateCriticalPath and
// CalculateProgress afterwards.
func (e *Engine) RevertToBaseline(scheduleID string) (*model.Schedule, error) {
	cur, ok := e.schedules[scheduleID]
	if !ok {
		return nil, model.NewNotFoundError("schedule", scheduleID)
	}
	if cur.Baseline == nil {
		e.log.Debug("no baseline to revert", zap.String("schedule_id", scheduleID))
		return cur.Clone(), nil
	}
	return e.mutate(scheduleID, "revert_to_baseline", recomputeNone, func(s *model.Schedule) error {
		baseline.Revert(s)
		return nil
	})
}

// Variance compares current dates with the saved baseline.
func (e *Engine) Variance(scheduleID string) (baseline.Report, error) {
	s, ok := e.schedules[scheduleID]
	if !ok {
		return baseline.Report{}, model.NewNotFoundError("schedule", scheduleID)
	}
	return baseline.Variance(s), nil
}

// UpcomingDeadlines lists tasks of every schedule whose end date falls
// between today and today+days inclusive, soonest first, then by schedule
// name and task id. Completed tasks are skipped.
func (e *Engine) UpcomingDeadlines(days int) []Deadline {
	today := model.Day(e.clock.Now())
	horizon := model.AddDays(today, days)

	var out []Deadline
	for _, sid := range e.order {
		s := e.schedules[sid]
		for _, t := range s.Tasks {
			if t.Status == model.StatusCompleted {
				continue
			}
			end := model.Day(t.EndDate)
			if end.Before(today) || end.After(horizon) {
				continue
			}
			out = append(out, Deadline{
				ScheduleID:   s.ID,
				ScheduleName: s.Name,
				TaskID:       t.ID,
				TaskName:     t.Name,
				Deadline:     t.EndDate,
				DaysLeft:     model.DaysBetween(today, end),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DaysLeft != b.DaysLeft {
			return a.DaysLeft < b.DaysLeft
		}
		if a.ScheduleName != b.ScheduleName {
			return a.ScheduleName < b.ScheduleName
		}
		return a.TaskID < b.TaskID
	})
	return out
}
