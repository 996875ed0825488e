// Package progress rolls per-task completion into a schedule percentage.
package progress

import (
	"math"

	"github.com/joshharrison/planloom/internal/model"
)

// DefaultInProgress is the completion assumed for in-progress tasks that
// carry no explicit percentage.
const DefaultInProgress = 50

// Policy controls how statuses map to completion.
type Policy struct {
	InProgressDefault int
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{InProgressDefault: DefaultInProgress}
}

// Ratio returns the completion percentage (0-100) of a single task.
func Ratio(t *model.Task, p Policy) float64 {
	switch t.Status {
	case model.StatusCompleted:
		return 100
	case model.StatusInProgress:
		if t.PercentComplete != nil {
			return clamp(float64(*t.PercentComplete))
		}
		return clamp(float64(p.InProgressDefault))
	default:
		return 0
	}
}

// Compute returns the duration-weighted completion of tasks, 0-100, rounded
// to two decimals. Zero-length tasks carry no weight; if every task is
// zero-length the result is 0.
func Compute(tasks []*model.Task, p Policy) float64 {
	var weighted, total float64
	for _, t := range tasks {
		d := t.Duration()
		if d <= 0 {
			continue
		}
		total += float64(d)
		weighted += float64(d) * Ratio(t, p)
	}
	if total == 0 {
		return 0
	}
	return math.Round(weighted/total*100) / 100
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
