// Package conflict cross-references task resource demand against resource
// availability windows.
package conflict

import "github.com/joshharrison/planloom/internal/model"

// Detect returns one conflict per (task, assignment) pair that cannot be
// satisfied, in task order then assignment order. It does not modify s.
//
// An assignment is unavailable when its resource is unknown or no window of
// the resource fully covers the task's dates; otherwise it is overallocated
// when the first covering window holds fewer units than requested.
func Detect(s *model.Schedule) []model.Conflict {
	var conflicts []model.Conflict
	for _, task := range s.Tasks {
		for _, a := range task.Resources {
			c := model.Conflict{
				TaskID:     task.ID,
				ResourceID: a.ResourceID,
				StartDate:  task.StartDate,
				EndDate:    task.EndDate,
				Requested:  a.Quantity,
			}

			window, ok := coveringWindow(s.Resource(a.ResourceID), task)
			if !ok {
				c.Type = model.ConflictUnavailable
				conflicts = append(conflicts, c)
				continue
			}
			if window.Quantity < a.Quantity {
				c.Type = model.ConflictOverallocation
				c.Available = window.Quantity
				conflicts = append(conflicts, c)
			}
		}
	}
	return conflicts
}

func coveringWindow(r *model.Resource, t *model.Task) (model.Availability, bool) {
	if r == nil {
		return model.Availability{}, false
	}
	for _, w := range r.Availability {
		if w.Contains(t.StartDate, t.EndDate) {
			return w, true
		}
	}
	return model.Availability{}, false
}
