package engine

import (
	"slices"
	"strconv"

	"github.com/joshharrison/planloom/internal/graph"
	"github.com/joshharrison/planloom/internal/model"
)

func validateTask(t *model.Task) error {
	label := t.ID
	if label == "" {
		label = t.Name
	}
	if err := model.CheckInterval("task '"+label+"'", t.StartDate, t.EndDate); err != nil {
		return err
	}
	if !t.Status.Valid() {
		return model.NewValidationError("status", string(t.Status), "expected new, in_progress, completed or blocked")
	}
	if p := t.PercentComplete; p != nil && (*p < 0 || *p > 100) {
		return model.NewValidationError("percent complete", strconv.Itoa(*p), "must be between 0 and 100")
	}
	for _, a := range t.Resources {
		if a.ResourceID == "" {
			return model.NewValidationError("assignment resource", "", "must not be empty")
		}
		if a.Quantity < 0 {
			return model.NewValidationError("assignment quantity", strconv.Itoa(a.Quantity), "must not be negative")
		}
	}
	return nil
}

func validateDependencyType(t model.DependencyType) error {
	if t != "" && t != model.FinishToStart {
		return model.NewValidationError("dependency type", string(t), "only finish_to_start is supported")
	}
	return nil
}

// AddTask appends a task to a schedule and recomputes it.
func (e *Engine) AddTask(scheduleID string, in TaskInput) (*model.Schedule, string, error) {
	var taskID string
	s, err := e.mutate(scheduleID, "add_task", recomputeAll, func(s *model.Schedule) error {
		t := &model.Task{
			ScheduleID:      s.ID,
			Name:            in.Name,
			StartDate:       in.StartDate,
			EndDate:         in.EndDate,
			Status:          in.Status,
			PercentComplete: in.PercentComplete,
			Resources:       slices.Clone(in.Resources),
		}
		if t.Status == "" {
			t.Status = model.StatusNew
		}
		if err := validateTask(t); err != nil {
			return err
		}
		t.ID = e.ids.NewID("task")
		s.Tasks = append(s.Tasks, t)
		taskID = t.ID
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return s, taskID, nil
}

// UpdateTask patches a task and recomputes its schedule.
func (e *Engine) UpdateTask(scheduleID, taskID string, p TaskPatch) (*model.Schedule, error) {
	return e.mutate(scheduleID, "update_task", recomputeAll, func(s *model.Schedule) error {
		t := s.Task(taskID)
		if t == nil {
			return model.NewNotFoundError("task", taskID)
		}
		if p.Name != nil {
			t.Name = *p.Name
		}
		if p.StartDate != nil {
			t.StartDate = *p.StartDate
		}
		if p.EndDate != nil {
			t.EndDate = *p.EndDate
		}
		if p.Status != nil {
			t.Status = *p.Status
		}
		if p.PercentComplete != nil {
			pc := *p.PercentComplete
			t.PercentComplete = &pc
		}
		if p.Resources != nil {
			t.Resources = slices.Clone(*p.Resources)
		}
		return validateTask(t)
	})
}

// RemoveTask deletes a task together with every dependency touching it.
func (e *Engine) RemoveTask(scheduleID, taskID string) (*model.Schedule, error) {
	return e.mutate(scheduleID, "remove_task", recomputeAll, func(s *model.Schedule) error {
		if s.Task(taskID) == nil {
			return model.NewNotFoundError("task", taskID)
		}
		s.Tasks = slices.DeleteFunc(s.Tasks, func(t *model.Task) bool { return t.ID == taskID })
		for _, t := range s.Tasks {
			t.Dependencies = slices.DeleteFunc(t.Dependencies, func(d model.Dependency) bool {
				return d.PredecessorID == taskID
			})
		}
		return nil
	})
}

// AddDependency links two tasks of a schedule. An edge that would close a
// cycle is refused with a *model.CycleError and the schedule is unchanged.
func (e *Engine) AddDependency(scheduleID string, in DependencyInput) (*model.Schedule, string, error) {
	var depID string
	s, err := e.mutate(scheduleID, "add_dependency", recomputeCriticalPath, func(s *model.Schedule) error {
		if s.Task(in.PredecessorID) == nil {
			return model.NewNotFoundError("task", in.PredecessorID)
		}
		succ := s.Task(in.SuccessorID)
		if succ == nil {
			return model.NewNotFoundError("task", in.SuccessorID)
		}
		if err := validateDependencyType(in.Type); err != nil {
			return err
		}

		g := graph.Index(s.Tasks)
		if _, dup := g.Edge(in.PredecessorID, in.SuccessorID); dup {
			return model.NewValidationError("dependency", in.PredecessorID+" -> "+in.SuccessorID, "already exists")
		}
		if err := g.CheckEdge(in.PredecessorID, in.SuccessorID); err != nil {
			return err
		}

		typ := in.Type
		if typ == "" {
			typ = model.FinishToStart
		}
		dep := model.Dependency{
			ID:            e.ids.NewID("dependency"),
			PredecessorID: in.PredecessorID,
			SuccessorID:   in.SuccessorID,
			Type:          typ,
			Lag:           in.Lag,
		}
		succ.Dependencies = append(succ.Dependencies, dep)
		depID = dep.ID
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return s, depID, nil
}

// RemoveDependency deletes a dependency by id.
func (e *Engine) RemoveDependency(scheduleID, dependencyID string) (*model.Schedule, error) {
	return e.mutate(scheduleID, "remove_dependency", recomputeCriticalPath, func(s *model.Schedule) error {
		for _, t := range s.Tasks {
			for i, d := range t.Dependencies {
				if d.ID == dependencyID {
					t.Dependencies = slices.Delete(t.Dependencies, i, i+1)
					return nil
				}
			}
		}
		return model.NewNotFoundError("dependency", dependencyID)
	})
}
